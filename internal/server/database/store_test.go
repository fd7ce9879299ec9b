package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetbase/drive-v1/internal/drive"
	"github.com/sheetbase/drive-v1/internal/server/storage"
)

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(ErrFileNotFound), drive.ErrNotFound)
	assert.ErrorIs(t, notFound(ErrFolderNotFound), drive.ErrNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, notFound(other))
}

// newIntegrationStore connects to TEST_DATABASE_URL and skips when unset.
func newIntegrationStore(t *testing.T) (*Store, string) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.RunMigrations(ctx))

	blobs := storage.NewFileSystemStore(t.TempDir())
	store := NewStore(NewRepository(db), blobs, "http://files.test/link/")

	rootID := "root-" + uuid.NewString()
	require.NoError(t, store.EnsureRoot(ctx, rootID, "uploads"))
	require.NoError(t, store.EnsureRoot(ctx, rootID, "uploads"))
	return store, rootID
}

func TestStore_Integration(t *testing.T) {
	store, rootID := newIntegrationStore(t)
	ctx := context.Background()

	root, err := store.FolderByID(ctx, rootID)
	require.NoError(t, err)

	t.Run("folders keep creation order", func(t *testing.T) {
		first, err := root.CreateFolder(ctx, "dup")
		require.NoError(t, err)
		_, err = root.CreateFolder(ctx, "dup")
		require.NoError(t, err)

		found, err := root.FoldersByName(ctx, "dup")
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, first.ID(), found[0].ID())
	})

	t.Run("file lifecycle", func(t *testing.T) {
		f, err := root.CreateFile(ctx, "a.txt", "text/plain", []byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, drive.AccessPrivate, f.SharingAccess())
		assert.Equal(t, drive.Checksum([]byte("hello")), f.Checksum())
		assert.Equal(t, "http://files.test/link/"+f.ID(), f.URL())

		f, err = f.SetSharing(ctx, drive.AccessAnyoneWithLink, drive.PermissionView)
		require.NoError(t, err)
		require.NoError(t, f.AddEditor(ctx, "Me@Example.com"))
		require.NoError(t, f.SetContent(ctx, []byte("hello again")))

		got, err := store.FileByID(ctx, f.ID())
		require.NoError(t, err)
		assert.Equal(t, drive.AccessAnyoneWithLink, got.SharingAccess())
		assert.Equal(t, int64(11), got.Size())
		assert.Equal(t, drive.Checksum([]byte("hello again")), got.Checksum())

		p, err := got.AccessFor(ctx, "me@example.com")
		require.NoError(t, err)
		assert.Equal(t, drive.PermissionEdit, p)

		body, err := got.Content(ctx)
		require.NoError(t, err)
		assert.Equal(t, "hello again", string(body))

		parents, err := got.Parents(ctx)
		require.NoError(t, err)
		assert.Equal(t, rootID, parents[0].ID())

		require.NoError(t, got.SetTrashed(ctx, true))
		n, err := store.PurgeTrashed(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)

		_, err = store.FileByID(ctx, f.ID())
		assert.ErrorIs(t, err, drive.ErrNotFound)
	})
}
