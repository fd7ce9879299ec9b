package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetbase/drive-v1/internal/drive"
	"github.com/sheetbase/drive-v1/internal/server/auth"
)

func TestIsShared(t *testing.T) {
	ctx := context.Background()
	root := drive.NewMemoryStore("").AddRootFolder("root", "uploads")

	tests := []struct {
		access   drive.Access
		expected bool
	}{
		{drive.AccessAnyone, true},
		{drive.AccessAnyoneWithLink, true},
		{drive.AccessDomain, false},
		{drive.AccessDomainWithLink, false},
		{drive.AccessPrivate, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.access), func(t *testing.T) {
			f, err := root.CreateFile(ctx, "a.txt", "text/plain", nil)
			require.NoError(t, err)
			f, err = f.SetSharing(ctx, tt.access, drive.PermissionView)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, IsShared(f))
		})
	}
}

func TestPermissions(t *testing.T) {
	ctx := context.Background()
	root := drive.NewMemoryStore("").AddRootFolder("root", "uploads")

	editor := &auth.Identity{UID: "u1", Email: "editor@example.com"}
	stranger := &auth.Identity{UID: "u2", Email: "stranger@example.com"}
	noEmail := &auth.Identity{UID: "u3"}

	identities := map[string]*auth.Identity{
		"anonymous": nil,
		"editor":    editor,
		"stranger":  stranger,
		"no email":  noEmail,
	}

	for _, access := range []drive.Access{drive.AccessPrivate, drive.AccessAnyoneWithLink, drive.AccessDomain} {
		f, err := root.CreateFile(ctx, "a.txt", "text/plain", nil)
		require.NoError(t, err)
		f, err = f.SetSharing(ctx, access, drive.PermissionView)
		require.NoError(t, err)
		require.NoError(t, f.AddEditor(ctx, editor.Email))

		for name, id := range identities {
			t.Run(string(access)+"/"+name, func(t *testing.T) {
				canEdit, err := HasEditPermission(ctx, id, f)
				require.NoError(t, err)
				assert.Equal(t, id == editor, canEdit)

				canView, err := HasViewPermission(ctx, id, f)
				require.NoError(t, err)
				assert.Equal(t, IsShared(f) || canEdit, canView)
			})
		}
	}
}
