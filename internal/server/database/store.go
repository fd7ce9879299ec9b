package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sheetbase/drive-v1/internal/drive"
	"github.com/sheetbase/drive-v1/internal/server/storage"
)

// Store is a drive.Store with metadata in Postgres and bodies in a BlobStore.
type Store struct {
	repo     *Repository
	blobs    storage.BlobStore
	linkBase string
}

// NewStore creates a Store. Canonical file links are linkBase + id.
func NewStore(repo *Repository, blobs storage.BlobStore, linkBase string) *Store {
	return &Store{repo: repo, blobs: blobs, linkBase: linkBase}
}

// EnsureRoot makes sure the upload root folder exists.
func (s *Store) EnsureRoot(ctx context.Context, id, name string) error {
	return s.repo.EnsureRootFolder(ctx, id, name)
}

func (s *Store) FileByID(ctx context.Context, id string) (drive.File, error) {
	row, err := s.repo.GetFile(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &pgFile{store: s, row: row}, nil
}

func (s *Store) FolderByID(ctx context.Context, id string) (drive.Folder, error) {
	row, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &pgFolder{store: s, row: row}, nil
}

// PurgeTrashed permanently removes files trashed before cutoff, body first.
// Files that fail are left for the next run.
func (s *Store) PurgeTrashed(ctx context.Context, cutoff time.Time) (int, error) {
	trashed, err := s.repo.GetTrashedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, f := range trashed {
		if err := s.blobs.Delete(ctx, f.BlobKey); err != nil {
			slog.Error("failed to delete blob", "file_id", f.ID, "error", err)
			continue
		}
		if err := s.repo.DeleteFile(ctx, f.ID); err != nil {
			slog.Error("failed to delete file record", "file_id", f.ID, "error", err)
			continue
		}
		purged++
	}
	return purged, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.repo.db.HealthCheck(ctx)
}

func notFound(err error) error {
	if errors.Is(err, ErrFileNotFound) || errors.Is(err, ErrFolderNotFound) {
		return fmt.Errorf("%w: %w", drive.ErrNotFound, err)
	}
	return err
}

type pgFolder struct {
	store *Store
	row   *Folder
}

func (f *pgFolder) ID() string   { return f.row.ID }
func (f *pgFolder) Name() string { return f.row.Name }

func (f *pgFolder) FoldersByName(ctx context.Context, name string) ([]drive.Folder, error) {
	rows, err := f.store.repo.ChildFoldersByName(ctx, f.row.ID, name)
	if err != nil {
		return nil, err
	}
	out := make([]drive.Folder, 0, len(rows))
	for _, row := range rows {
		out = append(out, &pgFolder{store: f.store, row: row})
	}
	return out, nil
}

func (f *pgFolder) CreateFolder(ctx context.Context, name string) (drive.Folder, error) {
	parent := f.row.ID
	row := &Folder{ID: uuid.NewString(), Name: name, ParentID: &parent}
	if err := f.store.repo.CreateFolder(ctx, row); err != nil {
		return nil, err
	}
	return &pgFolder{store: f.store, row: row}, nil
}

// CreateFile writes the body before the record so a visible file always has
// content.
func (f *pgFolder) CreateFile(ctx context.Context, name, mimeType string, content []byte) (drive.File, error) {
	id := uuid.NewString()
	if err := f.store.blobs.Put(ctx, id, mimeType, content); err != nil {
		return nil, err
	}

	row := &File{
		ID:                id,
		FolderID:          f.row.ID,
		Name:              name,
		MimeType:          mimeType,
		Size:              int64(len(content)),
		Checksum:          drive.Checksum(content),
		BlobKey:           id,
		SharingAccess:     string(drive.AccessPrivate),
		SharingPermission: string(drive.PermissionNone),
	}
	if err := f.store.repo.CreateFile(ctx, row); err != nil {
		if delErr := f.store.blobs.Delete(ctx, id); delErr != nil {
			slog.Error("failed to remove orphaned blob", "blob_key", id, "error", delErr)
		}
		return nil, err
	}
	return &pgFile{store: f.store, row: row}, nil
}

type pgFile struct {
	store *Store
	row   *File
}

func (f *pgFile) ID() string                          { return f.row.ID }
func (f *pgFile) Name() string                        { return f.row.Name }
func (f *pgFile) MimeType() string                    { return f.row.MimeType }
func (f *pgFile) Description() string                 { return f.row.Description }
func (f *pgFile) Size() int64                         { return f.row.Size }
func (f *pgFile) Checksum() string                    { return f.row.Checksum }
func (f *pgFile) URL() string                         { return f.store.linkBase + f.row.ID }
func (f *pgFile) IsTrashed() bool                     { return f.row.Trashed }
func (f *pgFile) SharingAccess() drive.Access         { return drive.Access(f.row.SharingAccess) }
func (f *pgFile) SharingPermission() drive.Permission { return drive.Permission(f.row.SharingPermission) }

func (f *pgFile) Parents(ctx context.Context) ([]drive.Folder, error) {
	row, err := f.store.repo.GetFolder(ctx, f.row.FolderID)
	if err != nil {
		return nil, notFound(err)
	}
	return []drive.Folder{&pgFolder{store: f.store, row: row}}, nil
}

func (f *pgFile) Content(ctx context.Context) ([]byte, error) {
	return f.store.blobs.Get(ctx, f.row.BlobKey)
}

func (f *pgFile) SetSharing(ctx context.Context, access drive.Access, permission drive.Permission) (drive.File, error) {
	if !access.Valid() {
		return nil, fmt.Errorf("%w: %q", drive.ErrInvalidAccess, access)
	}
	if !permission.Valid() {
		return nil, fmt.Errorf("%w: %q", drive.ErrInvalidPermission, permission)
	}
	if err := f.store.repo.UpdateSharing(ctx, f.row.ID, string(access), string(permission)); err != nil {
		return nil, notFound(err)
	}
	f.row.SharingAccess, f.row.SharingPermission = string(access), string(permission)

	updated := *f.row
	return &pgFile{store: f.store, row: &updated}, nil
}

func (f *pgFile) AccessFor(ctx context.Context, email string) (drive.Permission, error) {
	p, err := f.store.repo.GetPermission(ctx, f.row.ID, email)
	if err != nil {
		return drive.PermissionNone, err
	}
	if p == "" {
		return drive.PermissionNone, nil
	}
	return drive.Permission(p), nil
}

func (f *pgFile) AddEditor(ctx context.Context, email string) error {
	return f.store.repo.GrantPermission(ctx, f.row.ID, email, string(drive.PermissionEdit))
}

func (f *pgFile) SetName(ctx context.Context, name string) error {
	if err := f.store.repo.UpdateName(ctx, f.row.ID, name); err != nil {
		return notFound(err)
	}
	f.row.Name = name
	return nil
}

func (f *pgFile) SetDescription(ctx context.Context, description string) error {
	if err := f.store.repo.UpdateDescription(ctx, f.row.ID, description); err != nil {
		return notFound(err)
	}
	f.row.Description = description
	return nil
}

func (f *pgFile) SetContent(ctx context.Context, content []byte) error {
	if err := f.store.blobs.Put(ctx, f.row.BlobKey, f.row.MimeType, content); err != nil {
		return err
	}
	size, sum := int64(len(content)), drive.Checksum(content)
	if err := f.store.repo.UpdateContent(ctx, f.row.ID, size, sum); err != nil {
		return notFound(err)
	}
	f.row.Size, f.row.Checksum = size, sum
	return nil
}

func (f *pgFile) SetTrashed(ctx context.Context, trashed bool) error {
	if err := f.store.repo.SetTrashed(ctx, f.row.ID, trashed); err != nil {
		return notFound(err)
	}
	f.row.Trashed = trashed
	return nil
}
