package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrFileNotFound   = errors.New("file not found")
)

const fileColumns = `
	id, folder_id, name, mime_type, description, size, checksum, blob_key,
	sharing_access, sharing_permission, trashed, trashed_at, created_at, updated_at`

// Repository provides CRUD operations for folders, files and grants.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// --- Folders ---

// EnsureRootFolder creates a parentless folder under a fixed id unless it exists.
func (r *Repository) EnsureRootFolder(ctx context.Context, id, name string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO folders (id, name, parent_id) VALUES ($1, $2, NULL)
		ON CONFLICT (id) DO NOTHING
	`, id, name)
	if err != nil {
		return fmt.Errorf("failed to ensure root folder: %w", err)
	}
	return nil
}

func (r *Repository) CreateFolder(ctx context.Context, folder *Folder) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO folders (id, name, parent_id) VALUES ($1, $2, $3)
		RETURNING created_at
	`, folder.ID, folder.Name, folder.ParentID).Scan(&folder.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

func (r *Repository) GetFolder(ctx context.Context, id string) (*Folder, error) {
	folder := &Folder{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, parent_id, created_at FROM folders WHERE id = $1
	`, id).Scan(&folder.ID, &folder.Name, &folder.ParentID, &folder.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return folder, nil
}

// ChildFoldersByName lists direct children of parentID with the given name,
// oldest first.
func (r *Repository) ChildFoldersByName(ctx context.Context, parentID, name string) ([]*Folder, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, parent_id, created_at FROM folders
		WHERE parent_id = $1 AND name = $2
		ORDER BY seq
	`, parentID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	var folders []*Folder
	for rows.Next() {
		folder := &Folder{}
		if err := rows.Scan(&folder.ID, &folder.Name, &folder.ParentID, &folder.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

// --- Files ---

func (r *Repository) CreateFile(ctx context.Context, file *File) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO files (
			id, folder_id, name, mime_type, description, size, checksum, blob_key,
			sharing_access, sharing_permission
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`,
		file.ID,
		file.FolderID,
		file.Name,
		file.MimeType,
		file.Description,
		file.Size,
		file.Checksum,
		file.BlobKey,
		file.SharingAccess,
		file.SharingPermission,
	).Scan(&file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (r *Repository) GetFile(ctx context.Context, id string) (*File, error) {
	file, err := scanFile(r.db.Pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return file, nil
}

// UpdateName, UpdateDescription and friends touch a single column group.

func (r *Repository) UpdateName(ctx context.Context, id, name string) error {
	return r.updateFile(ctx, id, "name = $2", name)
}

func (r *Repository) UpdateDescription(ctx context.Context, id, description string) error {
	return r.updateFile(ctx, id, "description = $2", description)
}

func (r *Repository) UpdateContent(ctx context.Context, id string, size int64, checksum string) error {
	return r.updateFile(ctx, id, "size = $2, checksum = $3", size, checksum)
}

func (r *Repository) UpdateSharing(ctx context.Context, id, access, permission string) error {
	return r.updateFile(ctx, id, "sharing_access = $2, sharing_permission = $3", access, permission)
}

func (r *Repository) SetTrashed(ctx context.Context, id string, trashed bool) error {
	var trashedAt *time.Time
	if trashed {
		now := time.Now()
		trashedAt = &now
	}
	return r.updateFile(ctx, id, "trashed = $2, trashed_at = $3", trashed, trashedAt)
}

func (r *Repository) updateFile(ctx context.Context, id, set string, args ...any) error {
	tag, err := r.db.Pool.Exec(ctx,
		"UPDATE files SET "+set+", updated_at = NOW() WHERE id = $1",
		append([]any{id}, args...)...,
	)
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// DeleteFile removes a file record. Grants go with it.
func (r *Repository) DeleteFile(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, "DELETE FROM files WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// GetTrashedBefore returns files trashed before cutoff.
func (r *Repository) GetTrashedBefore(ctx context.Context, cutoff time.Time) ([]*File, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+fileColumns+` FROM files WHERE trashed AND trashed_at < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query trashed files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trashed file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// --- Grants ---

// GetPermission returns the permission granted to email, or "" when none.
func (r *Repository) GetPermission(ctx context.Context, fileID, email string) (string, error) {
	var permission string
	err := r.db.Pool.QueryRow(ctx, `
		SELECT permission FROM file_permissions WHERE file_id = $1 AND email = $2
	`, fileID, strings.ToLower(email)).Scan(&permission)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get permission: %w", err)
	}
	return permission, nil
}

func (r *Repository) GrantPermission(ctx context.Context, fileID, email, permission string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO file_permissions (file_id, email, permission) VALUES ($1, $2, $3)
		ON CONFLICT (file_id, email) DO UPDATE SET permission = EXCLUDED.permission
	`, fileID, strings.ToLower(email), permission)
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

func scanFile(row pgx.Row) (*File, error) {
	file := &File{}
	err := row.Scan(
		&file.ID,
		&file.FolderID,
		&file.Name,
		&file.MimeType,
		&file.Description,
		&file.Size,
		&file.Checksum,
		&file.BlobKey,
		&file.SharingAccess,
		&file.SharingPermission,
		&file.Trashed,
		&file.TrashedAt,
		&file.CreatedAt,
		&file.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return file, nil
}
