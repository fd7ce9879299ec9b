package database

import "time"

// Folder is a row of the folders table. ParentID is nil for root folders.
type Folder struct {
	ID        string
	Name      string
	ParentID  *string
	CreatedAt time.Time
}

// File is a row of the files table. The body lives in blob storage under BlobKey.
type File struct {
	ID                string
	FolderID          string
	Name              string
	MimeType          string
	Description       string
	Size              int64
	Checksum          string
	BlobKey           string
	SharingAccess     string
	SharingPermission string
	Trashed           bool
	TrashedAt         *time.Time // nil unless trashed
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
