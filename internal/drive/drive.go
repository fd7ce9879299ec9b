// Package drive defines the capability interface of the hierarchical blob store
// that files and folders live in. Handles returned by a Store are fresh snapshots;
// callers must not cache them across requests.
package drive

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidAccess     = errors.New("invalid access level")
	ErrInvalidPermission = errors.New("invalid permission")
)

// Access is the link-sharing level of a file.
type Access string

const (
	AccessAnyone         Access = "ANYONE"
	AccessAnyoneWithLink Access = "ANYONE_WITH_LINK"
	AccessDomain         Access = "DOMAIN"
	AccessDomainWithLink Access = "DOMAIN_WITH_LINK"
	AccessPrivate        Access = "PRIVATE"
)

// Valid reports whether a is a known access level.
func (a Access) Valid() bool {
	switch a {
	case AccessAnyone, AccessAnyoneWithLink, AccessDomain, AccessDomainWithLink, AccessPrivate:
		return true
	}
	return false
}

// Permission is what a grantee (or link holder) may do with a file.
type Permission string

const (
	PermissionNone    Permission = "NONE"
	PermissionView    Permission = "VIEW"
	PermissionComment Permission = "COMMENT"
	PermissionEdit    Permission = "EDIT"
	PermissionOwner   Permission = "OWNER"
)

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	switch p {
	case PermissionNone, PermissionView, PermissionComment, PermissionEdit, PermissionOwner:
		return true
	}
	return false
}

// Store is the entry point into the folder tree.
type Store interface {
	FileByID(ctx context.Context, id string) (File, error)
	FolderByID(ctx context.Context, id string) (Folder, error)
}

// Folder scopes file and folder creation.
type Folder interface {
	ID() string
	Name() string

	// FoldersByName lists direct child folders with exactly this name.
	// Names are not unique; the order of the result is store-defined.
	FoldersByName(ctx context.Context, name string) ([]Folder, error)
	CreateFolder(ctx context.Context, name string) (Folder, error)
	CreateFile(ctx context.Context, name, mimeType string, content []byte) (File, error)
}

// File is a handle to a stored file. Getters read the snapshot taken when the
// handle was produced; setters write through to the store and update the snapshot.
type File interface {
	ID() string
	Name() string
	MimeType() string
	Description() string
	Size() int64
	// Checksum is the blake2b-256 hex digest of the current body.
	Checksum() string
	URL() string
	IsTrashed() bool
	SharingAccess() Access
	SharingPermission() Permission

	Parents(ctx context.Context) ([]Folder, error)
	Content(ctx context.Context) ([]byte, error)

	// SetSharing changes link sharing and returns the updated handle.
	SetSharing(ctx context.Context, access Access, permission Permission) (File, error)
	// AccessFor returns the permission granted to the given email.
	AccessFor(ctx context.Context, email string) (Permission, error)
	AddEditor(ctx context.Context, email string) error

	SetName(ctx context.Context, name string) error
	SetDescription(ctx context.Context, description string) error
	SetContent(ctx context.Context, content []byte) error
	SetTrashed(ctx context.Context, trashed bool) error
}
