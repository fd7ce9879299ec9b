package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sheetbase/drive-v1/internal/drive"
	"github.com/sheetbase/drive-v1/internal/server/auth"
	"github.com/sheetbase/drive-v1/internal/server/config"
)

// bytesPerMB follows the decimal megabyte.
const bytesPerMB = 1_000_000

// UploadFile is the uploaded blob as it arrives on the wire.
type UploadFile struct {
	Name        string `json:"name"`
	Base64Value string `json:"base64Value"`
}

// UploadResource is one upload with its placement options.
type UploadResource struct {
	File   *UploadFile
	Folder string
	Rename RenamePolicy
	Share  *Sharing
}

// FileUpdate holds the fields to change. Nil and empty-string fields are skipped.
type FileUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Content     *string  `json:"content,omitempty"`
	Sharing     *Sharing `json:"sharing,omitempty"`
}

// FileInfo is returned for metadata queries and uploads.
type FileInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	Description string `json:"description"`
	Size        int64  `json:"size"`
	Checksum    string `json:"checksum"`
	Link        string `json:"link"`
	URL         string `json:"url"`
	DownloadURL string `json:"downloadUrl"`
}

// Download is a file body ready to be served. Checksum identifies the body
// version and doubles as its entity tag.
type Download struct {
	Name     string
	MimeType string
	Checksum string
	Content  []byte
}

// FileService contains the business logic for the file lifecycle. It keeps no
// per-request state; the caller identity is passed to every operation.
type FileService struct {
	store drive.Store
	cfg   *config.Config
	namer Namer
	now   func() time.Time
}

// NewFileService creates a new file service.
func NewFileService(store drive.Store, cfg *config.Config) *FileService {
	return &FileService{
		store: store,
		cfg:   cfg,
		namer: DefaultNamer(),
		now:   time.Now,
	}
}

// GetFileInfoByID returns metadata for a file the caller can view.
func (s *FileService) GetFileInfoByID(ctx context.Context, id *auth.Identity, fileID string) (*FileInfo, error) {
	file, err := s.viewableFile(ctx, id, fileID)
	if err != nil {
		return nil, err
	}
	return s.fileInfo(file), nil
}

// UploadFile validates the resource, places it in the folder tree, names it,
// stores it, applies sharing and grants the caller edit access.
func (s *FileService) UploadFile(ctx context.Context, id *auth.Identity, res UploadResource) (*FileInfo, error) {
	// 1. Validate the resource
	if res.File == nil || res.File.Name == "" || res.File.Base64Value == "" {
		return nil, ErrInvalidUploadResource
	}
	if res.Share != nil && !res.Share.IsZero() {
		if _, err := res.Share.Resolve(); err != nil {
			return nil, err
		}
	}

	payload, err := ParsePayload(res.File.Base64Value)
	if err != nil {
		return nil, err
	}

	if len(s.cfg.AllowTypes) > 0 && !slices.Contains(s.cfg.AllowTypes, payload.MimeType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, payload.MimeType)
	}

	if s.cfg.MaxSizeMB > 0 && payload.ApproxSize() > s.cfg.MaxSizeMB*bytesPerMB {
		return nil, ErrInvalidFileSize
	}

	content, err := payload.Decode()
	if err != nil {
		return nil, err
	}

	// 2. Resolve the destination folder
	folder, err := s.destination(ctx, res.Folder)
	if err != nil {
		return nil, err
	}

	// 3. Create the file under its final name
	name := s.namer.GenerateFileName(res.File.Name, res.Rename)
	file, err := folder.CreateFile(ctx, name, payload.MimeType, content)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	// 4. Sharing, then the editor grant
	file, err = ApplySharing(ctx, file, res.Share)
	if err != nil {
		return nil, err
	}

	if id != nil && id.Email != "" {
		if err := file.AddEditor(ctx, id.Email); err != nil {
			return nil, fmt.Errorf("failed to grant edit access: %w", err)
		}
	}

	slog.Info("file uploaded",
		"id", file.ID(),
		"name", file.Name(),
		"folder", folder.ID(),
		"mime_type", file.MimeType(),
		"size", file.Size(),
		"uid", uid(id),
	)

	return s.fileInfo(file), nil
}

// UploadFiles uploads each resource in order. The first failure aborts the
// batch; files uploaded before it are kept.
func (s *FileService) UploadFiles(ctx context.Context, id *auth.Identity, resources []UploadResource) ([]*FileInfo, error) {
	results := make([]*FileInfo, 0, len(resources))
	for _, res := range resources {
		info, err := s.UploadFile(ctx, id, res)
		if err != nil {
			return nil, err
		}
		results = append(results, info)
	}
	return results, nil
}

// UpdateFile applies the present fields of patch to a file the caller can edit.
// Every field is validated before anything is written, so a rejected patch
// leaves the file untouched.
func (s *FileService) UpdateFile(ctx context.Context, id *auth.Identity, fileID string, patch FileUpdate) (*FileInfo, error) {
	file, err := s.editableFile(ctx, id, fileID)
	if err != nil {
		return nil, err
	}

	// 1. Validate
	setName := patch.Name != nil && *patch.Name != ""
	setDescription := patch.Description != nil && *patch.Description != ""
	setContent := patch.Content != nil && *patch.Content != ""
	setSharing := patch.Sharing != nil && !patch.Sharing.IsZero()

	if setContent && !strings.HasPrefix(file.MimeType(), "text/") {
		return nil, fmt.Errorf("%w: %s", ErrNotTextFile, file.MimeType())
	}

	var pair SharingPair
	if setSharing {
		if pair, err = patch.Sharing.Resolve(); err != nil {
			return nil, err
		}
	}

	// 2. Write
	if setName {
		if err := file.SetName(ctx, *patch.Name); err != nil {
			return nil, fmt.Errorf("failed to rename file: %w", err)
		}
	}

	if setDescription {
		if err := file.SetDescription(ctx, *patch.Description); err != nil {
			return nil, fmt.Errorf("failed to set description: %w", err)
		}
	}

	if setContent {
		if err := file.SetContent(ctx, []byte(*patch.Content)); err != nil {
			return nil, fmt.Errorf("failed to replace content: %w", err)
		}
	}

	if setSharing {
		file, err = file.SetSharing(ctx, pair.Access, pair.Permission)
		if err != nil {
			return nil, fmt.Errorf("failed to set sharing on %s: %w", fileID, err)
		}
	}

	slog.Info("file updated", "id", file.ID(), "uid", uid(id))
	return s.fileInfo(file), nil
}

// RemoveFile moves a file the caller can edit to the trash.
func (s *FileService) RemoveFile(ctx context.Context, id *auth.Identity, fileID string) error {
	file, err := s.editableFile(ctx, id, fileID)
	if err != nil {
		return err
	}

	if err := file.SetTrashed(ctx, true); err != nil {
		return fmt.Errorf("failed to trash file: %w", err)
	}

	slog.Info("file trashed", "id", file.ID(), "name", file.Name(), "uid", uid(id))
	return nil
}

// Download returns the body of a file the caller can view.
func (s *FileService) Download(ctx context.Context, id *auth.Identity, fileID string) (*Download, error) {
	file, err := s.viewableFile(ctx, id, fileID)
	if err != nil {
		return nil, err
	}

	content, err := file.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	return &Download{
		Name:     file.Name(),
		MimeType: file.MimeType(),
		Checksum: file.Checksum(),
		Content:  content,
	}, nil
}

// --- Helpers ---

// viewableFile fetches a file, hiding trashed and unauthorized files behind
// the same ErrFileNotFound.
func (s *FileService) viewableFile(ctx context.Context, id *auth.Identity, fileID string) (drive.File, error) {
	if fileID == "" {
		return nil, ErrMissingInput
	}

	file, err := s.store.FileByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, drive.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	if file.IsTrashed() {
		return nil, ErrFileNotFound
	}

	ok, err := HasViewPermission(ctx, id, file)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrFileNotFound
	}
	return file, nil
}

func (s *FileService) editableFile(ctx context.Context, id *auth.Identity, fileID string) (drive.File, error) {
	file, err := s.viewableFile(ctx, id, fileID)
	if err != nil {
		return nil, err
	}

	ok, err := HasEditPermission(ctx, id, file)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoEditPermission
	}
	return file, nil
}

// destination picks the custom folder when given, else the date folder when
// nesting is on, else the upload root.
func (s *FileService) destination(ctx context.Context, customFolder string) (drive.Folder, error) {
	root, err := s.store.FolderByID(ctx, s.cfg.UploadFolder)
	if err != nil {
		if errors.Is(err, drive.ErrNotFound) {
			return nil, ErrUploadFolderUnavailable
		}
		return nil, fmt.Errorf("failed to get upload folder: %w", err)
	}

	switch {
	case customFolder != "":
		return GetOrCreateFolder(ctx, root, customFolder)
	case s.cfg.Nested:
		return ResolveDateFolder(ctx, root, s.now())
	default:
		return root, nil
	}
}

func (s *FileService) fileInfo(file drive.File) *FileInfo {
	id := file.ID()
	return &FileInfo{
		ID:          id,
		Name:        file.Name(),
		MimeType:    file.MimeType(),
		Description: file.Description(),
		Size:        file.Size(),
		Checksum:    file.Checksum(),
		Link:        file.URL(),
		URL:         s.cfg.URL.Build(id),
		DownloadURL: s.cfg.DownloadURL(id),
	}
}

func uid(id *auth.Identity) string {
	if id == nil {
		return ""
	}
	return id.UID
}
