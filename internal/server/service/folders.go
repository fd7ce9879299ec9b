package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sheetbase/drive-v1/internal/drive"
)

// GetOrCreateFolder returns the first child of parent named name, creating it
// when none exists. Concurrent callers racing on a new name may each create a
// folder; later lookups then pick whichever the store lists first.
func GetOrCreateFolder(ctx context.Context, parent drive.Folder, name string) (drive.Folder, error) {
	children, err := parent.FoldersByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders named %q: %w", name, err)
	}
	if len(children) > 0 {
		return children[0], nil
	}

	folder, err := parent.CreateFolder(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder %q: %w", name, err)
	}
	return folder, nil
}

// ResolveDateFolder resolves <yyyy>/<mm> under parent for the given time.
func ResolveDateFolder(ctx context.Context, parent drive.Folder, now time.Time) (drive.Folder, error) {
	year, err := GetOrCreateFolder(ctx, parent, fmt.Sprintf("%04d", now.Year()))
	if err != nil {
		return nil, err
	}
	return GetOrCreateFolder(ctx, year, fmt.Sprintf("%02d", int(now.Month())))
}
