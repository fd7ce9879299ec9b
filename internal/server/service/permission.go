package service

import (
	"context"
	"fmt"

	"github.com/sheetbase/drive-v1/internal/drive"
	"github.com/sheetbase/drive-v1/internal/server/auth"
)

// IsShared reports whether anyone (with or without the link) can reach the file.
func IsShared(file drive.File) bool {
	switch file.SharingAccess() {
	case drive.AccessAnyone, drive.AccessAnyoneWithLink:
		return true
	}
	return false
}

// HasEditPermission reports whether the caller's email holds an edit grant.
func HasEditPermission(ctx context.Context, id *auth.Identity, file drive.File) (bool, error) {
	if id == nil || id.Email == "" {
		return false, nil
	}

	p, err := file.AccessFor(ctx, id.Email)
	if err != nil {
		return false, fmt.Errorf("failed to read access for %s: %w", file.ID(), err)
	}
	return p == drive.PermissionEdit, nil
}

// HasViewPermission is IsShared OR HasEditPermission; nothing else grants view.
func HasViewPermission(ctx context.Context, id *auth.Identity, file drive.File) (bool, error) {
	if IsShared(file) {
		return true, nil
	}
	return HasEditPermission(ctx, id, file)
}
