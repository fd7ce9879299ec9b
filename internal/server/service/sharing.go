package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/sheetbase/drive-v1/internal/drive"
)

const (
	PresetPublic  = "PUBLIC"
	PresetPrivate = "PRIVATE"
)

// SharingPair is the store-native form of a sharing setting.
type SharingPair struct {
	Access     drive.Access     `json:"access"`
	Permission drive.Permission `json:"permission"`
}

// Sharing is either a named preset or an explicit pair. Exactly one form is
// set; Preset takes precedence when both are.
type Sharing struct {
	Preset   string
	Explicit SharingPair
}

func PresetSharing(name string) Sharing {
	return Sharing{Preset: name}
}

func ExplicitSharing(access drive.Access, permission drive.Permission) Sharing {
	return Sharing{Explicit: SharingPair{Access: access, Permission: permission}}
}

// IsZero reports whether no sharing was given. An empty preset string and an
// empty object both decode to the zero value.
func (s Sharing) IsZero() bool {
	return s == Sharing{}
}

// UnmarshalJSON accepts either "PUBLIC" or {"access": ..., "permission": ...}.
func (s *Sharing) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*s = PresetSharing(name)
		return nil
	}

	var pair SharingPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	*s = Sharing{Explicit: pair}
	return nil
}

func (s Sharing) MarshalJSON() ([]byte, error) {
	if s.Preset != "" {
		return json.Marshal(s.Preset)
	}
	return json.Marshal(s.Explicit)
}

// ResolvePreset maps a preset name to its fixed pair.
func ResolvePreset(name string) (SharingPair, error) {
	switch name {
	case PresetPublic:
		return SharingPair{Access: drive.AccessAnyoneWithLink, Permission: drive.PermissionView}, nil
	case PresetPrivate:
		return SharingPair{Access: drive.AccessPrivate, Permission: drive.PermissionView}, nil
	}
	return SharingPair{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Resolve returns the concrete pair for s.
func (s Sharing) Resolve() (SharingPair, error) {
	if s.Preset != "" {
		return ResolvePreset(s.Preset)
	}
	if !s.Explicit.Access.Valid() || !s.Explicit.Permission.Valid() {
		return SharingPair{}, fmt.Errorf("%w: %q/%q", ErrInvalidSharing, s.Explicit.Access, s.Explicit.Permission)
	}
	return s.Explicit, nil
}

// ApplySharing sets sharing on file, defaulting to PRIVATE when sharing is nil
// or zero, and returns the handle the store hands back.
func ApplySharing(ctx context.Context, file drive.File, sharing *Sharing) (drive.File, error) {
	if sharing == nil || sharing.IsZero() {
		sharing = &Sharing{Preset: PresetPrivate}
	}

	pair, err := sharing.Resolve()
	if err != nil {
		return nil, err
	}

	updated, err := file.SetSharing(ctx, pair.Access, pair.Permission)
	if err != nil {
		return nil, fmt.Errorf("failed to set sharing on %s: %w", file.ID(), err)
	}
	return updated, nil
}
