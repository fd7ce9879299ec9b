package drive

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memFolder struct {
	id       string
	name     string
	parentID string
}

type memFile struct {
	id          string
	folderID    string
	name        string
	mimeType    string
	description string
	content     []byte
	checksum    string
	access      Access
	permission  Permission
	grants      map[string]Permission
	trashed     bool
	trashedAt   time.Time
}

// MemoryStore is an in-process Store. Folder listing preserves creation order.
type MemoryStore struct {
	mu          sync.RWMutex
	linkBase    string
	folders     map[string]*memFolder
	folderOrder []string
	files       map[string]*memFile
}

// NewMemoryStore creates an empty store. Canonical file links are linkBase + id.
func NewMemoryStore(linkBase string) *MemoryStore {
	return &MemoryStore{
		linkBase: linkBase,
		folders:  make(map[string]*memFolder),
		files:    make(map[string]*memFile),
	}
}

// AddRootFolder registers a top-level folder under a fixed id. It is a no-op
// when the folder already exists.
func (s *MemoryStore) AddRootFolder(id, name string) Folder {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[id]; !ok {
		s.folders[id] = &memFolder{id: id, name: name}
		s.folderOrder = append(s.folderOrder, id)
	}
	return &memFolderHandle{store: s, id: id, name: s.folders[id].name}
}

// FileByID returns a snapshot of the file, trashed or not.
func (s *MemoryStore) FileByID(_ context.Context, id string) (File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	return s.snapshot(f), nil
}

func (s *MemoryStore) FolderByID(_ context.Context, id string) (Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	return &memFolderHandle{store: s, id: f.id, name: f.name}, nil
}

// PurgeTrashed permanently removes files trashed before cutoff and returns
// how many were removed.
func (s *MemoryStore) PurgeTrashed(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, f := range s.files {
		if f.trashed && f.trashedAt.Before(cutoff) {
			delete(s.files, id)
			n++
		}
	}
	return n, nil
}

// HealthCheck always succeeds.
func (s *MemoryStore) HealthCheck(context.Context) error {
	return nil
}

// snapshot copies f into a handle. Caller holds the lock.
func (s *MemoryStore) snapshot(f *memFile) *memFileHandle {
	return &memFileHandle{
		store:       s,
		id:          f.id,
		name:        f.name,
		mimeType:    f.mimeType,
		description: f.description,
		size:        int64(len(f.content)),
		checksum:    f.checksum,
		access:      f.access,
		permission:  f.permission,
		trashed:     f.trashed,
	}
}

func (s *MemoryStore) mutate(id string, fn func(f *memFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	return fn(f)
}

type memFolderHandle struct {
	store *MemoryStore
	id    string
	name  string
}

func (h *memFolderHandle) ID() string   { return h.id }
func (h *memFolderHandle) Name() string { return h.name }

func (h *memFolderHandle) FoldersByName(_ context.Context, name string) ([]Folder, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	var out []Folder
	for _, id := range h.store.folderOrder {
		f := h.store.folders[id]
		if f.parentID == h.id && f.name == name {
			out = append(out, &memFolderHandle{store: h.store, id: f.id, name: f.name})
		}
	}
	return out, nil
}

func (h *memFolderHandle) CreateFolder(_ context.Context, name string) (Folder, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	if _, ok := h.store.folders[h.id]; !ok {
		return nil, fmt.Errorf("folder %s: %w", h.id, ErrNotFound)
	}

	id := uuid.NewString()
	h.store.folders[id] = &memFolder{id: id, name: name, parentID: h.id}
	h.store.folderOrder = append(h.store.folderOrder, id)
	return &memFolderHandle{store: h.store, id: id, name: name}, nil
}

func (h *memFolderHandle) CreateFile(_ context.Context, name, mimeType string, content []byte) (File, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	if _, ok := h.store.folders[h.id]; !ok {
		return nil, fmt.Errorf("folder %s: %w", h.id, ErrNotFound)
	}

	f := &memFile{
		id:         uuid.NewString(),
		folderID:   h.id,
		name:       name,
		mimeType:   mimeType,
		content:    append([]byte(nil), content...),
		checksum:   Checksum(content),
		access:     AccessPrivate,
		permission: PermissionNone,
		grants:     make(map[string]Permission),
	}
	h.store.files[f.id] = f
	return h.store.snapshot(f), nil
}

type memFileHandle struct {
	store       *MemoryStore
	id          string
	name        string
	mimeType    string
	description string
	size        int64
	checksum    string
	access      Access
	permission  Permission
	trashed     bool
}

func (h *memFileHandle) ID() string                    { return h.id }
func (h *memFileHandle) Name() string                  { return h.name }
func (h *memFileHandle) MimeType() string              { return h.mimeType }
func (h *memFileHandle) Description() string           { return h.description }
func (h *memFileHandle) Size() int64                   { return h.size }
func (h *memFileHandle) Checksum() string              { return h.checksum }
func (h *memFileHandle) URL() string                   { return h.store.linkBase + h.id }
func (h *memFileHandle) IsTrashed() bool               { return h.trashed }
func (h *memFileHandle) SharingAccess() Access         { return h.access }
func (h *memFileHandle) SharingPermission() Permission { return h.permission }

func (h *memFileHandle) Parents(_ context.Context) ([]Folder, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	f, ok := h.store.files[h.id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", h.id, ErrNotFound)
	}
	parent := h.store.folders[f.folderID]
	return []Folder{&memFolderHandle{store: h.store, id: parent.id, name: parent.name}}, nil
}

func (h *memFileHandle) Content(_ context.Context) ([]byte, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	f, ok := h.store.files[h.id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", h.id, ErrNotFound)
	}
	return append([]byte(nil), f.content...), nil
}

func (h *memFileHandle) SetSharing(_ context.Context, access Access, permission Permission) (File, error) {
	if !access.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccess, access)
	}
	if !permission.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPermission, permission)
	}

	var out File
	err := h.store.mutate(h.id, func(f *memFile) error {
		f.access = access
		f.permission = permission
		out = h.store.snapshot(f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.access, h.permission = access, permission
	return out, nil
}

func (h *memFileHandle) AccessFor(_ context.Context, email string) (Permission, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	f, ok := h.store.files[h.id]
	if !ok {
		return PermissionNone, fmt.Errorf("file %s: %w", h.id, ErrNotFound)
	}
	if p, ok := f.grants[strings.ToLower(email)]; ok {
		return p, nil
	}
	return PermissionNone, nil
}

func (h *memFileHandle) AddEditor(_ context.Context, email string) error {
	return h.store.mutate(h.id, func(f *memFile) error {
		f.grants[strings.ToLower(email)] = PermissionEdit
		return nil
	})
}

func (h *memFileHandle) SetName(_ context.Context, name string) error {
	err := h.store.mutate(h.id, func(f *memFile) error {
		f.name = name
		return nil
	})
	if err == nil {
		h.name = name
	}
	return err
}

func (h *memFileHandle) SetDescription(_ context.Context, description string) error {
	err := h.store.mutate(h.id, func(f *memFile) error {
		f.description = description
		return nil
	})
	if err == nil {
		h.description = description
	}
	return err
}

func (h *memFileHandle) SetContent(_ context.Context, content []byte) error {
	sum := Checksum(content)
	err := h.store.mutate(h.id, func(f *memFile) error {
		f.content = append([]byte(nil), content...)
		f.checksum = sum
		return nil
	})
	if err == nil {
		h.size, h.checksum = int64(len(content)), sum
	}
	return err
}

func (h *memFileHandle) SetTrashed(_ context.Context, trashed bool) error {
	err := h.store.mutate(h.id, func(f *memFile) error {
		f.trashed = trashed
		if trashed {
			f.trashedAt = time.Now()
		} else {
			f.trashedAt = time.Time{}
		}
		return nil
	})
	if err == nil {
		h.trashed = trashed
	}
	return err
}
