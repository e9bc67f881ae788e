// Package artifact provides the store capability calibration artifacts live
// behind, the filename templates that key them by round, and the
// existence-based policy that decides what a run must recompute.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is the capability stages use to consult and create artifacts in one
// artifact directory. Paths are relative to the store's root; Locate turns
// them into the absolute form external jobs are handed.
//
// Stores are append-only from the pipeline's perspective: existing artifacts
// are read, never overwritten unless a force flag re-routes the unit to a
// compute branch. No cross-process locking is attempted; concurrent runs
// against one artifact directory are outside the supported envelope.
type Store interface {
	// Exists reports whether the artifact is present.
	Exists(name string) (bool, error)

	// Locate returns the absolute path the artifact lives at (or would live
	// at once written).
	Locate(name string) string

	// Write creates the artifact with the given content, atomically.
	Write(name string, data []byte) error
}

// DirStore is the filesystem-backed Store.
type DirStore struct {
	root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (s *DirStore) Exists(name string) (bool, error) {
	info, err := os.Stat(s.Locate(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking artifact %s: %w", name, err)
	}
	return info.Mode().IsRegular(), nil
}

func (s *DirStore) Locate(name string) string {
	return filepath.Join(s.root, name)
}

func (s *DirStore) Write(name string, data []byte) error {
	path := s.Locate(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", name, err)
	}
	return nil
}

// writeFileAtomic writes through a temp file in the destination directory and
// renames it into place, so readers never observe a partial artifact.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync() // best-effort durability
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// MemStore is an in-memory Store for tests and policy dry-runs.
type MemStore struct {
	mu    sync.Mutex
	root  string
	files map[string][]byte
}

func NewMemStore(root string) *MemStore {
	return &MemStore{root: root, files: make(map[string][]byte)}
}

func (s *MemStore) Exists(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[name]
	return ok, nil
}

func (s *MemStore) Locate(name string) string {
	return filepath.Join(s.root, name)
}

func (s *MemStore) Write(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	content := make([]byte, len(data))
	copy(content, data)
	s.files[name] = content
	return nil
}
