package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// ErrNoSnapshot is returned by Load when no snapshot has been written yet.
var ErrNoSnapshot = errors.New("no snapshot")

// Store defines the interface for the local reservations snapshot.
type Store interface {
	// Load returns the last saved snapshot.
	Load(ctx context.Context) (string, error)
	// Save replaces the snapshot when data differs from it and reports
	// whether a write happened.
	Save(ctx context.Context, data string) (bool, error)
	// Path returns where the snapshot lives.
	Path() string
}

// fileStore implements the Store interface with a single flat file.
type fileStore struct {
	path string
}

// NewFileStore creates a snapshot store backed by the file at path.
func NewFileStore(path string) Store {
	return &fileStore{path: path}
}

func (s *fileStore) Path() string { return s.path }

// Load reads the snapshot file.
func (s *fileStore) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w at %s", ErrNoSnapshot, s.path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}
	return string(b), nil
}

// Save compares data with the existing snapshot by exact string equality
// and rewrites the file only on change.
func (s *fileStore) Save(ctx context.Context, data string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	existing, err := s.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		log.Printf("Creating new snapshot %s", s.path)
	case err != nil:
		// An unreadable snapshot is replaced rather than blocking the update.
		log.Printf("Warning: could not read existing snapshot: %v", err)
	case existing == data:
		log.Printf("No changes detected in reservations; %s is up to date", s.path)
		return false, nil
	default:
		log.Println("Changes detected in reservations")
	}

	if err := writeFileAtomic(s.path, []byte(data)); err != nil {
		return false, fmt.Errorf("failed to write snapshot %s: %w", s.path, err)
	}
	log.Printf("Updated %s", s.path)
	return true, nil
}

// writeFileAtomic writes to a temporary file in the same directory and
// renames it over path, so readers never see a partial snapshot.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
