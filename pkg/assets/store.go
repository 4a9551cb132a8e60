// Package assets writes synthesized audio files to the output directory.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"speechbatch/pkg/tts"
)

const storeName = "assets"

// Store writes named files under one directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. An empty dir means the working directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where name would be written, or an error if name escapes the directory.
func (s *Store) Path(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty filename")
	}
	if filepath.IsAbs(name) || filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("filename %q must be a plain file name", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Write replaces name with data. The file appears complete or not at all.
func (s *Store) Write(name string, data []byte) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", tts.NewError(tts.StorageWriteFailure, storeName, 0, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", tts.NewError(tts.StorageWriteFailure, storeName, 0, fmt.Errorf("failed to create output directory: %w", err))
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", tts.NewError(tts.StorageWriteFailure, storeName, 0, fmt.Errorf("failed to create temp file: %w", err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", tts.NewError(tts.StorageWriteFailure, storeName, 0, fmt.Errorf("failed to write %s: %w", name, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", tts.NewError(tts.StorageWriteFailure, storeName, 0, fmt.Errorf("failed to close %s: %w", name, err))
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", tts.NewError(tts.StorageWriteFailure, storeName, 0, err)
	}

	// Atomic rename from temp to target
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", tts.NewError(tts.StorageWriteFailure, storeName, 0, fmt.Errorf("failed to replace %s: %w", path, err))
	}
	return path, nil
}

// Exists reports whether name is present.
func (s *Store) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Size returns the size of name in bytes.
func (s *Store) Size(name string) (int64, error) {
	path, err := s.Path(name)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// CheckWritable creates the directory if needed and verifies a file can be written in it.
func (s *Store) CheckWritable() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", s.dir, err)
	}
	f, err := os.CreateTemp(s.dir, ".write-check-*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", s.dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
