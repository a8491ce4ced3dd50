package localstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
	lockName = ".lock"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// File stores each key as a file in one directory. Operations hold an advisory
// lock on the directory so that several processes sharing it do not interleave
// partial writes.
type File struct {
	dir string
}

var _ Storage = (*File)(nil)

// NewFile creates the directory if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("create state dir %q: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

// Dir is the backing directory.
func (f *File) Dir() string {
	return f.dir
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}

	unlock, err := lock(filepath.Join(f.dir, lockName))
	if err != nil {
		return nil, fmt.Errorf("lock state dir: %w", err)
	}
	defer func() { _ = unlock() }()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", key, err)
	}
	return data, nil
}

// Set writes to a temp file and renames it over the old value.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	unlock, err := lock(filepath.Join(f.dir, lockName))
	if err != nil {
		return fmt.Errorf("lock state dir: %w", err)
	}
	defer func() { _ = unlock() }()

	tmp, err := os.CreateTemp(f.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %q: %w", key, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	unlock, err := lock(filepath.Join(f.dir, lockName))
	if err != nil {
		return fmt.Errorf("lock state dir: %w", err)
	}
	defer func() { _ = unlock() }()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (f *File) path(key string) (string, error) {
	if !validKey.MatchString(key) || key == lockName {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}
