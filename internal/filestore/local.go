package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
)

// LocalStore keeps uploads on the local filesystem under root/<slot>
type LocalStore struct {
	root     string
	maxBytes int64
}

// NewLocalStore creates the slot directories if absent
func NewLocalStore(root string, maxBytes int64) (*LocalStore, error) {
	for _, slot := range Slots() {
		dir := filepath.Join(root, string(slot))
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
		}
	}
	return &LocalStore{root: root, maxBytes: maxBytes}, nil
}

func (s *LocalStore) path(slot Slot, name string) (string, error) {
	if !slot.valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	stored, err := StoredName(name)
	if err != nil {
		return "", err
	}
	if stored != name {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return filepath.Join(s.root, string(slot), name), nil
}

// Save copies the upload into a temp file in the slot directory and renames it
// into place, so readers never observe a partially written file.
func (s *LocalStore) Save(ctx context.Context, slot Slot, fh *multipart.FileHeader) (string, error) {
	name, err := checkUpload(slot, fh, s.maxBytes)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dir := filepath.Join(s.root, string(slot))
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file on server: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return name, nil
}

func (s *LocalStore) Open(_ context.Context, slot Slot, name string) (io.ReadCloser, error) {
	p, err := s.path(slot, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (s *LocalStore) Remove(_ context.Context, slot Slot, name string) error {
	p, err := s.path(slot, name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stored file: %w", err)
	}
	return nil
}

func (s *LocalStore) Exists(_ context.Context, slot Slot, name string) (bool, error) {
	p, err := s.path(slot, name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat stored file: %w", err)
	}
	return info.Mode().IsRegular(), nil
}
