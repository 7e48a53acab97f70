// Package filestore places uploaded user files into per-slot storage.
//
// Files are stored under the client-supplied filename reduced to its last
// path element. Two uploads with the same name in the same slot overwrite
// each other.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// Slot is a logical upload destination
type Slot string

const (
	SlotPicture  Slot = "photos"
	SlotDocument Slot = "docs"
)

var (
	ErrInvalidFilename = errors.New("invalid upload filename")
	ErrFileTooLarge    = errors.New("uploaded file exceeds size limit")
	ErrFileNotFound    = errors.New("stored file not found")
	ErrUnknownSlot     = errors.New("unknown upload slot")
)

// Store persists uploaded files
type Store interface {
	// Save writes the upload into slot and returns the stored filename.
	Save(ctx context.Context, slot Slot, fh *multipart.FileHeader) (string, error)
	// Open returns the stored content; callers must close it.
	Open(ctx context.Context, slot Slot, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, slot Slot, name string) error
	Exists(ctx context.Context, slot Slot, name string) (bool, error)
}

// Slots lists every slot the stores must provision
func Slots() []Slot {
	return []Slot{SlotPicture, SlotDocument}
}

func (s Slot) valid() bool {
	return s == SlotPicture || s == SlotDocument
}

// StoredName reduces a client filename to the name it is stored under.
// Both separators are treated as path separators regardless of platform.
func StoredName(clientName string) (string, error) {
	name := strings.ReplaceAll(clientName, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))
	switch name {
	case "", ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, clientName)
	}
	return name, nil
}

func checkUpload(slot Slot, fh *multipart.FileHeader, maxBytes int64) (string, error) {
	if !slot.valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	name, err := StoredName(fh.Filename)
	if err != nil {
		return "", err
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, name, fh.Size, maxBytes)
	}
	return name, nil
}
