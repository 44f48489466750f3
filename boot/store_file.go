//go:build !tinygo

package boot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileStore keeps the flag in a 4-byte little-endian file. A missing file
// reads as Cleared.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Read() (uint32, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Cleared, nil
	}
	if err != nil {
		return Cleared, fmt.Errorf("read %s: %w", f.Path, err)
	}
	if len(data) < 4 {
		return Cleared, nil
	}
	return binary.LittleEndian.Uint32(data), nil
}

func (f *FileStore) Write(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, buf[:], 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("rename %s: %w", f.Path, err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.Path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove %s: %w", f.Path, err)
}
