package ingestion

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrFileTooLarge is returned when an input exceeds the configured size limit
var ErrFileTooLarge = errors.New("file too large")

// File is a named, fully buffered document handed to the extraction chain.
// Name is only used for extension dispatch and diagnostics.
type File struct {
	Name string
	Data []byte
}

// Size returns the number of bytes in the file
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// OpenFile reads path from disk into a File
func OpenFile(path string) (File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, fmt.Errorf("file not found: %w", err)
		}
		return File{}, fmt.Errorf("failed to read file: %w", err)
	}
	return File{Name: filepath.Base(path), Data: content}, nil
}

// ReadFile buffers r into a File. When limit is positive, reading more than
// limit bytes fails with ErrFileTooLarge.
func ReadFile(name string, r io.Reader, limit int64) (File, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if limit > 0 && int64(len(content)) > limit {
		return File{}, fmt.Errorf("%s: %w (limit %d bytes)", name, ErrFileTooLarge, limit)
	}
	return File{Name: name, Data: content}, nil
}
