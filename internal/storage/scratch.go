// Package storage holds the per-request scratch files written for uploads.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Scratch records every file written for one request so they can all be
// removed together. Callers defer Release right after creating it.
type Scratch struct {
	dir string

	mu    sync.Mutex
	paths []string
}

func NewScratch(dir string) *Scratch {
	return &Scratch{dir: dir}
}

// Save copies an uploaded part into the scratch directory under a generated
// name and returns the path. The path is recorded before any bytes are
// written, so a partial write is still cleaned up.
func (s *Scratch) Save(header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", header.Filename, err)
	}
	defer src.Close()

	return s.Write(header.Filename, src)
}

// Write stores r under a generated name that keeps filename's extension.
func (s *Scratch) Write(filename string, r io.Reader) (string, error) {
	path := filepath.Join(s.dir, uuid.New().String()+strings.ToLower(filepath.Ext(filename)))

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	s.track(path)

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close scratch file: %w", err)
	}
	return path, nil
}

func (s *Scratch) track(path string) {
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
}

// Paths returns the files currently recorded.
func (s *Scratch) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Release removes every recorded file exactly once. Files that are already
// gone are not an error. It returns how many files were removed.
func (s *Scratch) Release() (int, error) {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	removed := 0
	var errs []error
	for _, p := range paths {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}
