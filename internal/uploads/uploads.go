// ABOUTME: Upload directory management: unique naming, size-limited saves, removal and reset
// ABOUTME: Files are stored flat under one directory using the client's base file name
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrTooLarge is returned when an upload exceeds the configured maximum size
var ErrTooLarge = errors.New("file too large")

// maxNameAttempts bounds the search for a free name
const maxNameAttempts = 10000

// Store saves uploaded files into a directory
type Store struct {
	dir     string
	maxSize int64
}

// New creates the upload directory if needed. maxSize <= 0 disables the size limit.
func New(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Dir returns the upload directory
func (s *Store) Dir() string {
	return s.dir
}

// MaxSize returns the size limit in bytes
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// CleanName reduces a client-supplied file name to a safe base name
func CleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}

// candidateName returns name for attempt 0, then stem_N.ext
func candidateName(name string, attempt int) string {
	if attempt == 0 {
		return name
	}
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		return fmt.Sprintf("%s_%d%s", name[:dot], attempt, name[dot:])
	}
	return fmt.Sprintf("%s_%d", name, attempt)
}

// Save writes r under a unique variant of name and returns the stored path and name.
// Nothing is left on disk when the content exceeds the size limit or the copy fails.
func (s *Store) Save(name string, r io.Reader) (string, string, error) {
	name = CleanName(name)

	var (
		f      *os.File
		stored string
		err    error
	)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		stored = candidateName(name, attempt)
		f, err = os.OpenFile(filepath.Join(s.dir, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil || !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to create upload file: %w", err)
	}
	path := f.Name()

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(f, src)
	closeErr := f.Close()
	switch {
	case err != nil:
		_ = os.Remove(path)
		return "", "", fmt.Errorf("failed to write upload: %w", err)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", "", fmt.Errorf("failed to close upload: %w", closeErr)
	case s.maxSize > 0 && n > s.maxSize:
		_ = os.Remove(path)
		return "", "", ErrTooLarge
	}
	return path, stored, nil
}

// Remove deletes a stored file; a missing file is not an error
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// Reset deletes every regular file in the upload directory and returns how many were removed.
// Subdirectories are left alone.
func (s *Store) Reset() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read upload directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}
