package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rescale/pdfmerge/internal/diskspace"
)

// maxNameAttempts bounds the " (n)" suffix search for a free filename.
const maxNameAttempts = 1000

// LocalSink writes documents into a directory. Existing files are never
// overwritten; a " (n)" suffix is added instead.
type LocalSink struct {
	dir string
}

// NewLocalSink creates a sink writing into dir.
func NewLocalSink(dir string) *LocalSink {
	if dir == "" {
		dir = "."
	}
	return &LocalSink{dir: dir}
}

func (s *LocalSink) String() string { return s.dir }

// Put writes body to a free filename in the directory.
func (s *LocalSink) Put(ctx context.Context, name string, body io.ReadSeeker, size int64) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := diskspace.Check(s.dir, size); err != nil {
		return "", err
	}

	// Temporary file first so a partial document never appears under the final name
	tmp, err := os.CreateTemp(s.dir, ".pdfmerge-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: body}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	target, err := s.claim(tmpPath, name)
	if err != nil {
		return "", err
	}

	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}
	return target, nil
}

// claim publishes tmpPath under the first free " (n)" variant of name.
// The name is taken atomically, so concurrent writers never share one.
func (s *LocalSink) claim(tmpPath, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(s.dir, name)
	for i := 1; i <= maxNameAttempts; i++ {
		err := os.Link(tmpPath, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			// Filesystems without hard links: reserve the name, then replace it
			err = reserve(candidate)
			if err == nil {
				if err := os.Rename(tmpPath, candidate); err != nil {
					os.Remove(candidate)
					return "", fmt.Errorf("failed to save %s: %w", candidate, err)
				}
				return candidate, nil
			}
			if !errors.Is(err, fs.ErrExist) {
				return "", fmt.Errorf("failed to save %s: %w", candidate, err)
			}
		}
		candidate = filepath.Join(s.dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
	return "", fmt.Errorf("no free filename for %s in %s", name, s.dir)
}

func reserve(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

// ctxReader stops a copy once the context is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
