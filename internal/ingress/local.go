package ingress

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rescale/pdfmerge/internal/models"
)

// sniffLen is how many leading bytes content sniffing looks at.
const sniffLen = 512

// LocalCandidate builds a candidate from a local file. The MIME type comes
// from the extension, falling back to content sniffing when the extension
// is unknown.
func LocalCandidate(path string) (models.Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return models.Candidate{}, fmt.Errorf("%s is not a regular file", path)
	}

	mimeType, err := detectMIME(path)
	if err != nil {
		return models.Candidate{}, err
	}

	return models.Candidate{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Size:     info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// LocalCandidates builds candidates for several paths, stopping at the first error.
func LocalCandidates(paths []string) ([]models.Candidate, error) {
	out := make([]models.Candidate, 0, len(paths))
	for _, p := range paths {
		c, err := LocalCandidate(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ExpandPatterns expands glob patterns like *.pdf, even when quoted, and
// returns absolute paths in argument order without duplicates. Glob matches
// come in lexical order.
func ExpandPatterns(patterns []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	add := func(p string) error {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s: %w", p, err)
		}
		if !seen[abs] {
			seen[abs] = true
			paths = append(paths, abs)
		}
		return nil
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[") {
			if err := add(pattern); err != nil {
				return nil, err
			}
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", pattern)
		}
		for _, m := range matches {
			if err := add(m); err != nil {
				return nil, err
			}
		}
	}

	return paths, nil
}

func detectMIME(path string) (string, error) {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		// Drop parameters such as "; charset=utf-8"
		mediaType, _, err := mime.ParseMediaType(byExt)
		if err == nil {
			return mediaType, nil
		}
		return byExt, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(buf[:n]))
	if err != nil {
		return "application/octet-stream", nil
	}
	return mediaType, nil
}
