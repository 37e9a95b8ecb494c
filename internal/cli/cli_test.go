package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/pdfmerge/internal/api/apitest"
	"github.com/rescale/pdfmerge/internal/config"
	"github.com/rescale/pdfmerge/internal/core"
	"github.com/rescale/pdfmerge/internal/ingress"
	"github.com/rescale/pdfmerge/internal/logging"
	"github.com/rescale/pdfmerge/internal/models"
)

// writeTestConfig writes a config with a short clear delay so merges finish fast.
func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	body := "[server]\nbase_url = " + baseURL + "\n\n[client]\nmerge_clear_delay_ms = 1\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 "+name), 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, ExecuteWith([]string{"version", "-c", filepath.Join(t.TempDir(), "none")}, &stdout, &stderr))
	assert.Equal(t, "pdfmerge "+Version+" (built "+BuildTime+")\n", stdout.String())
}

func TestLineInputConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		in := newLineInput(strings.NewReader(tt.input), &out)
		assert.Equal(t, tt.want, in.Confirm(context.Background(), "Clear?"), "input %q", tt.input)
		assert.Contains(t, out.String(), "Clear? [y/N]: ")
	}
}

func TestLineInputConfirmCancelled(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := newLineInput(r, &bytes.Buffer{})
	assert.False(t, in.Confirm(ctx, "Clear?"))
}

func TestMergeCommand(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	src, out := t.TempDir(), t.TempDir()
	a := writePDF(t, src, "a.pdf")
	b := writePDF(t, src, "b.pdf")

	var stdout, stderr bytes.Buffer
	err := ExecuteWith([]string{"merge", a, b, "-c", writeTestConfig(t, srv.URL), "-o", out}, &stdout, &stderr)
	require.NoError(t, err)

	location := strings.TrimSpace(stdout.String())
	assert.Equal(t, filepath.Join(out, "merged_document.pdf"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 a.pdf%PDF-1.4 b.pdf", string(data), "documents should be merged in upload order")

	assert.Equal(t, 1, srv.Calls(apitest.OpUpload), "files should be uploaded in one request")
	assert.Empty(t, srv.Files(), "collection should be cleared after the merge")
}

func TestMergeCommandTooFewFiles(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	a := writePDF(t, t.TempDir(), "a.pdf")

	var stdout, stderr bytes.Buffer
	err := ExecuteWith([]string{"merge", a, "-y", "-c", writeTestConfig(t, srv.URL), "-o", t.TempDir()}, &stdout, &stderr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTooFewFiles))

	assert.Equal(t, 0, srv.Calls(apitest.OpMerge))
	assert.Empty(t, srv.Files(), "uploaded file should be cleared after the failure")
}

func TestMergeCommandUnreadablePath(t *testing.T) {
	var stdout, stderr bytes.Buffer
	missing := filepath.Join(t.TempDir(), "missing.pdf")
	err := ExecuteWith([]string{"merge", missing, "-c", writeTestConfig(t, "http://127.0.0.1:1")}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.pdf")
}

func TestRunWatchCommand(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	cfg := config.NewConfig()
	cfg.Server.BaseURL = srv.URL
	cfg.Client.MergeClearDelay = time.Millisecond

	ctx := context.Background()
	s, err := openSession(ctx, cfg, sessionOptions{Output: t.TempDir()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.core.Start(ctx))

	var out bytes.Buffer
	assert.False(t, runWatchCommand(ctx, s.core, "l", &out))
	assert.Contains(t, out.String(), "No files selected yet")

	dir := t.TempDir()
	_, err = runMerge(ctx, s, []string{filepath.Join(dir, "*.pdf")})
	require.Error(t, err, "a pattern without matches should fail")

	writePDF(t, dir, "a.pdf")
	writePDF(t, dir, "b.pdf")
	require.NoError(t, s.ingress.Drop(ctx, mustCandidates(t, dir)))

	out.Reset()
	runWatchCommand(ctx, s.core, "list", &out)
	assert.Contains(t, out.String(), "2 file(s):")
	assert.Contains(t, out.String(), "Merge 2 PDFs")

	out.Reset()
	assert.False(t, runWatchCommand(ctx, s.core, "m", &out))
	assert.Contains(t, out.String(), "Merged PDF saved to ")

	out.Reset()
	runWatchCommand(ctx, s.core, "what", &out)
	assert.Contains(t, out.String(), watchHelp)

	assert.True(t, runWatchCommand(ctx, s.core, "q", &out))
	assert.NoError(t, s.Err())
}

func TestSessionErrCountsErrorToasts(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.Fail(apitest.OpSession, apitest.Failure{Status: 500})

	cfg := config.NewConfig()
	cfg.Server.BaseURL = srv.URL

	s, err := openSession(context.Background(), cfg, sessionOptions{Output: t.TempDir()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer s.Close()

	require.Error(t, s.core.Start(context.Background()))
	assert.ErrorIs(t, s.Err(), ErrOperationsFailed)
}

func TestSessionErrCountsToastsAfterClose(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()

	cfg := config.NewConfig()
	cfg.Server.BaseURL = srv.URL

	s, err := openSession(context.Background(), cfg, sessionOptions{Output: t.TempDir()}, logging.NewNopLogger())
	require.NoError(t, err)
	s.Close()

	// An operation still in flight during shutdown reports its failure late
	s.toasts.Error("Error clearing files: connection reset")
	assert.ErrorIs(t, s.Err(), ErrOperationsFailed)
}

func TestReadLineLeavesRestUnread(t *testing.T) {
	in := strings.NewReader("s3cret\r\nupload a.pdf\nmerge\n")

	pw, err := readLine(in)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)

	l := newLineInput(in, io.Discard)
	var got []string
	for line := range l.Lines() {
		got = append(got, line)
	}
	assert.Equal(t, []string{"upload a.pdf", "merge"}, got)
}

func TestReadLineEndOfInput(t *testing.T) {
	pw, err := readLine(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", pw)

	_, err = readLine(strings.NewReader(""))
	assert.ErrorIs(t, err, io.EOF)
}

func mustCandidates(t *testing.T, dir string) []models.Candidate {
	t.Helper()
	paths, err := ingress.ExpandPatterns([]string{filepath.Join(dir, "*.pdf")})
	require.NoError(t, err)
	files, err := ingress.LocalCandidates(paths)
	require.NoError(t, err)
	return files
}
