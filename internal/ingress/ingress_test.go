package ingress

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rescale/pdfmerge/internal/events"
	"github.com/rescale/pdfmerge/internal/models"
)

type fakeUploader struct {
	mu      sync.Mutex
	batches [][]models.Candidate
	err     error
}

func (f *fakeUploader) Upload(ctx context.Context, files []models.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, files)
	return f.err
}

func (f *fakeUploader) calls() [][]models.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]models.Candidate(nil), f.batches...)
}

type fakeWarner struct {
	warnings []string
}

func (f *fakeWarner) Warning(message string) models.Toast {
	f.warnings = append(f.warnings, message)
	return models.Toast{Message: message, Severity: models.SeverityWarning}
}

func candidate(name, mimeType string) models.Candidate {
	return models.Candidate{
		Name:     name,
		MIMEType: mimeType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("%PDF-1.4"))), nil
		},
	}
}

func mixed() []models.Candidate {
	return []models.Candidate{
		candidate("a.pdf", "application/pdf"),
		candidate("notes.txt", "text/plain"),
		candidate("b.pdf", "application/pdf"),
		candidate("photo.png", "image/png"),
		candidate("c.pdf", "application/pdf"),
	}
}

func TestDropMixedWarnsOnceUploadsOnce(t *testing.T) {
	up, warn := &fakeUploader{}, &fakeWarner{}
	c := NewController(up, warn, nil, nil)

	if err := c.Drop(context.Background(), mixed()); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}

	if len(warn.warnings) != 1 || warn.warnings[0] != RejectedMessage {
		t.Errorf("warnings = %v, want exactly one %q", warn.warnings, RejectedMessage)
	}
	calls := up.calls()
	if len(calls) != 1 {
		t.Fatalf("Expected one upload, got %d", len(calls))
	}
	if len(calls[0]) != 3 {
		t.Fatalf("Expected 3 files in upload, got %d", len(calls[0]))
	}
	for i, want := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if calls[0][i].Name != want {
			t.Errorf("file[%d] = %q, want %q", i, calls[0][i].Name, want)
		}
	}
}

func TestDropOnlyRejectedDoesNotUpload(t *testing.T) {
	up, warn := &fakeUploader{}, &fakeWarner{}
	c := NewController(up, warn, nil, nil)

	_ = c.Drop(context.Background(), []models.Candidate{candidate("x.docx", "application/msword")})

	if len(warn.warnings) != 1 {
		t.Errorf("Expected one warning, got %v", warn.warnings)
	}
	if len(up.calls()) != 0 {
		t.Error("No upload expected when nothing was accepted")
	}
}

func TestDropAllPDFsNoWarning(t *testing.T) {
	up, warn := &fakeUploader{}, &fakeWarner{}
	c := NewController(up, warn, nil, nil)

	_ = c.Drop(context.Background(), []models.Candidate{candidate("a.pdf", "application/pdf")})

	if len(warn.warnings) != 0 {
		t.Errorf("Unexpected warnings %v", warn.warnings)
	}
	if len(up.calls()) != 1 {
		t.Error("Expected one upload")
	}
}

func TestSelectFiltersSilentlyAndResets(t *testing.T) {
	up, warn := &fakeUploader{err: errors.New("offline")}, &fakeWarner{}
	c := NewController(up, warn, nil, nil)

	resets := 0
	err := c.Select(context.Background(), mixed(), SelectorFunc(func() { resets++ }))
	if err == nil {
		t.Error("Expected uploader error to propagate")
	}
	if len(warn.warnings) != 0 {
		t.Errorf("Selection should not warn, got %v", warn.warnings)
	}
	if resets != 1 {
		t.Errorf("Expected selector reset once, got %d", resets)
	}
	if calls := up.calls(); len(calls) != 1 || len(calls[0]) != 3 {
		t.Errorf("Unexpected uploads %v", calls)
	}
}

func TestSelectEmptyStillResets(t *testing.T) {
	up := &fakeUploader{}
	c := NewController(up, &fakeWarner{}, nil, nil)

	resets := 0
	_ = c.Select(context.Background(), nil, SelectorFunc(func() { resets++ }))
	if resets != 1 || len(up.calls()) != 0 {
		t.Errorf("resets=%d uploads=%d", resets, len(up.calls()))
	}
}

func TestDragHighlight(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventDragState)

	c := NewController(&fakeUploader{}, &fakeWarner{}, bus, nil)

	c.DragEnter()
	c.DragEnter()
	if !c.DragOver() {
		t.Error("Expected drag-over after DragEnter")
	}
	c.DragLeave()
	if c.DragOver() {
		t.Error("Expected no drag-over after DragLeave")
	}
	c.DragEnter()
	_ = c.Drop(context.Background(), nil)
	if c.DragOver() {
		t.Error("Drop should clear the highlight")
	}

	var states []bool
	for {
		select {
		case e := <-ch:
			states = append(states, e.(*events.DragStateEvent).Over)
			continue
		case <-time.After(50 * time.Millisecond):
		}
		break
	}
	want := []bool{true, false, true, false}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %v, want %v", i, states[i], want[i])
		}
	}
}

func TestLocalCandidate(t *testing.T) {
	dir := t.TempDir()

	pdf := filepath.Join(dir, "Report.PDF")
	if err := os.WriteFile(pdf, []byte("%PDF-1.7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LocalCandidate(pdf)
	if err != nil {
		t.Fatalf("LocalCandidate() error = %v", err)
	}
	if c.Name != "Report.PDF" || c.MIMEType != "application/pdf" || c.Size != 9 {
		t.Errorf("Unexpected candidate %+v", c)
	}
	rc, err := c.Open()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "%PDF-1.7\n" {
		t.Errorf("Open() read %q", data)
	}

	// Unknown extension falls back to sniffing.
	sniffed := filepath.Join(dir, "scan.unknownext")
	if err := os.WriteFile(sniffed, []byte("%PDF-1.4 body"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err = LocalCandidate(sniffed)
	if err != nil {
		t.Fatal(err)
	}
	if c.MIMEType != "application/pdf" {
		t.Errorf("Sniffed MIME = %q", c.MIMEType)
	}

	if _, err := LocalCandidate(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := LocalCandidate(dir); err == nil {
		t.Error("Expected error for directory")
	}
}

func TestDropWatcherBatches(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "existing.pdf"), []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}

	batches := make(chan []models.Candidate, 10)
	w := NewDropWatcher(dir, 150*time.Millisecond, func(ctx context.Context, files []models.Candidate) error {
		batches <- files
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case b := <-batches:
		if len(b) != 1 || b[0].Name != "existing.pdf" {
			t.Errorf("Initial batch = %v", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for initial batch")
	}

	for _, name := range []string{"one.pdf", "two.pdf", ".hidden.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case b := <-batches:
		if len(b) != 2 {
			t.Errorf("Expected 2 files in batch, got %d", len(b))
		}
		for _, c := range b {
			if c.Name == ".hidden.pdf" || c.Name == "existing.pdf" {
				t.Errorf("Unexpected file in batch: %s", c.Name)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for batch")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}

func TestDropWatcherMissingDir(t *testing.T) {
	w := NewDropWatcher(filepath.Join(t.TempDir(), "nope"), 0, func(context.Context, []models.Candidate) error { return nil }, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.pdf", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ExpandPatterns([]string{
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "*.pdf"),
		filepath.Join(dir, "a.pdf"), // duplicate of a glob match
	})
	if err != nil {
		t.Fatalf("ExpandPatterns() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b.pdf"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := ExpandPatterns([]string{filepath.Join(dir, "*.docx")}); err == nil {
		t.Error("Expected error for a pattern without matches")
	}
}
