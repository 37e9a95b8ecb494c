package view

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rescale/pdfmerge/internal/models"
)

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{1572864, "1.5 MB"},
		{1234567, "1.18 MB"},
		{1073741824, "1 GB"},
		{5 * 1099511627776, "5120 GB"},
		{-5, "0 Bytes"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.bytes); got != tt.expected {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.bytes, got, tt.expected)
		}
	}
}

func TestTruncateFilename(t *testing.T) {
	forty := strings.Repeat("a", 36) + ".pdf"
	if got := TruncateFilename(forty, 50); got != forty {
		t.Errorf("40-char name changed: %q", got)
	}

	fifty := strings.Repeat("b", 46) + ".pdf"
	if got := TruncateFilename(fifty, 50); got != fifty {
		t.Errorf("50-char name changed: %q", got)
	}

	seventy := strings.Repeat("c", 66) + ".pdf"
	got := TruncateFilename(seventy, 50)
	if !strings.HasSuffix(got, "...pdf") {
		t.Errorf("Expected suffix ...pdf, got %q", got)
	}
	if utf8.RuneCountInString(got) != 50 {
		t.Errorf("Expected 50 characters, got %d (%q)", utf8.RuneCountInString(got), got)
	}
	if got != strings.Repeat("c", 43)+"...pdf" {
		t.Errorf("Unexpected truncation %q", got)
	}
}

func TestTruncateFilenameEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no extension", strings.Repeat("x", 60), strings.Repeat("x", 47) + "..."},
		{"dotfile", "." + strings.Repeat("y", 59), "." + strings.Repeat("y", 46) + "..."},
		{"huge extension", "a." + strings.Repeat("e", 58), "a." + strings.Repeat("e", 45) + "..."},
		{"multibyte", strings.Repeat("é", 60) + ".pdf", strings.Repeat("é", 43) + "...pdf"},
		{"double extension", strings.Repeat("d", 60) + ".tar.pdf", strings.Repeat("d", 43) + "...pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateFilename(tt.in, 50)
			if got != tt.want {
				t.Errorf("TruncateFilename() = %q, want %q", got, tt.want)
			}
			if n := utf8.RuneCountInString(got); n != 50 {
				t.Errorf("length = %d, want 50", n)
			}
		})
	}
}

func files(n int) models.FileCollection {
	c := make(models.FileCollection, n)
	for i := range c {
		c[i] = models.FileDescriptor{
			StoredName:   fmt.Sprintf("s%d", i),
			OriginalName: fmt.Sprintf("doc%d.pdf", i),
			Size:         int64(1024 * (i + 1)),
		}
	}
	return c
}

func TestRenderProjections(t *testing.T) {
	for n := 0; n <= 5; n++ {
		v := Render(State{Files: files(n)})

		if len(v.Rows) != n || v.Count != n {
			t.Errorf("n=%d: rows=%d count=%d", n, len(v.Rows), v.Count)
		}
		if v.Merge.Enabled != (n >= 2) {
			t.Errorf("n=%d: merge enabled = %v", n, v.Merge.Enabled)
		}
		if v.Clear.Visible != (n > 0) {
			t.Errorf("n=%d: clear visible = %v", n, v.Clear.Visible)
		}
		if v.Empty != (n == 0) {
			t.Errorf("n=%d: empty = %v", n, v.Empty)
		}
	}
}

func TestRenderLabels(t *testing.T) {
	v := Render(State{})
	if v.EmptyTitle != "No files selected yet" || v.EmptyHint != "Upload PDF files to get started" {
		t.Errorf("Unexpected placeholder: %q / %q", v.EmptyTitle, v.EmptyHint)
	}
	if v.Merge.Label != "Merge PDFs" {
		t.Errorf("Disabled merge label = %q", v.Merge.Label)
	}

	v = Render(State{Files: files(3)})
	if v.Merge.Label != "Merge 3 PDFs" {
		t.Errorf("Enabled merge label = %q", v.Merge.Label)
	}
	if v.Rows[1].StoredName != "s1" || v.Rows[1].SizeLabel != "2 KB" || v.Rows[1].DisplayName != "doc1.pdf" {
		t.Errorf("Unexpected row: %+v", v.Rows[1])
	}
}

func TestRenderPassesThroughOverlayState(t *testing.T) {
	toasts := []models.Toast{{ID: 1, Message: "File removed", Severity: models.SeveritySuccess}}
	busy := models.BusyState{Active: true, Label: "Merging your PDFs..."}

	v := Render(State{Files: files(2), Busy: busy, Toasts: toasts, DragOver: true})
	if v.Busy != busy || !v.DragOver || len(v.Toasts) != 1 {
		t.Errorf("Overlay state not carried: %+v", v)
	}

	toasts[0].Message = "mutated"
	if v.Toasts[0].Message != "File removed" {
		t.Error("Render should copy toasts")
	}
}
