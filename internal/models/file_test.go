package models

import (
	"encoding/json"
	"testing"
)

func TestEnvelopeFilesPresence(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantFiles bool
		wantLen   int
	}{
		{"absent", `{"success": true, "message": "All files cleared"}`, false, 0},
		{"empty", `{"success": true, "files": []}`, true, 0},
		{"null", `{"success": true, "files": null}`, false, 0},
		{"two", `{"success": true, "files": [{"stored_name": "a", "original_name": "a.pdf", "size": 1}, {"stored_name": "b", "original_name": "b.pdf", "size": 2}]}`, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope
			if err := json.Unmarshal([]byte(tt.body), &env); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if env.HasFiles() != tt.wantFiles {
				t.Errorf("HasFiles() = %v, want %v", env.HasFiles(), tt.wantFiles)
			}
			if got := len(env.Collection()); got != tt.wantLen {
				t.Errorf("len(Collection()) = %d, want %d", got, tt.wantLen)
			}
		})
	}
}

func TestEnvelopeDownloadURL(t *testing.T) {
	var env Envelope
	body := `{"success": true, "download_url": "/download/merged_x.pdf", "message": "PDFs merged successfully!"}`
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.DownloadURL != "/download/merged_x.pdf" {
		t.Errorf("DownloadURL = %q", env.DownloadURL)
	}
	if env.Message != "PDFs merged successfully!" {
		t.Errorf("Message = %q", env.Message)
	}
}

func TestFileCollectionClone(t *testing.T) {
	orig := FileCollection{{StoredName: "a", OriginalName: "a.pdf", Size: 10}}
	clone := orig.Clone()
	clone[0].OriginalName = "changed.pdf"
	if orig[0].OriginalName != "a.pdf" {
		t.Error("Clone shares backing array with original")
	}

	var nilColl FileCollection
	if c := nilColl.Clone(); c == nil || len(c) != 0 {
		t.Errorf("nil Clone() = %#v, want empty non-nil", c)
	}
}

func TestFileCollectionFindAndTotal(t *testing.T) {
	c := FileCollection{
		{StoredName: "s1", OriginalName: "one.pdf", Size: 100},
		{StoredName: "s2", OriginalName: "two.pdf", Size: 250},
	}
	if f, ok := c.Find("s2"); !ok || f.OriginalName != "two.pdf" {
		t.Errorf("Find(s2) = %+v, %v", f, ok)
	}
	if _, ok := c.Find("missing"); ok {
		t.Error("Find(missing) reported found")
	}
	if got := c.TotalSize(); got != 350 {
		t.Errorf("TotalSize() = %d, want 350", got)
	}
}
