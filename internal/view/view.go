// Package view derives a toolkit-independent description of the screen from
// client state. Front ends draw the description; they never compute counts
// or control states themselves.
package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/models"
)

// Empty-state placeholder text.
const (
	EmptyTitle = "No files selected yet"
	EmptyHint  = "Upload PDF files to get started"
)

// Row is one entry of the file list.
type Row struct {
	StoredName  string // key for the removal control
	DisplayName string
	FullName    string
	SizeLabel   string
}

// Button describes an action control.
type Button struct {
	Enabled bool
	Visible bool
	Label   string
}

// View is everything a front end needs to draw.
type View struct {
	Rows       []Row
	Empty      bool
	EmptyTitle string
	EmptyHint  string
	Count      int
	Merge      Button
	Clear      Button
	Busy       models.BusyState
	Toasts     []models.Toast
	DragOver   bool
}

// State is the input of Render.
type State struct {
	Files    models.FileCollection
	Busy     models.BusyState
	Toasts   []models.Toast
	DragOver bool
}

// Render maps state to a view. It has no side effects.
func Render(s State) View {
	count := len(s.Files)

	v := View{
		Rows:     make([]Row, 0, count),
		Count:    count,
		Busy:     s.Busy,
		DragOver: s.DragOver,
		Toasts:   append([]models.Toast(nil), s.Toasts...),
	}

	if count == 0 {
		v.Empty = true
		v.EmptyTitle = EmptyTitle
		v.EmptyHint = EmptyHint
	}
	for _, f := range s.Files {
		v.Rows = append(v.Rows, Row{
			StoredName:  f.StoredName,
			DisplayName: TruncateFilename(f.OriginalName, constants.MaxDisplayNameLength),
			FullName:    f.OriginalName,
			SizeLabel:   FormatFileSize(f.Size),
		})
	}

	v.Merge = Button{Visible: true, Enabled: count >= constants.MinMergeFiles, Label: "Merge PDFs"}
	if v.Merge.Enabled {
		v.Merge.Label = fmt.Sprintf("Merge %d PDFs", count)
	}
	v.Clear = Button{Visible: count > 0, Enabled: count > 0, Label: "Clear All"}

	return v
}

// TruncateFilename shortens names longer than maxLen runes to exactly maxLen,
// keeping the extension and inserting "..." before it. Names without an
// extension, or whose extension leaves no room for the stem, are cut at the
// end instead.
func TruncateFilename(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}

	dot := strings.LastIndex(name, ".")
	if dot <= 0 {
		return string(runes[:maxLen-3]) + "..."
	}

	stem := []rune(name[:dot])
	ext := []rune(name[dot+1:])
	keep := maxLen - len(ext) - 4
	if keep < 1 || keep > len(stem) {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(stem[:keep]) + "..." + "." + string(ext)
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count on a base-1024 scale rounded to two
// decimals with trailing zeros dropped, e.g. "1.5 KB". Sizes past GB stay in GB.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	// Integer floor(log1024(bytes)); float logs misround exact powers.
	i, div := 0, int64(1)
	for i < len(sizeUnits)-1 && bytes >= div*1024 {
		div *= 1024
		i++
	}

	value := float64(bytes) / float64(div)
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}
