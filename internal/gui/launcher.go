package gui

import (
	"errors"
	"os"
	"runtime"
)

// ErrNoDisplay is returned when the desktop UI cannot open a window.
var ErrNoDisplay = errors.New("GUI mode requires a display: DISPLAY and WAYLAND_DISPLAY are not set; use 'pdfmerge tui' or 'pdfmerge merge' instead")

// HasDisplay reports whether a window can be opened. Only Linux needs a check.
func HasDisplay() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
