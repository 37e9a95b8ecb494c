// Package notify provides the in-app toast queue and its optional mirror to
// cross-platform desktop notifications through github.com/gen2brain/beeep.
package notify

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/logging"
	"github.com/rescale/pdfmerge/internal/models"
)

// Replaced in tests.
var (
	notifyFunc = beeep.Notify
	alertFunc  = beeep.Alert
)

// DesktopSink mirrors warning and error toasts to OS notifications.
type DesktopSink struct {
	logger  *logging.Logger
	enabled bool
	mu      sync.RWMutex
}

// NewDesktopSink creates a desktop sink. logger may be nil.
func NewDesktopSink(enabled bool, logger *logging.Logger) *DesktopSink {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DesktopSink{
		logger:  logger,
		enabled: enabled,
	}
}

// SetEnabled enables or disables notifications.
func (n *DesktopSink) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *DesktopSink) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Toast implements Sink. Only warnings and errors reach the desktop.
func (n *DesktopSink) Toast(t models.Toast) {
	if !n.IsEnabled() {
		return
	}

	switch t.Severity {
	case models.SeverityError:
		// Alert is more prominent on some platforms; fall back to a plain notification
		if err := alertFunc(constants.AppTitle, truncate(t.Message, 200), ""); err != nil {
			if err := notifyFunc(constants.AppTitle, truncate(t.Message, 200), ""); err != nil {
				n.logger.Warn().Err(err).Msg("Failed to send error notification")
			}
		}
	case models.SeverityWarning:
		if err := notifyFunc(constants.AppTitle, truncate(t.Message, 200), ""); err != nil {
			n.logger.Warn().Err(err).Msg("Failed to send warning notification")
		}
	}
}

// Saved announces where a merged document was written.
func (n *DesktopSink) Saved(location string) {
	if !n.IsEnabled() {
		return
	}

	message := fmt.Sprintf("Merged PDF saved to:\n%s", shortenPath(location))
	if err := notifyFunc("Merge Complete", message, ""); err != nil {
		n.logger.Warn().Err(err).Str("location", location).Msg("Failed to send merge complete notification")
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// shortenPath abbreviates a long path for display in notifications.
func shortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	// Try to show drive/root + ... + last 2 path components
	_, file := filepath.Split(path)
	parentDir := filepath.Base(filepath.Dir(path))

	short := filepath.Join("...", parentDir, file)

	vol := filepath.VolumeName(path)
	if vol != "" && len(vol)+len(short)+1 <= maxLen {
		short = vol + string(filepath.Separator) + short
	}

	if len(short) > maxLen {
		return "..." + path[len(path)-(maxLen-3):]
	}

	return short
}
