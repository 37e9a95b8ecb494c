// Package ingress turns user file gestures (picker selection, drag-and-drop,
// drop folder) into upload requests, admitting only PDF documents.
package ingress

import (
	"context"
	"sync"

	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/events"
	"github.com/rescale/pdfmerge/internal/logging"
	"github.com/rescale/pdfmerge/internal/models"
)

// RejectedMessage is shown once per drop that contained non-PDF files.
const RejectedMessage = "Only PDF files are allowed"

// Uploader sends accepted files to the merge service.
type Uploader interface {
	Upload(ctx context.Context, files []models.Candidate) error
}

// Warner shows a warning toast.
type Warner interface {
	Warning(message string) models.Toast
}

// Selector is the manual selection input. Reset clears it so the same
// file can be selected again.
type Selector interface {
	Reset()
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func()

func (f SelectorFunc) Reset() { f() }

// Controller routes candidates to the uploader.
type Controller struct {
	uploader Uploader
	warner   Warner
	eventBus *events.EventBus
	logger   *logging.Logger

	dragOver bool
	mu       sync.Mutex
}

// NewController creates an ingress controller. eventBus and logger may be nil.
func NewController(uploader Uploader, warner Warner, eventBus *events.EventBus, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Controller{
		uploader: uploader,
		warner:   warner,
		eventBus: eventBus,
		logger:   logger,
	}
}

// IsPDF reports whether a candidate passes the MIME filter.
func IsPDF(c models.Candidate) bool {
	return c.MIMEType == constants.PDFMIMEType
}

// Filter splits candidates into accepted PDFs and the number rejected.
func Filter(files []models.Candidate) (accepted []models.Candidate, rejected int) {
	for _, f := range files {
		if IsPDF(f) {
			accepted = append(accepted, f)
		} else {
			rejected++
		}
	}
	return accepted, rejected
}

// Select handles a manual selection. Non-PDF files are dropped silently;
// the selector is reset once the upload attempt has finished.
func (c *Controller) Select(ctx context.Context, files []models.Candidate, sel Selector) error {
	if sel != nil {
		defer sel.Reset()
	}

	accepted, rejected := Filter(files)
	if rejected > 0 {
		c.logger.Debug().Int("rejected", rejected).Msg("Ignoring non-PDF files in selection")
	}
	if len(accepted) == 0 {
		return nil
	}
	return c.uploader.Upload(ctx, accepted)
}

// Drop handles a drag-and-drop gesture. Any non-PDF file produces a single
// warning for the whole drop; the accepted files are uploaded together.
func (c *Controller) Drop(ctx context.Context, files []models.Candidate) error {
	c.setDragOver(false)

	accepted, rejected := Filter(files)
	if rejected > 0 {
		c.warner.Warning(RejectedMessage)
	}
	if len(accepted) == 0 {
		return nil
	}
	return c.uploader.Upload(ctx, accepted)
}

// DragEnter highlights the drop target.
func (c *Controller) DragEnter() { c.setDragOver(true) }

// DragLeave removes the drop target highlight.
func (c *Controller) DragLeave() { c.setDragOver(false) }

// DragOver reports whether the drop target is highlighted.
func (c *Controller) DragOver() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragOver
}

func (c *Controller) setDragOver(over bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragOver == over {
		return
	}
	c.dragOver = over
	c.eventBus.PublishDragState(over)
}
