// Package progress provides a unified interface for progress reporting
// across CLI (progress bars) and GUI/TUI (event bus) modes.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/rescale/pdfmerge/internal/events"
)

// Transfer directions carried by events.TransferEvent.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// Reporter is the interface for reporting progress in both CLI and GUI modes.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
}

// CLIProgress implements progress reporting for CLI mode using a progress bar.
type CLIProgress struct {
	bar *progressbar.ProgressBar
	out io.Writer
}

// NewCLIProgress creates a new CLI progress reporter writing to stderr.
func NewCLIProgress() *CLIProgress {
	return &CLIProgress{out: os.Stderr}
}

// Start initializes the progress bar. A negative total shows a spinner.
func (p *CLIProgress) Start(total int64, description string) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update updates the progress bar to the current position.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error displays an error message.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(p.out, "\nError: %v\n", err)
	}
}

// EventProgress reports progress as TransferEvents on the event bus.
type EventProgress struct {
	eventBus  *events.EventBus
	direction string
	name      string
	total     int64
	current   int64
}

// NewEventProgress creates an event bus reporter for one named transfer.
func NewEventProgress(eventBus *events.EventBus, direction, name string) *EventProgress {
	return &EventProgress{
		eventBus:  eventBus,
		direction: direction,
		name:      name,
	}
}

// Start publishes the initial event.
func (p *EventProgress) Start(total int64, description string) {
	p.total = total
	p.current = 0
	p.eventBus.PublishTransfer(p.direction, p.name, 0, total, false)
}

// Update publishes the current position.
func (p *EventProgress) Update(current int64) {
	p.current = current
	p.eventBus.PublishTransfer(p.direction, p.name, current, p.total, false)
}

// Finish publishes completion.
func (p *EventProgress) Finish() {
	p.eventBus.PublishTransfer(p.direction, p.name, p.current, p.total, true)
}

// Error publishes completion; the failure itself is reported by a toast.
func (p *EventProgress) Error(err error) {
	p.eventBus.PublishTransfer(p.direction, p.name, p.current, p.total, true)
}

// NoOpProgress is a progress reporter that does nothing (for background/silent operations).
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (p *NoOpProgress) Start(total int64, description string) {}
func (p *NoOpProgress) Update(current int64)                  {}
func (p *NoOpProgress) Finish()                               {}
func (p *NoOpProgress) Error(err error)                       {}

// Multi fans out to several reporters.
type Multi []Reporter

func (m Multi) Start(total int64, description string) {
	for _, r := range m {
		r.Start(total, description)
	}
}

func (m Multi) Update(current int64) {
	for _, r := range m {
		r.Update(current)
	}
}

func (m Multi) Finish() {
	for _, r := range m {
		r.Finish()
	}
}

func (m Multi) Error(err error) {
	for _, r := range m {
		r.Error(err)
	}
}

// ProgressReader wraps an io.Reader to report progress.
type ProgressReader struct {
	reader   io.Reader
	reporter Reporter
	current  int64
}

// NewProgressReader creates a new progress-reporting reader.
func NewProgressReader(reader io.Reader, reporter Reporter) *ProgressReader {
	return &ProgressReader{
		reader:   reader,
		reporter: reporter,
	}
}

// Read implements io.Reader interface with progress reporting.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.current += int64(n)
		pr.reporter.Update(pr.current)
	}
	return n, err
}

// Current returns the number of bytes read so far.
func (pr *ProgressReader) Current() int64 {
	return pr.current
}
