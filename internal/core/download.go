package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rescale/pdfmerge/internal/cloud"
	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/diskspace"
	"github.com/rescale/pdfmerge/internal/events"
	"github.com/rescale/pdfmerge/internal/logging"
	"github.com/rescale/pdfmerge/internal/progress"
)

// Downloader fetches a merged document into a temporary file and hands it
// to a sink once complete, so a failed transfer never leaves a partial
// document at the destination.
type Downloader struct {
	service     Service
	sink        cloud.Sink
	eventBus    *events.EventBus
	logger      *logging.Logger
	newReporter func() progress.Reporter
	saved       func(location string)
}

// NewDownloader creates a downloader. newReporter and saved may be nil.
func NewDownloader(service Service, sink cloud.Sink, eventBus *events.EventBus, logger *logging.Logger,
	newReporter func() progress.Reporter, saved func(string)) *Downloader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Downloader{
		service:     service,
		sink:        sink,
		eventBus:    eventBus,
		logger:      logger,
		newReporter: newReporter,
		saved:       saved,
	}
}

// Fetch downloads url and stores it as merged_document.pdf. It returns the
// location reported by the sink.
func (d *Downloader) Fetch(ctx context.Context, url string) (string, error) {
	body, size, err := d.service.OpenDownload(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := diskspace.Check(os.TempDir(), size); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "pdfmerge-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	reporter := progress.Multi{progress.NewEventProgress(d.eventBus, progress.DirectionDownload, constants.MergedFileName)}
	if d.newReporter != nil {
		reporter = append(reporter, d.newReporter())
	}
	reporter.Start(size, "Downloading "+constants.MergedFileName)

	n, err := io.Copy(tmp, progress.NewProgressReader(body, reporter))
	if err != nil {
		reporter.Error(err)
		return "", fmt.Errorf("transfer interrupted: %w", err)
	}
	if size >= 0 && n != size {
		err := fmt.Errorf("transfer incomplete: got %d of %d bytes", n, size)
		reporter.Error(err)
		return "", err
	}
	reporter.Finish()

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind temp file: %w", err)
	}

	location, err := d.sink.Put(ctx, constants.MergedFileName, tmp, n)
	if err != nil {
		return "", fmt.Errorf("failed to store merged document in %s: %w", d.sink, err)
	}

	d.logger.Info().Str("location", location).Int64("bytes", n).Msg("Merged document saved")
	if d.saved != nil {
		d.saved(location)
	}
	return location, nil
}
