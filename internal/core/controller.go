// Package core owns the client state and runs the four merge service
// operations against it. Front ends bind their controls to a Controller and
// draw view.Render(c.ViewState()).
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rescale/pdfmerge/internal/api"
	"github.com/rescale/pdfmerge/internal/cloud"
	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/events"
	"github.com/rescale/pdfmerge/internal/logging"
	"github.com/rescale/pdfmerge/internal/models"
	"github.com/rescale/pdfmerge/internal/notify"
	"github.com/rescale/pdfmerge/internal/progress"
	"github.com/rescale/pdfmerge/internal/state"
	"github.com/rescale/pdfmerge/internal/view"
)

// User-facing messages.
const (
	ClearConfirmMessage = "Are you sure you want to clear all files?"
	MergeTooFewMessage  = "Please upload at least 2 PDF files"
	FileRemovedMessage  = "File removed"

	removeFailedMessage = "Error removing file"
	clearFailedMessage  = "Error clearing files"

	uploadErrorPrefix   = "Error uploading files: "
	removeErrorPrefix   = "Error removing file: "
	clearErrorPrefix    = "Error clearing files: "
	mergeErrorPrefix    = "Error merging PDFs: "
	downloadErrorPrefix = "Error downloading merged PDF: "
	sessionErrorPrefix  = "Error connecting to merge service: "
)

// ErrTooFewFiles is returned by Merge when fewer than two files are held.
var ErrTooFewFiles = errors.New("at least 2 PDF files are required to merge")

// Service is the merge service transport. *api.Client implements it.
type Service interface {
	OpenSession(ctx context.Context) error
	Upload(ctx context.Context, files []models.Candidate, wrap api.ReaderWrapper) (*models.Envelope, error)
	RemoveFile(ctx context.Context, storedName string) (*models.Envelope, error)
	ClearAll(ctx context.Context) (*models.Envelope, error)
	Merge(ctx context.Context) (*models.Envelope, error)
	OpenDownload(ctx context.Context, downloadURL string) (io.ReadCloser, int64, error)
}

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool { return f(ctx, message) }

// AlwaysConfirm answers yes without asking.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) bool { return true })

// Options configures a Controller. Zero values use the defaults.
type Options struct {
	// Confirmer gates a manual clear. Nil confirms without asking.
	Confirmer Confirmer

	// Sink receives merged documents. Nil writes to the working directory.
	Sink cloud.Sink

	// MergeClearDelay is the pause between a successful merge download and
	// the automatic clear.
	MergeClearDelay time.Duration

	// DiscardStaleResponses drops a collection update when a later-issued
	// request has already been applied.
	DiscardStaleResponses bool

	// NewUploadTracker, if set, creates per-request upload progress output.
	NewUploadTracker func(files int) progress.UploadTracker

	// NewDownloadReporter, if set, creates download progress output.
	NewDownloadReporter func() progress.Reporter

	// Saved is called with the location of every stored merged document.
	Saved func(location string)
}

// Controller is the single owner of the file collection, the busy
// indicator and the toast queue. Operations may be called concurrently.
type Controller struct {
	service  Service
	store    *state.Store
	busy     *state.Busy
	toasts   *notify.Queue
	eventBus *events.EventBus
	logger   *logging.Logger

	confirmer    Confirmer
	downloader   *Downloader
	clearDelay   time.Duration
	discardStale bool
	newTracker   func(files int) progress.UploadTracker

	seq atomic.Uint64

	// Scheduled post-merge clears
	timers  map[uint64]*time.Timer
	timerID uint64
	pending sync.WaitGroup
	closed  bool
	mu      sync.Mutex
}

// NewController creates a controller with an empty collection.
// eventBus and logger may be nil.
func NewController(service Service, toasts *notify.Queue, eventBus *events.EventBus, logger *logging.Logger, opts Options) *Controller {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.Confirmer == nil {
		opts.Confirmer = AlwaysConfirm
	}
	if opts.Sink == nil {
		opts.Sink = cloud.NewLocalSink(".")
	}
	if opts.MergeClearDelay <= 0 {
		opts.MergeClearDelay = constants.MergeClearDelay
	}

	return &Controller{
		service:      service,
		store:        state.NewStore(eventBus),
		busy:         state.NewBusy(eventBus),
		toasts:       toasts,
		eventBus:     eventBus,
		logger:       logger,
		confirmer:    opts.Confirmer,
		downloader:   NewDownloader(service, opts.Sink, eventBus, logger, opts.NewDownloadReporter, opts.Saved),
		clearDelay:   opts.MergeClearDelay,
		discardStale: opts.DiscardStaleResponses,
		newTracker:   opts.NewUploadTracker,
		timers:       make(map[uint64]*time.Timer),
	}
}

// Store returns the file collection store.
func (c *Controller) Store() *state.Store { return c.store }

// Busy returns the busy indicator.
func (c *Controller) Busy() *state.Busy { return c.busy }

// Toasts returns the notification queue.
func (c *Controller) Toasts() *notify.Queue { return c.toasts }

// Warning shows a warning toast; it lets the controller act as an ingress warner.
func (c *Controller) Warning(message string) models.Toast { return c.toasts.Warning(message) }

// ViewState collects everything view.Render needs except the drag-over flag,
// which belongs to the ingress controller.
func (c *Controller) ViewState() view.State {
	return view.State{
		Files:  c.store.Snapshot(),
		Busy:   c.busy.State(),
		Toasts: c.toasts.Visible(),
	}
}

// View renders the current state.
func (c *Controller) View() view.View { return view.Render(c.ViewState()) }

// Start opens the server session. It must succeed before uploads are accepted.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.service.OpenSession(ctx); err != nil {
		c.logger.Error().Err(err).Msg("Failed to open session")
		c.toasts.Error(sessionErrorPrefix + err.Error())
		return fmt.Errorf("failed to open session: %w", err)
	}
	c.logger.Debug().Msg("Session ready")
	return nil
}

// Upload sends files in one request and mirrors the returned collection.
// An empty slice does nothing.
func (c *Controller) Upload(ctx context.Context, files []models.Candidate) error {
	if len(files) == 0 {
		return nil
	}

	release := c.busy.Acquire(constants.BusyLabelDefault)
	defer release()

	seq := c.seq.Add(1)
	wrap, finish := c.uploadWrapper(len(files))

	env, err := c.service.Upload(ctx, files, wrap)
	finish(err)
	if err != nil {
		c.reportFailure("upload", err, uploadErrorPrefix, "")
		return err
	}

	c.apply("upload", seq, env, false)
	c.toasts.Success(env.Message)
	c.logger.Info().Int("files", len(files)).Msg(env.Message)
	return nil
}

// RemoveFile asks the server to drop one file. Unknown names are left to
// the server; whatever collection it returns is applied.
func (c *Controller) RemoveFile(ctx context.Context, storedName string) error {
	release := c.busy.Acquire(constants.BusyLabelDefault)
	defer release()

	seq := c.seq.Add(1)
	env, err := c.service.RemoveFile(ctx, storedName)
	if err != nil {
		c.reportFailure("remove_file", err, removeErrorPrefix, removeFailedMessage)
		return err
	}

	c.apply("remove_file", seq, env, false)
	c.toasts.Success(FileRemovedMessage)
	c.logger.Debug().Str("stored_name", storedName).Msg("File removed")
	return nil
}

// ClearAll empties the collection after the user confirms. An empty
// collection or a declined confirmation aborts silently.
func (c *Controller) ClearAll(ctx context.Context) error {
	if c.store.Len() == 0 {
		c.logger.Debug().Msg("Nothing to clear")
		return nil
	}
	if !c.confirmer.Confirm(ctx, ClearConfirmMessage) {
		c.logger.Debug().Msg("Clear declined")
		return nil
	}
	return c.clear(ctx)
}

func (c *Controller) clear(ctx context.Context) error {
	release := c.busy.Acquire(constants.BusyLabelDefault)
	defer release()

	seq := c.seq.Add(1)
	env, err := c.service.ClearAll(ctx)
	if err != nil {
		c.reportFailure("clear", err, clearErrorPrefix, clearFailedMessage)
		return err
	}

	c.apply("clear", seq, env, true)
	c.toasts.Success(env.Message)
	return nil
}

// Merge asks the server to merge the collection, stores the merged document
// through the sink and schedules an automatic clear. It returns where the
// document was stored.
func (c *Controller) Merge(ctx context.Context) (string, error) {
	if c.store.Len() < constants.MinMergeFiles {
		c.toasts.Warning(MergeTooFewMessage)
		return "", ErrTooFewFiles
	}

	release := c.busy.Acquire(constants.BusyLabelMerge)
	defer release()

	c.seq.Add(1)
	env, err := c.service.Merge(ctx)
	if err != nil {
		c.reportFailure("merge", err, mergeErrorPrefix, "")
		return "", err
	}

	location, err := c.downloader.Fetch(ctx, env.DownloadURL)
	if err != nil {
		c.logger.Error().Err(err).Str("url", env.DownloadURL).Msg("Merged document download failed")
		c.toasts.Error(downloadErrorPrefix + err.Error())
		return "", fmt.Errorf("failed to download merged document: %w", err)
	}

	c.toasts.Success(env.Message)
	c.scheduleClear(context.WithoutCancel(ctx))
	return location, nil
}

// scheduleClear clears the collection after the grace delay, without asking.
func (c *Controller) scheduleClear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.timerID++
	id := c.timerID
	c.pending.Add(1)
	c.timers[id] = time.AfterFunc(c.clearDelay, func() {
		defer c.pending.Done()

		c.mu.Lock()
		delete(c.timers, id)
		c.mu.Unlock()

		if c.store.Len() == 0 {
			return
		}
		if err := c.clear(ctx); err != nil {
			c.logger.Debug().Err(err).Msg("Post-merge clear failed")
		}
	})
}

// Wait blocks until every scheduled post-merge clear has run.
func (c *Controller) Wait() {
	c.pending.Wait()
}

// Close cancels scheduled clears that have not started yet.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, t := range c.timers {
		if t.Stop() {
			c.pending.Done()
		}
		delete(c.timers, id)
	}
}

// apply mirrors a successful response. A response without a file list
// leaves the collection untouched unless emptyIfAbsent is set.
func (c *Controller) apply(op string, seq uint64, env *models.Envelope, emptyIfAbsent bool) {
	var files models.FileCollection
	switch {
	case env.HasFiles():
		files = env.Collection()
	case emptyIfAbsent:
		files = models.FileCollection{}
	default:
		c.logger.Warn().Str("op", op).Msg("Response carried no file list; keeping current collection")
		return
	}

	if !c.discardStale {
		c.store.Replace(files)
		return
	}
	if !c.store.ReplaceAt(seq, files) {
		c.logger.Info().Str("op", op).Uint64("seq", seq).Msg("Discarding stale response")
	}
}

// reportFailure turns an operation error into its single error toast.
// Structural failures show the server's message, or fixed when set;
// everything else shows prefix plus the error text.
func (c *Controller) reportFailure(op string, err error, prefix, fixed string) {
	c.logger.Warn().Err(err).Str("op", op).Msg("Operation failed")

	var se *api.StructuralError
	if errors.As(err, &se) {
		msg := fixed
		if msg == "" {
			msg = se.Message
		}
		if msg == "" {
			msg = strings.TrimSuffix(prefix, ": ")
		}
		c.toasts.Error(msg)
		return
	}
	c.toasts.Error(prefix + err.Error())
}

// uploadWrapper reports per-file progress on the event bus and, when
// configured, through an upload tracker.
func (c *Controller) uploadWrapper(files int) (api.ReaderWrapper, func(error)) {
	var tracker progress.UploadTracker
	if c.newTracker != nil {
		tracker = c.newTracker(files)
	}

	wrap := func(cand models.Candidate, r io.Reader) io.Reader {
		rep := progress.NewEventProgress(c.eventBus, progress.DirectionUpload, cand.Name)
		rep.Start(cand.Size, cand.Name)
		r = &finishingReader{reader: progress.NewProgressReader(r, rep), finish: rep.Finish}
		if tracker != nil {
			r = tracker.Wrap(cand, r)
		}
		return r
	}

	finish := func(err error) {
		if tracker != nil {
			tracker.Finish(err)
		}
	}
	return wrap, finish
}

// finishingReader calls finish once when the underlying reader is exhausted.
type finishingReader struct {
	reader io.Reader
	finish func()
	once   sync.Once
}

func (f *finishingReader) Read(p []byte) (int, error) {
	n, err := f.reader.Read(p)
	if errors.Is(err, io.EOF) {
		f.once.Do(f.finish)
	}
	return n, err
}
