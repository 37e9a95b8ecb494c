package cli

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rescale/pdfmerge/internal/api"
	"github.com/rescale/pdfmerge/internal/cloud"
	"github.com/rescale/pdfmerge/internal/config"
	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/core"
	"github.com/rescale/pdfmerge/internal/events"
	"github.com/rescale/pdfmerge/internal/http"
	"github.com/rescale/pdfmerge/internal/ingress"
	"github.com/rescale/pdfmerge/internal/logging"
	"github.com/rescale/pdfmerge/internal/models"
	"github.com/rescale/pdfmerge/internal/notify"
	"github.com/rescale/pdfmerge/internal/progress"
)

// ErrOperationsFailed is returned by commands when at least one operation
// ended with an error notification.
var ErrOperationsFailed = errors.New("one or more operations failed")

// sessionOptions varies the wiring per front end.
type sessionOptions struct {
	// Output overrides [output] destination.
	Output string

	// Confirmer gates a manual clear. Nil confirms without asking.
	Confirmer core.Confirmer

	// Bars enables mpb upload bars and a progressbar download bar.
	Bars bool

	// Sinks receive every toast in addition to the desktop mirror.
	Sinks []notify.Sink
}

// session is one connected client: event bus, toasts, API client,
// controllers and the merged document sink.
type session struct {
	cfg      *config.Config
	bus      *events.EventBus
	toasts   *notify.Queue
	desktop  *notify.DesktopSink
	failures *failureCounter
	client   *api.Client
	sink     cloud.Sink
	core     *core.Controller
	ingress  *ingress.Controller
	logger   *logging.Logger
}

// prepareConfig validates the configuration and asks for a missing proxy password.
func prepareConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.NeedsProxyPassword() {
		pw, err := promptPassword(fmt.Sprintf("Proxy password for %s@%s: ", cfg.Proxy.User, cfg.Proxy.Host))
		if err != nil {
			return err
		}
		cfg.Proxy.Password = pw
	}
	return nil
}

// openSession wires the client stack. It does not contact the server;
// call s.core.Start for that.
func openSession(ctx context.Context, cfg *config.Config, opts sessionOptions, logger *logging.Logger) (*session, error) {
	if err := prepareConfig(cfg); err != nil {
		return nil, err
	}

	client, err := api.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	httpClient, err := http.ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	sink, err := cloud.NewSink(ctx, cfg, opts.Output, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open output destination: %w", err)
	}

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	desktop := notify.NewDesktopSink(cfg.Notifications.Desktop, logger)
	failures := &failureCounter{}
	sinks := append([]notify.Sink{desktop, failures}, opts.Sinks...)
	toasts := notify.NewQueue(bus, notify.QueueOptions{Lifetime: cfg.Client.ToastLifetime}, sinks...)

	coreOpts := core.Options{
		Confirmer:             opts.Confirmer,
		Sink:                  sink,
		MergeClearDelay:       cfg.Client.MergeClearDelay,
		DiscardStaleResponses: cfg.Client.DiscardStaleResponses,
		Saved:                 desktop.Saved,
	}
	if opts.Bars {
		coreOpts.NewUploadTracker = func(files int) progress.UploadTracker { return progress.NewUploadUI(files) }
		coreOpts.NewDownloadReporter = func() progress.Reporter { return progress.NewCLIProgress() }
	}
	ctrl := core.NewController(client, toasts, bus, logger, coreOpts)

	logger.Debug().
		Str("server", client.BaseURL()).
		Str("output", sink.String()).
		Msg("Session wired")

	return &session{
		cfg:      cfg,
		bus:      bus,
		toasts:   toasts,
		desktop:  desktop,
		failures: failures,
		client:   client,
		sink:     sink,
		core:     ctrl,
		ingress:  ingress.NewController(ctrl, ctrl, bus, logger),
		logger:   logger,
	}, nil
}

// Close stops pending clears and toast timers and closes the event bus.
func (s *session) Close() {
	s.core.Close()
	s.toasts.Close()
	s.bus.Close()
}

// Err reports ErrOperationsFailed if any error toast was shown.
func (s *session) Err() error {
	if n := s.failures.Count(); n > 0 {
		return fmt.Errorf("%w (%d error(s))", ErrOperationsFailed, n)
	}
	return nil
}

// failureCounter counts error toasts.
type failureCounter struct {
	n atomic.Int64
}

func (f *failureCounter) Toast(t models.Toast) {
	if t.Severity == models.SeverityError {
		f.n.Add(1)
	}
}

func (f *failureCounter) Count() int64 { return f.n.Load() }
