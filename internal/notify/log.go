package notify

import (
	"github.com/rescale/pdfmerge/internal/logging"
	"github.com/rescale/pdfmerge/internal/models"
)

// LogSink prints toasts as log lines, for front ends without a toast area.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink creates a sink writing to logger.
func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Toast implements Sink.
func (s *LogSink) Toast(t models.Toast) {
	switch t.Severity {
	case models.SeverityError:
		s.logger.Error().Msg(t.Message)
	case models.SeverityWarning:
		s.logger.Warn().Msg(t.Message)
	default:
		s.logger.Info().Msg(t.Message)
	}
}
