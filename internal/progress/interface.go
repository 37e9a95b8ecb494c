package progress

import (
	"io"

	"github.com/rescale/pdfmerge/internal/models"
)

// UploadTracker follows the files of one upload request.
type UploadTracker interface {
	// Wrap decorates the body of one file; it matches api.ReaderWrapper.
	Wrap(c models.Candidate, r io.Reader) io.Reader

	// Finish marks every bar done (err == nil) or failed and waits for rendering.
	Finish(err error)

	// Writer returns an io.Writer that safely outputs above the progress bars.
	Writer() io.Writer

	// IsTerminal returns true if output is to a terminal (progress bars are active)
	IsTerminal() bool
}

// Chain returns a wrapper applying each wrapper in order. Nil entries are skipped.
func Chain(wrappers ...func(models.Candidate, io.Reader) io.Reader) func(models.Candidate, io.Reader) io.Reader {
	return func(c models.Candidate, r io.Reader) io.Reader {
		for _, w := range wrappers {
			if w != nil {
				r = w(c, r)
			}
		}
		return r
	}
}
