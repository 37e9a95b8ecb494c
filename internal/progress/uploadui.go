package progress

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/rescale/pdfmerge/internal/models"
)

// UploadUI renders one mpb bar per file of a multipart upload request.
type UploadUI struct {
	progress   *mpb.Progress
	out        io.Writer
	bars       []*FileBar
	isTerminal bool
	totalFiles int
	started    int32 // Atomic counter for file index (1, 2, 3, ...)
	mu         sync.Mutex
}

// FileBar represents a single file upload progress bar
type FileBar struct {
	bar       *mpb.Bar
	ui        *UploadUI
	index     int
	name      string
	size      int64
	sent      int64
	startTime time.Time
	done      int32
}

// NewUploadUI creates a new upload UI with the given number of total files
func NewUploadUI(totalFiles int) *UploadUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	return newUploadUI(totalFiles, os.Stderr, isTerminal)
}

func newUploadUI(totalFiles int, out io.Writer, isTerminal bool) *UploadUI {
	var p *mpb.Progress
	if isTerminal {
		// Enable ANSI escape sequences on Windows for proper progress bar rendering
		if f, ok := out.(*os.File); ok {
			enableANSIOnWindows(f)
		}

		p = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(150*time.Millisecond),
			mpb.WithWidth(80),
		)
	}

	return &UploadUI{
		progress:   p,
		out:        out,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
	}
}

// AddFileBar creates a new progress bar for a file upload
func (u *UploadUI) AddFileBar(name string, size int64) *FileBar {
	index := int(atomic.AddInt32(&u.started, 1))

	fb := &FileBar{
		ui:        u,
		index:     index,
		name:      name,
		size:      size,
		startTime: time.Now(),
	}

	if u.isTerminal {
		fb.bar = u.progress.New(size,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("[%d/%d] %s", index, u.totalFiles, name), decor.WCSyncSpaceR),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(u.out, "Uploading [%d/%d]: %s (%.1f MiB)\n",
			index, u.totalFiles, name, float64(size)/(1024*1024))
	}

	u.mu.Lock()
	u.bars = append(u.bars, fb)
	u.mu.Unlock()
	return fb
}

// Wrap implements UploadTracker.
func (u *UploadUI) Wrap(c models.Candidate, r io.Reader) io.Reader {
	return &barReader{reader: r, bar: u.AddFileBar(c.Name, c.Size)}
}

type barReader struct {
	reader io.Reader
	bar    *FileBar
}

func (br *barReader) Read(p []byte) (int, error) {
	n, err := br.reader.Read(p)
	if n > 0 {
		br.bar.Add(int64(n))
	}
	if errors.Is(err, io.EOF) {
		br.bar.Complete(nil)
	}
	return n, err
}

// Add records n more bytes sent.
func (f *FileBar) Add(n int64) {
	atomic.AddInt64(&f.sent, n)
	if f.bar != nil {
		f.bar.IncrInt64(n)
	}
}

// Complete marks the file as finished. Later calls are ignored.
func (f *FileBar) Complete(err error) {
	if !atomic.CompareAndSwapInt32(&f.done, 0, 1) {
		return
	}

	sent := atomic.LoadInt64(&f.sent)
	elapsed := time.Since(f.startTime)

	var msg string
	if err == nil {
		if f.bar != nil {
			f.bar.SetTotal(sent, true)
		}
		msg = fmt.Sprintf("✓ %s (%.1f MiB, %s)\n", f.name, float64(sent)/(1024*1024), elapsed.Round(time.Millisecond))
	} else {
		if f.bar != nil {
			f.bar.Abort(false)
		}
		msg = fmt.Sprintf("✗ %s: %v\n", f.name, err)
	}

	_, _ = f.ui.Writer().Write([]byte(msg))
}

// Finish completes every bar still open and waits for rendering to settle.
func (u *UploadUI) Finish(err error) {
	u.mu.Lock()
	bars := append([]*FileBar(nil), u.bars...)
	u.mu.Unlock()

	for _, b := range bars {
		b.Complete(err)
	}
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Writer returns an io.Writer that safely prints above the progress bars
func (u *UploadUI) Writer() io.Writer {
	if u.progress != nil && u.isTerminal {
		return u.progress
	}
	return u.out
}

// IsTerminal returns true if output is to a terminal (progress bars are active).
func (u *UploadUI) IsTerminal() bool {
	return u.isTerminal
}

// enableANSIOnWindows enables Virtual Terminal processing on Windows for ANSI escape sequences
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
