package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rescale/pdfmerge/internal/core"
	"github.com/rescale/pdfmerge/internal/ingress"
	"github.com/rescale/pdfmerge/internal/notify"
)

const watchHelp = "Commands: m = merge, c = clear, l = list, q = quit"

// newWatchCmd creates the 'watch' command.
func newWatchCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Upload PDF files as they appear in a drop folder",
		Long: `Watch a directory and upload every batch of new or changed files, as if
they had been dropped onto the window. PDF files already present are
uploaded on start.

` + watchHelp + `

Examples:
  pdfmerge watch ~/Inbox
  pdfmerge watch ./drop -o s3://reports/merged`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := GetLogger()
			input := newLineInput(cmd.InOrStdin(), cmd.ErrOrStderr())
			s, err := openSession(cmd.Context(), cfg, sessionOptions{
				Output:    output,
				Confirmer: input,
				Bars:      true,
				Sinks:     []notify.Sink{notify.NewLogSink(logger)},
			}, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.core.Start(cmd.Context()); err != nil {
				return err
			}

			return runWatch(cmd.Context(), s, args[0], input, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination directory, s3://bucket/prefix or azblob://container/prefix")

	return cmd
}

// runWatch runs the drop watcher and the stdin command loop until q, end of
// input or cancellation.
func runWatch(ctx context.Context, s *session, dir string, input *lineInput, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watcher := ingress.NewDropWatcher(dir, 0, s.ingress.Drop, s.logger)
	watchErr := make(chan error, 1)
	go func() { watchErr <- watcher.Run(ctx) }()

	fmt.Fprintln(out, watchHelp)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case line, ok := <-input.Lines():
			if !ok {
				return nil
			}
			if quit := runWatchCommand(ctx, s.core, line, out); quit {
				return nil
			}
		}
	}
}

// runWatchCommand executes one command line. Failures are already reported
// as toasts, so errors only go to the debug log.
func runWatchCommand(ctx context.Context, c *core.Controller, line string, out io.Writer) (quit bool) {
	switch strings.ToLower(line) {
	case "":
	case "m", "merge":
		if location, err := c.Merge(ctx); err == nil {
			fmt.Fprintf(out, "Merged PDF saved to %s\n", location)
		}
	case "c", "clear":
		_ = c.ClearAll(ctx)
	case "l", "ls", "list":
		printView(out, c)
	case "q", "quit", "exit":
		return true
	default:
		fmt.Fprintln(out, watchHelp)
	}
	return false
}
