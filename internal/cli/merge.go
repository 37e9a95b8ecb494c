package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rescale/pdfmerge/internal/core"
	"github.com/rescale/pdfmerge/internal/ingress"
	"github.com/rescale/pdfmerge/internal/notify"
)

// newMergeCmd creates the 'merge' command.
func newMergeCmd() *cobra.Command {
	var output string
	var yes bool

	cmd := &cobra.Command{
		Use:   "merge FILE [FILE...]",
		Short: "Upload PDF files, merge them and store the result",
		Long: `Upload the given files in one request, merge them in upload order and
store merged_document.pdf at the output destination.

Files that are not PDFs are skipped with a warning, as if they had been
dropped onto the window. When a later step fails the uploaded files are
cleared from the server after confirmation; --yes skips the question.

Examples:
  pdfmerge merge a.pdf b.pdf
  pdfmerge merge *.pdf -o ~/Documents
  pdfmerge merge a.pdf b.pdf -o s3://reports/merged
  pdfmerge merge a.pdf b.pdf -o azblob://merged/2024`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := GetLogger()
			opts := sessionOptions{
				Output: output,
				Bars:   true,
				Sinks:  []notify.Sink{notify.NewLogSink(logger)},
			}
			if !yes {
				opts.Confirmer = newLineInput(cmd.InOrStdin(), cmd.ErrOrStderr())
			}

			s, err := openSession(cmd.Context(), cfg, opts, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			location, err := runMerge(cmd.Context(), s, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return s.Err()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination directory, s3://bucket/prefix or azblob://container/prefix")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Clear uploaded files after a failure without asking")

	return cmd
}

// runMerge performs open, upload, merge and the delayed clear for one set
// of paths. It returns where the merged document was stored.
func runMerge(ctx context.Context, s *session, paths []string) (string, error) {
	expanded, err := ingress.ExpandPatterns(paths)
	if err != nil {
		return "", err
	}
	files, err := ingress.LocalCandidates(expanded)
	if err != nil {
		return "", err
	}

	if err := s.core.Start(ctx); err != nil {
		return "", err
	}

	if err := s.ingress.Drop(ctx, files); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	location, err := s.core.Merge(ctx)
	if err != nil {
		if s.core.Store().Len() > 0 {
			// Leave nothing behind on the server
			if clearErr := s.core.ClearAll(context.WithoutCancel(ctx)); clearErr != nil {
				s.logger.Debug().Err(clearErr).Msg("Cleanup after failed merge did not complete")
			}
		}
		return "", fmt.Errorf("merge failed: %w", err)
	}

	// The collection is cleared after the grace delay; stay for it.
	s.core.Wait()
	return location, nil
}

// printView writes the rendered collection as a plain listing.
func printView(w io.Writer, c *core.Controller) {
	v := c.View()
	if v.Empty {
		fmt.Fprintf(w, "%s\n  %s\n", v.EmptyTitle, v.EmptyHint)
		return
	}
	fmt.Fprintf(w, "%d file(s):\n", v.Count)
	for i, row := range v.Rows {
		fmt.Fprintf(w, "  %2d. %-50s  %10s  [%s]\n", i+1, row.DisplayName, row.SizeLabel, row.StoredName)
	}
	merge := v.Merge.Label
	if !v.Merge.Enabled {
		merge += " (disabled)"
	}
	fmt.Fprintf(w, "  m: %s   c: %s\n", merge, v.Clear.Label)
}
