package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/rescale/pdfmerge/internal/tui"
)

// newTUICmd creates the 'tui' command.
func newTUICmd() *cobra.Command {
	var output string
	var dropDir string
	var dropPaused bool

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal interface",
		Long: `Open the terminal interface. Files are added with 'a' (paths or glob
patterns), removed with 'x', merged with 'm' and cleared with 'c'.

With --drop, files copied into DIR are handled like files dropped onto the
window: non-PDFs are skipped with a warning. 'd' pauses and resumes the folder.

Console logging is off while the interface is shown; set [logging] file in
the config to keep a log.`,
		Annotations: map[string]string{annotationLogMode: "tui"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := GetLogger()
			confirmer := tui.NewConfirmer()
			s, err := openSession(cmd.Context(), cfg, sessionOptions{Output: output, Confirmer: confirmer}, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.core.Start(cmd.Context()); err != nil {
				return err
			}

			// Console lines would tear the alternate screen
			prev := logger.Output()
			logger.SetOutput(io.Discard)
			defer logger.SetOutput(prev)

			return tui.Run(cmd.Context(), tui.Options{
				Core:       s.core,
				Ingress:    s.ingress,
				EventBus:   s.bus,
				Confirmer:  confirmer,
				Logger:     logger,
				DropDir:    dropDir,
				DropPaused: dropPaused,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination directory, s3://bucket/prefix or azblob://container/prefix")
	cmd.Flags().StringVar(&dropDir, "drop", "", "Watch DIR as a drop target")
	cmd.Flags().BoolVar(&dropPaused, "drop-paused", false, "Start with the drop folder paused")

	return cmd
}
