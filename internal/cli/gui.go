package cli

import (
	"github.com/spf13/cobra"

	"github.com/rescale/pdfmerge/internal/gui"
)

// newGUICmd creates the 'gui' command.
func newGUICmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "gui",
		Short: "Desktop interface with drag-and-drop",
		Long: `Open the desktop window. Drop PDF files onto it or use Browse; merged
documents are stored at the output destination. Started without arguments
on a machine with a display, pdfmerge opens this window.`,
		Annotations: map[string]string{annotationLogMode: "gui"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !gui.HasDisplay() {
				return gui.ErrNoDisplay
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := GetLogger()
			confirmer := gui.NewConfirmer()
			s, err := openSession(cmd.Context(), cfg, sessionOptions{Output: output, Confirmer: confirmer}, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.core.Start(cmd.Context()); err != nil {
				return err
			}

			return gui.Run(cmd.Context(), gui.Options{
				Core:      s.core,
				Ingress:   s.ingress,
				EventBus:  s.bus,
				Confirmer: confirmer,
				Logger:    logger,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination directory, s3://bucket/prefix or azblob://container/prefix")

	return cmd
}
