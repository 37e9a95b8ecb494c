// Package cli provides the command-line interface for pdfmerge.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rescale/pdfmerge/internal/config"
	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/logging"
)

var (
	// Global flags
	cfgFile string
	baseURL string
	verbose bool
	debug   bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// Version information - set by main package at startup
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// annotationLogMode selects the logger mode of a command: "cli" (stdout),
// "tui" or "gui" (stderr).
const annotationLogMode = "logmode"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   constants.AppName,
		Short: "PDF Merge - collect PDF files and merge them through a merge service",
		Long: `PDF Merge ` + Version + ` - Built: ` + BuildTime + `
Client for a PDF merge service. Files are uploaded into a server-side
session, merged in upload order, and the merged document is stored locally,
in S3 or in Azure Blob Storage.

Front ends:
  merge   one-shot upload and merge
  watch   headless drop folder
  tui     terminal interface
  gui     desktop interface with drag-and-drop`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initLogger(cmd)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "Merge service base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pdfmerge.

QUICK TEST (temporary, current session only):
  source <(pdfmerge completion bash)
  source <(pdfmerge completion zsh)
  pdfmerge completion fish | source`,
	}
	rootCmd.AddCommand(completionCmd)

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate PowerShell completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenPowerShellCompletion(cmd.OutOrStdout())
		},
	})

	// Disable default completion command (we're adding our own above)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// initLogger builds the global logger from the command's mode, the config
// file's [logging] section and the verbosity flags. A config that fails to
// load is reported later by the command that needs it.
func initLogger(cmd *cobra.Command) {
	mode := "cli"
	if m, ok := cmd.Annotations[annotationLogMode]; ok {
		mode = m
	}

	var opts logging.Options
	level := ""
	if cfg, err := loadConfig(); err == nil {
		opts.File = cfg.Logging.File
		level = cfg.Logging.Level
	}

	if logger != nil {
		logger.Close()
	}
	logger = logging.NewLogger(mode, opts)

	switch {
	case verbose || debug:
		logging.SetGlobalLevel(zerolog.DebugLevel)
	case level != "":
		lvl, err := logging.ParseLevel(level)
		if err != nil {
			logger.Warn().Str("level", level).Msg("Unknown log level in config, using info")
			lvl = zerolog.InfoLevel
		}
		logging.SetGlobalLevel(lvl)
	}
}

// Execute runs the CLI.
func Execute() error {
	return ExecuteWith(os.Args[1:], os.Stdout, os.Stderr)
}

// ExecuteWith runs the CLI with explicit arguments and output streams.
func ExecuteWith(args []string, stdout, stderr io.Writer) error {
	// Create a context that can be cancelled by signals
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Loop to handle repeated signals (Ctrl+C pressed more than once)
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(stderr, "\n\nReceived signal %v, cancelling operations...\n", sig)
				fmt.Fprintf(stderr, "   Please wait for cleanup to complete.\n\n")
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(rootContext)

	// Clean up signal handler
	signal.Stop(sigChan)
	close(sigChan)

	if logger != nil {
		logger.Close()
	}
	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newTUICmd())
	rootCmd.AddCommand(newGUICmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		// Fallback to background context if called before Execute()
		return context.Background()
	}
	return rootContext
}

// configPath returns --config or the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file and applies the --url override.
func loadConfig() (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (built %s)\n", constants.AppName, Version, BuildTime)
			return nil
		},
	}
}
