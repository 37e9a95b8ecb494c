package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rescale/pdfmerge/internal/cloud"
	"github.com/rescale/pdfmerge/internal/config"
	"github.com/rescale/pdfmerge/internal/constants"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pdfmerge configuration",
		Long: `Configuration management commands for pdfmerge.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for pdfmerge.

The configuration is saved to ~/.config/pdfmerge/config unless --config is given.

Use --force to overwrite an existing configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg, err := promptConfig(cmd.InOrStdin(), out)
			if err != nil {
				return err
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return err
			}

			GetLogger().Info().Str("path", path).Msg("Configuration saved")
			fmt.Fprintf(out, "\n✓ Configuration saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// promptConfig asks for the commonly changed settings. Empty answers keep
// the defaults.
func promptConfig(in io.Reader, out io.Writer) (*config.Config, error) {
	cfg := config.NewConfig()
	reader := bufio.NewReader(in)

	ask := func(label, def string) string {
		fmt.Fprintf(out, "%s [%s]: ", label, def)
		input, _ := reader.ReadString('\n')
		if input = strings.TrimSpace(input); input != "" {
			return input
		}
		return def
	}

	fmt.Fprintln(out, "PDF Merge Configuration Setup")
	fmt.Fprintln(out, "=============================")
	fmt.Fprintln(out)

	cfg.Server.BaseURL = ask("Merge service URL", cfg.Server.BaseURL)
	cfg.Output.Destination = ask("Output destination (directory, s3://bucket/prefix, azblob://container/prefix)", cfg.Output.Destination)

	dest, err := cloud.ParseDestination(cfg.Output.Destination)
	if err != nil {
		return nil, fmt.Errorf("invalid output destination: %w", err)
	}
	switch dest.Scheme {
	case cloud.SchemeS3:
		cfg.Output.S3Region = ask("S3 region", "us-east-1")
		cfg.Output.S3Endpoint = ask("S3 endpoint (empty for AWS)", "")
		cfg.Output.S3AccessKeyID = ask("S3 access key id (empty for the default AWS chain)", "")
	case cloud.SchemeAzure:
		cfg.Output.AzureAccountURL = ask("Azure account URL with SAS", "")
	}

	desktop := strings.ToLower(ask("Desktop notifications for warnings and errors? (y/n)", "n"))
	cfg.Notifications.Desktop = desktop == "y" || desktop == "yes"

	if strings.ToLower(ask("Configure proxy? (y/n)", "n")) == "y" {
		cfg.Proxy.Mode = ask("Proxy mode (no-proxy, system, basic, ntlm)", "system")
		if cfg.Proxy.Mode == "basic" || cfg.Proxy.Mode == "ntlm" {
			cfg.Proxy.Host = ask("Proxy host", "")
			var port int
			if _, err := fmt.Sscanf(ask("Proxy port", "8080"), "%d", &port); err == nil {
				cfg.Proxy.Port = port
			}
			cfg.Proxy.User = ask("Proxy user (password is asked at startup or read from "+constants.EnvProxyPwd+")", "")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the effective configuration.

Sources, highest priority first:
  1. Command-line flags (--url)
  2. Environment variables (` + constants.EnvBaseURL + `, ` + constants.EnvProxyPwd + `, ` + constants.EnvS3Secret + `)
  3. Configuration file
  4. Defaults`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path, _ := configPath()
			writeConfig(cmd.OutOrStdout(), path, cfg)

			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\n⚠ %v\n", err)
			}
			return nil
		},
	}
}

// writeConfig prints the configuration with secrets masked.
func writeConfig(w io.Writer, path string, cfg *config.Config) {
	fmt.Fprintf(w, "Configuration file: %s\n\n", path)

	fmt.Fprintln(w, "[server]")
	fmt.Fprintf(w, "  base_url                = %s\n", cfg.Server.BaseURL)

	fmt.Fprintln(w, "[client]")
	fmt.Fprintf(w, "  request_timeout         = %s\n", cfg.Client.RequestTimeout)
	fmt.Fprintf(w, "  retry_max               = %d\n", cfg.Client.RetryMax)
	fmt.Fprintf(w, "  merge_clear_delay       = %s\n", cfg.Client.MergeClearDelay)
	fmt.Fprintf(w, "  toast_lifetime          = %s\n", cfg.Client.ToastLifetime)
	fmt.Fprintf(w, "  discard_stale_responses = %t\n", cfg.Client.DiscardStaleResponses)

	fmt.Fprintln(w, "[proxy]")
	fmt.Fprintf(w, "  mode                    = %s\n", cfg.Proxy.Mode)
	if cfg.Proxy.Host != "" {
		fmt.Fprintf(w, "  host                    = %s:%d\n", cfg.Proxy.Host, cfg.Proxy.Port)
		fmt.Fprintf(w, "  user                    = %s\n", cfg.Proxy.User)
		fmt.Fprintf(w, "  password                = %s\n", mask(cfg.Proxy.Password))
	}
	if cfg.Proxy.NoProxy != "" {
		fmt.Fprintf(w, "  no_proxy                = %s\n", cfg.Proxy.NoProxy)
	}

	fmt.Fprintln(w, "[output]")
	fmt.Fprintf(w, "  destination             = %s\n", cfg.Output.Destination)
	if cfg.Output.S3Region != "" || cfg.Output.S3Endpoint != "" || cfg.Output.S3AccessKeyID != "" {
		fmt.Fprintf(w, "  s3_region               = %s\n", cfg.Output.S3Region)
		fmt.Fprintf(w, "  s3_endpoint             = %s\n", cfg.Output.S3Endpoint)
		fmt.Fprintf(w, "  s3_access_key_id        = %s\n", cfg.Output.S3AccessKeyID)
		fmt.Fprintf(w, "  s3_secret_access_key    = %s\n", mask(cfg.Output.S3SecretAccessKey))
	}
	if cfg.Output.AzureAccountURL != "" {
		fmt.Fprintf(w, "  azure_account_url       = %s\n", maskQuery(cfg.Output.AzureAccountURL))
	}

	fmt.Fprintln(w, "[notifications]")
	fmt.Fprintf(w, "  desktop                 = %t\n", cfg.Notifications.Desktop)

	fmt.Fprintln(w, "[logging]")
	fmt.Fprintf(w, "  level                   = %s\n", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		fmt.Fprintf(w, "  file                    = %s\n", cfg.Logging.File)
	}
}

func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return "********"
}

// maskQuery hides a SAS token.
func maskQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i] + "?<redacted>"
	}
	return rawURL
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
