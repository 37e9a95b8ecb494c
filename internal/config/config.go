package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/rescale/pdfmerge/internal/constants"
)

// Config is the client configuration, loaded from an INI file.
//
// INI format:
//
//	[server]
//	base_url = http://localhost:5000
//
//	[client]
//	request_timeout_seconds = 0
//	retry_max = 0
//	merge_clear_delay_ms = 1000
//	toast_lifetime_ms = 5000
//	discard_stale_responses = false
//
//	[proxy]
//	mode = no-proxy
//	host = proxy.example.com
//	port = 8080
//	user = jdoe
//	no_proxy = localhost,127.0.0.1
//
//	[output]
//	destination = ~/Downloads
//	s3_region = us-east-1
//	s3_endpoint = http://localhost:9000
//	s3_access_key_id = minio
//	azure_account_url = https://acct.blob.core.windows.net/?sv=...
//
//	[notifications]
//	desktop = false
//
//	[logging]
//	level = info
//	file = /var/log/pdfmerge.log
type Config struct {
	Server        ServerConfig
	Client        ClientConfig
	Proxy         ProxyConfig
	Output        OutputConfig
	Notifications NotificationConfig
	Logging       LoggingConfig
}

// ServerConfig locates the merge service.
type ServerConfig struct {
	BaseURL string
}

// ClientConfig tunes the orchestration layer.
type ClientConfig struct {
	// RequestTimeout bounds each HTTP round-trip. Zero leaves it to the transport.
	RequestTimeout time.Duration

	// RetryMax is handed to the retrying HTTP client. Zero disables retries.
	RetryMax int

	// MergeClearDelay is the grace period between download and automatic clear.
	MergeClearDelay time.Duration

	// ToastLifetime is how long a notification stays visible.
	ToastLifetime time.Duration

	// DiscardStaleResponses drops collection updates that arrive after a
	// newer request's response has already been applied.
	DiscardStaleResponses bool
}

// ProxyConfig describes an outbound HTTP proxy.
type ProxyConfig struct {
	Mode     string // "no-proxy", "system", "basic", "ntlm"
	Host     string
	Port     int
	User     string
	Password string // never persisted; from env or interactive prompt
	NoProxy  string // comma-separated bypass list
	Warmup   bool
}

// OutputConfig selects where merged documents are written.
type OutputConfig struct {
	// Destination is a local directory, s3://bucket/prefix or azblob://container/prefix.
	Destination string
	S3Region    string

	// S3Endpoint overrides the AWS endpoint, e.g. for MinIO. Path-style addressing is used when set.
	S3Endpoint string

	// Static S3 credentials. When S3AccessKeyID is empty the default AWS chain is used.
	S3AccessKeyID     string
	S3SecretAccessKey string // never persisted; from env

	AzureAccountURL string
}

// NotificationConfig contains settings for desktop notifications.
type NotificationConfig struct {
	// Desktop mirrors warning and error toasts to OS notifications.
	Desktop bool
}

// LoggingConfig controls log verbosity and optional file output.
type LoggingConfig struct {
	Level string
	File  string
}

// Validation errors
var (
	ErrMissingBaseURL   = errors.New("server base_url is required")
	ErrInvalidBaseURL   = errors.New("server base_url must be an absolute http(s) URL")
	ErrInvalidProxyMode = errors.New("proxy mode must be one of no-proxy, system, basic, ntlm")
	ErrMissingProxyHost = errors.New("proxy host is required for basic and ntlm modes")
	ErrNegativeDuration = errors.New("client durations must not be negative")
	ErrNegativeRetryMax = errors.New("client retry_max must not be negative")
)

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: constants.DefaultURL,
		},
		Client: ClientConfig{
			MergeClearDelay: constants.MergeClearDelay,
			ToastLifetime:   constants.ToastLifetime,
		},
		Proxy: ProxyConfig{
			Mode: "no-proxy",
		},
		Output: OutputConfig{
			Destination: ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			cfg.applyEnv()
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyEnv()
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	server := iniFile.Section("server")
	cfg.Server.BaseURL = server.Key("base_url").MustString(cfg.Server.BaseURL)

	client := iniFile.Section("client")
	cfg.Client.RequestTimeout = time.Duration(client.Key("request_timeout_seconds").MustInt(0)) * time.Second
	cfg.Client.RetryMax = client.Key("retry_max").MustInt(0)
	cfg.Client.MergeClearDelay = time.Duration(client.Key("merge_clear_delay_ms").MustInt64(cfg.Client.MergeClearDelay.Milliseconds())) * time.Millisecond
	cfg.Client.ToastLifetime = time.Duration(client.Key("toast_lifetime_ms").MustInt64(cfg.Client.ToastLifetime.Milliseconds())) * time.Millisecond
	cfg.Client.DiscardStaleResponses = client.Key("discard_stale_responses").MustBool(false)

	proxy := iniFile.Section("proxy")
	cfg.Proxy.Mode = strings.ToLower(proxy.Key("mode").MustString(cfg.Proxy.Mode))
	cfg.Proxy.Host = proxy.Key("host").String()
	cfg.Proxy.Port = proxy.Key("port").MustInt(0)
	cfg.Proxy.User = proxy.Key("user").String()
	cfg.Proxy.NoProxy = proxy.Key("no_proxy").String()
	cfg.Proxy.Warmup = proxy.Key("warmup").MustBool(false)

	output := iniFile.Section("output")
	cfg.Output.Destination = output.Key("destination").MustString(cfg.Output.Destination)
	cfg.Output.S3Region = output.Key("s3_region").String()
	cfg.Output.S3Endpoint = output.Key("s3_endpoint").String()
	cfg.Output.S3AccessKeyID = output.Key("s3_access_key_id").String()
	cfg.Output.AzureAccountURL = output.Key("azure_account_url").String()

	cfg.Notifications.Desktop = iniFile.Section("notifications").Key("desktop").MustBool(false)

	logging := iniFile.Section("logging")
	cfg.Logging.Level = logging.Key("level").MustString(cfg.Logging.Level)
	cfg.Logging.File = logging.Key("file").String()

	cfg.applyEnv()
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv(constants.EnvBaseURL); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv(constants.EnvProxyPwd); v != "" {
		cfg.Proxy.Password = v
	}
	if v := os.Getenv(constants.EnvS3Secret); v != "" {
		cfg.Output.S3SecretAccessKey = v
	}
}

// SaveConfig saves configuration to an INI file.
// The proxy password is never written.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	sections := []struct {
		name string
		keys [][2]string
	}{
		{"server", [][2]string{
			{"base_url", cfg.Server.BaseURL},
		}},
		{"client", [][2]string{
			{"request_timeout_seconds", fmt.Sprintf("%d", int(cfg.Client.RequestTimeout/time.Second))},
			{"retry_max", fmt.Sprintf("%d", cfg.Client.RetryMax)},
			{"merge_clear_delay_ms", fmt.Sprintf("%d", cfg.Client.MergeClearDelay.Milliseconds())},
			{"toast_lifetime_ms", fmt.Sprintf("%d", cfg.Client.ToastLifetime.Milliseconds())},
			{"discard_stale_responses", fmt.Sprintf("%t", cfg.Client.DiscardStaleResponses)},
		}},
		{"proxy", [][2]string{
			{"mode", cfg.Proxy.Mode},
			{"host", cfg.Proxy.Host},
			{"port", fmt.Sprintf("%d", cfg.Proxy.Port)},
			{"user", cfg.Proxy.User},
			{"no_proxy", cfg.Proxy.NoProxy},
			{"warmup", fmt.Sprintf("%t", cfg.Proxy.Warmup)},
		}},
		{"output", [][2]string{
			{"destination", cfg.Output.Destination},
			{"s3_region", cfg.Output.S3Region},
			{"s3_endpoint", cfg.Output.S3Endpoint},
			{"s3_access_key_id", cfg.Output.S3AccessKeyID},
			{"azure_account_url", cfg.Output.AzureAccountURL},
		}},
		{"notifications", [][2]string{
			{"desktop", fmt.Sprintf("%t", cfg.Notifications.Desktop)},
		}},
		{"logging", [][2]string{
			{"level", cfg.Logging.Level},
			{"file", cfg.Logging.File},
		}},
	}

	for _, s := range sections {
		section, err := iniFile.NewSection(s.name)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", s.name, err)
		}
		for _, kv := range s.keys {
			section.Key(kv[0]).SetValue(kv[1])
		}
	}

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks the configuration. Returns nil if valid.
func (cfg *Config) Validate() error {
	base := strings.TrimSpace(cfg.Server.BaseURL)
	if base == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	switch cfg.Proxy.Mode {
	case "", "no-proxy", "system":
	case "basic", "ntlm":
		if strings.TrimSpace(cfg.Proxy.Host) == "" {
			return ErrMissingProxyHost
		}
	default:
		return ErrInvalidProxyMode
	}

	if cfg.Client.RequestTimeout < 0 || cfg.Client.MergeClearDelay < 0 || cfg.Client.ToastLifetime < 0 {
		return ErrNegativeDuration
	}
	if cfg.Client.RetryMax < 0 {
		return ErrNegativeRetryMax
	}

	return nil
}

// NeedsProxyPassword returns true if the proxy configuration requires a password
// but one has not been provided.
func (cfg *Config) NeedsProxyPassword() bool {
	mode := strings.ToLower(cfg.Proxy.Mode)
	if mode != "basic" && mode != "ntlm" {
		return false
	}
	return cfg.Proxy.User != "" && cfg.Proxy.Password == ""
}
