package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rescale/pdfmerge/internal/config"
	"github.com/rescale/pdfmerge/internal/constants"
)

// TestConfigCmd tests the config command group
func TestConfigCmd(t *testing.T) {
	cmd := newConfigCmd()
	if cmd.Use != "config" {
		t.Errorf("Expected Use='config', got '%s'", cmd.Use)
	}

	expectedSubs := []string{"init", "show", "path"}
	subcommands := cmd.Commands()
	if len(subcommands) != len(expectedSubs) {
		t.Errorf("Expected %d subcommands, got %d", len(expectedSubs), len(subcommands))
	}

	foundSubs := make(map[string]bool)
	for _, sub := range subcommands {
		foundSubs[sub.Name()] = true
		if sub.Short == "" {
			t.Errorf("Subcommand '%s' has no short description", sub.Name())
		}
	}
	for _, expected := range expectedSubs {
		if !foundSubs[expected] {
			t.Errorf("Subcommand '%s' not found", expected)
		}
	}
}

// TestConfigInit tests the config init command structure
func TestConfigInit(t *testing.T) {
	cmd := newConfigInitCmd()
	if cmd.RunE == nil {
		t.Error("RunE function is nil")
	}
	if cmd.Flags().Lookup("force") == nil {
		t.Error("--force flag not found")
	}
}

// TestPromptConfigDefaults accepts every default
func TestPromptConfigDefaults(t *testing.T) {
	var out bytes.Buffer
	cfg, err := promptConfig(strings.NewReader("\n\n\n\n"), &out)
	if err != nil {
		t.Fatalf("promptConfig() error = %v", err)
	}

	if cfg.Server.BaseURL != constants.DefaultURL {
		t.Errorf("BaseURL = %q, want %q", cfg.Server.BaseURL, constants.DefaultURL)
	}
	if cfg.Output.Destination != "." {
		t.Errorf("Destination = %q, want %q", cfg.Output.Destination, ".")
	}
	if cfg.Notifications.Desktop {
		t.Error("Desktop notifications should default to off")
	}
	if cfg.Proxy.Mode != "no-proxy" {
		t.Errorf("Proxy mode = %q, want no-proxy", cfg.Proxy.Mode)
	}
}

// TestPromptConfigS3 asks the S3 fields for an s3:// destination
func TestPromptConfigS3(t *testing.T) {
	answers := strings.Join([]string{
		"http://merge.example.com:5000",
		"s3://reports/merged",
		"eu-west-1",
		"http://localhost:9000",
		"minio",
		"y",
		"n",
	}, "\n") + "\n"

	var out bytes.Buffer
	cfg, err := promptConfig(strings.NewReader(answers), &out)
	if err != nil {
		t.Fatalf("promptConfig() error = %v", err)
	}

	if cfg.Server.BaseURL != "http://merge.example.com:5000" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Output.S3Region != "eu-west-1" || cfg.Output.S3Endpoint != "http://localhost:9000" || cfg.Output.S3AccessKeyID != "minio" {
		t.Errorf("unexpected S3 settings: %+v", cfg.Output)
	}
	if !cfg.Notifications.Desktop {
		t.Error("Desktop notifications should be on")
	}
	if !strings.Contains(out.String(), "S3 region") {
		t.Error("S3 questions were not asked")
	}
}

// TestPromptConfigInvalidURL rejects a relative server URL
func TestPromptConfigInvalidURL(t *testing.T) {
	var out bytes.Buffer
	if _, err := promptConfig(strings.NewReader("not-a-url\n\n\n\n"), &out); err == nil {
		t.Error("expected an error for a relative base URL")
	}
}

// TestWriteConfigMasksSecrets checks that secrets never reach the output
func TestWriteConfigMasksSecrets(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Proxy.Mode = "basic"
	cfg.Proxy.Host = "proxy.example.com"
	cfg.Proxy.Port = 3128
	cfg.Proxy.Password = "hunter2"
	cfg.Output.S3AccessKeyID = "AKIA"
	cfg.Output.S3SecretAccessKey = "s3-secret"
	cfg.Output.AzureAccountURL = "https://acct.blob.core.windows.net/?sv=2024&sig=abc"

	var out bytes.Buffer
	writeConfig(&out, "/tmp/config", cfg)
	got := out.String()

	for _, secret := range []string{"hunter2", "s3-secret", "sig=abc"} {
		if strings.Contains(got, secret) {
			t.Errorf("output leaks %q", secret)
		}
	}
	for _, want := range []string{"proxy.example.com:3128", "AKIA", "https://acct.blob.core.windows.net/?<redacted>"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMask(t *testing.T) {
	if got := mask(""); got != "(not set)" {
		t.Errorf("mask(\"\") = %q", got)
	}
	if got := mask("x"); got != "********" {
		t.Errorf("mask(\"x\") = %q", got)
	}
	if got := maskQuery("https://a.example.com/c"); got != "https://a.example.com/c" {
		t.Errorf("maskQuery without query = %q", got)
	}
}

// TestConfigInitAndPath runs init and path end to end
func TestConfigInitAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	var stdout, stderr bytes.Buffer
	if err := ExecuteWith([]string{"config", "path", "-c", path}, &stdout, &stderr); err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != path {
		t.Errorf("config path printed %q, want %q", stdout.String(), path)
	}

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	rootCmd.SetArgs([]string{"config", "init", "-c", path})
	rootCmd.SetIn(strings.NewReader("http://localhost:5050\n\n\n\n"))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file was not created: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:5050" {
		t.Errorf("saved BaseURL = %q", cfg.Server.BaseURL)
	}
}
