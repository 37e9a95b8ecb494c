// Package config provides configuration management for pdfmerge.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rescale/pdfmerge/internal/constants"
)

// DefaultConfigPath returns the default path for the config file.
//   - Windows: %USERPROFILE%\.config\pdfmerge\config
//   - Unix: ~/.config/pdfmerge/config
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		configDir = filepath.Join(userProfile, ".config", constants.ConfigDir)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", constants.ConfigDir)
	}

	return filepath.Join(configDir, constants.ConfigFile), nil
}

// LogDirectory returns the directory used for rotated log files.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\pdfmerge\logs
//   - Unix: $XDG_CONFIG_HOME/pdfmerge/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "pdfmerge-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, constants.ConfigDir, "logs")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pdfmerge-logs")
	}
	return filepath.Join(configDir, constants.ConfigDir, "logs")
}
