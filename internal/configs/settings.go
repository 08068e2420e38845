package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

type Settings struct {
	HomeDir    string
	ConfigPath string
	RootDir    string
}

// DefaultSettings returns the default file locations for the current user.
func DefaultSettings() (*Settings, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error getting home directory: %w", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error getting config directory: %w", err)
	}

	return &Settings{
		HomeDir:    homeDir,
		ConfigPath: filepath.Join(configDir, "credo", "config.toml"),
		RootDir:    filepath.Join(homeDir, ".credo"),
	}, nil
}

// ExpandHome replaces a leading ~ with the given home directory.
func ExpandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator) {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
