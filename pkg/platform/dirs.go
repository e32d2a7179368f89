package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

type Dirs struct {
	Config string
	Data   string
	Cache  string
}

// GetAppDirs resolves and creates the per-user directories for appName,
// following the XDG base directory layout on Linux and the platform
// conventions elsewhere.
func GetAppDirs(appName string) (*Dirs, error) {
	// pick up XDG_* changes made after process start
	xdg.Reload()

	dirs := Dirs{
		Config: filepath.Join(xdg.ConfigHome, appName),
		Data:   filepath.Join(xdg.DataHome, appName),
		Cache:  filepath.Join(xdg.CacheHome, appName),
	}

	// Ensure directories exist
	for _, dir := range []string{dirs.Config, dirs.Data, dirs.Cache} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return &dirs, nil
}

// DefaultProjectsRoot returns the directory holding one subdirectory of
// conversation logs per project. CLAUDE_CONFIG_DIR relocates it.
func DefaultProjectsRoot() (string, error) {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "projects"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "projects"), nil
}
