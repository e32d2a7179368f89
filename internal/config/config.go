package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/neilberkman/ccsearch/internal/logging"
	"github.com/neilberkman/ccsearch/pkg/platform"
)

// AppName names the per-user config, data and cache directories.
const AppName = "ccsearch"

// EnvPrefix prefixes environment overrides, e.g. CCSEARCH_PROJECTS_ROOT.
const EnvPrefix = "CCSEARCH"

type Config struct {
	Projects struct {
		Root string `mapstructure:"root"`
	} `mapstructure:"projects"`

	Cache struct {
		TTL          time.Duration `mapstructure:"ttl"`
		MaxEntries   int           `mapstructure:"max_entries"`
		Snapshots    bool          `mapstructure:"snapshots"`
		SnapshotPath string        `mapstructure:"snapshot_path"`
	} `mapstructure:"cache"`

	Search struct {
		MaxResults    int    `mapstructure:"max_results"`
		PreviewLength int    `mapstructure:"preview_length"`
		DefaultMode   string `mapstructure:"default_mode"`
		Workers       int    `mapstructure:"workers"`
	} `mapstructure:"search"`

	Log logging.Config `mapstructure:"log"`

	Server struct {
		Addr  string `mapstructure:"addr"`
		Watch bool   `mapstructure:"watch"`
	} `mapstructure:"server"`
}

var (
	cfg  *Config
	dirs *platform.Dirs
)

// Init loads configuration from defaults, the config file and CCSEARCH_*
// environment variables, in increasing priority. Flags bound to viper before
// Init override all three. An empty cfgFile selects config.yaml in the
// platform config directory, which may be absent.
func Init(cfgFile string) error {
	// Get platform-specific directories
	appDirs, err := platform.GetAppDirs(AppName)
	if err != nil {
		return fmt.Errorf("failed to get app directories: %w", err)
	}
	dirs = appDirs

	// Set up Viper
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	explicit := cfgFile != ""
	if !explicit {
		cfgFile = filepath.Join(dirs.Config, "config.yaml")
	}
	viper.SetConfigFile(cfgFile)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		// It's OK if the default config file doesn't exist
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Unmarshal config
	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Projects.Root == "" {
		root, err := platform.DefaultProjectsRoot()
		if err != nil {
			return err
		}
		cfg.Projects.Root = root
	}
	cfg.Projects.Root = expandHome(cfg.Projects.Root)

	// Ensure snapshot path is set
	if cfg.Cache.SnapshotPath == "" {
		cfg.Cache.SnapshotPath = filepath.Join(dirs.Cache, "stats.db")
	}
	if cfg.Search.Workers <= 0 {
		cfg.Search.Workers = runtime.NumCPU()
	}

	return nil
}

func setDefaults() {
	// Projects defaults
	viper.SetDefault("projects.root", "")

	// Cache defaults
	viper.SetDefault("cache.ttl", 5*time.Minute)
	viper.SetDefault("cache.max_entries", 64)
	viper.SetDefault("cache.snapshots", true)
	viper.SetDefault("cache.snapshot_path", "")

	// Search defaults
	viper.SetDefault("search.max_results", 50)
	viper.SetDefault("search.preview_length", 160)
	viper.SetDefault("search.default_mode", "partial")
	viper.SetDefault("search.workers", 0)

	// Log defaults
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "console")

	// Server defaults
	viper.SetDefault("server.addr", "127.0.0.1:8787")
	viper.SetDefault("server.watch", true)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

func GetDirs() *platform.Dirs {
	if dirs == nil {
		panic("config not initialized")
	}
	return dirs
}

// SaveDefaults writes the effective configuration to config.yaml in the
// platform config directory and returns the path written.
func SaveDefaults() (string, error) {
	configPath := filepath.Join(GetDirs().Config, "config.yaml")
	if err := viper.WriteConfigAs(configPath); err != nil {
		return "", err
	}
	return configPath, nil
}

// File returns the config file Init selected, whether or not it exists.
func File() string {
	return viper.ConfigFileUsed()
}
