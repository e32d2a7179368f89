package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/neilberkman/ccsearch/internal/app"
	"github.com/neilberkman/ccsearch/internal/config"
	"github.com/neilberkman/ccsearch/internal/logging"
)

var (
	cfgFile      string
	verbose      bool
	projectsRoot string

	logger *zap.Logger
)

var (
	// Version information - will be set by goreleaser
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// RootCmd represents the base command
var RootCmd = &cobra.Command{
	Use:   "ccsearch",
	Short: "Search your Claude Code conversation logs",
	Long: `ccsearch reads the JSONL conversation logs Claude Code keeps per project
and lets you list, view, search and summarise them without importing anything.

Quick start:
  ccsearch projects                    # Projects with conversation logs
  ccsearch list -Users-me-app          # Conversations in a project
  ccsearch search "database migration" # Search every project
  ccsearch stats -Users-me-app         # Usage statistics
  ccsearch serve                       # JSON API on 127.0.0.1:8787`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(cfgFile); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		logCfg := config.Get().Log
		if verbose {
			logCfg.Level = "debug"
		}
		l, err := logging.New(logCfg)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/ccsearch/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	RootCmd.PersistentFlags().StringVar(&projectsRoot, "projects-root", "", "directory holding Claude Code project logs (default ~/.claude/projects)")

	// Bind flags to viper
	if err := viper.BindPFlag("projects.root", RootCmd.PersistentFlags().Lookup("projects-root")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

// Logger returns the logger configured for the running command.
func Logger() *zap.Logger {
	return logging.OrNop(logger)
}

// OpenApp assembles the service from the loaded configuration. Callers must
// Close the returned app.
func OpenApp() (*app.App, error) {
	a, err := app.Open(config.Get(), Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to open ccsearch: %w", err)
	}
	return a, nil
}

// CloseApp closes a, reporting failures on stderr.
func CloseApp(a *app.App) {
	if err := a.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close snapshot database: %v\n", err)
	}
}
