package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neilberkman/ccsearch/cmd/root"
	"github.com/neilberkman/ccsearch/internal/config"
)

// ConfigCmd groups configuration helpers
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or write the configuration file",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to config.yaml",
	Long: `Write the current settings, defaults included, to config.yaml in the
platform config directory so they can be edited.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.SaveDefaults()
		if err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs := config.GetDirs()
		return root.PrintJSON(cmd.OutOrStdout(), map[string]any{
			"config":      config.Get(),
			"config_dir":  dirs.Config,
			"cache_dir":   dirs.Cache,
			"data_dir":    dirs.Data,
			"config_file": config.File(),
		})
	},
}

func init() {
	ConfigCmd.AddCommand(initCmd, showCmd)
}
