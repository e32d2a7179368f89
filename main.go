package main

import (
	configcmd "github.com/neilberkman/ccsearch/cmd/config"
	"github.com/neilberkman/ccsearch/cmd/list"
	"github.com/neilberkman/ccsearch/cmd/projects"
	"github.com/neilberkman/ccsearch/cmd/recent"
	"github.com/neilberkman/ccsearch/cmd/root"
	"github.com/neilberkman/ccsearch/cmd/search"
	"github.com/neilberkman/ccsearch/cmd/serve"
	"github.com/neilberkman/ccsearch/cmd/stats"
	"github.com/neilberkman/ccsearch/cmd/view"
)

// Version information, set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Set version information
	root.Version = version
	root.Commit = commit
	root.Date = date
	root.RootCmd.Version = version

	// Add subcommands
	root.RootCmd.AddCommand(projects.ProjectsCmd)
	root.RootCmd.AddCommand(list.ListCmd)
	root.RootCmd.AddCommand(recent.RecentCmd)
	root.RootCmd.AddCommand(search.SearchCmd)
	root.RootCmd.AddCommand(view.ViewCmd)
	root.RootCmd.AddCommand(stats.StatsCmd)
	root.RootCmd.AddCommand(serve.ServeCmd)
	root.RootCmd.AddCommand(configcmd.ConfigCmd)

	// Execute
	root.Execute()
}
