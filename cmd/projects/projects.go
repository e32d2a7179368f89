package projects

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/neilberkman/ccsearch/cmd/root"
	"github.com/neilberkman/ccsearch/internal/rendering"
)

var format string

// ProjectsCmd lists project directories
var ProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects with conversation logs",
	Long: `List every project directory under the projects root, most recently active first.

Examples:
  ccsearch projects
  ccsearch projects --format id | xargs -n1 ccsearch stats`,
	Args: cobra.NoArgs,
	RunE: runProjects,
}

func init() {
	ProjectsCmd.Flags().StringVarP(&format, "format", "f", root.FormatTable, "output format (table/json/id)")
}

func runProjects(cmd *cobra.Command, args []string) error {
	if err := root.CheckFormat(format, root.FormatTable, root.FormatJSON, root.FormatID); err != nil {
		return err
	}

	a, err := root.OpenApp()
	if err != nil {
		return err
	}
	defer root.CloseApp(a)

	projects, err := a.Service.ListProjects(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case root.FormatJSON:
		return root.PrintJSON(out, projects)
	case root.FormatID:
		for _, p := range projects {
			fmt.Fprintln(out, p.ID)
		}
		return nil
	}

	if len(projects) == 0 {
		fmt.Fprintf(out, "No projects found under %s\n", a.Config.Projects.Root)
		return nil
	}

	w := root.NewTable(out)
	fmt.Fprintln(w, "Project\tConversations\tLast Active\tID")
	fmt.Fprintln(w, "-------\t-------------\t-----------\t--")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			root.Truncate(p.Name, 60),
			humanize.Comma(int64(p.ConversationCount)),
			root.Ago(p.LastModified),
			// links change the byte width, so only the last column carries one
			rendering.FileLink(p.ID, p.Path))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
