package list

import (
	"encoding/csv"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neilberkman/ccsearch/cmd/root"
)

var (
	limit  int
	format string
)

// ListCmd represents the list command
var ListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List conversations in a project",
	Long: `List the conversations of one project, most recently updated first.

Examples:
  ccsearch list -Users-me-app
  ccsearch list -Users-me-app --limit 10
  ccsearch list -Users-me-app --format id`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	ListCmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of conversations to show (0 for all)")
	ListCmd.Flags().StringVarP(&format, "format", "f", root.FormatTable, "output format (table/json/csv/id)")
}

func runList(cmd *cobra.Command, args []string) error {
	if err := root.CheckFormat(format, root.FormatTable, root.FormatJSON, root.FormatCSV, root.FormatID); err != nil {
		return err
	}
	projectID := args[0]

	a, err := root.OpenApp()
	if err != nil {
		return err
	}
	defer root.CloseApp(a)

	convs, err := a.Service.ListConversations(cmd.Context(), projectID)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	if limit > 0 && len(convs) > limit {
		convs = convs[:limit]
	}

	out := cmd.OutOrStdout()
	switch format {
	case root.FormatJSON:
		return root.PrintJSON(out, convs)
	case root.FormatID:
		for _, c := range convs {
			fmt.Fprintln(out, c.ID)
		}
		return nil
	case root.FormatCSV:
		w := csv.NewWriter(out)
		if err := w.Write([]string{"id", "summary", "messages", "last_updated"}); err != nil {
			return err
		}
		for _, c := range convs {
			record := []string{
				c.ID,
				c.Summary.Text,
				fmt.Sprint(c.MessageCount),
				c.LastUpdated.Format("2006-01-02 15:04:05"),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	}

	if len(convs) == 0 {
		fmt.Fprintf(out, "No conversations in %s\n", projectID)
		return nil
	}

	w := root.NewTable(out)
	fmt.Fprintln(w, "ID\tMessages\tLast Updated\tSummary")
	fmt.Fprintln(w, "--\t--------\t------------\t-------")
	for _, c := range convs {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.ID, c.MessageCount, root.Ago(c.LastUpdated), root.Truncate(c.Summary.Text, 60))
	}
	return w.Flush()
}
