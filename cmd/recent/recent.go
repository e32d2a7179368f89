package recent

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neilberkman/ccsearch/cmd/root"
)

var (
	days   int
	limit  int
	format string
)

// RecentCmd represents the recent command
var RecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recent conversations",
	Long: `Show conversations from every project whose logs changed in the last N days.

Examples:
  # Show conversations from last 7 days (default)
  ccsearch recent

  # Show conversations from last 30 days
  ccsearch recent --days 30

  # Show only 5 most recent
  ccsearch recent --limit 5`,
	Args: cobra.NoArgs,
	RunE: runRecent,
}

func init() {
	RecentCmd.Flags().IntVarP(&days, "days", "d", 7, "number of days to look back")
	RecentCmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of conversations")
	RecentCmd.Flags().StringVarP(&format, "format", "f", root.FormatTable, "output format (table/json/id)")
}

func runRecent(cmd *cobra.Command, args []string) error {
	if err := root.CheckFormat(format, root.FormatTable, root.FormatJSON, root.FormatID); err != nil {
		return err
	}
	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	a, err := root.OpenApp()
	if err != nil {
		return err
	}
	defer root.CloseApp(a)

	convs, err := a.Service.RecentConversations(cmd.Context(), time.Duration(days)*24*time.Hour, limit)
	if err != nil {
		return fmt.Errorf("failed to list recent conversations: %w", err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case root.FormatJSON:
		return root.PrintJSON(out, convs)
	case root.FormatID:
		for _, c := range convs {
			fmt.Fprintf(out, "%s %s\n", c.ProjectID, c.ID)
		}
		return nil
	}

	if len(convs) == 0 {
		fmt.Fprintf(out, "No conversations in the last %d days\n", days)
		return nil
	}

	w := root.NewTable(out)
	fmt.Fprintln(w, "Project\tID\tMessages\tLast Updated\tSummary")
	fmt.Fprintln(w, "-------\t--\t--------\t------------\t-------")
	for _, c := range convs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			c.ProjectID, c.ID, c.MessageCount, root.Ago(c.LastUpdated), root.Truncate(c.Summary.Text, 50))
	}
	return w.Flush()
}
