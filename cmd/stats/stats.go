package stats

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/neilberkman/ccsearch/cmd/root"
	"github.com/neilberkman/ccsearch/internal/models"
)

var (
	format   string
	topTools int
)

// StatsCmd represents the stats command
var StatsCmd = &cobra.Command{
	Use:   "stats <project> [conversation]",
	Short: "Show usage statistics",
	Long: `Display message, tool and token statistics for a project or a single
conversation. Project statistics are cached until a log in the project changes.

Examples:
  ccsearch stats -Users-me-app
  ccsearch stats -Users-me-app 5f0c2a9e-1d2b-4c1e-9d8a-0c7e2b1f4a11
  ccsearch stats -Users-me-app --format json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runStats,
}

func init() {
	StatsCmd.Flags().StringVarP(&format, "format", "f", root.FormatText, "output format (text/json)")
	StatsCmd.Flags().IntVar(&topTools, "top-tools", 10, "number of tools to list")
}

func runStats(cmd *cobra.Command, args []string) error {
	if err := root.CheckFormat(format, root.FormatText, root.FormatJSON); err != nil {
		return err
	}

	a, err := root.OpenApp()
	if err != nil {
		return err
	}
	defer root.CloseApp(a)

	out := cmd.OutOrStdout()
	if len(args) == 2 {
		st, err := a.Service.GetConversationStats(cmd.Context(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		if format == root.FormatJSON {
			return root.PrintJSON(out, st)
		}
		printConversation(out, st)
		return nil
	}

	st, err := a.Service.GetProjectStats(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}
	if format == root.FormatJSON {
		return root.PrintJSON(out, st)
	}
	printProject(out, st)
	return nil
}

func printProject(w io.Writer, st *models.ProjectStats) {
	fmt.Fprintf(w, "=== Project %s ===\n", st.ProjectID)
	fmt.Fprintf(w, "\nConversations: %s\n", humanize.Comma(int64(st.TotalConversations)))
	if st.LongestConversation.ConversationID != "" {
		fmt.Fprintf(w, "Longest:       %s (%s messages)\n",
			st.LongestConversation.ConversationID, humanize.Comma(int64(st.LongestConversation.MessageCount)))
	}
	printCounters(w, st.Counters)
	if st.MostActiveDay.Date != "" {
		fmt.Fprintf(w, "\nMost active day: %s (%s messages)\n", st.MostActiveDay.Date, humanize.Comma(int64(st.MostActiveDay.Messages)))
	}
	fmt.Fprintf(w, "\nComputed %s\n", root.Ago(st.ComputedAt))
}

func printConversation(w io.Writer, st *models.ConversationStats) {
	fmt.Fprintf(w, "=== Conversation %s ===\n", st.ConversationID)
	fmt.Fprintf(w, "\nProject:  %s\n", st.ProjectID)
	fmt.Fprintf(w, "Duration: %s\n", st.Duration.Round(time.Second))
	printCounters(w, st.Counters)
	if len(st.Models) > 0 {
		fmt.Fprintf(w, "\nModels:\n")
		for _, kv := range sortedCounts(st.Models) {
			fmt.Fprintf(w, "  %-30s %s\n", kv.key, humanize.Comma(int64(kv.n)))
		}
	}
}

func printCounters(w io.Writer, c models.Counters) {
	fmt.Fprintf(w, "Messages:      %s\n", humanize.Comma(int64(c.TotalMessages)))
	for _, role := range []models.Role{models.RoleUser, models.RoleAssistant, models.RoleSystem} {
		if n := c.MessagesByRole[role]; n > 0 {
			fmt.Fprintf(w, "  %-11s %s\n", role+":", humanize.Comma(int64(n)))
		}
	}
	if c.ThinkingBlocks > 0 {
		fmt.Fprintf(w, "Thinking:      %s blocks\n", humanize.Comma(int64(c.ThinkingBlocks)))
	}
	if c.ErrorCount > 0 {
		fmt.Fprintf(w, "Tool errors:   %s\n", humanize.Comma(int64(c.ErrorCount)))
	}
	if c.MalformedLines > 0 {
		fmt.Fprintf(w, "Skipped lines: %s\n", humanize.Comma(int64(c.MalformedLines)))
	}

	t := c.Tokens
	fmt.Fprintf(w, "\nTokens:        ~%s\n", humanize.Comma(t.Estimated))
	if t.Input+t.Output+t.CacheCreation+t.CacheRead > 0 {
		fmt.Fprintf(w, "  input:       %s\n", humanize.Comma(t.Input))
		fmt.Fprintf(w, "  output:      %s\n", humanize.Comma(t.Output))
		fmt.Fprintf(w, "  cache write: %s\n", humanize.Comma(t.CacheCreation))
		fmt.Fprintf(w, "  cache read:  %s\n", humanize.Comma(t.CacheRead))
	}

	if !c.FirstActivity.IsZero() {
		fmt.Fprintf(w, "\nDate Range:\n")
		fmt.Fprintf(w, "  First: %s\n", c.FirstActivity.Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "  Last:  %s (%s)\n", c.LastActivity.Format("2006-01-02 15:04"), root.Ago(c.LastActivity))
	}

	if len(c.ToolUsage) > 0 {
		fmt.Fprintf(w, "\nTools:\n")
		for i, kv := range sortedCounts(c.ToolUsage) {
			if topTools > 0 && i == topTools {
				break
			}
			fmt.Fprintf(w, "  %-20s %s\n", kv.key, humanize.Comma(int64(kv.n)))
		}
	}

	if peak := peakHour(c.HourlyActivity); peak >= 0 {
		fmt.Fprintf(w, "\nBusiest hour: %02d:00 %s\n", peak, sparkline(c.HourlyActivity))
	}
}

type count struct {
	key string
	n   int
}

// sortedCounts orders a histogram by count desc, then key.
func sortedCounts(m map[string]int) []count {
	out := make([]count, 0, len(m))
	for k, n := range m {
		out = append(out, count{k, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].key < out[j].key
	})
	return out
}

func peakHour(hours [24]int) int {
	peak, best := -1, 0
	for h, n := range hours {
		if n > best {
			peak, best = h, n
		}
	}
	return peak
}

var bars = []rune("▁▂▃▄▅▆▇█")

func sparkline(hours [24]int) string {
	maxN := 0
	for _, n := range hours {
		maxN = max(maxN, n)
	}
	if maxN == 0 {
		return ""
	}
	var b strings.Builder
	for _, n := range hours {
		if n == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(bars[(n*(len(bars)-1))/maxN])
	}
	return b.String()
}
