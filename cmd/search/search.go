package search

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neilberkman/ccsearch/cmd/root"
	"github.com/neilberkman/ccsearch/internal/rendering"
	"github.com/neilberkman/ccsearch/internal/search"
	"github.com/neilberkman/ccsearch/internal/service"
)

var (
	mode      string
	projectID string
	limit     int
	format    string
	quiet     bool
	noColor   bool
)

// SearchCmd represents the search command
var SearchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search through conversations",
	Long: `Search the text of user and assistant messages. Tool calls, tool results
and thinking are not searched.

Modes:
  partial (default):  every word must appear somewhere in a message, in any order
                      ccsearch search migrate schema
  exact:              the phrase must appear with word boundaries on both ends
                      ccsearch search --mode exact "flaky test"

Scope:
  All projects:       ccsearch search database
  One project:        ccsearch search database --project -Users-me-app

Results are grouped by conversation and ranked by number of matching messages,
then by most recent activity. A query without letters or digits matches
nothing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	SearchCmd.Flags().StringVarP(&mode, "mode", "m", "", "match mode: partial or exact (default from config)")
	SearchCmd.Flags().StringVarP(&projectID, "project", "p", "", "search within a single project")
	SearchCmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum number of conversations (default from config)")
	SearchCmd.Flags().StringVarP(&format, "format", "f", root.FormatTable, "output format (table/json/csv)")
	SearchCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress extra output (pipe-friendly)")
	SearchCmd.Flags().BoolVar(&noColor, "no-color", false, "disable match highlighting")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := root.CheckFormat(format, root.FormatTable, root.FormatJSON, root.FormatCSV); err != nil {
		return err
	}
	query := strings.Join(args, " ")

	a, err := root.OpenApp()
	if err != nil {
		return err
	}
	defer root.CloseApp(a)

	resp, err := a.Service.Search(cmd.Context(), service.Request{
		ProjectID: projectID,
		Query:     query,
		Mode:      mode,
		Limit:     limit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	switch format {
	case root.FormatJSON:
		return root.PrintJSON(cmd.OutOrStdout(), resp)
	case root.FormatCSV:
		return outputCSV(cmd, resp)
	default:
		return outputTable(cmd, resp)
	}
}

func outputTable(cmd *cobra.Command, resp *service.Response) error {
	out := cmd.OutOrStdout()
	if len(resp.Results) == 0 {
		if !quiet {
			fmt.Fprintln(out, "No results found.")
		}
		return nil
	}

	plain := noColor || !rendering.IsTerminal(os.Stdout)
	r := rendering.NewRenderer(rendering.Options{Plain: plain})
	terms := search.Tokenize(resp.Query)
	if resp.Mode == search.ModeExact {
		terms = []string{resp.Query}
	}

	w := root.NewTable(out)
	fmt.Fprintln(w, "Project\tConversation\tMatches\tUpdated\tPreview")
	fmt.Fprintln(w, "-------\t------------\t-------\t-------\t-------")
	for _, res := range resp.Results {
		preview := r.Highlight(root.Truncate(res.Preview, 80), terms)
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			res.ProjectID, res.ConversationID, res.MatchCount, root.Ago(res.LastUpdated), preview)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	if !quiet {
		fmt.Fprintf(out, "\nFound %d conversations", resp.Total)
		if resp.Truncated {
			fmt.Fprintf(out, " (showing first %d)", len(resp.Results))
		}
		fmt.Fprintln(out)
	}
	return nil
}

func outputCSV(cmd *cobra.Command, resp *service.Response) error {
	w := csv.NewWriter(cmd.OutOrStdout())

	if err := w.Write([]string{"project_id", "conversation_id", "summary", "match_count", "last_updated", "matching_message_ids", "preview"}); err != nil {
		return err
	}
	for _, res := range resp.Results {
		summary := ""
		if res.Conversation != nil {
			summary = res.Conversation.Summary.Text
		}
		record := []string{
			res.ProjectID,
			res.ConversationID,
			summary,
			fmt.Sprint(res.MatchCount),
			res.LastUpdated.Format("2006-01-02 15:04:05"),
			strings.Join(res.MatchingMessageIDs, " "),
			res.Preview,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
