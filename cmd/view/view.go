package view

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neilberkman/ccsearch/cmd/root"
	"github.com/neilberkman/ccsearch/internal/rendering"
)

var (
	format       string
	plain        bool
	showTools    bool
	showThinking bool
)

// ViewCmd represents the view command
var ViewCmd = &cobra.Command{
	Use:   "view <project> <conversation>",
	Short: "View a conversation with all messages",
	Long: `View a full conversation. Message text is rendered as markdown when writing
to a terminal.

Example:
  ccsearch view -Users-me-app 5f0c2a9e-1d2b-4c1e-9d8a-0c7e2b1f4a11
  ccsearch view -Users-me-app 5f0c2a9e --tools --thinking
  ccsearch view -Users-me-app 5f0c2a9e --format json`,
	Args: cobra.ExactArgs(2),
	RunE: runView,
}

func init() {
	ViewCmd.Flags().StringVarP(&format, "format", "f", root.FormatText, "output format (text/json)")
	ViewCmd.Flags().BoolVar(&plain, "plain", false, "disable markdown rendering and colors")
	ViewCmd.Flags().BoolVar(&showTools, "tools", false, "show tool calls and tool results")
	ViewCmd.Flags().BoolVar(&showThinking, "thinking", false, "show assistant thinking")
}

func runView(cmd *cobra.Command, args []string) error {
	if err := root.CheckFormat(format, root.FormatText, root.FormatJSON); err != nil {
		return err
	}

	a, err := root.OpenApp()
	if err != nil {
		return err
	}
	defer root.CloseApp(a)

	rec, err := a.Service.GetConversation(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to get conversation: %w", err)
	}

	out := cmd.OutOrStdout()
	if format == root.FormatJSON {
		return root.PrintJSON(out, rec)
	}

	r := rendering.NewRenderer(rendering.Options{
		Width:        rendering.Width(os.Stdout),
		Plain:        plain || !rendering.IsTerminal(os.Stdout),
		ShowTools:    showTools,
		ShowThinking: showThinking,
	})
	_, err = fmt.Fprint(out, r.Conversation(rec))
	return err
}
