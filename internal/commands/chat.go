package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Batdan007/MaiAI-Birth/internal/apiclient"
	"github.com/Batdan007/MaiAI-Birth/internal/chat"
	"github.com/Batdan007/MaiAI-Birth/internal/models"
	"github.com/Batdan007/MaiAI-Birth/internal/tui"
)

var chatMessage string

// ChatCmd opens the chat screen, or sends a single message with --message
var ChatCmd = &cobra.Command{
	Use:   "chat <agent-id>",
	Short: "Talk to one of your agents",
	Long: `Open the chat screen for an agent. With --message, send a single message,
print the reply and exit.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

// HistoryCmd prints the saved conversation with an agent
var HistoryCmd = &cobra.Command{
	Use:   "history <agent-id>",
	Short: "Print an agent's stored conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	ChatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send one message and print the reply")
	HistoryCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatMessage == "" {
		return runTUI(cmd, tui.ScreenChat, args[0])
	}

	e, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer e.Close()

	session, err := chat.Open(cmd.Context(), e.sessions, e.client, args[0], e.logger)
	if err != nil {
		if errors.Is(err, chat.ErrAgentUnavailable) {
			return errors.New(apiclient.Message(err, "Agent not found"))
		}
		return friendly(err)
	}

	reply, err := session.Send(cmd.Context(), chatMessage)
	if err != nil {
		return friendly(err)
	}
	if strings.HasPrefix(reply.Content, chat.ErrorPrefix) {
		return errors.New(strings.TrimPrefix(reply.Content, chat.ErrorPrefix))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", titleStyle.Render(session.Agent().Name), reply.Content)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer e.Close()

	token, err := e.requireSession()
	if err != nil {
		return err
	}
	history, err := e.client.ChatHistory(cmd.Context(), token, args[0])
	if err != nil {
		return errors.New(apiclient.Message(err, apiclient.FallbackMessage))
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, history)
	}
	if len(history) == 0 {
		fmt.Fprintln(out, "No messages yet")
		return nil
	}
	for _, entry := range history {
		who := "you"
		if entry.Role == models.RoleAssistant {
			who = "agent"
		}
		stamp := ""
		if !entry.Timestamp.IsZero() {
			stamp = dimStyle.Render(entry.Timestamp.Local().Format("2006-01-02 15:04")) + " "
		}
		fmt.Fprintf(out, "%s%s: %s\n", stamp, who, entry.Content)
	}
	return nil
}
