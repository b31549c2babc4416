package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Batdan007/MaiAI-Birth/internal/apiclient"
	"github.com/Batdan007/MaiAI-Birth/internal/models"
	"github.com/Batdan007/MaiAI-Birth/internal/tui"
)

// ShowAll includes inactive agents in lists and on the dashboard
var ShowAll bool

var (
	offline    bool
	agentsTUI  bool
	jsonOutput bool
)

// AgentsCmd lists the agents on the account
var AgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List your agents",
	Long: `List your agents. Only active agents are shown unless --all is set.

The list is refreshed from the backend and cached locally; --offline prints
the cached copy without contacting the backend.`,
	Args: cobra.NoArgs,
	RunE: runAgents,
}

// AgentCmd prints one agent and refreshes its cached entry
var AgentCmd = &cobra.Command{
	Use:   "agent <id>",
	Short: "Show one agent and refresh its cached entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgent,
}

// PresetsCmd lists the personality presets offered at birth
var PresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the personality presets the backend offers",
	Args:  cobra.NoArgs,
	RunE:  runPresets,
}

func init() {
	AgentsCmd.Flags().BoolVarP(&ShowAll, "all", "a", false, "Include inactive agents")
	AgentsCmd.Flags().BoolVar(&offline, "offline", false, "Print the cached list only")
	AgentsCmd.Flags().BoolVar(&agentsTUI, "tui", false, "Open the interactive dashboard")
	AgentsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	AgentCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
}

func runAgents(cmd *cobra.Command, args []string) error {
	if agentsTUI {
		return runTUI(cmd, tui.ScreenDashboard, "")
	}

	e, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer e.Close()

	if !offline {
		token, err := e.requireSession()
		if err != nil {
			return err
		}
		if err := e.refreshAgents(cmd.Context(), token); err != nil {
			return errors.New(apiclient.Message(err, apiclient.FallbackMessage))
		}
	}

	agents := e.agents.Active()
	if ShowAll {
		agents = e.agents.List()
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), agents)
	}
	if len(agents) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No agents yet. Run 'maiai birth' to create one.")
		return nil
	}
	printAgents(cmd.OutOrStdout(), agents)
	return nil
}

func printAgents(w io.Writer, agents []models.AgentSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPERSONALITY\tSTATUS\tCHATS\tBORN")
	for _, a := range agents {
		born := "-"
		if !a.CreatedAt.IsZero() {
			born = a.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", a.ID, a.Name, a.Personality, a.Status, a.TotalConversations, born)
	}
	tw.Flush()
}

func runAgent(cmd *cobra.Command, args []string) error {
	e, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer e.Close()

	token, err := e.requireSession()
	if err != nil {
		return err
	}

	agent, err := e.client.GetAgent(cmd.Context(), token, args[0])
	if err != nil {
		return errors.New(apiclient.Message(err, apiclient.FallbackMessage))
	}

	// keep the cached entry in step with the backend
	e.agents.UpdateAgent(agent.ID, models.AgentPatch{
		Name:               &agent.Name,
		Personality:        &agent.Personality,
		Status:             &agent.Status,
		TotalConversations: &agent.TotalConversations,
	})

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), agent)
	}
	printAgents(cmd.OutOrStdout(), []models.AgentSummary{*agent})
	return nil
}

func runPresets(cmd *cobra.Command, args []string) error {
	e, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer e.Close()

	token, err := e.requireSession()
	if err != nil {
		return err
	}
	presets, err := e.client.ListPresets(cmd.Context(), token)
	if err != nil {
		return errors.New(apiclient.Message(err, apiclient.FallbackMessage))
	}
	return printJSON(cmd.OutOrStdout(), presets)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
