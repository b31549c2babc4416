package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Batdan007/MaiAI-Birth/internal/commands"
)

// Version is set at build time via -ldflags "-X main.Version=X.Y.Z"
var Version = "0.0.0-dev"

var rootCmd = &cobra.Command{
	Use:   "maiai",
	Short: "Mai-AI - birth and talk to your own AI agents",
	Long: `Mai-AI lets you birth personal AI agents and chat with them.

Quick Start:
  maiai signup                 Create an account
  maiai login                  Sign in
  maiai                        Open the dashboard (default)
  maiai birth                  Birth a new agent

Commands:
  login / signup / logout      Manage your session
  status                       Show session and configuration
  agents [--all]               List your agents
  agent <id>                   Show one agent
  presets                      List personality presets
  birth                        Run the birth wizard
  chat <id> [-m text]          Chat with an agent
  history <id>                 Print a stored conversation
  beta <email>                 Join the beta list
  mock-server                  Run a local backend

Config: ~/.maiai/config.yaml (MAIAI_* environment variables override it)
Logs:   ~/.maiai/logs/maiai.log`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return commands.RunDashboard(cmd)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&commands.Verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&commands.ConfigPath, "config", "", "Config file (default ~/.maiai/config.yaml)")
	flags.StringVar(&commands.APIURL, "api-url", "", "Backend base URL")
	flags.StringVar(&commands.StateDir, "state-dir", "", "Directory for the stored session and agents")
	flags.StringVar(&commands.MetricsAddr, "metrics-addr", "", "Serve client metrics on this address, e.g. :9090")
	flags.DurationVar(&commands.RevealUnit, "reveal-unit", 0, "Time unit of the birth reveal")
	flags.MarkHidden("reveal-unit")
	rootCmd.Flags().BoolVarP(&commands.ShowAll, "all", "a", false, "Include inactive agents on the dashboard")

	rootCmd.AddCommand(commands.TUICmd)
	rootCmd.AddCommand(commands.LoginCmd)
	rootCmd.AddCommand(commands.SignupCmd)
	rootCmd.AddCommand(commands.LogoutCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.AgentsCmd)
	rootCmd.AddCommand(commands.AgentCmd)
	rootCmd.AddCommand(commands.PresetsCmd)
	rootCmd.AddCommand(commands.BirthCmd)
	rootCmd.AddCommand(commands.ChatCmd)
	rootCmd.AddCommand(commands.HistoryCmd)
	rootCmd.AddCommand(commands.BetaCmd)
	rootCmd.AddCommand(commands.MockServerCmd)
}

func main() {
	commands.AppVersion = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
