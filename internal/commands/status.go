package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Batdan007/MaiAI-Birth/internal/auth"
)

// StatusCmd prints the login state and where local state lives
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session and configuration",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Mai-AI Status"))
	fmt.Fprintln(out)

	sess := e.sessions.Get()
	if sess.Authenticated() {
		fmt.Fprintf(out, "Session:  logged in as %s [%s]\n", sess.User.Email, sess.User.TierBadge())
		fmt.Fprintf(out, "Token:    %s\n", auth.Describe(sess.Token, time.Now()))
	} else {
		fmt.Fprintln(out, "Session:  "+errorStyle.Render("not logged in"))
		fmt.Fprintln(out, dimStyle.Render("          Run 'maiai login' to sign in"))
	}

	active := len(e.agents.Active())
	fmt.Fprintf(out, "Agents:   %d cached (%d active)\n", e.agents.Len(), active)
	fmt.Fprintf(out, "Backend:  %s\n", e.cfg.APIURL)
	fmt.Fprintf(out, "State:    %s\n", e.backend.Dir())
	fmt.Fprintf(out, "Logs:     %s\n", e.cfg.LogFile())
	return nil
}
