package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Batdan007/MaiAI-Birth/internal/apiclient"
	"github.com/Batdan007/MaiAI-Birth/internal/models"
)

var (
	loginEmail string
	signupName string
)

// LoginCmd authenticates and stores the session token
var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Mai-AI",
	Long: `Sign in with your email and password.

The session is stored in the state directory and shared by every maiai
command until you run 'maiai logout'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(cmd, false)
	},
}

// SignupCmd creates an account and stores its session
var SignupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a Mai-AI account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(cmd, true)
	},
}

func init() {
	LoginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email (prompted when empty)")
	SignupCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email (prompted when empty)")
	SignupCmd.Flags().StringVar(&signupName, "name", "", "Display name (optional)")
}

func runAuth(cmd *cobra.Command, signup bool) error {
	e, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())

	email := loginEmail
	if email == "" {
		if email, err = promptLine(in, out, "Email: "); err != nil {
			return err
		}
	}
	password, err := promptPassword(in, out, "Password: ")
	if err != nil {
		return err
	}

	return authenticate(cmd.Context(), e, out, email, password, signup)
}

// authenticate signs in (or up), stores the session and primes the agent
// registry.
func authenticate(ctx context.Context, e *env, out io.Writer, email, password string, signup bool) error {
	var (
		resp *models.AuthResponse
		err  error
	)
	if signup {
		resp, err = e.client.Signup(ctx, email, password, signupName)
	} else {
		resp, err = e.client.Login(ctx, email, password)
	}
	if err != nil {
		return errors.New(apiclient.Message(err, apiclient.FallbackMessage))
	}

	if err := e.sessions.SetAuth(resp.Token, resp.User); err != nil {
		return err
	}
	e.logger.Info("signed in", "user_id", resp.User.ID)

	fmt.Fprintln(out, successStyle.Render("Signed in as "+resp.User.Email)+" "+dimStyle.Render("["+resp.User.TierBadge()+"]"))

	// a failed list only means the dashboard starts empty
	if err := e.refreshAgents(ctx, resp.Token); err != nil {
		e.logger.Warn("failed to load agents after sign-in", "error", err)
		fmt.Fprintln(out, dimStyle.Render("Could not load your agents: "+apiclient.Message(err, apiclient.FallbackMessage)))
		return nil
	}
	fmt.Fprintf(out, "%d agent(s) on file\n", e.agents.Len())
	return nil
}

// LogoutCmd forgets the stored session
var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer e.Close()

		token := e.sessions.Token()
		e.client.ForgetPresets(token)
		e.sessions.Logout()
		if token == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Logged out"))
		return nil
	},
}

// BetaCmd joins the beta waitlist
var BetaCmd = &cobra.Command{
	Use:   "beta <email>",
	Short: "Join the Mai-AI beta waiting list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer e.Close()

		resp, err := e.client.BetaSignup(cmd.Context(), args[0])
		if err != nil {
			return errors.New(apiclient.Message(err, apiclient.FallbackMessage))
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
		return nil
	},
}
