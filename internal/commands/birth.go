package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Batdan007/MaiAI-Birth/internal/apiclient"
	"github.com/Batdan007/MaiAI-Birth/internal/birth"
	"github.com/Batdan007/MaiAI-Birth/internal/store"
	"github.com/Batdan007/MaiAI-Birth/internal/tui"
)

var (
	birthName    string
	birthAnswers []string
)

// BirthCmd runs the birth wizard in the terminal
var BirthCmd = &cobra.Command{
	Use:   "birth",
	Short: "Bring a new agent to life",
	Long: `Run the birth wizard: four questions pick your agent's archetype, then
you name it and watch it wake up.

With --name and --answers the wizard runs without the interactive screen:
  maiai birth --name Sage --answers analyst,analyst,creator,hybrid`,
	Args: cobra.NoArgs,
	RunE: runBirth,
}

func init() {
	BirthCmd.Flags().StringVar(&birthName, "name", "", "Agent name (non-interactive)")
	BirthCmd.Flags().StringSliceVar(&birthAnswers, "answers", nil,
		fmt.Sprintf("One category per question, %d in total (analyst, creator, hybrid)", len(birth.Questions)))
}

func runBirth(cmd *cobra.Command, args []string) error {
	if birthName == "" && len(birthAnswers) == 0 {
		return runTUI(cmd, tui.ScreenBirth, "")
	}

	e, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.requireSession(); err != nil {
		return err
	}

	answers, err := parseAnswers(birthAnswers)
	if err != nil {
		return err
	}

	w := birth.NewWizard(e.sessions, e.agents, e.client, e.logger)
	if err := w.Start(); err != nil {
		return err
	}
	for _, c := range answers {
		if err := w.Answer(c); err != nil {
			return err
		}
	}
	if err := w.ContinueFromKeys(); err != nil {
		return err
	}
	w.SetName(birthName)

	agent, err := w.Submit(cmd.Context())
	if err != nil {
		if errors.Is(err, birth.ErrNameRequired) {
			return errors.New("--name must not be blank")
		}
		if errors.Is(err, store.ErrNoSession) {
			return notLoggedIn()
		}
		return errors.New(apiclient.Message(err, birth.FallbackBirthError))
	}

	archetype := w.Archetype()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("IT'S ALIVE!"))
	fmt.Fprintf(out, "%s is %s (%s)\n", agent.Name, archetype.Name, agent.Personality)
	fmt.Fprintln(out, dimStyle.Render("Say hello: maiai chat "+agent.ID))
	return nil
}

func parseAnswers(raw []string) ([]birth.Category, error) {
	if len(raw) != len(birth.Questions) {
		return nil, fmt.Errorf("--answers needs %d categories, got %d", len(birth.Questions), len(raw))
	}
	answers := make([]birth.Category, 0, len(raw))
	for _, r := range raw {
		c, err := birth.ParseCategory(strings.TrimSpace(r))
		if err != nil {
			return nil, err
		}
		answers = append(answers, c)
	}
	return answers, nil
}
