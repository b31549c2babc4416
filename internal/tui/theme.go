package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Mai-AI colors
var (
	ColorBackground   = lipgloss.Color("#050505")
	ColorSurface      = lipgloss.Color("#111111")
	ColorSurfaceLight = lipgloss.Color("#1c1c1c")
	ColorBorder       = lipgloss.Color("#2a2a2a")

	// Lightning green
	ColorAccent    = lipgloss.Color("#4ade80")
	ColorAccentDim = lipgloss.Color("#166534")
	ColorSecondary = lipgloss.Color("#c084fc")

	ColorSuccess = lipgloss.Color("#4ade80")
	ColorWarning = lipgloss.Color("#facc15")
	ColorError   = lipgloss.Color("#f87171")
	ColorInfo    = lipgloss.Color("#60a5fa")

	ColorTextPrimary   = lipgloss.Color("#ffffff")
	ColorTextSecondary = lipgloss.Color("#9ca3af")
	ColorTextMuted     = lipgloss.Color("#6b7280")
	ColorTextDim       = lipgloss.Color("#374151")
)

// Theme contains all styled components
type Theme struct {
	Card lipgloss.Style

	HeaderContainer lipgloss.Style
	Logo            lipgloss.Style
	LogoDot         lipgloss.Style
	UserEmail       lipgloss.Style

	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Label         lipgloss.Style
	Value         lipgloss.Style
	ValueMuted    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style

	ButtonPrimary  lipgloss.Style
	ButtonDisabled lipgloss.Style

	Input      lipgloss.Style
	InputFocus lipgloss.Style
	InputLabel lipgloss.Style
	InputError lipgloss.Style

	ListItem       lipgloss.Style
	ListItemActive lipgloss.Style
	ListCursor     lipgloss.Style

	UserTurn      lipgloss.Style
	AssistantTurn lipgloss.Style
	ErrorTurn     lipgloss.Style
	Speaker       lipgloss.Style

	BadgeSuccess  lipgloss.Style
	BadgeInfo     lipgloss.Style
	BadgeMuted    lipgloss.Style
	ProgressFill  lipgloss.Style
	ProgressEmpty lipgloss.Style

	Divider lipgloss.Style
	Help    lipgloss.Style
	HelpKey lipgloss.Style
	Spinner lipgloss.Style
}

// NewTheme creates the Mai-AI styles
func NewTheme() *Theme {
	t := &Theme{}

	t.Card = lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	t.HeaderContainer = lipgloss.NewStyle().
		Padding(0, 2).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorBorder)

	t.Logo = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorTextPrimary)

	t.LogoDot = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	t.UserEmail = lipgloss.NewStyle().
		Foreground(ColorTextSecondary)

	t.Title = lipgloss.NewStyle().
		Foreground(ColorTextPrimary).
		Bold(true).
		MarginBottom(1)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Italic(true)

	t.Label = lipgloss.NewStyle().
		Foreground(ColorTextSecondary)

	t.Value = lipgloss.NewStyle().
		Foreground(ColorTextPrimary)

	t.ValueMuted = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	t.StatusSuccess = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	t.StatusError = lipgloss.NewStyle().
		Foreground(ColorError)

	t.StatusWarning = lipgloss.NewStyle().
		Foreground(ColorWarning)

	t.ButtonPrimary = lipgloss.NewStyle().
		Background(ColorAccent).
		Foreground(lipgloss.Color("#000000")).
		Padding(0, 2).
		Bold(true)

	t.ButtonDisabled = lipgloss.NewStyle().
		Background(ColorSurfaceLight).
		Foreground(ColorTextMuted).
		Padding(0, 2)

	t.Input = lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	t.InputFocus = lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent)

	t.InputLabel = lipgloss.NewStyle().
		Foreground(ColorTextSecondary)

	t.InputError = lipgloss.NewStyle().
		Foreground(ColorError).
		Italic(true)

	t.ListItem = lipgloss.NewStyle().
		Foreground(ColorTextPrimary).
		Padding(0, 1)

	t.ListItemActive = lipgloss.NewStyle().
		Background(ColorAccentDim).
		Foreground(ColorTextPrimary).
		Padding(0, 1)

	t.ListCursor = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	t.UserTurn = lipgloss.NewStyle().
		Foreground(ColorTextPrimary).
		Background(ColorAccentDim).
		Padding(0, 1)

	t.AssistantTurn = lipgloss.NewStyle().
		Foreground(ColorTextPrimary).
		Background(ColorSurfaceLight).
		Padding(0, 1)

	t.ErrorTurn = lipgloss.NewStyle().
		Foreground(ColorError).
		Background(ColorSurfaceLight).
		Padding(0, 1)

	t.Speaker = lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		Bold(true)

	t.BadgeSuccess = lipgloss.NewStyle().
		Background(ColorSuccess).
		Foreground(lipgloss.Color("#000000")).
		Padding(0, 1).
		Bold(true)

	t.BadgeInfo = lipgloss.NewStyle().
		Background(ColorSecondary).
		Foreground(lipgloss.Color("#000000")).
		Padding(0, 1).
		Bold(true)

	t.BadgeMuted = lipgloss.NewStyle().
		Background(ColorSurfaceLight).
		Foreground(ColorTextMuted).
		Padding(0, 1)

	t.ProgressFill = lipgloss.NewStyle().
		Foreground(ColorAccent)

	t.ProgressEmpty = lipgloss.NewStyle().
		Foreground(ColorBorder)

	t.Divider = lipgloss.NewStyle().
		Foreground(ColorBorder)

	t.Help = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	t.HelpKey = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(ColorAccent)

	return t
}

// DefaultTheme is the global theme instance
var DefaultTheme = NewTheme()

// RenderKeyHelp renders a key binding hint
func RenderKeyHelp(key, label string) string {
	return DefaultTheme.HelpKey.Render(key) + " " + DefaultTheme.Help.Render(label)
}

// HorizontalLine creates a horizontal divider
func HorizontalLine(width int) string {
	return DefaultTheme.Divider.Render(strings.Repeat("─", max(width, 0)))
}

// ProgressBar renders a bar of width cells filled to percent
func ProgressBar(percent, width int) string {
	percent = min(max(percent, 0), 100)
	filled := width * percent / 100
	return DefaultTheme.ProgressFill.Render(strings.Repeat("█", filled)) +
		DefaultTheme.ProgressEmpty.Render(strings.Repeat("░", width-filled))
}

func centerText(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	return strings.Repeat(" ", (width-textWidth)/2) + text
}

// padScreen fills the view down to height lines
func padScreen(b *strings.Builder, height int) {
	for lines := strings.Count(b.String(), "\n"); lines < height-1; lines++ {
		b.WriteString("\n")
	}
}
