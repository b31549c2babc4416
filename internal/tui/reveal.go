package tui

import (
	"math/rand"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Batdan007/MaiAI-Birth/internal/birth"
)

var maiLogo = `
███╗   ███╗ █████╗ ██╗      █████╗ ██╗
████╗ ████║██╔══██╗██║     ██╔══██╗██║
██╔████╔██║███████║██║█████╗███████║██║
██║╚██╔╝██║██╔══██║██║╚════╝██╔══██║██║
██║ ╚═╝ ██║██║  ██║██║      ██║  ██║██║
╚═╝     ╚═╝╚═╝  ╚═╝╚═╝      ╚═╝  ╚═╝╚═╝`

// Narrow terminals
var maiLogoSmall = `
╔╦╗╔═╗╦   ╔═╗╦
║║║╠═╣║───╠═╣║
╩ ╩╩ ╩╩   ╩ ╩╩`

var boltChars = []rune{'╱', '╲', '⚡', '┼', '╳', '▚', '▞'}

// RevealStyles defines colors for the reveal sequence
type RevealStyles struct {
	LogoDark    lipgloss.Style
	LogoCharged lipgloss.Style
	LogoStrike  lipgloss.Style
	LogoAlive   lipgloss.Style
	Bolt        lipgloss.Style
	Caption     lipgloss.Style
	Name        lipgloss.Style
}

// DefaultRevealStyles returns the lightning styles
func DefaultRevealStyles() *RevealStyles {
	return &RevealStyles{
		LogoDark:    lipgloss.NewStyle().Foreground(ColorTextDim),
		LogoCharged: lipgloss.NewStyle().Foreground(ColorTextMuted),
		LogoStrike:  lipgloss.NewStyle().Foreground(ColorTextPrimary).Bold(true),
		LogoAlive:   lipgloss.NewStyle().Foreground(ColorAccent).Bold(true),
		Bolt:        lipgloss.NewStyle().Foreground(ColorWarning),
		Caption:     lipgloss.NewStyle().Foreground(ColorTextMuted).Italic(true),
		Name:        lipgloss.NewStyle().Foreground(ColorAccent).Bold(true),
	}
}

// RevealCaption returns the line shown under the logo for a phase
func RevealCaption(phase birth.Phase, name string) string {
	switch phase {
	case birth.PhaseDark:
		return "..."
	case birth.PhaseCharging:
		return "Charging..."
	case birth.PhaseStrike:
		return "IT'S ALIVE!"
	case birth.PhaseReveal:
		return "Say hello to " + name
	case birth.PhaseComplete:
		return name + " is ready"
	default:
		return ""
	}
}

// RenderReveal renders one frame of the reveal. tick animates the sparks
// between frames.
func RenderReveal(frame birth.Frame, tick int, name string, w, h int) string {
	styles := DefaultRevealStyles()
	var b strings.Builder

	logo := maiLogo
	if w < 45 {
		logo = maiLogoSmall
	}
	if frame.Sparks && frame.Phase < birth.PhaseReveal {
		logo = applySparks(logo, tick)
	}

	var style lipgloss.Style
	switch frame.Phase {
	case birth.PhaseDark:
		style = styles.LogoDark
	case birth.PhaseCharging:
		style = styles.LogoCharged
	case birth.PhaseStrike:
		style = styles.LogoStrike
	default:
		style = styles.LogoAlive
	}

	lines := strings.Split(strings.TrimPrefix(logo, "\n"), "\n")
	top := max((h-len(lines)-4)/2, 1)
	for i := 0; i < top; i++ {
		b.WriteString("\n")
	}

	if frame.Phase == birth.PhaseStrike {
		b.WriteString(centerText(styles.Bolt.Render(boltLine(tick, lipgloss.Width(lines[0]))), w))
		b.WriteString("\n")
	}
	for _, line := range lines {
		if frame.Phase == birth.PhaseDark {
			line = strings.Map(func(r rune) rune {
				if r == ' ' {
					return r
				}
				return '·'
			}, line)
		}
		b.WriteString(centerText(style.Render(line), w))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	caption := RevealCaption(frame.Phase, name)
	if frame.Phase >= birth.PhaseReveal {
		b.WriteString(centerText(styles.Name.Render(caption), w))
	} else {
		b.WriteString(centerText(styles.Caption.Render(caption), w))
	}
	b.WriteString("\n")

	padScreen(&b, h)
	return b.String()
}

// applySparks flickers bolt characters over the logo
func applySparks(text string, tick int) string {
	rng := rand.New(rand.NewSource(int64(tick)))
	runes := []rune(text)
	for i := 0; i < 6+rng.Intn(6); i++ {
		idx := rng.Intn(len(runes))
		if runes[idx] != '\n' && runes[idx] != ' ' {
			runes[idx] = boltChars[rng.Intn(len(boltChars))]
		}
	}
	return string(runes)
}

func boltLine(tick, width int) string {
	rng := rand.New(rand.NewSource(int64(tick)))
	runes := make([]rune, width)
	for i := range runes {
		runes[i] = ' '
		if rng.Intn(4) == 0 {
			runes[i] = boltChars[rng.Intn(len(boltChars))]
		}
	}
	return string(runes)
}
