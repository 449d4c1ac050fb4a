package ui

import "github.com/charmbracelet/lipgloss"

// Solana palette
var (
	ColorPrimary   = lipgloss.Color("#9945FF")
	ColorSecondary = lipgloss.Color("#14F195")
	ColorAccent    = lipgloss.Color("#00C2FF")
	ColorDanger    = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorBorder    = lipgloss.Color("#3F3F5A")
)

var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0B0B14")).
			Background(ColorSecondary).
			Padding(0, 2)

	StatusConnected = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	PausedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarning)

	PositiveValue = lipgloss.NewStyle().Foreground(ColorSecondary)
	NegativeValue = lipgloss.NewStyle().Foreground(ColorDanger)
	MutedValue    = lipgloss.NewStyle().Foreground(ColorMuted)
	ActivityStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	HelpStyle     = lipgloss.NewStyle().Foreground(ColorMuted).Padding(0, 1)

	ErrorHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
	ErrorStyle       = lipgloss.NewStyle().Foreground(ColorDanger)
)

// KindStyle colours an opportunity kind in the execution feed.
func KindStyle(kind string) lipgloss.Style {
	switch kind {
	case "swap":
		return lipgloss.NewStyle().Foreground(ColorAccent)
	case "arbitrage":
		return lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	case "yield":
		return lipgloss.NewStyle().Foreground(ColorPrimary)
	default:
		return MutedValue
	}
}
