package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the console.
// Tokyo Night tones, readable on the dim shack monitor.
type Theme struct {
	TextPrimary lipgloss.Color
	TextDim     lipgloss.Color

	Border        lipgloss.Color
	BorderFocused lipgloss.Color

	Accent  lipgloss.Color // current direction
	Success lipgloss.Color
	Warning lipgloss.Color // staged target
	Error   lipgloss.Color
}

// DefaultTheme is the default dark theme.
var DefaultTheme = Theme{
	TextPrimary: lipgloss.Color("#c0caf5"),
	TextDim:     lipgloss.Color("#565f89"),

	Border:        lipgloss.Color("#414868"),
	BorderFocused: lipgloss.Color("#7aa2f7"),

	Accent:  lipgloss.Color("#7aa2f7"),
	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
}

// Styles holds the rendered lipgloss styles used by the views.
type Styles struct {
	Title     lipgloss.Style
	Panel     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Current   lipgloss.Style
	Staged    lipgloss.Style
	Inactive  lipgloss.Style
	StatusOK  lipgloss.Style
	StatusErr lipgloss.Style
	Help      lipgloss.Style
}

// NewStyles builds the style set from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Label: lipgloss.NewStyle().
			Foreground(t.TextDim),
		Value: lipgloss.NewStyle().
			Foreground(t.TextPrimary),
		Current: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true).
			Reverse(true),
		Staged: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),
		Inactive: lipgloss.NewStyle().
			Foreground(t.TextDim),
		StatusOK: lipgloss.NewStyle().
			Foreground(t.Success),
		StatusErr: lipgloss.NewStyle().
			Foreground(t.Error),
		Help: lipgloss.NewStyle().
			Foreground(t.TextDim),
	}
}

// DefaultStyles is the style set for the default theme.
var DefaultStyles = NewStyles(DefaultTheme)
