package display

import "github.com/charmbracelet/lipgloss"

// styles are bound to the renderer of the printer's writer so colour is
// dropped automatically when output is not a terminal.
type styles struct {
	header   lipgloss.Style
	street   lipgloss.Style
	action   lipgloss.Style
	winner   lipgloss.Style
	warning  lipgloss.Style
	info     lipgloss.Style
	redCard  lipgloss.Style
	blackCrd lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true),
		street: r.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		action: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")),
		winner: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		warning: r.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true),
		info: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		redCard: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		blackCrd: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FAFAFA"}).
			Bold(true),
	}
}
