package ui

import "github.com/charmbracelet/lipgloss"

var (
	earth  = lipgloss.Color("#3E2723")
	bone   = lipgloss.Color("#F5F5DC")
	clay   = lipgloss.AdaptiveColor{Light: "#6D4C41", Dark: "#A1887F"}
	faint  = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	red    = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	candle = lipgloss.AdaptiveColor{Light: "#C77700", Dark: "#FFB74D"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(bone).
			Background(earth).
			Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().Foreground(clay).Bold(true)
	paiLabelStyle  = lipgloss.NewStyle().Foreground(candle).Bold(true)
	userTextStyle  = lipgloss.NewStyle().Foreground(clay)
	statusStyle    = lipgloss.NewStyle().Foreground(clay)
	speakingStyle  = lipgloss.NewStyle().Foreground(candle).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(red)
	helpStyle      = lipgloss.NewStyle().Foreground(faint)
)
