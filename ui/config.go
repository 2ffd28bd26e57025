package ui

// Config contains TUI-specific configuration.
type Config struct {
	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	EnableMouse     bool

	// Voice is shown in the status bar.
	Voice string
	// AudioEnabled is false when replies are text only.
	AudioEnabled bool

	// For debugging the UI
	GlamourEnabled bool `env:"PAIJOSE_ENABLE_GLAMOUR" envDefault:"true"`
}
