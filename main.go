// Package main provides the entry point for the paijose CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/paijose/internal/gemini"
	"github.com/dgnsrekt/paijose/internal/logging"
	"github.com/dgnsrekt/paijose/internal/persona"
	"github.com/dgnsrekt/paijose/internal/session"
	"github.com/dgnsrekt/paijose/internal/speech"
	"github.com/dgnsrekt/paijose/internal/voice"
	"github.com/dgnsrekt/paijose/ui"
	"github.com/dgnsrekt/paijose/utils"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	style      string
	width      uint
	mouse      bool
	lineMode   bool

	rootCmd = &cobra.Command{
		Use:   "paijose",
		Short: "Talk to Pai José de Angola in your terminal",
		Long: paragraph(
			fmt.Sprintf("\nAsk %s for advice and hear the answer spoken aloud.", keyword("Pai José de Angola")),
		),
		Example:          paragraph("paijose\necho 'Qual é o seu conselho?' | paijose --no-audio\npaijose --voice Kore --save ~/paijose"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != styles.AutoStyle && styles.DefaultStyles[style] == nil {
		style = utils.ExpandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")

	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	// We want to use a special no-TTY style, when stdout is not a terminal
	// and there was no specific style passed by arg
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = styles.NoTTYStyle
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") {
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(*cobra.Command, []string) error {
	s, err := loadSettings(viper.GetViper())
	if err != nil {
		return err
	}
	logging.Initialize(s.Debug)

	e, err := env.ParseAs[Env]()
	if err != nil {
		return fmt.Errorf("error parsing environment: %w", err)
	}
	if e.Key() == "" {
		return gemini.ErrMissingAPIKey
	}

	piped, err := stdinIsPipe()
	if err != nil {
		return err
	}
	lines := lineMode || piped || !term.IsTerminal(int(os.Stdout.Fd()))

	var listener voice.SpeechToTextService
	if lines {
		listener = speech.NewLineListener(os.Stdin)
	}

	a, err := newApp(s, e.Key(), listener)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("Shutdown failed", "error", err)
		}
		log.Debug("Session metrics\n" + logging.Stats())
	}()
	a.watchConfig(viper.GetViper())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if lines {
		return runLines(ctx, a, os.Stdout)
	}
	return runTUI(a)
}

// runLines answers one question per input line until the input ends.
func runLines(ctx context.Context, a *app, w io.Writer) error {
	for {
		text, err := a.session.Listen(ctx)
		switch {
		case errors.Is(err, speech.ErrInputClosed):
			return nil
		case errors.Is(err, context.Canceled):
			a.session.Stop()
			return nil
		case err != nil:
			return err
		}

		reply, err := a.session.Ask(ctx, text)
		if ctx.Err() != nil {
			// Interrupted mid-turn; the reply is a connection fallback.
			a.session.Stop()
			return nil
		}
		if errors.Is(err, session.ErrEmptyInput) {
			continue
		}
		if err != nil {
			return err
		}

		out := fmt.Sprintf("%s: %s", persona.Name, reply.Message.Text)
		if _, err := fmt.Fprintln(w, wordwrap.String(out, int(width))); err != nil { //nolint:gosec
			return fmt.Errorf("unable to write to writer: %w", err)
		}
		if reply.WAVPath != "" {
			log.Info("Saved reply", "path", reply.WAVPath)
		}

		if reply.Handle == nil {
			continue
		}
		if err := reply.Handle.Wait(ctx); err != nil {
			a.session.Stop()
			return nil
		}
	}
}

func runTUI(a *app) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or auto if unset
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		cfg.GlamourStyle = style
	}

	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse
	cfg.Voice = a.synth.Voice()
	cfg.AudioEnabled = a.pipeline != nil

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, a.session, a.events()).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.String("voice", gemini.DefaultVoice, "prebuilt voice used to speak replies")
	flags.Bool("no-audio", false, "print replies without speaking them")
	flags.String("audio-backend", "auto", "audio output: auto, oto, mock or none")
	flags.Bool("debug", false, "log debug messages and turn metrics")

	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to disable)")
	rootCmd.Flags().String("save", "", "directory to save every spoken reply as WAV")
	rootCmd.Flags().BoolVarP(&lineMode, "lines", "l", false, "read one question per line instead of starting the TUI")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("gemini.voice", flags.Lookup("voice"))
	_ = viper.BindPFlag("audio.disabled", flags.Lookup("no-audio"))
	_ = viper.BindPFlag("audio.backend", flags.Lookup("audio-backend"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("save_dir", rootCmd.Flags().Lookup("save"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	setDefaults(viper.GetViper())

	rootCmd.AddCommand(configCmd, manCmd, playCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "paijose")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "paijose")}, dirs...)
	}

	if c := os.Getenv("PAIJOSE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("paijose")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("paijose")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "paijose.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
