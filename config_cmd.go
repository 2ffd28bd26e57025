package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# style name or JSON path (default "auto")
style: "auto"
# word-wrap at width (0 detects the terminal width)
width: 0
# mouse support (TUI-mode only)
mouse: false
# log debug messages and turn metrics
debug: false
# directory to save every spoken reply as WAV (empty disables)
save_dir: ""

# speech playback
audio:
  # auto picks the mock backend on CI, otherwise the system device
  # (auto, oto, mock or none)
  backend: "auto"
  # format of the payloads returned by the speech service
  sample_rate: 24000
  channels: 1
  # volume level (0.0 to 1.0)
  volume: 1.0
  # print replies without speaking them
  disabled: false

# Gemini API; the key is read from GEMINI_API_KEY
gemini:
  chat_model: "gemini-2.5-flash"
  tts_model: "gemini-2.5-flash-preview-tts"
  # prebuilt voice; changes apply to the next reply
  voice: "Charon"
  # sampling temperature (0.0 to 2.0); changes apply to the next reply
  temperature: 0.7
  timeout: "60s"
  requests_per_minute: 30

# cache of synthesized replies
cache:
  enabled: false
  # defaults to the user cache directory
  dir: ""
  # disk cache size in MB
  max_size: 100
  # zstd level (1-22)
  compression_level: 3
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the paijose config file",
	Long:    paragraph(fmt.Sprintf("\n%s the paijose config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("paijose config\npaijose config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("paijose", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
