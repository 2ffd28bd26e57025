package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgnsrekt/paijose/internal/audio"
	"github.com/dgnsrekt/paijose/internal/gemini"
	"github.com/dgnsrekt/paijose/internal/pcm"
	"github.com/dgnsrekt/paijose/utils"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// Env holds secrets read from the environment.
type Env struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	APIKey       string `env:"API_KEY"`
}

// Key returns the Gemini API key, preferring GEMINI_API_KEY.
func (e Env) Key() string {
	if e.GeminiAPIKey != "" {
		return e.GeminiAPIKey
	}
	return e.APIKey
}

type audioSettings struct {
	SampleRate int
	Channels   int
	Backend    audio.Backend
	Volume     float64
	Disabled   bool
}

type geminiSettings struct {
	ChatModel         string
	TTSModel          string
	Voice             string
	Temperature       float64
	Endpoint          string
	Timeout           time.Duration
	RequestsPerMinute int
}

type cacheSettings struct {
	Enabled          bool
	Dir              string
	MaxSizeMB        int
	CompressionLevel int
}

type settings struct {
	Audio   audioSettings
	Gemini  geminiSettings
	Cache   cacheSettings
	SaveDir string
	Debug   bool
}

func (s settings) format() pcm.Format {
	return pcm.Format{SampleRate: s.Audio.SampleRate, Channels: s.Audio.Channels}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("style", "auto")
	v.SetDefault("width", 0)
	v.SetDefault("debug", false)
	v.SetDefault("save_dir", "")

	v.SetDefault("audio.sample_rate", pcm.DefaultSampleRate)
	v.SetDefault("audio.channels", pcm.DefaultChannels)
	v.SetDefault("audio.backend", string(audio.BackendAuto))
	v.SetDefault("audio.volume", 1.0)
	v.SetDefault("audio.disabled", false)

	v.SetDefault("gemini.chat_model", gemini.DefaultChatModel)
	v.SetDefault("gemini.tts_model", gemini.DefaultTTSModel)
	v.SetDefault("gemini.voice", gemini.DefaultVoice)
	v.SetDefault("gemini.temperature", gemini.DefaultTemperature)
	v.SetDefault("gemini.endpoint", gemini.DefaultEndpoint)
	v.SetDefault("gemini.timeout", "60s")
	v.SetDefault("gemini.requests_per_minute", 30)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.max_size", 100)
	v.SetDefault("cache.compression_level", 3)
}

// loadSettings reads and validates the configuration from v.
func loadSettings(v *viper.Viper) (settings, error) {
	var s settings

	backend, err := audio.ParseBackend(v.GetString("audio.backend"))
	if err != nil {
		return s, err
	}
	s.Audio = audioSettings{
		SampleRate: v.GetInt("audio.sample_rate"),
		Channels:   v.GetInt("audio.channels"),
		Backend:    backend,
		Volume:     v.GetFloat64("audio.volume"),
		Disabled:   v.GetBool("audio.disabled"),
	}
	if err := s.format().Validate(); err != nil {
		return s, fmt.Errorf("audio: %w", err)
	}
	if s.Audio.Volume < 0 || s.Audio.Volume > 1 {
		return s, fmt.Errorf("audio.volume must be between 0.0 and 1.0, got %.2f", s.Audio.Volume)
	}

	s.Gemini = geminiSettings{
		ChatModel:         v.GetString("gemini.chat_model"),
		TTSModel:          v.GetString("gemini.tts_model"),
		Voice:             v.GetString("gemini.voice"),
		Temperature:       v.GetFloat64("gemini.temperature"),
		Endpoint:          v.GetString("gemini.endpoint"),
		Timeout:           v.GetDuration("gemini.timeout"),
		RequestsPerMinute: v.GetInt("gemini.requests_per_minute"),
	}
	if s.Gemini.Temperature < 0 || s.Gemini.Temperature > 2 {
		return s, fmt.Errorf("gemini.temperature must be between 0.0 and 2.0, got %.2f", s.Gemini.Temperature)
	}
	if s.Gemini.Timeout <= 0 {
		return s, errors.New("gemini.timeout must be positive")
	}

	s.Cache = cacheSettings{
		Enabled:          v.GetBool("cache.enabled"),
		Dir:              utils.ExpandPath(v.GetString("cache.dir")),
		MaxSizeMB:        v.GetInt("cache.max_size"),
		CompressionLevel: v.GetInt("cache.compression_level"),
	}
	if s.Cache.Enabled {
		if s.Cache.MaxSizeMB < 1 || s.Cache.MaxSizeMB > 10000 {
			return s, fmt.Errorf("cache.max_size must be between 1 and 10000 MB, got %d", s.Cache.MaxSizeMB)
		}
		if s.Cache.CompressionLevel < 1 || s.Cache.CompressionLevel > 22 {
			return s, fmt.Errorf("cache.compression_level must be between 1 and 22, got %d", s.Cache.CompressionLevel)
		}
		if s.Cache.Dir == "" {
			dir, err := gap.NewScope(gap.User, "paijose").CacheDir()
			if err != nil {
				return s, fmt.Errorf("unable to find cache directory: %w", err)
			}
			s.Cache.Dir = filepath.Join(dir, "speech")
		}
	}

	s.SaveDir = utils.ExpandPath(v.GetString("save_dir"))
	s.Debug = v.GetBool("debug")
	return s, nil
}
