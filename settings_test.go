package main

import (
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/paijose/internal/audio"
	"github.com/spf13/viper"
)

func TestLoadSettingsDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	s, err := loadSettings(v)
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if s.Audio.SampleRate != 24000 || s.Audio.Channels != 1 || s.Audio.Backend != audio.BackendAuto {
		t.Errorf("audio = %+v", s.Audio)
	}
	if s.Gemini.Voice != "Charon" || s.Gemini.Temperature != 0.7 || s.Gemini.Timeout != 60*time.Second {
		t.Errorf("gemini = %+v", s.Gemini)
	}
	if s.Cache.Enabled {
		t.Error("cache enabled by default")
	}
}

func TestLoadSettingsFromYAML(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	err := v.ReadConfig(strings.NewReader(`
audio:
  sample_rate: 48000
  channels: 2
  backend: mock
gemini:
  voice: Kore
  temperature: 0.2
cache:
  enabled: true
  dir: /tmp/paijose-cache
  max_size: 10
`))
	if err != nil {
		t.Fatal(err)
	}

	s, err := loadSettings(v)
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if s.format().SampleRate != 48000 || s.format().Channels != 2 || s.Audio.Backend != audio.BackendMock {
		t.Errorf("audio = %+v", s.Audio)
	}
	if s.Gemini.Voice != "Kore" || s.Gemini.Temperature != 0.2 {
		t.Errorf("gemini = %+v", s.Gemini)
	}
	if !s.Cache.Enabled || s.Cache.Dir != "/tmp/paijose-cache" || s.Cache.MaxSizeMB != 10 {
		t.Errorf("cache = %+v", s.Cache)
	}
}

func TestLoadSettingsValidation(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{"audio.backend", "pulse"},
		{"audio.channels", 0},
		{"audio.sample_rate", -1},
		{"audio.volume", 1.5},
		{"gemini.temperature", 3.0},
		{"gemini.timeout", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := viper.New()
			setDefaults(v)
			v.Set(tt.key, tt.value)
			if _, err := loadSettings(v); err == nil {
				t.Errorf("loadSettings() accepted %s = %v", tt.key, tt.value)
			}
		})
	}

	v := viper.New()
	setDefaults(v)
	v.Set("cache.enabled", true)
	v.Set("cache.max_size", 0)
	if _, err := loadSettings(v); err == nil {
		t.Error("loadSettings() accepted cache.max_size = 0")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		env  Env
		want string
	}{
		{Env{GeminiAPIKey: "a", APIKey: "b"}, "a"},
		{Env{APIKey: "b"}, "b"},
		{Env{}, ""},
	}
	for _, tt := range tests {
		if got := tt.env.Key(); got != tt.want {
			t.Errorf("%+v.Key() = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(defaultConfig)); err != nil {
		t.Fatalf("default config does not parse: %v", err)
	}
	if _, err := loadSettings(v); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
}
