package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/paijose/internal/audio"
	"github.com/dgnsrekt/paijose/internal/cache"
	"github.com/dgnsrekt/paijose/internal/gemini"
	"github.com/dgnsrekt/paijose/internal/persona"
	"github.com/dgnsrekt/paijose/internal/session"
	"github.com/dgnsrekt/paijose/internal/voice"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// app owns everything a conversation needs for the lifetime of the process.
type app struct {
	chat     *gemini.ChatSession
	synth    *gemini.Synthesizer
	cache    *cache.Manager
	pipeline *audio.Pipeline
	session  *session.Session
}

func newApp(s settings, apiKey string, listener voice.SpeechToTextService) (*app, error) {
	client, err := gemini.NewClient(gemini.Config{
		APIKey:            apiKey,
		Endpoint:          s.Gemini.Endpoint,
		Timeout:           s.Gemini.Timeout,
		RequestsPerMinute: s.Gemini.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		chat:  client.NewChat(s.Gemini.ChatModel, persona.SystemInstruction, s.Gemini.Temperature),
		synth: client.NewSynthesizer(s.Gemini.TTSModel, s.Gemini.Voice),
	}

	cfg := session.Config{
		Chat:      a.chat,
		Listener:  listener,
		ExportDir: s.SaveDir,
		Format:    s.format(),
	}

	if !s.Audio.Disabled {
		a.pipeline, err = newPipeline(s)
		if err != nil {
			return nil, err
		}
		cfg.Player = a.pipeline

		var tts voice.TextToSpeechService = a.synth
		if s.Cache.Enabled {
			a.cache, err = newCache(s.Cache)
			if err != nil {
				_ = a.pipeline.Close()
				return nil, err
			}
			tts = cache.NewSynthesizer(a.synth, a.cache, s.format())
		}
		cfg.Speech = tts
	}

	a.session, err = session.New(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	log.Debug("Conversation ready",
		"chat_model", s.Gemini.ChatModel,
		"tts_model", s.Gemini.TTSModel,
		"voice", s.Gemini.Voice,
		"audio", !s.Audio.Disabled,
		"cache", s.Cache.Enabled)
	return a, nil
}

func newPipeline(s settings) (*audio.Pipeline, error) {
	factory, err := audio.NewContextFactory(s.Audio.Backend)
	if err != nil {
		return nil, err
	}
	cfg := audio.DefaultConfig()
	cfg.SampleRate = s.Audio.SampleRate
	cfg.Channels = s.Audio.Channels
	cfg.Volume = s.Audio.Volume
	return audio.NewPipeline(cfg, factory)
}

func newCache(s cacheSettings) (*cache.Manager, error) {
	cfg := cache.DefaultConfig()
	cfg.Dir = s.Dir
	cfg.DiskCapacity = int64(s.MaxSizeMB) * 1024 * 1024
	cfg.CompressionLevel = s.CompressionLevel
	m, err := cache.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to open speech cache: %w", err)
	}
	return m, nil
}

// reload applies the settings that can change while a conversation runs.
func (a *app) reload(s settings) {
	if s.Gemini.Voice != a.synth.Voice() {
		log.Info("Voice changed", "from", a.synth.Voice(), "to", s.Gemini.Voice)
		a.synth.SetVoice(s.Gemini.Voice)
	}
	if s.Gemini.Temperature != a.chat.Temperature() {
		log.Info("Temperature changed", "from", a.chat.Temperature(), "to", s.Gemini.Temperature)
		a.chat.SetTemperature(s.Gemini.Temperature)
	}
}

// watchConfig reloads the configuration file when it changes on disk.
func (a *app) watchConfig(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		s, err := loadSettings(v)
		if err != nil {
			log.Warn("Ignoring invalid configuration change", "path", e.Name, "error", err)
			return
		}
		a.reload(s)
	})
	v.WatchConfig()
}

// events returns the playback events, or nil when audio is disabled.
func (a *app) events() <-chan audio.Event {
	if a.pipeline == nil {
		return nil
	}
	return a.pipeline.Events()
}

func (a *app) Close() error {
	var errs []error
	if a.pipeline != nil {
		errs = append(errs, a.pipeline.Close())
	}
	if a.cache != nil {
		stats := a.cache.Stats()
		log.Debug("Speech cache",
			"l1_hits", stats.L1Hits,
			"l2_hits", stats.L2Hits,
			"misses", stats.Misses,
			"memory", stats.Memory.String())
		errs = append(errs, a.cache.Close())
	}
	return errors.Join(errs...)
}
