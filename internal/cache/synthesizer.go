package cache

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/paijose/internal/logging"
	"github.com/dgnsrekt/paijose/internal/pcm"
	"github.com/dgnsrekt/paijose/internal/voice"
)

// Synthesizer caches the payloads of another TextToSpeechService. If the
// wrapped service reports its model and voice they are part of the key,
// so a voice change never returns stale audio. Only payloads that decode
// at the configured format are stored.
type Synthesizer struct {
	next   voice.TextToSpeechService
	cache  *Manager
	format pcm.Format
}

type modeler interface {
	Model() string
}

type voicer interface {
	Voice() string
}

// NewSynthesizer wraps next with the cache. A zero format means the
// default speech format.
func NewSynthesizer(next voice.TextToSpeechService, cache *Manager, format pcm.Format) *Synthesizer {
	if format == (pcm.Format{}) {
		format = pcm.DefaultFormat()
	}
	return &Synthesizer{next: next, cache: cache, format: format}
}

// Synthesize returns a cached payload or asks the wrapped service.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	payload, _, err := s.SynthesizeCached(ctx, text)
	return payload, err
}

// SynthesizeCached is Synthesize that also reports whether the payload was
// served from the cache.
func (s *Synthesizer) SynthesizeCached(ctx context.Context, text string) (string, bool, error) {
	key := s.key(text)

	if data, level, ok := s.cache.Get(key); ok {
		if err := s.check(data); err != nil {
			log.Warn("Dropping unreadable cache entry", "level", level, "error", fmt.Errorf("%w: %w", ErrCacheCorrupted, err))
			s.cache.Delete(key)
		} else {
			logging.LogCacheHit(key, len(data))
			log.Debug("Synthesis served from cache", "level", level)
			return string(data), true, nil
		}
	} else {
		logging.LogCacheMiss(key)
	}

	payload, err := s.next.Synthesize(ctx, text)
	if err != nil {
		return "", false, err
	}
	if err := s.check([]byte(payload)); err != nil {
		log.Warn("Not caching unplayable speech", "error", err)
		return payload, false, nil
	}
	if err := s.cache.Put(key, []byte(payload)); err != nil {
		log.Warn("Failed to cache synthesized speech", "error", err)
	}
	return payload, false, nil
}

// Voice forwards to the wrapped service when it has one.
func (s *Synthesizer) Voice() string {
	if v, ok := s.next.(voicer); ok {
		return v.Voice()
	}
	return ""
}

// Model forwards to the wrapped service when it has one.
func (s *Synthesizer) Model() string {
	if m, ok := s.next.(modeler); ok {
		return m.Model()
	}
	return ""
}

func (s *Synthesizer) key(text string) string {
	return Key(s.Model(), s.Voice(), text)
}

func (s *Synthesizer) check(data []byte) error {
	_, err := pcm.Decode(string(data), s.format)
	return err
}
