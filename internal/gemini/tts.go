package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrEmptyText is returned when there is nothing to synthesize.
var ErrEmptyText = errors.New("nothing to synthesize")

// Synthesizer turns text into base64 16-bit PCM with a prebuilt voice.
type Synthesizer struct {
	client *Client
	model  string

	mu    sync.RWMutex
	voice string
}

// NewSynthesizer creates a synthesizer for the given model and voice.
func (c *Client) NewSynthesizer(model, voice string) *Synthesizer {
	if model == "" {
		model = DefaultTTSModel
	}
	if voice == "" {
		voice = DefaultVoice
	}
	return &Synthesizer{client: c, model: model, voice: voice}
}

// Synthesize returns the audio payload for text.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	voice := s.Voice()
	req := &generateRequest{
		Contents: []content{textContent("", text)},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice},
				},
			},
		},
	}

	resp, err := s.client.generateContent(ctx, s.model, req)
	if err != nil {
		return "", err
	}

	audio := resp.audio()
	if audio == nil {
		return "", ErrNoAudio
	}
	log.Debug("Speech synthesized", "voice", voice, "mime_type", audio.MimeType, "payload_bytes", len(audio.Data))
	return audio.Data, nil
}

// Model returns the TTS model name.
func (s *Synthesizer) Model() string {
	return s.model
}

// Voice returns the current voice.
func (s *Synthesizer) Voice() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voice
}

// SetVoice changes the voice for later requests.
func (s *Synthesizer) SetVoice(voice string) {
	if voice == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice = voice
}
