// Package session runs the conversation: it keeps the history, gates input
// while a turn is in flight, and turns every reply into speech.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/paijose/internal/audio"
	"github.com/dgnsrekt/paijose/internal/gemini"
	"github.com/dgnsrekt/paijose/internal/logging"
	"github.com/dgnsrekt/paijose/internal/pcm"
	"github.com/dgnsrekt/paijose/internal/persona"
	"github.com/dgnsrekt/paijose/internal/speech"
	"github.com/dgnsrekt/paijose/internal/voice"
	"github.com/google/uuid"
)

var (
	// ErrBusy is returned while a turn is being processed or spoken.
	ErrBusy = errors.New("pai josé is still answering")

	// ErrEmptyInput is returned for blank questions.
	ErrEmptyInput = errors.New("empty input")

	// ErrNoListener is returned by Listen when no input source exists.
	ErrNoListener = errors.New("no speech input available")
)

// Player plays speech payloads one at a time.
type Player interface {
	Play(payload string) (*audio.PlaybackHandle, error)
	Stop() bool
	IsSpeaking() bool
}

// State is the visible state of the session.
type State int

const (
	StateIdle State = iota
	StateListening
	StateProcessing
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Config wires a Session to its collaborators. Only Chat is required;
// without Speech or Player replies are text only.
type Config struct {
	Chat     voice.TextCompletionService
	Speech   voice.TextToSpeechService
	Player   Player
	Listener voice.SpeechToTextService

	// ExportDir, when set, receives a WAV file per spoken reply.
	ExportDir string
	// Format is the PCM layout of synthesized payloads.
	Format pcm.Format
}

// Reply is the outcome of one turn.
type Reply struct {
	Message voice.Message

	// Fallback is set when Message holds a canned reply.
	Fallback bool
	// Err is the chat failure behind a fallback reply.
	Err error

	// Handle tracks the playback, nil when nothing is playing.
	Handle *audio.PlaybackHandle
	// SpeechErr reports why the reply was not spoken.
	SpeechErr error
	// WAVPath is the exported file, if any.
	WAVPath string
}

// Session is one conversation with Pai José.
type Session struct {
	cfg Config

	mu         sync.Mutex
	history    []voice.Message
	listening  bool
	processing bool
}

// New starts a conversation. The greeting is recorded but not spoken.
func New(cfg Config) (*Session, error) {
	if cfg.Chat == nil {
		return nil, errors.New("session: chat service is required")
	}
	if cfg.Format == (pcm.Format{}) {
		cfg.Format = pcm.DefaultFormat()
	}

	s := &Session{cfg: cfg}
	s.history = append(s.history, newMessage(voice.RoleModel, persona.Greeting))
	return s, nil
}

// History returns a copy of the conversation so far.
func (s *Session) History() []voice.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]voice.Message(nil), s.history...)
}

// State reports what the session is doing.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.processing:
		return StateProcessing
	case s.listening:
		return StateListening
	case s.speaking():
		return StateSpeaking
	default:
		return StateIdle
	}
}

// CanListen reports whether new input may be captured.
func (s *Session) CanListen() bool {
	return s.State() == StateIdle
}

// Listen captures the next transcript.
func (s *Session) Listen(ctx context.Context) (string, error) {
	if s.cfg.Listener == nil {
		return "", ErrNoListener
	}

	s.mu.Lock()
	if s.stateLocked() != StateIdle {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.listening = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.listening = false
		s.mu.Unlock()
	}()

	return s.cfg.Listener.Listen(ctx)
}

// Ask runs one turn: the question is recorded, answered, and the answer
// spoken. Chat and speech failures do not fail the turn; they are reported
// in the Reply.
func (s *Session) Ask(ctx context.Context, text string) (Reply, error) {
	text = speech.Normalize(text)
	if text == "" {
		return Reply{}, ErrEmptyInput
	}

	s.mu.Lock()
	if s.processing || s.speaking() {
		s.mu.Unlock()
		return Reply{}, ErrBusy
	}
	s.processing = true
	s.history = append(s.history, newMessage(voice.RoleUser, text))
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	var reply Reply
	answer, err := s.complete(ctx, text)
	if err != nil {
		reply.Fallback = true
		reply.Err = err
	}

	reply.Message = newMessage(voice.RoleModel, answer)
	s.mu.Lock()
	s.history = append(s.history, reply.Message)
	s.mu.Unlock()

	s.speak(ctx, &reply)
	return reply, nil
}

// Stop silences the current reply.
func (s *Session) Stop() bool {
	if s.cfg.Player == nil {
		return false
	}
	return s.cfg.Player.Stop()
}

// complete returns the model answer, or a persona fallback and the error.
func (s *Session) complete(ctx context.Context, text string) (string, error) {
	m := logging.Start(logging.StageCompletion, text)
	answer, err := s.cfg.Chat.Send(ctx, text)
	m.Finish(len(answer), false, err)

	switch {
	case errors.Is(err, gemini.ErrEmptyReply):
		return persona.EmptyReply, err
	case err != nil:
		log.Error("Chat request failed", "error", err)
		return persona.ErrorReply, err
	}
	return answer, nil
}

func (s *Session) speak(ctx context.Context, reply *Reply) {
	if s.cfg.Speech == nil || s.cfg.Player == nil {
		return
	}

	spoken := speech.Speakable(reply.Message.Text)
	m := logging.Start(logging.StageSynthesis, spoken)
	payload, cached, err := s.synthesize(ctx, spoken)
	m.Finish(len(payload), cached, err)
	if err != nil {
		log.Warn("Speech synthesis failed", "error", err)
		reply.SpeechErr = err
		return
	}

	if s.cfg.ExportDir != "" {
		path, err := s.export(reply.Message.ID, payload)
		if err != nil {
			log.Warn("Failed to export reply", "error", err)
		} else {
			reply.WAVPath = path
		}
	}

	pm := logging.Start(logging.StagePlayback, spoken)
	h, err := s.cfg.Player.Play(payload)
	if err != nil {
		pm.Finish(0, false, err)
		log.Warn("Playback failed", "error", err)
		reply.SpeechErr = err
		return
	}
	reply.Handle = h
	go func() {
		<-h.Done()
		pm.Finish(len(payload), false, nil)
	}()
}

// cachedSynthesizer is a speech service that can tell cache hits apart.
type cachedSynthesizer interface {
	SynthesizeCached(ctx context.Context, text string) (string, bool, error)
}

func (s *Session) synthesize(ctx context.Context, text string) (string, bool, error) {
	if c, ok := s.cfg.Speech.(cachedSynthesizer); ok {
		return c.SynthesizeCached(ctx, text)
	}
	payload, err := s.cfg.Speech.Synthesize(ctx, text)
	return payload, false, err
}

func (s *Session) export(id, payload string) (string, error) {
	buf, err := pcm.Decode(payload, s.cfg.Format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.cfg.ExportDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.ExportDir, fmt.Sprintf("paijose-%s.wav", id))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := pcm.WriteWAV(f, buf); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func (s *Session) speaking() bool {
	return s.cfg.Player != nil && s.cfg.Player.IsSpeaking()
}

func newMessage(role voice.Role, text string) voice.Message {
	return voice.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}
