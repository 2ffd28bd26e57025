package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/paijose/internal/pcm"
)

const (
	defaultPollInterval = 20 * time.Millisecond
	defaultEventBuffer  = 16
)

// Config controls a Pipeline.
type Config struct {
	SampleRate   int
	Channels     int
	Volume       float64
	PollInterval time.Duration
	EventBuffer  int
}

// DefaultConfig returns the configuration for Gemini speech output.
func DefaultConfig() Config {
	return Config{
		SampleRate:   pcm.DefaultSampleRate,
		Channels:     pcm.DefaultChannels,
		Volume:       1.0,
		PollInterval: defaultPollInterval,
		EventBuffer:  defaultEventBuffer,
	}
}

// Pipeline decodes speech payloads and plays them one at a time through a
// single lazily created output context.
type Pipeline struct {
	cfg     Config
	format  pcm.Format
	factory ContextFactory

	mu      sync.Mutex
	octx    OutputContext
	current *PlaybackHandle
	closed  bool

	speaking atomic.Bool
	events   chan Event
}

// NewPipeline creates a pipeline. The factory is called at most once, on
// the first request that needs an output context.
func NewPipeline(cfg Config, factory ContextFactory) (*Pipeline, error) {
	if factory == nil {
		return nil, errors.New("audio: nil context factory")
	}

	def := DefaultConfig()
	if cfg.SampleRate == 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.Channels == 0 {
		cfg.Channels = def.Channels
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = def.EventBuffer
	}
	if cfg.Volume < 0 || cfg.Volume > 1 {
		return nil, fmt.Errorf("audio: volume %.2f out of range [0, 1]", cfg.Volume)
	}

	format := pcm.Format{SampleRate: cfg.SampleRate, Channels: cfg.Channels}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:     cfg,
		format:  format,
		factory: factory,
		events:  make(chan Event, cfg.EventBuffer),
	}, nil
}

// Format returns the PCM layout payloads are decoded with.
func (p *Pipeline) Format() pcm.Format {
	return p.format
}

// Decode converts a payload into a sample buffer using the pipeline format.
func (p *Pipeline) Decode(payload string) (*pcm.Buffer, error) {
	return pcm.Decode(payload, p.format)
}

// EnsureOutputContext returns the shared output context, creating it on
// first use and resuming it if it was suspended.
func (p *Pipeline) EnsureOutputContext() (OutputContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureLocked()
}

func (p *Pipeline) ensureLocked() (OutputContext, error) {
	if p.closed {
		return nil, ErrPipelineClosed
	}

	if p.octx == nil {
		octx, err := p.factory(p.format.SampleRate, p.format.Channels)
		if err != nil {
			if !errors.Is(err, ErrOutputUnavailable) {
				err = unavailable("", err)
			}
			return nil, err
		}
		log.Debug("Audio output context created",
			"sample_rate", octx.SampleRate(),
			"channels", octx.ChannelCount())
		p.octx = octx
	}

	switch p.octx.State() {
	case ContextSuspended:
		log.Debug("Resuming suspended audio output context")
		if err := p.octx.Resume(); err != nil {
			return nil, unavailable("", fmt.Errorf("resume: %w", err))
		}
	case ContextClosed:
		return nil, unavailable("", errors.New("audio output context closed"))
	}

	return p.octx, nil
}

// Play decodes payload and starts playing it. It returns once playback has
// started; the handle's Done channel closes when it ends. A call made while
// another playback is in flight fails with ErrPlaybackInProgress.
func (p *Pipeline) Play(payload string) (*PlaybackHandle, error) {
	buf, err := p.Decode(payload)
	if err != nil {
		p.mu.Lock()
		p.emitLocked(PlaybackFailed{Err: err})
		p.mu.Unlock()
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPipelineClosed
	}
	if p.current != nil {
		return nil, ErrPlaybackInProgress
	}

	octx, err := p.ensureLocked()
	if err != nil {
		p.failLocked(err)
		return nil, err
	}

	h := newHandle(buf)

	if buf.Frames() > 0 {
		node, err := octx.NewNode(bytes.NewReader(buf.Float32LE()))
		if err != nil {
			err = fmt.Errorf("create output node: %w", err)
			p.failLocked(err)
			return nil, err
		}
		node.SetVolume(p.cfg.Volume)
		h.node = node
	}

	p.current = h
	p.speaking.Store(true)
	p.emitLocked(PlaybackStarted{Frames: buf.Frames(), Duration: buf.Duration()})

	if h.node == nil {
		// Nothing to play.
		p.finishLocked(h, false)
		return h, nil
	}

	h.node.Play()
	log.Debug("Playback started", "frames", buf.Frames(), "duration", buf.Duration())

	go p.monitor(h)
	return h, nil
}

// Stop ends the in-flight playback, if any, and reports whether there was one.
func (p *Pipeline) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return false
	}
	log.Debug("Stopping playback")
	p.finishLocked(p.current, true)
	return true
}

// IsSpeaking reports whether a playback is in flight.
func (p *Pipeline) IsSpeaking() bool {
	return p.speaking.Load()
}

// Events returns the notification channel. It has a single consumer and is
// closed by Close. Events are dropped if the consumer falls behind.
func (p *Pipeline) Events() <-chan Event {
	return p.events
}

// Close stops any playback, releases the output context and closes the
// event channel.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	if p.current != nil {
		p.finishLocked(p.current, true)
	}
	p.closed = true
	close(p.events)

	if p.octx != nil {
		err := p.octx.Close()
		p.octx = nil
		return err
	}
	return nil
}

// monitor polls the node until it drains, then finishes the handle.
func (p *Pipeline) monitor(h *PlaybackHandle) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			if h.node.IsPlaying() {
				continue
			}
			p.mu.Lock()
			p.finishLocked(h, false)
			p.mu.Unlock()
			return
		}
	}
}

// finishLocked releases h if it is still current. Callers hold p.mu.
func (p *Pipeline) finishLocked(h *PlaybackHandle, stopped bool) {
	if p.current != h {
		return
	}
	p.current = nil

	if h.node != nil {
		if stopped {
			h.node.Pause()
		}
		if err := h.node.Close(); err != nil {
			log.Debug("Failed to close output node", "error", err)
		}
	}

	p.speaking.Store(false)
	h.finish(stopped)

	elapsed := time.Since(h.started)
	log.Debug("Playback ended", "stopped", stopped, "elapsed", elapsed)
	p.emitLocked(PlaybackEnded{Stopped: stopped, Elapsed: elapsed})
}

func (p *Pipeline) failLocked(err error) {
	p.speaking.Store(false)
	log.Warn("Playback failed", "error", err)
	p.emitLocked(PlaybackFailed{Err: err})
}

func (p *Pipeline) emitLocked(ev Event) {
	if p.closed {
		return
	}
	select {
	case p.events <- ev:
	default:
		log.Debug("Dropping playback event, consumer is behind", "event", fmt.Sprintf("%T", ev))
	}
}
