//go:build !nocgo
// +build !nocgo

package audio

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// otoReadyTimeout bounds the wait for the device to come up.
const otoReadyTimeout = 5 * time.Second

// OtoContext implements OutputContext on top of an oto.Context. oto allows
// one context per process, so an OtoContext must be created once and shared.
type OtoContext struct {
	context    *oto.Context
	mu         sync.Mutex
	state      ContextState
	sampleRate int
	channels   int
}

// NewOtoContext opens the default audio device in float32 mode.
func NewOtoContext(sampleRate, channels int) (OutputContext, error) {
	options := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	}

	// Platform-specific buffer size adjustments
	switch runtime.GOOS {
	case "darwin":
		options.BufferSize = 100 * time.Millisecond
	case "windows":
		options.BufferSize = 80 * time.Millisecond
	default:
		options.BufferSize = 50 * time.Millisecond
	}

	log.Debug("Initializing audio output context",
		"sample_rate", options.SampleRate,
		"channels", options.ChannelCount,
		"buffer_size", options.BufferSize)

	context, readyChan, err := oto.NewContext(options)
	if err != nil {
		return nil, unavailable("oto", fmt.Errorf("failed to create audio context: %w", err))
	}

	select {
	case <-readyChan:
	case <-time.After(otoReadyTimeout):
		// oto/v3 contexts cannot be closed; it is left to the runtime.
		return nil, unavailable("oto", fmt.Errorf("audio context initialization timeout after %v", otoReadyTimeout))
	}

	if err := context.Err(); err != nil {
		return nil, unavailable("oto", err)
	}

	log.Debug("Audio output context ready")
	return &OtoContext{
		context:    context,
		state:      ContextRunning,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// NewNode creates an oto player reading from r.
func (c *OtoContext) NewNode(r io.Reader) (Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ContextClosed || c.context == nil {
		return nil, errors.New("audio context closed")
	}
	return &otoNode{player: c.context.NewPlayer(r)}, nil
}

// State returns the current context state.
func (c *OtoContext) State() ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume resumes a suspended context.
func (c *OtoContext) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ContextClosed {
		return errors.New("audio context closed")
	}
	if err := c.context.Resume(); err != nil {
		return err
	}
	c.state = ContextRunning
	return nil
}

// Suspend suspends the context.
func (c *OtoContext) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ContextClosed {
		return errors.New("audio context closed")
	}
	if err := c.context.Suspend(); err != nil {
		return err
	}
	c.state = ContextSuspended
	return nil
}

// Close marks the context closed. oto/v3 has no way to release the device;
// it is reclaimed when the process exits.
func (c *OtoContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ContextClosed
	return nil
}

// SampleRate returns the sample rate.
func (c *OtoContext) SampleRate() int {
	return c.sampleRate
}

// ChannelCount returns the number of channels.
func (c *OtoContext) ChannelCount() int {
	return c.channels
}

type otoNode struct {
	player *oto.Player
}

func (n *otoNode) Play() {
	n.player.Play()
}

func (n *otoNode) Pause() {
	n.player.Pause()
}

func (n *otoNode) IsPlaying() bool {
	return n.player.IsPlaying()
}

func (n *otoNode) SetVolume(volume float64) {
	n.player.SetVolume(volume)
}

func (n *otoNode) Close() error {
	return n.player.Close()
}
