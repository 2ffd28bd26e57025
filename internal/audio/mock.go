package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// MockContext implements OutputContext without touching an audio device.
// Nodes finish as soon as they are polled unless Realtime or Hold is set.
type MockContext struct {
	mu         sync.Mutex
	state      ContextState
	sampleRate int
	channels   int
	nodes      []*MockNode

	// Realtime makes nodes report playing for the duration of their data.
	Realtime bool
	// Hold keeps nodes playing until Finish is called on them.
	Hold bool
	// NodeErr, when set, is returned by NewNode.
	NodeErr error

	// Test helpers
	NodesCreated int
	ResumeCount  int
}

// NewMockContext creates a running mock context.
func NewMockContext(sampleRate, channels int) *MockContext {
	log.Debug("Creating mock audio context", "sample_rate", sampleRate, "channels", channels)
	return &MockContext{
		state:      ContextRunning,
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// NewNode drains r and returns a node that simulates playing it.
func (mc *MockContext) NewNode(r io.Reader) (Node, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.state == ContextClosed {
		return nil, errors.New("mock audio context closed")
	}
	if mc.NodeErr != nil {
		return nil, mc.NodeErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	frameBytes := bytesPerOutputSample * mc.channels
	frames := 0
	if frameBytes > 0 {
		frames = len(data) / frameBytes
	}
	var duration time.Duration
	if mc.sampleRate > 0 {
		duration = time.Duration(frames) * time.Second / time.Duration(mc.sampleRate)
	}

	node := &MockNode{
		data:     data,
		duration: duration,
		realtime: mc.Realtime,
		hold:     mc.Hold,
		volume:   1.0,
	}
	mc.nodes = append(mc.nodes, node)
	mc.NodesCreated++

	log.Debug("Created mock audio node", "data_size", len(data), "duration", duration)
	return node, nil
}

// State returns the current state.
func (mc *MockContext) State() ContextState {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.state
}

// Resume moves a suspended context back to running.
func (mc *MockContext) Resume() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.state == ContextClosed {
		return errors.New("mock audio context closed")
	}
	mc.state = ContextRunning
	mc.ResumeCount++
	return nil
}

// Suspend suspends the context.
func (mc *MockContext) Suspend() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.state == ContextClosed {
		return errors.New("mock audio context closed")
	}
	mc.state = ContextSuspended
	return nil
}

// Close closes the context and every node created from it.
func (mc *MockContext) Close() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, n := range mc.nodes {
		_ = n.Close()
	}
	mc.state = ContextClosed
	return nil
}

// SampleRate returns the sample rate.
func (mc *MockContext) SampleRate() int {
	return mc.sampleRate
}

// ChannelCount returns the number of channels.
func (mc *MockContext) ChannelCount() int {
	return mc.channels
}

// LastNode returns the most recently created node, or nil.
func (mc *MockContext) LastNode() *MockNode {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if len(mc.nodes) == 0 {
		return nil
	}
	return mc.nodes[len(mc.nodes)-1]
}

// MockNode implements Node for MockContext.
type MockNode struct {
	data     []byte
	duration time.Duration
	realtime bool
	hold     bool

	mu        sync.Mutex
	started   time.Time
	volume    float64
	playing   atomic.Bool
	finished  atomic.Bool
	closed    atomic.Bool
	PlayCount int
}

// Play starts the simulated playback.
func (n *MockNode) Play() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed.Load() {
		return
	}
	n.started = time.Now()
	n.PlayCount++
	n.playing.Store(true)
}

// Pause halts the simulated playback.
func (n *MockNode) Pause() {
	n.playing.Store(false)
}

// IsPlaying reports whether the node is still producing sound.
func (n *MockNode) IsPlaying() bool {
	if !n.playing.Load() || n.closed.Load() || n.finished.Load() {
		return false
	}
	if n.hold {
		return true
	}
	if n.realtime {
		n.mu.Lock()
		elapsed := time.Since(n.started)
		n.mu.Unlock()
		return elapsed < n.duration
	}
	return false
}

// SetVolume records the volume.
func (n *MockNode) SetVolume(volume float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.volume = volume
}

// Volume returns the last volume set.
func (n *MockNode) Volume() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.volume
}

// Close releases the node.
func (n *MockNode) Close() error {
	n.closed.Store(true)
	n.playing.Store(false)
	return nil
}

// Finish ends a held node as if its data ran out.
func (n *MockNode) Finish() {
	n.finished.Store(true)
}

// Data returns the bytes the node was given.
func (n *MockNode) Data() []byte {
	return n.data
}

// Duration returns the simulated length of the data.
func (n *MockNode) Duration() time.Duration {
	return n.duration
}

// IsClosed reports whether Close was called.
func (n *MockNode) IsClosed() bool {
	return n.closed.Load()
}
