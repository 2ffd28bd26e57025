package audio

import "io"

// ContextState reports whether an output context can render audio.
type ContextState int

const (
	// ContextRunning indicates the context is rendering.
	ContextRunning ContextState = iota
	// ContextSuspended indicates the platform or the application paused
	// the context; it must be resumed before use.
	ContextSuspended
	// ContextClosed indicates the context was released.
	ContextClosed
)

// String returns the string representation of the state.
func (s ContextState) String() string {
	switch s {
	case ContextRunning:
		return "running"
	case ContextSuspended:
		return "suspended"
	case ContextClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// OutputContext is a handle to the platform audio output, fixed at a sample
// rate and channel count when it is created. Samples are interleaved
// little-endian float32.
type OutputContext interface {
	// NewNode creates an output node that renders the samples read from r.
	NewNode(r io.Reader) (Node, error)

	// State returns the current context state.
	State() ContextState

	// Resume resumes a suspended context.
	Resume() error

	// Suspend pauses all output.
	Suspend() error

	// Close releases the context.
	Close() error

	// SampleRate returns the sample rate in Hz.
	SampleRate() int

	// ChannelCount returns the number of channels.
	ChannelCount() int
}

// Node is one source connected to the context's destination.
type Node interface {
	// Play starts rendering.
	Play()

	// Pause stops rendering without releasing the node.
	Pause()

	// IsPlaying reports whether the node still has samples to render.
	IsPlaying() bool

	// SetVolume sets the node volume (0.0 to 1.0).
	SetVolume(volume float64)

	// Close releases the node.
	Close() error
}

// ContextFactory creates an output context for the given format.
type ContextFactory func(sampleRate, channels int) (OutputContext, error)

// bytesPerOutputSample is the size of one float32 output sample.
const bytesPerOutputSample = 4
