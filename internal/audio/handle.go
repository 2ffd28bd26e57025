package audio

import (
	"context"
	"sync"
	"time"

	"github.com/dgnsrekt/paijose/internal/pcm"
)

// PlaybackHandle tracks one in-flight playback.
type PlaybackHandle struct {
	buffer  *pcm.Buffer
	node    Node
	started time.Time

	done    chan struct{}
	once    sync.Once
	stopped bool
}

func newHandle(buf *pcm.Buffer) *PlaybackHandle {
	return &PlaybackHandle{
		buffer:  buf,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// Buffer returns the decoded samples being played.
func (h *PlaybackHandle) Buffer() *pcm.Buffer {
	return h.buffer
}

// Done is closed when playback ends, naturally or through Stop.
func (h *PlaybackHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until playback ends or ctx is done.
func (h *PlaybackHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stopped reports whether playback was cut short. Only meaningful after Done.
func (h *PlaybackHandle) Stopped() bool {
	select {
	case <-h.done:
		return h.stopped
	default:
		return false
	}
}

func (h *PlaybackHandle) finish(stopped bool) {
	h.once.Do(func() {
		h.stopped = stopped
		close(h.done)
	})
}
