package pcm

import (
	"encoding/binary"
	"math"
	"time"
)

// Buffer holds decoded, normalized samples split per channel. A Buffer is
// immutable once built; accessors hand out copies.
type Buffer struct {
	channels   [][]float32
	frames     int
	sampleRate int
}

func newBuffer(channels, frames, sampleRate int) *Buffer {
	b := &Buffer{
		channels:   make([][]float32, channels),
		frames:     frames,
		sampleRate: sampleRate,
	}
	for c := range b.channels {
		b.channels[c] = make([]float32, frames)
	}
	return b
}

// NumChannels returns the number of channels.
func (b *Buffer) NumChannels() int {
	return len(b.channels)
}

// Frames returns the number of frames in every channel.
func (b *Buffer) Frames() int {
	return b.frames
}

// SampleRate returns the sample rate in Hz.
func (b *Buffer) SampleRate() int {
	return b.sampleRate
}

// Format returns the format the buffer was decoded with.
func (b *Buffer) Format() Format {
	return Format{SampleRate: b.sampleRate, Channels: len(b.channels)}
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	return b.Format().Duration(b.frames)
}

// Channel returns a copy of the amplitudes of channel c.
func (b *Buffer) Channel(c int) []float32 {
	out := make([]float32, b.frames)
	copy(out, b.channels[c])
	return out
}

// Float32LE interleaves the channels into little-endian IEEE-754 float32
// bytes, the layout the output device is opened with.
func (b *Buffer) Float32LE() []byte {
	n := len(b.channels)
	out := make([]byte, b.frames*n*4)
	for i := 0; i < b.frames; i++ {
		for c := 0; c < n; c++ {
			off := (i*n + c) * 4
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(b.channels[c][i]))
		}
	}
	return out
}

// Int16 interleaves the channels back into signed 16-bit samples. Decoded
// buffers convert back without loss.
func (b *Buffer) Int16() []int16 {
	n := len(b.channels)
	out := make([]int16, b.frames*n)
	for i := 0; i < b.frames; i++ {
		for c := 0; c < n; c++ {
			out[i*n+c] = toInt16(b.channels[c][i])
		}
	}
	return out
}

func toInt16(v float32) int16 {
	s := math.Round(float64(v) * normalizeDivisor)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}
