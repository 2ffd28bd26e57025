package pcm

import (
	"fmt"
	"time"
)

// Audio format constants for synthesized speech.
const (
	// DefaultSampleRate matches the output of the synthesis service.
	DefaultSampleRate = 24000
	// DefaultChannels is mono.
	DefaultChannels = 1
	// BitDepth is the bit depth of every encoded sample.
	BitDepth = 16
	// BytesPerSample is the size of one encoded sample.
	BytesPerSample = BitDepth / 8

	// normalizeDivisor maps int16 samples into [-1.0, 1.0). -32768 becomes
	// exactly -1.0 and 32767 becomes 32767/32768.
	normalizeDivisor = 32768.0
)

// Format describes the out-of-band parameters of an encoded payload.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat returns the 24 kHz mono format used by the synthesis service.
func DefaultFormat() Format {
	return Format{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
	}
}

// FrameSize returns the number of encoded bytes in one frame.
func (f Format) FrameSize() int {
	return BytesPerSample * f.Channels
}

// Validate checks that the format can describe a playable stream.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", f.Channels)
	}
	return nil
}

// Duration returns the playback length of the given number of frames.
func (f Format) Duration(frames int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}
