package pcm

import (
	"encoding/base64"
	"errors"
	"testing"
)

// TestDecodeFrameCount tests that valid payloads yield L / (2 * channels) frames.
func TestDecodeFrameCount(t *testing.T) {
	tests := []struct {
		name     string
		bytes    int
		channels int
		frames   int
	}{
		{name: "empty mono", bytes: 0, channels: 1, frames: 0},
		{name: "single mono sample", bytes: 2, channels: 1, frames: 1},
		{name: "one second mono", bytes: 48000, channels: 1, frames: 24000},
		{name: "stereo", bytes: 8, channels: 2, frames: 2},
		{name: "six channels", bytes: 24, channels: 6, frames: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := base64.StdEncoding.EncodeToString(make([]byte, tt.bytes))
			buf, err := Decode(payload, Format{SampleRate: DefaultSampleRate, Channels: tt.channels})
			if err != nil {
				t.Fatalf("Decode returned error: %v", err)
			}
			if buf.Frames() != tt.frames {
				t.Errorf("Expected %d frames, got %d", tt.frames, buf.Frames())
			}
			if buf.NumChannels() != tt.channels {
				t.Errorf("Expected %d channels, got %d", tt.channels, buf.NumChannels())
			}
			if buf.SampleRate() != DefaultSampleRate {
				t.Errorf("Expected sample rate %d, got %d", DefaultSampleRate, buf.SampleRate())
			}
		})
	}
}

// TestDecodeMalformed tests payloads that must be rejected.
func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		channels int
	}{
		{name: "odd byte length", payload: base64.StdEncoding.EncodeToString([]byte{0x01, 0x02, 0x03}), channels: 1},
		{name: "partial stereo frame", payload: base64.StdEncoding.EncodeToString([]byte{0, 0, 0, 0, 0, 0}), channels: 2},
		{name: "not base64", payload: "%%%not-base64%%%", channels: 1},
		{name: "truncated base64", payload: "AAE", channels: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.payload, Format{SampleRate: DefaultSampleRate, Channels: tt.channels})
			if err == nil {
				t.Fatal("Expected error for malformed payload")
			}
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("Expected ErrMalformedPayload, got %v", err)
			}
			var mpe *MalformedPayloadError
			if !errors.As(err, &mpe) {
				t.Errorf("Expected *MalformedPayloadError, got %T", err)
			}
		})
	}
}

// TestDecodeNormalizationBounds tests the asymmetric 32768 divisor.
func TestDecodeNormalizationBounds(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0x00, 0x80, 0xFF, 0x7F})

	buf, err := Decode(payload, DefaultFormat())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if buf.NumChannels() != 1 || buf.Frames() != 2 {
		t.Fatalf("Expected 1 channel with 2 frames, got %d channels with %d frames",
			buf.NumChannels(), buf.Frames())
	}

	samples := buf.Channel(0)
	if samples[0] != -1.0 {
		t.Errorf("Expected -32768 to map to -1.0, got %v", samples[0])
	}
	if want := float32(32767.0 / 32768.0); samples[1] != want {
		t.Errorf("Expected 32767 to map to %v, got %v", want, samples[1])
	}
	if samples[1] >= 1.0 {
		t.Errorf("Maximum positive sample must stay below 1.0, got %v", samples[1])
	}
}

// TestDecodeChannelLayout tests that interleaved samples are split per channel.
func TestDecodeChannelLayout(t *testing.T) {
	payload := Encode([]int16{-32768, 16384, 0, -16384})

	buf, err := Decode(payload, Format{SampleRate: 16000, Channels: 2})
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	left := buf.Channel(0)
	right := buf.Channel(1)
	if left[0] != -1.0 || left[1] != 0 {
		t.Errorf("Unexpected left channel %v", left)
	}
	if right[0] != 0.5 || right[1] != -0.5 {
		t.Errorf("Unexpected right channel %v", right)
	}
}

func TestBufferIsImmutable(t *testing.T) {
	buf, err := Decode(Encode([]int16{100, 200}), DefaultFormat())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	samples := buf.Channel(0)
	samples[0] = 0.75

	if buf.Channel(0)[0] == 0.75 {
		t.Error("Mutating a returned channel must not change the buffer")
	}
}

// TestBufferConversions tests the byte layouts handed to the device and WAV writer.
func TestBufferConversions(t *testing.T) {
	in := []int16{-32768, 32767, 0, 1234}
	buf, err := Decode(Encode(in), DefaultFormat())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	out := buf.Int16()
	if len(out) != len(in) {
		t.Fatalf("Expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, in[i], out[i])
		}
	}

	if got := len(buf.Float32LE()); got != len(in)*4 {
		t.Errorf("Expected %d float32 bytes, got %d", len(in)*4, got)
	}
	if got := buf.Duration(); got.Microseconds() != int64(len(in))*1_000_000/DefaultSampleRate {
		t.Errorf("Unexpected duration %v", got)
	}
}

func TestFormatValidate(t *testing.T) {
	if err := DefaultFormat().Validate(); err != nil {
		t.Errorf("Default format should be valid: %v", err)
	}
	if err := (Format{SampleRate: 0, Channels: 1}).Validate(); err == nil {
		t.Error("Expected error for zero sample rate")
	}
	if err := (Format{SampleRate: 24000, Channels: 0}).Validate(); err == nil {
		t.Error("Expected error for zero channels")
	}
	if _, err := DecodeBytes([]byte{0, 0}, Format{SampleRate: 24000}); err == nil {
		t.Error("Expected DecodeBytes to reject an invalid format")
	}
}
