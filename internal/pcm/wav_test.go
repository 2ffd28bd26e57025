package pcm

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWAVRoundTrip(t *testing.T) {
	in := []int16{-32768, -1, 0, 1, 32767, 512}
	buf, err := Decode(Encode(in), Format{SampleRate: 24000, Channels: 2})
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "reply.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := WriteWAV(f, buf); err != nil {
		t.Fatalf("WriteWAV returned error: %v", err)
	}
	_ = f.Close()

	f, err = os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open file: %v", err)
	}
	defer f.Close()

	got, err := ReadWAV(f)
	if err != nil {
		t.Fatalf("ReadWAV returned error: %v", err)
	}
	if got.SampleRate() != 24000 || got.NumChannels() != 2 || got.Frames() != 3 {
		t.Fatalf("Unexpected format: %d Hz, %d channels, %d frames",
			got.SampleRate(), got.NumChannels(), got.Frames())
	}

	out := got.Int16()
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, in[i], out[i])
		}
	}
}
