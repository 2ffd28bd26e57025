package pcm

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WriteWAV writes b as a 16-bit PCM WAV file.
func WriteWAV(w io.WriteSeeker, b *Buffer) error {
	enc := wav.NewEncoder(w, b.sampleRate, BitDepth, b.NumChannels(), wavFormatPCM)

	samples := b.Int16()
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: b.NumChannels(),
			SampleRate:  b.sampleRate,
		},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// ReadWAV decodes a 16-bit PCM WAV file into a Buffer.
func ReadWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav")
	}
	if dec.BitDepth != BitDepth {
		return nil, fmt.Errorf("unsupported wav bit depth %d (want %d)", dec.BitDepth, BitDepth)
	}

	ib, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read wav samples: %w", err)
	}

	f := Format{SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans)}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	frames := len(ib.Data) / f.Channels
	buf := newBuffer(f.Channels, frames, f.SampleRate)
	for i := 0; i < frames; i++ {
		for c := 0; c < f.Channels; c++ {
			buf.channels[c][i] = float32(float64(ib.Data[i*f.Channels+c]) / normalizeDivisor)
		}
	}
	return buf, nil
}
