package pcm

import (
	"encoding/base64"
	"encoding/binary"
)

// Decode converts a base64 payload of signed 16-bit little-endian samples
// into a Buffer. It fails with a *MalformedPayloadError when the payload is
// not valid base64 or does not split into whole frames.
func Decode(payload string, f Format) (*Buffer, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &MalformedPayloadError{Length: -1, FrameSize: f.FrameSize(), Err: err}
	}
	return DecodeBytes(data, f)
}

// DecodeBytes is Decode for payloads that are already raw bytes.
func DecodeBytes(data []byte, f Format) (*Buffer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	frameSize := f.FrameSize()
	if len(data)%frameSize != 0 {
		return nil, &MalformedPayloadError{Length: len(data), FrameSize: frameSize}
	}

	frames := len(data) / frameSize
	buf := newBuffer(f.Channels, frames, f.SampleRate)
	for i := 0; i < frames; i++ {
		for c := 0; c < f.Channels; c++ {
			off := (i*f.Channels + c) * BytesPerSample
			raw := int16(binary.LittleEndian.Uint16(data[off:]))
			buf.channels[c][i] = float32(float64(raw) / normalizeDivisor)
		}
	}
	return buf, nil
}

// Encode produces the base64 payload for interleaved int16 samples. It is
// the inverse of Decode.
func Encode(samples []int16) string {
	data := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*BytesPerSample:], uint16(s))
	}
	return base64.StdEncoding.EncodeToString(data)
}
