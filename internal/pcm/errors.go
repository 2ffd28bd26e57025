package pcm

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload matches every MalformedPayloadError via errors.Is.
var ErrMalformedPayload = errors.New("malformed audio payload")

// MalformedPayloadError reports a payload that is not valid base64 or whose
// byte length does not divide into whole frames.
type MalformedPayloadError struct {
	// Length is the decoded byte length, or -1 when base64 decoding failed.
	Length int
	// FrameSize is the expected alignment in bytes.
	FrameSize int
	// Err is the underlying decode error, if any.
	Err error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrMalformedPayload, e.Err)
	}
	return fmt.Sprintf("%s: %d bytes is not a multiple of %d-byte frames",
		ErrMalformedPayload, e.Length, e.FrameSize)
}

// Unwrap returns the underlying decode error.
func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMalformedPayload.
func (e *MalformedPayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}
