package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrOutputUnavailable matches every OutputUnavailableError via errors.Is.
	ErrOutputUnavailable = errors.New("audio output unavailable")

	// ErrPlaybackInProgress is returned when Play is called while a
	// previous playback has not finished.
	ErrPlaybackInProgress = errors.New("playback already in progress")

	// ErrPipelineClosed is returned after Close.
	ErrPipelineClosed = errors.New("playback pipeline closed")
)

// OutputUnavailableError reports that no usable audio output exists.
// Callers treat it as non-fatal and continue without audio.
type OutputUnavailableError struct {
	Backend string
	Err     error
}

func (e *OutputUnavailableError) Error() string {
	if e.Backend == "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", ErrOutputUnavailable, e.Err)
		}
		return ErrOutputUnavailable.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", ErrOutputUnavailable, e.Backend, e.Err)
	}
	return fmt.Sprintf("%s (%s)", ErrOutputUnavailable, e.Backend)
}

// Unwrap returns the underlying error.
func (e *OutputUnavailableError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrOutputUnavailable.
func (e *OutputUnavailableError) Is(target error) bool {
	return target == ErrOutputUnavailable
}

func unavailable(backend string, err error) error {
	var oue *OutputUnavailableError
	if errors.As(err, &oue) {
		return err
	}
	return &OutputUnavailableError{Backend: backend, Err: err}
}
