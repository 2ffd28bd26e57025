package audio

import "time"

// Event is a playback notification delivered on Pipeline.Events.
type Event interface {
	event()
}

// PlaybackStarted is sent once the output node has been started.
type PlaybackStarted struct {
	Frames   int
	Duration time.Duration
}

// PlaybackEnded is sent when a started playback finishes or is stopped.
// Every PlaybackStarted is followed by exactly one PlaybackEnded.
type PlaybackEnded struct {
	Stopped bool
	Elapsed time.Duration
}

// PlaybackFailed is sent when a play request fails before it starts.
type PlaybackFailed struct {
	Err error
}

func (PlaybackStarted) event() {}
func (PlaybackEnded) event()   {}
func (PlaybackFailed) event()  {}
