// Package audio plays decoded speech through a single, lazily created
// output context using the oto/v3 library. It owns the speaking state and
// reports playback start and end as typed events.
package audio
