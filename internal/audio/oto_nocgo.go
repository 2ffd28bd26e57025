//go:build nocgo
// +build nocgo

package audio

import "errors"

// NewOtoContext always fails in builds without cgo.
func NewOtoContext(sampleRate, channels int) (OutputContext, error) {
	return nil, unavailable("oto", errors.New("audio not available in nocgo build"))
}
