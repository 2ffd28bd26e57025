// Package pcm decodes the headerless 16-bit PCM payloads returned by the
// speech synthesis service into normalized sample buffers, and converts
// those buffers to the byte layouts the audio device and WAV files expect.
package pcm
