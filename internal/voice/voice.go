// Package voice defines the conversation types and the narrow interfaces
// the session uses to reach its external collaborators.
package voice

import (
	"context"
	"time"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one turn of the conversation.
type Message struct {
	ID        string
	Role      Role
	Text      string
	Timestamp time.Time
}

// TextCompletionService answers a user turn with the model's reply.
type TextCompletionService interface {
	Send(ctx context.Context, text string) (string, error)
}

// SpeechToTextService returns the next finalized transcript.
type SpeechToTextService interface {
	Listen(ctx context.Context) (string, error)
}

// TextToSpeechService synthesizes text into a base64 payload of 16-bit
// little-endian PCM.
type TextToSpeechService interface {
	Synthesize(ctx context.Context, text string) (string, error)
}
