package gemini

import (
	"context"
	"strings"
	"sync"
)

// ChatSession is a multi-turn conversation with a fixed system
// instruction. Only completed turns are kept in the history.
type ChatSession struct {
	client *Client
	model  string
	system string

	mu          sync.Mutex
	temperature float64
	history     []content
}

// NewChat starts an empty conversation.
func (c *Client) NewChat(model, systemInstruction string, temperature float64) *ChatSession {
	if model == "" {
		model = DefaultChatModel
	}
	return &ChatSession{
		client:      c,
		model:       model,
		system:      systemInstruction,
		temperature: temperature,
	}
}

// Send sends one user turn and returns the model's reply. On error the
// turn is not recorded.
func (s *ChatSession) Send(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := textContent("user", text)
	contents := make([]content, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, turn)

	temperature := s.temperature
	req := &generateRequest{
		Contents:         contents,
		GenerationConfig: &generationConfig{Temperature: &temperature},
	}
	if s.system != "" {
		sys := textContent("", s.system)
		req.SystemInstruction = &sys
	}

	resp, err := s.client.generateContent(ctx, s.model, req)
	if err != nil {
		return "", err
	}

	reply := resp.text()
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyReply
	}

	s.history = append(s.history, turn, textContent("model", reply))
	return reply, nil
}

// SetTemperature changes the temperature for later turns.
func (s *ChatSession) SetTemperature(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temperature = t
}

// Temperature returns the current temperature.
func (s *ChatSession) Temperature() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.temperature
}

// Turns returns the number of recorded messages.
func (s *ChatSession) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
