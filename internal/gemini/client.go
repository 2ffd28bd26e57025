// Package gemini talks to the Gemini generateContent REST API for chat
// replies and speech synthesis.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the public Gemini API base URL.
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultChatModel answers the conversation.
	DefaultChatModel = "gemini-2.5-flash"

	// DefaultTTSModel synthesizes replies.
	DefaultTTSModel = "gemini-2.5-flash-preview-tts"

	// DefaultVoice is the prebuilt voice used for Pai José.
	DefaultVoice = "Charon"

	// DefaultTemperature is the chat sampling temperature.
	DefaultTemperature = 0.7

	defaultTimeout   = 60 * time.Second
	maxErrorBodySize = 4096
	defaultRPM       = 30
)

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("gemini API key not configured (set GEMINI_API_KEY)")

	// ErrNoCandidates is returned when the response carries no candidates.
	ErrNoCandidates = errors.New("no candidates in response")

	// ErrEmptyReply is returned when the model answers with no text.
	ErrEmptyReply = errors.New("model returned an empty reply")

	// ErrNoAudio is returned when a synthesis response carries no audio.
	ErrNoAudio = errors.New("no audio in response")
)

// APIError is a non-200 answer from the API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini error (status %d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini error (status %d): %s", e.StatusCode, e.Message)
}

// Config configures a Client.
type Config struct {
	APIKey            string
	Endpoint          string
	Timeout           time.Duration
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// Client sends generateContent requests.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client. RequestsPerMinute below zero disables rate
// limiting; zero selects the default.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = defaultRPM
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

func (c *Client) generateContent(ctx context.Context, model string, req *generateRequest) (*generateResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// API key goes in a header so it never shows up in logged URLs.
	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.Endpoint, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	log.Debug("Gemini request completed",
		"model", model,
		"duration", time.Since(start),
		"prompt_tokens", out.UsageMetadata.PromptTokenCount,
		"candidate_tokens", out.UsageMetadata.CandidatesTokenCount)

	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("%w: blocked (%s)", ErrNoCandidates, out.PromptFeedback.BlockReason)
		}
		return nil, ErrNoCandidates
	}
	return &out, nil
}

func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error.Message != "" {
		apiErr.Status = er.Error.Status
		apiErr.Message = er.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
