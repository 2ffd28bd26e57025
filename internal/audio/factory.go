package audio

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Backend selects which OutputContext implementation a factory builds.
type Backend string

const (
	BackendAuto Backend = "auto"
	BackendOto  Backend = "oto"
	BackendMock Backend = "mock"
	BackendNone Backend = "none"
)

// ParseBackend parses a backend name. The empty string means auto.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendOto, BackendMock, BackendNone:
		return b, nil
	default:
		return "", fmt.Errorf("unknown audio backend %q (want auto, oto, mock or none)", s)
	}
}

// IsCI detects if we're running in a CI environment
func IsCI() bool {
	ciVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"BUILDKITE",
	}

	for _, envVar := range ciVars {
		if val := os.Getenv(envVar); val != "" && val != "false" {
			log.Debug("CI environment detected", "variable", envVar, "value", val)
			return true
		}
	}

	if os.Getenv("PAIJOSE_MOCK_AUDIO") == "true" {
		log.Debug("Mock audio requested via environment variable")
		return true
	}

	return false
}

// NewContextFactory returns a ContextFactory for the given backend.
func NewContextFactory(backend Backend) (ContextFactory, error) {
	switch backend {
	case BackendOto:
		return NewOtoContext, nil

	case BackendMock:
		return mockFactory, nil

	case BackendNone:
		return func(int, int) (OutputContext, error) {
			return nil, unavailable(string(BackendNone), errors.New("audio output disabled"))
		}, nil

	case BackendAuto, "":
		return func(sampleRate, channels int) (OutputContext, error) {
			if IsCI() {
				log.Info("Using mock audio context", "reason", "CI environment")
				return mockFactory(sampleRate, channels)
			}
			return NewOtoContext(sampleRate, channels)
		}, nil

	default:
		return nil, fmt.Errorf("unknown audio backend: %q", backend)
	}
}

func mockFactory(sampleRate, channels int) (OutputContext, error) {
	mc := NewMockContext(sampleRate, channels)
	mc.Realtime = true
	return mc, nil
}
