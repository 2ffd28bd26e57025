// Package logging configures the application logger and records per-turn
// performance metrics for chat completion, synthesis and playback.
package logging

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Stage names the part of a turn being measured.
type Stage string

const (
	StageCompletion Stage = "completion"
	StageSynthesis  Stage = "synthesis"
	StagePlayback   Stage = "playback"
)

// Metrics holds the measurements of one stage of a turn.
type Metrics struct {
	Stage        Stage
	TextLength   int
	Start        time.Time
	End          time.Time
	Duration     time.Duration
	PayloadBytes int
	CacheHit     bool
	Failed       bool
	ErrorMessage string
}

var (
	mu      sync.Mutex
	enabled bool
	logger  = log.Default()
	history []Metrics
)

// Initialize sets the log level and enables metrics in debug mode.
func Initialize(debug bool) {
	mu.Lock()
	defer mu.Unlock()

	if debug {
		log.SetLevel(log.DebugLevel)
		log.Debug("Debug logging enabled")
	} else {
		log.SetLevel(log.InfoLevel)
	}
	enabled = debug
	logger = log.Default()
}

// Start begins measuring a stage.
func Start(stage Stage, text string) *Metrics {
	m := &Metrics{
		Stage:      stage,
		TextLength: len(text),
		Start:      time.Now(),
	}

	mu.Lock()
	on := enabled
	mu.Unlock()
	if on {
		logger.Debug("Stage started", "stage", stage, "textLength", m.TextLength)
	}
	return m
}

// Finish completes the measurement and records it.
func (m *Metrics) Finish(payloadBytes int, cacheHit bool, err error) {
	m.End = time.Now()
	m.Duration = m.End.Sub(m.Start)
	m.PayloadBytes = payloadBytes
	m.CacheHit = cacheHit
	if err != nil {
		m.Failed = true
		m.ErrorMessage = err.Error()
	}

	mu.Lock()
	history = append(history, *m)
	on := enabled
	mu.Unlock()

	if !on {
		return
	}
	if m.Failed {
		logger.Error("Stage failed",
			"stage", m.Stage,
			"duration", m.Duration,
			"error", m.ErrorMessage)
		return
	}
	logger.Debug("Stage completed",
		"stage", m.Stage,
		"textLength", m.TextLength,
		"payloadBytes", m.PayloadBytes,
		"duration", m.Duration,
		"cacheHit", m.CacheHit)
}

// LogCacheHit logs a payload cache hit.
func LogCacheHit(key string, size int) {
	log.Debug("Cache hit", "key", shortKey(key), "size", size)
}

// LogCacheMiss logs a payload cache miss.
func LogCacheMiss(key string) {
	log.Debug("Cache miss", "key", shortKey(key))
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}

// Summary aggregates the recorded metrics of one stage.
type Summary struct {
	Count       int
	Failures    int
	CacheHits   int
	TotalBytes  int
	AvgDuration time.Duration
}

// Summarize returns the summary of a stage.
func Summarize(stage Stage) Summary {
	mu.Lock()
	defer mu.Unlock()

	var s Summary
	var total time.Duration
	for _, m := range history {
		if m.Stage != stage {
			continue
		}
		s.Count++
		total += m.Duration
		s.TotalBytes += m.PayloadBytes
		if m.CacheHit {
			s.CacheHits++
		}
		if m.Failed {
			s.Failures++
		}
	}
	if s.Count > 0 {
		s.AvgDuration = total / time.Duration(s.Count)
	}
	return s
}

// Stats returns a printable report of all stages.
func Stats() string {
	out := ""
	for _, stage := range []Stage{StageCompletion, StageSynthesis, StagePlayback} {
		s := Summarize(stage)
		if s.Count == 0 {
			continue
		}
		out += fmt.Sprintf("%s: %d runs, avg %v, %d failed, %d cached, %d bytes\n",
			stage, s.Count, s.AvgDuration.Round(time.Millisecond), s.Failures, s.CacheHits, s.TotalBytes)
	}
	if out == "" {
		return "No metrics recorded\n"
	}
	return out
}

// Reset discards recorded metrics.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	history = nil
}
