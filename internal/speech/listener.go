// Package speech turns typed or piped input into transcripts and model
// replies into text fit for synthesis.
package speech

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"
)

// ErrInputClosed is returned by Listen once the input is exhausted.
var ErrInputClosed = errors.New("speech input closed")

// maxLineSize bounds a single transcript line.
const maxLineSize = 64 * 1024

// LineListener reads one finalized transcript per line of input. Blank lines
// are skipped. It is safe for one caller at a time.
type LineListener struct {
	r     io.Reader
	once  sync.Once
	lines chan string

	mu  sync.Mutex
	err error
}

// NewLineListener returns a listener reading from r. Reading starts on the
// first call to Listen.
func NewLineListener(r io.Reader) *LineListener {
	return &LineListener{
		r:     r,
		lines: make(chan string),
	}
}

// Listen returns the next non-blank line, normalized. It returns
// ErrInputClosed at end of input and ctx.Err() if ctx is done first.
func (l *LineListener) Listen(ctx context.Context) (string, error) {
	l.once.Do(func() { go l.read() })

	for {
		select {
		case line, ok := <-l.lines:
			if !ok {
				return "", l.closeErr()
			}
			if text := Normalize(line); text != "" {
				return text, nil
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (l *LineListener) read() {
	scanner := bufio.NewScanner(l.r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		l.lines <- scanner.Text()
	}

	err := scanner.Err()
	if err != nil {
		log.Debug("Input reader failed", "error", err)
	}
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	close(l.lines)
}

func (l *LineListener) closeErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return errors.Join(ErrInputClosed, l.err)
	}
	return ErrInputClosed
}

// Normalize trims a transcript and converts it to NFC so that accented
// input compares equal regardless of how the terminal composed it.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
