package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgnsrekt/paijose/internal/audio"
	"github.com/dgnsrekt/paijose/internal/gemini"
	"github.com/dgnsrekt/paijose/internal/pcm"
	"github.com/dgnsrekt/paijose/internal/session"
	"github.com/dgnsrekt/paijose/internal/speech"
)

func TestValidateStyle(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "style.json")
	if err := os.WriteFile(custom, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		style   string
		wantErr bool
	}{
		{"auto", false},
		{"dark", false},
		{custom, false},
		{filepath.Join(dir, "missing.json"), true},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			err := validateStyle(tt.style)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateStyle(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
			}
		})
	}
}

func TestReadPayload(t *testing.T) {
	dir := t.TempDir()
	samples := []int16{0, 16384, -32768, 32767}

	b64 := filepath.Join(dir, "reply.b64")
	encoded := pcm.Encode(samples)
	// payloads are often wrapped by other tools
	wrapped := encoded[:4] + "\n" + encoded[4:] + "\n"
	if err := os.WriteFile(b64, []byte(wrapped), 0o600); err != nil {
		t.Fatal(err)
	}

	payload, buf, err := readPayload(b64, pcm.DefaultFormat())
	if err != nil {
		t.Fatalf("readPayload() error = %v", err)
	}
	if payload != encoded {
		t.Errorf("payload = %q, want %q", payload, encoded)
	}
	if buf.Frames() != len(samples) {
		t.Errorf("frames = %d, want %d", buf.Frames(), len(samples))
	}

	wavPath := filepath.Join(dir, "reply.wav")
	if err := saveWAV(wavPath, buf); err != nil {
		t.Fatalf("saveWAV() error = %v", err)
	}
	payload, wbuf, err := readPayload(wavPath, pcm.Format{SampleRate: 8000, Channels: 2})
	if err != nil {
		t.Fatalf("readPayload(wav) error = %v", err)
	}
	if payload != encoded {
		t.Errorf("wav payload = %q, want %q", payload, encoded)
	}
	if wbuf.SampleRate() != pcm.DefaultSampleRate {
		t.Errorf("wav sample rate = %d, want %d", wbuf.SampleRate(), pcm.DefaultSampleRate)
	}
}

func TestReadPayloadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.b64")
	odd := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	if err := os.WriteFile(path, []byte(odd), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := readPayload(path, pcm.DefaultFormat()); err == nil {
		t.Fatal("readPayload() accepted a misaligned payload")
	}
}

func TestRunLines(t *testing.T) {
	chat := &fakeChat{reply: "Saravá, meu filho."}
	a := newTestApp(t, chat, "Qual é o caminho?\n\n   \nObrigado\n")
	width = 80

	var out bytes.Buffer
	if err := runLines(context.Background(), a, &out); err != nil {
		t.Fatalf("runLines() error = %v", err)
	}

	got := strings.Count(out.String(), "Pai José de Angola: Saravá, meu filho.")
	if got != 2 {
		t.Errorf("printed %d replies, want 2:\n%s", got, out.String())
	}
	if len(chat.asked) != 2 || chat.asked[0] != "Qual é o caminho?" {
		t.Errorf("asked = %q", chat.asked)
	}
}

type fakeChat struct {
	reply  string
	asked  []string
	cancel context.CancelFunc
}

func (f *fakeChat) Send(ctx context.Context, text string) (string, error) {
	f.asked = append(f.asked, text)
	if f.cancel != nil {
		f.cancel()
		return "", ctx.Err()
	}
	return f.reply, nil
}

type fakeTTS struct{}

func (fakeTTS) Synthesize(context.Context, string) (string, error) {
	return pcm.Encode(make([]int16, 240)), nil
}

func newTestApp(t *testing.T, chat *fakeChat, input string) *app {
	t.Helper()

	s := settings{Audio: audioSettings{
		SampleRate: pcm.DefaultSampleRate,
		Channels:   pcm.DefaultChannels,
		Backend:    audio.BackendMock,
		Volume:     1,
	}}
	p, err := newPipeline(s)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close() })

	sess, err := session.New(session.Config{
		Chat:     chat,
		Speech:   fakeTTS{},
		Player:   p,
		Listener: speech.NewLineListener(strings.NewReader(input)),
		Format:   s.format(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return &app{pipeline: p, session: sess}
}

func TestRunLinesInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chat := &fakeChat{reply: "Saravá", cancel: cancel}
	a := newTestApp(t, chat, "Qual é o caminho?\nE depois?\n")

	var out bytes.Buffer
	if err := runLines(ctx, a, &out); err != nil {
		t.Fatalf("runLines() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("printed %q after interrupt", out.String())
	}
	if len(chat.asked) != 1 {
		t.Errorf("asked %d questions, want 1", len(chat.asked))
	}
}

func TestAppReload(t *testing.T) {
	client, err := gemini.NewClient(gemini.Config{APIKey: "test"})
	if err != nil {
		t.Fatal(err)
	}
	a := &app{
		chat:  client.NewChat(gemini.DefaultChatModel, "", 0.7),
		synth: client.NewSynthesizer(gemini.DefaultTTSModel, "Charon"),
	}

	var s settings
	s.Gemini.Voice = "Kore"
	s.Gemini.Temperature = 0.3
	a.reload(s)

	if a.synth.Voice() != "Kore" || a.chat.Temperature() != 0.3 {
		t.Errorf("voice = %q, temperature = %v", a.synth.Voice(), a.chat.Temperature())
	}
}
