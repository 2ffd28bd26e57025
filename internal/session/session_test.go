package session

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/paijose/internal/audio"
	"github.com/dgnsrekt/paijose/internal/cache"
	"github.com/dgnsrekt/paijose/internal/gemini"
	"github.com/dgnsrekt/paijose/internal/logging"
	"github.com/dgnsrekt/paijose/internal/pcm"
	"github.com/dgnsrekt/paijose/internal/persona"
	"github.com/dgnsrekt/paijose/internal/voice"
)

type fakeChat struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
	block   chan struct{}
}

func (f *fakeChat) Send(ctx context.Context, text string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, text)
	return f.reply, f.err
}

type fakeTTS struct {
	mu      sync.Mutex
	payload string
	err     error
	texts   []string
}

func (f *fakeTTS) Synthesize(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.payload, f.err
}

type fakeListener struct {
	text string
	err  error
}

func (f *fakeListener) Listen(ctx context.Context) (string, error) {
	return f.text, f.err
}

var _ voice.SpeechToTextService = (*fakeListener)(nil)

func newPipeline(t *testing.T, hold bool) (*audio.Pipeline, *audio.MockContext) {
	t.Helper()
	mc := audio.NewMockContext(pcm.DefaultSampleRate, pcm.DefaultChannels)
	mc.Hold = hold
	cfg := audio.DefaultConfig()
	cfg.PollInterval = time.Millisecond
	p, err := audio.NewPipeline(cfg, func(int, int) (audio.OutputContext, error) { return mc, nil })
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, mc
}

func TestNewSessionGreets(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New without chat succeeded")
	}

	s, err := New(Config{Chat: &fakeChat{}})
	if err != nil {
		t.Fatal(err)
	}
	h := s.History()
	if len(h) != 1 || h[0].Role != voice.RoleModel || h[0].Text != persona.Greeting || h[0].ID == "" {
		t.Errorf("history = %+v", h)
	}
	if s.State() != StateIdle || !s.CanListen() {
		t.Error("new session is not idle")
	}
}

func TestAskSpeaksReply(t *testing.T) {
	chat := &fakeChat{reply: "**Saravá**, zifio."}
	tts := &fakeTTS{payload: pcm.Encode([]int16{1, 2, 3, 4})}
	player, mc := newPipeline(t, true)

	s, err := New(Config{Chat: chat, Speech: tts, Player: player})
	if err != nil {
		t.Fatal(err)
	}

	reply, err := s.Ask(context.Background(), "  Pai, me abençoe  ")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if reply.Fallback || reply.SpeechErr != nil {
		t.Fatalf("reply = %+v", reply)
	}
	if reply.Message.Text != "**Saravá**, zifio." {
		t.Errorf("reply text = %q", reply.Message.Text)
	}
	if chat.prompts[0] != "Pai, me abençoe" {
		t.Errorf("prompt = %q", chat.prompts[0])
	}
	if tts.texts[0] != "Saravá, zifio." {
		t.Errorf("synthesized %q, want markdown stripped", tts.texts[0])
	}

	// Speaking gates new input.
	if s.State() != StateSpeaking || s.CanListen() {
		t.Errorf("state = %v while playing", s.State())
	}
	if _, err := s.Ask(context.Background(), "de novo"); !errors.Is(err, ErrBusy) {
		t.Errorf("Ask while speaking error = %v, want ErrBusy", err)
	}

	mc.LastNode().Finish()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := reply.Handle.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v after playback", s.State())
	}

	h := s.History()
	if len(h) != 3 || h[1].Role != voice.RoleUser || h[2].Role != voice.RoleModel {
		t.Errorf("history = %+v", h)
	}
}

func TestAskFallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty reply", gemini.ErrEmptyReply, persona.EmptyReply},
		{"connection error", errors.New("dial tcp: refused"), persona.ErrorReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tts := &fakeTTS{payload: pcm.Encode([]int16{1})}
			player, _ := newPipeline(t, false)
			s, _ := New(Config{Chat: &fakeChat{err: tt.err}, Speech: tts, Player: player})

			reply, err := s.Ask(context.Background(), "Olá")
			if err != nil {
				t.Fatalf("Ask() error = %v", err)
			}
			if !reply.Fallback || !errors.Is(reply.Err, tt.err) {
				t.Errorf("reply = %+v", reply)
			}
			if reply.Message.Text != tt.want {
				t.Errorf("text = %q, want %q", reply.Message.Text, tt.want)
			}
			// Fallbacks are spoken too.
			if len(tts.texts) != 1 {
				t.Errorf("fallback not synthesized")
			}
		})
	}
}

func TestAskSpeechFailuresAreNonFatal(t *testing.T) {
	t.Run("synthesis error", func(t *testing.T) {
		player, _ := newPipeline(t, false)
		s, _ := New(Config{
			Chat:   &fakeChat{reply: "Saravá"},
			Speech: &fakeTTS{err: gemini.ErrNoAudio},
			Player: player,
		})
		reply, err := s.Ask(context.Background(), "Olá")
		if err != nil {
			t.Fatal(err)
		}
		if !errors.Is(reply.SpeechErr, gemini.ErrNoAudio) || reply.Handle != nil {
			t.Errorf("reply = %+v", reply)
		}
		if player.IsSpeaking() || s.State() != StateIdle {
			t.Error("speaking after synthesis failure")
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		player, _ := newPipeline(t, false)
		s, _ := New(Config{
			Chat:   &fakeChat{reply: "Saravá"},
			Speech: &fakeTTS{payload: "AAAB"},
			Player: player,
		})
		reply, err := s.Ask(context.Background(), "Olá")
		if err != nil {
			t.Fatal(err)
		}
		if !errors.Is(reply.SpeechErr, pcm.ErrMalformedPayload) {
			t.Errorf("SpeechErr = %v", reply.SpeechErr)
		}
		if player.IsSpeaking() {
			t.Error("speaking after malformed payload")
		}
	})

	t.Run("no output", func(t *testing.T) {
		factory, _ := audio.NewContextFactory(audio.BackendNone)
		player, err := audio.NewPipeline(audio.DefaultConfig(), factory)
		if err != nil {
			t.Fatal(err)
		}
		defer player.Close()
		s, _ := New(Config{
			Chat:   &fakeChat{reply: "Saravá"},
			Speech: &fakeTTS{payload: pcm.Encode([]int16{1})},
			Player: player,
		})
		reply, err := s.Ask(context.Background(), "Olá")
		if err != nil {
			t.Fatal(err)
		}
		if !errors.Is(reply.SpeechErr, audio.ErrOutputUnavailable) {
			t.Errorf("SpeechErr = %v", reply.SpeechErr)
		}
		if reply.Message.Text != "Saravá" {
			t.Error("text reply lost")
		}
	})
}

func TestAskTextOnly(t *testing.T) {
	s, _ := New(Config{Chat: &fakeChat{reply: "Saravá"}})
	reply, err := s.Ask(context.Background(), "Olá")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Handle != nil || reply.SpeechErr != nil {
		t.Errorf("reply = %+v", reply)
	}
	if s.Stop() {
		t.Error("Stop without player returned true")
	}
}

func TestAskRejectsBlankAndConcurrent(t *testing.T) {
	chat := &fakeChat{reply: "Saravá", block: make(chan struct{})}
	s, _ := New(Config{Chat: chat})

	if _, err := s.Ask(context.Background(), " \t"); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("blank Ask error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.Ask(context.Background(), "primeira"); err != nil {
			t.Errorf("first Ask error = %v", err)
		}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for s.State() != StateProcessing {
		if time.Now().After(deadline) {
			t.Fatal("session never started processing")
		}
		time.Sleep(time.Millisecond)
	}
	if s.CanListen() {
		t.Error("CanListen while processing")
	}
	if _, err := s.Ask(context.Background(), "segunda"); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent Ask error = %v, want ErrBusy", err)
	}

	close(chat.block)
	<-done
	if len(s.History()) != 3 {
		t.Errorf("history has %d messages, want 3", len(s.History()))
	}
}

func TestListen(t *testing.T) {
	s, _ := New(Config{Chat: &fakeChat{}})
	if _, err := s.Listen(context.Background()); !errors.Is(err, ErrNoListener) {
		t.Errorf("Listen error = %v, want ErrNoListener", err)
	}

	s, _ = New(Config{Chat: &fakeChat{}, Listener: &fakeListener{text: "Saravá"}})
	got, err := s.Listen(context.Background())
	if err != nil || got != "Saravá" {
		t.Errorf("Listen() = %q, %v", got, err)
	}
	if s.State() != StateIdle {
		t.Error("still listening after Listen returned")
	}
}

func TestExportWAV(t *testing.T) {
	dir := t.TempDir()
	player, _ := newPipeline(t, false)
	s, _ := New(Config{
		Chat:      &fakeChat{reply: "Saravá"},
		Speech:    &fakeTTS{payload: pcm.Encode([]int16{100, -100, 200})},
		Player:    player,
		ExportDir: dir,
	})

	reply, err := s.Ask(context.Background(), "Olá")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(reply.WAVPath, dir) {
		t.Fatalf("WAVPath = %q", reply.WAVPath)
	}

	f, err := os.Open(reply.WAVPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	buf, err := pcm.ReadWAV(f)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if buf.Frames() != 3 {
		t.Errorf("exported %d frames, want 3", buf.Frames())
	}
}

func TestStateString(t *testing.T) {
	want := map[State]string{
		StateIdle:       "idle",
		StateListening:  "listening",
		StateProcessing: "processing",
		StateSpeaking:   "speaking",
		State(42):       "unknown",
	}
	for st, w := range want {
		if st.String() != w {
			t.Errorf("%d.String() = %q, want %q", st, st.String(), w)
		}
	}
}

func newCachedSpeech(t *testing.T, tts *fakeTTS) *cache.Synthesizer {
	t.Helper()
	m, err := cache.NewManager(cache.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return cache.NewSynthesizer(tts, m, pcm.DefaultFormat())
}

func askAndWait(t *testing.T, s *Session, text string) Reply {
	t.Helper()
	reply, err := s.Ask(context.Background(), text)
	if err != nil {
		t.Fatalf("Ask(%q) error = %v", text, err)
	}
	if reply.Handle != nil {
		if err := reply.Handle.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	return reply
}

func TestAskRecordsCacheHits(t *testing.T) {
	logging.Reset()
	defer logging.Reset()

	tts := &fakeTTS{payload: pcm.Encode([]int16{1, 2, 3, 4})}
	player, _ := newPipeline(t, false)
	s, err := New(Config{Chat: &fakeChat{reply: "Saravá"}, Speech: newCachedSpeech(t, tts), Player: player})
	if err != nil {
		t.Fatal(err)
	}

	askAndWait(t, s, "pergunta")
	askAndWait(t, s, "pergunta")

	if len(tts.texts) != 1 {
		t.Errorf("speech service called %d times, want 1", len(tts.texts))
	}
	if got := logging.Summarize(logging.StageSynthesis); got.Count != 2 || got.CacheHits != 1 {
		t.Errorf("synthesis summary = %+v, want 2 runs with 1 cache hit", got)
	}
}

func TestAskDoesNotReplayMalformedSpeech(t *testing.T) {
	tts := &fakeTTS{payload: "AAAB"}
	player, _ := newPipeline(t, false)
	s, err := New(Config{Chat: &fakeChat{reply: "Saravá"}, Speech: newCachedSpeech(t, tts), Player: player})
	if err != nil {
		t.Fatal(err)
	}

	first := askAndWait(t, s, "pergunta")
	if !errors.Is(first.SpeechErr, pcm.ErrMalformedPayload) {
		t.Fatalf("first SpeechErr = %v, want malformed payload", first.SpeechErr)
	}

	tts.mu.Lock()
	tts.payload = pcm.Encode([]int16{1, 2})
	tts.mu.Unlock()

	second := askAndWait(t, s, "pergunta")
	if second.SpeechErr != nil || second.Handle == nil {
		t.Errorf("second reply = %+v", second)
	}
	if len(tts.texts) != 2 {
		t.Errorf("speech service called %d times, want 2", len(tts.texts))
	}
}
