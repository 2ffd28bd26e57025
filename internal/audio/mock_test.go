package audio

import (
	"bytes"
	"io"
	"testing"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func TestMockContext(t *testing.T) {
	mc := NewMockContext(24000, 1)

	var octx OutputContext = mc
	if octx.State() != ContextRunning {
		t.Errorf("State = %v, want running", octx.State())
	}
	if octx.SampleRate() != 24000 || octx.ChannelCount() != 1 {
		t.Errorf("format = %d/%d, want 24000/1", octx.SampleRate(), octx.ChannelCount())
	}

	if err := octx.Suspend(); err != nil {
		t.Fatal(err)
	}
	if octx.State() != ContextSuspended {
		t.Errorf("State = %v, want suspended", octx.State())
	}
	if err := octx.Resume(); err != nil {
		t.Fatal(err)
	}
	if octx.State() != ContextRunning {
		t.Errorf("State = %v, want running", octx.State())
	}

	node, err := octx.NewNode(bytesReader([]byte{0, 0, 0, 0, 0, 0, 128, 63}))
	if err != nil {
		t.Fatalf("NewNode() error = %v", err)
	}
	if mc.NodesCreated != 1 {
		t.Errorf("NodesCreated = %d, want 1", mc.NodesCreated)
	}

	node.Play()
	if node.IsPlaying() {
		t.Error("non-realtime node should drain on first poll")
	}

	if err := octx.Close(); err != nil {
		t.Fatal(err)
	}
	if !mc.LastNode().IsClosed() {
		t.Error("Close did not close nodes")
	}
	if _, err := octx.NewNode(bytesReader(nil)); err == nil {
		t.Error("NewNode on closed context succeeded")
	}
	if err := octx.Resume(); err == nil {
		t.Error("Resume on closed context succeeded")
	}
}

func TestMockNodeHold(t *testing.T) {
	mc := NewMockContext(24000, 1)
	mc.Hold = true

	node, err := mc.NewNode(bytesReader(make([]byte, 8)))
	if err != nil {
		t.Fatal(err)
	}
	if node.IsPlaying() {
		t.Error("node playing before Play")
	}
	node.Play()
	if !node.IsPlaying() {
		t.Error("held node not playing")
	}
	node.Pause()
	if node.IsPlaying() {
		t.Error("node playing after Pause")
	}
	node.Play()
	mc.LastNode().Finish()
	if node.IsPlaying() {
		t.Error("node playing after Finish")
	}
}

func TestContextStateString(t *testing.T) {
	tests := map[ContextState]string{
		ContextRunning:   "running",
		ContextSuspended: "suspended",
		ContextClosed:    "closed",
		ContextState(9):  "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
