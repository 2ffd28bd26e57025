package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/paijose/internal/persona"
	"github.com/dgnsrekt/paijose/internal/voice"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const maxWrapWidth = 100

// historyRenderer turns the conversation into viewport content. Model
// replies go through glamour; questions are word-wrapped.
type historyRenderer struct {
	cfg      Config
	width    int
	renderer *glamour.TermRenderer
	pending  string
}

func newHistoryRenderer(cfg Config) *historyRenderer {
	h := &historyRenderer{cfg: cfg}
	h.setWidth(80)
	return h
}

func (h *historyRenderer) setWidth(width int) {
	wrap := width - 4
	if h.cfg.GlamourMaxWidth > 0 && wrap > int(h.cfg.GlamourMaxWidth) { //nolint:gosec
		wrap = int(h.cfg.GlamourMaxWidth) //nolint:gosec
	}
	if wrap > maxWrapWidth {
		wrap = maxWrapWidth
	}
	if wrap < 20 {
		wrap = 20
	}
	if wrap == h.width && h.renderer != nil {
		return
	}
	h.width = wrap

	if !h.cfg.GlamourEnabled {
		h.renderer = nil
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(h.cfg.GlamourStyle),
		glamour.WithWordWrap(wrap),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		log.Warn("Unable to create renderer, falling back to plain text", "error", err)
		h.renderer = nil
		return
	}
	h.renderer = r
}

func (h *historyRenderer) render(messages []voice.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case voice.RoleUser:
			h.writeUser(&b, msg.Text)
		default:
			h.writeModel(&b, msg.Text)
		}
	}
	// A question sent but not yet recorded by the session.
	if h.pending != "" && !endsWith(messages, h.pending) {
		h.writeUser(&b, h.pending)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *historyRenderer) writeUser(b *strings.Builder, text string) {
	b.WriteString(userLabelStyle.Render("Você"))
	b.WriteString("\n")
	b.WriteString(indent.String(userTextStyle.Render(wordwrap.String(text, h.width-2)), 2))
	b.WriteString("\n\n")
}

func (h *historyRenderer) writeModel(b *strings.Builder, text string) {
	b.WriteString(paiLabelStyle.Render(persona.Name))
	b.WriteString("\n")
	if h.renderer != nil {
		if out, err := h.renderer.Render(text); err == nil {
			b.WriteString(strings.Trim(out, "\n"))
			b.WriteString("\n\n")
			return
		}
	}
	b.WriteString(indent.String(wordwrap.String(text, h.width-2), 2))
	b.WriteString("\n\n")
}

func endsWith(messages []voice.Message, text string) bool {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == voice.RoleUser {
			return messages[i].Text == text
		}
	}
	return false
}
