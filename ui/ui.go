// Package ui provides the conversation TUI.
package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/paijose/internal/audio"
	"github.com/dgnsrekt/paijose/internal/persona"
	"github.com/dgnsrekt/paijose/internal/session"
	"github.com/dgnsrekt/paijose/internal/voice"
	te "github.com/muesli/termenv"
)

const (
	statusMessageTimeout = time.Second * 3
	ellipsis             = "…"
	inputHeight          = 1
	chromeHeight         = 4 // title, blank, status, help
)

// Conversation is the part of a session the UI drives.
type Conversation interface {
	History() []voice.Message
	Ask(ctx context.Context, text string) (session.Reply, error)
	Stop() bool
	CanListen() bool
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, conv Conversation, events <-chan audio.Event) *tea.Program {
	log.Debug("Starting paijose TUI", "glamour", cfg.GlamourEnabled, "audio", cfg.AudioEnabled)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, conv, events), opts...)
}

type (
	replyMsg struct {
		reply session.Reply
		err   error
	}
	playbackMsg             struct{ event audio.Event }
	eventsClosedMsg         struct{}
	statusMessageTimeoutMsg struct{ gen int }
)

type model struct {
	cfg    Config
	conv   Conversation
	events <-chan audio.Event

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	history  *historyRenderer

	width  int
	height int
	ready  bool

	processing bool
	speaking   bool

	lastReply     string
	statusMessage string
	statusIsError bool
	statusGen     int
}

func newModel(cfg Config, conv Conversation, events <-chan audio.Event) model {
	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}

	ti := textinput.New()
	ti.Placeholder = "Pergunte ao Pai José…"
	ti.Prompt = "› "
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = speakingStyle

	return model{
		cfg:      cfg,
		conv:     conv,
		events:   events,
		input:    ti,
		spinner:  sp,
		viewport: viewport.New(0, 0),
		history:  newHistoryRenderer(cfg),
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.events != nil {
		cmds = append(cmds, waitForEvent(m.events))
	}
	status := persona.InputUnavailable
	if !m.cfg.AudioEnabled {
		status = "Sem áudio: as respostas serão apenas escritas."
	}
	cmds = append(cmds, func() tea.Msg {
		return statusMsg{text: status}
	})
	return tea.Batch(cmds...)
}

type statusMsg struct {
	text    string
	isError bool
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		m.refreshHistory()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.speaking {
				m.conv.Stop()
			}
			return m, tea.Quit

		case "esc":
			if m.speaking && m.conv.Stop() {
				cmds = append(cmds, m.newStatusMessage("Silenciado.", false))
			}
			return m, tea.Batch(cmds...)

		case "ctrl+y":
			if m.lastReply == "" {
				return m, nil
			}
			if err := clipboard.WriteAll(m.lastReply); err != nil {
				// Fall back to OSC 52 for remote sessions.
				te.Copy(m.lastReply)
			}
			return m, m.newStatusMessage("Resposta copiada.", false)

		case "enter":
			return m.submit()

		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case replyMsg:
		m.processing = false
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrBusy) {
				cmds = append(cmds, m.newStatusMessage("Pai José ainda está falando.", true))
			} else {
				cmds = append(cmds, m.newStatusMessage(msg.err.Error(), true))
			}
			m.refreshHistory()
			break
		}
		m.lastReply = msg.reply.Message.Text
		if msg.reply.SpeechErr != nil && m.cfg.AudioEnabled {
			cmds = append(cmds, m.newStatusMessage(speechErrorText(msg.reply.SpeechErr), true))
		}
		m.refreshHistory()

	case playbackMsg:
		switch ev := msg.event.(type) {
		case audio.PlaybackStarted:
			m.speaking = true
		case audio.PlaybackEnded:
			m.speaking = false
		case audio.PlaybackFailed:
			m.speaking = false
			log.Debug("Playback failed", "error", ev.Err)
		}
		cmds = append(cmds, waitForEvent(m.events))

	case eventsClosedMsg:
		m.speaking = false
		m.events = nil

	case statusMsg:
		cmds = append(cmds, m.newStatusMessage(msg.text, msg.isError))

	case statusMessageTimeoutMsg:
		// Only the newest message expires; older timers are ignored.
		if msg.gen == m.statusGen {
			m.statusMessage = ""
			m.statusIsError = false
		}

	case spinner.TickMsg:
		if m.processing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	if m.cfg.EnableMouse {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit sends the typed question unless a turn is already in flight.
func (m model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.processing || m.speaking || !m.conv.CanListen() {
		return m, m.newStatusMessage("Espere Pai José terminar, zifio.", true)
	}

	m.input.SetValue("")
	m.processing = true
	m.history.pending = text
	m.refreshHistory()
	return m, tea.Batch(askCmd(m.conv, text), m.spinner.Tick)
}

func (m *model) setSize(w, h int) {
	m.width, m.height = w, h

	vpHeight := h - chromeHeight - inputHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = w
	m.viewport.Height = vpHeight
	m.input.Width = w - 4
	m.history.setWidth(w)
	m.ready = true
}

func (m *model) refreshHistory() {
	if !m.processing {
		m.history.pending = ""
	}
	m.viewport.SetContent(m.history.render(m.conv.History()))
	m.viewport.GotoBottom()
}

func (m *model) newStatusMessage(text string, isError bool) tea.Cmd {
	m.statusMessage = text
	m.statusIsError = isError
	m.statusGen++
	gen := m.statusGen
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{gen: gen}
	})
}

func askCmd(conv Conversation, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := conv.Ask(context.Background(), text)
		return replyMsg{reply: reply, err: err}
	}
}

func waitForEvent(events <-chan audio.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return playbackMsg{event: ev}
	}
}

func speechErrorText(err error) string {
	switch {
	case errors.Is(err, audio.ErrOutputUnavailable):
		return "Sem saída de áudio: " + persona.Name + " responde só por escrito."
	default:
		return "Não foi possível falar a resposta: " + err.Error()
	}
}
