package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/paijose/internal/persona"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

func (m model) View() string {
	if !m.ready {
		return "\n  Acendendo a vela…"
	}

	var b strings.Builder
	b.WriteString(m.titleView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.helpView())
	return b.String()
}

func (m model) titleView() string {
	title := titleStyle.Render(persona.Name)
	place := statusStyle.Render(" Cruzeiro das Almas")
	if m.cfg.Voice != "" && m.cfg.AudioEnabled {
		place += helpStyle.Render(fmt.Sprintf(" · voz %s", m.cfg.Voice))
	}
	return title + place
}

func (m model) statusView() string {
	var s string
	switch {
	case m.statusMessage != "":
		style := statusStyle
		if m.statusIsError {
			style = errorStyle
		}
		s = style.Render(m.statusMessage)
	case m.processing:
		s = m.spinner.View() + statusStyle.Render(" Pai José está pensando…")
	case m.speaking:
		s = speakingStyle.Render("♪ Pai José falando…")
	default:
		s = helpStyle.Render("Escreva sua pergunta e pressione enter para pedir a bênção.")
	}

	if m.width > 0 && lipgloss.Width(s) > m.width {
		s = truncate.StringWithTail(s, uint(m.width), ellipsis) //nolint:gosec
	}
	return s
}

func (m model) helpView() string {
	items := []string{"enter enviar", "pgup/pgdown rolar", "ctrl+y copiar", "ctrl+c sair"}
	if m.speaking {
		items = append([]string{"esc silenciar"}, items...)
	}
	help := strings.Join(items, " • ")
	if m.width > 0 {
		help = runewidth.Truncate(help, m.width, ellipsis)
	}
	return helpStyle.Render(help)
}
