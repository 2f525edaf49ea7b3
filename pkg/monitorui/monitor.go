// Package monitorui is a small bubbletea view that tails the token stream
// from a code source, resolving each code against the active profile. It is
// purely observational; no keys are ever injected from here.
package monitorui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DavidRHannah/IRKeybridge/pkg/profile"
	"github.com/DavidRHannah/IRKeybridge/pkg/receiver"
)

const maxRows = 200

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	codeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	repeatStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1)
)

// tokenMsg carries one received token into the update loop.
type tokenMsg struct {
	token string
	when  time.Time
}

// pollTimeoutMsg re-arms the poll when nothing arrived.
type pollTimeoutMsg struct{}

type keymap struct {
	Quit  key.Binding
	Clear key.Binding
}

type entry struct {
	when  time.Time
	token string
	desc  string
}

// Model is the monitor's bubbletea model.
type Model struct {
	source  receiver.Source
	profile *profile.Profile

	keys    keymap
	entries []entry
	height  int
}

// New creates a monitor over the given source. profile may be nil, in which
// case codes are shown unresolved.
func New(source receiver.Source, prof *profile.Profile) Model {
	return Model{
		source:  source,
		profile: prof,
		keys: keymap{
			Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
			Clear: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		},
		height: 24,
	}
}

// Init starts polling the source.
func (m Model) Init() tea.Cmd {
	return m.poll()
}

// poll waits briefly for the next token off the update loop.
func (m Model) poll() tea.Cmd {
	return func() tea.Msg {
		if code, ok := m.source.GetCode(250 * time.Millisecond); ok {
			return tokenMsg{token: code, when: time.Now()}
		}
		return pollTimeoutMsg{}
	}
}

// Update handles tokens and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.entries = nil
			return m, nil
		}
		return m, nil
	case pollTimeoutMsg:
		return m, m.poll()
	case tokenMsg:
		m.entries = append(m.entries, entry{
			when:  msg.when,
			token: msg.token,
			desc:  m.describe(msg.token),
		})
		if len(m.entries) > maxRows {
			m.entries = m.entries[len(m.entries)-maxRows:]
		}
		return m, m.poll()
	}
	return m, nil
}

func (m Model) describe(token string) string {
	if token == receiver.TokenRepeat {
		return ""
	}
	if m.profile == nil {
		return "(no profile)"
	}
	if action, ok := m.profile.Lookup(token); ok {
		return fmt.Sprintf("%s  [%s %s]", action.Description, action.Type, strings.Join(action.Keys, "+"))
	}
	return "(unmapped)"
}

// View renders the recent tokens with a stats footer.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("IR code monitor") + "\n\n")

	visible := m.entries
	if rows := m.height - 6; rows > 0 && len(visible) > rows {
		visible = visible[len(visible)-rows:]
	}
	for _, e := range visible {
		line := fmt.Sprintf("%s  %-8s %s", e.when.Format("15:04:05.000"), e.token, e.desc)
		if e.token == receiver.TokenRepeat {
			b.WriteString(repeatStyle.Render(line))
		} else {
			b.WriteString(codeStyle.Render(line))
		}
		b.WriteByte('\n')
	}

	stats := m.source.Stats()
	footer := fmt.Sprintf("received %d  repeats %d  dropped %d  malformed %d   (q quit, c clear)",
		stats.Received, stats.Repeats, stats.Dropped, stats.Malformed)
	b.WriteString(footerStyle.Render(footer))
	return b.String()
}
