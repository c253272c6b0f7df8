// Package tui is the terminal chat screen built on bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/mindease/backend/internal/model/chat"
)

const (
	headerHeight = 2
	footerHeight = 3
	sendTimeout  = 90 * time.Second
)

// Conversation is the chat client the screen drives.
type Conversation interface {
	Send(ctx context.Context, text string) (chat.Entry, error)
	Transcript() []chat.Entry
}

type replyMsg struct {
	err error
}

// Model renders the transcript in a scrolling viewport above a single-line input.
type Model struct {
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer

	conv    Conversation
	entries []chat.Entry
	pending string
	lastErr error

	isLoading bool
	ready     bool
	width     int
}

func New(conv Conversation) Model {
	ti := textinput.New()
	ti.Placeholder = "How are you feeling today? (Enter to send, Esc to quit)"
	ti.Focus()
	ti.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		textinput: ti,
		spinner:   sp,
		conv:      conv,
		entries:   conv.Transcript(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if !m.isLoading {
				return m.handleSubmit()
			}
			return m, nil
		}
		if !m.isLoading {
			m.textinput, tiCmd = m.textinput.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := msg.Height - headerHeight - footerHeight
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.KeyMap = scrollKeys()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.textinput.Width = msg.Width - 4

		wrap := msg.Width - 4
		if wrap < 20 {
			wrap = 20
		}
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		m.refresh()

	case spinner.TickMsg:
		if m.isLoading {
			var spCmd tea.Cmd
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
		return m, nil

	case replyMsg:
		m.isLoading = false
		m.pending = ""
		m.lastErr = msg.err
		m.entries = m.conv.Transcript()
		m.refresh()
	}

	if m.ready {
		m.viewport, vpCmd = m.viewport.Update(msg)
	}
	return m, tea.Batch(tiCmd, vpCmd)
}

// scrollKeys leaves letters and space to the input field.
func scrollKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		Up:           key.NewBinding(key.WithKeys("up")),
		Down:         key.NewBinding(key.WithKeys("down")),
	}
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := m.textinput.Value()
	if strings.TrimSpace(input) == "" {
		return m, nil
	}

	m.textinput.Reset()
	m.pending = input
	m.isLoading = true
	m.refresh()

	return m, tea.Batch(m.spinner.Tick, m.send(input))
}

func (m Model) send(text string) tea.Cmd {
	conv := m.conv
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		_, err := conv.Send(ctx, text)
		return replyMsg{err: err}
	}
}

// refresh re-renders the transcript and scrolls to the newest message.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for _, entry := range m.entries {
		fmt.Fprintf(&b, "**%s:** %s\n\n", entry.Sender, entry.Message)
	}
	if m.pending != "" {
		fmt.Fprintf(&b, "**%s:** %s\n\n", chat.SenderUser, m.pending)
	}

	text := b.String()
	if m.renderer == nil || text == "" {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	status := ""
	if m.isLoading {
		status = m.spinner.View() + " thinking..."
	}

	return fmt.Sprintf("MindEase\n\n%s\n%s\n%s", m.viewport.View(), status, m.textinput.View())
}

// Run starts the program in the alternate screen and blocks until the user quits.
func Run(conv Conversation) error {
	p := tea.NewProgram(New(conv), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
