// Package browse is a terminal user interface over a contacts
// [state.Store]: it lists contacts, opens and deletes them and shows a
// loading indicator while the store reports a call in progress.
package browse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oaiiae/contacts-directory/directory"
	"github.com/oaiiae/contacts-directory/state"
)

const maxLineLength = 72

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	overlayStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	detailStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

// settledMsg is sent when a task started by the model settled.
type settledMsg struct {
	op  state.Op
	err error
}

func wait[R any](ctx context.Context, task *state.Task[R]) tea.Cmd {
	return func() tea.Msg {
		_, err := task.Wait(ctx)
		return settledMsg{op: task.Op, err: err}
	}
}

type Model struct {
	ctx     context.Context
	store   *state.Store
	spinner spinner.Model

	cursor int
	detail bool
	err    error
}

func New(ctx context.Context, store *state.Store) Model {
	return Model{
		ctx:     ctx,
		store:   store,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Run starts the interface and blocks until the user quits.
func Run(ctx context.Context, store *state.Store) error {
	_, err := tea.NewProgram(New(ctx, store), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, wait(m.ctx, m.store.ListContacts(m.ctx)))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case settledMsg:
		m.err = msg.err
		if msg.err == nil && msg.op == state.OpOpenContact {
			m.detail = true
		}
		m.cursor = min(m.cursor, max(len(state.Items(m.store.Snapshot()))-1, 0))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := state.Items(m.store.Snapshot())
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		m.detail = false
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, max(len(items)-1, 0))
	case "r":
		return m, wait(m.ctx, m.store.ListContacts(m.ctx))
	case "enter":
		if m.cursor < len(items) {
			return m, wait(m.ctx, m.store.OpenContact(m.ctx, items[m.cursor].ID()))
		}
	case "d":
		if m.cursor < len(items) {
			return m, wait(m.ctx, m.store.DeleteContact(m.ctx, items[m.cursor].ID()))
		}
	}
	return m, nil
}

func (m Model) View() string {
	d := m.store.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Contacts (%d)", len(state.Items(d)))))
	b.WriteString("\n\n")

	if state.APICallInProgress(d) {
		b.WriteString(overlayStyle.Render(m.spinner.View() + " loading"))
		b.WriteString("\n")
		return b.String()
	}

	if c, ok := state.OpenedContact(d); ok && m.detail {
		b.WriteString(detailStyle.Render(indent(c)))
		b.WriteString("\n" + dimStyle.Render("esc back • q quit") + "\n")
		return b.String()
	}

	for i, c := range state.Items(d) {
		line := summary(c)
		if i == m.cursor {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("↑/↓ move • enter open • d delete • r reload • q quit") + "\n")
	return b.String()
}

// summary renders a contact on one line: its uuid and its other attributes.
func summary(c directory.Contact) string {
	fields, err := json.Marshal(c.Fields)
	if err != nil {
		fields = []byte("?")
	}
	line := []rune(c.ID() + " " + string(fields))
	if len(line) > maxLineLength {
		return string(line[:maxLineLength-1]) + "…"
	}
	return string(line)
}

func indent(c directory.Contact) string {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(b)
}
