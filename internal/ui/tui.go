// Package ui provides the optional terminal interface.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/todos-go/internal/todo"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	doneStyle   = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("8"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RunTUI starts the interactive list over store.
func RunTUI(ctx context.Context, store *todo.Store) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newTUIModel(store)
	defer model.close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type inputMode int

const (
	modeList inputMode = iota
	modeAdd
	modeEdit
)

type tuiModel struct {
	store       *todo.Store
	unsubscribe func()
	tasks       []todo.Task
	cursor      int
	mode        inputMode
	input       []rune
	editID      int64
	editOrig    string
	notice      string
	showHelp    bool
}

func newTUIModel(store *todo.Store) *tuiModel {
	m := &tuiModel{
		store: store,
		tasks: store.Tasks(),
	}
	m.unsubscribe = store.Subscribe(func(tasks []todo.Task) {
		m.tasks = tasks
		m.clampCursor()
	})
	return m
}

func (m *tuiModel) close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return nil
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.mode != modeList {
		m.updateInput(key)
		return m, nil
	}

	m.notice = ""
	switch key.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "a":
		m.mode = modeAdd
		m.input = nil
	case " ", "space", "x":
		if t, ok := m.selected(); ok {
			m.store.Toggle(t.ID)
		}
	case "e", "enter":
		if t, ok := m.selected(); ok {
			m.mode = modeEdit
			m.editID = t.ID
			m.editOrig = t.Text
			m.input = []rune(t.Text)
		}
	case "d":
		if t, ok := m.selected(); ok {
			m.store.Delete(t.ID)
		}
	case "?", "h":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// updateInput handles keys while the add or edit line is open.
func (m *tuiModel) updateInput(key tea.KeyMsg) {
	switch key.Type {
	case tea.KeyEsc:
		m.endInput()
	case tea.KeyEnter:
		m.commitInput()
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, key.Runes...)
	}
}

func (m *tuiModel) commitInput() {
	text := string(m.input)
	switch m.mode {
	case modeAdd:
		if _, ok := m.store.Add(text); ok {
			m.cursor = len(m.tasks) - 1
		} else {
			m.notice = "Nothing added: task text is blank."
		}
	case modeEdit:
		// Blank or unchanged text reverts without touching the store.
		if trimmed, ok := todo.NormalizeText(text); ok && trimmed != m.editOrig {
			m.store.Edit(m.editID, trimmed)
		}
	}
	m.endInput()
}

func (m *tuiModel) endInput() {
	m.mode = modeList
	m.input = nil
	m.editID = 0
	m.editOrig = ""
}

func (m *tuiModel) selected() (todo.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return todo.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *tuiModel) clampCursor() {
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b, m.tasks)

	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	if len(m.tasks) == 0 && m.mode != modeAdd {
		b.WriteString("  No tasks yet. Press a to add one.\n")
	}
	for i, t := range m.tasks {
		if m.mode == modeEdit && t.ID == m.editID {
			b.WriteString(formatInput("  edit: ", m.input))
			continue
		}
		b.WriteString(formatTask(t, i == m.cursor && m.mode == modeList))
		b.WriteString("\n")
	}
	if m.mode == modeAdd {
		b.WriteString(formatInput("  new:  ", m.input))
	}

	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}
	writeFooter(&b, m.mode)
	return b.String()
}

func writeTitle(b *strings.Builder, tasks []todo.Task) {
	open, done := todo.Counts(tasks)
	b.WriteString(titleStyle.Render("Todos") + "\n")
	b.WriteString(fmt.Sprintf("%d open, %d done\n\n", open, done))
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  up/k, down/j   Move\n")
	b.WriteString("  a              Add a task\n")
	b.WriteString("  space, x       Toggle done\n")
	b.WriteString("  e, enter       Edit text (enter saves, esc cancels)\n")
	b.WriteString("  d              Delete\n")
	b.WriteString("  h, ?           Toggle this help screen\n")
	b.WriteString("  q, ctrl+c      Quit\n\n")
}

func writeFooter(b *strings.Builder, mode inputMode) {
	if mode != modeList {
		b.WriteString(helpStyle.Render("enter save | esc cancel") + "\n")
		return
	}
	b.WriteString(helpStyle.Render("a add | space toggle | e edit | d delete | ? help | q quit") + "\n")
}

func formatTask(t todo.Task, selected bool) string {
	pointer := "  "
	if selected {
		pointer = cursorStyle.Render("> ")
	}
	box := "[ ]"
	text := t.Text
	if t.Completed {
		box = "[x]"
		text = doneStyle.Render(text)
	}
	return pointer + box + " " + text
}

func formatInput(label string, input []rune) string {
	return label + string(input) + "_\n"
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
