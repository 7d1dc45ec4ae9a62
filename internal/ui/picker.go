package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"locheck/internal/suggest"
)

// ChoiceKind is what the user decided for one missing key.
type ChoiceKind uint8

const (
	ChoiceSkip ChoiceKind = iota
	ChoiceRename
	ChoiceAdd
	ChoiceQuit
)

// Choice is the result of a picker. Key is set for ChoiceRename, Value for
// ChoiceAdd.
type Choice struct {
	Kind  ChoiceKind
	Key   string
	Value string
}

// PickerItem describes the missing key being resolved.
type PickerItem struct {
	Key         string
	Location    string
	Suggestions []suggest.Candidate
	Placeholder string
}

var (
	pickerTitle    = lipgloss.NewStyle().Bold(true)
	pickerCursor   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	pickerDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pickerSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// PickerModel lists rename targets, then an editable "add key" row, then
// "skip". Rows are navigated with the arrow keys.
type PickerModel struct {
	item   PickerItem
	cursor int
	input  textinput.Model
	choice Choice
	done   bool
}

func NewPicker(item PickerItem) *PickerModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 512
	ti.SetValue(item.Placeholder)
	m := &PickerModel{item: item, input: ti}
	if len(item.Suggestions) == 0 {
		m.cursor = m.addRow()
		m.input.Focus()
	}
	return m
}

func (m *PickerModel) addRow() int  { return len(m.item.Suggestions) }
func (m *PickerModel) skipRow() int { return len(m.item.Suggestions) + 1 }

// Choice returns the decision; it is ChoiceSkip until the picker finished.
func (m *PickerModel) Choice() Choice { return m.choice }

func (m *PickerModel) Init() tea.Cmd {
	if m.cursor == m.addRow() {
		return textinput.Blink
	}
	return nil
}

func (m *PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m.finish(Choice{Kind: ChoiceQuit})
	case tea.KeyUp, tea.KeyShiftTab:
		return m, m.move(-1)
	case tea.KeyDown, tea.KeyTab:
		return m, m.move(1)
	case tea.KeyEnter:
		switch {
		case m.cursor < m.addRow():
			return m.finish(Choice{Kind: ChoiceRename, Key: m.item.Suggestions[m.cursor].Key})
		case m.cursor == m.addRow():
			return m.finish(Choice{Kind: ChoiceAdd, Value: m.input.Value()})
		default:
			return m.finish(Choice{Kind: ChoiceSkip})
		}
	}
	if m.cursor == m.addRow() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	if key.Type == tea.KeyRunes && string(key.Runes) == "q" {
		return m.finish(Choice{Kind: ChoiceQuit})
	}
	return m, nil
}

func (m *PickerModel) move(delta int) tea.Cmd {
	m.cursor = (m.cursor + delta + m.skipRow() + 1) % (m.skipRow() + 1)
	if m.cursor == m.addRow() {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *PickerModel) finish(c Choice) (tea.Model, tea.Cmd) {
	m.choice = c
	m.done = true
	return m, tea.Quit
}

func (m *PickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitle.Render(fmt.Sprintf("missing key '%s'", m.item.Key)))
	if m.item.Location != "" {
		b.WriteString(pickerDim.Render("  " + m.item.Location))
	}
	b.WriteString("\n\n")

	row := func(i int, text string) {
		if i == m.cursor {
			b.WriteString(pickerCursor.Render("> ") + text + "\n")
			return
		}
		b.WriteString("  " + text + "\n")
	}
	for i, c := range m.item.Suggestions {
		row(i, fmt.Sprintf("rename to %s %s", c.Key, pickerDim.Render(fmt.Sprintf("(score %d)", c.Score))))
	}
	row(m.addRow(), "add key with value: "+m.input.View())
	row(m.skipRow(), "skip")

	if m.done {
		b.WriteString(pickerSelected.Render("\nselected\n"))
	} else {
		b.WriteString(pickerDim.Render("\n↑/↓ move • enter select • esc quit\n"))
	}
	return b.String()
}

// Pick runs a picker on the given terminal streams and returns the choice.
func Pick(item PickerItem, in io.Reader, out io.Writer) (Choice, error) {
	m := NewPicker(item)
	if _, err := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out)).Run(); err != nil {
		return Choice{Kind: ChoiceQuit}, fmt.Errorf("picker: %w", err)
	}
	return m.Choice(), nil
}
