package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Form field indexes
const (
	fieldFolder = iota
	fieldTarget
	fieldExclusions
	fieldCount
)

var fieldLabels = [fieldCount]string{"Folder", "File", "Exclude"}

// Form collects the folder, target file name and exclusions of a search
type Form struct {
	inputs  [fieldCount]textinput.Model
	focused int
	width   int
	err     error
}

// NewForm creates a form prefilled with the given values
func NewForm(folder, target, exclusions string) Form {
	var f Form
	placeholders := [fieldCount]string{
		"/path/to/folder",
		"report.pdf",
		"node_modules, .git",
	}
	values := [fieldCount]string{folder, target, exclusions}

	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 4096
		ti.SetValue(values[i])
		f.inputs[i] = ti
	}

	// Start on the first empty field
	f.focused = fieldFolder
	if folder != "" {
		f.focused = fieldTarget
		if target != "" {
			f.focused = fieldExclusions
		}
	}
	f.inputs[f.focused].Focus()
	return f
}

// Values returns the raw folder, target and exclusions
func (f Form) Values() (folder, target, exclusions string) {
	return strings.TrimSpace(f.inputs[fieldFolder].Value()),
		strings.TrimSpace(f.inputs[fieldTarget].Value()),
		f.inputs[fieldExclusions].Value()
}

// Focused returns the index of the focused field
func (f Form) Focused() int {
	return f.focused
}

// SetError shows err below the fields; nil clears it
func (f *Form) SetError(err error) {
	f.err = err
}

// SetWidth sets the form width
func (f *Form) SetWidth(w int) {
	f.width = w
	for i := range f.inputs {
		f.inputs[i].Width = max(10, w-20)
	}
}

// Move shifts focus by delta fields, wrapping around
func (f *Form) Move(delta int) tea.Cmd {
	f.inputs[f.focused].Blur()
	f.focused = (f.focused + delta + fieldCount) % fieldCount
	return f.inputs[f.focused].Focus()
}

// Focus focuses the current field
func (f *Form) Focus() tea.Cmd {
	return f.inputs[f.focused].Focus()
}

// Update passes msg to the focused field
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return f, cmd
}

// View renders the form
func (f Form) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		MarginBottom(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Find folders missing a file"))
	b.WriteString("\n")

	for i, in := range f.inputs {
		label := FormLabelStyle
		if i == f.focused {
			label = FormLabelFocused
		}
		b.WriteString(label.Render(fieldLabels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	if f.err != nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(ColorDanger).Render(f.err.Error()))
		b.WriteString("\n")
	}

	box := ListPanelStyle.Padding(1, 2).Render(b.String())
	return box
}
