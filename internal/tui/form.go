// Package tui provides the create and edit form
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/n1rna/cms-admin/internal/logger"
	"github.com/n1rna/cms-admin/internal/resource"
	"github.com/n1rna/cms-admin/internal/screen"
)

// formAction tells the screen what a key did to the form
type formAction int

const (
	formNone formAction = iota
	formCancel
	formSubmit
)

const labelWidth = 14

// fieldEditor edits one field; rich text uses a textarea
type fieldEditor struct {
	field     resource.Field
	input     textinput.Model
	area      textarea.Model
	multiline bool
}

func (e *fieldEditor) value() string {
	if e.multiline {
		return e.area.Value()
	}
	return e.input.Value()
}

func (e *fieldEditor) focus() tea.Cmd {
	if e.multiline {
		return e.area.Focus()
	}
	return e.input.Focus()
}

func (e *fieldEditor) blur() {
	if e.multiline {
		e.area.Blur()
	} else {
		e.input.Blur()
	}
}

// FormModel renders the controller's draft and feeds edits back into it
type FormModel struct {
	ctrl    *screen.Controller
	editors []*fieldEditor
	focused int
	width   int

	// submitting is set from the key press until the result arrives
	submitting bool
}

// NewFormModel creates a form for the controller's open draft
func NewFormModel(ctrl *screen.Controller) *FormModel {
	def := ctrl.Definition()
	values := map[string]string{}
	if d := ctrl.Draft(); d != nil {
		values = d.Fields
	}

	m := &FormModel{ctrl: ctrl, width: 80}
	for _, f := range def.Fields {
		e := &fieldEditor{field: f}
		switch f.Kind {
		case resource.KindRichText:
			e.multiline = true
			e.area = textarea.New()
			e.area.ShowLineNumbers = false
			e.area.CharLimit = 0
			e.area.MaxHeight = 0
			e.area.SetHeight(6)
			e.area.Placeholder = f.Label
			e.area.SetValue(values[f.Name])
		default:
			e.input = textinput.New()
			e.input.Prompt = ""
			e.input.Placeholder = placeholder(f)
			e.input.SetValue(values[f.Name])
		}
		m.editors = append(m.editors, e)
	}
	if len(m.editors) > 0 {
		m.editors[0].focus()
	}
	return m
}

func placeholder(f resource.Field) string {
	if f.Kind == resource.KindFile {
		return "path to file"
	}
	return strings.ToLower(f.Label)
}

// Init returns the initial command
func (m *FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize fits the form into width cells
func (m *FormModel) SetSize(width, height int) {
	m.width = width
	w := max(width-labelWidth-4, 20)
	for _, e := range m.editors {
		if e.multiline {
			e.area.SetWidth(w)
			e.area.SetHeight(max(min(height-2*len(m.editors)-6, 12), 3))
		} else {
			e.input.Width = w
		}
	}
}

// Update handles messages for the form
func (m *FormModel) Update(msg tea.Msg) (formAction, tea.Cmd) {
	if len(m.editors) == 0 {
		return formNone, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return formCancel, nil

		case "ctrl+s":
			return formSubmit, nil

		case "tab", "shift+tab":
			return formNone, m.handleTabNavigation(key.String() == "shift+tab")

		case "enter":
			if !m.editors[m.focused].multiline {
				if m.focused == len(m.editors)-1 {
					return formSubmit, nil
				}
				return formNone, m.handleTabNavigation(false)
			}
		}
	}

	e := m.editors[m.focused]
	before := e.value()
	var cmd tea.Cmd
	if e.multiline {
		e.area, cmd = e.area.Update(msg)
	} else {
		e.input, cmd = e.input.Update(msg)
	}
	if after := e.value(); after != before {
		if err := m.ctrl.ChangeField(e.field.Name, after); err != nil {
			logger.Debug("form: %v", err)
		}
	}
	return formNone, cmd
}

// handleTabNavigation moves the focus to the next or previous field
func (m *FormModel) handleTabNavigation(backward bool) tea.Cmd {
	m.editors[m.focused].blur()
	n := len(m.editors)
	if backward {
		m.focused = (m.focused - 1 + n) % n
	} else {
		m.focused = (m.focused + 1) % n
	}
	return m.editors[m.focused].focus()
}

// View renders the form
func (m *FormModel) View() string {
	def := m.ctrl.Definition()
	draft := m.ctrl.Draft()

	var b strings.Builder
	title := "New " + def.Singular
	if draft != nil && draft.Mode == screen.ModeEdit {
		title = fmt.Sprintf("Edit %s %s", def.Singular, draft.EditingID)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	for i, e := range m.editors {
		label := fieldLabelStyle.Render(e.field.Label)
		if i == m.focused {
			label = focusedLabelStyle.Render(e.field.Label)
		}
		if e.multiline {
			b.WriteString(label + "\n" + e.area.View() + "\n")
			continue
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, e.input.View()))
		if e.field.Kind == resource.KindFile && draft != nil && draft.Fields[e.field.Name] != "" {
			b.WriteString(helpStyle.Render("  → " + draft.Fields[e.field.Name]))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.submitting || (draft != nil && draft.Pending):
		b.WriteString(subtitleStyle.Render("Saving..."))
	case draft != nil && draft.Err != nil:
		b.WriteString(errorStyle.Render("Error: " + draft.Err.Error()))
	}

	return formStyle.Width(max(m.width-2, 20)).Render(b.String())
}

// Styles for the form
var (
	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	fieldLabelStyle = lipgloss.NewStyle().
			Width(labelWidth).
			Foreground(lipgloss.Color("240"))

	focusedLabelStyle = lipgloss.NewStyle().
				Width(labelWidth).
				Foreground(lipgloss.Color("205")).
				Bold(true)
)
