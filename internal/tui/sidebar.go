// Package tui provides the content type sidebar
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/n1rna/cms-admin/internal/resource"
)

// SidebarModel lists the content types
type SidebarModel struct {
	choices []string
	cursor  int
	active  int
}

// NewSidebarModel creates a sidebar for defs; the first one is active
func NewSidebarModel(defs []*resource.Definition) *SidebarModel {
	choices := make([]string, len(defs))
	for i, def := range defs {
		choices[i] = def.Title
	}
	return &SidebarModel{choices: choices}
}

// Active returns the index of the open content type
func (m *SidebarModel) Active() int {
	return m.active
}

// SetActive marks the open content type
func (m *SidebarModel) SetActive(i int) {
	m.active = i
	m.cursor = i
}

// Update handles keys while the sidebar has focus
func (m *SidebarModel) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}

	case "enter", " ", "right", "l":
		target := m.cursor
		return func() tea.Msg { return NavigateMsg(target) }
	}

	return nil
}

// View renders the sidebar
func (m *SidebarModel) View(focused bool, height int) string {
	var b strings.Builder
	for i, choice := range m.choices {
		cursor := " "
		if focused && m.cursor == i {
			cursor = ">"
		}

		line := cursor + " " + choice
		switch {
		case focused && m.cursor == i:
			b.WriteString(selectedItemStyle.Render(line))
		case m.active == i:
			b.WriteString(activeItemStyle.Render(line))
		default:
			b.WriteString(normalItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	style := sidebarStyle.Height(height)
	if focused {
		style = style.BorderForeground(lipgloss.Color("205"))
	}
	return style.Render(b.String())
}

// Styles for the sidebar
var (
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	activeItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("240"))
)
