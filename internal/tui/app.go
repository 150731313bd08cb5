// Package tui provides the terminal dashboard for managing content
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/collection"
	"github.com/n1rna/cms-admin/internal/logger"
	"github.com/n1rna/cms-admin/internal/resource"
	"github.com/n1rna/cms-admin/internal/screen"
)

// Focus tells which pane receives keys
type Focus int

const (
	SidebarFocus Focus = iota
	ScreenFocus
)

const sidebarWidth = 22

// RemoteFactory returns the remote collection behind a content type
type RemoteFactory func(def *resource.Definition) collection.Remote

// ClientRemotes serves every content type from one API client
func ClientRemotes(client *api.Client) RemoteFactory {
	return func(def *resource.Definition) collection.Remote {
		return client.Collection(def.Path)
	}
}

// Options configures the dashboard
type Options struct {
	Registry  *resource.Registry
	Remotes   RemoteFactory
	ExportDir string
	// Clipboard copies text; nil uses the system clipboard
	Clipboard func(string) error
}

// Model represents the main TUI application state
type Model struct {
	ctx  context.Context
	opts Options

	// Navigation
	focus  Focus
	width  int
	height int

	// Views
	sidebar *SidebarModel
	screen  *ScreenModel
}

// NewModel creates a new TUI model showing the first content type
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Clipboard == nil {
		opts.Clipboard = systemClipboard
	}
	m := &Model{
		ctx:     ctx,
		opts:    opts,
		focus:   ScreenFocus,
		sidebar: NewSidebarModel(opts.Registry.All()),
	}
	m.screen = m.openScreen(0)
	return m
}

// openScreen builds the screen of the content type at index
func (m *Model) openScreen(index int) *ScreenModel {
	def := m.opts.Registry.All()[index]
	ctrl := screen.New(def, m.opts.Remotes(def))
	s := NewScreenModel(m.ctx, ctrl, m.opts.ExportDir, m.opts.Clipboard)
	s.SetSize(m.contentWidth(), m.contentHeight())
	return s
}

// Init loads the first screen
func (m Model) Init() tea.Cmd {
	return m.screen.Init()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.screen.SetSize(m.contentWidth(), m.contentHeight())
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.screen.Close()
			return m, tea.Quit
		}
		// keys belong to the search box or the form while they are open
		if m.focus == ScreenFocus && m.screen.Capturing() {
			break
		}
		switch msg.String() {
		case "q":
			m.screen.Close()
			return m, tea.Quit
		case "tab":
			if m.focus == SidebarFocus {
				m.focus = ScreenFocus
			} else {
				m.focus = SidebarFocus
			}
			return m, nil
		}

	case NavigateMsg:
		if int(msg) == m.sidebar.Active() {
			m.focus = ScreenFocus
			return m, nil
		}
		m.screen.Close()
		m.sidebar.SetActive(int(msg))
		m.screen = m.openScreen(int(msg))
		m.focus = ScreenFocus
		return m, m.screen.Init()

	case resultMsg:
		if msg.owner() != m.screen.ctrl {
			logger.Debug("dropping %T for a closed screen", msg)
			return m, nil
		}
	}

	var cmd tea.Cmd
	if _, isKey := msg.(tea.KeyMsg); isKey && m.focus == SidebarFocus {
		cmd = m.sidebar.Update(msg)
	} else {
		cmd = m.screen.Update(msg)
	}
	return m, cmd
}

// View renders the dashboard
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.headerView()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.sidebar.View(m.focus == SidebarFocus, m.contentHeight()),
		m.screen.View(),
	)
	footer := m.footerView()

	return header + "\n" + body + "\n" + footer
}

// headerView renders the application header
func (m Model) headerView() string {
	title := titleStyle.Render("cms-admin")
	def := m.screen.ctrl.Definition()
	subtitle := fmt.Sprintf("%s  %s", def.Title, m.screen.Status())
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitleStyle.Render(subtitle))
}

// footerView renders the application footer with help
func (m Model) footerView() string {
	if m.focus == SidebarFocus {
		return helpStyle.Render("↑/↓: navigate • enter: open • tab: table • q: quit")
	}
	return helpStyle.Render(m.screen.Help())
}

func (m Model) contentWidth() int {
	return max(m.width-sidebarWidth-2, 20)
}

func (m Model) contentHeight() int {
	// header (2 lines) and footer (1 line) plus separators
	return max(m.height-5, 5)
}

// NavigateMsg switches to the content type at the given sidebar index
type NavigateMsg int

// resultMsg is a finished request; owner is the controller that issued it
type resultMsg interface {
	owner() *screen.Controller
}

// loadedMsg reports a finished load
type loadedMsg struct {
	ctrl *screen.Controller
	// seq is the screen's load count when the load was issued
	seq  int
	err  error
}

// savedMsg reports a finished form submit
type savedMsg struct {
	ctrl   *screen.Controller
	record api.Record
	err    error
}

// deletedMsg reports a finished delete
type deletedMsg struct {
	ctrl *screen.Controller
	id   api.RecordID
	err  error
}

// exportedMsg reports a finished export
type exportedMsg struct {
	ctrl  *screen.Controller
	path  string
	count int
	err   error
}

func (m loadedMsg) owner() *screen.Controller   { return m.ctrl }
func (m savedMsg) owner() *screen.Controller    { return m.ctrl }
func (m deletedMsg) owner() *screen.Controller  { return m.ctrl }
func (m exportedMsg) owner() *screen.Controller { return m.ctrl }

// Styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)
