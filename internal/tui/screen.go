// Package tui provides the per content type screen
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/n1rna/cms-admin/internal/api"
	"github.com/n1rna/cms-admin/internal/collection"
	"github.com/n1rna/cms-admin/internal/export"
	"github.com/n1rna/cms-admin/internal/logger"
	"github.com/n1rna/cms-admin/internal/resource"
	"github.com/n1rna/cms-admin/internal/screen"
)

type screenMode int

const (
	browsing screenMode = iota
	searching
	confirming
	editing
)

const (
	idColumnWidth = 8
	minColumn     = 8
	previewHeight = 8
)

func systemClipboard(text string) error {
	return clipboard.WriteAll(text)
}

// ScreenModel shows one content type: its table, the search box and the
// form opened over it
type ScreenModel struct {
	ctx       context.Context
	ctrl      *screen.Controller
	exportDir string
	copy      func(string) error

	table  table.Model
	search textinput.Model
	form   *FormModel
	mode   screenMode

	// records backs the table rows, in the same order
	records   []api.Record
	loading   bool
	loads     int
	preview   bool
	deleting  api.RecordID
	status    string
	statusErr bool

	width  int
	height int
}

// NewScreenModel creates a screen driven by ctrl
func NewScreenModel(ctx context.Context, ctrl *screen.Controller, exportDir string, copyFn func(string) error) *ScreenModel {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search " + ctrl.Definition().SearchField
	search.CharLimit = 200

	t := table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	m := &ScreenModel{
		ctx:       ctx,
		ctrl:      ctrl,
		exportDir: exportDir,
		copy:      copyFn,
		table:     t,
		search:    search,
		width:     80,
		height:    20,
	}
	m.refresh()
	return m
}

// Init starts the first load
func (m *ScreenModel) Init() tea.Cmd {
	m.loading = true
	return m.loadCmd()
}

// Close disposes the screen; requests still in flight become no-ops
func (m *ScreenModel) Close() {
	m.ctrl.Dispose()
}

// Capturing reports whether keys go to the search box, the form or a prompt
func (m *ScreenModel) Capturing() bool {
	return m.mode != browsing
}

// SetSize fits the screen into width x height cells
func (m *ScreenModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = max(width-4, 10)
	m.table.SetWidth(width)
	m.layout()
	m.refresh()
	if m.form != nil {
		m.form.SetSize(width, height)
	}
}

func (m *ScreenModel) layout() {
	// search line and status line
	h := m.height - 2
	if m.preview {
		h -= previewHeight + 1
	}
	m.table.SetHeight(max(h, 3))
}

func (m *ScreenModel) loadCmd() tea.Cmd {
	m.loads++
	ctrl, ctx, seq := m.ctrl, m.ctx, m.loads
	return func() tea.Msg {
		return loadedMsg{ctrl: ctrl, seq: seq, err: ctrl.Load(ctx)}
	}
}

func (m *ScreenModel) submitCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		rec, err := ctrl.Submit(ctx)
		return savedMsg{ctrl: ctrl, record: rec, err: err}
	}
}

func (m *ScreenModel) deleteCmd(id api.RecordID) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return deletedMsg{ctrl: ctrl, id: id, err: ctrl.Delete(ctx, id)}
	}
}

func (m *ScreenModel) exportCmd() tea.Cmd {
	ctrl := m.ctrl
	dir := m.exportDir
	if dir == "" {
		dir = "."
	}
	return func() tea.Msg {
		def := ctrl.Definition()
		items := ctrl.Store().Items()
		path := filepath.Join(dir, export.FileName(def, export.FormatXLSX, time.Now()))
		err := export.WriteFile(path, export.FormatXLSX, def, items)
		return exportedMsg{ctrl: ctrl, path: path, count: len(items), err: err}
	}
}

// Update handles messages for the screen
func (m *ScreenModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		// an earlier load finishing leaves the latest one running
		if msg.seq == m.loads {
			m.loading = false
			if msg.err != nil {
				m.setError(fmt.Sprintf("Failed to load %s: %v", m.ctrl.Definition().Key, msg.err))
			} else {
				m.status = ""
			}
		}
		m.refresh()
		return nil

	case savedMsg:
		return m.handleSaved(msg)

	case deletedMsg:
		def := m.ctrl.Definition()
		if msg.err != nil {
			m.setError(fmt.Sprintf("Failed to delete %s %s: %v", def.Singular, msg.id, msg.err))
		} else {
			m.setStatus(fmt.Sprintf("Deleted %s %s", def.Singular, msg.id))
		}
		m.refresh()
		return nil

	case exportedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Export failed: %v", msg.err))
		} else {
			m.setStatus(fmt.Sprintf("Exported %d records to %s", msg.count, msg.path))
		}
		return nil

	case tea.KeyMsg:
		switch m.mode {
		case editing:
			return m.updateForm(msg)
		case searching:
			return m.updateSearch(msg)
		case confirming:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}

	// cursor blinks and other ticks
	switch m.mode {
	case editing:
		_, cmd := m.form.Update(msg)
		return cmd
	case searching:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return cmd
	}
	return nil
}

func (m *ScreenModel) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	def := m.ctrl.Definition()

	switch key := msg.String(); key {
	case "/":
		m.mode = searching
		return m.search.Focus()

	case "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.ctrl.Search("")
			m.refresh()
		}
		return nil

	case "n":
		m.ctrl.OpenCreate()
		return m.openForm()

	case "e", "enter":
		rec, ok := m.selected()
		if !ok {
			return nil
		}
		if err := m.ctrl.OpenEdit(rec); err != nil {
			m.setError(err.Error())
			return nil
		}
		return m.openForm()

	case "d", "delete":
		rec, ok := m.selected()
		if !ok {
			return nil
		}
		m.deleting = rec.ID()
		m.mode = confirming
		return nil

	case "r":
		m.loading = true
		m.setStatus("Reloading...")
		return m.loadCmd()

	case "x":
		m.setStatus("Exporting...")
		return m.exportCmd()

	case "c":
		rec, ok := m.selected()
		if !ok {
			return nil
		}
		if err := m.copy(string(rec.ID())); err != nil {
			logger.Warn("clipboard: %v", err)
			m.setError(fmt.Sprintf("Copy failed: %v", err))
			return nil
		}
		m.setStatus(fmt.Sprintf("Copied id %s", rec.ID()))
		return nil

	case "p":
		if def.RichTextField() == "" {
			return nil
		}
		m.preview = !m.preview
		m.layout()
		return nil

	case "0":
		m.ctrl.Store().ClearSort()
		m.refresh()
		return nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i := int(key[0] - '1')
		if i < len(def.Columns) {
			m.ctrl.Sort(def.Columns[i])
			m.refresh()
		}
		return nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *ScreenModel) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.search.Blur()
		m.mode = browsing
		return nil
	case "esc":
		m.search.Blur()
		m.search.SetValue("")
		m.ctrl.Search("")
		m.mode = browsing
		m.refresh()
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.ctrl.Search(m.search.Value())
	m.refresh()
	return cmd
}

func (m *ScreenModel) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	id := m.deleting
	m.deleting = ""
	m.mode = browsing

	switch msg.String() {
	case "y", "Y":
		m.setStatus(fmt.Sprintf("Deleting %s %s...", m.ctrl.Definition().Singular, id))
		return m.deleteCmd(id)
	}
	m.status = ""
	return nil
}

func (m *ScreenModel) openForm() tea.Cmd {
	m.form = NewFormModel(m.ctrl)
	m.form.SetSize(m.width, m.height)
	m.mode = editing
	m.status = ""
	return m.form.Init()
}

func (m *ScreenModel) closeForm() {
	m.form = nil
	m.mode = browsing
}

func (m *ScreenModel) updateForm(msg tea.KeyMsg) tea.Cmd {
	action, cmd := m.form.Update(msg)
	switch action {
	case formCancel:
		m.ctrl.Close()
		m.closeForm()
		return nil
	case formSubmit:
		if m.form.submitting {
			return nil
		}
		m.form.submitting = true
		return m.submitCmd()
	}
	return cmd
}

func (m *ScreenModel) handleSaved(msg savedMsg) tea.Cmd {
	def := m.ctrl.Definition()

	if errors.Is(msg.err, screen.ErrSubmitPending) {
		return nil
	}
	if m.form != nil {
		m.form.submitting = false
	}

	if msg.err != nil {
		if m.form == nil {
			m.setError(fmt.Sprintf("Failed to save %s: %v", def.Singular, msg.err))
		}
		return nil
	}

	// the form was closed or replaced while the request ran
	if m.form != nil && m.ctrl.Draft() == nil {
		m.closeForm()
	}
	m.setStatus(fmt.Sprintf("Saved %s %s", def.Singular, msg.record.ID()))
	m.refresh()
	m.selectID(msg.record.ID())
	return nil
}

func (m *ScreenModel) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *ScreenModel) setError(s string) {
	m.status = s
	m.statusErr = true
}

// selected returns the record under the table cursor
func (m *ScreenModel) selected() (api.Record, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return nil, false
	}
	return m.records[i], true
}

func (m *ScreenModel) selectID(id api.RecordID) {
	for i, rec := range m.records {
		if rec.ID() == id {
			m.table.SetCursor(i)
			return
		}
	}
}

// refresh rebuilds the table from the store, keeping the selected record
func (m *ScreenModel) refresh() {
	var current api.RecordID
	if rec, ok := m.selected(); ok {
		current = rec.ID()
	}

	def := m.ctrl.Definition()
	state := m.ctrl.Store().Snapshot()
	m.records = state.Filtered

	m.table.SetRows(nil)
	m.table.SetColumns(buildColumns(def, m.width, state.SortKey, state.SortDir))
	m.table.SetRows(buildRows(def, m.records))

	if current != "" {
		m.selectID(current)
	}
	if n := len(m.records); n > 0 && m.table.Cursor() >= n {
		m.table.SetCursor(len(m.records) - 1)
	}
}

// Status summarizes the screen for the header
func (m *ScreenModel) Status() string {
	state := m.ctrl.Store().Snapshot()
	parts := []string{fmt.Sprintf("%d of %d records", len(state.Filtered), len(state.Items))}
	if state.SortKey != "" {
		parts = append(parts, fmt.Sprintf("sorted by %s %s", state.SortKey, arrow(state.SortDir)))
	}
	if m.loading {
		parts = append(parts, "loading...")
	}
	return strings.Join(parts, " • ")
}

// Help returns the key help for the current mode
func (m *ScreenModel) Help() string {
	switch m.mode {
	case searching:
		return "type to filter • enter: keep • esc: clear"
	case confirming:
		return "y: delete • any other key: cancel"
	case editing:
		return "tab/shift+tab: field • ctrl+s: save • esc: cancel"
	}
	help := "n: new • e: edit • d: delete • /: search • 1-9: sort • 0: unsort • r: reload • x: export • c: copy id"
	if m.ctrl.Definition().RichTextField() != "" {
		help += " • p: preview"
	}
	return help + " • tab: sidebar • q: quit"
}

// View renders the screen
func (m *ScreenModel) View() string {
	if m.mode == editing {
		return m.form.View()
	}

	var b strings.Builder
	if m.mode == searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
	}
	b.WriteString("\n")

	if len(m.records) == 0 && !m.loading {
		def := m.ctrl.Definition()
		msg := fmt.Sprintf("No %s found.\n\nPress 'n' to create a new %s", strings.ToLower(def.Title), strings.ToLower(def.Singular))
		if m.search.Value() != "" {
			msg = fmt.Sprintf("No %s match %q", strings.ToLower(def.Title), m.search.Value())
		}
		b.WriteString(noItemsStyle.Render(msg))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	switch {
	case m.mode == confirming:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Delete %s %s? (y/n)", m.ctrl.Definition().Singular, m.deleting)))
	case m.statusErr:
		b.WriteString(errorStyle.Render(m.status))
	default:
		b.WriteString(successStyle.Render(m.status))
	}

	if m.preview {
		b.WriteString("\n")
		b.WriteString(m.previewView())
	}
	return b.String()
}

func (m *ScreenModel) previewView() string {
	field := m.ctrl.Definition().RichTextField()
	rec, ok := m.selected()
	text := ""
	if ok {
		text = rec.String(field)
	}
	if strings.TrimSpace(text) == "" {
		text = "(empty)"
	}
	return previewStyle.Width(max(m.width-2, 10)).Render(previewText(text, m.width-4, previewHeight-2))
}

// previewText wraps text to width and keeps at most lines lines
func previewText(text string, width, lines int) string {
	wrapped := wordwrap.String(text, max(width, 10))
	out := strings.Split(wrapped, "\n")
	if len(out) > lines {
		out = append(out[:lines-1], "...")
	}
	return strings.Join(out, "\n")
}

// buildColumns lays out the id column and def's columns over width cells,
// marking the sort column
func buildColumns(def *resource.Definition, width int, sortKey string, dir collection.SortDir) []table.Column {
	cols := []table.Column{{Title: "ID", Width: idColumnWidth}}
	n := len(def.Columns)
	if n == 0 {
		return cols
	}

	// each cell is padded by one space on both sides
	avail := width - idColumnWidth - 2*(n+1)
	w := max(avail/n, minColumn)
	for _, name := range def.Columns {
		title := columnTitle(def, name)
		if name == sortKey {
			title += " " + arrow(dir)
		}
		cols = append(cols, table.Column{Title: title, Width: w})
	}
	return cols
}

func buildRows(def *resource.Definition, records []api.Record) []table.Row {
	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		row := table.Row{string(rec.ID())}
		for _, name := range def.Columns {
			row = append(row, strings.Join(strings.Fields(rec.String(name)), " "))
		}
		rows = append(rows, row)
	}
	return rows
}

func columnTitle(def *resource.Definition, name string) string {
	if f, ok := def.Field(name); ok && f.Label != "" {
		return f.Label
	}
	switch name {
	case api.FieldCreatedAt:
		return "Created"
	case api.FieldUpdatedAt:
		return "Updated"
	case api.FieldCreatedBy:
		return "Created by"
	}
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func arrow(dir collection.SortDir) string {
	if dir == collection.Desc {
		return "▼"
	}
	return "▲"
}

// Styles for the screen
var (
	noItemsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(1, 2)

	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)
