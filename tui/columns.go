package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type column interface {
	SetSize(width, height int)
	Update(msg tea.Msg) (column, tea.Cmd)
	View(styles styles, focused bool) string
	Title() string
}

// projectEntry is a row in the dashboard project list. The payload carries
// the project id so selection survives re-rendering.
type projectEntry struct {
	title     string
	desc      string
	projectID string
}

func (e projectEntry) Title() string       { return e.title }
func (e projectEntry) Description() string { return e.desc }
func (e projectEntry) FilterValue() string { return e.title }

type projectColumn struct {
	title       string
	model       list.Model
	width       int
	height      int
	onSelect    func(entry projectEntry) tea.Cmd
	onHighlight func(entry projectEntry) tea.Cmd
}

func newProjectColumn(title string, s styles, onSelect func(projectEntry) tea.Cmd) *projectColumn {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = s.listSel
	delegate.Styles.SelectedDesc = s.listSel
	delegate.Styles.NormalTitle = s.listItem
	delegate.Styles.NormalDesc = s.listItem.Foreground(palette.textMuted)

	m := list.New([]list.Item{}, delegate, 32, 20)
	m.Title = title
	m.SetShowStatusBar(false)
	m.SetFilteringEnabled(false)
	m.SetShowHelp(false)
	m.SetShowPagination(false)

	return &projectColumn{
		title:    title,
		model:    m,
		onSelect: onSelect,
	}
}

func projectEntryFor(p project, pinned bool) projectEntry {
	name := p.DisplayName
	if name == "" {
		name = p.Name
	}
	title := fmt.Sprintf("%s %s", stageIcon(p.Status), name)
	if pinned {
		title = "📌 " + title
	}
	desc := statusLabel(p.Status)
	if !isSetupStatus(p.Status) && p.FeedbackCount > 0 {
		desc = fmt.Sprintf("%s • %d pending", desc, p.FeedbackCount)
	}
	return projectEntry{title: title, desc: desc, projectID: p.ID}
}

func (c *projectColumn) SetProjects(projects []project, pinned func(path string) bool, keepID string) {
	items := make([]list.Item, len(projects))
	target := 0
	for i, p := range projects {
		items[i] = projectEntryFor(p, pinned != nil && pinned(p.Path))
		if keepID != "" && p.ID == keepID {
			target = i
		}
	}
	c.model.SetItems(items)
	if len(items) > 0 {
		c.model.Select(target)
	}
}

// SetEntries replaces the rows directly; used for lists that are not
// projects, like the stage document picker.
func (c *projectColumn) SetEntries(entries []projectEntry) {
	items := make([]list.Item, len(entries))
	for i, entry := range entries {
		items[i] = entry
	}
	c.model.SetItems(items)
	if len(items) > 0 {
		c.model.Select(0)
	}
}

func (c *projectColumn) SelectedEntry() (projectEntry, bool) {
	if entry, ok := c.model.SelectedItem().(projectEntry); ok {
		return entry, true
	}
	return projectEntry{}, false
}

func (c *projectColumn) SetHighlightFunc(fn func(projectEntry) tea.Cmd) {
	c.onHighlight = fn
}

func (c *projectColumn) SetSize(width, height int) {
	c.width = width
	if height < 3 {
		height = 3
	}
	c.height = height
	c.model.SetSize(width, height-2)
}

func (c *projectColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	prev := c.model.Index()
	if m, ok := msg.(tea.KeyMsg); ok && m.String() == "enter" && c.onSelect != nil {
		if entry, ok := c.SelectedEntry(); ok {
			return c, c.onSelect(entry)
		}
	}
	var cmd tea.Cmd
	c.model, cmd = c.model.Update(msg)
	if c.model.Index() != prev && c.onHighlight != nil {
		if entry, ok := c.SelectedEntry(); ok {
			if run := c.onHighlight(entry); run != nil {
				return c, tea.Batch(cmd, run)
			}
		}
	}
	return c, cmd
}

func (c *projectColumn) View(s styles, focused bool) string {
	body := lipgloss.JoinVertical(lipgloss.Left, s.columnTitle.Render(c.title), c.model.View())
	if focused {
		return s.panelFocused.Width(c.width).Render(body)
	}
	return s.panel.Width(c.width).Render(body)
}

func (c *projectColumn) Title() string {
	return c.title
}

func defaultTableStyles() table.Styles {
	tStyles := table.DefaultStyles()
	tStyles.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(palette.textMuted).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(palette.border).
		Padding(0, 1)
	tStyles.Cell = lipgloss.NewStyle().Padding(0, 1)
	tStyles.Selected = lipgloss.NewStyle().
		Foreground(palette.text).
		Background(palette.selection).
		Padding(0, 1)
	return tStyles
}

// feedbackTableColumn lists ledger items sorted by priority. space toggles
// completion, enter opens the edit form; both are wired by the model.
type feedbackTableColumn struct {
	title    string
	table    table.Model
	width    int
	height   int
	items    []feedbackItem
	onToggle func(feedbackItem) tea.Cmd
	onEdit   func(feedbackItem) tea.Cmd
}

func newFeedbackTableColumn(title string) *feedbackTableColumn {
	columns := []table.Column{
		{Title: "Priority", Width: 14},
		{Title: "Status", Width: 12},
		{Title: "Feedback", Width: 48},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(defaultTableStyles())
	return &feedbackTableColumn{title: title, table: t}
}

func (c *feedbackTableColumn) SetCallbacks(onToggle, onEdit func(feedbackItem) tea.Cmd) {
	c.onToggle = onToggle
	c.onEdit = onEdit
}

func (c *feedbackTableColumn) SetItems(items []feedbackItem) {
	selectedID := ""
	if item, ok := c.SelectedItem(); ok {
		selectedID = item.ID
	}
	c.items = append([]feedbackItem(nil), items...)
	rows := make([]table.Row, len(items))
	for i, item := range items {
		status := item.Status
		if item.Status == feedbackStatusCompleted {
			status = "✓ " + status
		}
		rows[i] = table.Row{priorityLabel(item.Priority), status, item.Text}
	}
	c.table.SetRows(rows)
	if len(rows) == 0 {
		return
	}
	target := 0
	for i, item := range c.items {
		if item.ID == selectedID {
			target = i
			break
		}
	}
	c.table.SetCursor(target)
}

func (c *feedbackTableColumn) SelectedItem() (feedbackItem, bool) {
	cursor := c.table.Cursor()
	if cursor < 0 || cursor >= len(c.items) {
		return feedbackItem{}, false
	}
	return c.items[cursor], true
}

func (c *feedbackTableColumn) SetSize(width, height int) {
	if width < 40 {
		width = 40
	}
	if height < 5 {
		height = 5
	}
	c.width = width
	c.height = height

	priorityWidth := 14
	statusWidth := 12
	textWidth := maxInt(width-priorityWidth-statusWidth-8, 24)
	c.table.SetColumns([]table.Column{
		{Title: "Priority", Width: priorityWidth},
		{Title: "Status", Width: statusWidth},
		{Title: "Feedback", Width: textWidth},
	})
	c.table.SetHeight(height - 3)
}

func (c *feedbackTableColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	var cmds []tea.Cmd

	var cmd tea.Cmd
	c.table, cmd = c.table.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case " ", "space":
			if item, ok := c.SelectedItem(); ok && c.onToggle != nil {
				cmds = append(cmds, c.onToggle(item))
			}
		case "enter":
			if item, ok := c.SelectedItem(); ok && c.onEdit != nil {
				cmds = append(cmds, c.onEdit(item))
			}
		}
	}

	if len(cmds) == 0 {
		return c, nil
	}
	return c, tea.Batch(cmds...)
}

func (c *feedbackTableColumn) View(s styles, focused bool) string {
	title := s.columnTitle.Render(c.title)
	var body string
	if len(c.items) == 0 {
		body = s.listItem.Foreground(palette.textMuted).Render("No feedback yet")
	} else {
		body = c.table.View()
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	if focused {
		return s.panelFocused.Width(c.width).Render(content)
	}
	return s.panel.Width(c.width).Render(content)
}

func (c *feedbackTableColumn) Title() string {
	return c.title
}

type issueTableColumn struct {
	title  string
	table  table.Model
	width  int
	height int
	items  []issue
	onEdit func(issue) tea.Cmd
}

func newIssueTableColumn(title string) *issueTableColumn {
	columns := []table.Column{
		{Title: "Priority", Width: 14},
		{Title: "Complexity", Width: 12},
		{Title: "Status", Width: 12},
		{Title: "Title", Width: 40},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(defaultTableStyles())
	return &issueTableColumn{title: title, table: t}
}

func (c *issueTableColumn) SetOnEdit(fn func(issue) tea.Cmd) {
	c.onEdit = fn
}

func (c *issueTableColumn) SetItems(items []issue) {
	c.items = append([]issue(nil), items...)
	rows := make([]table.Row, len(items))
	for i, item := range items {
		title := item.Title
		if len(item.Subtasks) > 0 {
			title = fmt.Sprintf("%s (%d subtasks)", title, len(item.Subtasks))
		}
		rows[i] = table.Row{
			priorityLabel(item.Priority),
			complexityLabel(item.Complexity),
			item.Status,
			title,
		}
	}
	c.table.SetRows(rows)
	if len(rows) > 0 {
		c.table.SetCursor(0)
	}
}

func (c *issueTableColumn) SelectedItem() (issue, bool) {
	cursor := c.table.Cursor()
	if cursor < 0 || cursor >= len(c.items) {
		return issue{}, false
	}
	return c.items[cursor], true
}

func (c *issueTableColumn) SetSize(width, height int) {
	if width < 48 {
		width = 48
	}
	if height < 5 {
		height = 5
	}
	c.width = width
	c.height = height

	titleWidth := maxInt(width-14-12-12-10, 24)
	c.table.SetColumns([]table.Column{
		{Title: "Priority", Width: 14},
		{Title: "Complexity", Width: 12},
		{Title: "Status", Width: 12},
		{Title: "Title", Width: titleWidth},
	})
	c.table.SetHeight(height - 3)
}

func (c *issueTableColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	var cmds []tea.Cmd

	var cmd tea.Cmd
	c.table, cmd = c.table.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		if item, ok := c.SelectedItem(); ok && c.onEdit != nil {
			cmds = append(cmds, c.onEdit(item))
		}
	}

	if len(cmds) == 0 {
		return c, nil
	}
	return c, tea.Batch(cmds...)
}

func (c *issueTableColumn) View(s styles, focused bool) string {
	title := s.columnTitle.Render(c.title)
	var body string
	if len(c.items) == 0 {
		body = s.listItem.Foreground(palette.textMuted).Render("No issues yet")
	} else {
		body = c.table.View()
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	if focused {
		return s.panelFocused.Width(c.width).Render(content)
	}
	return s.panel.Width(c.width).Render(content)
}

func (c *issueTableColumn) Title() string {
	return c.title
}

// previewColumn renders the highlighted stage document or detail text.
type previewColumn struct {
	title   string
	width   int
	height  int
	content string
	view    viewport.Model
}

func newPreviewColumn(title string, width int) *previewColumn {
	vp := viewport.New(width, 20)
	return &previewColumn{title: title, view: vp}
}

func (p *previewColumn) SetTitle(title string) {
	if strings.TrimSpace(title) != "" {
		p.title = title
	}
}

func (p *previewColumn) SetSize(width, height int) {
	p.width = width
	if height < 3 {
		height = 3
	}
	p.height = height
	p.view.Width = width - 2
	p.view.Height = height - 3
}

func (p *previewColumn) SetContent(content string) {
	p.content = content
	p.view.SetContent(content)
	p.view.GotoTop()
}

func (p *previewColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	var cmd tea.Cmd
	p.view, cmd = p.view.Update(msg)
	return p, cmd
}

func (p *previewColumn) View(s styles, focused bool) string {
	header := s.columnTitle.Render(p.title)
	body := header + "\n" + p.view.View()
	if focused {
		return s.panelFocused.Width(p.width).Render(body)
	}
	return s.panel.Width(p.width).Render(body)
}

func (p *previewColumn) Title() string {
	return p.title
}
