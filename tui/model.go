package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	sessionPollInterval = 5 * time.Second
	badgePollInterval   = 10 * time.Second
	toastDuration       = 3 * time.Second
	logPaneLines        = 12
)

type appView int

const (
	viewDashboard appView = iota
	viewProject
	viewSettings
)

type projectTab int

const (
	tabOverview projectTab = iota
	tabFeedback
	tabIssues
	tabArchive
	tabDocs
)

var projectTabTitles = []string{"Overview", "Feedback", "Issues", "Completed", "Docs"}

type inputMode int

const (
	inputNone inputMode = iota
	inputNewProjectName
	inputFeedbackForm
	inputIssueForm
	inputIdeaForm
	inputSettingsForm
	inputConfirmDelete
)

// messages

type projectsLoadedMsg struct {
	err error
}

type projectOpenedMsg struct {
	id  string
	err error
}

type projectCreatedMsg struct {
	id  string
	err error
}

type mutationDoneMsg struct {
	action string
	err    error
}

type stageAdvancedMsg struct {
	id   string
	from string
	to   string
	err  error
}

type sessionTickMsg struct {
	gen int
}

type sessionStatusMsg struct {
	gen  int
	info sessionInfo
	err  error
}

type badgeTickMsg struct {
	gen int
}

type toastExpiredMsg struct {
	id int
}

type docLoadedMsg struct {
	doc     stageDoc
	content string
	err     error
}

type promptCopiedMsg struct {
	action string
	err    error
}

type assistantLaunchedMsg struct {
	err error
}

type keymap struct {
	quit       key.Binding
	back       key.Binding
	reload     key.Binding
	settings   key.Binding
	newProject key.Binding
	nextTab    key.Binding
	prevTab    key.Binding
	add        key.Binding
	delete     key.Binding
	archive    key.Binding
	copyPrompt key.Binding
	launch     key.Binding
	runJob     key.Binding
	advance    key.Binding
	pin        key.Binding
	explorer   key.Binding
	openURL    key.Binding
}

func newKeymap() keymap {
	return keymap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		settings:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		newProject: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new project")),
		nextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		prevTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		archive:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "archive")),
		copyPrompt: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy prompt")),
		launch:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "launch assistant")),
		runJob:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "run headless")),
		advance:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "advance stage")),
		pin:        key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "pin")),
		explorer:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open folder")),
		openURL:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "open url")),
	}
}

type feedbackForm struct {
	text      textarea.Model
	priority  int
	editingID string
}

type issueForm struct {
	title       textinput.Model
	description textarea.Model
	priority    int
	complexity  int
	focusDesc   bool
	editingID   string
}

type ideaForm struct {
	fields []textarea.Model
	step   int
}

var ideaFormLabels = []string{
	"Summary",
	"Problem",
	"Core Functionality",
	"Value Proposition",
	"Additional Requirements (optional)",
}

type settingsForm struct {
	directory   textinput.Model
	draft       settings
	suggestions []string
}

type model struct {
	store     *projectStore
	backend   backend
	hub       *hubStore
	telemetry *telemetryLogger
	jobs      *jobManager

	styles styles
	keys   keymap

	view      appView
	tab       projectTab
	inputMode inputMode

	width  int
	height int

	projectsCol *projectColumn
	feedbackCol *feedbackTableColumn
	issuesCol   *issueTableColumn
	archiveCol  *feedbackTableColumn
	docsCol     *projectColumn
	preview     *previewColumn

	spin    spinner.Model
	loading bool

	session    sessionInfo
	sessionGen int
	badgeGen   int

	feedbackForm feedbackForm
	issueForm    issueForm
	ideaForm     ideaForm
	settingsForm settingsForm
	newProject   textinput.Model

	confirmAction string
	confirmID     string

	uiCfg     *uiConfig
	uiCfgPath string

	logLines []string
	toast    string
	toastErr bool
	toastID  int

	docContent string
	docTitle   string
}

type appDeps struct {
	store     *projectStore
	backend   backend
	hub       *hubStore
	telemetry *telemetryLogger
	configDir string
}

func initialModel(deps appDeps) *model {
	s := newStyles()

	m := &model{
		store:     deps.store,
		backend:   deps.backend,
		hub:       deps.hub,
		telemetry: deps.telemetry,
		jobs:      newJobManager(),
		styles:    s,
		keys:      newKeymap(),
		view:      viewDashboard,
	}

	m.uiCfg, m.uiCfgPath = loadUIConfig(deps.configDir)
	setMarkdownTheme(markdownThemeFromString(m.uiCfg.Theme))

	m.projectsCol = newProjectColumn("Projects", s, func(entry projectEntry) tea.Cmd {
		return m.openProjectCmd(entry.projectID)
	})
	m.projectsCol.SetHighlightFunc(func(entry projectEntry) tea.Cmd {
		m.renderDashboardPreview(entry.projectID)
		return nil
	})

	m.feedbackCol = newFeedbackTableColumn("Feedback")
	m.feedbackCol.SetCallbacks(
		func(item feedbackItem) tea.Cmd { return m.toggleFeedbackCmd(item.ID) },
		func(item feedbackItem) tea.Cmd { m.openFeedbackForm(&item); return nil },
	)
	m.issuesCol = newIssueTableColumn("Issues")
	m.issuesCol.SetOnEdit(func(item issue) tea.Cmd { m.openIssueForm(&item); return nil })
	m.archiveCol = newFeedbackTableColumn("Completed & Archived")
	m.docsCol = newProjectColumn("Documents", s, nil)
	m.preview = newPreviewColumn("Preview", 60)

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot

	m.newProject = textinput.New()
	m.newProject.Placeholder = "project-name"
	m.newProject.CharLimit = 80

	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		m.loadProjectsCmd(),
		m.badgeTick(),
	)
}

// commands

func (m *model) loadProjectsCmd() tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		return projectsLoadedMsg{err: m.store.LoadProjects()}
	}
}

func (m *model) openProjectCmd(id string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		return projectOpenedMsg{id: id, err: m.store.SetCurrentProject(id)}
	}
}

func (m *model) toggleFeedbackCmd(id string) tea.Cmd {
	p, ok := m.store.CurrentProject()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return mutationDoneMsg{action: "feedback_toggled", err: m.store.ToggleFeedbackComplete(p.Path, id)}
	}
}

func (m *model) advanceStageCmd(p project) tea.Cmd {
	adv := advancementFor(p.Status)
	if adv == nil {
		return nil
	}
	return func() tea.Msg {
		return stageAdvancedMsg{id: p.ID, from: p.Status, to: adv.NextStatus, err: m.store.AdvanceStage(p.ID)}
	}
}

func (m *model) copyStagePromptCmd(p project) tea.Cmd {
	return func() tea.Msg {
		prompt, err := stagePrompt(m.backend, p)
		if err == nil && prompt != "" {
			err = clipboard.WriteAll(prompt)
		}
		return promptCopiedMsg{action: "stage_prompt_copied", err: err}
	}
}

func (m *model) copyFeedbackPromptCmd(p project) tea.Cmd {
	items := filterByMinPriority(m.store.Feedback(), 5)
	pending := items[:0]
	for _, item := range items {
		if item.Status == feedbackStatusPending {
			pending = append(pending, item)
		}
	}
	return func() tea.Msg {
		prompt, err := composeFeedbackPrompt(m.backend, "feedbackList", p.Name, pending)
		if err == nil {
			err = clipboard.WriteAll(prompt)
		}
		return promptCopiedMsg{action: "feedback_prompt_copied", err: err}
	}
}

func (m *model) launchAssistantCmd(p project) tea.Cmd {
	return func() tea.Msg {
		prompt, err := stagePrompt(m.backend, p)
		if err != nil {
			return assistantLaunchedMsg{err: err}
		}
		if prompt != "" {
			if err := clipboard.WriteAll(prompt); err != nil {
				return assistantLaunchedMsg{err: err}
			}
		}
		return assistantLaunchedMsg{err: m.backend.LaunchAssistant(p.Path, prompt)}
	}
}

func (m *model) runHeadlessCmd(p project) tea.Cmd {
	prompt, err := stagePrompt(m.backend, p)
	if err != nil {
		m.setToast(err.Error(), true)
		return m.toastTimeout()
	}
	if prompt == "" {
		m.setToast("No prompt for this stage", true)
		return m.toastTimeout()
	}
	m.telemetry.Emit("assistant_job", p.Path, "")
	id := p.ID
	return m.jobs.Enqueue(assistantJob("assistant: "+p.Name, p.Path, prompt, func(err error) tea.Cmd {
		return func() tea.Msg {
			m.store.RefreshProject(id)
			return mutationDoneMsg{action: "assistant_job_finished", err: err}
		}
	}))
}

func (m *model) sessionTick() tea.Cmd {
	gen := m.sessionGen
	return tea.Tick(sessionPollInterval, func(time.Time) tea.Msg {
		return sessionTickMsg{gen: gen}
	})
}

func (m *model) badgeTick() tea.Cmd {
	gen := m.badgeGen
	return tea.Tick(badgePollInterval, func(time.Time) tea.Msg {
		return badgeTickMsg{gen: gen}
	})
}

func (m *model) fetchSessionCmd(path string) tea.Cmd {
	gen := m.sessionGen
	return func() tea.Msg {
		info, err := m.backend.SessionStatus(path)
		return sessionStatusMsg{gen: gen, info: info, err: err}
	}
}

func (m *model) loadDocCmd(p project, doc stageDoc) tea.Cmd {
	return func() tea.Msg {
		content, err := loadStageDoc(p.Path, doc)
		return docLoadedMsg{doc: doc, content: content, err: err}
	}
}

func (m *model) toastTimeout() tea.Cmd {
	id := m.toastID
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m *model) setToast(text string, isErr bool) {
	m.toast = text
	m.toastErr = isErr
	m.toastID++
}

func (m *model) appendLog(line string) {
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > 200 {
		m.logLines = m.logLines[len(m.logLines)-200:]
	}
}

// update

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case projectsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.setToast(msg.err.Error(), true)
			return m, m.toastTimeout()
		}
		m.syncProjectsColumn()
		if current, ok := m.store.CurrentProject(); ok {
			m.renderDashboardPreview(current.ID)
		} else {
			m.renderDashboardPreview("")
		}
		return m, nil

	case projectOpenedMsg:
		m.loading = false
		if msg.err != nil {
			m.setToast(msg.err.Error(), true)
			return m, m.toastTimeout()
		}
		m.view = viewProject
		m.tab = tabOverview
		m.sessionGen++
		m.syncProjectTabs()
		if p, ok := m.store.CurrentProject(); ok {
			m.telemetry.Emit("project_opened", p.Path, "")
			m.uiCfg.LastProjectPath = p.Path
			_ = saveUIConfig(m.uiCfg, m.uiCfgPath)
			m.renderOverview()
			return m, tea.Batch(m.fetchSessionCmd(p.Path), m.sessionTick())
		}
		return m, nil

	case projectCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.setToast(msg.err.Error(), true)
			return m, m.toastTimeout()
		}
		m.syncProjectsColumn()
		m.setToast("Project created", false)
		return m, tea.Batch(m.toastTimeout(), m.openProjectCmd(msg.id))

	case mutationDoneMsg:
		if msg.err != nil {
			m.setToast(msg.err.Error(), true)
		} else {
			m.setToast(strings.ReplaceAll(msg.action, "_", " "), false)
			if p, ok := m.store.CurrentProject(); ok {
				m.telemetry.Emit(msg.action, p.Path, "")
			}
		}
		m.syncProjectTabs()
		m.syncProjectsColumn()
		m.renderOverview()
		return m, m.toastTimeout()

	case stageAdvancedMsg:
		if msg.err != nil {
			m.setToast(msg.err.Error(), true)
			return m, m.toastTimeout()
		}
		if p, ok := m.store.CurrentProject(); ok {
			_ = m.hub.RecordStageEvent(p.Path, msg.from, msg.to)
			m.telemetry.EmitExtra("stage_advanced", p.Path, "", map[string]string{"to": msg.to})
		}
		m.setToast("Stage: "+statusLabel(msg.to), false)
		m.syncProjectsColumn()
		m.renderOverview()
		return m, m.toastTimeout()

	case sessionTickMsg:
		// Ticks from a previous project selection are dropped; the
		// generation bump on switch is the teardown.
		if msg.gen != m.sessionGen || m.view != viewProject {
			return m, nil
		}
		p, ok := m.store.CurrentProject()
		if !ok {
			return m, nil
		}
		return m, tea.Batch(m.fetchSessionCmd(p.Path), m.sessionTick())

	case sessionStatusMsg:
		if msg.gen != m.sessionGen {
			return m, nil
		}
		if msg.err == nil {
			m.session = msg.info
		}
		return m, nil

	case badgeTickMsg:
		if msg.gen != m.badgeGen {
			return m, nil
		}
		var reload tea.Cmd
		if m.view == viewDashboard && !m.loading {
			reload = m.loadProjectsCmd()
		}
		return m, tea.Batch(reload, m.badgeTick())

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case docLoadedMsg:
		if msg.err != nil {
			m.setToast(msg.err.Error(), true)
			return m, m.toastTimeout()
		}
		m.docTitle = msg.doc.Title
		m.docContent = renderMarkdown(msg.content)
		m.preview.SetTitle(msg.doc.Title)
		m.preview.SetContent(m.docContent)
		return m, nil

	case promptCopiedMsg:
		if msg.err != nil {
			m.setToast(msg.err.Error(), true)
		} else {
			m.setToast("Prompt copied to clipboard", false)
			if p, ok := m.store.CurrentProject(); ok {
				m.telemetry.Emit(msg.action, p.Path, "")
			}
		}
		return m, m.toastTimeout()

	case assistantLaunchedMsg:
		if msg.err != nil {
			m.setToast(msg.err.Error(), true)
		} else {
			m.setToast("Assistant launched, prompt on clipboard", false)
			if p, ok := m.store.CurrentProject(); ok {
				m.telemetry.Emit("assistant_launched", p.Path, "")
			}
		}
		return m, m.toastTimeout()

	case jobStartedMsg:
		m.appendLog("▶ " + msg.Title)
		return m, m.jobs.Handle(msg)

	case jobLogMsg:
		m.appendLog(msg.Line)
		return m, m.jobs.Handle(msg)

	case jobFinishedMsg:
		if msg.Err != nil {
			m.appendLog("✗ " + msg.Title + ": " + msg.Err.Error())
		} else {
			m.appendLog("✓ " + msg.Title)
		}
		return m, m.jobs.Handle(msg)

	case jobChannelClosedMsg:
		return m, m.jobs.Handle(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, m.updateFocused(msg)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode != inputNone {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.back):
		switch m.view {
		case viewProject:
			m.view = viewDashboard
			m.sessionGen++ // stop session polling for the closed project
			m.session = sessionInfo{}
			m.syncProjectsColumn()
		case viewSettings:
			m.view = viewDashboard
		}
		return m, nil

	case key.Matches(msg, m.keys.reload):
		if m.view == viewProject {
			if p, ok := m.store.CurrentProject(); ok {
				id := p.ID
				return m, func() tea.Msg {
					m.store.RefreshProject(id)
					return mutationDoneMsg{action: "project_refreshed"}
				}
			}
		}
		return m, m.loadProjectsCmd()

	case key.Matches(msg, m.keys.settings) && m.view == viewDashboard:
		m.openSettingsForm()
		return m, nil

	case key.Matches(msg, m.keys.newProject) && m.view == viewDashboard:
		m.inputMode = inputNewProjectName
		m.newProject.SetValue("")
		return m, m.newProject.Focus()
	}

	switch m.view {
	case viewDashboard:
		return m.handleDashboardKey(msg)
	case viewProject:
		return m.handleProjectKey(msg)
	}
	return m, nil
}

func (m *model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.pin) {
		if entry, ok := m.projectsCol.SelectedEntry(); ok {
			if p, ok := m.projectByID(entry.projectID); ok {
				m.uiCfg.togglePinned(p.Path)
				_ = saveUIConfig(m.uiCfg, m.uiCfgPath)
				m.syncProjectsColumn()
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	var col column
	col, cmd = m.projectsCol.Update(msg)
	m.projectsCol = col.(*projectColumn)
	return m, cmd
}

func (m *model) handleProjectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p, ok := m.store.CurrentProject()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.nextTab):
		m.setTab((m.tab + 1) % projectTab(len(projectTabTitles)))
		return m, m.tabEnterCmd(p)
	case key.Matches(msg, m.keys.prevTab):
		m.setTab((m.tab + projectTab(len(projectTabTitles)) - 1) % projectTab(len(projectTabTitles)))
		return m, m.tabEnterCmd(p)
	case key.Matches(msg, m.keys.explorer):
		if err := m.backend.OpenInExplorer(p.Path); err != nil {
			m.setToast(err.Error(), true)
			return m, m.toastTimeout()
		}
		return m, nil
	case key.Matches(msg, m.keys.openURL):
		if p.DeploymentURL == "" {
			m.setToast("No deployment URL yet", true)
			return m, m.toastTimeout()
		}
		if err := m.backend.OpenURL(p.DeploymentURL); err != nil {
			m.setToast(err.Error(), true)
			return m, m.toastTimeout()
		}
		return m, nil
	case key.Matches(msg, m.keys.launch):
		return m, m.launchAssistantCmd(p)
	case key.Matches(msg, m.keys.runJob):
		return m, m.runHeadlessCmd(p)
	case key.Matches(msg, m.keys.copyPrompt):
		if m.tab == tabFeedback {
			return m, m.copyFeedbackPromptCmd(p)
		}
		return m, m.copyStagePromptCmd(p)
	}

	switch m.tab {
	case tabOverview:
		if key.Matches(msg, m.keys.advance) {
			if p.Status == "initialized" {
				m.openIdeaForm()
				return m, nil
			}
			return m, m.advanceStageCmd(p)
		}
	case tabFeedback:
		switch {
		case key.Matches(msg, m.keys.add):
			m.openFeedbackForm(nil)
			return m, nil
		case key.Matches(msg, m.keys.delete):
			if item, ok := m.feedbackCol.SelectedItem(); ok {
				m.confirmAction = "delete_feedback"
				m.confirmID = item.ID
				m.inputMode = inputConfirmDelete
			}
			return m, nil
		case key.Matches(msg, m.keys.archive):
			if item, ok := m.feedbackCol.SelectedItem(); ok {
				path := p.Path
				id := item.ID
				return m, func() tea.Msg {
					return mutationDoneMsg{action: "feedback_archived", err: m.store.ArchiveFeedback(path, id, nil)}
				}
			}
			return m, nil
		}
	case tabIssues:
		switch {
		case key.Matches(msg, m.keys.add):
			m.openIssueForm(nil)
			return m, nil
		case key.Matches(msg, m.keys.delete):
			if item, ok := m.issuesCol.SelectedItem(); ok {
				m.confirmAction = "delete_issue"
				m.confirmID = item.ID
				m.inputMode = inputConfirmDelete
			}
			return m, nil
		}
	case tabDocs:
		if key.Matches(msg, m.keys.advance) {
			if entry, ok := m.docsCol.SelectedEntry(); ok {
				for _, doc := range listStageDocs(p.Path) {
					if doc.Rel == entry.projectID {
						return m, m.loadDocCmd(p, doc)
					}
				}
			}
			return m, nil
		}
	}

	return m, m.updateFocused(msg)
}

// tabEnterCmd loads data lazily when a tab is first shown.
func (m *model) tabEnterCmd(p project) tea.Cmd {
	switch m.tab {
	case tabArchive:
		path := p.Path
		return func() tea.Msg {
			err := m.store.LoadArchivedFeedback(path)
			return mutationDoneMsg{action: "archive_loaded", err: err}
		}
	case tabIssues:
		path := p.Path
		return func() tea.Msg {
			err := m.store.LoadIssues(path)
			return mutationDoneMsg{action: "issues_loaded", err: err}
		}
	case tabDocs:
		m.syncDocsColumn(p)
	case tabOverview:
		m.renderOverview()
	}
	return nil
}

func (m *model) setTab(tab projectTab) {
	m.tab = tab
}

func (m *model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	var col column
	switch m.view {
	case viewDashboard:
		col, cmd = m.projectsCol.Update(msg)
		m.projectsCol = col.(*projectColumn)
	case viewProject:
		switch m.tab {
		case tabFeedback:
			col, cmd = m.feedbackCol.Update(msg)
			m.feedbackCol = col.(*feedbackTableColumn)
		case tabIssues:
			col, cmd = m.issuesCol.Update(msg)
			m.issuesCol = col.(*issueTableColumn)
		case tabArchive:
			col, cmd = m.archiveCol.Update(msg)
			m.archiveCol = col.(*feedbackTableColumn)
		case tabDocs:
			col, cmd = m.docsCol.Update(msg)
			m.docsCol = col.(*projectColumn)
			var previewCmd tea.Cmd
			col, previewCmd = m.preview.Update(msg)
			m.preview = col.(*previewColumn)
			cmd = tea.Batch(cmd, previewCmd)
		case tabOverview:
			col, cmd = m.preview.Update(msg)
			m.preview = col.(*previewColumn)
		}
	}
	return cmd
}

// forms

func (m *model) openFeedbackForm(existing *feedbackItem) {
	ta := textarea.New()
	ta.Placeholder = "What needs fixing or improving?"
	ta.SetWidth(60)
	ta.SetHeight(4)
	m.feedbackForm = feedbackForm{text: ta, priority: 3}
	if existing != nil {
		m.feedbackForm.text.SetValue(existing.Text)
		m.feedbackForm.priority = existing.Priority
		m.feedbackForm.editingID = existing.ID
	}
	m.feedbackForm.text.Focus()
	m.inputMode = inputFeedbackForm
}

func (m *model) openIssueForm(existing *issue) {
	ti := textinput.New()
	ti.Placeholder = "Issue title"
	ti.CharLimit = 120
	ta := textarea.New()
	ta.Placeholder = "Description"
	ta.SetWidth(60)
	ta.SetHeight(4)
	m.issueForm = issueForm{title: ti, description: ta, priority: 3, complexity: 3}
	if existing != nil {
		m.issueForm.title.SetValue(existing.Title)
		m.issueForm.description.SetValue(existing.Description)
		m.issueForm.priority = existing.Priority
		m.issueForm.complexity = existing.Complexity
		m.issueForm.editingID = existing.ID
	}
	m.issueForm.title.Focus()
	m.inputMode = inputIssueForm
}

func (m *model) openIdeaForm() {
	fields := make([]textarea.Model, len(ideaFormLabels))
	for i := range fields {
		ta := textarea.New()
		ta.SetWidth(64)
		ta.SetHeight(4)
		fields[i] = ta
	}
	fields[0].Focus()
	m.ideaForm = ideaForm{fields: fields}
	m.inputMode = inputIdeaForm
}

func (m *model) openSettingsForm() {
	ti := textinput.New()
	ti.Placeholder = "/path/to/projects"
	current := m.store.Settings()
	ti.SetValue(current.ProjectsDirectory)
	ti.Focus()
	suggestions, _ := m.hub.Directories()
	m.settingsForm = settingsForm{directory: ti, draft: current, suggestions: suggestions}
	m.view = viewSettings
	m.inputMode = inputSettingsForm
}

func (m *model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.inputMode = inputNone
		if m.view == viewSettings {
			m.view = viewDashboard
		}
		return m, nil
	}

	switch m.inputMode {
	case inputNewProjectName:
		if msg.String() == "enter" {
			name := strings.TrimSpace(m.newProject.Value())
			m.inputMode = inputNone
			if name == "" {
				return m, nil
			}
			m.loading = true
			return m, func() tea.Msg {
				id, err := m.store.CreateProject(name)
				return projectCreatedMsg{id: id, err: err}
			}
		}
		var cmd tea.Cmd
		m.newProject, cmd = m.newProject.Update(msg)
		return m, cmd

	case inputFeedbackForm:
		return m.handleFeedbackFormKey(msg)
	case inputIssueForm:
		return m.handleIssueFormKey(msg)
	case inputIdeaForm:
		return m.handleIdeaFormKey(msg)
	case inputSettingsForm:
		return m.handleSettingsFormKey(msg)
	case inputConfirmDelete:
		return m.handleConfirmKey(msg)
	}
	return m, nil
}

func (m *model) handleFeedbackFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+up", "ctrl+k":
		if m.feedbackForm.priority > 1 {
			m.feedbackForm.priority--
		}
		return m, nil
	case "ctrl+down", "ctrl+j":
		if m.feedbackForm.priority < 5 {
			m.feedbackForm.priority++
		}
		return m, nil
	case "ctrl+s":
		text := strings.TrimSpace(m.feedbackForm.text.Value())
		if text == "" {
			m.setToast("Feedback text is empty", true)
			return m, m.toastTimeout()
		}
		p, ok := m.store.CurrentProject()
		if !ok {
			m.inputMode = inputNone
			return m, nil
		}
		form := m.feedbackForm
		m.inputMode = inputNone
		if form.editingID != "" {
			return m, func() tea.Msg {
				patch := feedbackPatch{Text: &text, Priority: &form.priority}
				return mutationDoneMsg{action: "feedback_updated", err: m.store.UpdateFeedback(p.Path, form.editingID, patch)}
			}
		}
		return m, func() tea.Msg {
			return mutationDoneMsg{action: "feedback_added", err: m.store.AddFeedback(p.Path, text, form.priority)}
		}
	}
	var cmd tea.Cmd
	m.feedbackForm.text, cmd = m.feedbackForm.text.Update(msg)
	return m, cmd
}

func (m *model) handleIssueFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.issueForm.focusDesc = !m.issueForm.focusDesc
		if m.issueForm.focusDesc {
			m.issueForm.title.Blur()
			m.issueForm.description.Focus()
		} else {
			m.issueForm.description.Blur()
			m.issueForm.title.Focus()
		}
		return m, nil
	case "ctrl+up", "ctrl+k":
		if m.issueForm.priority > 1 {
			m.issueForm.priority--
		}
		return m, nil
	case "ctrl+down", "ctrl+j":
		if m.issueForm.priority < 5 {
			m.issueForm.priority++
		}
		return m, nil
	case "ctrl+left":
		if m.issueForm.complexity > 1 {
			m.issueForm.complexity--
		}
		return m, nil
	case "ctrl+right":
		if m.issueForm.complexity < 5 {
			m.issueForm.complexity++
		}
		return m, nil
	case "ctrl+s":
		title := strings.TrimSpace(m.issueForm.title.Value())
		if title == "" {
			m.setToast("Issue title is empty", true)
			return m, m.toastTimeout()
		}
		p, ok := m.store.CurrentProject()
		if !ok {
			m.inputMode = inputNone
			return m, nil
		}
		form := m.issueForm
		m.inputMode = inputNone
		description := strings.TrimSpace(form.description.Value())
		if form.editingID != "" {
			return m, func() tea.Msg {
				patch := issuePatch{
					Title:       &title,
					Description: &description,
					Priority:    &form.priority,
					Complexity:  &form.complexity,
				}
				return mutationDoneMsg{action: "issue_updated", err: m.store.UpdateIssue(p.Path, form.editingID, patch)}
			}
		}
		return m, func() tea.Msg {
			newIssue := issue{
				Title:       title,
				Description: description,
				Priority:    form.priority,
				Complexity:  form.complexity,
			}
			return mutationDoneMsg{action: "issue_added", err: m.store.AddIssue(p.Path, newIssue)}
		}
	}
	var cmd tea.Cmd
	if m.issueForm.focusDesc {
		m.issueForm.description, cmd = m.issueForm.description.Update(msg)
	} else {
		m.issueForm.title, cmd = m.issueForm.title.Update(msg)
	}
	return m, cmd
}

func (m *model) handleIdeaFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := &m.ideaForm
	switch msg.String() {
	case "tab", "ctrl+n":
		form.fields[form.step].Blur()
		form.step = (form.step + 1) % len(form.fields)
		form.fields[form.step].Focus()
		return m, nil
	case "shift+tab", "ctrl+p":
		form.fields[form.step].Blur()
		form.step = (form.step + len(form.fields) - 1) % len(form.fields)
		form.fields[form.step].Focus()
		return m, nil
	case "ctrl+s":
		idea := projectIdea{
			Summary:                form.fields[0].Value(),
			Problem:                form.fields[1].Value(),
			CoreFunctionality:      form.fields[2].Value(),
			ValueProposition:       form.fields[3].Value(),
			AdditionalRequirements: form.fields[4].Value(),
		}
		if strings.TrimSpace(idea.Summary) == "" {
			m.setToast("Summary is required", true)
			return m, m.toastTimeout()
		}
		p, ok := m.store.CurrentProject()
		if !ok {
			m.inputMode = inputNone
			return m, nil
		}
		m.inputMode = inputNone
		path := p.Path
		return m, func() tea.Msg {
			return mutationDoneMsg{action: "idea_saved", err: m.store.SaveProjectIdea(path, idea)}
		}
	}
	var cmd tea.Cmd
	form.fields[form.step], cmd = form.fields[form.step].Update(msg)
	return m, cmd
}

func (m *model) handleSettingsFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+t":
		m.uiCfg.Theme = nextMarkdownTheme(markdownThemeFromString(m.uiCfg.Theme)).String()
		setMarkdownTheme(markdownThemeFromString(m.uiCfg.Theme))
		_ = saveUIConfig(m.uiCfg, m.uiCfgPath)
		return m, nil
	case "ctrl+e":
		m.settingsForm.draft.SoundEffectsEnabled = !m.settingsForm.draft.SoundEffectsEnabled
		return m, nil
	case "ctrl+g":
		m.settingsForm.draft.GithubIntegrationEnabled = !m.settingsForm.draft.GithubIntegrationEnabled
		return m, nil
	case "enter", "ctrl+s":
		draft := m.settingsForm.draft
		draft.ProjectsDirectory = strings.TrimSpace(m.settingsForm.directory.Value())
		m.inputMode = inputNone
		m.view = viewDashboard
		if draft.ProjectsDirectory != "" {
			_ = m.hub.RememberDirectory(draft.ProjectsDirectory)
		}
		return m, func() tea.Msg {
			if err := m.store.SaveSettings(draft); err != nil {
				return mutationDoneMsg{action: "settings_saved", err: err}
			}
			return projectsLoadedMsg{err: m.store.LoadProjects()}
		}
	}
	var cmd tea.Cmd
	m.settingsForm.directory, cmd = m.settingsForm.directory.Update(msg)
	return m, cmd
}

func (m *model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		p, ok := m.store.CurrentProject()
		if !ok {
			m.inputMode = inputNone
			return m, nil
		}
		action := m.confirmAction
		id := m.confirmID
		m.inputMode = inputNone
		m.confirmAction = ""
		m.confirmID = ""
		path := p.Path
		switch action {
		case "delete_feedback":
			return m, func() tea.Msg {
				return mutationDoneMsg{action: "feedback_deleted", err: m.store.DeleteFeedback(path, id)}
			}
		case "delete_issue":
			return m, func() tea.Msg {
				return mutationDoneMsg{action: "issue_deleted", err: m.store.DeleteIssue(path, id)}
			}
		}
		return m, nil
	default:
		m.inputMode = inputNone
		m.confirmAction = ""
		m.confirmID = ""
		return m, nil
	}
}

// sync helpers

func (m *model) projectByID(id string) (project, bool) {
	for _, p := range m.store.Projects() {
		if p.ID == id {
			return p, true
		}
	}
	return project{}, false
}

func (m *model) syncProjectsColumn() {
	keep := ""
	if entry, ok := m.projectsCol.SelectedEntry(); ok {
		keep = entry.projectID
	}
	m.projectsCol.SetProjects(m.store.Projects(), m.uiCfg.isPinned, keep)
}

func (m *model) syncProjectTabs() {
	m.feedbackCol.SetItems(m.store.Feedback())
	m.issuesCol.SetItems(m.store.Issues())
	m.archiveCol.SetItems(m.store.ArchivedFeedback())
	if p, ok := m.store.CurrentProject(); ok {
		m.syncDocsColumn(p)
	}
}

func (m *model) syncDocsColumn(p project) {
	docs := listStageDocs(p.Path)
	entries := make([]projectEntry, len(docs))
	for i, doc := range docs {
		entries[i] = projectEntry{title: doc.Title, desc: doc.Rel, projectID: doc.Rel}
	}
	m.docsCol.SetEntries(entries)
}

func (m *model) renderDashboardPreview(id string) {
	p, ok := m.projectByID(id)
	if !ok {
		m.preview.SetTitle("Activity")
		m.preview.SetContent(renderMarkdown(activityMarkdown(m.recentActivity())))
		return
	}
	m.preview.SetTitle(displayName(p))
	m.preview.SetContent(renderMarkdown(projectSummaryMarkdown(p)))
}

func (m *model) recentActivity() []stageEvent {
	if m.hub == nil {
		return nil
	}
	events, err := m.hub.RecentEvents(8)
	if err != nil {
		return nil
	}
	return events
}

func (m *model) renderOverview() {
	p, ok := m.store.CurrentProject()
	if !ok {
		return
	}
	var history []stageEvent
	if m.hub != nil {
		history, _ = m.hub.StageEvents(p.Path)
	}
	m.preview.SetTitle("Stage")
	m.preview.SetContent(renderMarkdown(overviewMarkdown(p, m.session, history)))
}

func displayName(p project) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

func projectSummaryMarkdown(p project) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s %s\n\n", stageIcon(p.Status), displayName(p))
	if p.Description != "" {
		sb.WriteString(p.Description + "\n\n")
	}
	fmt.Fprintf(&sb, "**Stage:** %s (%d/%d)\n\n", statusLabel(p.Status), stageIndex(p.Status)+1, len(pipelineStatuses))
	if len(p.TechStack) > 0 {
		fmt.Fprintf(&sb, "**Stack:** %s\n\n", strings.Join(p.TechStack, ", "))
	}
	if p.DeploymentURL != "" {
		fmt.Fprintf(&sb, "**Deployed at:** %s\n\n", p.DeploymentURL)
	}
	if !isSetupStatus(p.Status) {
		fmt.Fprintf(&sb, "**Pending feedback:** %d\n", p.FeedbackCount)
	}
	return sb.String()
}

func overviewMarkdown(p project, session sessionInfo, history []stageEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s %s\n\n", stageIcon(p.Status), stageName(p.Status))
	if desc := stageDescription(p.Status); desc != "" {
		sb.WriteString(desc + "\n\n")
	}
	if adv := advancementFor(p.Status); adv != nil {
		fmt.Fprintf(&sb, "**Next:** %s → %s\n\n", adv.ActionLabel, statusLabel(adv.NextStatus))
	} else {
		sb.WriteString("This project is live. Collect feedback and keep shipping.\n\n")
	}
	switch session.State {
	case sessionRunning:
		fmt.Fprintf(&sb, "**Session:** running (pid %d)\n", session.PID)
	case sessionIdle:
		sb.WriteString("**Session:** idle\n")
	default:
		sb.WriteString("**Session:** not started\n")
	}
	if len(history) > 0 {
		sb.WriteString("\n## Stage history\n\n")
		start := len(history) - 5
		if start < 0 {
			start = 0
		}
		for _, ev := range history[start:] {
			fmt.Fprintf(&sb, "- %s  %s → %s\n", ev.At.Format("Jan 02 15:04"), statusLabel(ev.FromStatus), statusLabel(ev.ToStatus))
		}
	}
	return sb.String()
}

func activityMarkdown(events []stageEvent) string {
	if len(events) == 0 {
		return "# Activity\n\nNo stage changes recorded yet."
	}
	var sb strings.Builder
	sb.WriteString("# Activity\n\n")
	for _, ev := range events {
		fmt.Fprintf(&sb, "- %s  %s: %s → %s\n",
			ev.At.Format("Jan 02"), filepath.Base(ev.ProjectPath),
			statusLabel(ev.FromStatus), statusLabel(ev.ToStatus))
	}
	return sb.String()
}

// view

func (m *model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	bodyHeight := maxInt(m.height-4, 6)
	leftWidth := maxInt(m.width/3, 30)
	rightWidth := maxInt(m.width-leftWidth-4, 40)

	m.projectsCol.SetSize(leftWidth, bodyHeight)
	m.preview.SetSize(rightWidth, bodyHeight)
	m.feedbackCol.SetSize(m.width-4, bodyHeight)
	m.issuesCol.SetSize(m.width-4, bodyHeight)
	m.archiveCol.SetSize(m.width-4, bodyHeight)
	m.docsCol.SetSize(leftWidth, bodyHeight)
	setMarkdownWordWrap(rightWidth - 4)
}

func (m *model) View() string {
	s := m.styles
	top := s.topBar.Render("Vibe Hub")
	if p, ok := m.store.CurrentProject(); ok && m.view == viewProject {
		top = s.topBar.Render("Vibe Hub » " + displayName(p))
	}

	var body string
	if m.inputMode != inputNone && m.inputMode != inputConfirmDelete {
		body = m.formView()
	} else {
		switch m.view {
		case viewDashboard:
			body = lipgloss.JoinHorizontal(lipgloss.Top,
				m.projectsCol.View(s, true),
				m.preview.View(s, false),
			)
		case viewProject:
			body = m.projectView()
		case viewSettings:
			body = m.formView()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, top, body, m.statusBarView())
}

func (m *model) projectView() string {
	s := m.styles
	var tabs []string
	for i, title := range projectTabTitles {
		if projectTab(i) == m.tab {
			tabs = append(tabs, s.tabActive.Render(title))
		} else {
			tabs = append(tabs, s.tabInactive.Render(title))
		}
	}
	tabsRow := s.tabsRow.Render(strings.Join(tabs, " "))

	var content string
	switch m.tab {
	case tabOverview:
		content = m.preview.View(s, true)
		if len(m.logLines) > 0 {
			start := maxInt(len(m.logLines)-logPaneLines, 0)
			logView := s.panel.Width(m.preview.width).Render(
				s.columnTitle.Render("Assistant Log") + "\n" + strings.Join(m.logLines[start:], "\n"))
			content = lipgloss.JoinVertical(lipgloss.Left, content, logView)
		}
	case tabFeedback:
		content = m.feedbackCol.View(s, true)
	case tabIssues:
		content = m.issuesCol.View(s, true)
	case tabArchive:
		content = m.archiveCol.View(s, true)
	case tabDocs:
		content = lipgloss.JoinHorizontal(lipgloss.Top,
			m.docsCol.View(s, true),
			m.preview.View(s, false),
		)
	}

	if m.inputMode == inputConfirmDelete {
		confirm := s.toastError.Render(fmt.Sprintf("Delete %s? (y/N)", strings.TrimPrefix(m.confirmAction, "delete_")))
		return lipgloss.JoinVertical(lipgloss.Left, tabsRow, content, confirm)
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabsRow, content)
}

func (m *model) formView() string {
	s := m.styles
	switch m.inputMode {
	case inputNewProjectName:
		return lipgloss.JoinVertical(lipgloss.Left,
			s.formLabel.Render("New project name"),
			m.newProject.View(),
			s.formHint.Render("enter save • esc cancel"),
		)
	case inputFeedbackForm:
		header := "Add feedback"
		if m.feedbackForm.editingID != "" {
			header = "Edit feedback"
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			s.formLabel.Render(header),
			m.feedbackForm.text.View(),
			s.formLabel.Render(fmt.Sprintf("Priority: %d (%s)", m.feedbackForm.priority, priorityLabel(m.feedbackForm.priority))),
			s.formHint.Render("ctrl+↑/↓ priority • ctrl+s save • esc cancel"),
		)
	case inputIssueForm:
		header := "Add issue"
		if m.issueForm.editingID != "" {
			header = "Edit issue"
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			s.formLabel.Render(header),
			m.issueForm.title.View(),
			m.issueForm.description.View(),
			s.formLabel.Render(fmt.Sprintf("Priority: %s • Complexity: %s",
				priorityLabel(m.issueForm.priority), complexityLabel(m.issueForm.complexity))),
			s.formHint.Render("tab switch field • ctrl+↑/↓ priority • ctrl+←/→ complexity • ctrl+s save • esc cancel"),
		)
	case inputIdeaForm:
		label := ideaFormLabels[m.ideaForm.step]
		return lipgloss.JoinVertical(lipgloss.Left,
			s.formLabel.Render(fmt.Sprintf("Project Pitch — %s (%d/%d)", label, m.ideaForm.step+1, len(ideaFormLabels))),
			m.ideaForm.fields[m.ideaForm.step].View(),
			s.formHint.Render("tab next section • ctrl+s save pitch • esc cancel"),
		)
	case inputSettingsForm:
		lines := []string{
			s.formLabel.Render("Settings"),
			s.formLabel.Render("Projects directory"),
			m.settingsForm.directory.View(),
		}
		if len(m.settingsForm.suggestions) > 0 {
			lines = append(lines, s.formHint.Render("Recent: "+strings.Join(m.settingsForm.suggestions, "  ")))
		}
		lines = append(lines,
			s.formLabel.Render(fmt.Sprintf("Sound effects: %v (ctrl+e)", m.settingsForm.draft.SoundEffectsEnabled)),
			s.formLabel.Render(fmt.Sprintf("GitHub integration: %v (ctrl+g)", m.settingsForm.draft.GithubIntegrationEnabled)),
			s.formLabel.Render(fmt.Sprintf("Markdown theme: %s (ctrl+t)", markdownThemeFromString(m.uiCfg.Theme))),
			s.formHint.Render("enter save • esc cancel"),
		)
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	return ""
}

func (m *model) statusBarView() string {
	s := m.styles
	var segments []string
	if m.loading || m.store.Loading() {
		segments = append(segments, s.statusSeg.Render(m.spin.View()+" loading"))
	}
	if title, running := m.jobs.Running(); running {
		segments = append(segments, s.statusSeg.Render("⚙ "+title))
	}
	if m.toast != "" {
		if m.toastErr {
			segments = append(segments, s.toastError.Render(m.toast))
		} else {
			segments = append(segments, s.toast.Render(m.toast))
		}
	} else if lastErr := m.store.LastError(); lastErr != "" {
		segments = append(segments, s.toastError.Render(lastErr))
	}

	hint := ""
	switch m.view {
	case viewDashboard:
		hint = "enter open • n new • P pin • s settings • r reload • q quit"
	case viewProject:
		switch m.tab {
		case tabFeedback:
			hint = "a add • space toggle • enter edit • d delete • x archive • c copy prompt • esc back"
		case tabIssues:
			hint = "a add • enter edit • d delete • esc back"
		default:
			hint = "tab switch • enter advance • c copy prompt • L launch • R headless • o folder • esc back"
		}
	case viewSettings:
		hint = "enter save • esc cancel"
	}
	segments = append(segments, s.statusHint.Render(hint))
	return s.statusBar.Render(strings.Join(segments, " "))
}
