package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/services"
	"github.com/desertthunder/ztx/internal/shared"
	"github.com/desertthunder/ztx/internal/snapshot"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ProjectListView ViewState = iota
	TaskListView
	ConfirmView
	SnapshotView
	ResultView
)

const pageSize = 100

// statusFilters is the cycle of the status filter key. The empty status shows every task.
var statusFilters = append([]models.TaskStatus{""}, models.TaskStatuses...)

// snapshotRun carries the result of a snapshot from its goroutine to the final message.
// snap and err are written before progress is closed.
type snapshotRun struct {
	progress chan snapshot.ProgressUpdate
	snap     *snapshot.Snapshot
	err      error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	ws           services.Workspace
	engine       *snapshot.Engine
	width        int
	height       int
	loading      bool
	projectList  list.Model
	taskList     list.Model
	project      *models.Project
	tasks        []models.Task
	statusFilter models.TaskStatus
	pending      *models.Task
	progress     snapshot.ProgressUpdate
	log          []string
	snap         *snapshot.Snapshot
	notice       string
	err          error
	now          func() time.Time
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model reading from ws. A nil engine disables snapshots.
func NewModel(ctx context.Context, ws services.Workspace, engine *snapshot.Engine) *Model {
	return &Model{
		ctx:         ctx,
		view:        ProjectListView,
		ws:          ws,
		engine:      engine,
		projectList: newList("Projects", nil),
		taskList:    newList("Tasks", nil),
		now:         time.Now,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	return l
}

// Init initializes the TUI by fetching projects.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.fetchProjects()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.projectList.SetSize(msg.Width-4, msg.Height-8)
		m.taskList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.err != nil && m.view != ResultView {
			return m.handleErrorKeys(msg)
		}
		switch m.view {
		case ProjectListView:
			return m.handleProjectListKeys(msg)
		case TaskListView:
			return m.handleTaskListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SnapshotView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProjectsFetched:
		data := msg.data.(projectsFetched)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.projects))
		for i, p := range data.projects {
			items[i] = projectItem{project: p}
		}
		return m, m.projectList.SetItems(items)

	case MsgTasksFetched:
		data := msg.data.(tasksFetched)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.project = &data.project
		m.tasks = data.tasks
		m.view = TaskListView
		m.taskList.Title = m.taskListTitle()
		m.taskList.ResetSelected()
		return m, m.setTaskItems()

	case MsgStatusChanged:
		data := msg.data.(statusChanged)
		m.pending = nil
		if data.err != nil {
			if errors.Is(data.err, shared.ErrSessionExpired) {
				m.err = data.err
				return m, nil
			}
			m.notice = styles.err.Render(fmt.Sprintf("Status change failed: %v", data.err))
			return m, nil
		}
		m.replaceTask(*data.task)
		m.notice = styles.ok.Render(fmt.Sprintf("✓ %s: %s → %s", data.task.Name, data.from.Label(), data.task.Status.Label()))
		return m, m.setTaskItems()

	case MsgProgressUpdate:
		data := msg.data.(progressUpdate)
		m.progress = data.update
		m.log = append(m.log, data.update.Message)
		return m, waitForProgress(data.run)

	case MsgSnapshotComplete:
		data := msg.data.(snapshotComplete)
		m.snap = data.snap
		m.err = data.err
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return m.renderError()
	}

	switch m.view {
	case ProjectListView:
		return m.renderProjectList()
	case TaskListView:
		return m.renderTaskList()
	case ConfirmView:
		return m.renderConfirm()
	case SnapshotView:
		return m.renderSnapshot()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		if errors.Is(m.err, shared.ErrSessionExpired) {
			return m, nil
		}
		m.err = nil
		m.view = ProjectListView
		m.loading = true
		return m, m.fetchProjects()
	}
	return m, nil
}

func (m *Model) handleProjectListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.projectList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.projectList.SelectedItem().(projectItem); ok {
			m.statusFilter = ""
			m.notice = ""
			m.loading = true
			return m, m.fetchTasks(item.project, "")
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.loading = true
		return m, m.fetchProjects()
	case key.Matches(msg, m.keys.snapshot):
		if m.engine == nil {
			return m, nil
		}
		m.view = SnapshotView
		m.log = nil
		m.progress = snapshot.ProgressUpdate{}
		return m, m.startSnapshot()
	}

	return m.updateLists(msg)
}

func (m *Model) handleTaskListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.taskList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.taskList.FilterState() == list.FilterApplied {
			return m.updateLists(msg)
		}
		m.view = ProjectListView
		m.notice = ""
		return m, nil
	case key.Matches(msg, m.keys.advance):
		item, ok := m.taskList.SelectedItem().(taskItem)
		if !ok {
			return m, nil
		}
		if next := item.task.Status.Next(); next == item.task.Status {
			m.notice = styles.warn.Render(fmt.Sprintf("%s is %s and cannot be advanced", item.task.Name, item.task.Status.Label()))
			return m, nil
		}
		task := item.task
		m.pending = &task
		m.view = ConfirmView
		return m, nil
	case key.Matches(msg, m.keys.status):
		m.statusFilter = nextFilter(m.statusFilter)
		m.loading = true
		return m, m.fetchTasks(*m.project, m.statusFilter)
	case key.Matches(msg, m.keys.reload):
		m.loading = true
		return m, m.fetchTasks(*m.project, m.statusFilter)
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.yes):
		m.view = TaskListView
		return m, m.advanceTask(*m.pending)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.pending = nil
		m.view = TaskListView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload), key.Matches(msg, m.keys.back):
		if errors.Is(m.err, shared.ErrSessionExpired) {
			return m, nil
		}
		m.view = ProjectListView
		m.snap = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ProjectListView:
		m.projectList, cmd = m.projectList.Update(msg)
	case TaskListView:
		m.taskList, cmd = m.taskList.Update(msg)
	}
	return m, cmd
}

func (m *Model) setTaskItems() tea.Cmd {
	now := m.now()
	items := make([]list.Item, len(m.tasks))
	for i, t := range m.tasks {
		items[i] = taskItem{task: t, now: now}
	}
	return m.taskList.SetItems(items)
}

// replaceTask swaps in the updated task, dropping it when it no longer matches the status filter.
func (m *Model) replaceTask(task models.Task) {
	for i := range m.tasks {
		if m.tasks[i].ID != task.ID {
			continue
		}
		if m.statusFilter != "" && task.Status != m.statusFilter {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
		m.tasks[i] = task
		return
	}
}

func (m *Model) taskListTitle() string {
	title := fmt.Sprintf("Tasks in '%s'", m.project.Name)
	if m.statusFilter != "" {
		title += fmt.Sprintf(" (%s)", m.statusFilter.Label())
	}
	return title
}

func nextFilter(current models.TaskStatus) models.TaskStatus {
	for i, s := range statusFilters {
		if s == current {
			return statusFilters[(i+1)%len(statusFilters)]
		}
	}
	return ""
}

func (m *Model) fetchProjects() tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		page, err := ws.ListProjects(ctx, models.ProjectParams{ListParams: models.ListParams{Limit: pageSize}})
		if err != nil {
			return projectsFetchedMsg(nil, err)
		}
		return projectsFetchedMsg(page.Items, nil)
	}
}

func (m *Model) fetchTasks(project models.Project, status models.TaskStatus) tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		page, err := ws.ListTasks(ctx, models.TaskParams{
			ListParams: models.ListParams{Limit: pageSize},
			ProjectID:  project.ID,
			Status:     status,
		})
		if err != nil {
			return tasksFetchedMsg(project, nil, err)
		}
		return tasksFetchedMsg(project, page.Items, nil)
	}
}

func (m *Model) advanceTask(task models.Task) tea.Cmd {
	ctx, ws := m.ctx, m.ws
	return func() tea.Msg {
		updated, err := ws.SetTaskStatus(ctx, task.ID, task.Status.Next())
		return statusChangedMsg(task.Status, updated, err)
	}
}

func (m *Model) startSnapshot() tea.Cmd {
	run := &snapshotRun{progress: make(chan snapshot.ProgressUpdate, 16)}
	engine, ctx := m.engine, m.ctx

	go func() {
		run.snap, run.err = engine.Take(ctx, run.progress)
		close(run.progress)
	}()

	return waitForProgress(run)
}

func waitForProgress(run *snapshotRun) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-run.progress
		if !ok {
			return snapshotCompleteMsg(run.snap, run.err)
		}
		return progressUpdateMsg(update, run)
	}
}

func (m *Model) footer(bindings ...key.Binding) string {
	helpView := m.help.ShortHelpView(bindings)
	if m.notice != "" {
		return fmt.Sprintf("%s\n\n%s", m.notice, helpView)
	}
	return helpView
}

func (m *Model) renderError() string {
	if errors.Is(m.err, shared.ErrSessionExpired) {
		return styles.err.Render("Session expired.") +
			"\n\nRun `ztx auth login` to sign in again.\n\n" +
			styles.help.Render("Press q to quit")
	}
	return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
}

func (m *Model) renderProjectList() string {
	if m.loading && len(m.projectList.Items()) == 0 {
		return styles.title.Render("Projects") + "\nLoading..."
	}
	helpView := m.footer(m.keys.enter, m.keys.snapshot, m.keys.reload, m.keys.quit)
	return fmt.Sprintf("%s\n\n%s", m.projectList.View(), helpView)
}

func (m *Model) renderTaskList() string {
	helpView := m.footer(m.keys.advance, m.keys.status, m.keys.reload, m.keys.back, m.keys.quit)
	return fmt.Sprintf("%s\n\n%s", m.taskList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	task := m.pending
	if task == nil {
		return ""
	}
	next := task.Status.Next()
	title := styles.title.Render(fmt.Sprintf("Advance '%s'?", task.Name))
	info := fmt.Sprintf("\nProject: %s\nStatus: %s → %s\n", m.project.Name, styles.status(task.Status), styles.status(next))

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSnapshot() string {
	title := styles.title.Render("Taking Snapshot")

	status := "Starting..."
	if m.progress.Total > 0 {
		status = fmt.Sprintf("Fetched %d/%d endpoints", m.progress.Step, m.progress.Total)
	}
	return fmt.Sprintf("%s\n\n%s\n%s", title, status, strings.Join(m.log, "\n"))
}

func (m *Model) renderResult() string {
	if m.err != nil {
		if errors.Is(m.err, shared.ErrSessionExpired) {
			return m.renderError()
		}
		return styles.err.Render(fmt.Sprintf("Snapshot failed: %v\n\nPress r to go back, q to quit", m.err))
	}
	if m.snap == nil {
		return styles.err.Render("No snapshot available\n\nPress r to go back, q to quit")
	}

	title := styles.ok.Render("✓ Snapshot Complete!")
	user := ""
	if m.snap.Profile != nil {
		user = fmt.Sprintf("\nUser: %s", m.snap.Profile.DisplayName())
	}
	info := fmt.Sprintf(
		"%s\nProjects: %d\nCategories: %d\nMarkers: %d\nTasks: %d",
		user,
		len(m.snap.Projects),
		len(m.snap.Categories),
		len(m.snap.Markers),
		len(m.snap.Tasks),
	)

	var failed string
	if len(m.snap.Errors) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d endpoints failed:", len(m.snap.Errors))))
		for _, e := range m.snap.Errors {
			failed += fmt.Sprintf("\n  • %s: %v", e.Endpoint, e.Err)
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
