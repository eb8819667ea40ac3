package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/snapshot"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProjectsFetched MsgKind = iota
	MsgTasksFetched
	MsgStatusChanged
	MsgProgressUpdate
	MsgSnapshotComplete
)

type projectsFetched struct {
	projects []models.Project
	err      error
}

type tasksFetched struct {
	project models.Project
	tasks   []models.Task
	err     error
}

type statusChanged struct {
	from models.TaskStatus
	task *models.Task
	err  error
}

type progressUpdate struct {
	update snapshot.ProgressUpdate
	run    *snapshotRun
}

type snapshotComplete struct {
	snap *snapshot.Snapshot
	err  error
}

// projectsFetchedMsg is the constructor for [MsgProjectsFetched]
func projectsFetchedMsg(projects []models.Project, err error) Msg {
	return Msg{kind: MsgProjectsFetched, data: projectsFetched{projects, err}}
}

// tasksFetchedMsg is the constructor for [MsgTasksFetched]
func tasksFetchedMsg(project models.Project, tasks []models.Task, err error) Msg {
	return Msg{kind: MsgTasksFetched, data: tasksFetched{project, tasks, err}}
}

// statusChangedMsg is the constructor for [MsgStatusChanged]
func statusChangedMsg(from models.TaskStatus, task *models.Task, err error) Msg {
	return Msg{kind: MsgStatusChanged, data: statusChanged{from, task, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update snapshot.ProgressUpdate, run *snapshotRun) Msg {
	return Msg{kind: MsgProgressUpdate, data: progressUpdate{update, run}}
}

// snapshotCompleteMsg is the constructor for [MsgSnapshotComplete]
func snapshotCompleteMsg(snap *snapshot.Snapshot, err error) Msg {
	return Msg{kind: MsgSnapshotComplete, data: snapshotComplete{snap, err}}
}
