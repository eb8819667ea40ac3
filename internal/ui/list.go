package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ztx/internal/models"
)

var (
	_ list.Item = projectItem{}
	_ list.Item = taskItem{}
)

// projectItem wraps [models.Project] to implement [list.Item].
type projectItem struct {
	project models.Project
}

func (i projectItem) FilterValue() string { return i.project.Name }
func (i projectItem) Title() string {
	if i.project.IsFavorite {
		return "★ " + i.project.Name
	}
	return i.project.Name
}
func (i projectItem) Description() string {
	var parts []string
	if c := i.project.Count; c != nil {
		parts = append(parts, fmt.Sprintf("%d tasks", c.Tasks))
	}
	if d := models.Deref(i.project.Description); d != "" {
		parts = append(parts, d)
	}
	if !i.project.IsActive {
		parts = append(parts, "inactive")
	}
	return strings.Join(parts, " • ")
}

// taskItem wraps [models.Task] to implement [list.Item].
type taskItem struct {
	task models.Task
	now  time.Time
}

func (i taskItem) FilterValue() string { return i.task.Name }
func (i taskItem) Title() string       { return i.task.Name }
func (i taskItem) Description() string {
	parts := []string{i.task.Status.Label()}
	if name := i.task.Assignee.DisplayName(); name != "" {
		parts = append(parts, "@"+name)
	}
	if i.task.DueDate != nil {
		due := "due " + i.task.DueDate.Format("2006-01-02")
		if i.task.IsOverdue(i.now) {
			due += " (overdue)"
		}
		parts = append(parts, due)
	}
	return strings.Join(parts, " • ")
}
