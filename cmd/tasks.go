package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ztx/internal/formatter"
	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
	"github.com/urfave/cli/v3"
)

const dateLayout = "2006-01-02"

func optionalStatus(cmd *cli.Command) (models.TaskStatus, error) {
	if v := cmd.String("status"); v != "" {
		return models.ParseTaskStatus(v)
	}
	return "", nil
}

func checkDate(flag, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, v); err != nil {
		return fmt.Errorf("%w: --%s must be YYYY-MM-DD, got %q", shared.ErrInvalidArgument, flag, v)
	}
	return nil
}

// taskParams reads the task filter flags.
func taskParams(cmd *cli.Command, list models.ListParams) (models.TaskParams, error) {
	status, err := optionalStatus(cmd)
	if err != nil {
		return models.TaskParams{}, err
	}
	for _, f := range []string{"due-from", "due-to"} {
		if err := checkDate(f, cmd.String(f)); err != nil {
			return models.TaskParams{}, err
		}
	}

	return models.TaskParams{
		ListParams:  list,
		ProjectID:   cmd.String("project"),
		Status:      status,
		AssigneeID:  cmd.String("assignee"),
		CategoryID:  cmd.String("category"),
		DueDateFrom: cmd.String("due-from"),
		DueDateTo:   cmd.String("due-to"),
		IsOverdue:   optionalBool(cmd, "overdue"),
		HasAssignee: optionalBool(cmd, "assigned"),
	}, nil
}

// taskInput reads the task field flags. The name comes from the positional argument on create.
func taskInput(cmd *cli.Command, name string) (models.TaskInput, error) {
	status, err := optionalStatus(cmd)
	if err != nil {
		return models.TaskInput{}, err
	}
	if err := checkDate("due", cmd.String("due")); err != nil {
		return models.TaskInput{}, err
	}
	if name == "" {
		name = cmd.String("name")
	}

	return models.TaskInput{
		Name:        name,
		Description: cmd.String("description"),
		Status:      status,
		Note:        cmd.String("note"),
		DueDate:     cmd.String("due"),
		ProjectID:   cmd.String("project"),
		CategoryID:  cmd.String("category"),
		AssigneeID:  cmd.String("assignee"),
	}, nil
}

func (r *Runner) writeTaskLine(t models.Task, now time.Time) {
	r.writePlain("[%s] %s  %s", t.Status.Label(), t.ID, t.Name)
	if name := t.Assignee.DisplayName(); name != "" {
		r.writePlain(" @%s", name)
	}
	if t.DueDate != nil {
		r.writePlain(" (due %s)", t.DueDate.Format(dateLayout))
	}
	if t.IsOverdue(now) {
		r.writePlain(" overdue")
	}
	r.writePlain("\n")
}

// TasksList lists one page of tasks, or every page with --all.
func (r *Runner) TasksList(ctx context.Context, cmd *cli.Command) error {
	params, err := taskParams(cmd, listParams(cmd))
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	if cmd.Bool("all") {
		tasks, err := client.Tasks.All(ctx, params)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(tasks, cmd.Bool("pretty"))
		}
		r.writePlainHeader("Tasks")
		now := time.Now()
		for _, t := range tasks {
			r.writeTaskLine(t, now)
		}
		return r.writePlainln("%d tasks", len(tasks))
	}

	page, err := client.Tasks.List(ctx, params)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Tasks")
	now := time.Now()
	for _, t := range page.Items {
		r.writeTaskLine(t, now)
	}
	return r.writePlain("%s", pageFooter(page.Pagination, page.Total))
}

// TasksShow shows one task.
func (r *Runner) TasksShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	task, err := client.Tasks.Get(ctx, id)
	if err != nil {
		return err
	}

	return writeItem(r, cmd, task, func(t *models.Task) error {
		r.writePlainHeader(t.Name)
		r.writePlain("ID: %s\nStatus: %s\nProject: %s\n", t.ID, t.Status.Label(), t.ProjectID)
		if name := t.Assignee.DisplayName(); name != "" {
			r.writePlain("Assignee: %s\n", name)
		}
		if t.DueDate != nil {
			r.writePlain("Due: %s\n", t.DueDate.Format(dateLayout))
		}
		if names := t.MarkerNames(); len(names) > 0 {
			r.writePlain("Markers: %v\n", names)
		}
		if d := models.Deref(t.Description); d != "" {
			r.writePlainln("%s", d)
		}
		return nil
	})
}

// TasksCreate creates a task in a project.
func (r *Runner) TasksCreate(ctx context.Context, cmd *cli.Command) error {
	input, err := taskInput(cmd, cmd.StringArg("name"))
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	task, err := client.Tasks.Create(ctx, input)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created task %s (%s)\n", task.Name, task.ID)
}

// TasksUpdate changes the fields given as flags.
func (r *Runner) TasksUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	input, err := taskInput(cmd, "")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	task, err := client.Tasks.Update(ctx, id, input)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated task %s\n", task.Name)
}

// TasksDelete deletes a task.
func (r *Runner) TasksDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	if err := client.Tasks.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted task %s\n", id)
}

// TasksStatus sets a task's status, or moves it along the workflow with --next.
func (r *Runner) TasksStatus(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	var status models.TaskStatus
	if cmd.Bool("next") {
		task, err := client.Tasks.Get(ctx, id)
		if err != nil {
			return err
		}
		status = task.Status.Next()
		if status == task.Status {
			return fmt.Errorf("%w: task is %s and cannot be advanced", shared.ErrInvalidArgument, task.Status.Label())
		}
	} else {
		arg, err := requireArg(cmd, "status")
		if err != nil {
			return err
		}
		if status, err = models.ParseTaskStatus(arg); err != nil {
			return err
		}
	}

	task, err := client.Tasks.SetStatus(ctx, id, status)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s is now %s\n", task.Name, task.Status.Label())
}

// TasksAssign assigns a task, or unassigns it when no user is given.
func (r *Runner) TasksAssign(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	task, err := client.Tasks.Assign(ctx, id, cmd.StringArg("user"))
	if err != nil {
		return err
	}
	if name := task.Assignee.DisplayName(); name != "" {
		return r.writePlain("✓ %s assigned to %s\n", task.Name, name)
	}
	return r.writePlain("✓ %s unassigned\n", task.Name)
}

// TasksMark attaches a marker.
func (r *Runner) TasksMark(ctx context.Context, cmd *cli.Command) error {
	return r.changeMarker(ctx, cmd, true)
}

// TasksUnmark detaches a marker.
func (r *Runner) TasksUnmark(ctx context.Context, cmd *cli.Command) error {
	return r.changeMarker(ctx, cmd, false)
}

func (r *Runner) changeMarker(ctx context.Context, cmd *cli.Command, attach bool) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	marker, err := requireArg(cmd, "marker")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	var task *models.Task
	if attach {
		task, err = client.Tasks.AddMarker(ctx, id, marker)
	} else {
		task, err = client.Tasks.RemoveMarker(ctx, id, marker)
	}
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s markers: %v\n", task.Name, task.MarkerNames())
}

// TasksExport writes every matching task to a file (or stdout) in the chosen format.
func (r *Runner) TasksExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	params, err := taskParams(cmd, models.ListParams{Limit: 100})
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	tasks, err := client.Tasks.All(ctx, params)
	if err != nil {
		return err
	}
	r.logger.Info("exporting tasks", "count", len(tasks), "format", format)

	data, err := formatter.ExportTasks(tasks, format, cmd.String("title"))
	if err != nil {
		return err
	}

	if cmd.Bool("stdout") {
		return r.writeBytes(data)
	}

	path, err := formatter.WriteExport(data, cmd.String("output"), "tasks", format)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d tasks to %s\n", len(tasks), path)
}
