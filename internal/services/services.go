// package services implements a typed client for the task manager REST API
package services

import (
	"context"

	"github.com/desertthunder/ztx/internal/models"
)

// Workspace is the read side of the backend plus status changes, used by the snapshot and the TUI.
//
// [Client] implements it; tests substitute a mock.
type Workspace interface {
	// Profile returns the logged in user.
	Profile(ctx context.Context) (*models.User, error)

	// ListProjects returns one page of projects.
	ListProjects(ctx context.Context, params models.ProjectParams) (*models.Page[models.Project], error)

	// ListCategories returns one page of categories.
	ListCategories(ctx context.Context, params models.CategoryParams) (*models.Page[models.Category], error)

	// ListMarkers returns one page of markers.
	ListMarkers(ctx context.Context, params models.MarkerParams) (*models.Page[models.Marker], error)

	// ListTasks returns one page of tasks.
	ListTasks(ctx context.Context, params models.TaskParams) (*models.Page[models.Task], error)

	// Overview returns the statistics of the logged in user.
	Overview(ctx context.Context) (models.StatisticOverview, error)

	// SetTaskStatus moves a task to status and returns the updated task.
	SetTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error)
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	return c.Auth.Profile(ctx)
}

func (c *Client) ListProjects(ctx context.Context, params models.ProjectParams) (*models.Page[models.Project], error) {
	return c.Projects.List(ctx, params)
}

func (c *Client) ListCategories(ctx context.Context, params models.CategoryParams) (*models.Page[models.Category], error) {
	return c.Categories.List(ctx, params)
}

func (c *Client) ListMarkers(ctx context.Context, params models.MarkerParams) (*models.Page[models.Marker], error) {
	return c.Markers.List(ctx, params)
}

func (c *Client) ListTasks(ctx context.Context, params models.TaskParams) (*models.Page[models.Task], error) {
	return c.Tasks.List(ctx, params)
}

func (c *Client) Overview(ctx context.Context) (models.StatisticOverview, error) {
	return c.Statistics.Overview(ctx)
}

func (c *Client) SetTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	return c.Tasks.SetStatus(ctx, id, status)
}

var _ Workspace = (*Client)(nil)
