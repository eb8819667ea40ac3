package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
)

// TaskService covers /tasks.
type TaskService struct {
	c *Client
}

func (s *TaskService) path(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}
	return "/tasks/" + url.PathEscape(id), nil
}

func (s *TaskService) List(ctx context.Context, params models.TaskParams) (*models.Page[models.Task], error) {
	return list[models.Task](ctx, s.c, "/tasks", params.Values())
}

// All walks every page of the listing, starting at params.Page.
func (s *TaskService) All(ctx context.Context, params models.TaskParams) ([]models.Task, error) {
	if params.Page < 1 {
		params.Page = 1
	}

	var tasks []models.Task
	for {
		page, err := s.List(ctx, params)
		if err != nil {
			return tasks, err
		}
		tasks = append(tasks, page.Items...)
		if !page.Pagination.HasNext || len(page.Items) == 0 {
			return tasks, nil
		}
		params.Page++
	}
}

func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	return s.task(ctx, http.MethodGet, path, nil)
}

func (s *TaskService) Create(ctx context.Context, input models.TaskInput) (*models.Task, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: task name", shared.ErrMissingArgument)
	}
	if input.ProjectID == "" {
		return nil, fmt.Errorf("%w: project id", shared.ErrMissingArgument)
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: task status %q", shared.ErrInvalidArgument, input.Status)
	}
	return s.task(ctx, http.MethodPost, "/tasks", input)
}

func (s *TaskService) Update(ctx context.Context, id string, input models.TaskInput) (*models.Task, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	return s.task(ctx, http.MethodPatch, path, input)
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	return s.c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// SetStatus moves the task to status.
func (s *TaskService) SetStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: task status %q", shared.ErrInvalidArgument, status)
	}
	return s.task(ctx, http.MethodPatch, path+"/status", models.TaskStatusInput{Status: status})
}

// Assign sets the assignee. An empty assigneeID unassigns the task.
func (s *TaskService) Assign(ctx context.Context, id, assigneeID string) (*models.Task, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	input := models.AssignInput{}
	if assigneeID != "" {
		input.AssigneeID = &assigneeID
	}
	return s.task(ctx, http.MethodPatch, path+"/assign", input)
}

// AddMarker attaches a marker to the task.
func (s *TaskService) AddMarker(ctx context.Context, id, markerID string) (*models.Task, error) {
	path, err := s.marker(id, markerID)
	if err != nil {
		return nil, err
	}
	return s.task(ctx, http.MethodPost, path, nil)
}

// RemoveMarker detaches a marker from the task.
func (s *TaskService) RemoveMarker(ctx context.Context, id, markerID string) (*models.Task, error) {
	path, err := s.marker(id, markerID)
	if err != nil {
		return nil, err
	}
	return s.task(ctx, http.MethodDelete, path, nil)
}

func (s *TaskService) marker(id, markerID string) (string, error) {
	path, err := s.path(id)
	if err != nil {
		return "", err
	}
	if markerID == "" {
		return "", fmt.Errorf("%w: marker id", shared.ErrMissingArgument)
	}
	return path + "/markers/" + url.PathEscape(markerID), nil
}

func (s *TaskService) task(ctx context.Context, method, path string, body any) (*models.Task, error) {
	var out models.Task
	if err := s.c.do(ctx, method, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
