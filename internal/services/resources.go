package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
)

// resource implements the routes projects, categories and markers share:
// GET /{path}/{id}, GET /{path}/slug/{slug}, POST /{path}, PATCH /{path}/{id} and DELETE /{path}/{id}.
type resource[T, I any] struct {
	c    *Client
	path string
}

func (r resource[T, I]) item(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	return r.path + "/" + url.PathEscape(id), nil
}

// Get fetches one item by id.
func (r resource[T, I]) Get(ctx context.Context, id string) (*T, error) {
	path, err := r.item(id)
	if err != nil {
		return nil, err
	}

	var out T
	if err := r.c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBySlug fetches one item by its URL slug.
func (r resource[T, I]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: slug", shared.ErrMissingArgument)
	}

	var out T
	if err := r.c.do(ctx, http.MethodGet, r.path+"/slug/"+url.PathEscape(slug), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create sends input and returns the created item.
func (r resource[T, I]) Create(ctx context.Context, input I) (*T, error) {
	var out T
	if err := r.c.do(ctx, http.MethodPost, r.path, nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update patches the item with the set fields of input.
func (r resource[T, I]) Update(ctx context.Context, id string, input I) (*T, error) {
	path, err := r.item(id)
	if err != nil {
		return nil, err
	}

	var out T
	if err := r.c.do(ctx, http.MethodPatch, path, nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the item.
func (r resource[T, I]) Delete(ctx context.Context, id string) error {
	path, err := r.item(id)
	if err != nil {
		return err
	}
	return r.c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func list[T any](ctx context.Context, c *Client, path string, query url.Values) (*models.Page[T], error) {
	var page models.Page[T]
	if err := c.do(ctx, http.MethodGet, path, query, nil, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return &page, nil
}

func names[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var out []T
	if err := c.do(ctx, http.MethodGet, path+"/names", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProjectService covers /projects and project membership.
type ProjectService struct {
	resource[models.Project, models.ProjectInput]
}

func (s *ProjectService) List(ctx context.Context, params models.ProjectParams) (*models.Page[models.Project], error) {
	return list[models.Project](ctx, s.c, s.path, params.Values())
}

// Names lists the sidebar view of every project matching params. Paging is ignored.
func (s *ProjectService) Names(ctx context.Context, params models.ProjectParams) ([]models.ProjectName, error) {
	return names[models.ProjectName](ctx, s.c, s.path, params.Values())
}

// AddMember adds a user to the project.
func (s *ProjectService) AddMember(ctx context.Context, projectID string, input models.AddMemberInput) (*models.Membership, error) {
	path, err := s.item(projectID)
	if err != nil {
		return nil, err
	}
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	var out models.Membership
	if err := s.c.do(ctx, http.MethodPost, path+"/members", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveMember removes a membership from the project.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, memberID string) error {
	path, err := s.member(projectID, memberID)
	if err != nil {
		return err
	}
	return s.c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// SetMemberRoles replaces the project roles of a member.
func (s *ProjectService) SetMemberRoles(ctx context.Context, projectID, memberID string, roles []models.UserRole) (*models.Membership, error) {
	path, err := s.member(projectID, memberID)
	if err != nil {
		return nil, err
	}

	var out models.Membership
	if err := s.c.do(ctx, http.MethodPatch, path+"/role", nil, models.MemberRolesInput{Roles: roles}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProjectService) member(projectID, memberID string) (string, error) {
	path, err := s.item(projectID)
	if err != nil {
		return "", err
	}
	if memberID == "" {
		return "", fmt.Errorf("%w: member id", shared.ErrMissingArgument)
	}
	return path + "/members/" + url.PathEscape(memberID), nil
}

// CategoryService covers /categories.
type CategoryService struct {
	resource[models.Category, models.CategoryInput]
}

func (s *CategoryService) List(ctx context.Context, params models.CategoryParams) (*models.Page[models.Category], error) {
	return list[models.Category](ctx, s.c, s.path, params.Values())
}

func (s *CategoryService) Names(ctx context.Context, params models.CategoryParams) ([]models.CategoryName, error) {
	return names[models.CategoryName](ctx, s.c, s.path, params.Values())
}

// MarkerService covers /markers.
type MarkerService struct {
	resource[models.Marker, models.MarkerInput]
}

func (s *MarkerService) List(ctx context.Context, params models.MarkerParams) (*models.Page[models.Marker], error) {
	return list[models.Marker](ctx, s.c, s.path, params.Values())
}

// Names returns id, name and slug of every marker.
func (s *MarkerService) Names(ctx context.Context, params models.MarkerParams) ([]models.Ref, error) {
	return names[models.Ref](ctx, s.c, s.path, params.Values())
}

// StatisticService covers /statistics.
type StatisticService struct {
	c *Client
}

// Overview returns the dashboard numbers of the current user.
func (s *StatisticService) Overview(ctx context.Context) (models.StatisticOverview, error) {
	var out models.StatisticOverview
	if err := s.c.do(ctx, http.MethodGet, "/statistics/overview", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
