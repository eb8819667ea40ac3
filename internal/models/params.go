package models

import (
	"net/url"
	"strconv"
)

// ListParams are the paging and sorting parameters shared by every listing.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string // "asc" or "desc"
}

// Values encodes the set parameters. Zero values are omitted.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	setInt(v, "page", p.Page)
	setInt(v, "limit", p.Limit)
	setString(v, "search", p.Search)
	setString(v, "sortBy", p.SortBy)
	setString(v, "sortOrder", p.SortOrder)
	return v
}

// ProjectParams filter GET /projects and GET /projects/names. Paging is ignored by the names route.
type ProjectParams struct {
	ListParams
	IsFavorite *bool
	IsActive   *bool
	IsHidden   *bool
	UserID     string
}

func (p ProjectParams) Values() url.Values {
	v := p.ListParams.Values()
	setBool(v, "isFavorite", p.IsFavorite)
	setBool(v, "isActive", p.IsActive)
	setBool(v, "isHidden", p.IsHidden)
	setString(v, "userId", p.UserID)
	return v
}

// CategoryParams filter GET /categories.
type CategoryParams struct {
	ListParams
	ProjectID string
}

func (p CategoryParams) Values() url.Values {
	v := p.ListParams.Values()
	setString(v, "projectId", p.ProjectID)
	return v
}

// MarkerParams filter GET /markers.
type MarkerParams struct {
	ListParams
	IsDefault *bool
}

func (p MarkerParams) Values() url.Values {
	v := p.ListParams.Values()
	setBool(v, "isDefault", p.IsDefault)
	return v
}

// TaskParams filter GET /tasks.
type TaskParams struct {
	ListParams
	ProjectID   string
	Status      TaskStatus
	AssigneeID  string
	CategoryID  string
	ContactID   string
	CreatorID   string
	DueDateFrom string
	DueDateTo   string
	IsOverdue   *bool
	HasAssignee *bool
}

func (p TaskParams) Values() url.Values {
	v := p.ListParams.Values()
	setString(v, "projectId", p.ProjectID)
	setString(v, "status", string(p.Status))
	setString(v, "assigneeId", p.AssigneeID)
	setString(v, "categoryId", p.CategoryID)
	setString(v, "contactId", p.ContactID)
	setString(v, "creatorId", p.CreatorID)
	setString(v, "dueDateFrom", p.DueDateFrom)
	setString(v, "dueDateTo", p.DueDateTo)
	setBool(v, "isOverdue", p.IsOverdue)
	setBool(v, "hasAssignee", p.HasAssignee)
	return v
}

// Bool returns a pointer to b, for the optional filters.
func Bool(b bool) *bool { return &b }

func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setInt(v url.Values, key string, val int) {
	if val > 0 {
		v.Set(key, strconv.Itoa(val))
	}
}

func setBool(v url.Values, key string, val *bool) {
	if val != nil {
		v.Set(key, strconv.FormatBool(*val))
	}
}
