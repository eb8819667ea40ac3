package models

import (
	"strings"
	"time"
)

// UserRole is a global role of a user account.
type UserRole string

const (
	RoleOwner  UserRole = "OWNER"
	RoleAdmin  UserRole = "ADMIN"
	RoleMember UserRole = "MEMBER"
	RoleViewer UserRole = "VIEWER"
)

// ParseRole accepts a role in any letter case.
func ParseRole(s string) (UserRole, bool) {
	switch r := UserRole(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return r, true
	}
	return "", false
}

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserInactive  UserStatus = "INACTIVE"
	UserPending   UserStatus = "PENDING"
	UserSuspended UserStatus = "SUSPENDED"
)

// User is an account on the backend.
type User struct {
	ID            string     `json:"id"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Avatar        *string    `json:"avatar"`
	Phone         *string    `json:"phone"`
	Roles         []UserRole `json:"roles"`
	Status        UserStatus `json:"status"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// MessageResponse is the body of logout responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// Pagination describes the position of a [Page] in a listing.
type Pagination struct {
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	Limit   int  `json:"limit"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Total      int        `json:"total"`
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Membership links a user to a project with project roles.
type Membership struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"projectId"`
	UserID    string     `json:"userId"`
	Roles     []UserRole `json:"roles"`
	JoinedAt  time.Time  `json:"joinedAt"`
}

// ProjectCount holds relation counts of a project.
type ProjectCount struct {
	Members    int `json:"members"`
	Tasks      int `json:"tasks"`
	Categories int `json:"categories"`
}

// Project groups categories and tasks.
type Project struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	IsActive    bool          `json:"isActive"`
	IsFavorite  bool          `json:"isFavorite"`
	IsHidden    bool          `json:"isHidden"`
	UserID      string        `json:"userId"`
	Count       *ProjectCount `json:"_count,omitempty"`
	Membership  *Membership   `json:"membership,omitempty"`
}

// ProjectName is the sidebar view of a project.
type ProjectName struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Slug                 string `json:"slug"`
	IsFavorite           bool   `json:"isFavorite"`
	IsHidden             bool   `json:"isHidden"`
	IncompleteTasksCount int    `json:"incompleteTasksCount"`
}

// ProjectInput is the body of project create and update calls.
type ProjectInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	IsFavorite  *bool  `json:"isFavorite,omitempty"`
	IsHidden    *bool  `json:"isHidden,omitempty"`
}

// AddMemberInput is the body of POST /projects/{id}/members.
type AddMemberInput struct {
	UserID string     `json:"userId"`
	Roles  []UserRole `json:"roles,omitempty"`
}

// MemberRolesInput is the body of PATCH /projects/{id}/members/{memberId}/role.
type MemberRolesInput struct {
	Roles []UserRole `json:"roles"`
}

// TaskCount holds the task count of a category or marker.
type TaskCount struct {
	Tasks int `json:"tasks"`
}

// Category groups tasks inside a project.
type Category struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	ProjectID   string     `json:"projectId"`
	Count       *TaskCount `json:"_count,omitempty"`
}

// CategoryName is the sidebar view of a category.
type CategoryName struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Slug                 string `json:"slug"`
	IncompleteTasksCount int    `json:"incompleteTasksCount"`
}

// CategoryInput is the body of category create and update calls. ProjectID is only sent on create.
type CategoryInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	ProjectID   string `json:"projectId,omitempty"`
}

// Marker is a colored label attached to tasks.
type Marker struct {
	ID        string     `json:"id"`
	Slug      string     `json:"slug"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Name      string     `json:"name"`
	FontColor *string    `json:"fontColor"`
	BgColor   *string    `json:"bgColor"`
	IsDefault bool       `json:"isDefault"`
	UserID    *string    `json:"userId"`
	Count     *TaskCount `json:"_count,omitempty"`
}

// MarkerInput is the body of marker create and update calls.
type MarkerInput struct {
	Name      string `json:"name,omitempty"`
	FontColor string `json:"fontColor,omitempty"`
	BgColor   string `json:"bgColor,omitempty"`
}

// Ref is the short form of a related project or category.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Person is the short form of a related user.
type Person struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (p *Person) DisplayName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Contact is an external person a task is about.
type Contact struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// TaskMarker is a marker attached to a task.
type TaskMarker struct {
	ID       string `json:"id"`
	MarkerID string `json:"markerId"`
	Marker   struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Slug      string  `json:"slug"`
		FontColor *string `json:"fontColor"`
		BgColor   *string `json:"bgColor"`
	} `json:"marker"`
}

// Task is a unit of work. Relations are only present when the backend includes them.
type Task struct {
	ID          string       `json:"id"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Status      TaskStatus   `json:"status"`
	Note        *string      `json:"note"`
	DueDate     *time.Time   `json:"dueDate"`
	ProjectID   string       `json:"projectId"`
	CategoryID  *string      `json:"categoryId"`
	ContactID   *string      `json:"contactId"`
	CreatorID   string       `json:"creatorId"`
	AssigneeID  *string      `json:"assigneeId"`
	Project     *Ref         `json:"project,omitempty"`
	Category    *Ref         `json:"category,omitempty"`
	Creator     *Person      `json:"creator,omitempty"`
	Assignee    *Person      `json:"assignee,omitempty"`
	Contact     *Contact     `json:"contact,omitempty"`
	Markers     []TaskMarker `json:"markers,omitempty"`
}

// IsOverdue reports whether the task is past its due date and not completed.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// MarkerNames lists the names of the attached markers.
func (t Task) MarkerNames() []string {
	names := make([]string, 0, len(t.Markers))
	for _, m := range t.Markers {
		names = append(names, m.Marker.Name)
	}
	return names
}

// TaskInput is the body of task create and update calls.
type TaskInput struct {
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
	Note        string     `json:"note,omitempty"`
	DueDate     string     `json:"dueDate,omitempty"`
	ProjectID   string     `json:"projectId,omitempty"`
	CategoryID  string     `json:"categoryId,omitempty"`
	ContactID   string     `json:"contactId,omitempty"`
	AssigneeID  string     `json:"assigneeId,omitempty"`
}

// TaskStatusInput is the body of PATCH /tasks/{id}/status.
type TaskStatusInput struct {
	Status TaskStatus `json:"status"`
}

// AssignInput is the body of PATCH /tasks/{id}/assign. A nil assignee unassigns the task.
type AssignInput struct {
	AssigneeID *string `json:"assigneeId"`
}

// StatisticOverview is rendered as the backend sends it.
type StatisticOverview map[string]any

// Deref returns *s or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
