package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ztx/internal/shared"
)

func TestTaskStatus(t *testing.T) {
	t.Run("Labels", func(t *testing.T) {
		for _, s := range TaskStatuses {
			if s.Label() == string(s) {
				t.Errorf("status %s has no label", s)
			}
		}
		if StatusReadyForReview.Label() != "Ready for Review" {
			t.Errorf("Label() = %q", StatusReadyForReview.Label())
		}
		if TaskStatus("ARCHIVED").Label() != "ARCHIVED" {
			t.Error("unknown statuses should render as is")
		}
	})

	t.Run("ParseTaskStatus", func(t *testing.T) {
		tt := []struct {
			in   string
			want TaskStatus
		}{
			{"IN_PROGRESS", StatusInProgress},
			{"in_progress", StatusInProgress},
			{"in-progress", StatusInProgress},
			{"Ready for Review", StatusReadyForReview},
			{" completed ", StatusCompleted},
		}
		for _, tc := range tt {
			got, err := ParseTaskStatus(tc.in)
			if err != nil {
				t.Errorf("ParseTaskStatus(%q) error = %v", tc.in, err)
				continue
			}
			if got != tc.want {
				t.Errorf("ParseTaskStatus(%q) = %s, want %s", tc.in, got, tc.want)
			}
		}

		if _, err := ParseTaskStatus("archived"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Next", func(t *testing.T) {
		tt := map[TaskStatus]TaskStatus{
			StatusNotStarted:     StatusInProgress,
			StatusInProgress:     StatusReadyForReview,
			StatusReadyForReview: StatusCompleted,
			StatusForRevision:    StatusInProgress,
			StatusDeferred:       StatusInProgress,
			StatusCompleted:      StatusCompleted,
			StatusCanceled:       StatusCanceled,
			StatusRejected:       StatusRejected,
		}
		for in, want := range tt {
			if got := in.Next(); got != want {
				t.Errorf("%s.Next() = %s, want %s", in, got, want)
			}
		}
	})
}

func TestTask(t *testing.T) {
	raw := `{
		"id": "t1",
		"createdAt": "2025-01-02T10:00:00.000Z",
		"updatedAt": "2025-01-03T10:00:00.000Z",
		"name": "Write docs",
		"description": null,
		"status": "IN_PROGRESS",
		"note": null,
		"dueDate": "2025-01-10T00:00:00.000Z",
		"projectId": "p1",
		"categoryId": null,
		"contactId": null,
		"creatorId": "u1",
		"assigneeId": "u2",
		"project": {"id": "p1", "name": "Docs", "slug": "docs"},
		"assignee": {"id": "u2", "email": "b@example.com", "firstName": "Bo", "lastName": "Lee"},
		"markers": [{"id": "tm1", "markerId": "m1", "marker": {"id": "m1", "name": "urgent", "slug": "urgent", "fontColor": null, "bgColor": "#f00"}}]
	}`

	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		t.Fatalf("failed to decode task: %v", err)
	}

	t.Run("Decode", func(t *testing.T) {
		if task.Status != StatusInProgress {
			t.Errorf("Status = %s", task.Status)
		}
		if task.Description != nil {
			t.Errorf("Description = %v, want nil", task.Description)
		}
		if task.Project == nil || task.Project.Slug != "docs" {
			t.Errorf("Project = %+v", task.Project)
		}
		if got := task.Assignee.DisplayName(); got != "Bo Lee" {
			t.Errorf("assignee = %q", got)
		}
		if names := task.MarkerNames(); len(names) != 1 || names[0] != "urgent" {
			t.Errorf("MarkerNames() = %v", names)
		}
	})

	t.Run("IsOverdue", func(t *testing.T) {
		after := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		before := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

		if !task.IsOverdue(after) {
			t.Error("task should be overdue after its due date")
		}
		if task.IsOverdue(before) {
			t.Error("task should not be overdue before its due date")
		}

		done := task
		done.Status = StatusCompleted
		if done.IsOverdue(after) {
			t.Error("completed tasks are never overdue")
		}
	})
}

func TestParams(t *testing.T) {
	t.Run("unset parameters are omitted", func(t *testing.T) {
		if got := (TaskParams{}).Values().Encode(); got != "" {
			t.Errorf("Encode() = %q, want empty", got)
		}
	})

	t.Run("task filters", func(t *testing.T) {
		p := TaskParams{
			ListParams:  ListParams{Page: 2, Limit: 20, SortOrder: "desc"},
			ProjectID:   "p1",
			Status:      StatusCompleted,
			HasAssignee: Bool(false),
		}
		want := "hasAssignee=false&limit=20&page=2&projectId=p1&sortOrder=desc&status=COMPLETED"
		if got := p.Values().Encode(); got != want {
			t.Errorf("Encode() = %q, want %q", got, want)
		}
	})

	t.Run("project filters", func(t *testing.T) {
		p := ProjectParams{IsFavorite: Bool(true), ListParams: ListParams{Search: "ops"}}
		if got := p.Values().Encode(); got != "isFavorite=true&search=ops" {
			t.Errorf("Encode() = %q", got)
		}
	})
}

func TestCredential(t *testing.T) {
	c := NewCredential("http://localhost:4000", "T1", "u1")
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	c.SetTokens("", "u1")
	if err := c.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing token, got %v", err)
	}

	if err := NewCredential("", "T1", "u1").Validate(); err == nil {
		t.Error("expected error for missing base URL")
	}
}
