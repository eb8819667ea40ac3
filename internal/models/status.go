package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/ztx/internal/shared"
)

// TaskStatus is the workflow state of a [Task].
type TaskStatus string

const (
	StatusNotStarted     TaskStatus = "NOT_STARTED"
	StatusInProgress     TaskStatus = "IN_PROGRESS"
	StatusDeferred       TaskStatus = "DEFERRED"
	StatusCanceled       TaskStatus = "CANCELED"
	StatusCompleted      TaskStatus = "COMPLETED"
	StatusForRevision    TaskStatus = "FOR_REVISION"
	StatusRejected       TaskStatus = "REJECTED"
	StatusReadyForReview TaskStatus = "READY_FOR_REVIEW"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{
	StatusNotStarted,
	StatusInProgress,
	StatusDeferred,
	StatusCanceled,
	StatusCompleted,
	StatusForRevision,
	StatusRejected,
	StatusReadyForReview,
}

var statusLabels = map[TaskStatus]string{
	StatusNotStarted:     "Not Started",
	StatusInProgress:     "In Progress",
	StatusDeferred:       "Deferred",
	StatusCanceled:       "Canceled",
	StatusCompleted:      "Completed",
	StatusForRevision:    "For Revision",
	StatusRejected:       "Rejected",
	StatusReadyForReview: "Ready for Review",
}

// Label is the human readable name of the status. Unknown statuses are returned as is.
func (s TaskStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is one of [TaskStatuses].
func (s TaskStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Done reports whether no more work is expected on a task with this status.
func (s TaskStatus) Done() bool {
	return s == StatusCompleted || s == StatusCanceled || s == StatusRejected
}

// Next is the status a task moves to when it is advanced:
// not started -> in progress -> ready for review -> completed.
// Deferred and for-revision tasks resume in progress. Done statuses stay put.
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case StatusNotStarted, StatusDeferred, StatusForRevision:
		return StatusInProgress
	case StatusInProgress:
		return StatusReadyForReview
	case StatusReadyForReview:
		return StatusCompleted
	}
	return s
}

// ParseTaskStatus accepts the wire form ("IN_PROGRESS"), its lower or kebab case variants, or the label.
func ParseTaskStatus(v string) (TaskStatus, error) {
	norm := strings.ToUpper(strings.TrimSpace(v))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)

	s := TaskStatus(norm)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown task status %q", shared.ErrInvalidArgument, v)
	}
	return s, nil
}
