// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
)

// MockWorkspace is a test double for [services.Workspace] backed by slices.
//
// Err fails every call; Errs fails single methods by name (e.g. "ListTasks").
type MockWorkspace struct {
	mu sync.Mutex

	User       *models.User
	Projects   []models.Project
	Categories []models.Category
	Markers    []models.Marker
	Tasks      []models.Task
	Stats      models.StatisticOverview

	Err   error
	Errs  map[string]error
	calls map[string]int
}

func (m *MockWorkspace) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
	if err, ok := m.Errs[name]; ok {
		return err
	}
	return m.Err
}

// Calls returns how often the named method ran.
func (m *MockWorkspace) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockWorkspace) Profile(ctx context.Context) (*models.User, error) {
	if err := m.record("Profile"); err != nil {
		return nil, err
	}
	if m.User == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return m.User, nil
}

func (m *MockWorkspace) ListProjects(ctx context.Context, params models.ProjectParams) (*models.Page[models.Project], error) {
	if err := m.record("ListProjects"); err != nil {
		return nil, err
	}
	return onePage(m.Projects), nil
}

func (m *MockWorkspace) ListCategories(ctx context.Context, params models.CategoryParams) (*models.Page[models.Category], error) {
	if err := m.record("ListCategories"); err != nil {
		return nil, err
	}
	var out []models.Category
	for _, c := range m.Categories {
		if params.ProjectID == "" || c.ProjectID == params.ProjectID {
			out = append(out, c)
		}
	}
	return onePage(out), nil
}

func (m *MockWorkspace) ListMarkers(ctx context.Context, params models.MarkerParams) (*models.Page[models.Marker], error) {
	if err := m.record("ListMarkers"); err != nil {
		return nil, err
	}
	return onePage(m.Markers), nil
}

func (m *MockWorkspace) ListTasks(ctx context.Context, params models.TaskParams) (*models.Page[models.Task], error) {
	if err := m.record("ListTasks"); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, task := range m.Tasks {
		if params.ProjectID != "" && task.ProjectID != params.ProjectID {
			continue
		}
		if params.Status != "" && task.Status != params.Status {
			continue
		}
		out = append(out, task)
	}
	return onePage(out), nil
}

func (m *MockWorkspace) Overview(ctx context.Context) (models.StatisticOverview, error) {
	if err := m.record("Overview"); err != nil {
		return nil, err
	}
	return m.Stats, nil
}

func (m *MockWorkspace) SetTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	if err := m.record("SetTaskStatus"); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Tasks {
		if m.Tasks[i].ID == id {
			m.Tasks[i].Status = status
			task := m.Tasks[i]
			return &task, nil
		}
	}
	return nil, fmt.Errorf("%w: task %s", shared.ErrNotFound, id)
}

func onePage[T any](items []T) *models.Page[T] {
	if items == nil {
		items = []T{}
	}
	return &models.Page[T]{
		Total:      len(items),
		Items:      items,
		Pagination: models.Pagination{Page: 1, Pages: 1, Limit: len(items)},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
