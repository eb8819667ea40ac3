package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ztx/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	FakeEmail     = "ada@example.com"
	FakePassword  = "secret"
	RefreshCookie = "refresh_token"
)

// FakeBackend is an in-memory task manager API served by [httptest.Server].
//
// It implements the auth flow the client depends on: login sets a refresh cookie, protected routes answer 401
// "jwt expired" to any token but the current one, and /auth/refresh trades the cookie for a new access token.
type FakeBackend struct {
	*httptest.Server

	mu           sync.Mutex
	generation   int
	access       string
	refresh      string
	refreshCalls int
	refreshDelay time.Duration
	failStatus   int
	failMessage  string
	failLeft     int
	hits         map[string]int

	User       models.User
	Projects   []models.Project
	Categories []models.Category
	Markers    []models.Marker
	Tasks      []models.Task
}

// NewFakeBackend starts a backend seeded with one user, two projects, one category, one marker and three tasks.
// The server is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	due := now.Add(-24 * time.Hour)
	b := &FakeBackend{
		hits: map[string]int{},
		User: models.User{
			ID: "u-1", Email: FakeEmail, FirstName: "Ada", LastName: "Lovelace",
			Roles: []models.UserRole{models.RoleOwner}, Status: models.UserActive, CreatedAt: now,
		},
		Projects: []models.Project{
			{ID: "p-1", Slug: "engine", Name: "Engine", IsActive: true, UserID: "u-1", CreatedAt: now},
			{ID: "p-2", Slug: "notes", Name: "Notes", IsActive: true, UserID: "u-1", CreatedAt: now},
		},
		Categories: []models.Category{
			{ID: "c-1", Slug: "design", Name: "Design", ProjectID: "p-1", CreatedAt: now},
		},
		Markers: []models.Marker{
			{ID: "m-1", Slug: "urgent", Name: "urgent", IsDefault: true, CreatedAt: now},
		},
		Tasks: []models.Task{
			{ID: "t-1", Name: "Sketch the mill", Status: models.StatusNotStarted, ProjectID: "p-1", CreatorID: "u-1", CreatedAt: now},
			{ID: "t-2", Name: "Punch the cards", Status: models.StatusInProgress, ProjectID: "p-1", CreatorID: "u-1", DueDate: &due, CreatedAt: now},
			{ID: "t-3", Name: "Write note G", Status: models.StatusCompleted, ProjectID: "p-2", CreatorID: "u-1", CreatedAt: now},
		},
	}

	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Close)
	return b
}

func (b *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.count)

	r.Post("/auth/login", b.handleLogin)
	r.Post("/auth/register", b.handleRegister)
	r.Post("/auth/refresh", b.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(b.requireToken)

		r.Get("/auth/profile", b.handleProfile)
		r.Get("/auth/logout", b.handleLogout)
		r.Get("/auth/logout-all", b.handleLogout)

		r.Get("/projects", b.handleProjects)
		r.Get("/categories", b.handleCategories)
		r.Get("/markers", b.handleMarkers)
		r.Get("/tasks", b.handleTasks)
		r.Get("/tasks/{id}", b.handleTask)
		r.Patch("/tasks/{id}/status", b.handleTaskStatus)
		r.Get("/statistics/overview", b.handleOverview)
	})

	return r
}

// Session issues a valid access token and refresh cookie without going through login.
func (b *FakeBackend) Session() (string, *http.Cookie) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issue(), b.cookie()
}

// ExpireAccess invalidates the current access token; the refresh cookie stays valid.
func (b *FakeBackend) ExpireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
	b.access = fmt.Sprintf("access-%d", b.generation)
}

// RefreshValid reports whether a refresh token is currently accepted.
func (b *FakeBackend) RefreshValid() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refresh != ""
}

// RevokeRefresh makes /auth/refresh answer 401 "Invalid refresh token".
func (b *FakeBackend) RevokeRefresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh = ""
}

// FailRefresh makes /auth/refresh answer status with message. A zero status restores normal behavior.
func (b *FakeBackend) FailRefresh(status int, message string) {
	b.FailRefreshTimes(-1, status, message)
}

// FailRefreshTimes is [FakeBackend.FailRefresh] for the next n refreshes only. A negative n never stops failing.
func (b *FakeBackend) FailRefreshTimes(n, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failLeft = n
	b.failStatus = status
	b.failMessage = message
}

// SlowRefresh delays every refresh by d so concurrent requests pile up behind it.
func (b *FakeBackend) SlowRefresh(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshDelay = d
}

// RefreshCalls returns how many refreshes succeeded.
func (b *FakeBackend) RefreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

// Hits returns how many requests reached "METHOD /path".
func (b *FakeBackend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// AccessToken returns the token protected routes currently accept.
func (b *FakeBackend) AccessToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.access
}

// issue rotates both tokens. Callers hold mu.
func (b *FakeBackend) issue() string {
	b.generation++
	b.access = fmt.Sprintf("access-%d", b.generation)
	b.refresh = fmt.Sprintf("refresh-%d", b.generation)
	return b.access
}

func (b *FakeBackend) cookie() *http.Cookie {
	return &http.Cookie{Name: RefreshCookie, Value: b.refresh, Path: "/", HttpOnly: true, MaxAge: 3600}
}

func (b *FakeBackend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "jwt must be provided")
			return
		}

		b.mu.Lock()
		valid := b.access != "" && header == "Bearer "+b.access
		b.mu.Unlock()
		if !valid {
			writeError(w, http.StatusUnauthorized, "jwt expired")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if req.Email != b.User.Email || req.Password != FakePassword {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token := b.issue()
	http.SetCookie(w, b.cookie())
	writeJSON(w, http.StatusOK, models.AuthResponse{User: b.User, AccessToken: token})
}

func (b *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeErrors(w, http.StatusBadRequest, "email must be an email", "password is too weak")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.User = models.User{ID: "u-2", Email: req.Email, FirstName: req.FirstName, LastName: req.LastName, Status: models.UserActive}

	token := b.issue()
	http.SetCookie(w, b.cookie())
	writeJSON(w, http.StatusCreated, models.AuthResponse{User: b.User, AccessToken: token})
}

func (b *FakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delay := b.refreshDelay
	b.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failStatus != 0 && b.failLeft != 0 {
		if b.failLeft > 0 {
			b.failLeft--
		}
		writeError(w, b.failStatus, b.failMessage)
		return
	}

	c, err := r.Cookie(RefreshCookie)
	if err != nil || b.refresh == "" || c.Value != b.refresh {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	b.refreshCalls++
	b.generation++
	b.access = fmt.Sprintf("access-%d", b.generation)
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken": b.access,
		"user":        map[string]string{"id": b.User.ID},
	})
}

func (b *FakeBackend) handleProfile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.User)
}

func (b *FakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.refresh = ""
	b.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
}

func (b *FakeBackend) handleProjects(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(r, b.Projects))
}

func (b *FakeBackend) handleCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	project := r.URL.Query().Get("projectId")
	var out []models.Category
	for _, c := range b.Categories {
		if project == "" || c.ProjectID == project {
			out = append(out, c)
		}
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *FakeBackend) handleMarkers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(r, b.Markers))
}

func (b *FakeBackend) handleTasks(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := r.URL.Query()
	var out []models.Task
	for _, task := range b.Tasks {
		if p := q.Get("projectId"); p != "" && task.ProjectID != p {
			continue
		}
		if s := q.Get("status"); s != "" && string(task.Status) != s {
			continue
		}
		out = append(out, task)
	}
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (b *FakeBackend) findTask(id string) int {
	for i := range b.Tasks {
		if b.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *FakeBackend) handleTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.findTask(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, b.Tasks[i])
}

func (b *FakeBackend) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req models.TaskStatusInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Valid() {
		writeErrors(w, http.StatusBadRequest, "status must be a valid enum value")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.findTask(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	b.Tasks[i].Status = req.Status
	writeJSON(w, http.StatusOK, b.Tasks[i])
}

func (b *FakeBackend) handleOverview(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	done := 0
	for _, task := range b.Tasks {
		if task.Status == models.StatusCompleted {
			done++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projects":       len(b.Projects),
		"tasks":          len(b.Tasks),
		"completedTasks": done,
	})
}

func paginate[T any](r *http.Request, items []T) models.Page[T] {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	start := min((page-1)*limit, len(items))
	end := min(start+limit, len(items))
	pages := (len(items) + limit - 1) / limit

	out := make([]T, end-start)
	copy(out, items[start:end])
	return models.Page[T]{
		Total: len(items),
		Items: out,
		Pagination: models.Pagination{
			Page: page, Pages: pages, Limit: limit,
			HasNext: page < pages, HasPrev: page > 1,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"statusCode": status,
		"message":    message,
		"error":      http.StatusText(status),
	})
}

func writeErrors(w http.ResponseWriter, status int, messages ...string) {
	writeJSON(w, status, map[string]any{
		"statusCode": status,
		"message":    messages,
		"error":      http.StatusText(status),
	})
}
