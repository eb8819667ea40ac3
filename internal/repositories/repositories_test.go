package repositories

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/desertthunder/ztx/internal/auth"
	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
)

const testBaseURL = "http://localhost:4000"

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.MemoryDatabase)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestCredentialRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		c := models.NewCredential(testBaseURL, "T1", "u1")

		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create credential: %v", err)
		}
		if c.ID() == "" {
			t.Error("credential ID should be set after creation")
		}
	})

	t.Run("Create ValidationError", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		if err := repo.Create(models.NewCredential(testBaseURL, "", "u1")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("Create DuplicateBaseURL", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		if err := repo.Create(models.NewCredential(testBaseURL, "T1", "u1")); err != nil {
			t.Fatalf("failed to create first credential: %v", err)
		}
		if err := repo.Create(models.NewCredential(testBaseURL, "T2", "u2")); err == nil {
			t.Fatal("expected error for a second credential on the same base URL")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		c := models.NewCredential(testBaseURL, "T1", "u1")
		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create credential: %v", err)
		}

		got, err := repo.Get(c.ID())
		if err != nil {
			t.Fatalf("failed to get credential: %v", err)
		}
		if got.AccessToken() != "T1" || got.UserID() != "u1" || got.BaseURL() != testBaseURL {
			t.Errorf("unexpected credential: %+v", got)
		}
	})

	t.Run("Get NotFound", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		c := models.NewCredential(testBaseURL, "T1", "u1")
		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create credential: %v", err)
		}

		c.SetTokens("T2", "u1")
		if err := repo.Update(c); err != nil {
			t.Fatalf("failed to update credential: %v", err)
		}

		got, _ := repo.GetByBaseURL(testBaseURL)
		if got.AccessToken() != "T2" {
			t.Errorf("AccessToken = %q, want T2", got.AccessToken())
		}
	})

	t.Run("Update NotFound", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		c := models.NewCredential(testBaseURL, "T1", "u1")
		c.SetID("missing")

		if err := repo.Update(c); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		c := models.NewCredential(testBaseURL, "T1", "u1")
		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create credential: %v", err)
		}

		if err := repo.Delete(c.ID()); err != nil {
			t.Fatalf("failed to delete credential: %v", err)
		}
		if err := repo.Delete(c.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("second delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		for _, base := range []string{"http://a.test", "http://b.test"} {
			if err := repo.Create(models.NewCredential(base, "T", "u1")); err != nil {
				t.Fatalf("failed to create credential: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 credentials, got %d", len(all))
		}

		filtered, err := repo.List(map[string]any{"base_url": "http://b.test"})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(filtered) != 1 || filtered[0].BaseURL() != "http://b.test" {
			t.Errorf("unexpected filtered list: %v", filtered)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		first := models.NewCredential(testBaseURL, "T1", "u1")
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("first upsert: %v", err)
		}
		second := models.NewCredential(testBaseURL, "T2", "u1")
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("second upsert: %v", err)
		}

		if second.ID() != first.ID() {
			t.Errorf("upsert should keep the row id: %s != %s", second.ID(), first.ID())
		}
		all, _ := repo.List(nil)
		if len(all) != 1 || all[0].AccessToken() != "T2" {
			t.Errorf("unexpected rows after upsert: %v", all)
		}
	})
}

func TestSession(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		s := NewSession(NewCredentialRepository(setupTestDB(t)), testBaseURL)

		tok, err := s.AccessToken()
		if err != nil || tok != "" {
			t.Errorf("AccessToken() = %q, %v; want empty, nil", tok, err)
		}
		id, err := s.UserID()
		if err != nil || id != "" {
			t.Errorf("UserID() = %q, %v; want empty, nil", id, err)
		}
	})

	t.Run("Save and Clear", func(t *testing.T) {
		s := NewSession(NewCredentialRepository(setupTestDB(t)), testBaseURL+"/")

		if err := s.Save(auth.Credentials{AccessToken: "T1", UserID: "u1"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := s.Save(auth.Credentials{AccessToken: "T2", UserID: "u1"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if tok, _ := s.AccessToken(); tok != "T2" {
			t.Errorf("AccessToken() = %q, want T2", tok)
		}
		if id, _ := s.UserID(); id != "u1" {
			t.Errorf("UserID() = %q, want u1", id)
		}

		if err := s.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if tok, _ := s.AccessToken(); tok != "" {
			t.Errorf("AccessToken() after Clear = %q", tok)
		}
		if err := s.Clear(); err != nil {
			t.Errorf("second Clear() error = %v", err)
		}
	})

	t.Run("drives a coordinator", func(t *testing.T) {
		s := NewSession(NewCredentialRepository(setupTestDB(t)), testBaseURL)
		if err := s.Save(auth.Credentials{AccessToken: "T1", UserID: "u1"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		c := auth.NewCoordinator(s, nil)
		req, _ := http.NewRequest(http.MethodGet, testBaseURL+"/tasks", nil)
		if got := c.Authorize(req).Header.Get("Authorization"); got != "Bearer T1" {
			t.Errorf("Authorization = %q, want Bearer T1", got)
		}
	})
}

func TestCookieRepository(t *testing.T) {
	now := time.Now()

	t.Run("Save List Delete", func(t *testing.T) {
		repo := NewCookieRepository(setupTestDB(t))

		if err := repo.Save(testBaseURL, &http.Cookie{Name: "refreshToken", Value: "R1", Path: "/auth", Expires: now.Add(time.Hour)}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := repo.Save(testBaseURL, &http.Cookie{Name: "refreshToken", Value: "R2", Path: "/auth"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		cookies, err := repo.List(testBaseURL, now)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(cookies) != 1 || cookies[0].Value != "R2" || cookies[0].Path != "/auth" {
			t.Errorf("unexpected cookies: %+v", cookies)
		}

		if err := repo.Delete(testBaseURL, "refreshToken", "/auth"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if cookies, _ := repo.List(testBaseURL, now); len(cookies) != 0 {
			t.Errorf("expected no cookies, got %d", len(cookies))
		}
	})

	t.Run("same name on different paths", func(t *testing.T) {
		repo := NewCookieRepository(setupTestDB(t))

		for _, c := range []*http.Cookie{
			{Name: "session", Value: "root", Path: "/"},
			{Name: "session", Value: "auth", Path: "/auth"},
		} {
			if err := repo.Save(testBaseURL, c); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		}

		cookies, err := repo.List(testBaseURL, now)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(cookies) != 2 {
			t.Fatalf("expected both cookies to be kept, got %+v", cookies)
		}
		if cookies[0].Path != "/" || cookies[1].Path != "/auth" {
			t.Errorf("unexpected paths %q, %q", cookies[0].Path, cookies[1].Path)
		}

		if err := repo.Delete(testBaseURL, "session", "/auth"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if cookies, _ := repo.List(testBaseURL, now); len(cookies) != 1 || cookies[0].Value != "root" {
			t.Errorf("expected only the root cookie, got %+v", cookies)
		}
	})

	t.Run("keeps Secure and HttpOnly", func(t *testing.T) {
		repo := NewCookieRepository(setupTestDB(t))

		if err := repo.Save(testBaseURL, &http.Cookie{Name: "refreshToken", Value: "R1", Path: "/", Secure: true, HttpOnly: true}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		cookies, err := repo.List(testBaseURL, now)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(cookies) != 1 || !cookies[0].Secure || !cookies[0].HttpOnly {
			t.Errorf("expected Secure and HttpOnly to survive, got %+v", cookies)
		}
	})

	t.Run("expired cookies are skipped", func(t *testing.T) {
		repo := NewCookieRepository(setupTestDB(t))
		if err := repo.Save(testBaseURL, &http.Cookie{Name: "old", Value: "x", Expires: now.Add(-time.Minute)}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if cookies, _ := repo.List(testBaseURL, now); len(cookies) != 0 {
			t.Errorf("expected expired cookie to be skipped, got %+v", cookies)
		}
	})
}

func TestPersistentJar(t *testing.T) {
	u, _ := url.Parse(testBaseURL + "/auth/login")

	t.Run("cookies survive a new jar", func(t *testing.T) {
		repo := NewCookieRepository(setupTestDB(t))

		jar, err := NewPersistentJar(repo, testBaseURL, nil)
		if err != nil {
			t.Fatalf("NewPersistentJar() error = %v", err)
		}
		jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "R1", Path: "/", HttpOnly: true, MaxAge: 3600}})

		reopened, err := NewPersistentJar(repo, testBaseURL, nil)
		if err != nil {
			t.Fatalf("NewPersistentJar() error = %v", err)
		}

		refreshURL, _ := url.Parse(testBaseURL + "/auth/refresh")
		cookies := reopened.Cookies(refreshURL)
		if len(cookies) != 1 || cookies[0].Name != "refreshToken" || cookies[0].Value != "R1" {
			t.Errorf("unexpected cookies after reload: %+v", cookies)
		}
	})

	t.Run("cookie without path keeps the request directory", func(t *testing.T) {
		repo := NewCookieRepository(setupTestDB(t))
		jar, _ := NewPersistentJar(repo, testBaseURL, nil)

		jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "R1", HttpOnly: true}})

		cookies, _ := repo.List(testBaseURL, time.Now())
		if len(cookies) != 1 || cookies[0].Path != "/auth" {
			t.Fatalf("expected cookie stored under /auth, got %+v", cookies)
		}

		reopened, _ := NewPersistentJar(repo, testBaseURL, nil)
		refreshURL, _ := url.Parse(testBaseURL + "/auth/refresh")
		if got := reopened.Cookies(refreshURL); len(got) != 1 {
			t.Errorf("expected cookie on /auth/refresh, got %+v", got)
		}
		tasksURL, _ := url.Parse(testBaseURL + "/tasks")
		if got := reopened.Cookies(tasksURL); len(got) != 0 {
			t.Errorf("expected cookie to stay scoped to /auth, got %+v", got)
		}

		jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "", MaxAge: -1}})
		if cookies, _ := repo.List(testBaseURL, time.Now()); len(cookies) != 0 {
			t.Errorf("expected cookie to be deleted, got %+v", cookies)
		}
	})

	t.Run("secure cookie is not sent over http after reload", func(t *testing.T) {
		repo := NewCookieRepository(setupTestDB(t))
		secureBase := "https://api.example.com"
		secureURL, _ := url.Parse(secureBase + "/auth/login")

		jar, _ := NewPersistentJar(repo, secureBase, nil)
		jar.SetCookies(secureURL, []*http.Cookie{{Name: "refreshToken", Value: "R1", Path: "/", Secure: true, HttpOnly: true}})

		reopened, _ := NewPersistentJar(repo, secureBase, nil)
		httpsURL, _ := url.Parse(secureBase + "/auth/refresh")
		if got := reopened.Cookies(httpsURL); len(got) != 1 {
			t.Errorf("expected cookie over https, got %+v", got)
		}
		plainURL, _ := url.Parse("http://api.example.com/auth/refresh")
		if got := reopened.Cookies(plainURL); len(got) != 0 {
			t.Errorf("expected no cookie over http, got %+v", got)
		}
	})

	t.Run("deleting cookie removes it from the database", func(t *testing.T) {
		repo := NewCookieRepository(setupTestDB(t))
		jar, _ := NewPersistentJar(repo, testBaseURL, nil)

		jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "R1", Path: "/"}})
		jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "", Path: "/", MaxAge: -1}})

		if cookies, _ := repo.List(testBaseURL, time.Now()); len(cookies) != 0 {
			t.Errorf("expected cookie to be deleted, got %+v", cookies)
		}
		if cookies := jar.Cookies(u); len(cookies) != 0 {
			t.Errorf("expected jar to forget cookie, got %+v", cookies)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewCookieRepository(setupTestDB(t))
		jar, _ := NewPersistentJar(repo, testBaseURL, nil)
		jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "R1", Path: "/"}})

		if err := jar.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if cookies := jar.Cookies(u); len(cookies) != 0 {
			t.Errorf("expected empty jar, got %+v", cookies)
		}
		if cookies, _ := repo.List(testBaseURL, time.Now()); len(cookies) != 0 {
			t.Errorf("expected no stored cookies, got %+v", cookies)
		}
	})
}
