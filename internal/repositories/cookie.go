package repositories

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ztx/internal/shared"
	"golang.org/x/net/publicsuffix"
)

// CookieRepository stores cookies set by a backend, keyed by base URL, cookie name and path.
type CookieRepository struct {
	db *sql.DB
}

// NewCookieRepository creates a new [CookieRepository] with the given database connection
func NewCookieRepository(db *sql.DB) *CookieRepository {
	return &CookieRepository{db: db}
}

// Save inserts or replaces a cookie.
func (r *CookieRepository) Save(baseURL string, c *http.Cookie) error {
	path := c.Path
	if path == "" {
		path = "/"
	}

	var expires sql.NullTime
	if !c.Expires.IsZero() {
		expires = sql.NullTime{Time: c.Expires, Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT INTO cookies (base_url, name, path, value, expires_at, secure, http_only, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (base_url, name, path) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			secure = excluded.secure,
			http_only = excluded.http_only,
			updated_at = excluded.updated_at
	`, baseURL, c.Name, path, c.Value, expires, c.Secure, c.HttpOnly, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save cookie %s: %w", c.Name, err)
	}
	return nil
}

// Delete removes one cookie. An empty path means "/". Missing cookies are not an error.
func (r *CookieRepository) Delete(baseURL, name, path string) error {
	if path == "" {
		path = "/"
	}
	_, err := r.db.Exec(`DELETE FROM cookies WHERE base_url = ? AND name = ? AND path = ?`, baseURL, name, path)
	if err != nil {
		return fmt.Errorf("failed to delete cookie %s: %w", name, err)
	}
	return nil
}

// DeleteAll removes every cookie of a backend.
func (r *CookieRepository) DeleteAll(baseURL string) error {
	if _, err := r.db.Exec(`DELETE FROM cookies WHERE base_url = ?`, baseURL); err != nil {
		return fmt.Errorf("failed to delete cookies: %w", err)
	}
	return nil
}

// List returns the cookies of a backend that have not expired at now.
func (r *CookieRepository) List(baseURL string, now time.Time) ([]*http.Cookie, error) {
	rows, err := r.db.Query(`
		SELECT name, value, path, expires_at, secure, http_only
		FROM cookies
		WHERE base_url = ?
		ORDER BY name, path
	`, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list cookies: %w", err)
	}
	defer rows.Close()

	var out []*http.Cookie
	for rows.Next() {
		var (
			c       http.Cookie
			expires sql.NullTime
		)
		if err := rows.Scan(&c.Name, &c.Value, &c.Path, &expires, &c.Secure, &c.HttpOnly); err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}
		if expires.Valid {
			if !expires.Time.After(now) {
				continue
			}
			c.Expires = expires.Time
		}
		out = append(out, &c)
	}

	return out, rows.Err()
}

// PersistentJar is an [http.CookieJar] that writes the cookies of one backend through to a [CookieRepository].
//
// Cookies are matched to requests by an in-memory [cookiejar.Jar]; the database only makes them outlive the
// process, so the refresh token cookie survives between CLI invocations.
type PersistentJar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	repo    *CookieRepository
	baseURL string
	logger  *log.Logger
}

// NewPersistentJar creates a jar for baseURL preloaded with the cookies saved for it.
func NewPersistentJar(repo *CookieRepository, baseURL string, logger *log.Logger) (*PersistentJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	baseURL = strings.TrimRight(baseURL, "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base URL %q: %v", shared.ErrInvalidConfig, baseURL, err)
	}

	saved, err := repo.List(baseURL, time.Now())
	if err != nil {
		return nil, err
	}
	jar.SetCookies(u, saved)

	return &PersistentJar{jar: jar, repo: repo, baseURL: baseURL, logger: logger}, nil
}

// SetCookies implements [http.CookieJar].
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	now := time.Now()
	for _, c := range cookies {
		if c.Path == "" || c.Path[0] != '/' {
			c = cloneCookie(c)
			c.Path = defaultPath(u)
		}

		var err error
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			err = j.repo.Delete(j.baseURL, c.Name, c.Path)
		} else {
			if c.MaxAge > 0 {
				c = cloneCookie(c)
				c.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
			}
			err = j.repo.Save(j.baseURL, c)
		}
		if err != nil {
			j.logger.Warn("failed to persist cookie", "name", c.Name, "err", err)
		}
	}
}

// Cookies implements [http.CookieJar].
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Clear forgets every cookie of the backend, in memory and on disk.
func (j *PersistentJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("failed to reset cookie jar: %w", err)
	}
	j.jar = jar
	return j.repo.DeleteAll(j.baseURL)
}

// defaultPath is the path a cookie without a Path attribute is scoped to (RFC 6265 section 5.1.4).
func defaultPath(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func cloneCookie(c *http.Cookie) *http.Cookie {
	out := *c
	return &out
}

var _ http.CookieJar = (*PersistentJar)(nil)
