package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
)

// CredentialRepository implements [models.Repository] for [models.Credential] persistence.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

const credentialColumns = `id, base_url, access_token, user_id, created_at, updated_at`

// Create inserts a new credential with a generated ID. Each base URL holds at most one credential.
func (r *CredentialRepository) Create(c *models.Credential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	c.SetID(shared.GenerateID())

	query := `INSERT INTO credentials (` + credentialColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, c.ID(), c.BaseURL(), c.AccessToken(), c.UserID(), c.CreatedAt(), c.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}

	return nil
}

// Get retrieves a credential by ID.
func (r *CredentialRepository) Get(id string) (*models.Credential, error) {
	row := r.db.QueryRow(`SELECT `+credentialColumns+` FROM credentials WHERE id = ?`, id)
	c, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: credential %s", shared.ErrNotFound, id)
	}
	return c, err
}

// GetByBaseURL retrieves the credential saved for a backend.
func (r *CredentialRepository) GetByBaseURL(baseURL string) (*models.Credential, error) {
	row := r.db.QueryRow(`SELECT `+credentialColumns+` FROM credentials WHERE base_url = ?`, baseURL)
	c, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no credential for %s", shared.ErrNotFound, baseURL)
	}
	return c, err
}

// Update replaces the tokens of an existing credential.
func (r *CredentialRepository) Update(c *models.Credential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	c.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE credentials
		SET access_token = ?, user_id = ?, updated_at = ?
		WHERE id = ?
	`, c.AccessToken(), c.UserID(), now, c.ID())
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}

	return expectAffected(result, "credential", c.ID())
}

// Delete removes a credential by ID.
func (r *CredentialRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM credentials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return expectAffected(result, "credential", id)
}

// List retrieves credentials, optionally filtered by "base_url" or "user_id".
func (r *CredentialRepository) List(criteria map[string]any) ([]*models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE 1 = 1`
	args := []any{}

	for _, col := range []string{"base_url", "user_id"} {
		if v, ok := criteria[col]; ok {
			query += " AND " + col + " = ?"
			args = append(args, v)
		}
	}
	query += " ORDER BY updated_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var out []*models.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

// Upsert saves the tokens for the credential's base URL, creating the row on first use.
func (r *CredentialRepository) Upsert(c *models.Credential) error {
	existing, err := r.GetByBaseURL(c.BaseURL())
	if errors.Is(err, shared.ErrNotFound) {
		return r.Create(c)
	}
	if err != nil {
		return err
	}

	existing.SetTokens(c.AccessToken(), c.UserID())
	if err := r.Update(existing); err != nil {
		return err
	}
	c.SetID(existing.ID())
	c.SetCreatedAt(existing.CreatedAt())
	c.SetUpdatedAt(existing.UpdatedAt())
	return nil
}

// DeleteByBaseURL removes the credential of a backend. Missing rows are not an error.
func (r *CredentialRepository) DeleteByBaseURL(baseURL string) error {
	if _, err := r.db.Exec(`DELETE FROM credentials WHERE base_url = ?`, baseURL); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

func scanCredential(s scanner) (*models.Credential, error) {
	var (
		id, baseURL, accessToken, userID string
		createdAt, updatedAt             time.Time
	)

	if err := s.Scan(&id, &baseURL, &accessToken, &userID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}

	c := models.NewCredential(baseURL, accessToken, userID)
	c.SetID(id)
	c.SetCreatedAt(createdAt)
	c.SetUpdatedAt(updatedAt)
	return c, nil
}

var _ models.Repository[*models.Credential] = (*CredentialRepository)(nil)
