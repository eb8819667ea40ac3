// package models defines the data model of the ztx client
package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/ztx/internal/shared"
)

// Model defines the base interface for all locally persisted models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Credential is the session saved for one backend: the access token and the id of the user it belongs to.
//
// The refresh token is not part of it; it is stored with the other cookies of the backend.
type Credential struct {
	id          string
	baseURL     string
	accessToken string
	userID      string
	createdAt   time.Time
	updatedAt   time.Time
}

// NewCredential creates an unsaved credential for baseURL.
func NewCredential(baseURL, accessToken, userID string) *Credential {
	now := time.Now()
	return &Credential{
		baseURL:     baseURL,
		accessToken: accessToken,
		userID:      userID,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (c *Credential) ID() string { return c.id }
func (c *Credential) BaseURL() string { return c.baseURL }
func (c *Credential) AccessToken() string { return c.accessToken }
func (c *Credential) UserID() string { return c.userID }
func (c *Credential) CreatedAt() time.Time { return c.createdAt }
func (c *Credential) UpdatedAt() time.Time { return c.updatedAt }

func (c *Credential) SetID(id string) { c.id = id }
func (c *Credential) SetCreatedAt(t time.Time) { c.createdAt = t }
func (c *Credential) SetUpdatedAt(t time.Time) { c.updatedAt = t }
func (c *Credential) SetTokens(access, user string) { c.accessToken, c.userID = access, user }

// Validate requires a backend URL and an access token.
func (c *Credential) Validate() error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: credential base URL is required", shared.ErrInvalidInput)
	}
	if c.accessToken == "" {
		return fmt.Errorf("%w: credential access token is required", shared.ErrInvalidInput)
	}
	return nil
}
