// Package store persists users and todos. The gorm-backed implementation is
// the production path; the memory implementation backs tests.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gotodo/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique username or email is taken.
	ErrDuplicate = errors.New("duplicate record")
)

// Users is the credential store contract consumed by the session manager
// and the authorization gate.
type Users interface {
	// Create hashes plain and inserts the user. ErrDuplicate when the
	// username or email is already taken.
	Create(ctx context.Context, user *models.User, plain string) error
	ByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// ByIdentifier matches identifier against username or email.
	ByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	// UpdateProfile sets the non-empty fields of username/email.
	UpdateProfile(ctx context.Context, id uuid.UUID, username, email string) (*models.User, error)
	// UpdatePassword hashes plain and stores it. This is the only update
	// path that touches the secret.
	UpdatePassword(ctx context.Context, id uuid.UUID, plain string) error
	// SetRefreshToken overwrites the stored refresh token value without
	// touching any other field.
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	// ClearRefreshToken removes the stored refresh token value.
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Todos stores list items scoped to their owning user. Every lookup takes
// the owner id so a caller can never reach another user's items.
type Todos interface {
	Create(ctx context.Context, todo *models.Todo) error
	ByOwner(ctx context.Context, userID uuid.UUID) ([]models.Todo, error)
	ByID(ctx context.Context, id, userID uuid.UUID) (*models.Todo, error)
	Update(ctx context.Context, todo *models.Todo) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
