// Package session owns the access/refresh token lifecycle: issuance,
// rotation, revocation, and credential checks. All session state lives on
// the user record; the manager itself is stateless and safe for concurrent
// use.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gotodo/internal/password"
	"gotodo/internal/store"
	"gotodo/internal/token"
)

var (
	// ErrUserNotFound means no user matched the id or identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials means the password check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingToken means no refresh token was supplied.
	ErrMissingToken = errors.New("missing refresh token")
	// ErrInvalidToken means the refresh token failed signature or expiry
	// verification.
	ErrInvalidToken = errors.New("invalid refresh token")
	// ErrTokenMismatch means the refresh token verified but is not the one
	// currently stored for the user: it was rotated away or revoked.
	ErrTokenMismatch = errors.New("refresh token mismatch")
	// ErrTokenGeneration means signing or persisting a new pair failed.
	ErrTokenGeneration = errors.New("token generation failed")
)

// Pair is one issued access/refresh token couple.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Manager orchestrates token issuance against the user store and codec.
type Manager struct {
	users store.Users
	codec *token.Codec
}

// NewManager wires the session manager to its collaborators.
func NewManager(users store.Users, codec *token.Codec) *Manager {
	return &Manager{users: users, codec: codec}
}

// Issue mints a new token pair for the user and stores the refresh token on
// the user record, overwriting any previous value. The write path touches
// only the refresh token field.
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID) (Pair, error) {
	user, err := m.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Pair{}, ErrUserNotFound
		}
		return Pair{}, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	access, err := m.codec.SignAccess(user.ID, user.Username, user.Email)
	if err != nil {
		return Pair{}, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	refresh, err := m.codec.SignRefresh(user.ID)
	if err != nil {
		return Pair{}, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Pair{}, ErrUserNotFound
		}
		return Pair{}, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate validates a presented refresh token and, when it matches the value
// currently stored for its subject, issues a fresh pair. Concurrent
// rotations race at the store: the last write wins and the loser's next
// attempt fails with ErrTokenMismatch.
func (m *Manager) Rotate(ctx context.Context, presented string) (Pair, error) {
	if presented == "" {
		return Pair{}, ErrMissingToken
	}

	userID, err := m.codec.VerifyRefresh(presented)
	if err != nil {
		return Pair{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := m.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Pair{}, ErrUserNotFound
		}
		return Pair{}, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshToken)) != 1 {
		return Pair{}, ErrTokenMismatch
	}

	return m.Issue(ctx, user.ID)
}

// Revoke clears the stored refresh token for the user. Revoking an already
// revoked session is not an error.
func (m *Manager) Revoke(ctx context.Context, userID uuid.UUID) error {
	err := m.users.ClearRefreshToken(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// Authenticate resolves the user by username or email and verifies the
// password against the stored hash. The two failure causes stay distinct
// here; the HTTP boundary collapses them into one response.
func (m *Manager) Authenticate(ctx context.Context, identifier, plain string) (uuid.UUID, error) {
	user, err := m.users.ByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, err
	}

	if err := password.Compare(user.PasswordHash, plain); err != nil {
		return uuid.Nil, ErrInvalidCredentials
	}
	return user.ID, nil
}
