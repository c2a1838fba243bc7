package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account record. PasswordHash is the only form the password is
// ever stored in, and RefreshToken holds the single currently recognised
// refresh token for the account (empty when logged out).
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string    `gorm:"type:text;uniqueIndex;not null"`
	Email        string    `gorm:"type:text;uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Todos []Todo `gorm:"constraint:OnDelete:CASCADE"`
}

// Identity is the minimal projection of a User that is safe to attach to a
// request context. It deliberately excludes the password hash and the
// stored refresh token.
type Identity struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// Identity returns the context-safe projection of the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, Email: u.Email}
}
