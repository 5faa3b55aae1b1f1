package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FullName     *string   `json:"full_name"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
	IsAdmin      bool      `json:"is_admin" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail lower-cases and trims an address so that uniqueness and
// lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserPatch carries a partial update for a user. IsActive and IsAdmin are
// only honoured on the administrative path.
type UserPatch struct {
	Email    Optional[string] `json:"email"`
	Password Optional[string] `json:"password"`
	FullName Optional[string] `json:"full_name"`
	IsActive Optional[bool]   `json:"is_active"`
	IsAdmin  Optional[bool]   `json:"is_admin"`
}

// SelfService drops the fields a user may not change on their own account.
func (p UserPatch) SelfService() UserPatch {
	p.IsActive = Optional[bool]{}
	p.IsAdmin = Optional[bool]{}
	return p
}

// TokenPair is returned on login and refresh. It is never persisted.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

const BearerTokenType = "bearer"
