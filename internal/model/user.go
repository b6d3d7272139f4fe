package model

import "time"

// Account roles.  Admins manage accounts, rooms and deletions; staff run
// allocations and exports.
const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

// User is an operator account.  The password hash never leaves the server.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether u may manage accounts and rooms.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RefreshToken is a stored refresh token.  Only the SHA-256 of the raw
// token is kept.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Live reports whether t can still be exchanged at now.
func (t RefreshToken) Live(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
