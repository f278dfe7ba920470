package model

import "time"

// Role values stored in roles.role and carried as signup metadata.
const (
	RoleAdmin   = "admin"
	RoleRegular = "regular"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool { return r == RoleAdmin || r == RoleRegular }

// User represents an account as stored in the `users` table.  The role a
// user acts with is not a column here: it is resolved from the `roles`
// side table, falling back to MetaRole captured at signup.
//
// Fields:
//
//	ID           – UUID primary key.
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt hash.
//	DisplayName  – name shown to admins.
//	Phone        – contact phone, refreshed whenever the user publishes.
//	MetaRole     – role from signup metadata; empty when none was given.
type User struct {
	ID           string    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	DisplayName  string    // users.display_name
	Phone        string    // users.phone
	MetaRole     string    // users.meta_role (NULL -> "")
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is persisted.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at
	CreatedAt time.Time  // refresh_tokens.created_at
}

// UserOverview is one row of the admin users table: the account joined with
// its role assignment, quota row and listing count.
type UserOverview struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	Phone        string     `json:"phone"`
	Role         string     `json:"role"`
	Limit        int        `json:"limit"`
	ValidUntil   *time.Time `json:"valid_until"`
	HasQuota     bool       `json:"has_quota"`
	ListingCount int        `json:"listing_count"`
	CreatedAt    time.Time  `json:"created_at"`
}
