// Package session turns an authenticated identity into a user with a role
// and keeps long-lived session state up to date as auth events arrive.
package session

import (
	"context"
	"log/slog"

	"github.com/iliyamo/realestate-classifieds/internal/logger"
	"github.com/iliyamo/realestate-classifieds/internal/model"
)

// Identity is what a verified access token says about its bearer.
type Identity struct {
	UserID   string
	Email    string
	MetaRole string // role captured in signup metadata, may be empty
}

// User is an identity enriched with its effective role.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user acts as an administrator.
func (u *User) IsAdmin() bool { return u != nil && u.Role == model.RoleAdmin }

// RoleLookup reads the role assignment table.
type RoleLookup interface {
	GetRole(ctx context.Context, userID string) (string, error)
}

// Resolver enriches identities with roles.  It only reads.
type Resolver struct {
	roles RoleLookup
	log   *slog.Logger
}

func NewResolver(roles RoleLookup, log *slog.Logger) *Resolver {
	return &Resolver{roles: roles, log: log}
}

// Resolve returns nil for a nil identity.  The role comes from the role
// table; when that lookup fails or has no row, the signup metadata role is
// used, then "regular".
func (r *Resolver) Resolve(ctx context.Context, id *Identity) *User {
	if id == nil {
		return nil
	}
	u := &User{ID: id.UserID, Email: id.Email, Role: model.RoleRegular}

	role, err := r.roles.GetRole(ctx, id.UserID)
	switch {
	case err == nil && model.ValidRole(role):
		u.Role = role
		return u
	case err != nil && ctx.Err() == nil:
		r.log.Debug("role lookup failed, using metadata",
			slog.String("user_id", id.UserID), logger.Err(err))
	}
	if model.ValidRole(id.MetaRole) {
		u.Role = id.MetaRole
	}
	return u
}
