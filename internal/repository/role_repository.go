package repository

import (
	"context"
	"database/sql"
	"errors"
)

// RoleRepo reads and writes the roles side table.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// GetRole returns the assigned role or ErrNotFound when the user has no row.
func (r *RoleRepo) GetRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.DB.QueryRowContext(ctx, "SELECT role FROM roles WHERE user_id = ? LIMIT 1", userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return role, nil
}

// SetRole upserts the user's role assignment.
func (r *RoleRepo) SetRole(ctx context.Context, userID, role string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO roles (user_id, role) VALUES (?, ?) ON DUPLICATE KEY UPDATE role = VALUES(role)",
		userID, role)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}
