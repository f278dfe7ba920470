package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/realestate-classifieds/internal/database"
	"github.com/iliyamo/realestate-classifieds/internal/model"
	"github.com/iliyamo/realestate-classifieds/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser is the registration payload.
type NewUser struct {
	Email       string
	Password    string
	DisplayName string
	Phone       string
	MetaRole    string
}

const userColumns = "id, email, password_hash, display_name, phone, meta_role, created_at, updated_at"

// Create hashes the password and inserts the user with a fresh UUID.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (model.User, error) {
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Phone:        strings.TrimSpace(in.Phone),
		MetaRole:     in.MetaRole,
	}
	var metaRole sql.NullString
	if u.MetaRole != "" {
		metaRole = sql.NullString{String: u.MetaRole, Valid: true}
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, display_name, phone, meta_role) VALUES (?,?,?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, u.DisplayName, u.Phone, metaRole)
	if err != nil {
		if database.IsDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	return scanUser(row)
}

// UpdatePhone stores the phone a user published with as their contact
// number.
func (r *UserRepo) UpdatePhone(ctx context.Context, id, phone string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET phone = ? WHERE id = ?", phone, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 when the value is unchanged, so confirm existence.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ListOverview returns every user with role, quota and listing count for
// the admin users table.  Users without a quota row get defaultLimit.
func (r *UserRepo) ListOverview(ctx context.Context, defaultLimit int) ([]model.UserOverview, error) {
	const q = `SELECT u.id, u.email, u.display_name, u.phone,
	                  COALESCE(ro.role, u.meta_role, 'regular'),
	                  q.listing_limit, q.valid_until,
	                  (SELECT COUNT(*) FROM listings l WHERE l.owner_id = u.id),
	                  u.created_at
	           FROM users u
	           LEFT JOIN roles ro ON ro.user_id = u.id
	           LEFT JOIN quotas q ON q.user_id = u.id
	           ORDER BY u.created_at DESC, u.id`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserOverview{}
	for rows.Next() {
		var (
			o     model.UserOverview
			limit sql.NullInt64
			until sql.NullTime
		)
		if err := rows.Scan(&o.ID, &o.Email, &o.DisplayName, &o.Phone, &o.Role,
			&limit, &until, &o.ListingCount, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Limit = defaultLimit
		if limit.Valid {
			o.HasQuota = true
			o.Limit = int(limit.Int64)
		}
		if until.Valid {
			t := until.Time
			o.ValidUntil = &t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u        model.User
		metaRole sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Phone, &metaRole, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	u.MetaRole = metaRole.String
	return u, nil
}
