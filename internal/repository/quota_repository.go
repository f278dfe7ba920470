package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/realestate-classifieds/internal/model"
)

// QuotaRepo accesses the per-user quotas table.
type QuotaRepo struct{ DB *sql.DB }

func NewQuotaRepo(db *sql.DB) *QuotaRepo { return &QuotaRepo{DB: db} }

// GetQuota returns the user's quota row, or nil without error when none exists.
func (r *QuotaRepo) GetQuota(ctx context.Context, userID string) (*model.Quota, error) {
	var (
		q     model.Quota
		until sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, listing_limit, valid_until, created_at FROM quotas WHERE user_id = ? LIMIT 1",
		userID).Scan(&q.UserID, &q.Limit, &until, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if until.Valid {
		t := until.Time
		q.ValidUntil = &t
	}
	return &q, nil
}

// Replace drops any existing quota row of the user and inserts a new one in
// a single transaction.
func (r *QuotaRepo) Replace(ctx context.Context, userID string, limit int, validUntil *time.Time) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM quotas WHERE user_id = ?", userID); err != nil {
		return err
	}
	var until sql.NullTime
	if validUntil != nil {
		until = sql.NullTime{Time: validUntil.UTC(), Valid: true}
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO quotas (user_id, listing_limit, valid_until) VALUES (?, ?, ?)",
		userID, limit, until); err != nil {
		if isForeignKeyViolation(err) {
			err = ErrNotFound
		}
		return err
	}
	return tx.Commit()
}

// isForeignKeyViolation matches MySQL error 1452 (parent row missing).
func isForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1452
}
