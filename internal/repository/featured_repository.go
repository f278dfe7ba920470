package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/realestate-classifieds/internal/model"
)

// FeaturedRepo manages featured markers, a join table independent of the
// listing row.
type FeaturedRepo struct{ db *sql.DB }

func NewFeaturedRepo(db *sql.DB) *FeaturedRepo { return &FeaturedRepo{db: db} }

// ActiveMarkers returns active markers oldest first; this is the canonical
// feature order.
func (r *FeaturedRepo) ActiveMarkers(ctx context.Context) ([]model.FeaturedMarker, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT listing_id, active, created_at FROM featured WHERE active = 1 ORDER BY created_at, listing_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.FeaturedMarker{}
	for rows.Next() {
		var m model.FeaturedMarker
		if err := rows.Scan(&m.ListingID, &m.Active, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetFeatured upserts an active marker or deletes it.
func (r *FeaturedRepo) SetFeatured(ctx context.Context, listingID string, featured bool) error {
	if !featured {
		_, err := r.db.ExecContext(ctx, "DELETE FROM featured WHERE listing_id = ?", listingID)
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO featured (listing_id, active) VALUES (?, 1) ON DUPLICATE KEY UPDATE active = 1",
		listingID)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}
