package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/realestate-classifieds/internal/filter"
	"github.com/iliyamo/realestate-classifieds/internal/model"
)

// ListingSearchQuery defines filters and pagination for public browsing.
type ListingSearchQuery struct {
	Filter   filter.Filter
	Page     int
	PageSize int
}

// ListApproved returns one page of approved listings newest first plus the
// total number of matches.
func (r *ListingRepo) ListApproved(ctx context.Context, q ListingSearchQuery) ([]model.Listing, int64, error) {
	where, args := q.Filter.Where()
	where = append([]string{"l.approved = 1"}, where...)
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*)` + listingJoins + ` WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	dataSQL := listingSelect + listingJoins + `
	WHERE ` + cond + `
	ORDER BY l.created_at DESC, l.id
	LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
