package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/realestate-classifieds/internal/model"
)

// ListingRepo encapsulates the listings table.  Reads join the reference
// tables so names are available for display and text search.
type ListingRepo struct {
	db *sql.DB
}

func NewListingRepo(db *sql.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

const listingSelect = `SELECT l.id, l.owner_id, l.title, l.description, l.price, l.operation_type,
	l.region_id, r.name, l.subregion_id, s.name, l.category_id, c.name,
	l.images, l.phone, l.payment_frequency, l.item_condition, l.approved, l.created_at`

const listingJoins = `
	FROM listings l
	JOIN categories c ON c.id = l.category_id
	JOIN regions r    ON r.id = l.region_id
	JOIN subregions s ON s.id = l.subregion_id`

// Insert stores a new listing.  The caller fills ID, OwnerID and Images;
// approval always starts false.
func (r *ListingRepo) Insert(ctx context.Context, l *model.Listing) error {
	images, err := json.Marshal(nonNil(l.Images))
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	l.Approved = false
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	const q = `INSERT INTO listings
		(id, owner_id, title, description, price, operation_type, region_id, subregion_id, category_id,
		 images, phone, payment_frequency, item_condition, approved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`
	_, err = r.db.ExecContext(ctx, q,
		l.ID, l.OwnerID, l.Title, l.Description, l.Price, l.OperationType,
		l.RegionID, l.SubRegionID, l.CategoryID,
		string(images), l.Phone, nullString(l.PaymentFrequency), nullString(l.Condition), l.CreatedAt)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("unknown region, sub-region or category: %w", ErrNotFound)
	}
	return err
}

// GetByID returns a listing in any approval state.
func (r *ListingRepo) GetByID(ctx context.Context, id string) (model.Listing, error) {
	row := r.db.QueryRowContext(ctx, listingSelect+listingJoins+" WHERE l.id = ?", id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Listing{}, ErrNotFound
	}
	return l, err
}

// GetApproved returns a listing only when it is approved.
func (r *ListingRepo) GetApproved(ctx context.Context, id string) (model.Listing, error) {
	row := r.db.QueryRowContext(ctx, listingSelect+listingJoins+" WHERE l.id = ? AND l.approved = 1", id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Listing{}, ErrNotFound
	}
	return l, err
}

// CountByOwner counts every listing of the owner, approved or not.
func (r *ListingRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings WHERE owner_id = ?", ownerID).Scan(&n)
	return n, err
}

// ListByOwner returns the owner's listings newest first.
func (r *ListingRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		listingSelect+listingJoins+" WHERE l.owner_id = ? ORDER BY l.created_at DESC, l.id", ownerID)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

// ListAll returns every listing newest first with its featured flag; used by
// the moderation table.
func (r *ListingRepo) ListAll(ctx context.Context) ([]model.Listing, error) {
	q := listingSelect + `, (f.listing_id IS NOT NULL)` + listingJoins + `
	LEFT JOIN featured f ON f.listing_id = l.id AND f.active = 1
	ORDER BY l.created_at DESC, l.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Listing{}
	for rows.Next() {
		var featured bool
		l, err := scanListing(rows, &featured)
		if err != nil {
			return nil, err
		}
		l.Featured = featured
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListApprovedByIDs loads the approved listings among ids.  Result order is
// unspecified.
func (r *ListingRepo) ListApprovedByIDs(ctx context.Context, ids []string) ([]model.Listing, error) {
	if len(ids) == 0 {
		return []model.Listing{}, nil
	}
	ph := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx,
		listingSelect+listingJoins+" WHERE l.approved = 1 AND l.id IN ("+ph+")", args...)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

// Update applies the patch to a listing owned by ownerID.  ErrNotFound when
// the listing does not exist, ErrForbidden when someone else owns it.
func (r *ListingRepo) Update(ctx context.Context, id, ownerID string, p model.ListingPatch) error {
	if err := r.checkOwner(ctx, id, ownerID); err != nil {
		return err
	}
	if p.Empty() {
		return nil
	}
	var (
		set  []string
		args []any
	)
	if p.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Price != nil {
		set = append(set, "price = ?")
		args = append(args, *p.Price)
	}
	args = append(args, id, ownerID)
	_, err := r.db.ExecContext(ctx,
		"UPDATE listings SET "+strings.Join(set, ", ")+" WHERE id = ? AND owner_id = ?", args...)
	return err
}

// Delete removes a listing owned by ownerID.  Featured markers go with it
// through the foreign key.
func (r *ListingRepo) Delete(ctx context.Context, id, ownerID string) error {
	if err := r.checkOwner(ctx, id, ownerID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetApproved flips the moderation flag.
func (r *ListingRepo) SetApproved(ctx context.Context, id string, approved bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE listings SET approved = ? WHERE id = ?", approved, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// unchanged rows report 0 too
		var exists int
		err := r.db.QueryRowContext(ctx, "SELECT 1 FROM listings WHERE id = ?", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (r *ListingRepo) checkOwner(ctx context.Context, id, ownerID string) error {
	var owner string
	err := r.db.QueryRowContext(ctx, "SELECT owner_id FROM listings WHERE id = ?", id).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	return nil
}

func collectListings(rows *sql.Rows) ([]model.Listing, error) {
	defer rows.Close()
	out := []model.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// scanListing reads the listingSelect columns followed by any extra
// destinations.
func scanListing(row rowScanner, extra ...any) (model.Listing, error) {
	var (
		l         model.Listing
		images    []byte
		frequency sql.NullString
		condition sql.NullString
	)
	dest := []any{
		&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Price, &l.OperationType,
		&l.RegionID, &l.RegionName, &l.SubRegionID, &l.SubRegionName, &l.CategoryID, &l.CategoryName,
		&images, &l.Phone, &frequency, &condition, &l.Approved, &l.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.Listing{}, err
	}
	l.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &l.Images); err != nil {
			return model.Listing{}, fmt.Errorf("decode images of %s: %w", l.ID, err)
		}
	}
	l.PaymentFrequency = frequency.String
	l.Condition = condition.String
	return l, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
