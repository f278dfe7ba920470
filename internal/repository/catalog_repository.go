package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/realestate-classifieds/internal/model"
)

// CatalogRepo reads reference data: regions, sub-regions and categories.
type CatalogRepo struct{ db *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

func (r *CatalogRepo) Regions(ctx context.Context) ([]model.Region, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM regions ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Region{}
	for rows.Next() {
		var x model.Region
		if err := rows.Scan(&x.ID, &x.Name); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// SubRegions lists the sub-regions of one region ordered by name.
func (r *CatalogRepo) SubRegions(ctx context.Context, regionID uint64) ([]model.SubRegion, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, region_id, name FROM subregions WHERE region_id = ? ORDER BY name", regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SubRegion{}
	for rows.Next() {
		var x model.SubRegion
		if err := rows.Scan(&x.ID, &x.RegionID, &x.Name); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// SubRegion returns one sub-region with its region, or ErrNotFound.
func (r *CatalogRepo) SubRegion(ctx context.Context, id uint64) (model.SubRegion, error) {
	var x model.SubRegion
	err := r.db.QueryRowContext(ctx,
		"SELECT id, region_id, name FROM subregions WHERE id = ? LIMIT 1", id).Scan(&x.ID, &x.RegionID, &x.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SubRegion{}, ErrNotFound
	}
	return x, err
}

func (r *CatalogRepo) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Category{}
	for rows.Next() {
		var x model.Category
		if err := rows.Scan(&x.ID, &x.Name); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}
