package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/realestate-classifieds/internal/filter"
	"github.com/iliyamo/realestate-classifieds/internal/model"
)

// HomeLimit is how many featured listings the landing page shows.
const HomeLimit = 6

// FeaturedService reads the featured set: listings with an active marker
// that are also approved, in marker order.
type FeaturedService struct {
	markers  FeaturedStore
	listings ListingStore
}

func NewFeaturedService(markers FeaturedStore, listings ListingStore) *FeaturedService {
	return &FeaturedService{markers: markers, listings: listings}
}

// FetchFeatured loads active markers, then the approved listings they point
// to, and returns them in marker order.  Markers whose listing is missing or
// not approved are skipped.
func (s *FeaturedService) FetchFeatured(ctx context.Context) ([]model.Listing, error) {
	markers, err := s.markers.ActiveMarkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load featured markers: %w", err)
	}
	if len(markers) == 0 {
		return []model.Listing{}, nil
	}
	ids := make([]string, 0, len(markers))
	for _, m := range markers {
		ids = append(ids, m.ListingID)
	}
	found, err := s.listings.ListApprovedByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load featured listings: %w", err)
	}
	byID := make(map[string]model.Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}
	out := make([]model.Listing, 0, len(found))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			l.Featured = true
			out = append(out, l)
			// a listing appears once even if ids repeat
			delete(byID, id)
		}
	}
	return out, nil
}

// Featured returns the featured set narrowed by f.
func (s *FeaturedService) Featured(ctx context.Context, f filter.Filter) ([]model.Listing, error) {
	all, err := s.FetchFeatured(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(all), nil
}

// Home is the landing page view.
type Home struct {
	Items         []model.Listing `json:"items"`
	FeaturedCount int             `json:"featured_count"`
}

// Home returns the first HomeLimit featured listings matching f and the size
// of the whole featured set.
func (s *FeaturedService) Home(ctx context.Context, f filter.Filter) (Home, error) {
	all, err := s.FetchFeatured(ctx)
	if err != nil {
		return Home{}, err
	}
	items := f.Apply(all)
	if len(items) > HomeLimit {
		items = items[:HomeLimit]
	}
	return Home{Items: items, FeaturedCount: len(all)}, nil
}
