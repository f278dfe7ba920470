// Package service holds the listing, featured and admin use cases on top of
// the repositories, object storage and the event queue.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/realestate-classifieds/internal/model"
	"github.com/iliyamo/realestate-classifieds/internal/queue"
	"github.com/iliyamo/realestate-classifieds/internal/quota"
	"github.com/iliyamo/realestate-classifieds/internal/repository"
)

// ListingStore is the persistence the listing use cases need.
type ListingStore interface {
	Insert(ctx context.Context, l *model.Listing) error
	GetByID(ctx context.Context, id string) (model.Listing, error)
	GetApproved(ctx context.Context, id string) (model.Listing, error)
	ListApproved(ctx context.Context, q repository.ListingSearchQuery) ([]model.Listing, int64, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Listing, error)
	ListAll(ctx context.Context) ([]model.Listing, error)
	ListApprovedByIDs(ctx context.Context, ids []string) ([]model.Listing, error)
	Update(ctx context.Context, id, ownerID string, p model.ListingPatch) error
	Delete(ctx context.Context, id, ownerID string) error
	SetApproved(ctx context.Context, id string, approved bool) error
}

type FeaturedStore interface {
	ActiveMarkers(ctx context.Context) ([]model.FeaturedMarker, error)
	SetFeatured(ctx context.Context, listingID string, featured bool) error
}

// SubRegionLookup resolves a sub-region to the region it belongs to.
type SubRegionLookup interface {
	SubRegion(ctx context.Context, id uint64) (model.SubRegion, error)
}

type PhoneUpdater interface {
	UpdatePhone(ctx context.Context, userID, phone string) error
}

// QuotaGate is implemented by quota.Evaluator.
type QuotaGate interface {
	AllowCreate(ctx context.Context, userID string) (quota.Status, bool)
	AllowMutate(ctx context.Context, userID string) (quota.Status, bool)
}

type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

type UserDirectory interface {
	ListOverview(ctx context.Context, defaultLimit int) ([]model.UserOverview, error)
}

type QuotaWriter interface {
	Replace(ctx context.Context, userID string, limit int, validUntil *time.Time) error
}

type RoleWriter interface {
	SetRole(ctx context.Context, userID, role string) error
}

// Notifier tells live sessions of a user that something changed.
type Notifier interface {
	Notify(ctx context.Context, userID, event string) error
}
