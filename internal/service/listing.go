package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/realestate-classifieds/internal/logger"
	"github.com/iliyamo/realestate-classifieds/internal/metrics"
	"github.com/iliyamo/realestate-classifieds/internal/model"
	"github.com/iliyamo/realestate-classifieds/internal/queue"
	"github.com/iliyamo/realestate-classifieds/internal/repository"
	"github.com/iliyamo/realestate-classifieds/internal/storage"
	"github.com/iliyamo/realestate-classifieds/internal/validate"
)

// NewListing is the owner-supplied part of a listing.
type NewListing struct {
	Title            string  `json:"title" validate:"required,max=200"`
	Description      string  `json:"description" validate:"required,max=400"`
	Price            float64 `json:"price" validate:"min=0"`
	OperationType    string  `json:"operation_type" validate:"required,oneof=sale rental"`
	RegionID         uint64  `json:"region_id" validate:"required"`
	SubRegionID      uint64  `json:"subregion_id" validate:"required"`
	CategoryID       uint64  `json:"category_id" validate:"required"`
	Phone            string  `json:"phone" validate:"required,phone"`
	PaymentFrequency string  `json:"payment_frequency" validate:"required,oneof=daily weekly biweekly monthly once"`
	Condition        string  `json:"condition" validate:"required,oneof=new used repaired"`
}

// Image is one uploaded file awaiting storage.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// ListingOptions tune image handling.
type ListingOptions struct {
	MaxImages      int
	MaxUploadBytes int64
}

type ListingService struct {
	listings ListingStore
	featured FeaturedStore
	catalog  SubRegionLookup
	users    PhoneUpdater
	quotas   QuotaGate
	store    storage.Store
	events   Publisher
	metrics  *metrics.Metrics
	validate *validate.Validator
	opts     ListingOptions
	log      *slog.Logger
	now      func() time.Time
}

func NewListingService(
	listings ListingStore,
	featured FeaturedStore,
	catalog SubRegionLookup,
	users PhoneUpdater,
	quotas QuotaGate,
	store storage.Store,
	events Publisher,
	m *metrics.Metrics,
	opts ListingOptions,
	log *slog.Logger,
) *ListingService {
	if opts.MaxImages < 1 {
		opts.MaxImages = 8
	}
	return &ListingService{
		listings: listings,
		featured: featured,
		catalog:  catalog,
		users:    users,
		quotas:   quotas,
		store:    store,
		events:   events,
		metrics:  m,
		validate: validate.New(),
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

func trimListing(in NewListing) NewListing {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Phone = strings.TrimSpace(in.Phone)
	in.OperationType = strings.ToLower(strings.TrimSpace(in.OperationType))
	in.PaymentFrequency = strings.ToLower(strings.TrimSpace(in.PaymentFrequency))
	in.Condition = strings.ToLower(strings.TrimSpace(in.Condition))
	return in
}

// Create validates the input, checks the quota, records the contact phone on
// the profile, uploads the images in order and stores the listing pending
// approval.  Images beyond MaxImages are ignored.  If any upload fails no
// row is written and the images already stored are removed.
func (s *ListingService) Create(ctx context.Context, userID string, in NewListing, images []Image) (model.Listing, error) {
	in = trimListing(in)
	if err := s.validate.Validate(in); err != nil {
		return model.Listing{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if len(images) > s.opts.MaxImages {
		s.log.Debug("extra images ignored",
			slog.String("user_id", userID), slog.Int("received", len(images)), slog.Int("max", s.opts.MaxImages))
		images = images[:s.opts.MaxImages]
	}
	for _, img := range images {
		if s.opts.MaxUploadBytes > 0 && img.Size > s.opts.MaxUploadBytes {
			return model.Listing{}, fmt.Errorf("%w: %w", ErrValidation,
				validate.Field("images", fmt.Sprintf("%s exceeds %d bytes", img.Filename, s.opts.MaxUploadBytes)))
		}
		if img.ContentType != "" && !strings.HasPrefix(img.ContentType, "image/") {
			return model.Listing{}, fmt.Errorf("%w: %w", ErrValidation,
				validate.Field("images", img.Filename+" is not an image"))
		}
	}

	if err := s.checkSubRegion(ctx, in.RegionID, in.SubRegionID); err != nil {
		return model.Listing{}, err
	}

	if st, ok := s.quotas.AllowCreate(ctx, userID); !ok {
		s.metrics.QuotaDenied.WithLabelValues("create").Inc()
		return model.Listing{}, fmt.Errorf("%w: %d of %d", ErrQuotaExceeded, st.CurrentCount, st.Limit)
	}

	if err := s.users.UpdatePhone(ctx, userID, in.Phone); err != nil {
		return model.Listing{}, fmt.Errorf("update profile phone: %w", err)
	}

	urls, keys, err := s.upload(ctx, userID, images)
	if err != nil {
		return model.Listing{}, err
	}

	l := model.Listing{
		ID:               uuid.NewString(),
		OwnerID:          userID,
		Title:            in.Title,
		Description:      in.Description,
		Price:            in.Price,
		OperationType:    in.OperationType,
		RegionID:         in.RegionID,
		SubRegionID:      in.SubRegionID,
		CategoryID:       in.CategoryID,
		Images:           urls,
		Phone:            in.Phone,
		PaymentFrequency: in.PaymentFrequency,
		Condition:        in.Condition,
	}
	if err := s.listings.Insert(ctx, &l); err != nil {
		s.removeObjects(ctx, keys)
		if errors.Is(err, repository.ErrNotFound) {
			return model.Listing{}, fmt.Errorf("%w: %w", ErrValidation,
				validate.Field("region_id", "unknown region, sub-region or category"))
		}
		return model.Listing{}, fmt.Errorf("insert listing: %w", err)
	}

	s.metrics.ListingsTotal.WithLabelValues("created").Inc()
	s.publish(ctx, queue.Event{Type: queue.ListingCreated, ListingID: l.ID, OwnerID: userID, ActorID: userID, Title: l.Title})
	return l, nil
}

// checkSubRegion rejects a sub-region that is unknown or belongs to another
// region.
func (s *ListingService) checkSubRegion(ctx context.Context, regionID, subRegionID uint64) error {
	sr, err := s.catalog.SubRegion(ctx, subRegionID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrValidation, validate.Field("subregion_id", "unknown sub-region"))
	}
	if err != nil {
		return fmt.Errorf("load sub-region: %w", err)
	}
	if sr.RegionID != regionID {
		return fmt.Errorf("%w: %w", ErrValidation, validate.Field("subregion_id", "does not belong to the selected region"))
	}
	return nil
}

func (s *ListingService) upload(ctx context.Context, userID string, images []Image) (urls, keys []string, err error) {
	urls = make([]string, 0, len(images))
	keys = make([]string, 0, len(images))
	for i, img := range images {
		url, key, err := s.uploadOne(ctx, userID, img)
		if err != nil {
			s.log.Error("image upload failed",
				slog.String("user_id", userID), slog.Int("index", i), logger.Err(err))
			s.removeObjects(ctx, keys)
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrUpload, img.Filename, err)
		}
		urls = append(urls, url)
		keys = append(keys, key)
		s.metrics.ImagesUploaded.Inc()
	}
	return urls, keys, nil
}

func (s *ListingService) uploadOne(ctx context.Context, userID string, img Image) (string, string, error) {
	key, err := storage.ObjectKey(userID, img.Filename, s.now())
	if err != nil {
		return "", "", err
	}
	f, err := img.Open()
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	url, err := s.store.Upload(ctx, key, f, img.ContentType)
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}

func (s *ListingService) removeObjects(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := s.store.Remove(context.WithoutCancel(ctx), keys); err != nil {
		s.metrics.ImageCleanup.WithLabelValues("failed").Add(float64(len(keys)))
		s.log.Error("image cleanup failed", slog.Any("keys", keys), logger.Err(err))
		return
	}
	s.metrics.ImageCleanup.WithLabelValues("ok").Add(float64(len(keys)))
}

// ListingUpdate is a partial update; nil fields stay unchanged.
type ListingUpdate struct {
	Title       *string  `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string  `json:"description" validate:"omitnil,min=1,max=400"`
	Price       *float64 `json:"price" validate:"omitnil,min=0"`
}

// Update changes title, description or price of a listing the user owns.
// It requires a quota in force.
func (s *ListingService) Update(ctx context.Context, userID, id string, in ListingUpdate) error {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = &d
	}
	if err := s.validate.Validate(in); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if _, ok := s.quotas.AllowMutate(ctx, userID); !ok {
		s.metrics.QuotaDenied.WithLabelValues("mutate").Inc()
		return ErrQuotaExpired
	}
	return s.listings.Update(ctx, id, userID, model.ListingPatch{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
	})
}

// Delete removes a listing the user owns together with the images stored
// in the managed bucket.  Image removal problems are logged and never stop
// the row from being deleted.
func (s *ListingService) Delete(ctx context.Context, userID, id string) error {
	if _, ok := s.quotas.AllowMutate(ctx, userID); !ok {
		s.metrics.QuotaDenied.WithLabelValues("mutate").Inc()
		return ErrQuotaExpired
	}
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l.OwnerID != userID {
		return repository.ErrForbidden
	}

	var keys []string
	for _, u := range l.Images {
		if key, ok := s.store.KeyFromURL(u); ok {
			keys = append(keys, key)
		} else {
			s.metrics.ImageCleanup.WithLabelValues("skipped").Inc()
		}
	}
	s.removeObjects(ctx, keys)

	if err := s.listings.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.metrics.ListingsTotal.WithLabelValues("deleted").Inc()
	s.publish(ctx, queue.Event{Type: queue.ListingDeleted, ListingID: id, OwnerID: userID, ActorID: userID, Title: l.Title})
	return nil
}

// Get returns an approved listing.
func (s *ListingService) Get(ctx context.Context, id string) (model.Listing, error) {
	return s.listings.GetApproved(ctx, id)
}

// ListApproved is the public browse query.
func (s *ListingService) ListApproved(ctx context.Context, q repository.ListingSearchQuery) ([]model.Listing, int64, error) {
	return s.listings.ListApproved(ctx, q)
}

// ListOwned returns every listing of the user, newest first.
func (s *ListingService) ListOwned(ctx context.Context, userID string) ([]model.Listing, error) {
	return s.listings.ListByOwner(ctx, userID)
}

// ListAll returns every listing for moderation.
func (s *ListingService) ListAll(ctx context.Context) ([]model.Listing, error) {
	return s.listings.ListAll(ctx)
}

// SetApproved is the admin moderation switch.
func (s *ListingService) SetApproved(ctx context.Context, actorID, id string, approved bool) error {
	if err := s.listings.SetApproved(ctx, id, approved); err != nil {
		return err
	}
	ev := queue.ListingUnapproved
	if approved {
		ev = queue.ListingApproved
	}
	s.metrics.ListingsTotal.WithLabelValues(strings.TrimPrefix(ev, "listing.")).Inc()
	s.publish(ctx, queue.Event{Type: ev, ListingID: id, ActorID: actorID})
	return nil
}

// SetFeatured adds or removes the featured marker of a listing.
func (s *ListingService) SetFeatured(ctx context.Context, actorID, id string, featured bool) error {
	if err := s.featured.SetFeatured(ctx, id, featured); err != nil {
		return err
	}
	ev := queue.ListingUnfeatured
	if featured {
		ev = queue.ListingFeatured
	}
	s.metrics.ListingsTotal.WithLabelValues(strings.TrimPrefix(ev, "listing.")).Inc()
	s.publish(ctx, queue.Event{Type: ev, ListingID: id, ActorID: actorID})
	return nil
}

func (s *ListingService) publish(ctx context.Context, ev queue.Event) {
	publish(ctx, s.events, s.log, ev)
}

// publish is best effort: a broker problem never fails the request.
func publish(ctx context.Context, p Publisher, log *slog.Logger, ev queue.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn("publish event failed", slog.String("type", ev.Type), logger.Err(err))
	}
}
