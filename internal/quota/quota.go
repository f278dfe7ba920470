// Package quota decides whether a user may publish a new listing and whether
// they may edit or delete the ones they own.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/realestate-classifieds/internal/logger"
	"github.com/iliyamo/realestate-classifieds/internal/model"
)

// Policy holds the defaults applied when a user has no quota in force.
type Policy struct {
	DefaultLimit int
	// ImplicitCanMutate lets users without any quota row edit and delete.
	ImplicitCanMutate bool
}

// Status is the outcome of evaluating a user's quota.
type Status struct {
	Limit        int        `json:"limit"`
	ValidUntil   *time.Time `json:"valid_until"`
	HasQuota     bool       `json:"has_quota"`
	InForce      bool       `json:"in_force"`
	CurrentCount int        `json:"current_count"`
	CanCreate    bool       `json:"can_create"`
	CanMutate    bool       `json:"can_mutate"`
}

// Compute evaluates the creation and mutation predicates independently.
// An expired row falls back to the default limit for creation but still
// denies mutation.
func Compute(row *model.Quota, count int, now time.Time, p Policy) Status {
	def := p.DefaultLimit
	if def < 1 {
		def = 1
	}
	st := Status{Limit: def, CurrentCount: count}
	if row != nil {
		st.HasQuota = true
		st.ValidUntil = row.ValidUntil
		st.InForce = row.ValidUntil == nil || row.ValidUntil.After(now)
		if st.InForce {
			st.Limit = row.Limit
		}
	}
	st.CanCreate = st.CurrentCount < st.Limit
	st.CanMutate = st.InForce || (row == nil && p.ImplicitCanMutate)
	return st
}

// QuotaReader returns the user's quota row, or nil when there is none.
type QuotaReader interface {
	GetQuota(ctx context.Context, userID string) (*model.Quota, error)
}

// ListingCounter counts every listing a user owns regardless of approval.
type ListingCounter interface {
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

type Evaluator struct {
	quotas   QuotaReader
	listings ListingCounter
	policy   Policy
	now      func() time.Time
	log      *slog.Logger
}

func NewEvaluator(q QuotaReader, l ListingCounter, p Policy, log *slog.Logger) *Evaluator {
	return &Evaluator{quotas: q, listings: l, policy: p, now: time.Now, log: log}
}

// WithClock replaces the time source; used by tests.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

func (e *Evaluator) Evaluate(ctx context.Context, userID string) (Status, error) {
	row, err := e.quotas.GetQuota(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("load quota: %w", err)
	}
	count, err := e.listings.CountByOwner(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("count listings: %w", err)
	}
	return Compute(row, count, e.now(), e.policy), nil
}

// Report is Evaluate for display.  When the quota cannot be read it returns
// the fail-safe view: creation allowed under the default limit, edits and
// deletes denied.
func (e *Evaluator) Report(ctx context.Context, userID string) Status {
	st, err := e.Evaluate(ctx, userID)
	if err != nil {
		e.log.Warn("quota unavailable, reporting defaults",
			slog.String("user_id", userID), logger.Err(err))
		return e.fallback()
	}
	return st
}

func (e *Evaluator) fallback() Status {
	def := e.policy.DefaultLimit
	if def < 1 {
		def = 1
	}
	return Status{Limit: def, CanCreate: true}
}

// AllowCreate fails open: if the quota cannot be evaluated the user may
// still publish.
func (e *Evaluator) AllowCreate(ctx context.Context, userID string) (Status, bool) {
	st, err := e.Evaluate(ctx, userID)
	if err != nil {
		e.log.Warn("quota unavailable, allowing create",
			slog.String("user_id", userID), logger.Err(err))
		return e.fallback(), true
	}
	return st, st.CanCreate
}

// AllowMutate fails closed.
func (e *Evaluator) AllowMutate(ctx context.Context, userID string) (Status, bool) {
	st, err := e.Evaluate(ctx, userID)
	if err != nil {
		e.log.Warn("quota unavailable, denying mutation",
			slog.String("user_id", userID), logger.Err(err))
		return Status{}, false
	}
	return st, st.CanMutate
}
