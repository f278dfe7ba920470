package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/realestate-classifieds/internal/logger"
	"github.com/iliyamo/realestate-classifieds/internal/model"
	"github.com/iliyamo/realestate-classifieds/internal/queue"
	"github.com/iliyamo/realestate-classifieds/internal/session"
	"github.com/iliyamo/realestate-classifieds/internal/validate"
)

// AdminService covers user management: the users table, quota assignment
// and role assignment.
type AdminService struct {
	users        UserDirectory
	quotas       QuotaWriter
	roles        RoleWriter
	sessions     Notifier
	events       Publisher
	defaultLimit int
	log          *slog.Logger
	now          func() time.Time
}

func NewAdminService(users UserDirectory, quotas QuotaWriter, roles RoleWriter, sessions Notifier, events Publisher, defaultLimit int, log *slog.Logger) *AdminService {
	return &AdminService{
		users:        users,
		quotas:       quotas,
		roles:        roles,
		sessions:     sessions,
		events:       events,
		defaultLimit: defaultLimit,
		log:          log,
		now:          time.Now,
	}
}

func (s *AdminService) Users(ctx context.Context) ([]model.UserOverview, error) {
	return s.users.ListOverview(ctx, s.defaultLimit)
}

// SetQuota replaces the user's quota.  A nil validUntil means one month from
// now.
func (s *AdminService) SetQuota(ctx context.Context, actorID, userID string, limit int, validUntil *time.Time) (model.Quota, error) {
	if limit < 1 {
		return model.Quota{}, fmt.Errorf("%w: %w", ErrValidation, validate.Field("limit", "must be at least 1"))
	}
	if validUntil == nil {
		v := s.now().UTC().AddDate(0, 1, 0)
		validUntil = &v
	}
	if err := s.quotas.Replace(ctx, userID, limit, validUntil); err != nil {
		return model.Quota{}, err
	}
	publish(ctx, s.events, s.log, queue.Event{
		Type: queue.QuotaAssigned, OwnerID: userID, ActorID: actorID, Limit: limit, ValidUntil: validUntil,
	})
	return model.Quota{UserID: userID, Limit: limit, ValidUntil: validUntil}, nil
}

// SetRole assigns a role and tells the user's live sessions to re-resolve.
func (s *AdminService) SetRole(ctx context.Context, userID, role string) error {
	if !model.ValidRole(role) {
		return fmt.Errorf("%w: %w", ErrValidation, validate.Field("role", "must be admin or regular"))
	}
	if err := s.roles.SetRole(ctx, userID, role); err != nil {
		return err
	}
	if err := s.sessions.Notify(context.WithoutCancel(ctx), userID, session.EventRoleChanged); err != nil {
		s.log.Warn("notify role change failed", slog.String("user_id", userID), logger.Err(err))
	}
	return nil
}
