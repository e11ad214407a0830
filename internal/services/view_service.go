package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
)

// ViewEventPublisher is satisfied by events.Producer.
type ViewEventPublisher interface {
	PublishProfileViewed(ctx context.Context, ev models.ProfileViewedEvent) error
}

// ViewService records profile visits. With a publisher the write is handed to
// the view worker; without one, or when publishing fails, the row is written inline.
type ViewService struct {
	store     ViewStore
	publisher ViewEventPublisher
}

func NewViewService(store ViewStore, publisher ViewEventPublisher) *ViewService {
	return &ViewService{store: store, publisher: publisher}
}

func (s *ViewService) Track(ctx context.Context, profileID, visitorID string) error {
	ev := models.ProfileViewedEvent{
		ProfileID: profileID,
		VisitorID: visitorID,
		VisitedAt: time.Now().UTC(),
	}

	if s.publisher != nil {
		err := s.publisher.PublishProfileViewed(ctx, ev)
		if err == nil {
			observability.ProfileViewsTotal.WithLabelValues("kafka").Inc()
			return nil
		}
		observability.GetLogger(ctx).Warn("publish profile view failed, writing inline", zap.String("profile_id", profileID), zap.Error(err))
	}

	if err := s.Apply(ctx, ev); err != nil {
		return err
	}
	observability.ProfileViewsTotal.WithLabelValues("direct").Inc()
	return nil
}

// Apply appends the view row for ev.
func (s *ViewService) Apply(ctx context.Context, ev models.ProfileViewedEvent) error {
	v := &models.ProfileView{
		ID:        uuid.NewString(),
		ProfileID: ev.ProfileID,
		VisitedAt: ev.VisitedAt,
	}
	if ev.VisitorID != "" {
		visitor := ev.VisitorID
		v.VisitorID = &visitor
	}
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now().UTC()
	}
	return s.store.AddView(ctx, v)
}

func (s *ViewService) Count(ctx context.Context, profileID string) (int64, error) {
	return s.store.CountViews(ctx, profileID)
}
