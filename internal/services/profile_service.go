package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
	"github.com/RehanEggSupplierdev/batchboard/internal/realtime"
)

const featuredLimit = 3

// EventPublisher is the publishing half of realtime.Broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type ProfileService struct {
	profiles ProfileStore
	pages    PageStore
	views    *ViewService
	cache    ProfileCache
	events   EventPublisher
}

func NewProfileService(profiles ProfileStore, pages PageStore, views *ViewService, cache ProfileCache, events EventPublisher) *ProfileService {
	if cache == nil {
		cache = NopProfileCache{}
	}
	return &ProfileService{
		profiles: profiles,
		pages:    pages,
		views:    views,
		cache:    cache,
		events:   events,
	}
}

func (s *ProfileService) GetMine(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.profiles.GetProfileByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

func (s *ProfileService) UpdateMine(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Profile, error) {
	p, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := *p

	if req.FullName != nil {
		p.FullName = *req.FullName
	}
	if req.Bio != nil {
		p.Bio = nilIfEmpty(*req.Bio)
	}
	if req.Quote != nil {
		p.Quote = nilIfEmpty(*req.Quote)
	}
	if req.Skills != nil {
		p.Skills = *req.Skills
	}
	if req.SocialLinks != nil {
		p.SocialLinks = *req.SocialLinks
	}
	if req.ProfilePic != nil {
		p.ProfilePic = nilIfEmpty(*req.ProfilePic)
	}
	if req.Public != nil {
		p.Public = *req.Public
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.profiles.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, &before)
	s.publish(ctx, p)
	return p, nil
}

// ClearProfilePic unsets the owner's picture when it still points at url.
func (s *ProfileService) ClearProfilePic(ctx context.Context, userID, url string) error {
	p, err := s.GetMine(ctx, userID)
	if err != nil {
		return err
	}
	if p.ProfilePic == nil || *p.ProfilePic != url {
		return nil
	}
	p.ProfilePic = nil
	p.UpdatedAt = time.Now().UTC()
	if err := s.profiles.UpdateProfile(ctx, p); err != nil {
		return err
	}
	s.cache.Delete(ctx, p)
	s.publish(ctx, p)
	return nil
}

func (s *ProfileService) ListStudents(ctx context.Context, q models.StudentsQuery) (*models.StudentsResponse, error) {
	all, err := s.profiles.ListPublicProfiles(ctx, 0)
	if err != nil {
		return nil, err
	}
	filtered := FilterStudents(all, q)
	return &models.StudentsResponse{
		Students: filtered,
		Skills:   CollectSkills(all),
		Total:    len(all),
		Showing:  len(filtered),
	}, nil
}

func (s *ProfileService) Featured(ctx context.Context) (*models.FeaturedResponse, error) {
	students, err := s.profiles.ListPublicProfiles(ctx, featuredLimit)
	if err != nil {
		return nil, err
	}
	total, err := s.profiles.CountPublicProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return &models.FeaturedResponse{Students: students, Total: total}, nil
}

// PublicProfile resolves a student id to a public profile, going through the cache.
func (s *ProfileService) PublicProfile(ctx context.Context, studentID string) (*models.Profile, error) {
	if p, ok := s.cache.Get(ctx, studentID); ok {
		return p, nil
	}
	p, err := s.profiles.GetProfileByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if !p.Public {
		return nil, ErrProfileNotFound
	}
	s.cache.Set(ctx, p)
	return p, nil
}

// GetStudent loads the public profile page and records the visit.
func (s *ProfileService) GetStudent(ctx context.Context, studentID, visitorID string) (*models.StudentPageResponse, error) {
	p, err := s.PublicProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if s.views != nil {
		if err := s.views.Track(ctx, p.ID, visitorID); err != nil {
			observability.GetLogger(ctx).Warn("track profile view failed", zap.String("profile_id", p.ID), zap.Error(err))
		}
	}

	pages, err := s.pages.ListPagesByUser(ctx, p.UserID, true)
	if err != nil {
		return nil, err
	}

	var viewCount int64
	if s.views != nil {
		if viewCount, err = s.views.Count(ctx, p.ID); err != nil {
			return nil, err
		}
	}

	return &models.StudentPageResponse{
		Profile:   p,
		Initials:  p.Summary().Initials,
		Pages:     pages,
		ViewCount: viewCount,
	}, nil
}

func (s *ProfileService) publish(ctx context.Context, p *models.Profile) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(models.ProfileEvent{Type: models.ChangeUpdate, Profile: p, OccurredAt: p.UpdatedAt})
	if err != nil {
		return
	}
	if err := s.events.Publish(ctx, realtime.ProfileTopic(p.ID), payload); err != nil {
		observability.GetLogger(ctx).Warn("publish profile update failed", zap.String("profile_id", p.ID), zap.Error(err))
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
