package services

import (
	"context"
	"time"

	"github.com/RehanEggSupplierdev/batchboard/internal/format"
	"github.com/RehanEggSupplierdev/batchboard/internal/models"
)

const recentPagesLimit = 5

type DashboardService struct {
	profiles *ProfileService
	pages    PageStore
	media    MediaStore
	views    *ViewService
	now      func() time.Time
}

func NewDashboardService(profiles *ProfileService, pages PageStore, media MediaStore, views *ViewService) *DashboardService {
	return &DashboardService{
		profiles: profiles,
		pages:    pages,
		media:    media,
		views:    views,
		now:      time.Now,
	}
}

func (s *DashboardService) Get(ctx context.Context, userID string) (*models.Dashboard, error) {
	profile, err := s.profiles.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}

	pages, err := s.pages.ListPagesByUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	mediaCount, err := s.media.CountMediaByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views, err := s.views.Count(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	stats := models.DashboardStats{
		TotalPages:   len(pages),
		TotalMedia:   mediaCount,
		ProfileViews: views,
	}
	now := s.now()
	recent := make([]models.RecentPage, 0, recentPagesLimit)
	for i, p := range pages {
		if p.Published {
			stats.PublishedPages++
		}
		if i < recentPagesLimit {
			recent = append(recent, models.RecentPage{
				ID:        p.ID,
				Title:     p.Title,
				Published: p.Published,
				UpdatedAt: p.UpdatedAt,
				Updated:   format.RelativeTime(p.UpdatedAt, now),
			})
		}
	}

	completeness := Completeness(profile)
	return &models.Dashboard{
		Profile:      profile,
		Stats:        stats,
		RecentPages:  recent,
		Completeness: completeness,
		Complete:     completeness.Complete(),
	}, nil
}

// Completeness scores the dashboard checklist. Basic info exists once sign-up succeeded.
func Completeness(p *models.Profile) models.ProfileCompleteness {
	return models.ProfileCompleteness{
		BasicInfo:  true,
		ProfilePic: p.ProfilePic != nil && *p.ProfilePic != "",
		Bio:        p.Bio != nil && *p.Bio != "",
		Skills:     len(p.Skills) > 0,
	}
}
