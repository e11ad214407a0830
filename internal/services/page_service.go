package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/format"
	"github.com/RehanEggSupplierdev/batchboard/internal/markdown"
	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
)

type PageService struct {
	pages    PageStore
	comments *CommentService
	profiles *ProfileService
	now      func() time.Time
}

func NewPageService(pages PageStore, comments *CommentService, profiles *ProfileService) *PageService {
	return &PageService{
		pages:    pages,
		comments: comments,
		profiles: profiles,
		now:      time.Now,
	}
}

// ListMine returns the owner's pages filtered by search text and status.
func (s *PageService) ListMine(ctx context.Context, userID string, q models.PagesQuery) (*models.PageListResponse, error) {
	all, err := s.pages.ListPagesByUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	now := s.now()
	items := make([]models.PageListItem, 0, len(all))
	for _, p := range all {
		if !matchesStatus(p, q.Status) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Content), search) {
			continue
		}
		items = append(items, models.PageListItem{
			Page:        p,
			Preview:     format.ContentPreview(p.Content),
			UpdatedText: format.RelativeTime(p.UpdatedAt, now),
		})
	}

	return &models.PageListResponse{Pages: items, Total: len(all), Showing: len(items)}, nil
}

func matchesStatus(p *models.Page, status models.PageStatus) bool {
	switch status {
	case models.PageStatusPublished:
		return p.Published
	case models.PageStatusDraft:
		return !p.Published
	default:
		return true
	}
}

func (s *PageService) Create(ctx context.Context, userID string, req *models.PageRequest) (*models.Page, error) {
	now := s.now().UTC()
	p := &models.Page{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.pages.CreatePage(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetMine hides other users' pages behind ErrPageNotFound.
func (s *PageService) GetMine(ctx context.Context, userID, pageID string) (*models.Page, error) {
	p, err := s.load(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrPageNotFound
	}
	return p, nil
}

func (s *PageService) Update(ctx context.Context, userID, pageID string, req *models.PageRequest) (*models.Page, error) {
	p, err := s.owned(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	p.Title = req.Title
	p.Content = req.Content
	p.Published = req.Published
	p.UpdatedAt = s.now().UTC()

	if err := s.pages.UpdatePage(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PageService) SetPublished(ctx context.Context, userID, pageID string, published bool) (*models.Page, error) {
	p, err := s.owned(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	p.Published = published
	p.UpdatedAt = s.now().UTC()

	if err := s.pages.UpdatePage(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the page and the comments attached to it.
func (s *PageService) Delete(ctx context.Context, userID, pageID string) error {
	if _, err := s.owned(ctx, userID, pageID); err != nil {
		return err
	}
	if err := s.pages.DeletePage(ctx, pageID); err != nil {
		return err
	}
	n, err := s.comments.DeleteForTarget(ctx, models.TargetPage, pageID)
	if err != nil {
		observability.GetLogger(ctx).Error("delete page comments failed", zap.String("page_id", pageID), zap.Error(err))
		return err
	}
	observability.GetLogger(ctx).Debug("page deleted", zap.String("page_id", pageID), zap.Int64("comments_removed", n))
	return nil
}

// ViewPublished returns a published page of a public student, rendered.
func (s *PageService) ViewPublished(ctx context.Context, studentID, pageID string) (*models.PublishedPageResponse, error) {
	author, err := s.profiles.PublicProfile(ctx, studentID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}

	p, err := s.load(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if p.UserID != author.UserID || !p.Published {
		return nil, ErrPageNotFound
	}

	html, err := markdown.Render(p.Content)
	if err != nil {
		return nil, err
	}
	return &models.PublishedPageResponse{
		Page:        p,
		Author:      author.Summary(),
		HTML:        html,
		UpdatedText: format.FormatDateTime(p.UpdatedAt),
	}, nil
}

func (s *PageService) Preview(content string) (string, error) {
	return markdown.Render(content)
}

// Exists reports whether pageID names a page, for comment target checks.
func (s *PageService) Exists(ctx context.Context, pageID string) (bool, error) {
	_, err := s.pages.GetPage(ctx, pageID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *PageService) load(ctx context.Context, pageID string) (*models.Page, error) {
	p, err := s.pages.GetPage(ctx, pageID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrPageNotFound
	}
	return p, err
}

func (s *PageService) owned(ctx context.Context, userID, pageID string) (*models.Page, error) {
	p, err := s.load(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}
	return p, nil
}
