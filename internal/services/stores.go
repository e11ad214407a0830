package services

import (
	"context"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
)

// Store implementations return ErrNotFound for missing rows and ErrEmailTaken /
// ErrStudentIDTaken for unique-key violations.

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type ProfileStore interface {
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetProfileByStudentID(ctx context.Context, studentID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error
	DeleteProfile(ctx context.Context, id string) error
	// ListPublicProfiles orders by full_name; limit <= 0 returns every row.
	ListPublicProfiles(ctx context.Context, limit int) ([]*models.Profile, error)
	CountPublicProfiles(ctx context.Context) (int64, error)
}

type PageStore interface {
	CreatePage(ctx context.Context, p *models.Page) error
	GetPage(ctx context.Context, id string) (*models.Page, error)
	UpdatePage(ctx context.Context, p *models.Page) error
	DeletePage(ctx context.Context, id string) error
	// ListPagesByUser orders by updated_at, newest first.
	ListPagesByUser(ctx context.Context, userID string, publishedOnly bool) ([]*models.Page, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id string) error
	// ListComments orders by created_at, oldest first.
	ListComments(ctx context.Context, targetType models.TargetType, targetID string) ([]*models.Comment, error)
	DeleteCommentsForTarget(ctx context.Context, targetType models.TargetType, targetID string) (int64, error)
	ListCommentsByUser(ctx context.Context, userID string) ([]*models.Comment, error)
}

type MediaStore interface {
	CreateMedia(ctx context.Context, m *models.Media) error
	GetMedia(ctx context.Context, id string) (*models.Media, error)
	DeleteMedia(ctx context.Context, id string) error
	// ListMediaByUser orders by uploaded_at, newest first.
	ListMediaByUser(ctx context.Context, userID string) ([]*models.Media, error)
	CountMediaByUser(ctx context.Context, userID string) (int64, error)
}

type ViewStore interface {
	AddView(ctx context.Context, v *models.ProfileView) error
	CountViews(ctx context.Context, profileID string) (int64, error)
	DeleteViewsForProfile(ctx context.Context, profileID string) (int64, error)
}

// Store is the full persistence surface the API needs.
type Store interface {
	UserStore
	ProfileStore
	PageStore
	CommentStore
	MediaStore
	ViewStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
