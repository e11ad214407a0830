package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
)

// AccountStore is every collection an account owns rows in.
type AccountStore interface {
	UserStore
	ProfileStore
	PageStore
	CommentStore
	MediaStore
	ViewStore
}

type AccountService struct {
	store    AccountStore
	comments *CommentService
	blobs    BlobStore
	cache    ProfileCache
}

// NewAccountService removes comments through comments so open streams see
// the deletes.
func NewAccountService(store AccountStore, comments *CommentService, blobs BlobStore, cache ProfileCache) *AccountService {
	if cache == nil {
		cache = NopProfileCache{}
	}
	return &AccountService{store: store, comments: comments, blobs: blobs, cache: cache}
}

type DeleteAccountResult struct {
	Pages    int   `json:"pages"`
	Comments int64 `json:"comments"`
	Media    int   `json:"media"`
}

// DeleteAccount removes the user and everything hanging off them: pages and
// the threads on them, their own comments elsewhere, the profile with its
// thread and view log, and uploaded files. The user row goes last so a
// failed run can be retried with the same token.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) (*DeleteAccountResult, error) {
	log := observability.GetLogger(ctx).With(zap.String("user_id", userID))
	res := &DeleteAccountResult{}

	pages, err := s.store.ListPagesByUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		n, err := s.comments.DeleteForTarget(ctx, models.TargetPage, p.ID)
		if err != nil {
			return nil, err
		}
		res.Comments += n
		if err := s.store.DeletePage(ctx, p.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		res.Pages++
	}

	n, err := s.comments.DeleteByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	res.Comments += n

	profile, err := s.store.GetProfileByUserID(ctx, userID)
	switch {
	case err == nil:
		n, err := s.comments.DeleteForTarget(ctx, models.TargetProfile, profile.ID)
		if err != nil {
			return nil, err
		}
		res.Comments += n
		if _, err := s.store.DeleteViewsForProfile(ctx, profile.ID); err != nil {
			return nil, err
		}
		if err := s.store.DeleteProfile(ctx, profile.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		s.cache.Delete(ctx, profile)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	media, err := s.store.ListMediaByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, m := range media {
		if err := s.blobs.Delete(ctx, m.ObjectKey); err != nil {
			log.Warn("delete blob failed", zap.String("object", m.ObjectKey), zap.Error(err))
		}
		if err := s.store.DeleteMedia(ctx, m.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		res.Media++
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	log.Info("account deleted",
		zap.Int("pages", res.Pages),
		zap.Int64("comments", res.Comments),
		zap.Int("media", res.Media))
	return res, nil
}
