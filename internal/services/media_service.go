package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
)

// Upload is a file received from a client, already read into memory.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
	Purpose     models.UploadPurpose
}

type MediaService struct {
	media     MediaStore
	blobs     BlobStore
	moderator ImageModerator
	profiles  *ProfileService
	maxSize   int64
	now       func() time.Time
}

// NewMediaService takes an optional moderator; nil skips image checks.
func NewMediaService(media MediaStore, blobs BlobStore, moderator ImageModerator, profiles *ProfileService, maxSize int64) *MediaService {
	return &MediaService{
		media:     media,
		blobs:     blobs,
		moderator: moderator,
		profiles:  profiles,
		maxSize:   maxSize,
		now:       time.Now,
	}
}

func (s *MediaService) Upload(ctx context.Context, userID string, up *Upload) (*models.Media, error) {
	size := int64(len(up.Data))
	if size == 0 {
		return nil, ErrUnsupportedMedia
	}
	if s.maxSize > 0 && size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	fileType := models.ClassifyMIME(up.ContentType)
	if up.Purpose == models.PurposeAvatar {
		if fileType != models.FileTypeImage {
			return nil, ErrUnsupportedMedia
		}
		if size > models.MaxAvatarSize {
			return nil, ErrFileTooLarge
		}
	}

	if fileType == models.FileTypeImage && s.moderator != nil {
		if err := s.moderator.Moderate(ctx, up.Data); err != nil {
			if errors.Is(err, ErrImageRejected) {
				observability.GetLogger(ctx).Info("upload rejected by moderation", zap.String("user_id", userID), zap.String("file_name", up.FileName))
			}
			return nil, err
		}
	}

	now := s.now().UTC()
	key := ObjectKey(userID, up.FileName, up.ContentType, now)
	url, err := s.blobs.Put(ctx, key, up.ContentType, up.Data)
	if err != nil {
		return nil, err
	}

	m := &models.Media{
		ID:         uuid.NewString(),
		UserID:     userID,
		FileURL:    url,
		FileName:   up.FileName,
		FileType:   fileType,
		FileSize:   size,
		ObjectKey:  key,
		UploadedAt: now,
	}
	if err := s.media.CreateMedia(ctx, m); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			observability.GetLogger(ctx).Warn("orphaned blob", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	return m, nil
}

func (s *MediaService) ListMine(ctx context.Context, userID string) ([]*models.Media, error) {
	return s.media.ListMediaByUser(ctx, userID)
}

func (s *MediaService) CountMine(ctx context.Context, userID string) (int64, error) {
	return s.media.CountMediaByUser(ctx, userID)
}

// Delete removes the row and the blob. A profile picture pointing at the file is cleared.
func (s *MediaService) Delete(ctx context.Context, userID, mediaID string) error {
	m, err := s.media.GetMedia(ctx, mediaID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrMediaNotFound
		}
		return err
	}
	if m.UserID != userID {
		return ErrForbidden
	}

	if err := s.blobs.Delete(ctx, m.ObjectKey); err != nil {
		return err
	}
	if err := s.media.DeleteMedia(ctx, mediaID); err != nil {
		return err
	}
	if s.profiles != nil {
		if err := s.profiles.ClearProfilePic(ctx, userID, m.FileURL); err != nil {
			observability.GetLogger(ctx).Warn("clear profile picture failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

// ObjectKey builds "<user>/<unix-millis>.<ext>". The extension comes from the
// file name, falling back to the content type.
func ObjectKey(userID, fileName, contentType string, at time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = strings.TrimPrefix(exts[0], ".")
		}
	}
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d.%s", userID, at.UnixMilli(), ext)
}
