package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
)

// ProfileCache fronts public profile lookups by student id. Failures are
// logged and treated as misses.
type ProfileCache interface {
	Get(ctx context.Context, studentID string) (*models.Profile, bool)
	Set(ctx context.Context, p *models.Profile)
	Delete(ctx context.Context, p *models.Profile)
}

type NopProfileCache struct{}

func (NopProfileCache) Get(context.Context, string) (*models.Profile, bool) { return nil, false }
func (NopProfileCache) Set(context.Context, *models.Profile)                {}
func (NopProfileCache) Delete(context.Context, *models.Profile)             {}

const profileCacheTTL = time.Hour

type RedisProfileCache struct {
	R *redis.Client
}

func profileKey(studentID string) string { return "profile:" + studentID }

func (c *RedisProfileCache) Get(ctx context.Context, studentID string) (*models.Profile, bool) {
	b, err := c.R.Get(ctx, profileKey(studentID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			observability.GetLogger(ctx).Warn("profile cache get failed", zap.String("student_id", studentID), zap.Error(err))
		}
		return nil, false
	}
	var p models.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *RedisProfileCache) Set(ctx context.Context, p *models.Profile) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.R.Set(ctx, profileKey(p.StudentID), b, profileCacheTTL).Err(); err != nil {
		observability.GetLogger(ctx).Warn("profile cache set failed", zap.String("student_id", p.StudentID), zap.Error(err))
	}
}

func (c *RedisProfileCache) Delete(ctx context.Context, p *models.Profile) {
	if err := c.R.Del(ctx, profileKey(p.StudentID)).Err(); err != nil {
		observability.GetLogger(ctx).Warn("profile cache delete failed", zap.String("student_id", p.StudentID), zap.Error(err))
	}
}
