package services

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
)

// ImageModerator returns ErrImageRejected for images that must not be stored.
type ImageModerator interface {
	Moderate(ctx context.Context, data []byte) error
}

type SafeSearchResult struct {
	Adult    string
	Violence string
	Racy     string
}

func isLikelyOrHigher(l string) bool {
	return l == "LIKELY" || l == "VERY_LIKELY"
}

func (r *SafeSearchResult) IsUnsafe() bool {
	return isLikelyOrHigher(r.Adult) || isLikelyOrHigher(r.Violence) || isLikelyOrHigher(r.Racy)
}

// SafeSearchModerator runs Vision SAFE_SEARCH_DETECTION on the uploaded bytes.
type SafeSearchModerator struct {
	svc *vision.Service
}

// NewSafeSearchModerator uses Application Default Credentials unless opts say otherwise.
func NewSafeSearchModerator(ctx context.Context, opts ...option.ClientOption) (*SafeSearchModerator, error) {
	opts = append(opts, option.WithScopes(vision.CloudPlatformScope))
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("moderation: vision client: %w", err)
	}
	return &SafeSearchModerator{svc: svc}, nil
}

func (m *SafeSearchModerator) Detect(ctx context.Context, data []byte) (*SafeSearchResult, error) {
	req := &vision.AnnotateImageRequest{
		Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(data)},
		Features: []*vision.Feature{{Type: "SAFE_SEARCH_DETECTION"}},
	}
	resp, err := m.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Responses) == 0 || resp.Responses[0].SafeSearchAnnotation == nil {
		return &SafeSearchResult{}, nil
	}
	ss := resp.Responses[0].SafeSearchAnnotation
	return &SafeSearchResult{Adult: ss.Adult, Violence: ss.Violence, Racy: ss.Racy}, nil
}

func (m *SafeSearchModerator) Moderate(ctx context.Context, data []byte) error {
	ss, err := m.Detect(ctx, data)
	if err != nil {
		return fmt.Errorf("moderation: safesearch: %w", err)
	}
	observability.GetLogger(ctx).Info("safesearch result",
		zap.String("adult", ss.Adult), zap.String("violence", ss.Violence), zap.String("racy", ss.Racy))
	if ss.IsUnsafe() {
		return ErrImageRejected
	}
	return nil
}
