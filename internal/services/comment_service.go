package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/format"
	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
	"github.com/RehanEggSupplierdev/batchboard/internal/realtime"
)

type CommentService struct {
	comments CommentStore
	profiles ProfileStore
	pages    PageStore
	events   EventPublisher
	seq      realtime.Sequencer
	// topics serializes write, sequence and publish per thread so events
	// leave in seq order.
	topics *realtime.KeyedMutex
	now    func() time.Time
}

func NewCommentService(comments CommentStore, profiles ProfileStore, pages PageStore, events EventPublisher, seq realtime.Sequencer) *CommentService {
	if seq == nil {
		seq = realtime.NewMemorySequencer()
	}
	return &CommentService{
		comments: comments,
		profiles: profiles,
		pages:    pages,
		events:   events,
		seq:      seq,
		topics:   realtime.NewKeyedMutex(),
		now:      time.Now,
	}
}

// TargetExists reports whether a comment target is a known profile or page.
func (s *CommentService) TargetExists(ctx context.Context, targetType models.TargetType, targetID string) (bool, error) {
	var err error
	switch targetType {
	case models.TargetProfile:
		_, err = s.profiles.GetProfileByID(ctx, targetID)
	case models.TargetPage:
		_, err = s.pages.GetPage(ctx, targetID)
	default:
		return false, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns the target's comments oldest first, each joined with its
// author, together with the stream seq the snapshot matches.
func (s *CommentService) List(ctx context.Context, targetType models.TargetType, targetID string) (*models.CommentListResponse, error) {
	topic := realtime.CommentTopic(targetType, targetID)
	unlock := s.topics.Lock(topic)
	seq, err := s.seq.Current(ctx, topic)
	if err != nil {
		unlock()
		return nil, err
	}
	rows, err := s.comments.ListComments(ctx, targetType, targetID)
	unlock()
	if err != nil {
		return nil, err
	}

	authors := make(map[string]*models.ProfileSummary)
	out := make([]*models.CommentView, 0, len(rows))
	for _, c := range rows {
		author, ok := authors[c.UserID]
		if !ok {
			author = s.author(ctx, c.UserID)
			authors[c.UserID] = author
		}
		out = append(out, s.view(c, author))
	}
	return &models.CommentListResponse{Comments: out, Seq: seq}, nil
}

func (s *CommentService) Create(ctx context.Context, userID string, req *models.CreateCommentRequest) (*models.CommentView, error) {
	ok, err := s.TargetExists(ctx, req.TargetType, req.TargetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTargetNotFound
	}

	now := s.now().UTC()
	c := &models.Comment{
		ID:         uuid.NewString(),
		UserID:     userID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Content:    req.Content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	author := s.author(ctx, userID)

	unlock := s.topics.Lock(realtime.CommentTopic(c.TargetType, c.TargetID))
	defer unlock()
	if err := s.comments.CreateComment(ctx, c); err != nil {
		return nil, err
	}

	v := s.view(c, author)
	s.publish(ctx, models.ChangeInsert, v)
	return v, nil
}

func (s *CommentService) Update(ctx context.Context, userID, commentID string, req *models.UpdateCommentRequest) (*models.CommentView, error) {
	c, err := s.owned(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	c.Content = req.Content
	c.UpdatedAt = s.now().UTC()
	author := s.author(ctx, userID)

	unlock := s.topics.Lock(realtime.CommentTopic(c.TargetType, c.TargetID))
	defer unlock()
	if err := s.comments.UpdateComment(ctx, c); err != nil {
		return nil, err
	}

	v := s.view(c, author)
	s.publish(ctx, models.ChangeUpdate, v)
	return v, nil
}

func (s *CommentService) Delete(ctx context.Context, userID, commentID string) error {
	c, err := s.owned(ctx, userID, commentID)
	if err != nil {
		return err
	}
	return s.deleteOne(ctx, c)
}

// DeleteForTarget removes a whole thread and sends a DELETE for every
// comment in it, so open streams drop the rows.
func (s *CommentService) DeleteForTarget(ctx context.Context, targetType models.TargetType, targetID string) (int64, error) {
	unlock := s.topics.Lock(realtime.CommentTopic(targetType, targetID))
	defer unlock()

	rows, err := s.comments.ListComments(ctx, targetType, targetID)
	if err != nil {
		return 0, err
	}
	n, err := s.comments.DeleteCommentsForTarget(ctx, targetType, targetID)
	if err != nil {
		return 0, err
	}
	for _, c := range rows {
		s.publish(ctx, models.ChangeDelete, s.view(c, nil))
	}
	return n, nil
}

// DeleteByUser removes everything userID wrote, on any target, with a
// DELETE event per comment.
func (s *CommentService) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	rows, err := s.comments.ListCommentsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	var n int64
	for _, c := range rows {
		if err := s.deleteOne(ctx, c); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *CommentService) deleteOne(ctx context.Context, c *models.Comment) error {
	unlock := s.topics.Lock(realtime.CommentTopic(c.TargetType, c.TargetID))
	defer unlock()
	if err := s.comments.DeleteComment(ctx, c.ID); err != nil {
		return err
	}
	s.publish(ctx, models.ChangeDelete, s.view(c, nil))
	return nil
}

func (s *CommentService) owned(ctx context.Context, userID, commentID string) (*models.Comment, error) {
	c, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

// author returns nil when the commenter's profile is gone.
func (s *CommentService) author(ctx context.Context, userID string) *models.ProfileSummary {
	p, err := s.profiles.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil
	}
	summary := p.Summary()
	return &summary
}

func (s *CommentService) view(c *models.Comment, author *models.ProfileSummary) *models.CommentView {
	return &models.CommentView{
		Comment:    c,
		Author:     author,
		CreatedAgo: format.RelativeTime(c.CreatedAt, s.now()),
		Edited:     c.UpdatedAt.After(c.CreatedAt),
	}
}

// publish must run under the topic lock.
func (s *CommentService) publish(ctx context.Context, change models.ChangeType, v *models.CommentView) {
	if s.events == nil {
		return
	}
	log := observability.GetLogger(ctx)
	topic := realtime.CommentTopic(v.TargetType, v.TargetID)

	// Without a seq clients cannot order the event, so it is not sent.
	seq, err := s.seq.Next(ctx, topic)
	if err != nil {
		log.Warn("comment sequence failed, event not sent", zap.String("topic", topic), zap.Error(err))
		return
	}

	payload, err := json.Marshal(models.CommentEvent{
		Type:       change,
		TargetType: v.TargetType,
		TargetID:   v.TargetID,
		Seq:        seq,
		Comment:    v,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		return
	}
	if err := s.events.Publish(ctx, topic, payload); err != nil {
		log.Warn("publish comment event failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	observability.RealtimeEventsTotal.WithLabelValues(string(change)).Inc()
}
