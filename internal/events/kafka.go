// Package events carries profile-view events over Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
)

const viewWorkerGroup = "batchboard-view-worker"

// Producer publishes profile.viewed events keyed by profile id so one
// profile's views stay on one partition.
type Producer struct {
	w     *kafka.Writer
	topic string
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

func (p *Producer) PublishProfileViewed(ctx context.Context, ev models.ProfileViewedEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{Key: []byte(ev.ProfileID), Value: value}); err != nil {
		return fmt.Errorf("kafka publish %s: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error { return p.w.Close() }

// ViewHandler applies one decoded event.
type ViewHandler func(ctx context.Context, ev models.ProfileViewedEvent) error

type Consumer struct {
	r *kafka.Reader
}

func NewConsumer(brokers []string, topic string) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: viewWorkerGroup,
		}),
	}
}

// Run reads until ctx is cancelled. Undecodable payloads are logged and skipped;
// a failing handler leaves the offset uncommitted so the event is redelivered.
func (c *Consumer) Run(ctx context.Context, handle ViewHandler) error {
	log := observability.GetLogger(ctx)
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("kafka fetch: %w", err)
		}

		var ev models.ProfileViewedEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.ProfileID == "" {
			log.Warn("bad profile.viewed payload", zap.Int64("offset", m.Offset), zap.Error(err))
			if err := c.r.CommitMessages(ctx, m); err != nil {
				log.Warn("kafka commit failed", zap.Error(err))
			}
			continue
		}

		if err := handle(ctx, ev); err != nil {
			log.Error("apply profile view failed", zap.String("profile_id", ev.ProfileID), zap.Error(err))
			return err
		}
		if err := c.r.CommitMessages(ctx, m); err != nil {
			log.Warn("kafka commit failed", zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error { return c.r.Close() }
