package realtime

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
)

const channelPrefix = "realtime:"

// RedisBroker publishes through Redis pub/sub so every API instance sees every
// event. Delivery to sockets happens on the local Hub.
type RedisBroker struct {
	client *redis.Client
	hub    *Hub
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client, hub: NewHub()}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.client.Publish(ctx, channelPrefix+topic, payload).Err()
}

func (b *RedisBroker) Subscribe(topic string, handler func([]byte)) func() {
	return b.hub.Subscribe(topic, handler)
}

// Run relays Redis messages to local subscribers until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")

	go func() {
		log := observability.GetLogger(ctx)
		log.Info("realtime: subscribed to redis", zap.String("pattern", channelPrefix+"*"))
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				log.Info("realtime: relay stopping: context canceled")
				return
			case msg, ok := <-ch:
				if !ok {
					log.Warn("realtime: redis channel closed")
					return
				}
				b.hub.Deliver(strings.TrimPrefix(msg.Channel, channelPrefix), []byte(msg.Payload))
			}
		}
	}()
}
