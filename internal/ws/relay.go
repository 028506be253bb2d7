package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const FeedChannel = "tenderhub:admin_feed"

// RedisRelay publishes feed events on a Redis channel so events raised in any process
// (API replicas, the worker's deadline sweep) reach every hub.
type RedisRelay struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisRelay(rdb *redis.Client, log *slog.Logger) *RedisRelay {
	return &RedisRelay{rdb: rdb, log: log}
}

func (r *RedisRelay) Publish(ctx context.Context, ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		r.log.ErrorContext(ctx, "ws.relay_encode_failed", "type", ev.Type, "err", err)
		return
	}
	if err := r.rdb.Publish(ctx, FeedChannel, raw).Err(); err != nil {
		r.log.WarnContext(ctx, "ws.relay_publish_failed", "type", ev.Type, "err", err)
	}
}

// Forward copies channel messages into hub until ctx is cancelled.
func (r *RedisRelay) Forward(ctx context.Context, hub *Hub) error {
	sub := r.rdb.Subscribe(ctx, FeedChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			hub.PublishRaw(ctx, []byte(msg.Payload))
		}
	}
}

// NopPublisher discards events. Used by processes without a feed.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
