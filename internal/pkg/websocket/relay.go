package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisRelay fans chat messages out through Redis pub/sub so every API
// instance delivers them to its own connected clients.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	logger  zerolog.Logger
}

// NewRedisRelay creates a relay publishing on channel and delivering to hub
func NewRedisRelay(rdb *redis.Client, channel string, hub *Hub, logger zerolog.Logger) *RedisRelay {
	return &RedisRelay{
		rdb:     rdb,
		channel: channel,
		hub:     hub,
		logger:  logger,
	}
}

// Broadcast publishes msg. When Redis is unreachable the message is still
// delivered to this instance's clients.
func (r *RedisRelay) Broadcast(ctx context.Context, msg *Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error().Err(err).Int64("hubID", msg.HubID).Msg("Failed to marshal relay message")
		return
	}

	if err := r.rdb.Publish(ctx, r.channel, raw).Err(); err != nil {
		r.logger.Warn().Err(err).Int64("hubID", msg.HubID).Msg("Redis publish failed, delivering locally")
		r.hub.Broadcast(ctx, msg)
	}
}

// Run forwards messages from Redis to the local hub until ctx is cancelled
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe: %w", err)
	}
	r.logger.Info().Str("channel", r.channel).Msg("Chat relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				r.logger.Warn().Err(err).Msg("Bad relay payload")
				continue
			}
			r.hub.Broadcast(ctx, &msg)
		}
	}
}
