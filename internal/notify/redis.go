package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisRelay shares change signals between instances over a Redis pub/sub channel.
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
}

type changeMessage struct {
	Origin     string `json:"origin"`
	Collection string `json:"collection"`
}

func NewRedisRelay(addr, password string, db int, channel string) *RedisRelay {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRelay{client: rdb, channel: channel, origin: uuid.NewString()}
}

func (r *RedisRelay) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisRelay) Announce(ctx context.Context, collection string) error {
	body, err := encodeChange(r.origin, collection)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, body).Err()
}

// Listen feeds announcements from other instances into n until ctx ends.
func (r *RedisRelay) Listen(ctx context.Context, n *Notifier) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			collection, remote := r.decode(msg.Payload)
			if remote {
				n.Refresh(collection)
			}
		}
	}
}

func (r *RedisRelay) decode(payload string) (string, bool) {
	var m changeMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		log.Warn().Err(err).Msg("malformed change announcement")
		return "", false
	}
	if m.Origin == r.origin || m.Collection == "" {
		return "", false
	}
	return m.Collection, true
}

func (r *RedisRelay) Close() error {
	return r.client.Close()
}

func encodeChange(origin, collection string) (string, error) {
	b, err := json.Marshal(changeMessage{Origin: origin, Collection: collection})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
