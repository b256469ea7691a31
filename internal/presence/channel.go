package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"scribemarket/api/internal/models"
)

const stateHashKey = "presence:state"

// Channel is the shared presence transport for one user. Multiple watchers
// may attach; each releases its own subscription independently.
type Channel interface {
	// Track publishes a presence state. Advisory, so callers treat
	// failures as fire-and-forget.
	Track(ctx context.Context, state models.PresenceState) error
	// State returns the last-known presence of every tracked user.
	State(ctx context.Context) (map[string]models.PresenceState, error)
	// Watch invokes fn for every state published on this channel until the
	// returned release func is called.
	Watch(ctx context.Context, fn func(models.PresenceState)) (func(), error)
}

// RedisChannel carries presence over a per-user pub/sub channel named
// presence:<user_id>, with a shared hash holding the latest state per user.
type RedisChannel struct {
	client *redis.Client
	name   string
}

func NewRedisChannel(client *redis.Client, userID string) *RedisChannel {
	return &RedisChannel{
		client: client,
		name:   "presence:" + userID,
	}
}

func (c *RedisChannel) Track(ctx context.Context, state models.PresenceState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode presence: %w", err)
	}

	if err := c.client.HSet(ctx, stateHashKey, state.UserID, raw).Err(); err != nil {
		return fmt.Errorf("store presence: %w", err)
	}
	if err := c.client.Publish(ctx, c.name, raw).Err(); err != nil {
		return fmt.Errorf("publish presence: %w", err)
	}
	return nil
}

func (c *RedisChannel) State(ctx context.Context) (map[string]models.PresenceState, error) {
	entries, err := c.client.HGetAll(ctx, stateHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read presence state: %w", err)
	}

	states := make(map[string]models.PresenceState, len(entries))
	for userID, raw := range entries {
		var state models.PresenceState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			continue
		}
		states[userID] = state
	}
	return states, nil
}

func (c *RedisChannel) Watch(ctx context.Context, fn func(models.PresenceState)) (func(), error) {
	sub := c.client.Subscribe(ctx, c.name)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", c.name, err)
	}

	go func() {
		for msg := range sub.Channel() {
			var state models.PresenceState
			if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
				continue
			}
			fn(state)
		}
	}()

	return func() { _ = sub.Close() }, nil
}
