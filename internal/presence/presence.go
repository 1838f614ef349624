// Package presence publishes which users currently hold at least one live
// socket. The chat hub calls Online when a user's first connection on this
// instance registers and Offline when the last one goes away.
//
// With Redis, every relay instance shares the set "presence:online" and a
// per-user counter of instances holding the user, so a user stays online
// until the last instance releases them.
package presence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// OnlineKey is the Redis set of online user ids.
const OnlineKey = "presence:online"

// Tracker records online transitions.
type Tracker interface {
	Online(ctx context.Context, userID uint) error
	Offline(ctx context.Context, userID uint) error
	Close() error
}

// Noop discards presence updates. Used when REDIS_URL is unset.
type Noop struct{}

func (Noop) Online(context.Context, uint) error  { return nil }
func (Noop) Offline(context.Context, uint) error { return nil }
func (Noop) Close() error                        { return nil }

// counterKey holds the number of relay instances the user is connected to.
func counterKey(userID uint) string {
	return fmt.Sprintf("presence:user:%d:instances", userID)
}

// offlineScript decrements the counter and clears the user once it hits zero.
var offlineScript = redis.NewScript(`
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
  redis.call('DEL', KEYS[1])
  redis.call('SREM', KEYS[2], ARGV[1])
end
return n
`)

// RedisTracker implements Tracker on a Redis server.
type RedisTracker struct {
	client *redis.Client
}

// NewRedisTracker connects to redisURL and verifies the connection.
func NewRedisTracker(ctx context.Context, redisURL string) (*RedisTracker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("presence: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("presence: ping redis: %w", err)
	}
	return &RedisTracker{client: client}, nil
}

// NewRedisTrackerFromClient wraps an existing client.
func NewRedisTrackerFromClient(client *redis.Client) *RedisTracker {
	return &RedisTracker{client: client}
}

// Online marks userID online and bumps its instance counter.
func (t *RedisTracker) Online(ctx context.Context, userID uint) error {
	id := strconv.FormatUint(uint64(userID), 10)
	_, err := t.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, counterKey(userID))
		p.SAdd(ctx, OnlineKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("presence: online %d: %w", userID, err)
	}
	return nil
}

// Offline releases this instance's hold on userID.
func (t *RedisTracker) Offline(ctx context.Context, userID uint) error {
	id := strconv.FormatUint(uint64(userID), 10)
	if err := offlineScript.Run(ctx, t.client, []string{counterKey(userID), OnlineKey}, id).Err(); err != nil {
		return fmt.Errorf("presence: offline %d: %w", userID, err)
	}
	return nil
}

// IsOnline reports whether any instance holds userID.
func (t *RedisTracker) IsOnline(ctx context.Context, userID uint) (bool, error) {
	return t.client.SIsMember(ctx, OnlineKey, strconv.FormatUint(uint64(userID), 10)).Result()
}

// Close releases the Redis connection pool.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}
