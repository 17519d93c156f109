package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/chargedblocks/internal/confirm"
	"github.com/mcoot/chargedblocks/internal/model"
)

// clickScript commits when the owner's armed token matches, otherwise arms it.
// Expiry is left to the key TTL.
var clickScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 0
`)

// Tracker keeps each owner's armed click in a Redis key that expires with
// the window
type Tracker struct {
	client *redis.Client
	cfg    Config
}

// Ensure Tracker implements the interface
var _ confirm.Tracker = (*Tracker)(nil)

// New connects to Redis and verifies the connection
func New(cfg Config) (*Tracker, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a tracker with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Tracker {
	if cfg.Window <= 0 {
		cfg.Window = confirm.DefaultWindow
	}
	return &Tracker{client: client, cfg: cfg}
}

func (t *Tracker) Click(ctx context.Context, owner model.PlayerID, id model.TokenID) (bool, error) {
	res, err := clickScript.Run(ctx, t.client,
		[]string{pendingKey(owner)},
		id.String(), t.cfg.Window.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("confirm click: %w", err)
	}
	return res == 1, nil
}

func (t *Tracker) Clear(ctx context.Context, owner model.PlayerID) error {
	return t.client.Del(ctx, pendingKey(owner)).Err()
}

// Close closes the Redis connection
func (t *Tracker) Close() error {
	return t.client.Close()
}
