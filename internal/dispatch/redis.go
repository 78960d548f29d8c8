package dispatch

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// RedisWriter is the part of the go-redis client the dispatcher uses.
type RedisWriter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Key receives the latest payload. Defaults to argo:signal:<symbol>.
	Key string
	// Channel, when set, also receives every payload as a pub/sub message.
	Channel string
	TTL     time.Duration
	Mode    PayloadMode
}

// RedisDispatcher stores the latest payload as JSON under one key.
type RedisDispatcher struct {
	client  RedisWriter
	key     string
	channel string
	ttl     time.Duration
	mode    PayloadMode
}

// NewRedisClient connects with the address and credentials in opts.
func NewRedisClient(opts RedisOptions) *goredis.Client {
	return goredis.NewClient(&goredis.Options{ //nolint:exhaustruct
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

func NewRedisDispatcher(client RedisWriter, opts RedisOptions) (*RedisDispatcher, error) {
	if client == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "redis client is required")
	}

	mode := opts.Mode
	if mode == "" {
		mode = PayloadFull
	}

	if !mode.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown payload mode %q", mode)
	}

	return &RedisDispatcher{
		client:  client,
		key:     opts.Key,
		channel: opts.Channel,
		ttl:     opts.TTL,
		mode:    mode,
	}, nil
}

func (d *RedisDispatcher) Name() string {
	return "redis"
}

func (d *RedisDispatcher) keyFor(rec *types.Recommendation) string {
	if d.key != "" {
		return d.key
	}

	return "argo:signal:" + rec.Symbol
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, rec *types.Recommendation) error {
	data, err := json.Marshal(Payload(rec, d.mode))
	if err != nil {
		return errors.Wrap(errors.ErrCodeDispatchFailed, "failed to encode recommendation", err)
	}

	if err := d.client.Set(ctx, d.keyFor(rec), data, d.ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeDispatchFailed, "redis SET failed", err)
	}

	if d.channel == "" {
		return nil
	}

	if err := d.client.Publish(ctx, d.channel, data).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeDispatchFailed, "redis PUBLISH failed", err)
	}

	return nil
}
