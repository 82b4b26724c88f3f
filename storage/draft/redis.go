package draftstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/kairosacademy/enrollment/core"
	"github.com/kairosacademy/enrollment/core/enrollment"
)

const keyPrefix = "kairos:draft:"

// RedisStore persists application drafts as JSON blobs in Redis, one key per
// draft, refreshed with a TTL on every save.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ enrollment.DraftStore = (*RedisStore)(nil)

func NewRedisStore(conf *core.Config) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:         conf.Redis.Addr,
			Password:     conf.Redis.Password,
			DB:           conf.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}),
		ttl: conf.Redis.DraftTTL,
	}
}

// NewRedisStoreWithClient is used by tests to inject a miniredis-backed client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping failed")
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Save(ctx context.Context, id string, app enrollment.Application) error {
	data, err := json.Marshal(app)
	if err != nil {
		return errors.Wrap(err, "marshalling draft")
	}
	if err := s.client.Set(ctx, keyPrefix+id, data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "saving draft")
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (enrollment.Application, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return enrollment.Application{}, enrollment.ErrDraftNotFound
	}
	if err != nil {
		return enrollment.Application{}, errors.Wrap(err, "loading draft")
	}
	var app enrollment.Application
	if err := json.Unmarshal(data, &app); err != nil {
		return enrollment.Application{}, errors.Wrap(err, "unmarshalling draft")
	}
	return app, nil
}

func (s *RedisStore) Clear(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "clearing draft")
	}
	return nil
}
