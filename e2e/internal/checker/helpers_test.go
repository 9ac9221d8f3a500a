package checker

import (
	"context"
	"time"
)

// fakeRedis satisfies redis.Client with no-ops
type fakeRedis struct{}

func (fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (fakeRedis) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (fakeRedis) HSet(ctx context.Context, key string, fields map[string]interface{}) error {
	return nil
}
func (fakeRedis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return nil, nil
}
func (fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) error { return nil }
func (fakeRedis) LTrim(ctx context.Context, key string, start, stop int64) error     { return nil }
func (fakeRedis) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return nil, nil
}
func (fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }
func (fakeRedis) Ping(ctx context.Context) error                                  { return nil }
func (fakeRedis) Close() error                                                    { return nil }
