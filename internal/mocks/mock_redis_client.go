package mocks

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockRedisError satisfies redis.Error so script failures surface through
// redis.HasErrorPrefix the same way real replies do.
type MockRedisError string

func (e MockRedisError) Error() string { return string(e) }

func (e MockRedisError) RedisError() {}

type MockRedisClient struct {
	mock.Mock
	redis.UniversalClient
}

func (m *MockRedisClient) EvalSha(ctx context.Context, sha string, keys []string, args ...interface{}) *redis.Cmd {
	callArgs := m.Called(ctx, sha, keys, args)
	return callArgs.Get(0).(*redis.Cmd)
}

func (m *MockRedisClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	callArgs := m.Called(ctx, script, keys, args)
	return callArgs.Get(0).(*redis.Cmd)
}

func (m *MockRedisClient) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	callArgs := m.Called(ctx, key)
	return callArgs.Get(0).(*redis.StringSliceCmd)
}

func (m *MockRedisClient) MGet(ctx context.Context, keys ...string) *redis.SliceCmd {
	callArgs := m.Called(ctx, keys)
	return callArgs.Get(0).(*redis.SliceCmd)
}
