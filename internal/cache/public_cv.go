package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "cv:public:"
	defaultField = "\x00default"
)

// PublicCV 缓存公开 CV 的渲染结果。每个用户名一个 hash，字段为 slug，默认 CV 使用
// 以 NUL 开头的字段，任何合法 slug 都无法与之冲突。
// 所有者任何写操作都会整体删除该 hash。
type PublicCV struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewPublicCV(client redis.UniversalClient, ttl time.Duration) *PublicCV {
	return &PublicCV{client: client, ttl: ttl}
}

func key(username string) string { return keyPrefix + username }

func field(slug string) string {
	if slug == "" {
		return defaultField
	}
	return slug
}

// Get 返回缓存内容；未命中时 ok 为 false 且 err 为 nil。
func (c *PublicCV) Get(ctx context.Context, username, slug string) ([]byte, bool, error) {
	if c == nil || c.ttl <= 0 {
		return nil, false, nil
	}
	data, err := c.client.HGet(ctx, key(username), field(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set 写入渲染结果并刷新整个 hash 的过期时间。
func (c *PublicCV) Set(ctx context.Context, username, slug string, payload []byte) error {
	if c == nil || c.ttl <= 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key(username), field(slug), payload)
	pipe.Expire(ctx, key(username), c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate 删除该用户名下的全部缓存；空用户名直接忽略。
func (c *PublicCV) Invalidate(ctx context.Context, username string) error {
	if c == nil || username == "" {
		return nil
	}
	return c.client.Del(ctx, key(username)).Err()
}
