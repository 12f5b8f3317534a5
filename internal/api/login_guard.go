package api

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	errLoginRateLimited = errors.New("rate limit exceeded")
	errLoginLocked      = errors.New("account temporarily locked")
)

// loginGuard 在 Redis 中维护登录限流、失败计数与锁定状态。
// 键按邮箱划分：lock:login:{email} 为锁，lock:login:fail:{email} 为失败计数。
type loginGuard struct {
	redis         redis.UniversalClient
	ratePerHour   int
	lockThreshold int
	lockTTL       time.Duration
	now           func() time.Time
}

func newLoginGuard(client redis.UniversalClient, ratePerHour, lockThreshold int, lockTTL time.Duration) *loginGuard {
	return &loginGuard{
		redis:         client,
		ratePerHour:   ratePerHour,
		lockThreshold: lockThreshold,
		lockTTL:       lockTTL,
		now:           time.Now,
	}
}

func lockKey(email string) string { return "lock:login:" + email }
func failKey(email string) string { return "lock:login:fail:" + email }

// admit 记一次尝试，超过每小时上限或账号被锁时返回错误。
// Redis 故障不阻塞登录。
func (g *loginGuard) admit(ctx context.Context, ip, email string) error {
	bucket := "rate:login:" + ip + ":" + email + ":" + g.now().UTC().Format("2006010215")
	if count, err := g.incr(ctx, bucket, time.Hour); err == nil && g.ratePerHour > 0 && count > int64(g.ratePerHour) {
		return errLoginRateLimited
	}
	if ttl, _ := g.redis.TTL(ctx, lockKey(email)).Result(); ttl > 0 {
		return errLoginLocked
	}
	return nil
}

// fail 累加失败次数，达到阈值后锁定 lockTTL。
func (g *loginGuard) fail(ctx context.Context, email string) error {
	count, err := g.incr(ctx, failKey(email), g.lockTTL)
	if err != nil {
		return err
	}
	if g.lockThreshold > 0 && count >= int64(g.lockThreshold) {
		return g.redis.Set(ctx, lockKey(email), "1", g.lockTTL).Err()
	}
	return nil
}

func (g *loginGuard) succeed(ctx context.Context, email string) {
	_ = g.redis.Del(ctx, failKey(email)).Err()
}

// incr 在首次写入时设置过期时间，形成固定窗口计数器。
func (g *loginGuard) incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := g.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = g.redis.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}
