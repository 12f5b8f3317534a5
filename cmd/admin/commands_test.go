package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offshoreCV/internal/cache"
	"offshoreCV/internal/cv"
	"offshoreCV/internal/profile"
)

type stubFinder map[string]profile.Profile

func (f stubFinder) FindProfile(_ context.Context, id string) (profile.Profile, error) {
	p, ok := f[id]
	if !ok {
		return profile.Profile{}, errors.New("not found")
	}
	return p, nil
}

func TestAffectedProfilesKeepsFirstSeenOrder(t *testing.T) {
	got := affectedProfiles([]cv.Anomaly{
		{Kind: cv.AnomalyMultipleDefaults, ProfileID: "b"},
		{Kind: cv.AnomalyUnpublishedDefault, ProfileID: "a"},
		{Kind: cv.AnomalyUnpublishedDefault, ProfileID: "b"},
	})
	assert.Equal(t, []string{"b", "a"}, got)
}

func TestPrintAnomalies(t *testing.T) {
	var buf bytes.Buffer
	printAnomalies(&buf, nil)
	assert.Equal(t, "no anomalies found\n", buf.String())

	buf.Reset()
	printAnomalies(&buf, []cv.Anomaly{{Kind: cv.AnomalyNoDefault, ProfileID: "p1", RecordID: "c1", Detail: "2 published"}})
	assert.Contains(t, buf.String(), "no_default_public")
	assert.Contains(t, buf.String(), "profile=p1 cv=c1 2 published")
}

func TestLoadDatabaseConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_HOST", "")
	t.Setenv("DATABASE_PORT", "")
	t.Setenv("DATABASE_SSLMODE", "")
	t.Setenv("POSTGRES_DB", "offshore")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "secret")

	cfg, err := loadDatabaseConfig("", 0, "", "", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, "offshore", cfg.Name)

	t.Setenv("POSTGRES_DB", "")
	_, err = loadDatabaseConfig("", 0, "", "", "", "")
	assert.Error(t, err)
}

func TestInvalidatePublicCacheDropsOwnerHash(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	publicCache := cache.NewPublicCV(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, publicCache.Set(ctx, "jane_doe", "", []byte(`{"show_promo":true}`)))
	require.NoError(t, publicCache.Set(ctx, "other", "", []byte(`{}`)))

	finder := stubFinder{"p1": {ID: "p1", Username: "jane_doe"}}
	var warn bytes.Buffer
	invalidatePublicCache(ctx, &warn, finder, publicCache, "p1")

	assert.Empty(t, warn.String())
	assert.False(t, mr.Exists("cv:public:jane_doe"))
	assert.True(t, mr.Exists("cv:public:other"))

	invalidatePublicCache(ctx, &warn, finder, publicCache, "missing")
	assert.Contains(t, warn.String(), "warning: load profile missing")
	assert.True(t, mr.Exists("cv:public:other"))
}

func TestInvalidatePublicCacheWarnsWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	publicCache := cache.NewPublicCV(client, time.Minute)
	mr.Close()

	var warn bytes.Buffer
	invalidatePublicCache(context.Background(), &warn, stubFinder{"p1": {ID: "p1", Username: "jane_doe"}}, publicCache, "p1")
	assert.Contains(t, warn.String(), "warning: invalidate public cache for jane_doe")
}

func TestLoadRedisConfigDefaults(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("REDIS_PASSWORD", "")

	cfg, err := loadRedisConfig("", 0, "")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Addr())

	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	cfg, err = loadRedisConfig("", 0, "")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", cfg.Addr())

	cfg, err = loadRedisConfig("flag-host", 7000, "pw")
	require.NoError(t, err)
	assert.Equal(t, "flag-host:7000", cfg.Addr())
	assert.Equal(t, "pw", cfg.Password)

	t.Setenv("REDIS_PORT", "nope")
	_, err = loadRedisConfig("", 0, "")
	assert.Error(t, err)
}
