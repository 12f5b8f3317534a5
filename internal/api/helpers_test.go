package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"offshoreCV/internal/api/middleware"
	"offshoreCV/internal/auth"
	"offshoreCV/internal/cache"
	"offshoreCV/internal/config"
	"offshoreCV/internal/database"
	"offshoreCV/internal/storage"
	"offshoreCV/internal/store"
	"offshoreCV/internal/tasks"
)

type fakeStorage struct {
	uploaded map[string][]byte
	types    map[string]string
	params   map[string]map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		uploaded: map[string][]byte{},
		types:    map[string]string{},
		params:   map[string]map[string]string{},
	}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, contentType string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	s.types[objectName] = contentType
	return &minio.UploadInfo{Key: objectName}, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://objects.example.invalid/" + objectKey, nil
}

func (s *fakeStorage) GeneratePresignedURLWithParams(_ context.Context, objectKey string, _ time.Duration, params map[string]string) (string, error) {
	s.params[objectKey] = params
	return "https://objects.example.invalid/" + objectKey + "?signed=1", nil
}

type fakeEnqueuer struct {
	payloads []tasks.StorageCleanupPayload
}

func (e *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	var p tasks.StorageCleanupPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return nil, err
	}
	e.payloads = append(e.payloads, p)
	return &asynq.TaskInfo{ID: uuid.NewString(), Type: task.Type()}, nil
}

type scannerFunc func(io.Reader) error

func (f scannerFunc) Scan(r io.Reader) error { return f(r) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return store.New(db)
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func newTestAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	svc, err := auth.NewAuthService(privPEM, pubPEM, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return svc
}

// testApp 是完整装配的路由，依赖均为内存实现。
type testApp struct {
	router   *gin.Engine
	store    *store.Store
	storage  *fakeStorage
	enqueuer *fakeEnqueuer
	redis    *miniredis.Miniredis
}

func newTestApp(t *testing.T, scanner storage.Scanner) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := newTestStore(t)
	redisClient, mr := newTestRedis(t)
	objects := newFakeStorage()
	enqueuer := &fakeEnqueuer{}
	logger := discardLogger()

	router := NewRouter(logger, nil)
	RegisterRoutes(router,
		config.APIConfig{PublicCacheTTL: time.Minute, InternalSecret: "s3cret", MaxUploadBytes: 1 << 20},
		config.AuthConfig{LoginRateLimitPerHour: 10, LoginLockThreshold: 5, LoginLockTTL: time.Minute},
		Dependencies{
			Store:       st,
			Auth:        newTestAuthService(t),
			Redis:       redisClient,
			Storage:     objects,
			Scanner:     scanner,
			Tasks:       enqueuer,
			PublicCache: cache.NewPublicCV(redisClient, time.Minute),
			Logger:      logger,
		},
	)
	return &testApp{router: router, store: st, storage: objects, enqueuer: enqueuer, redis: mr}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) upload(t *testing.T, path, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := newMultipartUpload(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// signup 注册并登录，返回访问令牌与档案 ID。
func (a *testApp) signup(t *testing.T, email, username string) (string, string) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email": email, "username": username, "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": email, "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	acct, err := a.store.FindAccountByEmail(context.Background(), email)
	require.NoError(t, err)
	return resp.AccessToken, acct.ID
}

func newMultipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// withProfile 为单元测试注入认证结果，绕过令牌校验。
func withProfile(profileID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ProfileIDKey, profileID)
		c.Next()
	}
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
var jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

func mustSeedRole(t *testing.T, app *testApp, name string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, app.store.SeedLookups(ctx, []database.LookupRole{{RoleName: name, Category: "ROV"}}, nil))
	roles, err := app.store.ListLookupRoles(ctx)
	require.NoError(t, err)
	for _, r := range roles {
		if r.RoleName == name {
			return r.ID
		}
	}
	t.Fatalf("lookup role %q not seeded", name)
	return ""
}

func mustSeedCert(t *testing.T, app *testApp, name string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, app.store.SeedLookups(ctx, nil, []database.LookupCert{{CertName: name, Category: "Safety"}}))
	certs, err := app.store.ListLookupCerts(ctx)
	require.NoError(t, err)
	for _, c := range certs {
		if c.CertName == name {
			return c.ID
		}
	}
	t.Fatalf("lookup cert %q not seeded", name)
	return ""
}
