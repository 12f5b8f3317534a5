package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"offshoreCV/internal/database"
)

func newTestStore(t *testing.T) *Store {
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
	return New(db)
}

// mustProfile 创建一个带用户名的账号，paid 决定套餐。
func mustProfile(t *testing.T, s *Store, username string, paid bool) string {
	t.Helper()
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, username+"@example.com", username, "hash", false)
	require.NoError(t, err)
	if paid {
		require.NoError(t, s.SetSubscription(ctx, acct.ID, "pro", false))
	}
	return acct.ID
}

func mustLookupRole(t *testing.T, s *Store, name string) string {
	t.Helper()
	row := database.LookupRole{RoleName: name, Category: "ROV"}
	require.NoError(t, s.DB().Create(&row).Error)
	return row.ID
}

func mustLookupCert(t *testing.T, s *Store, name string) string {
	t.Helper()
	row := database.LookupCert{CertName: name, Category: "Safety"}
	require.NoError(t, s.DB().Create(&row).Error)
	return row.ID
}

func day(y int, m time.Month, d int) *time.Time {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}
