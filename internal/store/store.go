// Package store 封装 offshoreCV 的全部持久化操作。所有写操作都显式接收
// profileID，并以其作为 WHERE 条件的一部分。
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound 表示记录不存在或不属于当前档案。
	ErrNotFound = errors.New("record not found")
	// ErrConflict 表示唯一约束冲突。
	ErrConflict = errors.New("record conflict")
	// ErrUsernameImmutable 表示用户名一旦设置不可修改。
	ErrUsernameImmutable = errors.New("username cannot be changed once set")
)

// Store 基于 GORM 实现档案与 CV 的读写。
type Store struct {
	db *gorm.DB
}

// New 构造 Store。db 需要开启 TranslateError 以识别唯一约束冲突。
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB 暴露底层连接，供迁移与健康检查使用。
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping 检查数据库连通性。
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

// lockForUpdate 仅在 PostgreSQL 上加行锁；SQLite 的写事务本身是串行的。
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
