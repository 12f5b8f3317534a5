package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"offshoreCV/internal/cv"
	"offshoreCV/internal/database"
)

func toRecords(rows []database.ProfileCV) []cv.Record {
	out := make([]cv.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToRecord())
	}
	return out
}

// PublishedCVs 返回档案下全部已发布的 CV，按 updated_at 倒序、slug 升序。
func (s *Store) PublishedCVs(ctx context.Context, profileID string) ([]cv.Record, error) {
	var rows []database.ProfileCV
	err := s.db.WithContext(ctx).
		Where("profile_id = ? AND is_published = ?", profileID, true).
		Order("updated_at DESC").Order("slug ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("published cvs: %w", err)
	}
	return toRecords(rows), nil
}

// PublishedCVsBySlug 返回 slug 匹配的已发布 CV；正常情况下至多一条。
func (s *Store) PublishedCVsBySlug(ctx context.Context, profileID, slug string) ([]cv.Record, error) {
	var rows []database.ProfileCV
	err := s.db.WithContext(ctx).
		Where("profile_id = ? AND is_published = ? AND slug = ?", profileID, true, slug).
		Order("updated_at DESC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("published cvs by slug: %w", err)
	}
	return toRecords(rows), nil
}

// ListCVs 返回档案的全部 CV，最近修改的在前。
func (s *Store) ListCVs(ctx context.Context, profileID string) ([]cv.Record, error) {
	var rows []database.ProfileCV
	err := s.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("updated_at DESC").Order("slug ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list cvs: %w", err)
	}
	return toRecords(rows), nil
}

// GetCV 读取档案拥有的单个 CV。
func (s *Store) GetCV(ctx context.Context, profileID, id string) (cv.Record, error) {
	var row database.ProfileCV
	if err := s.db.WithContext(ctx).Where("id = ? AND profile_id = ?", id, profileID).First(&row).Error; err != nil {
		return cv.Record{}, mapErr(err)
	}
	return row.ToRecord(), nil
}

// DeleteCV 删除档案拥有的 CV。其余 CV 的默认标记保持不变。
func (s *Store) DeleteCV(ctx context.Context, profileID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND profile_id = ?", id, profileID).Delete(&database.ProfileCV{})
	if res.Error != nil {
		return fmt.Errorf("delete cv: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountCVs 返回档案持有的 CV 数量。
func (s *Store) CountCVs(ctx context.Context, profileID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&database.ProfileCV{}).Where("profile_id = ?", profileID).Count(&n).Error
	return n, err
}

// SaveCV 在单个事务内完成配额检查、发布规则、默认标记切换与写入。
// 档案行在 PostgreSQL 上被锁定，同一档案的并发保存因此串行化。
func (s *Store) SaveCV(ctx context.Context, profileID string, draft cv.Draft) (cv.Record, error) {
	rec := draft.Normalize(profileID)
	isNew := draft.IsNew()

	var saved database.ProfileCV
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner database.Profile
		if err := lockForUpdate(tx).Where("id = ?", profileID).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cv.ErrProfileNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&database.ProfileCV{}).Where("profile_id = ?", profileID).Count(&count).Error; err != nil {
			return fmt.Errorf("count cvs: %w", err)
		}

		total := int(count)
		if isNew {
			if err := cv.CheckQuota(owner.ToProfile(), count); err != nil {
				return err
			}
			total++
			rec.ID = uuid.NewString()
		} else {
			var existing database.ProfileCV
			err := tx.Select("id").Where("id = ? AND profile_id = ?", rec.ID, profileID).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cv.ErrCVNotFound
			}
			if err != nil {
				return err
			}
		}

		cv.ApplyPublicationRules(&rec, total)

		if rec.IsDefaultPublic {
			// UpdateColumn 不触碰 updated_at，其它 CV 的排序不受影响。
			err := tx.Model(&database.ProfileCV{}).
				Where("profile_id = ? AND id <> ? AND is_default_public = ?", profileID, rec.ID, true).
				UpdateColumn("is_default_public", false).Error
			if err != nil {
				return fmt.Errorf("clear default cv: %w", err)
			}
		}

		row, err := database.NewProfileCV(rec)
		if err != nil {
			return err
		}
		if isNew {
			err = tx.Create(&row).Error
		} else {
			err = tx.Model(&row).
				Select("*").
				Omit("id", "profile_id", "created_at").
				Where("profile_id = ?", profileID).
				Updates(&row).Error
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return cv.ErrSlugTaken
		}
		if err != nil {
			return fmt.Errorf("write cv: %w", err)
		}

		return tx.Where("id = ?", rec.ID).First(&saved).Error
	})
	if err != nil {
		return cv.Record{}, err
	}
	return saved.ToRecord(), nil
}
