package store

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"offshoreCV/internal/cv"
	"offshoreCV/internal/database"
)

func rawDefault(r database.ProfileCV) bool {
	return r.IsDefaultPublic != nil && *r.IsDefaultPublic
}

// inspectDefaults 检查单个档案的默认标记，返回异常以及修复后应作为默认的记录 ID。
func inspectDefaults(profileID string, rows []database.ProfileCV) ([]cv.Anomaly, string) {
	var (
		anomalies []cv.Anomaly
		published []cv.Record
	)
	for _, r := range rows {
		rec := r.ToRecord()
		if rawDefault(r) && !rec.IsPublished {
			anomalies = append(anomalies, cv.Anomaly{
				Kind:      cv.AnomalyUnpublishedDefault,
				ProfileID: profileID,
				RecordID:  r.ID,
				Detail:    "unpublished cv flagged default",
			})
		}
		if rec.IsPublished {
			published = append(published, rec)
		}
	}
	if len(published) == 0 {
		return anomalies, ""
	}
	chosen, found := cv.PickDefault(published)
	return append(anomalies, found...), chosen.ID
}

// AuditDefaults 扫描所有档案，报告默认公开 CV 的完整性异常，不做修改。
func (s *Store) AuditDefaults(ctx context.Context) ([]cv.Anomaly, error) {
	grouped, err := s.defaultRows(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	profileIDs := make([]string, 0, len(grouped))
	for id := range grouped {
		profileIDs = append(profileIDs, id)
	}
	sort.Strings(profileIDs)

	var out []cv.Anomaly
	for _, id := range profileIDs {
		found, _ := inspectDefaults(id, grouped[id])
		out = append(out, found...)
	}
	return out, nil
}

// RepairDefaults 让档案恢复“恰好一个已发布默认 CV”：保留最新的默认项，
// 清除其余默认标记；没有默认项时提升最新的已发布 CV。返回修复前的异常。
func (s *Store) RepairDefaults(ctx context.Context, profileID string) ([]cv.Anomaly, error) {
	var anomalies []cv.Anomaly
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner database.Profile
		if err := lockForUpdate(tx).Select("id").Where("id = ?", profileID).First(&owner).Error; err != nil {
			return mapErr(err)
		}
		grouped, err := s.defaultRows(ctx, tx, profileID)
		if err != nil {
			return err
		}
		var chosen string
		anomalies, chosen = inspectDefaults(profileID, grouped[profileID])
		if len(anomalies) == 0 {
			return nil
		}
		reset := tx.Model(&database.ProfileCV{}).Where("profile_id = ? AND is_default_public = ?", profileID, true)
		if chosen != "" {
			reset = reset.Where("id <> ?", chosen)
		}
		if err := reset.UpdateColumn("is_default_public", false).Error; err != nil {
			return fmt.Errorf("clear defaults: %w", err)
		}
		if chosen == "" {
			return nil
		}
		return tx.Model(&database.ProfileCV{}).Where("id = ?", chosen).
			UpdateColumn("is_default_public", true).Error
	})
	if err != nil {
		return nil, err
	}
	return anomalies, nil
}

func (s *Store) defaultRows(ctx context.Context, db *gorm.DB, profileID string) (map[string][]database.ProfileCV, error) {
	q := db.WithContext(ctx).
		Select("id", "profile_id", "slug", "is_published", "is_default_public", "updated_at")
	if profileID != "" {
		q = q.Where("profile_id = ?", profileID)
	} else {
		q = q.Where("is_published = ? OR is_default_public = ?", true, true)
	}
	var rows []database.ProfileCV
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load default flags: %w", err)
	}
	out := make(map[string][]database.ProfileCV)
	for _, r := range rows {
		out[r.ProfileID] = append(out[r.ProfileID], r)
	}
	return out, nil
}
