package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"offshoreCV/internal/database"
	"offshoreCV/internal/profile"
)

// ListSeaTime 按开始日期倒序返回船上经历。
func (s *Store) ListSeaTime(ctx context.Context, profileID string) ([]profile.SeaTimeEntry, error) {
	var rows []database.SeaTime
	if err := s.db.WithContext(ctx).Where("profile_id = ?", profileID).
		Order("start_date DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]profile.SeaTimeEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToEntry())
	}
	return out, nil
}

// SaveSeaTime 校验并写入船上经历；entry.ID 为空时新建。
func (s *Store) SaveSeaTime(ctx context.Context, profileID string, entry profile.SeaTimeEntry) (profile.SeaTimeEntry, error) {
	if err := profile.ValidateSeaTime(&entry); err != nil {
		return profile.SeaTimeEntry{}, err
	}
	row := database.SeaTime{
		Base:              database.Base{ID: entry.ID},
		ProfileID:         profileID,
		ProfileRoleID:     database.OptionalID(entry.ProfileRoleID),
		VesselName:        entry.VesselName,
		StartDate:         entry.StartDate,
		EndDate:           entry.EndDate,
		SeaDays:           entry.SeaDays,
		VoyageDescription: entry.VoyageDescription,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRoleOwnership(tx, profileID, entry.ProfileRoleID); err != nil {
			return err
		}
		return writeOwned(tx, &row, row.ID, profileID)
	})
	if err != nil {
		return profile.SeaTimeEntry{}, err
	}
	return row.ToEntry(), nil
}

// DeleteSeaTime 删除船上经历。
func (s *Store) DeleteSeaTime(ctx context.Context, profileID, id string) error {
	return deleteOwned(ctx, s.db, &database.SeaTime{}, profileID, id)
}

// ListRov 按开始日期倒序返回 ROV 项目。
func (s *Store) ListRov(ctx context.Context, profileID string) ([]profile.RovExperienceEntry, error) {
	var rows []database.RovExperience
	if err := s.db.WithContext(ctx).Where("profile_id = ?", profileID).
		Order("start_date DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]profile.RovExperienceEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToEntry())
	}
	return out, nil
}

// SaveRov 校验并写入 ROV 项目；entry.ID 为空时新建。
func (s *Store) SaveRov(ctx context.Context, profileID string, entry profile.RovExperienceEntry) (profile.RovExperienceEntry, error) {
	if err := profile.ValidateRov(&entry); err != nil {
		return profile.RovExperienceEntry{}, err
	}
	row := database.RovExperience{
		Base:          database.Base{ID: entry.ID},
		ProfileID:     profileID,
		ProfileRoleID: database.OptionalID(entry.ProfileRoleID),
		ProjectName:   entry.ProjectName,
		ClientName:    entry.ClientName,
		Location:      entry.Location,
		VesselName:    entry.VesselName,
		RovSystem:     entry.RovSystem,
		StartDate:     entry.StartDate,
		EndDate:       entry.EndDate,
		OffshoreDays:  entry.OffshoreDays,
		DiveHours:     entry.DiveHours,
		ScopeOfWork:   entry.ScopeOfWork,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRoleOwnership(tx, profileID, entry.ProfileRoleID); err != nil {
			return err
		}
		return writeOwned(tx, &row, row.ID, profileID)
	})
	if err != nil {
		return profile.RovExperienceEntry{}, err
	}
	return row.ToEntry(), nil
}

// DeleteRov 删除 ROV 项目。
func (s *Store) DeleteRov(ctx context.Context, profileID, id string) error {
	return deleteOwned(ctx, s.db, &database.RovExperience{}, profileID, id)
}

// writeOwned 新建或整行更新一条属于档案的记录，并回读最新内容。
func writeOwned(tx *gorm.DB, row any, id, profileID string) error {
	if id == "" {
		return mapErr(tx.Omit(clause.Associations).Create(row).Error)
	}
	res := tx.Model(row).
		Select("*").
		Omit("id", "profile_id", "created_at", clause.Associations).
		Where("profile_id = ?", profileID).
		Updates(row)
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return mapErr(tx.Where("id = ?", id).First(row).Error)
}
