package store

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"offshoreCV/internal/database"
	"offshoreCV/internal/profile"
)

// LoadSources 并发读取档案的全部规范数据，供 Selection Engine 使用。
func (s *Store) LoadSources(ctx context.Context, profileID string) (profile.Sources, error) {
	var (
		src   profile.Sources
		roles []database.ProfileRole
		sea   []database.SeaTime
		rov   []database.RovExperience
		certs []database.ProfileCert
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.db.WithContext(gctx).Preload("LookupRole").
			Where("profile_id = ?", profileID).Order("created_at ASC").Find(&roles).Error
		if err != nil {
			return fmt.Errorf("load roles: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.db.WithContext(gctx).
			Where("profile_id = ?", profileID).Order("start_date DESC").Order("id ASC").Find(&sea).Error
		if err != nil {
			return fmt.Errorf("load sea time: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.db.WithContext(gctx).
			Where("profile_id = ?", profileID).Order("start_date DESC").Order("id ASC").Find(&rov).Error
		if err != nil {
			return fmt.Errorf("load rov experience: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.db.WithContext(gctx).Preload("LookupCert").
			Where("profile_id = ?", profileID).Order("created_at DESC").Find(&certs).Error
		if err != nil {
			return fmt.Errorf("load certificates: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return profile.Sources{}, err
	}

	for _, r := range roles {
		src.Roles = append(src.Roles, r.ToAssignment())
	}
	for _, e := range sea {
		src.SeaTime = append(src.SeaTime, e.ToEntry())
	}
	for _, e := range rov {
		src.Rov = append(src.Rov, e.ToEntry())
	}
	for _, c := range certs {
		src.Certificates = append(src.Certificates, c.ToAssignment())
	}
	return src, nil
}

// ListLookupRoles 返回岗位字典。
func (s *Store) ListLookupRoles(ctx context.Context) ([]database.LookupRole, error) {
	var out []database.LookupRole
	err := s.db.WithContext(ctx).Order("category ASC").Order("role_name ASC").Find(&out).Error
	return out, err
}

// ListLookupCerts 返回证书字典。
func (s *Store) ListLookupCerts(ctx context.Context) ([]database.LookupCert, error) {
	var out []database.LookupCert
	err := s.db.WithContext(ctx).Order("category ASC").Order("cert_name ASC").Find(&out).Error
	return out, err
}

// SeedLookups 写入缺失的字典项，已存在的名称保持不变。
func (s *Store) SeedLookups(ctx context.Context, roles []database.LookupRole, certs []database.LookupCert) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range roles {
			row := r
			if err := tx.Where("role_name = ?", r.RoleName).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed role %q: %w", r.RoleName, err)
			}
		}
		for _, c := range certs {
			row := c
			if err := tx.Where("cert_name = ?", c.CertName).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed cert %q: %w", c.CertName, err)
			}
		}
		return nil
	})
}

// AddRoleAssignment 为档案添加岗位资格。
func (s *Store) AddRoleAssignment(ctx context.Context, profileID, lookupRoleID string) (profile.RoleAssignment, error) {
	var row database.ProfileRole
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lookup database.LookupRole
		if err := tx.Where("id = ?", lookupRoleID).First(&lookup).Error; err != nil {
			return mapErr(err)
		}
		row = database.ProfileRole{ProfileID: profileID, LookupRoleID: lookup.ID}
		if err := tx.Create(&row).Error; err != nil {
			return mapErr(err)
		}
		row.LookupRole = lookup
		return nil
	})
	if err != nil {
		return profile.RoleAssignment{}, err
	}
	return row.ToAssignment(), nil
}

// DeleteRoleAssignment 删除岗位资格，并把引用它的经历条目的 profile_role_id 置空。
func (s *Store) DeleteRoleAssignment(ctx context.Context, profileID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&database.SeaTime{}, &database.RovExperience{}} {
			err := tx.Model(model).
				Where("profile_id = ? AND profile_role_id = ?", profileID, id).
				UpdateColumn("profile_role_id", nil).Error
			if err != nil {
				return fmt.Errorf("detach role: %w", err)
			}
		}
		res := tx.Where("id = ? AND profile_id = ?", id, profileID).Delete(&database.ProfileRole{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// checkRoleOwnership 确认经历条目引用的岗位资格属于同一档案。
func checkRoleOwnership(tx *gorm.DB, profileID, profileRoleID string) error {
	if strings.TrimSpace(profileRoleID) == "" {
		return nil
	}
	var n int64
	err := tx.Model(&database.ProfileRole{}).
		Where("id = ? AND profile_id = ?", profileRoleID, profileID).Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return &profile.ValidationError{Field: "profile_role_id", Message: "unknown role for this profile"}
	}
	return nil
}

// deleteOwned 删除一条属于档案的记录。
func deleteOwned(ctx context.Context, db *gorm.DB, model any, profileID, id string) error {
	res := db.WithContext(ctx).Where("id = ? AND profile_id = ?", id, profileID).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
