package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"offshoreCV/internal/database"
	"offshoreCV/internal/profile"
)

// ListCertificates 返回档案的证书，最近添加的在前。
func (s *Store) ListCertificates(ctx context.Context, profileID string) ([]profile.CertificateAssignment, error) {
	var rows []database.ProfileCert
	if err := s.db.WithContext(ctx).Preload("LookupCert").
		Where("profile_id = ?", profileID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]profile.CertificateAssignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToAssignment())
	}
	return out, nil
}

// GetCertificate 读取档案拥有的单个证书。
func (s *Store) GetCertificate(ctx context.Context, profileID, id string) (profile.CertificateAssignment, error) {
	var row database.ProfileCert
	if err := s.db.WithContext(ctx).Preload("LookupCert").
		Where("id = ? AND profile_id = ?", id, profileID).First(&row).Error; err != nil {
		return profile.CertificateAssignment{}, mapErr(err)
	}
	return row.ToAssignment(), nil
}

// SaveCertificate 校验并写入证书；文档路径只能通过 SetCertificateDocument 修改。
func (s *Store) SaveCertificate(ctx context.Context, profileID string, c profile.CertificateAssignment) (profile.CertificateAssignment, error) {
	if err := profile.ValidateCertificate(&c); err != nil {
		return profile.CertificateAssignment{}, err
	}
	var row database.ProfileCert
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lookup database.LookupCert
		if err := tx.Where("id = ?", c.LookupCertID).First(&lookup).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &profile.ValidationError{Field: "cert_id", Message: "unknown certificate"}
			}
			return err
		}

		documentKey := ""
		if c.ID != "" {
			var existing database.ProfileCert
			if err := tx.Select("id", "certificate_url").
				Where("id = ? AND profile_id = ?", c.ID, profileID).First(&existing).Error; err != nil {
				return mapErr(err)
			}
			documentKey = existing.CertificateURL
		}

		row = database.ProfileCert{
			Base:           database.Base{ID: c.ID},
			ProfileID:      profileID,
			LookupCertID:   lookup.ID,
			IssuedBy:       c.IssuedBy,
			IssueDate:      c.IssueDate,
			ExpiryDate:     c.ExpiryDate,
			HasNoExpiry:    c.HasNoExpiry,
			CertificateURL: documentKey,
		}
		if err := writeOwned(tx, &row, row.ID, profileID); err != nil {
			return err
		}
		row.LookupCert = lookup
		return nil
	})
	if err != nil {
		return profile.CertificateAssignment{}, err
	}
	return row.ToAssignment(), nil
}

// SetCertificateDocument 记录证书文档的对象键，返回被替换的旧键。
func (s *Store) SetCertificateDocument(ctx context.Context, profileID, id, key string) (string, error) {
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row database.ProfileCert
		if err := lockForUpdate(tx).Select("id", "certificate_url").
			Where("id = ? AND profile_id = ?", id, profileID).First(&row).Error; err != nil {
			return mapErr(err)
		}
		previous = row.CertificateURL
		return tx.Model(&database.ProfileCert{}).Where("id = ?", id).Update("certificate_url", key).Error
	})
	return previous, err
}

// DeleteCertificate 删除证书并返回其文档对象键（可能为空），供后台清理。
func (s *Store) DeleteCertificate(ctx context.Context, profileID, id string) (string, error) {
	var key string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row database.ProfileCert
		if err := tx.Select("id", "certificate_url").
			Where("id = ? AND profile_id = ?", id, profileID).First(&row).Error; err != nil {
			return mapErr(err)
		}
		key = row.CertificateURL
		return tx.Delete(&database.ProfileCert{}, "id = ?", id).Error
	})
	return key, err
}
