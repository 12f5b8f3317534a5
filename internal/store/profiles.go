package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"offshoreCV/internal/database"
	"offshoreCV/internal/profile"
)

// Account 是认证所需的最小账号信息。
type Account struct {
	ID                 string
	Email              string
	PasswordHash       string
	MustChangePassword bool
}

// ProfileUpdate 是档案所有者可以修改的字段。
type ProfileUpdate struct {
	FullName       string `json:"full_name" binding:"max=255"`
	Username       string `json:"username" binding:"max=64"`
	PhoneNumber    string `json:"phone_number" binding:"max=64"`
	ContactEmail   string `json:"contact_email" binding:"max=255"`
	CurrentCity    string `json:"current_city" binding:"max=128"`
	CurrentCountry string `json:"current_country" binding:"max=128"`
	Nationality    string `json:"nationality" binding:"max=128"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount 在同一事务内创建账号与同 ID 的档案。username 可为空。
func (s *Store) CreateAccount(ctx context.Context, email, username, passwordHash string, mustChangePassword bool) (Account, error) {
	account := database.Account{
		Email:              normalizeEmail(email),
		PasswordHash:       passwordHash,
		MustChangePassword: mustChangePassword,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return mapErr(err)
		}
		p := database.Profile{Base: database.Base{ID: account.ID}}
		if username != "" {
			p.Username = &username
		}
		return mapErr(tx.Create(&p).Error)
	})
	if err != nil {
		return Account{}, err
	}
	return toAccount(account), nil
}

func toAccount(a database.Account) Account {
	return Account{
		ID:                 a.ID,
		Email:              a.Email,
		PasswordHash:       a.PasswordHash,
		MustChangePassword: a.MustChangePassword,
	}
}

// FindAccountByEmail 按邮箱查找账号。
func (s *Store) FindAccountByEmail(ctx context.Context, email string) (Account, error) {
	var a database.Account
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&a).Error; err != nil {
		return Account{}, mapErr(err)
	}
	return toAccount(a), nil
}

// FindAccount 按 ID 查找账号。
func (s *Store) FindAccount(ctx context.Context, id string) (Account, error) {
	var a database.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return Account{}, mapErr(err)
	}
	return toAccount(a), nil
}

// UpdatePassword 更新密码哈希并清除强制改密标记。
func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := s.db.WithContext(ctx).Model(&database.Account{}).Where("id = ?", id).Updates(map[string]any{
		"password_hash":        passwordHash,
		"must_change_password": false,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindProfile 按 ID 读取档案。
func (s *Store) FindProfile(ctx context.Context, id string) (profile.Profile, error) {
	var p database.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return profile.Profile{}, mapErr(err)
	}
	return p.ToProfile(), nil
}

// FindProfileByUsername 精确匹配用户名，不做大小写折叠。
func (s *Store) FindProfileByUsername(ctx context.Context, username string) (profile.Profile, bool, error) {
	var p database.Profile
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return profile.Profile{}, false, nil
	}
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("find profile by username: %w", err)
	}
	return p.ToProfile(), true, nil
}

// UpdateProfile 更新档案字段。用户名只能设置一次；重复则返回 ErrConflict。
func (s *Store) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (profile.Profile, error) {
	var out database.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("id = ?", id).First(&out).Error; err != nil {
			return mapErr(err)
		}

		updates := map[string]any{
			"full_name":       strings.TrimSpace(in.FullName),
			"phone_number":    strings.TrimSpace(in.PhoneNumber),
			"contact_email":   strings.TrimSpace(in.ContactEmail),
			"current_city":    strings.TrimSpace(in.CurrentCity),
			"current_country": strings.TrimSpace(in.CurrentCountry),
			"nationality":     strings.TrimSpace(in.Nationality),
		}

		if raw := strings.TrimSpace(in.Username); raw != "" {
			username := profile.NormalizeUsername(raw)
			if err := profile.ValidateUsername(username); err != nil {
				return err
			}
			current := ""
			if out.Username != nil {
				current = *out.Username
			}
			switch {
			case current == "":
				updates["username"] = username
			case current != username:
				return ErrUsernameImmutable
			}
		}

		if err := tx.Model(&out).Updates(updates).Error; err != nil {
			return mapErr(err)
		}
		return mapErr(tx.Where("id = ?", id).First(&out).Error)
	})
	if err != nil {
		return profile.Profile{}, err
	}
	return out.ToProfile(), nil
}

// SetAvatar 保存头像对象键与展示地址，返回旧的对象键，便于清理。
func (s *Store) SetAvatar(ctx context.Context, id, key, url string) (string, error) {
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p database.Profile
		if err := lockForUpdate(tx).Select("id", "avatar_key").Where("id = ?", id).First(&p).Error; err != nil {
			return mapErr(err)
		}
		previous = p.AvatarKey
		return tx.Model(&database.Profile{}).Where("id = ?", id).Updates(map[string]any{
			"avatar_key": key,
			"avatar_url": url,
		}).Error
	})
	return previous, err
}

// AvatarKey 返回档案头像的对象键；未上传时为空。
func (s *Store) AvatarKey(ctx context.Context, id string) (string, error) {
	var p database.Profile
	if err := s.db.WithContext(ctx).Select("id", "avatar_key").Where("id = ?", id).First(&p).Error; err != nil {
		return "", mapErr(err)
	}
	return p.AvatarKey, nil
}

// SetSubscription 由管理员调整套餐。
func (s *Store) SetSubscription(ctx context.Context, id, tier string, paid bool) error {
	res := s.db.WithContext(ctx).Model(&database.Profile{}).Where("id = ?", id).Updates(map[string]any{
		"subscription_tier": strings.ToLower(strings.TrimSpace(tier)),
		"is_paid":           paid,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
