package database

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"offshoreCV/internal/cv"
	"offshoreCV/internal/profile"
)

// Base 为所有表提供 uuid 主键与时间戳。
type Base struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate 在主键为空时生成 uuid。
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Account 保存登录凭据，与 Profile 共用主键。
type Account struct {
	Base
	Email              string `gorm:"uniqueIndex;size:255"`
	PasswordHash       string `gorm:"size:255"`
	MustChangePassword bool   `gorm:"default:false"`
}

// Profile 表示用户的公开档案。
type Profile struct {
	Base
	Username         *string `gorm:"uniqueIndex;size:64"`
	FullName         string  `gorm:"size:255"`
	AvatarURL        string  `gorm:"size:512"`
	AvatarKey        string  `gorm:"size:255"`
	PhoneNumber      string  `gorm:"size:64"`
	ContactEmail     string  `gorm:"size:255"`
	CurrentCity      string  `gorm:"size:128"`
	CurrentCountry   string  `gorm:"size:128"`
	Nationality      string  `gorm:"size:128"`
	SubscriptionTier string  `gorm:"size:32"`
	IsPaid           bool    `gorm:"default:false"`
}

// LookupRole 是可选岗位字典。
type LookupRole struct {
	Base
	RoleName string `gorm:"uniqueIndex;size:128"`
	Category string `gorm:"size:128"`
}

// LookupCert 是证书字典。
type LookupCert struct {
	Base
	CertName string `gorm:"uniqueIndex;size:255"`
	Category string `gorm:"size:128"`
}

// ProfileRole 表示档案持有的岗位资格。
type ProfileRole struct {
	Base
	ProfileID    string     `gorm:"type:uuid;not null;uniqueIndex:idx_profile_roles_pair,priority:1"`
	LookupRoleID string     `gorm:"type:uuid;not null;uniqueIndex:idx_profile_roles_pair,priority:2"`
	LookupRole   LookupRole `gorm:"foreignKey:LookupRoleID"`
}

// SeaTime 对应 profile_seatime 表。
type SeaTime struct {
	Base
	ProfileID         string     `gorm:"type:uuid;not null;index"`
	ProfileRoleID     *string    `gorm:"type:uuid;index"`
	VesselName        string     `gorm:"size:255"`
	StartDate         *time.Time `gorm:"type:date"`
	EndDate           *time.Time `gorm:"type:date"`
	SeaDays           *int
	VoyageDescription string `gorm:"type:text"`
}

func (SeaTime) TableName() string { return "profile_seatime" }

// RovExperience 对应 profile_rov_experience 表。
type RovExperience struct {
	Base
	ProfileID     string     `gorm:"type:uuid;not null;index"`
	ProfileRoleID *string    `gorm:"type:uuid;index"`
	ProjectName   string     `gorm:"size:255"`
	ClientName    string     `gorm:"size:255"`
	Location      string     `gorm:"size:255"`
	VesselName    string     `gorm:"size:255"`
	RovSystem     string     `gorm:"size:255"`
	StartDate     *time.Time `gorm:"type:date"`
	EndDate       *time.Time `gorm:"type:date"`
	OffshoreDays  *int
	DiveHours     *float64
	ScopeOfWork   string `gorm:"type:text"`
}

func (RovExperience) TableName() string { return "profile_rov_experience" }

// ProfileCert 表示档案持有的证书。
type ProfileCert struct {
	Base
	ProfileID      string     `gorm:"type:uuid;not null;index"`
	LookupCertID   string     `gorm:"type:uuid;not null"`
	LookupCert     LookupCert `gorm:"foreignKey:LookupCertID"`
	IssuedBy       string     `gorm:"size:255"`
	IssueDate      *time.Time `gorm:"type:date"`
	ExpiryDate     *time.Time `gorm:"type:date"`
	HasNoExpiry    bool       `gorm:"default:false"`
	CertificateURL string     `gorm:"size:512"`
}

// ProfileCV 是 CV 记录的存储形态。布尔与字符串列允许为空，
// 缺省值只在 ToRecord 中统一补齐。
type ProfileCV struct {
	Base
	ProfileID       string  `gorm:"type:uuid;not null;uniqueIndex:idx_profile_cvs_slug,priority:1;uniqueIndex:idx_profile_cvs_default,where:is_default_public = true"`
	Slug            *string `gorm:"size:64;uniqueIndex:idx_profile_cvs_slug,priority:2"`
	Title           *string `gorm:"size:255"`
	IsPublished     *bool   `gorm:"index"`
	IsDefaultPublic *bool

	IncludeAvatar       *bool
	IncludePersonal     *bool
	IncludePhone        *bool
	IncludeEmail        *bool
	IncludeLocation     *bool
	IncludeRoles        *bool
	IncludeSeatime      *bool
	IncludeRov          *bool
	IncludeCertificates *bool

	SelectedRoleIDs    datatypes.JSONSlice[string]
	SelectedSeatimeIDs datatypes.JSONSlice[string]
	SelectedRovIDs     datatypes.JSONSlice[string]
	SelectedCertIDs    datatypes.JSONSlice[string]

	Headline            *string `gorm:"size:255"`
	ProfessionalSummary *string `gorm:"type:text"`
	KeySkills           *string `gorm:"type:text"`
	LinkedinURL         *string `gorm:"size:512"`
	Education           *string `gorm:"type:text"`
	AdditionalNotes     *string `gorm:"type:text"`
	CustomSections      datatypes.JSON
}

// AllModels 列出需要迁移的全部表。
func AllModels() []any {
	return []any{
		&Account{},
		&Profile{},
		&LookupRole{},
		&LookupCert{},
		&ProfileRole{},
		&SeaTime{},
		&RovExperience{},
		&ProfileCert{},
		&ProfileCV{},
	}
}

// AutoMigrate 创建或更新全部表结构。
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func strOr(v *string, fallback string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback
	}
	return *v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func ptr[T any](v T) *T { return &v }

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// ToRecord 是持久层边界上的严格解析：补齐缺省值并产出完整类型的 cv.Record。
func (r ProfileCV) ToRecord() cv.Record {
	published := boolOr(r.IsPublished, false)
	return cv.Record{
		ID:              r.ID,
		ProfileID:       r.ProfileID,
		Title:           strOr(r.Title, cv.DefaultTitle),
		Slug:            strOr(r.Slug, cv.DefaultSlug),
		IsPublished:     published,
		IsDefaultPublic: published && boolOr(r.IsDefaultPublic, false),
		Flags: cv.Flags{
			Avatar:       boolOr(r.IncludeAvatar, true),
			Personal:     boolOr(r.IncludePersonal, false),
			Phone:        boolOr(r.IncludePhone, true),
			Email:        boolOr(r.IncludeEmail, true),
			Location:     boolOr(r.IncludeLocation, true),
			Roles:        boolOr(r.IncludeRoles, false),
			SeaTime:      boolOr(r.IncludeSeatime, false),
			Rov:          boolOr(r.IncludeRov, false),
			Certificates: boolOr(r.IncludeCertificates, false),
		},
		Selection: cv.Selection{
			RoleIDs:    nonNil(r.SelectedRoleIDs),
			SeaTimeIDs: nonNil(r.SelectedSeatimeIDs),
			RovIDs:     nonNil(r.SelectedRovIDs),
			CertIDs:    nonNil(r.SelectedCertIDs),
		},
		Freeform: cv.Freeform{
			Headline:            deref(r.Headline),
			ProfessionalSummary: deref(r.ProfessionalSummary),
			KeySkills:           deref(r.KeySkills),
			LinkedinURL:         deref(r.LinkedinURL),
			Education:           deref(r.Education),
			AdditionalNotes:     deref(r.AdditionalNotes),
		},
		CustomSections: parseCustomSections(r.CustomSections),
		UpdatedAt:      r.UpdatedAt,
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// parseCustomSections 容忍任意 JSON：非数组返回空，非字符串字段按空处理，
// 缺失 id 的条目按位置生成稳定 id。随后与写入路径走同一套规范化，
// 标题或内容任一为空的条目丢弃。
func parseCustomSections(raw datatypes.JSON) []cv.CustomSection {
	out := []cv.CustomSection{}
	if len(raw) == 0 {
		return out
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return out
	}
	for i, entry := range entries {
		var fields map[string]any
		if err := json.Unmarshal(entry, &fields); err != nil {
			fields = map[string]any{}
		}
		section := cv.CustomSection{
			ID:      stringField(fields, "id"),
			Title:   stringField(fields, "title"),
			Content: stringField(fields, "content"),
		}
		if strings.TrimSpace(section.ID) == "" {
			section.ID = fmt.Sprintf("section-%d", i+1)
		}
		out = append(out, section)
	}
	return cv.NormalizeCustomSections(out)
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// NewProfileCV 将已规范化的记录转换为存储形态。
func NewProfileCV(rec cv.Record) (ProfileCV, error) {
	sections, err := json.Marshal(rec.CustomSections)
	if err != nil {
		return ProfileCV{}, fmt.Errorf("marshal custom sections: %w", err)
	}
	return ProfileCV{
		Base:                Base{ID: rec.ID},
		ProfileID:           rec.ProfileID,
		Slug:                ptr(rec.Slug),
		Title:               ptr(rec.Title),
		IsPublished:         ptr(rec.IsPublished),
		IsDefaultPublic:     ptr(rec.IsDefaultPublic),
		IncludeAvatar:       ptr(rec.Flags.Avatar),
		IncludePersonal:     ptr(rec.Flags.Personal),
		IncludePhone:        ptr(rec.Flags.Phone),
		IncludeEmail:        ptr(rec.Flags.Email),
		IncludeLocation:     ptr(rec.Flags.Location),
		IncludeRoles:        ptr(rec.Flags.Roles),
		IncludeSeatime:      ptr(rec.Flags.SeaTime),
		IncludeRov:          ptr(rec.Flags.Rov),
		IncludeCertificates: ptr(rec.Flags.Certificates),
		SelectedRoleIDs:     datatypes.JSONSlice[string](nonNil(rec.Selection.RoleIDs)),
		SelectedSeatimeIDs:  datatypes.JSONSlice[string](nonNil(rec.Selection.SeaTimeIDs)),
		SelectedRovIDs:      datatypes.JSONSlice[string](nonNil(rec.Selection.RovIDs)),
		SelectedCertIDs:     datatypes.JSONSlice[string](nonNil(rec.Selection.CertIDs)),
		Headline:            ptr(rec.Freeform.Headline),
		ProfessionalSummary: ptr(rec.Freeform.ProfessionalSummary),
		KeySkills:           ptr(rec.Freeform.KeySkills),
		LinkedinURL:         ptr(rec.Freeform.LinkedinURL),
		Education:           ptr(rec.Freeform.Education),
		AdditionalNotes:     ptr(rec.Freeform.AdditionalNotes),
		CustomSections:      datatypes.JSON(sections),
	}, nil
}

// ToProfile 转换为领域对象。
func (p Profile) ToProfile() profile.Profile {
	return profile.Profile{
		ID:               p.ID,
		FullName:         p.FullName,
		Username:         deref(p.Username),
		AvatarURL:        p.AvatarURL,
		PhoneNumber:      p.PhoneNumber,
		ContactEmail:     p.ContactEmail,
		CurrentCity:      p.CurrentCity,
		CurrentCountry:   p.CurrentCountry,
		Nationality:      p.Nationality,
		SubscriptionTier: p.SubscriptionTier,
		PaidFlag:         p.IsPaid,
	}
}

const (
	unknownRole        = "Unknown Role"
	unknownCertificate = "Unknown Certificate"
)

func (r ProfileRole) ToAssignment() profile.RoleAssignment {
	name := strings.TrimSpace(r.LookupRole.RoleName)
	if name == "" {
		name = unknownRole
	}
	return profile.RoleAssignment{
		ID:           r.ID,
		ProfileID:    r.ProfileID,
		LookupRoleID: r.LookupRoleID,
		RoleName:     name,
		Category:     r.LookupRole.Category,
	}
}

func (s SeaTime) ToEntry() profile.SeaTimeEntry {
	return profile.SeaTimeEntry{
		ID:                s.ID,
		ProfileID:         s.ProfileID,
		ProfileRoleID:     deref(s.ProfileRoleID),
		VesselName:        s.VesselName,
		StartDate:         s.StartDate,
		EndDate:           s.EndDate,
		SeaDays:           s.SeaDays,
		VoyageDescription: s.VoyageDescription,
	}
}

func (r RovExperience) ToEntry() profile.RovExperienceEntry {
	return profile.RovExperienceEntry{
		ID:            r.ID,
		ProfileID:     r.ProfileID,
		ProfileRoleID: deref(r.ProfileRoleID),
		ProjectName:   r.ProjectName,
		ClientName:    r.ClientName,
		Location:      r.Location,
		VesselName:    r.VesselName,
		RovSystem:     r.RovSystem,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		OffshoreDays:  r.OffshoreDays,
		DiveHours:     r.DiveHours,
		ScopeOfWork:   r.ScopeOfWork,
	}
}

func (c ProfileCert) ToAssignment() profile.CertificateAssignment {
	name := strings.TrimSpace(c.LookupCert.CertName)
	if name == "" {
		name = unknownCertificate
	}
	return profile.CertificateAssignment{
		ID:             c.ID,
		ProfileID:      c.ProfileID,
		LookupCertID:   c.LookupCertID,
		CertName:       name,
		Category:       c.LookupCert.Category,
		IssuedBy:       c.IssuedBy,
		IssueDate:      c.IssueDate,
		ExpiryDate:     c.ExpiryDate,
		HasNoExpiry:    c.HasNoExpiry,
		CertificateURL: c.CertificateURL,
	}
}

// optionalID 将空字符串存为 NULL。
func OptionalID(id string) *string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return &id
}
