// Package cv 定义 CV 记录、选择引擎与公开发布解析规则。
package cv

import (
	"encoding/json"
	"time"
)

const (
	DefaultSlug  = "primary"
	DefaultTitle = "Untitled CV"
)

// Flags 控制各区块是否渲染。
type Flags struct {
	Avatar       bool `json:"include_avatar"`
	Personal     bool `json:"include_personal"`
	Phone        bool `json:"include_phone"`
	Email        bool `json:"include_email"`
	Location     bool `json:"include_location"`
	Roles        bool `json:"include_roles"`
	SeaTime      bool `json:"include_seatime"`
	Rov          bool `json:"include_rov"`
	Certificates bool `json:"include_certificates"`
}

// DefaultFlags 是开关缺省时采用的存储默认值。
func DefaultFlags() Flags {
	return Flags{
		Avatar:   true,
		Phone:    true,
		Email:    true,
		Location: true,
	}
}

// UnmarshalJSON 以 DefaultFlags 为起点，缺失的键保留默认值。
func (f *Flags) UnmarshalJSON(data []byte) error {
	type plain Flags
	v := plain(DefaultFlags())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Flags(v)
	return nil
}

// Selection 保存四类可选数据的外键列表。
type Selection struct {
	RoleIDs    []string `json:"selected_role_ids"`
	SeaTimeIDs []string `json:"selected_seatime_ids"`
	RovIDs     []string `json:"selected_rov_ids"`
	CertIDs    []string `json:"selected_cert_ids"`
}

// Freeform 为自由文本字段，多行字段按换行拆分。
type Freeform struct {
	Headline            string `json:"headline"`
	ProfessionalSummary string `json:"professional_summary"`
	KeySkills           string `json:"key_skills"`
	LinkedinURL         string `json:"linkedin_url"`
	Education           string `json:"education"`
	AdditionalNotes     string `json:"additional_notes"`
}

// CustomSection 是用户自定义的 markdown 区块。
type CustomSection struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Record 是完整类型化后的 CV 记录，只能由持久层解析步骤产生。
type Record struct {
	ID              string          `json:"id"`
	ProfileID       string          `json:"profile_id"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	IsPublished     bool            `json:"is_published"`
	IsDefaultPublic bool            `json:"is_default_public"`
	Flags           Flags           `json:"flags"`
	Selection       Selection       `json:"selection"`
	Freeform        Freeform        `json:"freeform"`
	CustomSections  []CustomSection `json:"custom_sections"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
