package cv

import (
	"strings"

	"offshoreCV/internal/profile"
)

// Draft 是 CV Builder 提交的原始内容。ID 为空表示新建。
type Draft struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	IsPublished     bool            `json:"is_published"`
	IsDefaultPublic bool            `json:"is_default_public"`
	Flags           *Flags          `json:"flags"`
	Selection       Selection       `json:"selection"`
	Freeform        Freeform        `json:"freeform"`
	CustomSections  []CustomSection `json:"custom_sections"`
}

// IsNew 判断保存草稿是否会新建记录。
func (d Draft) IsNew() bool {
	return strings.TrimSpace(d.ID) == ""
}

// Normalize 将草稿转换为记录：规范化 slug、标题、选择列表与自定义区块。
// 发布相关的默认标记在 ApplyPublicationRules 中处理。
func (d Draft) Normalize(profileID string) Record {
	flags := DefaultFlags()
	if d.Flags != nil {
		flags = *d.Flags
	}
	return Record{
		ID:              strings.TrimSpace(d.ID),
		ProfileID:       profileID,
		Title:           NormalizeTitle(d.Title),
		Slug:            NormalizeSlug(d.Slug, d.Title),
		IsPublished:     d.IsPublished,
		IsDefaultPublic: d.IsDefaultPublic,
		Flags:           flags,
		Selection: Selection{
			RoleIDs:    NormalizeIDs(d.Selection.RoleIDs),
			SeaTimeIDs: NormalizeIDs(d.Selection.SeaTimeIDs),
			RovIDs:     NormalizeIDs(d.Selection.RovIDs),
			CertIDs:    NormalizeIDs(d.Selection.CertIDs),
		},
		Freeform: Freeform{
			Headline:            strings.TrimSpace(d.Freeform.Headline),
			ProfessionalSummary: d.Freeform.ProfessionalSummary,
			KeySkills:           d.Freeform.KeySkills,
			LinkedinURL:         strings.TrimSpace(d.Freeform.LinkedinURL),
			Education:           d.Freeform.Education,
			AdditionalNotes:     d.Freeform.AdditionalNotes,
		},
		CustomSections: NormalizeCustomSections(d.CustomSections),
	}
}

// ApplyPublicationRules 保证默认公开的记录一定已发布；
// 已发布且将是档案唯一 CV 的记录总是默认公开。
func ApplyPublicationRules(rec *Record, totalAfterSave int) {
	if !rec.IsPublished {
		rec.IsDefaultPublic = false
		return
	}
	if totalAfterSave == 1 {
		rec.IsDefaultPublic = true
	}
}

// CheckQuota 在新建 CV 前检查套餐限额：免费档案最多一份。
func CheckQuota(owner profile.Profile, existing int64) error {
	if owner.IsPaid() {
		return nil
	}
	if existing >= 1 {
		return ErrQuotaExceeded
	}
	return nil
}
