package cv

import (
	"strings"

	"offshoreCV/internal/profile"
)

const (
	SeaTimeFallbackLabel = "Sea Time Entry"
	RovFallbackLabel     = "ROV Project"
	unnamedVessel        = "Unnamed vessel"
	unnamedProject       = "Unnamed project"
	noExpiryLabel        = "No expiry"
)

// Renderable 是公开页面与预览所需的全部内容；渲染层只做展示。
type Renderable struct {
	CVID            string                `json:"cv_id"`
	Title           string                `json:"title"`
	Slug            string                `json:"slug"`
	Username        string                `json:"username"`
	FullName        string                `json:"full_name"`
	Headline        string                `json:"headline,omitempty"`
	ShowAvatar      bool                  `json:"show_avatar"`
	AvatarURL       string                `json:"avatar_url,omitempty"`
	Contact         *Contact              `json:"contact,omitempty"`
	Summary         []string              `json:"professional_summary,omitempty"`
	KeySkills       []string              `json:"key_skills,omitempty"`
	Roles           []RenderedRole        `json:"roles,omitempty"`
	SeaTime         []RenderedSeaTime     `json:"sea_time,omitempty"`
	Rov             []RenderedRov         `json:"rov_experience,omitempty"`
	Certificates    []RenderedCertificate `json:"certificates,omitempty"`
	Education       []string              `json:"education,omitempty"`
	AdditionalNotes []string              `json:"additional_notes,omitempty"`
	CustomSections  []CustomSection       `json:"custom_sections,omitempty"`
	ShowPromo       bool                  `json:"show_promo"`

	// Dangling 列出所有者名下找不到记录的已选 id。
	Dangling []Anomaly `json:"-"`
}

// Contact 仅在 include_personal 打开时输出；子字段各自受开关控制。
type Contact struct {
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
	Location   *string `json:"location,omitempty"`
	ProfileURL string  `json:"profile_url,omitempty"`
}

type RenderedRole struct {
	ID       string `json:"profile_role_id"`
	Name     string `json:"role_name"`
	Category string `json:"category,omitempty"`
}

type RenderedSeaTime struct {
	ID        string   `json:"id"`
	Vessel    string   `json:"vessel_name"`
	RoleLabel string   `json:"role_label"`
	Dates     string   `json:"dates"`
	SeaDays   *int     `json:"sea_days,omitempty"`
	Voyage    []string `json:"voyage_description,omitempty"`
}

type RenderedRov struct {
	ID           string   `json:"id"`
	Project      string   `json:"project_name"`
	RoleLabel    string   `json:"role_label"`
	Client       string   `json:"client_name,omitempty"`
	Location     string   `json:"location,omitempty"`
	Dates        string   `json:"dates"`
	OffshoreDays *int     `json:"offshore_days,omitempty"`
	DiveHours    *float64 `json:"dive_hours,omitempty"`
	Scope        []string `json:"scope_of_work,omitempty"`
}

type RenderedCertificate struct {
	ID          string `json:"id"`
	Name        string `json:"cert_name"`
	Category    string `json:"category,omitempty"`
	IssuedBy    string `json:"issued_by,omitempty"`
	Issued      string `json:"issued,omitempty"`
	Expires     string `json:"expires,omitempty"`
	HasDocument bool   `json:"has_document"`
}

// idSet 把选择列表当作集合使用。
type idSet map[string]struct{}

func newIDSet(ids []string) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

func owned(recordProfileID, itemProfileID string) bool {
	return recordProfileID == "" || itemProfileID == "" || recordProfileID == itemProfileID
}

// pick 按源顺序保留已选且属于所有者的条目，同一 id 只出现一次。
func pick[T any](items []T, selected idSet, recordProfileID string, key func(T) (id, profileID string)) ([]T, idSet) {
	found := make(idSet)
	var out []T
	for _, item := range items {
		id, pid := key(item)
		if !selected.has(id) || !owned(recordProfileID, pid) || found.has(id) {
			continue
		}
		found[id] = struct{}{}
		out = append(out, item)
	}
	return out, found
}

func dangling(rec Record, kind string, selected []string, found idSet) []Anomaly {
	var out []Anomaly
	seen := make(idSet)
	for _, id := range selected {
		if found.has(id) || seen.has(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Anomaly{
			Kind:      AnomalyDanglingSelection,
			ProfileID: rec.ProfileID,
			RecordID:  rec.ID,
			Detail:    kind + ":" + id,
		})
	}
	return out
}

// Resolve 根据 CV 记录的开关与选择列表，从档案数据中计算出需要渲染的内容。
// 纯函数：相同输入总是得到相同输出。
func Resolve(rec Record, owner profile.Profile, src profile.Sources) Renderable {
	out := Renderable{
		CVID:      rec.ID,
		Title:     rec.Title,
		Slug:      rec.Slug,
		Username:  owner.Username,
		FullName:  owner.FullName,
		Headline:  strings.TrimSpace(rec.Freeform.Headline),
		ShowPromo: !owner.IsPaid(),
	}

	if rec.Flags.Avatar {
		out.ShowAvatar = true
		out.AvatarURL = owner.AvatarURL
	}

	if rec.Flags.Personal {
		c := &Contact{ProfileURL: strings.TrimSpace(rec.Freeform.LinkedinURL)}
		if rec.Flags.Phone {
			v := owner.PhoneNumber
			c.Phone = &v
		}
		if rec.Flags.Email {
			v := owner.ContactEmail
			c.Email = &v
		}
		if rec.Flags.Location {
			v := owner.Location()
			c.Location = &v
		}
		out.Contact = c
	}

	roleLabels := make(map[string]string, len(src.Roles))
	for _, r := range src.Roles {
		if owned(rec.ProfileID, r.ProfileID) {
			roleLabels[r.ID] = r.RoleName
		}
	}
	label := func(profileRoleID, fallback string) string {
		if profileRoleID == "" {
			return fallback
		}
		if name, ok := roleLabels[profileRoleID]; ok && name != "" {
			return name
		}
		return fallback
	}

	roles, foundRoles := pick(src.Roles, newIDSet(rec.Selection.RoleIDs), rec.ProfileID,
		func(r profile.RoleAssignment) (string, string) { return r.ID, r.ProfileID })
	seaTime, foundSea := pick(src.SeaTime, newIDSet(rec.Selection.SeaTimeIDs), rec.ProfileID,
		func(e profile.SeaTimeEntry) (string, string) { return e.ID, e.ProfileID })
	rov, foundRov := pick(src.Rov, newIDSet(rec.Selection.RovIDs), rec.ProfileID,
		func(e profile.RovExperienceEntry) (string, string) { return e.ID, e.ProfileID })
	certs, foundCerts := pick(src.Certificates, newIDSet(rec.Selection.CertIDs), rec.ProfileID,
		func(c profile.CertificateAssignment) (string, string) { return c.ID, c.ProfileID })

	if rec.Flags.Roles && len(roles) > 0 {
		out.Roles = make([]RenderedRole, 0, len(roles))
		for _, r := range roles {
			out.Roles = append(out.Roles, RenderedRole{ID: r.ID, Name: r.RoleName, Category: r.Category})
		}
	}

	if rec.Flags.SeaTime && len(seaTime) > 0 {
		out.SeaTime = make([]RenderedSeaTime, 0, len(seaTime))
		for _, e := range seaTime {
			vessel := strings.TrimSpace(e.VesselName)
			if vessel == "" {
				vessel = unnamedVessel
			}
			out.SeaTime = append(out.SeaTime, RenderedSeaTime{
				ID:        e.ID,
				Vessel:    vessel,
				RoleLabel: label(e.ProfileRoleID, SeaTimeFallbackLabel),
				Dates:     FormatDateRange(e.StartDate, e.EndDate),
				SeaDays:   e.SeaDays,
				Voyage:    AsList(e.VoyageDescription),
			})
		}
	}

	if rec.Flags.Rov && len(rov) > 0 {
		out.Rov = make([]RenderedRov, 0, len(rov))
		for _, e := range rov {
			project := strings.TrimSpace(e.ProjectName)
			if project == "" {
				project = unnamedProject
			}
			out.Rov = append(out.Rov, RenderedRov{
				ID:           e.ID,
				Project:      project,
				RoleLabel:    label(e.ProfileRoleID, RovFallbackLabel),
				Client:       strings.TrimSpace(e.ClientName),
				Location:     strings.TrimSpace(e.Location),
				Dates:        FormatDateRange(e.StartDate, e.EndDate),
				OffshoreDays: e.OffshoreDays,
				DiveHours:    e.DiveHours,
				Scope:        AsList(e.ScopeOfWork),
			})
		}
	}

	if rec.Flags.Certificates && len(certs) > 0 {
		out.Certificates = make([]RenderedCertificate, 0, len(certs))
		for _, c := range certs {
			expires := FormatDate(c.ExpiryDate)
			if c.HasNoExpiry {
				expires = noExpiryLabel
			}
			out.Certificates = append(out.Certificates, RenderedCertificate{
				ID:          c.ID,
				Name:        c.CertName,
				Category:    c.Category,
				IssuedBy:    c.IssuedBy,
				Issued:      FormatDate(c.IssueDate),
				Expires:     expires,
				HasDocument: c.CertificateURL != "",
			})
		}
	}

	out.Summary = AsList(rec.Freeform.ProfessionalSummary)
	out.KeySkills = AsList(rec.Freeform.KeySkills)
	out.Education = AsList(rec.Freeform.Education)
	out.AdditionalNotes = AsList(rec.Freeform.AdditionalNotes)

	for _, s := range rec.CustomSections {
		if strings.TrimSpace(s.Title) == "" || strings.TrimSpace(s.Content) == "" {
			continue
		}
		out.CustomSections = append(out.CustomSections, s)
	}

	out.Dangling = append(out.Dangling, dangling(rec, "role", rec.Selection.RoleIDs, foundRoles)...)
	out.Dangling = append(out.Dangling, dangling(rec, "seatime", rec.Selection.SeaTimeIDs, foundSea)...)
	out.Dangling = append(out.Dangling, dangling(rec, "rov", rec.Selection.RovIDs, foundRov)...)
	out.Dangling = append(out.Dangling, dangling(rec, "cert", rec.Selection.CertIDs, foundCerts)...)

	return out
}
