// Package profile 定义从业者维护的原始档案数据：岗位资质、海上经历、ROV 项目与证书。
package profile

import (
	"strings"
	"time"
)

// Profile 是一个用户的公开档案。
type Profile struct {
	ID               string `json:"id"`
	FullName         string `json:"full_name"`
	Username         string `json:"username"`
	AvatarURL        string `json:"avatar_url"`
	PhoneNumber      string `json:"phone_number"`
	ContactEmail     string `json:"contact_email"`
	CurrentCity      string `json:"current_city"`
	CurrentCountry   string `json:"current_country"`
	Nationality      string `json:"nationality"`
	SubscriptionTier string `json:"subscription_tier"`
	PaidFlag         bool   `json:"is_paid"`
}

var paidTiers = map[string]struct{}{
	"pro":     {},
	"premium": {},
	"paid":    {},
}

// IsPaid 判断档案能否持有多份 CV。
func (p Profile) IsPaid() bool {
	if p.PaidFlag {
		return true
	}
	_, ok := paidTiers[strings.ToLower(strings.TrimSpace(p.SubscriptionTier))]
	return ok
}

// Location 拼接城市与国家，跳过空值。
func (p Profile) Location() string {
	parts := make([]string, 0, 2)
	for _, v := range []string{p.CurrentCity, p.CurrentCountry} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// RoleAssignment 表示档案从岗位字典中获得的资质。
// ID 是经历条目引用的分配 id。
type RoleAssignment struct {
	ID           string `json:"profile_role_id"`
	ProfileID    string `json:"profile_id"`
	LookupRoleID string `json:"role_id"`
	RoleName     string `json:"role_name"`
	Category     string `json:"category,omitempty"`
}

// SeaTimeEntry 记录一段船上服务经历。
type SeaTimeEntry struct {
	ID                string     `json:"id"`
	ProfileID         string     `json:"profile_id"`
	ProfileRoleID     string     `json:"profile_role_id,omitempty"`
	VesselName        string     `json:"vessel_name"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	SeaDays           *int       `json:"sea_days"`
	VoyageDescription string     `json:"voyage_description"`
}

// RovExperienceEntry 记录一个 ROV 项目。
type RovExperienceEntry struct {
	ID            string     `json:"id"`
	ProfileID     string     `json:"profile_id"`
	ProfileRoleID string     `json:"profile_role_id,omitempty"`
	ProjectName   string     `json:"project_name"`
	ClientName    string     `json:"client_name"`
	Location      string     `json:"location"`
	VesselName    string     `json:"vessel_name"`
	RovSystem     string     `json:"rov_system"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	OffshoreDays  *int       `json:"offshore_days"`
	DiveHours     *float64   `json:"dive_hours"`
	ScopeOfWork   string     `json:"scope_of_work"`
}

// CertificateAssignment 关联档案与证书定义。
// HasNoExpiry 为真时忽略 ExpiryDate。
type CertificateAssignment struct {
	ID             string     `json:"id"`
	ProfileID      string     `json:"profile_id"`
	LookupCertID   string     `json:"cert_id"`
	CertName       string     `json:"cert_name"`
	Category       string     `json:"category,omitempty"`
	IssuedBy       string     `json:"issued_by"`
	IssueDate      *time.Time `json:"issue_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	HasNoExpiry    bool       `json:"has_no_expiry"`
	CertificateURL string     `json:"certificate_url,omitempty"`
}

// Sources 按展示顺序汇总单个档案的各类数据。
type Sources struct {
	Roles        []RoleAssignment
	SeaTime      []SeaTimeEntry
	Rov          []RovExperienceEntry
	Certificates []CertificateAssignment
}
