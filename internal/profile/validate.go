package profile

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidationError 描述一次可直接反馈给档案所有者的输入错误。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

const minUsernameLength = 3

// NormalizeUsername 转为小写并丢弃 [a-z0-9_] 以外的字符。
func NormalizeUsername(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateUsername 校验已规范化的用户名。
func ValidateUsername(username string) error {
	if username == "" {
		return invalid("username", "is required")
	}
	if username != NormalizeUsername(username) {
		return invalid("username", "may only contain lowercase letters, digits and underscores")
	}
	if utf8.RuneCountInString(username) < minUsernameLength {
		return invalid("username", "must be at least 3 characters")
	}
	return nil
}

// SeaDays 计算起止日期之间的整天数，首尾都计入。
func SeaDays(start, end time.Time) int {
	const day = 24 * time.Hour
	return int(end.Sub(start)/day) + 1
}

func checkRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return invalid("end_date", "must be the same as or later than start date")
	}
	return nil
}

// ValidateSeaTime 检查必填字段并填充 SeaDays。
func ValidateSeaTime(e *SeaTimeEntry) error {
	e.VesselName = strings.TrimSpace(e.VesselName)
	switch {
	case strings.TrimSpace(e.ProfileRoleID) == "":
		return invalid("profile_role_id", "role is required")
	case e.VesselName == "":
		return invalid("vessel_name", "vessel name is required")
	case e.StartDate == nil:
		return invalid("start_date", "start date is required")
	case e.EndDate == nil:
		return invalid("end_date", "end date is required")
	}
	if err := checkRange(e.StartDate, e.EndDate); err != nil {
		return err
	}
	days := SeaDays(*e.StartDate, *e.EndDate)
	e.SeaDays = &days
	return nil
}

// ValidateRov 检查 ROV 项目的必填字段。
func ValidateRov(e *RovExperienceEntry) error {
	e.ProjectName = strings.TrimSpace(e.ProjectName)
	switch {
	case strings.TrimSpace(e.ProfileRoleID) == "":
		return invalid("profile_role_id", "role is required")
	case e.ProjectName == "":
		return invalid("project_name", "project name is required")
	case e.StartDate == nil:
		return invalid("start_date", "start date is required")
	case e.EndDate == nil:
		return invalid("end_date", "end date is required")
	}
	if err := checkRange(e.StartDate, e.EndDate); err != nil {
		return err
	}
	if e.OffshoreDays != nil && *e.OffshoreDays < 0 {
		return invalid("offshore_days", "must not be negative")
	}
	if e.DiveHours != nil && *e.DiveHours < 0 {
		return invalid("dive_hours", "must not be negative")
	}
	return nil
}

// ValidateCertificate 要求填写到期日或勾选永久有效。
func ValidateCertificate(c *CertificateAssignment) error {
	if strings.TrimSpace(c.LookupCertID) == "" {
		return invalid("cert_id", "certificate is required")
	}
	if c.HasNoExpiry {
		c.ExpiryDate = nil
		return nil
	}
	if c.ExpiryDate == nil {
		return invalid("expiry_date", "set an expiry date or select no expiry")
	}
	if c.IssueDate != nil && c.ExpiryDate.Before(*c.IssueDate) {
		return invalid("expiry_date", "must not be before issue date")
	}
	return nil
}
