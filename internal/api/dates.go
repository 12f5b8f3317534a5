package api

import (
	"strings"
	"time"

	"offshoreCV/internal/profile"
)

const dateLayout = "2006-01-02"

// parseDate 解析 YYYY-MM-DD；空字符串表示未填写。
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, &profile.ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
	}
	return &t, nil
}

func parseDateRange(start, end string) (*time.Time, *time.Time, error) {
	s, err := parseDate("start_date", start)
	if err != nil {
		return nil, nil, err
	}
	e, err := parseDate("end_date", end)
	if err != nil {
		return nil, nil, err
	}
	return s, e, nil
}
