package cv

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	MaxCustomSections     = 12
	MaxSectionTitleLength = 120
	MaxSectionContentLen  = 12000
	maxSlugLength         = 64
)

// NormalizeSlug 将任意输入转换为 url 安全的 slug；raw 为空时改用 title，结果为空时回落到 "primary"。
func NormalizeSlug(raw, title string) string {
	src := raw
	if strings.TrimSpace(src) == "" {
		src = title
	}
	s := slug.Make(strings.ReplaceAll(src, "_", " "))
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	if s == "" {
		return DefaultSlug
	}
	return s
}

// NormalizeTitle 去除首尾空白，空标题回落到 DefaultTitle。
func NormalizeTitle(raw string) string {
	if t := strings.TrimSpace(raw); t != "" {
		return truncateRunes(t, MaxSectionTitleLength)
	}
	return DefaultTitle
}

// normalizeMarkdown 只做文本层面的清理：去掉 NUL，统一换行为 LF，首尾去空白。
// 内容按 markdown 原样保存，HTML 由渲染层处理。
func normalizeMarkdown(value string) string {
	value = strings.ReplaceAll(value, "\x00", "")
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, "\r", "\n")
	return strings.TrimSpace(value)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// NormalizeCustomSections 最多保留 12 个区块，限制标题与内容长度，
// 丢弃标题或内容为空的条目；缺失的 id 用 uuid 补齐。
func NormalizeCustomSections(raw []CustomSection) []CustomSection {
	if len(raw) > MaxCustomSections {
		raw = raw[:MaxCustomSections]
	}
	out := make([]CustomSection, 0, len(raw))
	for _, s := range raw {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			id = uuid.NewString()
		}
		title := truncateRunes(strings.TrimSpace(strings.ReplaceAll(s.Title, "\x00", "")), MaxSectionTitleLength)
		content := strings.TrimSpace(truncateRunes(normalizeMarkdown(s.Content), MaxSectionContentLen))
		if title == "" || content == "" {
			continue
		}
		out = append(out, CustomSection{ID: id, Title: title, Content: content})
	}
	return out
}

// NormalizeIDs 去空白、丢弃空值并去重，保留首次出现的顺序。
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// AsList 按换行拆分，逐行去空白并丢弃空行；保留顺序与重复项。
func AsList(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// FormatDate 以 "Jan 2006" 格式输出日期，nil 输出空串。
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("Jan 2006")
}

// FormatDateRange 两端分别格式化，缺少结束日期时输出 "Present"。
func FormatDateRange(start, end *time.Time) string {
	to := FormatDate(end)
	if to == "" {
		to = "Present"
	}
	return FormatDate(start) + " - " + to
}
