package cv

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"offshoreCV/internal/profile"
)

// PublicStore 是公开解析所需的只读持久化接口。
type PublicStore interface {
	// FindProfileByUsername 与存储的小写用户名精确匹配。
	FindProfileByUsername(ctx context.Context, username string) (profile.Profile, bool, error)
	// PublishedCVs 返回档案的全部已发布 CV。
	PublishedCVs(ctx context.Context, profileID string) ([]Record, error)
	// PublishedCVsBySlug 返回档案下使用该 slug 的已发布 CV。
	PublishedCVsBySlug(ctx context.Context, profileID, slug string) ([]Record, error)
}

// Resolution 是可公开展示的 CV 及其所有者。
type Resolution struct {
	Profile profile.Profile
	Record  Record
}

// Resolver 将 (username, slug) 映射到至多一份可公开访问的 CV。
type Resolver struct {
	store    PublicStore
	logger   *slog.Logger
	reporter AnomalyReporter
}

// NewResolver 构造 Resolver；reporter 可为 nil。
func NewResolver(store PublicStore, logger *slog.Logger, reporter AnomalyReporter) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger, reporter: reporter}
}

// ResolvePublic 返回 ErrProfileNotFound、ErrCVNotFound 或解析出的 CV。
func (r *Resolver) ResolvePublic(ctx context.Context, username, slug string) (Resolution, error) {
	owner, found, err := r.store.FindProfileByUsername(ctx, username)
	if err != nil {
		return Resolution{}, fmt.Errorf("find profile %q: %w", username, err)
	}
	if !found {
		return Resolution{}, ErrProfileNotFound
	}

	var (
		record    Record
		anomalies []Anomaly
	)
	if slug = strings.TrimSpace(slug); slug != "" {
		rows, err := r.store.PublishedCVsBySlug(ctx, owner.ID, slug)
		if err != nil {
			return Resolution{}, fmt.Errorf("load published cv %q: %w", slug, err)
		}
		if len(rows) == 0 {
			return Resolution{}, ErrCVNotFound
		}
		record = rows[0]
		if len(rows) > 1 {
			record = newest(rows)
			anomalies = append(anomalies, Anomaly{
				Kind:      AnomalyDuplicateSlug,
				ProfileID: owner.ID,
				RecordID:  record.ID,
				Detail:    fmt.Sprintf("%d published cvs share slug %q", len(rows), slug),
			})
		}
	} else {
		rows, err := r.store.PublishedCVs(ctx, owner.ID)
		if err != nil {
			return Resolution{}, fmt.Errorf("load published cvs: %w", err)
		}
		if len(rows) == 0 {
			return Resolution{}, ErrCVNotFound
		}
		record, anomalies = PickDefault(rows)
	}

	for _, a := range anomalies {
		r.report(a)
	}
	return Resolution{Profile: owner, Record: record}, nil
}

func (r *Resolver) report(a Anomaly) {
	r.logger.Warn("cv integrity anomaly",
		slog.String("anomaly", string(a.Kind)),
		slog.String("profile_id", a.ProfileID),
		slog.String("cv_id", a.RecordID),
		slog.String("detail", a.Detail),
	)
	if r.reporter != nil {
		r.reporter.ReportAnomaly(a)
	}
}

// PickDefault 从已发布的记录中选出根 URL 对应的 CV。
// 仅一条时直接返回；多条时取 is_default_public 的那条；
// 没有或多于一条默认记录属于异常，回落到最近更新的记录。
func PickDefault(published []Record) (Record, []Anomaly) {
	if len(published) == 1 {
		return published[0], nil
	}

	var defaults []Record
	for _, rec := range published {
		if rec.IsDefaultPublic {
			defaults = append(defaults, rec)
		}
	}

	switch len(defaults) {
	case 1:
		return defaults[0], nil
	case 0:
		pick := newest(published)
		return pick, []Anomaly{{
			Kind:      AnomalyNoDefault,
			ProfileID: pick.ProfileID,
			RecordID:  pick.ID,
			Detail:    fmt.Sprintf("%d published cvs and none is default", len(published)),
		}}
	default:
		pick := newest(defaults)
		return pick, []Anomaly{{
			Kind:      AnomalyMultipleDefaults,
			ProfileID: pick.ProfileID,
			RecordID:  pick.ID,
			Detail:    fmt.Sprintf("%d published cvs marked default", len(defaults)),
		}}
	}
}

// newest 按 updated_at 降序，其次 slug 升序，最后 id 升序。
func newest(records []Record) Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if a.Slug != b.Slug {
			return a.Slug < b.Slug
		}
		return a.ID < b.ID
	})
	return sorted[0]
}
