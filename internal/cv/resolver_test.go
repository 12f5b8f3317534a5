package cv

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offshoreCV/internal/profile"
)

type fakePublicStore struct {
	profiles map[string]profile.Profile
	cvs      map[string][]Record
	err      error
}

func (f *fakePublicStore) FindProfileByUsername(_ context.Context, username string) (profile.Profile, bool, error) {
	if f.err != nil {
		return profile.Profile{}, false, f.err
	}
	p, ok := f.profiles[username]
	return p, ok, nil
}

func (f *fakePublicStore) PublishedCVs(_ context.Context, profileID string) ([]Record, error) {
	var out []Record
	for _, r := range f.cvs[profileID] {
		if r.IsPublished {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePublicStore) PublishedCVsBySlug(ctx context.Context, profileID, slug string) ([]Record, error) {
	rows, _ := f.PublishedCVs(ctx, profileID)
	var out []Record
	for _, r := range rows {
		if r.Slug == slug {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestResolver(store PublicStore) (*Resolver, *[]Anomaly) {
	var reported []Anomaly
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewResolver(store, logger, AnomalyReporterFunc(func(a Anomaly) {
		reported = append(reported, a)
	}))
	return r, &reported
}

func at(hour int) time.Time {
	return time.Date(2025, time.January, 1, hour, 0, 0, 0, time.UTC)
}

func TestResolvePublicUnknownUser(t *testing.T) {
	r, _ := newTestResolver(&fakePublicStore{})
	_, err := r.ResolvePublic(context.Background(), "nobody", "")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestResolvePublicStoreError(t *testing.T) {
	boom := errors.New("db down")
	r, _ := newTestResolver(&fakePublicStore{err: boom})
	_, err := r.ResolvePublic(context.Background(), "jane", "")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrProfileNotFound)
}

func TestResolvePublicDefaultAndSlug(t *testing.T) {
	store := &fakePublicStore{
		profiles: map[string]profile.Profile{"jane": {ID: "p1", Username: "jane"}},
		cvs: map[string][]Record{"p1": {
			{ID: "a", ProfileID: "p1", Slug: "primary", IsPublished: true, IsDefaultPublic: true, UpdatedAt: at(1)},
			{ID: "b", ProfileID: "p1", Slug: "survey", IsPublished: true, UpdatedAt: at(2)},
			{ID: "c", ProfileID: "p1", Slug: "draft", UpdatedAt: at(3)},
		}},
	}
	r, reported := newTestResolver(store)
	ctx := context.Background()

	res, err := r.ResolvePublic(ctx, "jane", "")
	require.NoError(t, err)
	assert.Equal(t, "a", res.Record.ID)
	assert.Equal(t, "p1", res.Profile.ID)

	res, err = r.ResolvePublic(ctx, "jane", "survey")
	require.NoError(t, err)
	assert.Equal(t, "b", res.Record.ID)

	_, err = r.ResolvePublic(ctx, "jane", "draft")
	assert.ErrorIs(t, err, ErrCVNotFound)
	assert.Empty(t, *reported)
}

func TestResolvePublicNothingPublished(t *testing.T) {
	store := &fakePublicStore{
		profiles: map[string]profile.Profile{"sam": {ID: "p2", Username: "sam"}},
		cvs:      map[string][]Record{"p2": {{ID: "x", ProfileID: "p2", Slug: "primary"}}},
	}
	r, _ := newTestResolver(store)
	_, err := r.ResolvePublic(context.Background(), "sam", "")
	assert.ErrorIs(t, err, ErrCVNotFound)
}

func TestResolvePublicDuplicateSlugReportsAnomaly(t *testing.T) {
	store := &fakePublicStore{
		profiles: map[string]profile.Profile{"ana": {ID: "p3", Username: "ana"}},
		cvs: map[string][]Record{"p3": {
			{ID: "old", ProfileID: "p3", Slug: "ops", IsPublished: true, UpdatedAt: at(1)},
			{ID: "new", ProfileID: "p3", Slug: "ops", IsPublished: true, UpdatedAt: at(5)},
		}},
	}
	r, reported := newTestResolver(store)

	res, err := r.ResolvePublic(context.Background(), "ana", "ops")
	require.NoError(t, err)
	assert.Equal(t, "new", res.Record.ID)
	require.Len(t, *reported, 1)
	assert.Equal(t, AnomalyDuplicateSlug, (*reported)[0].Kind)
}

func TestPickDefault(t *testing.T) {
	single := []Record{{ID: "only"}}
	got, anomalies := PickDefault(single)
	assert.Equal(t, "only", got.ID)
	assert.Empty(t, anomalies)

	none := []Record{
		{ID: "a", Slug: "b-slug", UpdatedAt: at(3)},
		{ID: "b", Slug: "a-slug", UpdatedAt: at(3)},
		{ID: "c", Slug: "c-slug", UpdatedAt: at(1)},
	}
	got, anomalies = PickDefault(none)
	assert.Equal(t, "b", got.ID, "ties on updated_at break by slug")
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyNoDefault, anomalies[0].Kind)

	multi := []Record{
		{ID: "a", IsDefaultPublic: true, UpdatedAt: at(1)},
		{ID: "b", IsDefaultPublic: true, UpdatedAt: at(4)},
		{ID: "c", UpdatedAt: at(9)},
	}
	got, anomalies = PickDefault(multi)
	assert.Equal(t, "b", got.ID)
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyMultipleDefaults, anomalies[0].Kind)
}
