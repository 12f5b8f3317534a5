package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"offshoreCV/internal/cv"
)

func TestToRecordAppliesStoredDefaults(t *testing.T) {
	updated := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	row := ProfileCV{Base: Base{ID: "cv-1", UpdatedAt: updated}, ProfileID: "p-1"}

	rec := row.ToRecord()

	assert.Equal(t, cv.DefaultTitle, rec.Title)
	assert.Equal(t, cv.DefaultSlug, rec.Slug)
	assert.False(t, rec.IsPublished)
	assert.False(t, rec.IsDefaultPublic)
	assert.Equal(t, cv.DefaultFlags(), rec.Flags)
	assert.NotNil(t, rec.Selection.RoleIDs)
	assert.Empty(t, rec.Selection.RoleIDs)
	assert.Empty(t, rec.CustomSections)
	assert.Equal(t, updated, rec.UpdatedAt)
}

func TestToRecordNeverDefaultWhenUnpublished(t *testing.T) {
	yes, no := true, false
	rec := ProfileCV{IsPublished: &no, IsDefaultPublic: &yes}.ToRecord()
	assert.False(t, rec.IsDefaultPublic)

	rec = ProfileCV{IsPublished: &yes, IsDefaultPublic: &yes}.ToRecord()
	assert.True(t, rec.IsDefaultPublic)
}

func TestParseCustomSectionsTolerant(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []cv.CustomSection
	}{
		{name: "not json", raw: `{oops`, want: []cv.CustomSection{}},
		{name: "object", raw: `{"title":"x"}`, want: []cv.CustomSection{}},
		{
			name: "mixed entries",
			raw:  `[{"id":"a","title":"Languages","content":"English"},{"title":7,"content":"Dutch"},"junk",{"title":"","content":""},{"title":" Tools ","content":"Torque\r\nRigging"}]`,
			want: []cv.CustomSection{
				{ID: "a", Title: "Languages", Content: "English"},
				{ID: "section-5", Title: "Tools", Content: "Torque\nRigging"},
			},
		},
		{
			name: "title only or content only",
			raw:  `[{"id":"t","title":"Heading","content":"   "},{"id":"c","title":"","content":"Body"},{"id":"ok","title":"Both","content":"Set"}]`,
			want: []cv.CustomSection{{ID: "ok", Title: "Both", Content: "Set"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseCustomSections(datatypes.JSON(tc.raw))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewProfileCVRoundTrip(t *testing.T) {
	in := cv.Record{
		ID:              "cv-9",
		ProfileID:       "p-9",
		Title:           "ROV CV",
		Slug:            "rov-cv",
		IsPublished:     true,
		IsDefaultPublic: true,
		Flags:           cv.Flags{Roles: true, Certificates: true},
		Selection:       cv.Selection{RoleIDs: []string{"r1"}, SeaTimeIDs: []string{}, RovIDs: []string{}, CertIDs: []string{"c1"}},
		Freeform:        cv.Freeform{Headline: "Pilot", KeySkills: "Tooling\nSurvey"},
		CustomSections:  []cv.CustomSection{{ID: "s1", Title: "Extra", Content: "Body"}},
	}

	row, err := NewProfileCV(in)
	require.NoError(t, err)
	out := row.ToRecord()

	assert.Equal(t, in, out)
}
