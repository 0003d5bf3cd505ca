package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeason(t *testing.T) {
	tests := []struct {
		label    string
		expected int
		wantErr  bool
	}{
		{"2023/24", 2023, false},
		{"2023-24", 2023, false},
		{"2023/2024", 2023, false},
		{"1999/00", 1999, false},
		{"2023/25", 0, true},
		{"winter", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			s, err := ParseSeason(tt.label)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "parse season")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s.StartYear)
		})
	}
}

func TestSeason_StringAndBounds(t *testing.T) {
	s := Season{StartYear: 2023}
	assert.Equal(t, "2023/24", s.String())

	from, to := s.Bounds()
	assert.Equal(t, time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestSeasonOf(t *testing.T) {
	s, ok := SeasonOf(time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 2023, s.StartYear)

	s, ok = SeasonOf(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 2024, s.StartYear)

	_, ok = SeasonOf(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestFilter_Apply(t *testing.T) {
	ds := Dataset{
		Columns: NewColumnSet(ColumnDate, ColumnRegion, ColumnCountry),
		Observations: []Observation{
			{Date: time.Date(2023, time.October, 30, 0, 0, 0, 0, time.UTC), Region: "Arlberg", Country: "Austria"},
			{Date: time.Date(2023, time.December, 5, 0, 0, 0, 0, time.UTC), Region: "Arlberg", Country: "Austria"},
			{Date: time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC), Region: "Zermatt", Country: "Switzerland"},
			{Date: time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC), Region: "Dolomiti", Country: "Italy"},
			{Region: "Undated", Country: "Italy"},
		},
	}
	season := Season{StartYear: 2023}

	tests := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{"zero filter keeps all", Filter{}, []string{"Arlberg", "Arlberg", "Zermatt", "Dolomiti", "Undated"}},
		{"season", Filter{Season: &season}, []string{"Arlberg", "Zermatt", "Dolomiti"}},
		{"from is inclusive", Filter{From: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)}, []string{"Zermatt", "Dolomiti"}},
		{"to is inclusive by day", Filter{To: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)}, []string{"Arlberg", "Arlberg", "Zermatt"}},
		{"region case-insensitive", Filter{Regions: []string{"zermatt"}}, []string{"Zermatt"}},
		{"country by code", Filter{Countries: []string{"AT", "ITA"}}, []string{"Arlberg", "Arlberg", "Dolomiti", "Undated"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(ds)
			regions := make([]string, 0, len(got.Observations))
			for _, o := range got.Observations {
				regions = append(regions, o.Region)
			}
			assert.Equal(t, tt.expected, regions)
			assert.True(t, got.Columns.Has(ColumnDate))
		})
	}
}

func TestDataset_CloneIsIndependent(t *testing.T) {
	ds := Dataset{
		Columns:      NewColumnSet(ColumnSnowDepth),
		Observations: []Observation{{Region: "Arlberg", SnowDepthCM: Float(10)}},
	}

	cp := ds.Clone()
	*cp.Observations[0].SnowDepthCM = 99
	cp.Columns.Add(ColumnNewSnow)

	assert.Equal(t, 10.0, *ds.Observations[0].SnowDepthCM)
	assert.False(t, ds.Columns.Has(ColumnNewSnow))
}

func TestMonthOf(t *testing.T) {
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		MonthOf(time.Date(2024, time.February, 29, 23, 0, 0, 0, time.UTC)))
	assert.True(t, MonthOf(time.Time{}).IsZero())
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(FilterArgs{
		Regions:   []string{"Arlberg, Zermatt", "Niseko"},
		Countries: []string{"AT"},
		Season:    "2023/24",
		From:      "01.12.2023",
		To:        "2024-01-31",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Arlberg", "Zermatt", "Niseko"}, f.Regions)
	assert.Equal(t, []string{"AT"}, f.Countries)
	require.NotNil(t, f.Season)
	assert.Equal(t, 2023, f.Season.StartYear)
	assert.Equal(t, time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), f.From)
	assert.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), f.To)
}

func TestParseFilter_Empty(t *testing.T) {
	f, err := ParseFilter(FilterArgs{Regions: []string{" , "}})
	require.NoError(t, err)
	assert.True(t, f.IsZero())
}

func TestParseFilter_Errors(t *testing.T) {
	tests := []struct {
		name string
		args FilterArgs
	}{
		{"bad season", FilterArgs{Season: "2023"}},
		{"bad from", FilterArgs{From: "yesterday"}},
		{"bad to", FilterArgs{To: "2024-13-01"}},
		{"to before from", FilterArgs{From: "2024-02-01", To: "2024-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.args)
			require.Error(t, err)
		})
	}
}
