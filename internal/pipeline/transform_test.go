package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/snow-rank/internal/adapter/csvfile"
	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/pipeline"
	"github.com/couchcryptid/snow-rank/internal/scoring"
	"github.com/couchcryptid/snow-rank/internal/weights"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePath = "testdata/snow_weather.csv"

func TestSnowTransformer_Fixture(t *testing.T) {
	ds, err := csvfile.NewReader(fixturePath, discardLogger()).Extract(context.Background())
	require.NoError(t, err)

	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(discardLogger(), metrics)
	out, err := tfm.Transform(context.Background(), ds)
	require.NoError(t, err)

	assert.False(t, ds.Columns.Has(domain.ColumnNewSnow), "input is not modified")
	assert.True(t, out.Columns.Has(domain.ColumnNewSnow))

	newSnow := map[string][]float64{}
	for _, o := range out.Observations {
		require.NotNil(t, o.NewSnowCM)
		assert.GreaterOrEqual(t, *o.NewSnowCM, 0.0)
		newSnow[o.Region] = append(newSnow[o.Region], *o.NewSnowCM)
	}
	// Arlberg's 7 cm on a warm, dry day is rejected; Chamonix's 2 cm passes on temperature.
	assert.Equal(t, []float64{0, 15, 0, 0}, newSnow["Arlberg"])
	assert.Equal(t, []float64{0, 10, 0}, newSnow["Zermatt"])
	assert.Equal(t, []float64{0, 2}, newSnow["Chamonix"])

	assert.InDelta(t, 3, testutil.ToFloat64(metrics.NewSnowDerived.WithLabelValues("positive")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.NewSnowDerived.WithLabelValues("rejected")), 0)

	countries := map[string]string{}
	for _, o := range out.Observations {
		countries[o.Region] = o.Country
	}
	assert.Equal(t, "Austria", countries["Arlberg"])
	assert.Equal(t, "France", countries["Chamonix"])
}

func TestSnowTransformer_NoDepthColumn(t *testing.T) {
	ds := domain.Dataset{
		Columns:      domain.NewColumnSet(domain.ColumnDate, domain.ColumnRegion, domain.ColumnTemperature),
		Observations: []domain.Observation{{Date: feb(1), Region: "Arlberg", TemperatureC: domain.Float(-3)}},
	}
	out, err := pipeline.NewTransformer(discardLogger(), newTestMetrics()).Transform(context.Background(), ds)
	require.NoError(t, err)

	assert.False(t, out.Columns.Has(domain.ColumnNewSnow))
	assert.Nil(t, out.Observations[0].NewSnowCM)
}

func newFixturePipeline() *pipeline.Pipeline {
	logger := discardLogger()
	metrics := newTestMetrics()
	return pipeline.New(
		csvfile.NewReader(fixturePath, logger),
		pipeline.NewTransformer(logger, metrics),
		logger,
		metrics,
	)
}

func TestPipeline_Fixture_DefaultWeights(t *testing.T) {
	res, err := newFixturePipeline().Run(context.Background(), defaultRequest())
	require.NoError(t, err)

	require.True(t, res.Overview.OK())
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), res.Overview.FocusMonth)
	require.Len(t, res.Overview.Rows, 3)

	regions := make([]string, len(res.Ranking.Rows))
	for i, r := range res.Ranking.Rows {
		regions[i] = r.Region
		assert.Equal(t, i+1, r.Rank)
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 100.0)
	}
	assert.Equal(t, []string{"Zermatt", "Arlberg", "Chamonix"}, regions)

	for _, row := range res.Overview.Rows {
		if row.Region != "Arlberg" {
			continue
		}
		assert.Equal(t, 3, row.Observations, "January readings fall outside the focus month")
		require.NotNil(t, row.NewSnowCM)
		assert.InDelta(t, 5, *row.NewSnowCM, 1e-9)
		require.NotNil(t, row.SnowDepthCM)
		assert.InDelta(t, 121, *row.SnowDepthCM, 1e-9)
	}
}

func TestPipeline_Fixture_FreshSnowOnly(t *testing.T) {
	req := defaultRequest()
	req.Weights = weights.WeightMap{domain.MetricSnowNew: 100}

	res, err := newFixturePipeline().Run(context.Background(), req)
	require.NoError(t, err)

	want := []scoring.RankedRow{
		{Rank: 1, Region: "Arlberg", Country: "Austria", Score: 100},
		{Rank: 2, Region: "Zermatt", Country: "Switzerland", Score: 58.333},
		{Rank: 3, Region: "Chamonix", Country: "France", Score: 0},
	}
	assert.Equal(t, want, res.Ranking.Rows)
}

func TestPipeline_Fixture_Filters(t *testing.T) {
	tests := []struct {
		name    string
		filter  domain.Filter
		month   time.Month
		regions []string
	}{
		{
			name:    "country code matches canonical name",
			filter:  domain.Filter{Countries: []string{"CH"}},
			month:   time.February,
			regions: []string{"Zermatt"},
		},
		{
			name:    "date range selects January",
			filter:  domain.Filter{To: time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)},
			month:   time.January,
			regions: []string{"Arlberg"},
		},
		{
			name:    "region names ignore case",
			filter:  domain.Filter{Regions: []string{"chamonix", "ARLBERG"}},
			month:   time.February,
			regions: []string{"Arlberg", "Chamonix"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := defaultRequest()
			req.Filter = tt.filter
			res, err := newFixturePipeline().Run(context.Background(), req)
			require.NoError(t, err)
			require.True(t, res.Overview.OK())

			assert.Equal(t, tt.month, res.Overview.FocusMonth.Month())
			var regions []string
			for _, r := range res.Ranking.Rows {
				regions = append(regions, r.Region)
			}
			assert.ElementsMatch(t, tt.regions, regions)
		})
	}
}

func TestPipeline_Fixture_SeasonOutsideData(t *testing.T) {
	season, err := domain.ParseSeason("2022/23")
	require.NoError(t, err)

	req := defaultRequest()
	req.Filter = domain.Filter{Season: &season}
	res, err := newFixturePipeline().Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, scoring.ReasonNoRows, res.Overview.Reason)
}
