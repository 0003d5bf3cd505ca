package scoring

import (
	"encoding/json"
	"testing"

	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/weights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// row is a minimal MetricRow for exercising Score directly.
type row map[domain.MetricKey]*float64

func (r row) MetricValue(key domain.MetricKey) *float64 { return r[key] }

func only(key domain.MetricKey) weights.WeightMap {
	w := weights.WeightMap{}
	for _, m := range domain.Metrics() {
		w[m.Key] = 0
	}
	w[key] = 100
	return w
}

var allColumns = domain.NewColumnSet(
	domain.ColumnNewSnow,
	domain.ColumnSnowDepth,
	domain.ColumnTemperature,
	domain.ColumnPrecipitation,
	domain.ColumnWind,
)

func TestScore_MinMaxNormalization(t *testing.T) {
	rows := []row{
		{domain.MetricSnowNew: domain.Float(10)},
		{domain.MetricSnowNew: domain.Float(20)},
		{domain.MetricSnowNew: domain.Float(5)},
	}

	got := Score(rows, allColumns, only(domain.MetricSnowNew))

	assert.Equal(t, []WeightedScore{
		{Value: 33.333, Valid: true},
		{Value: 100, Valid: true},
		{Value: 0, Valid: true},
	}, got)
}

func TestScore_LowerIsBetterIsFlipped(t *testing.T) {
	rows := []row{
		{domain.MetricTemperature: domain.Float(-10)},
		{domain.MetricTemperature: domain.Float(0)},
		{domain.MetricTemperature: domain.Float(-5)},
	}

	got := Score(rows, allColumns, only(domain.MetricTemperature))

	assert.InDelta(t, 100, got[0].Value, 1e-9)
	assert.InDelta(t, 0, got[1].Value, 1e-9)
	assert.InDelta(t, 50, got[2].Value, 1e-9)
}

func TestScore_ConstantColumnIsNeutral(t *testing.T) {
	w := weights.Defaults()
	rows := []row{
		{domain.MetricSnowDepth: domain.Float(80)},
		{domain.MetricSnowDepth: domain.Float(80)},
		{domain.MetricSnowDepth: domain.Float(80)},
	}

	got := Score(rows, domain.NewColumnSet(domain.ColumnSnowDepth), w)

	for _, s := range got {
		require.True(t, s.Valid)
		assert.InDelta(t, 0.5*w[domain.MetricSnowDepth], s.Value, 1e-9)
	}
}

func TestScore_SkipsZeroWeightAndAbsentColumns(t *testing.T) {
	rows := []row{
		{domain.MetricWind: domain.Float(1), domain.MetricSnowNew: domain.Float(4)},
		{domain.MetricWind: domain.Float(5), domain.MetricSnowNew: domain.Float(8)},
	}

	t.Run("zero weight", func(t *testing.T) {
		got := Score(rows, allColumns, only(domain.MetricSnowDepth))
		assert.False(t, got[0].Valid)
		assert.False(t, got[1].Valid)
	})

	t.Run("absent column", func(t *testing.T) {
		got := Score(rows, domain.NewColumnSet(domain.ColumnNewSnow), only(domain.MetricWind))
		assert.False(t, got[0].Valid)
		assert.False(t, got[1].Valid)
	})
}

func TestScore_MissingValueOnlyAffectsItsRow(t *testing.T) {
	w := weights.WeightMap{domain.MetricSnowNew: 60, domain.MetricWind: 40}
	rows := []row{
		{domain.MetricSnowNew: domain.Float(10), domain.MetricWind: domain.Float(2)},
		{domain.MetricSnowNew: domain.Float(0), domain.MetricWind: domain.Float(6)},
		{domain.MetricWind: domain.Float(4)},
		{},
	}

	got := Score(rows, allColumns, w)

	assert.Equal(t, WeightedScore{Value: 100, Valid: true}, got[0])
	assert.Equal(t, WeightedScore{Value: 0, Valid: true}, got[1])
	assert.Equal(t, WeightedScore{Value: 20, Valid: true}, got[2])
	assert.Equal(t, WeightedScore{}, got[3])
}

func TestScore_Bounded(t *testing.T) {
	rows := []row{
		{domain.MetricSnowNew: domain.Float(0), domain.MetricSnowDepth: domain.Float(120), domain.MetricTemperature: domain.Float(-14), domain.MetricPrecipitation: domain.Float(0), domain.MetricWind: domain.Float(7)},
		{domain.MetricSnowNew: domain.Float(35), domain.MetricSnowDepth: domain.Float(40), domain.MetricTemperature: domain.Float(1.5), domain.MetricPrecipitation: domain.Float(22), domain.MetricWind: domain.Float(2)},
		{domain.MetricSnowNew: domain.Float(12), domain.MetricTemperature: domain.Float(-3), domain.MetricWind: domain.Float(4)},
		{domain.MetricSnowDepth: domain.Float(260), domain.MetricPrecipitation: domain.Float(3.4)},
	}

	for _, preset := range weights.Presets() {
		t.Run(preset.Name, func(t *testing.T) {
			for _, s := range Score(rows, allColumns, preset.Weights) {
				require.True(t, s.Valid)
				assert.GreaterOrEqual(t, s.Value, 0.0)
				assert.LessOrEqual(t, s.Value, 100.0)
			}
		})
	}
}

func TestScore_IgnoresNaN(t *testing.T) {
	nan := 0.0
	nan /= nan
	rows := []row{
		{domain.MetricSnowNew: &nan},
		{domain.MetricSnowNew: domain.Float(3)},
	}

	got := Score(rows, allColumns, only(domain.MetricSnowNew))

	assert.False(t, got[0].Valid)
	assert.Equal(t, WeightedScore{Value: 50, Valid: true}, got[1])
}

func TestScore_RoundsToThreePlaces(t *testing.T) {
	rows := []row{
		{domain.MetricSnowNew: domain.Float(0)},
		{domain.MetricSnowNew: domain.Float(2)},
		{domain.MetricSnowNew: domain.Float(3)},
	}

	got := Score(rows, allColumns, only(domain.MetricSnowNew))

	assert.Equal(t, 66.667, got[1].Value)
}

func TestWeightedScore_MarshalJSON(t *testing.T) {
	b, err := json.Marshal([]WeightedScore{{Value: 12.5, Valid: true}, {}})
	require.NoError(t, err)
	assert.JSONEq(t, `[12.5, null]`, string(b))
}
