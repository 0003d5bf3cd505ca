// Package scoring turns aggregated observations into weighted composite scores and
// region rankings.
//
// Scores are relative to the row set they are computed over: every metric is
// min-max normalized across the rows before weighting, so re-filtering the input
// changes the bounds and therefore every score.
package scoring

import (
	"encoding/json"
	"math"

	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/weights"
	"github.com/shopspring/decimal"
)

// ScorePlaces is the number of decimal places scores are rounded to.
const ScorePlaces = 3

// neutral is the normalized value every row gets for a constant column.
const neutral = 0.5

// MetricRow is any row that can report metric readings, raw or aggregated.
type MetricRow interface {
	MetricValue(key domain.MetricKey) *float64
}

// WeightedScore is a composite score in [0, 100]. Valid is false when no weighted
// metric had a value for the row.
type WeightedScore struct {
	Value float64
	Valid bool
}

// MarshalJSON encodes an invalid score as null.
func (s WeightedScore) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// Score computes a weighted score for every row. Metrics with a zero weight, an
// absent column, or no values across the rows are skipped. The result is parallel to
// rows.
func Score[R MetricRow](rows []R, present domain.ColumnSet, w weights.WeightMap) []WeightedScore {
	totals := make([]float64, len(rows))
	contributed := make([]bool, len(rows))

	for _, m := range domain.Metrics() {
		weight := w.Get(m.Key)
		if weight == 0 || !present.Has(m.Column) {
			continue
		}
		lo, hi, ok := bounds(rows, m.Key)
		if !ok {
			continue
		}
		for i, r := range rows {
			v := value(r, m.Key)
			if v == nil {
				continue
			}
			n := neutral
			if hi > lo {
				n = (*v - lo) / (hi - lo)
			}
			if m.Preference == domain.LowerIsBetter {
				n = 1 - n
			}
			totals[i] += weight * clamp01(n)
			contributed[i] = true
		}
	}

	out := make([]WeightedScore, len(rows))
	for i := range rows {
		if contributed[i] {
			out[i] = WeightedScore{Value: round(totals[i]), Valid: true}
		}
	}
	return out
}

// bounds returns the min and max of a metric across rows, or false when no row has it.
func bounds[R MetricRow](rows []R, key domain.MetricKey) (float64, float64, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	found := false
	for _, r := range rows {
		v := value(r, key)
		if v == nil {
			continue
		}
		lo = math.Min(lo, *v)
		hi = math.Max(hi, *v)
		found = true
	}
	return lo, hi, found
}

// value treats NaN and infinite readings as missing.
func value[R MetricRow](r R, key domain.MetricKey) *float64 {
	v := r.MetricValue(key)
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// round rounds half away from zero to ScorePlaces.
func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(ScorePlaces).InexactFloat64()
}
