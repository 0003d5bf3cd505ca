// Package weights resolves the per-metric weights used by scoring.
//
// A WeightMap always sums to 100 once it leaves this package. Weights are built in
// layers: registry defaults, WEIGHT_<METRIC> environment variables, command-line
// overrides, a named preset, and finally interactive manual entry.
package weights

import (
	"log/slog"
	"math"

	"github.com/couchcryptid/snow-rank/internal/domain"
)

// Total is the value every resolved WeightMap sums to.
const Total = 100.0

// SumTolerance is the allowed deviation from Total.
const SumTolerance = 1e-6

// WeightMap maps each metric to a non-negative weight.
type WeightMap map[domain.MetricKey]float64

// Defaults returns the registry default weights.
func Defaults() WeightMap {
	w := make(WeightMap, 5)
	for _, m := range domain.Metrics() {
		w[m.Key] = m.DefaultWeight
	}
	return w
}

// Sum adds all weights.
func (w WeightMap) Sum() float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// Clone returns an independent copy. Callers sharing a map across goroutines must clone it.
func (w WeightMap) Clone() WeightMap {
	out := make(WeightMap, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Get returns the weight for key, or 0.
func (w WeightMap) Get(key domain.MetricKey) float64 {
	return w[key]
}

// SumsToTotal reports whether the weights add up to 100 within SumTolerance.
func (w WeightMap) SumsToTotal() bool {
	return math.Abs(w.Sum()-Total) <= SumTolerance
}

// Normalize rescales w proportionally so it sums to 100. Negative weights count as
// zero. A non-positive sum logs a warning and yields the defaults. The input is not
// modified.
func Normalize(w WeightMap, logger *slog.Logger) WeightMap {
	out := make(WeightMap, 5)
	for _, m := range domain.Metrics() {
		out[m.Key] = math.Max(0, w[m.Key])
	}

	sum := out.Sum()
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		logger.Warn("weights do not sum to a positive value, using defaults", "sum", sum)
		return Defaults()
	}
	if math.Abs(sum-Total) <= SumTolerance {
		return out
	}

	factor := Total / sum
	for k, v := range out {
		out[k] = v * factor
	}
	return out
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
