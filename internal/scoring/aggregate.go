package scoring

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/weights"
)

// Reason explains why an overview could not be built. The zero value means success.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonNoDate    Reason = "no_date"
	ReasonNoMetrics Reason = "no_metrics"
	ReasonNoRows    Reason = "no_rows"
	ReasonNoGroups  Reason = "no_groups"
)

// Message returns a sentence suitable for showing to an end user.
func (r Reason) Message() string {
	switch r {
	case ReasonNoDate:
		return "The dataset has no date column, so no monthly overview can be built."
	case ReasonNoMetrics:
		return "The dataset has no weather or snow columns to score."
	case ReasonNoRows:
		return "No dated observations remain after filtering."
	case ReasonNoGroups:
		return "No observations carry a region to group by."
	default:
		return ""
	}
}

// AggregateRow summarizes one region (and country) over the focus month.
type AggregateRow struct {
	Region          string        `json:"region"`
	Country         string        `json:"country,omitempty"`
	Observations    int           `json:"observations"`
	TemperatureC    *float64      `json:"temperature_c"`
	PrecipitationMM *float64      `json:"precipitation_mm"`
	SnowDepthCM     *float64      `json:"snow_depth_cm"`
	WindBeaufort    *float64      `json:"wind_beaufort"`
	NewSnowCM       *float64      `json:"new_snow_cm"`
	Score           WeightedScore `json:"score"`
}

// MetricValue returns the group mean for a metric, or nil when it has no values.
func (r AggregateRow) MetricValue(key domain.MetricKey) *float64 {
	switch key {
	case domain.MetricSnowNew:
		return r.NewSnowCM
	case domain.MetricSnowDepth:
		return r.SnowDepthCM
	case domain.MetricTemperature:
		return r.TemperatureC
	case domain.MetricPrecipitation:
		return r.PrecipitationMM
	case domain.MetricWind:
		return r.WindBeaufort
	default:
		return nil
	}
}

// Overview is the monthly regional summary. When Reason is set, Rows is empty.
type Overview struct {
	Reason      Reason         `json:"reason,omitempty"`
	FocusMonth  time.Time      `json:"focus_month"`
	GeneratedAt time.Time      `json:"generated_at"`
	Scored      bool           `json:"scored"`
	Rows        []AggregateRow `json:"rows"`
}

// OK reports whether the overview was built.
func (o Overview) OK() bool {
	return o.Reason == ReasonNone
}

// Ranking ranks the overview rows; see Rank.
func (o Overview) Ranking(topN int) []RankedRow {
	return Rank(o.Rows, topN)
}

// BuildOverview aggregates the most recent month of ds per region and scores the
// groups with w. It never fails: conditions that prevent an overview are reported
// through Reason.
func BuildOverview(ds domain.Dataset, w weights.WeightMap) Overview {
	ov := Overview{GeneratedAt: domain.Now()}

	if !ds.Columns.Has(domain.ColumnDate) {
		ov.Reason = ReasonNoDate
		return ov
	}

	var focus time.Time
	for _, o := range ds.Observations {
		if m := domain.MonthOf(o.Date); m.After(focus) {
			focus = m
		}
	}
	if focus.IsZero() {
		ov.Reason = ReasonNoRows
		return ov
	}
	ov.FocusMonth = focus

	if !ds.Columns.Has(domain.ColumnRegion) {
		ov.Reason = ReasonNoGroups
		return ov
	}
	byCountry := ds.Columns.Has(domain.ColumnCountry)

	groups := make(map[groupKey]*accumulator)
	for _, o := range ds.Observations {
		if !domain.MonthOf(o.Date).Equal(focus) {
			continue
		}
		region := strings.TrimSpace(o.Region)
		if region == "" {
			continue
		}
		key := groupKey{region: region}
		if byCountry {
			key.country = strings.TrimSpace(o.Country)
		}
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
		}
		acc.add(o)
	}
	if len(groups) == 0 {
		ov.Reason = ReasonNoGroups
		return ov
	}

	metrics := metricColumns(ds.Columns)
	if len(metrics) == 0 {
		ov.Reason = ReasonNoMetrics
		return ov
	}

	rows := make([]AggregateRow, 0, len(groups))
	for key, acc := range groups {
		rows = append(rows, acc.row(key, metrics))
	}

	scores := Score(rows, ds.Columns, w)
	for i := range rows {
		rows[i].Score = scores[i]
		if scores[i].Valid {
			ov.Scored = true
		}
	}

	sortRows(rows, ov.Scored)
	ov.Rows = rows
	return ov
}

type groupKey struct {
	region  string
	country string
}

type accumulator struct {
	count int
	sums  map[domain.MetricKey]float64
	ns    map[domain.MetricKey]int
}

func (a *accumulator) add(o domain.Observation) {
	if a.sums == nil {
		a.sums = make(map[domain.MetricKey]float64, 5)
		a.ns = make(map[domain.MetricKey]int, 5)
	}
	a.count++
	for _, m := range domain.Metrics() {
		v := o.MetricValue(m.Key)
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		a.sums[m.Key] += *v
		a.ns[m.Key]++
	}
}

func (a *accumulator) mean(key domain.MetricKey) *float64 {
	n := a.ns[key]
	if n == 0 {
		return nil
	}
	return domain.Float(a.sums[key] / float64(n))
}

func (a *accumulator) row(key groupKey, metrics map[domain.MetricKey]bool) AggregateRow {
	row := AggregateRow{
		Region:       key.region,
		Country:      key.country,
		Observations: a.count,
	}
	cell := func(k domain.MetricKey) *float64 {
		if !metrics[k] {
			return nil
		}
		return a.mean(k)
	}
	row.TemperatureC = cell(domain.MetricTemperature)
	row.PrecipitationMM = cell(domain.MetricPrecipitation)
	row.SnowDepthCM = cell(domain.MetricSnowDepth)
	row.WindBeaufort = cell(domain.MetricWind)
	row.NewSnowCM = cell(domain.MetricSnowNew)
	return row
}

// metricColumns returns the metrics whose source column the dataset carries.
func metricColumns(cs domain.ColumnSet) map[domain.MetricKey]bool {
	out := make(map[domain.MetricKey]bool, 5)
	for _, m := range domain.Metrics() {
		if cs.Has(m.Column) {
			out[m.Key] = true
		}
	}
	return out
}

// sortRows orders rows by (region, country) and then, stably, by score descending, or
// by mean new snow when nothing was scored. Missing values sort last.
func sortRows(rows []AggregateRow, scored bool) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Region != rows[j].Region {
			return rows[i].Region < rows[j].Region
		}
		return rows[i].Country < rows[j].Country
	})

	key := func(r AggregateRow) float64 {
		if scored {
			if !r.Score.Valid {
				return math.Inf(-1)
			}
			return r.Score.Value
		}
		if r.NewSnowCM == nil {
			return math.Inf(-1)
		}
		return *r.NewSnowCM
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return key(rows[i]) > key(rows[j])
	})
}
