package domain

import (
	"sort"
)

// Plausibility thresholds for accepting a depth increase as fresh snow.
const (
	SnowfallMaxTemperatureC    = 2.5
	SnowfallMinPrecipitationMM = 2.0
)

// DeriveResult summarizes a DeriveNewSnow run.
type DeriveResult struct {
	Derived  bool // false when the dataset has no snow depth column
	Groups   int
	Positive int // observations with new snow > 0
	Rejected int // positive deltas discarded as implausible
}

// DeriveNewSnow fills NewSnowCM on every observation in place and marks the
// new_snow_cm column present. Observations are grouped by region and country,
// ordered by date within each group, and compared to the closest earlier row
// that carries a depth reading.
func DeriveNewSnow(ds *Dataset) DeriveResult {
	if ds.Columns == nil {
		ds.Columns = NewColumnSet()
	}
	if !ds.Columns.Has(ColumnSnowDepth) {
		return DeriveResult{}
	}

	checkTemp := ds.Columns.Has(ColumnTemperature)
	checkPrecip := ds.Columns.Has(ColumnPrecipitation)
	groups := groupIndexes(*ds)

	res := DeriveResult{Derived: true, Groups: len(groups)}
	for _, idx := range groups {
		sort.SliceStable(idx, func(a, b int) bool {
			return ds.Observations[idx[a]].Date.Before(ds.Observations[idx[b]].Date)
		})

		var prev *Observation
		for n, i := range idx {
			cur := &ds.Observations[i]
			cur.NewSnowCM = Float(0)
			if n == 0 {
				if cur.SnowDepthCM != nil {
					prev = cur
				}
				continue
			}

			if prev == nil || prev.SnowDepthCM == nil || cur.SnowDepthCM == nil {
				if cur.SnowDepthCM != nil {
					prev = cur
				}
				continue
			}

			delta := *cur.SnowDepthCM - *prev.SnowDepthCM
			if delta > 0 {
				if plausibleSnowfall(prev, cur, checkTemp, checkPrecip) {
					*cur.NewSnowCM = delta
					res.Positive++
				} else {
					res.Rejected++
				}
			}
			prev = cur
		}
	}

	ds.Columns.Add(ColumnNewSnow)
	return res
}

// plausibleSnowfall reports whether the weather on either day allows snowfall.
// An absent column satisfies its check; a missing reading in a present column does not.
func plausibleSnowfall(prev, cur *Observation, checkTemp, checkPrecip bool) bool {
	coldEnough := !checkTemp ||
		atMost(cur.TemperatureC, SnowfallMaxTemperatureC) ||
		atMost(prev.TemperatureC, SnowfallMaxTemperatureC)
	wetEnough := !checkPrecip ||
		atLeast(cur.PrecipitationMM, SnowfallMinPrecipitationMM) ||
		atLeast(prev.PrecipitationMM, SnowfallMinPrecipitationMM)
	return coldEnough || wetEnough
}

func atMost(v *float64, limit float64) bool {
	return v != nil && *v <= limit
}

func atLeast(v *float64, limit float64) bool {
	return v != nil && *v >= limit
}

// groupIndexes partitions observation indexes by (region, country), keeping
// first-seen group order. Without either column the whole dataset is one group.
func groupIndexes(ds Dataset) [][]int {
	byRegion := ds.Columns.Has(ColumnRegion)
	byCountry := ds.Columns.Has(ColumnCountry)
	if !byRegion && !byCountry {
		all := make([]int, len(ds.Observations))
		for i := range all {
			all[i] = i
		}
		return [][]int{all}
	}

	type key struct{ region, country string }
	pos := make(map[key]int)
	var groups [][]int
	for i, o := range ds.Observations {
		k := key{}
		if byRegion {
			k.region = o.Region
		}
		if byCountry {
			k.country = o.Country
		}
		g, ok := pos[k]
		if !ok {
			g = len(groups)
			pos[k] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
