package domain

import (
	"sort"
	"time"
)

// Column names understood by the core.
const (
	ColumnDate          = "date"
	ColumnRegion        = "region"
	ColumnCountry       = "country"
	ColumnTemperature   = "temperature_c"
	ColumnPrecipitation = "precipitation_mm"
	ColumnSnowDepth     = "snow_depth_cm"
	ColumnWind          = "wind_beaufort"
	ColumnElevation     = "elevation_m"
	ColumnNewSnow       = "new_snow_cm"
)

// Observation is one row of raw input: a day of readings for a region.
type Observation struct {
	Date            time.Time `json:"date"`
	Region          string    `json:"region,omitempty"`
	Country         string    `json:"country,omitempty"`
	TemperatureC    *float64  `json:"temperature_c,omitempty"`
	PrecipitationMM *float64  `json:"precipitation_mm,omitempty"`
	SnowDepthCM     *float64  `json:"snow_depth_cm,omitempty"`
	WindBeaufort    *float64  `json:"wind_beaufort,omitempty"`
	ElevationM      *float64  `json:"elevation_m,omitempty"`

	// NewSnowCM is derived by DeriveNewSnow.
	NewSnowCM *float64 `json:"new_snow_cm,omitempty"`
}

// ColumnSet records which columns a dataset carries.
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from column names.
func NewColumnSet(names ...string) ColumnSet {
	cs := make(ColumnSet, len(names))
	for _, n := range names {
		cs[n] = struct{}{}
	}
	return cs
}

// Has reports whether the column is present.
func (cs ColumnSet) Has(name string) bool {
	_, ok := cs[name]
	return ok
}

// Add marks a column as present.
func (cs ColumnSet) Add(name string) {
	cs[name] = struct{}{}
}

// Names returns the present columns sorted by name.
func (cs ColumnSet) Names() []string {
	out := make([]string, 0, len(cs))
	for n := range cs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (cs ColumnSet) Clone() ColumnSet {
	out := make(ColumnSet, len(cs))
	for n := range cs {
		out[n] = struct{}{}
	}
	return out
}

// Dataset is an in-memory table of observations plus the columns its source provided.
type Dataset struct {
	Observations []Observation
	Columns      ColumnSet
}

// Clone deep-copies the dataset so derivation and filtering can run on an independent copy.
func (d Dataset) Clone() Dataset {
	obs := make([]Observation, len(d.Observations))
	for i, o := range d.Observations {
		obs[i] = Observation{
			Date:            o.Date,
			Region:          o.Region,
			Country:         o.Country,
			TemperatureC:    clonePtr(o.TemperatureC),
			PrecipitationMM: clonePtr(o.PrecipitationMM),
			SnowDepthCM:     clonePtr(o.SnowDepthCM),
			WindBeaufort:    clonePtr(o.WindBeaufort),
			ElevationM:      clonePtr(o.ElevationM),
			NewSnowCM:       clonePtr(o.NewSnowCM),
		}
	}
	return Dataset{Observations: obs, Columns: d.Columns.Clone()}
}

// Float returns a pointer to v, for building observations in code.
func Float(v float64) *float64 {
	return &v
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// MonthOf truncates t to the first day of its month in UTC.
// Returns zero time if the input is zero.
func MonthOf(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
