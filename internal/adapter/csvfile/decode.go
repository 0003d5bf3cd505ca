// Package csvfile reads and writes observation tables as CSV.
//
// Headers are matched loosely: case, surrounding whitespace, unit suffixes in
// parentheses and punctuation are ignored, and common synonyms are accepted, so
// "Snow Depth (cm)", "snow_depth" and "SnowDepth" all map to snow_depth_cm.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/couchcryptid/snow-rank/internal/domain"
	"golang.org/x/text/cases"
)

// ErrNoColumns is returned when no header matches a known column.
var ErrNoColumns = errors.New("no recognized columns in header")

// headerAliases maps normalized header names to columns.
var headerAliases = map[string]string{
	"date":     domain.ColumnDate,
	"day":      domain.ColumnDate,
	"datum":    domain.ColumnDate,
	"time":     domain.ColumnDate,
	"obs_date": domain.ColumnDate,

	"region":     domain.ColumnRegion,
	"ski_region": domain.ColumnRegion,
	"resort":     domain.ColumnRegion,
	"area":       domain.ColumnRegion,

	"country": domain.ColumnCountry,
	"nation":  domain.ColumnCountry,
	"land":    domain.ColumnCountry,

	"temperature_c": domain.ColumnTemperature,
	"temperature":   domain.ColumnTemperature,
	"temp":          domain.ColumnTemperature,
	"temp_c":        domain.ColumnTemperature,
	"t_mean":        domain.ColumnTemperature,

	"precipitation_mm": domain.ColumnPrecipitation,
	"precipitation":    domain.ColumnPrecipitation,
	"precip":           domain.ColumnPrecipitation,
	"precip_mm":        domain.ColumnPrecipitation,

	"snow_depth_cm": domain.ColumnSnowDepth,
	"snow_depth":    domain.ColumnSnowDepth,
	"snowdepth":     domain.ColumnSnowDepth,
	"depth_cm":      domain.ColumnSnowDepth,

	"wind_beaufort": domain.ColumnWind,
	"wind":          domain.ColumnWind,
	"wind_bft":      domain.ColumnWind,
	"beaufort":      domain.ColumnWind,

	"elevation_m": domain.ColumnElevation,
	"elevation":   domain.ColumnElevation,
	"altitude":    domain.ColumnElevation,
	"altitude_m":  domain.ColumnElevation,

	"new_snow_cm": domain.ColumnNewSnow,
	"new_snow":    domain.ColumnNewSnow,
	"fresh_snow":  domain.ColumnNewSnow,
}

// dateLayouts are tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// missingTokens are cell values read as "no reading".
var missingTokens = map[string]bool{
	"":    true,
	"na":  true,
	"n/a": true,
	"nan": true,
	"-":   true,
	"--":  true,
}

// Issue describes a cell that could not be parsed and was read as missing.
type Issue struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (i Issue) Error() string {
	return fmt.Sprintf("line %d, column %s: %q: %v", i.Line, i.Column, i.Value, i.Err)
}

// Decode reads a CSV table. Unparseable cells become missing readings and are
// reported as issues; structural problems are returned as an error.
func Decode(r io.Reader) (domain.Dataset, []Issue, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Dataset{}, nil, fmt.Errorf("read header: %w", ErrNoColumns)
		}
		return domain.Dataset{}, nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	ds := domain.Dataset{Columns: domain.NewColumnSet()}
	for i, h := range header {
		if col, ok := MatchHeader(h); ok && !ds.Columns.Has(col) {
			columns[i] = col
			ds.Columns.Add(col)
		}
	}
	if len(ds.Columns) == 0 {
		return domain.Dataset{}, nil, ErrNoColumns
	}

	var issues []Issue
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Dataset{}, nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blankRecord(record) {
			continue
		}

		var o domain.Observation
		for i, cell := range record {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			if err := setCell(&o, columns[i], cell); err != nil {
				issues = append(issues, Issue{Line: line, Column: columns[i], Value: cell, Err: err})
			}
		}
		ds.Observations = append(ds.Observations, o)
	}
	return ds, issues, nil
}

// MatchHeader maps a raw header to a known column.
func MatchHeader(h string) (string, bool) {
	col, ok := headerAliases[normalizeHeader(h)]
	return col, ok
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	if i := strings.IndexAny(h, "(["); i >= 0 {
		unit := strings.Trim(h[i:], "()[] ")
		h = h[:i]
		// Keep the unit when it disambiguates a bare name, as in "Snow (cm)".
		if strings.TrimSpace(h) == "" {
			h = unit
		}
	}
	h = cases.Fold().String(strings.TrimSpace(h))

	var b strings.Builder
	lastUnderscore := false
	for _, r := range h {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func setCell(o *domain.Observation, column, cell string) error {
	switch column {
	case domain.ColumnDate:
		t, err := ParseDate(cell)
		if err != nil {
			return err
		}
		o.Date = t
	case domain.ColumnRegion:
		o.Region = strings.TrimSpace(cell)
	case domain.ColumnCountry:
		o.Country = strings.TrimSpace(cell)
	default:
		v, err := ParseNumber(cell)
		if err != nil {
			return err
		}
		switch column {
		case domain.ColumnTemperature:
			o.TemperatureC = v
		case domain.ColumnPrecipitation:
			o.PrecipitationMM = v
		case domain.ColumnSnowDepth:
			o.SnowDepthCM = v
		case domain.ColumnWind:
			o.WindBeaufort = v
		case domain.ColumnElevation:
			o.ElevationM = v
		case domain.ColumnNewSnow:
			o.NewSnowCM = v
		}
	}
	return nil
}

// ParseDate parses a calendar day in any supported layout. A missing token yields
// the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if missingTokens[strings.ToLower(s)] {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseNumber parses a reading. Missing tokens yield nil; a comma decimal separator
// is accepted.
func ParseNumber(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if missingTokens[strings.ToLower(s)] {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return nil, fmt.Errorf("parse number: %w", err)
	}
	return &v, nil
}

func blankRecord(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
