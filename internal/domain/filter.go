package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// seasonRe matches winter season labels: "2023/24", "2023-24", "2023/2024".
var seasonRe = regexp.MustCompile(`^(\d{4})\s*[/-]\s*(\d{2}|\d{4})$`)

// Season is a winter season running from November through April.
type Season struct {
	StartYear int
}

// ParseSeason parses a season label such as "2023/24".
func ParseSeason(label string) (Season, error) {
	m := seasonRe.FindStringSubmatch(label)
	if len(m) != 3 {
		return Season{}, fmt.Errorf("parse season %q: expected YYYY/YY", label)
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return Season{}, fmt.Errorf("parse season %q: %w", label, err)
	}
	end, err := strconv.Atoi(m[2])
	if err != nil {
		return Season{}, fmt.Errorf("parse season %q: %w", label, err)
	}
	if len(m[2]) == 2 {
		end += start / 100 * 100
		if end < start {
			end += 100
		}
	}
	if end != start+1 {
		return Season{}, fmt.Errorf("parse season %q: end year must follow start year", label)
	}
	return Season{StartYear: start}, nil
}

// String renders the season as "2023/24".
func (s Season) String() string {
	return fmt.Sprintf("%d/%02d", s.StartYear, (s.StartYear+1)%100)
}

// Bounds returns the first day of the season and the first day after it.
func (s Season) Bounds() (time.Time, time.Time) {
	from := time.Date(s.StartYear, time.November, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(s.StartYear+1, time.May, 1, 0, 0, 0, 0, time.UTC)
	return from, to
}

// SeasonOf returns the winter season containing t, or false for May through October.
func SeasonOf(t time.Time) (Season, bool) {
	t = t.UTC()
	switch {
	case t.Month() >= time.November:
		return Season{StartYear: t.Year()}, true
	case t.Month() <= time.April:
		return Season{StartYear: t.Year() - 1}, true
	default:
		return Season{}, false
	}
}

// Filter selects observations by date range, season, region and country.
// Zero fields do not constrain.
type Filter struct {
	From      time.Time // inclusive
	To        time.Time // inclusive, compared by calendar day
	Season    *Season
	Regions   []string
	Countries []string
}

// IsZero reports whether the filter keeps everything.
func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() && f.Season == nil && len(f.Regions) == 0 && len(f.Countries) == 0
}

// Apply returns a dataset holding only matching observations. The column set is shared
// with the input.
func (f Filter) Apply(ds Dataset) Dataset {
	if f.IsZero() {
		return ds
	}
	out := Dataset{Columns: ds.Columns}
	for _, o := range ds.Observations {
		if f.match(o) {
			out.Observations = append(out.Observations, o)
		}
	}
	return out
}

func (f Filter) match(o Observation) bool {
	day := dayOf(o.Date)
	if !f.From.IsZero() && (day.IsZero() || day.Before(dayOf(f.From))) {
		return false
	}
	if !f.To.IsZero() && (day.IsZero() || day.After(dayOf(f.To))) {
		return false
	}
	if f.Season != nil {
		from, to := f.Season.Bounds()
		if day.IsZero() || day.Before(from) || !day.Before(to) {
			return false
		}
	}
	if len(f.Regions) > 0 && !matchAny(o.Region, f.Regions) {
		return false
	}
	if len(f.Countries) > 0 && !matchAny(o.Country, canonicalAll(f.Countries)) {
		return false
	}
	return true
}

func matchAny(value string, candidates []string) bool {
	for _, c := range candidates {
		if SameName(value, c) {
			return true
		}
	}
	return false
}

func canonicalAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = CanonicalCountry(v)
	}
	return out
}

func dayOf(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// filterDateLayouts are the accepted spellings of From and To.
var filterDateLayouts = []string{"2006-01-02", "02.01.2006", "2006/01/02"}

// FilterArgs holds textual filter inputs as given on a command line or query string.
// Region and country entries may be comma-separated lists.
type FilterArgs struct {
	Regions   []string
	Countries []string
	Season    string
	From      string
	To        string
}

// ParseFilter validates args and builds a Filter.
func ParseFilter(args FilterArgs) (Filter, error) {
	f := Filter{
		Regions:   splitNames(args.Regions),
		Countries: splitNames(args.Countries),
	}

	if s := strings.TrimSpace(args.Season); s != "" {
		season, err := ParseSeason(s)
		if err != nil {
			return Filter{}, err
		}
		f.Season = &season
	}

	var err error
	if f.From, err = parseFilterDate("from", args.From); err != nil {
		return Filter{}, err
	}
	if f.To, err = parseFilterDate("to", args.To); err != nil {
		return Filter{}, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return Filter{}, fmt.Errorf("filter: to %s is before from %s", f.To.Format(time.DateOnly), f.From.Format(time.DateOnly))
	}
	return f, nil
}

func parseFilterDate(name, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range filterDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("filter: invalid %s date %q", name, s)
}

func splitNames(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
