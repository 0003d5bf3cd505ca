// Command validate performs data integrity checks on a snow and weather CSV file
// and, optionally, on a SQLite database imported from it. It verifies required
// columns, row values, naming consistency, that the new snow derivation and the
// monthly overview succeed, and that the database holds the same rows as the file.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv data/mock/snow_weather.csv \
//	  -sqlite data/mock/snow.db
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/snow-rank/internal/adapter/csvfile"
	"github.com/couchcryptid/snow-rank/internal/adapter/sqlite"
	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/scoring"
	"github.com/couchcryptid/snow-rank/internal/weights"
	"github.com/google/go-cmp/cmp"
)

// Plausible ranges for raw readings.
const (
	minTemperatureC = -60
	maxTemperatureC = 50
	maxBeaufort     = 12
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	notes  []string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	csvPath := fs.String("csv", "", "path to the snow and weather CSV file")
	sqlitePath := fs.String("sqlite", "", "optional SQLite database to compare against the CSV")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *csvPath == "" {
		fs.Usage()
		return 2
	}

	fmt.Fprintln(stdout, "=== Snow Data Integrity Validation ===")
	fmt.Fprintln(stdout)

	ds, issues, err := loadCSV(*csvPath)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateColumns(ds, issues),
		validateRows(ds),
		validateNaming(ds),
		validateDerivation(ds),
	}
	if *sqlitePath != "" {
		phases = append(phases, validateStoreParity(ds, *sqlitePath))
	}

	fmt.Fprintln(stdout)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Records: %d observations, columns %v\n", len(ds.Observations), ds.Columns.Names())

	for _, p := range phases {
		for _, n := range p.notes {
			fmt.Fprintf(stdout, "  Note (%s): %s\n", p.name, n)
		}
	}
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(stdout, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(stdout, "\nValidation FAILED.")
	return 1
}

func loadCSV(path string) (domain.Dataset, []csvfile.Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Dataset{}, nil, err
	}
	defer f.Close()
	return csvfile.Decode(f)
}

// ── Phase 1: Columns ──
// The header must carry a date, a region and at least one scoreable metric, and
// every cell must parse.

func validateColumns(ds domain.Dataset, issues []csvfile.Issue) *phase {
	p := &phase{name: "Phase 1: Columns and parsing"}

	for _, c := range []string{domain.ColumnDate, domain.ColumnRegion} {
		if !ds.Columns.Has(c) {
			p.errorf("required column %q is missing", c)
		}
	}

	var metrics int
	for _, m := range domain.Metrics() {
		if ds.Columns.Has(m.Column) || (m.Key == domain.MetricSnowNew && ds.Columns.Has(domain.ColumnSnowDepth)) {
			metrics++
		}
	}
	if metrics == 0 {
		p.errorf("no metric column present; nothing can be scored")
	}
	if ds.Columns.Has(domain.ColumnNewSnow) {
		p.notef("new snow column present; it is recomputed from snow depth and the file values are ignored")
	}

	for _, is := range issues {
		p.errorf("%s", is.Error())
	}
	return p
}

// ── Phase 2: Row values ──

func validateRows(ds domain.Dataset) *phase {
	p := &phase{name: "Phase 2: Row values"}

	for i := range ds.Observations {
		o := &ds.Observations[i]
		row := i + 1
		if ds.Columns.Has(domain.ColumnDate) && o.Date.IsZero() {
			p.errorf("row %d: missing date", row)
		}
		if ds.Columns.Has(domain.ColumnRegion) && domain.NormalizeRegion(o.Region) == "" {
			p.errorf("row %d: blank region", row)
		}
		if v := o.SnowDepthCM; v != nil && *v < 0 {
			p.errorf("row %d: negative snow depth %g", row, *v)
		}
		if v := o.PrecipitationMM; v != nil && *v < 0 {
			p.errorf("row %d: negative precipitation %g", row, *v)
		}
		if v := o.WindBeaufort; v != nil && (*v < 0 || *v > maxBeaufort) {
			p.errorf("row %d: wind force %g outside 0..%d", row, *v, maxBeaufort)
		}
		if v := o.TemperatureC; v != nil && (*v < minTemperatureC || *v > maxTemperatureC) {
			p.errorf("row %d: temperature %g outside %d..%d", row, *v, minTemperatureC, maxTemperatureC)
		}
	}
	return p
}

// ── Phase 3: Naming ──
// After normalization a region must map to a single country and carry at most
// one reading per day.

func validateNaming(ds domain.Dataset) *phase {
	p := &phase{name: "Phase 3: Region and country naming"}

	norm := ds.Clone()
	domain.NormalizeObservations(norm.Observations)

	countries := map[string]map[string]bool{}
	seen := map[string]int{}
	for i := range norm.Observations {
		o := &norm.Observations[i]
		if o.Region == "" {
			continue
		}
		if countries[o.Region] == nil {
			countries[o.Region] = map[string]bool{}
		}
		countries[o.Region][o.Country] = true

		if o.Date.IsZero() {
			continue
		}
		key := o.Region + "|" + o.Country + "|" + o.Date.Format(time.DateOnly)
		if first, dup := seen[key]; dup {
			p.errorf("row %d: duplicate reading for %s (first at row %d)", i+1, key, first)
			continue
		}
		seen[key] = i + 1
	}

	regions := make([]string, 0, len(countries))
	for r := range countries {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	for _, r := range regions {
		if len(countries[r]) > 1 {
			names := make([]string, 0, len(countries[r]))
			for c := range countries[r] {
				names = append(names, fmt.Sprintf("%q", c))
			}
			sort.Strings(names)
			p.errorf("region %q appears under %d countries: %v", r, len(names), names)
		}
	}
	return p
}

// ── Phase 4: Derivation ──
// Re-runs the new snow derivation and the monthly overview.

func validateDerivation(ds domain.Dataset) *phase {
	p := &phase{name: "Phase 4: New snow and overview"}

	derived := ds.Clone()
	domain.NormalizeObservations(derived.Observations)
	res := domain.DeriveNewSnow(&derived)
	if !res.Derived {
		p.notef("no snow depth column; new snow not derived")
	} else {
		p.notef("%d groups, %d snowfall days, %d implausible increases rejected", res.Groups, res.Positive, res.Rejected)
	}
	for i := range derived.Observations {
		if v := derived.Observations[i].NewSnowCM; v != nil && *v < 0 {
			p.errorf("row %d: derived negative new snow %g", i+1, *v)
		}
	}

	ov := scoring.BuildOverview(derived, weights.Defaults())
	if !ov.OK() {
		p.errorf("overview unavailable: %s", ov.Reason.Message())
		return p
	}
	if len(ov.Ranking(len(ov.Rows))) == 0 {
		p.errorf("overview for %s has no rankable region", ov.FocusMonth.Format("January 2006"))
	}
	return p
}

// ── Phase 5: Store parity ──
// The SQLite database must hold exactly the file's stored columns and rows.

func validateStoreParity(ds domain.Dataset, path string) *phase {
	p := &phase{name: "Phase 5: SQLite parity"}

	if _, err := os.Stat(path); err != nil {
		p.errorf("open database: %v", err)
		return p
	}
	store, err := sqlite.Open(path)
	if err != nil {
		p.errorf("open database: %v", err)
		return p
	}
	defer store.Close()

	stored, err := store.Extract(context.Background())
	if err != nil {
		p.errorf("extract: %v", err)
		return p
	}

	want := ds.Clone()
	want.Columns = domain.NewColumnSet()
	for _, c := range ds.Columns.Names() {
		if c != domain.ColumnNewSnow {
			want.Columns.Add(c)
		}
	}
	for i := range want.Observations {
		want.Observations[i].NewSnowCM = nil
	}
	sortObservations(want.Observations)

	if diff := cmp.Diff(want.Columns.Names(), stored.Columns.Names()); diff != "" {
		p.errorf("columns differ (-csv +sqlite):\n%s", diff)
	}
	if len(want.Observations) != len(stored.Observations) {
		p.errorf("row count: csv has %d, sqlite has %d", len(want.Observations), len(stored.Observations))
		return p
	}
	for i := range want.Observations {
		if diff := cmp.Diff(want.Observations[i], stored.Observations[i]); diff != "" {
			p.errorf("row %d differs (-csv +sqlite):\n%s", i+1, diff)
		}
	}
	return p
}

// sortObservations orders rows the way the store returns them.
func sortObservations(obs []domain.Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		a, b := obs[i], obs[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		return a.Date.Before(b.Date)
	})
}
