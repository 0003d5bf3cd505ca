// Command genmock generates a deterministic synthetic snow and weather dataset
// for demos and fixtures. The same seed and date range always produce the same
// file. It runs the actual derivation and scoring packages over the result and
// prints the numbers tests can assert against.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/snow_weather.csv \
//	  -from 2024-12-01 -to 2025-03-31 \
//	  -sqlite data/mock/snow.db
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/snow-rank/internal/adapter/csvfile"
	"github.com/couchcryptid/snow-rank/internal/adapter/sqlite"
	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/scoring"
	"github.com/couchcryptid/snow-rank/internal/weights"
	"github.com/jonboulle/clockwork"
)

// resort describes the climate a region is simulated with.
type resort struct {
	region    string
	country   string
	elevation float64
	baseTemp  float64 // mean January temperature in °C
	wetness   float64 // probability of precipitation on a given day
	windiness float64 // mean Beaufort force
}

var resorts = []resort{
	{region: "Arlberg", country: "AT", elevation: 1800, baseTemp: -5, wetness: 0.45, windiness: 3},
	{region: "Kitzbühel", country: "Österreich", elevation: 800, baseTemp: -1.5, wetness: 0.4, windiness: 2},
	{region: "Zermatt", country: "Switzerland", elevation: 1620, baseTemp: -6.5, wetness: 0.3, windiness: 3.5},
	{region: "Davos", country: "CH", elevation: 1560, baseTemp: -6, wetness: 0.35, windiness: 2.5},
	{region: "Chamonix", country: "FR", elevation: 1035, baseTemp: -3, wetness: 0.5, windiness: 4},
	{region: "Val Thorens", country: "France", elevation: 2300, baseTemp: -8, wetness: 0.4, windiness: 5},
	{region: "Dolomiti Superski", country: "Italia", elevation: 1500, baseTemp: -4, wetness: 0.25, windiness: 2},
	{region: "Garmisch", country: "DE", elevation: 700, baseTemp: -1, wetness: 0.4, windiness: 2},
	{region: "Kranjska Gora", country: "Slovenija", elevation: 810, baseTemp: -0.5, wetness: 0.45, windiness: 1.5},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("genmock", flag.ContinueOnError)
	out := fs.String("out", "", "output CSV path (default stdout)")
	from := fs.String("from", "2024-12-01", "first generated day (YYYY-MM-DD)")
	to := fs.String("to", "2025-03-31", "last generated day (YYYY-MM-DD)")
	seed := fs.Uint64("seed", 42, "random seed")
	gaps := fs.Float64("gaps", 0.03, "probability that a single reading is left blank")
	sqlitePath := fs.String("sqlite", "", "also import the dataset into this SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	start, err := time.Parse(time.DateOnly, *from)
	if err != nil {
		return fmt.Errorf("invalid -from: %w", err)
	}
	end, err := time.Parse(time.DateOnly, *to)
	if err != nil {
		return fmt.Errorf("invalid -to: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("-to %s is before -from %s", *to, *from)
	}

	// Fixed clock so the printed overview is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(end.Add(30 * time.Hour)))
	defer domain.SetClock(nil)

	ds := generate(start, end, *seed, *gaps)
	log.Printf("generated %d observations for %d regions", len(ds.Observations), len(resorts))

	if *out == "" {
		if err := csvfile.Encode(stdout, ds); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
	} else {
		if err := writeCSV(*out, ds); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		log.Printf("wrote %s", *out)
	}

	if *sqlitePath != "" {
		if err := importSQLite(*sqlitePath, ds); err != nil {
			return fmt.Errorf("importing into sqlite: %w", err)
		}
		log.Printf("imported into %s", *sqlitePath)
	}

	if *out != "" {
		printStats(stdout, ds)
	}
	return nil
}

// generate simulates one reading per resort per day. Snow accumulates on cold wet
// days and settles or melts otherwise.
func generate(start, end time.Time, seed uint64, gaps float64) domain.Dataset {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))
	ds := domain.Dataset{Columns: domain.NewColumnSet(
		domain.ColumnDate,
		domain.ColumnRegion,
		domain.ColumnCountry,
		domain.ColumnTemperature,
		domain.ColumnPrecipitation,
		domain.ColumnSnowDepth,
		domain.ColumnWind,
		domain.ColumnElevation,
	)}

	for _, r := range resorts {
		depth := 20 + rng.Float64()*40
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			temp := r.baseTemp + seasonal(day) + rng.NormFloat64()*3
			precip := 0.0
			if rng.Float64() < r.wetness {
				precip = rng.ExpFloat64() * 6
			}
			switch {
			case temp <= domain.SnowfallMaxTemperatureC && precip >= domain.SnowfallMinPrecipitationMM:
				depth += precip * (1 + rng.Float64())
			case temp > 0:
				depth -= temp * 1.5
			default:
				depth -= rng.Float64() * 1.5
			}
			depth = math.Max(depth, 0)
			wind := math.Min(math.Max(math.Round(r.windiness+rng.NormFloat64()*1.5), 0), 12)

			o := domain.Observation{
				Date:       day,
				Region:     r.region,
				Country:    r.country,
				ElevationM: domain.Float(r.elevation),
			}
			o.TemperatureC = maybe(rng, gaps, round1(temp))
			o.PrecipitationMM = maybe(rng, gaps, round1(precip))
			o.SnowDepthCM = maybe(rng, gaps, math.Round(depth))
			o.WindBeaufort = maybe(rng, gaps, wind)
			ds.Observations = append(ds.Observations, o)
		}
	}
	return ds
}

// seasonal offsets the January mean: colder mid-winter, warmer towards spring.
func seasonal(day time.Time) float64 {
	switch day.Month() {
	case time.November, time.April:
		return 5
	case time.December, time.March:
		return 2
	case time.February:
		return 0.5
	default:
		return 0
	}
}

func maybe(rng *rand.Rand, gaps, v float64) *float64 {
	if rng.Float64() < gaps {
		return nil
	}
	return domain.Float(v)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func writeCSV(path string, ds domain.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := csvfile.Encode(f, ds); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func importSQLite(path string, ds domain.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Import(context.Background(), ds)
}

func printStats(w io.Writer, ds domain.Dataset) {
	derived := ds.Clone()
	domain.NormalizeObservations(derived.Observations)
	res :=domain.DeriveNewSnow(&derived)
	ov := scoring.BuildOverview(derived, weights.Defaults())

	fmt.Fprintln(w, "\n=== Stats for updating test assertions ===")
	fmt.Fprintf(w, "Observations: %d\n", len(ds.Observations))
	fmt.Fprintf(w, "New snow: %d groups, %d positive, %d rejected\n", res.Groups, res.Positive, res.Rejected)
	if !ov.OK() {
		fmt.Fprintf(w, "Overview: %s\n", ov.Reason.Message())
		return
	}
	fmt.Fprintf(w, "Focus month: %s\n", ov.FocusMonth.Format("January 2006"))
	fmt.Fprintln(w, "Default ranking:")
	for _, r := range ov.Ranking(len(ov.Rows)) {
		fmt.Fprintf(w, "  %d. %s (%s) %.3f\n", r.Rank, r.Region, r.Country, r.Score)
	}
}
