package terminal

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/snow-rank/internal/scoring"
	"github.com/mattn/go-runewidth"
)

const missing = "-"

type align int

const (
	alignLeft align = iota
	alignRight
)

type column struct {
	header string
	align  align
}

// table lays out cells in columns padded by display width, so accented and
// wide region names line up.
type table struct {
	columns []column
	rows    [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) error {
	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = runewidth.StringWidth(c.header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if n := runewidth.StringWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	headers := make([]string, len(t.columns))
	rules := make([]string, len(t.columns))
	for i, c := range t.columns {
		headers[i] = c.header
		rules[i] = strings.Repeat("-", widths[i])
	}
	if err := t.line(w, widths, headers); err != nil {
		return err
	}
	if err := t.line(w, widths, rules); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := t.line(w, widths, row); err != nil {
			return err
		}
	}
	return nil
}

func (t *table) line(w io.Writer, widths []int, cells []string) error {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		if t.columns[i].align == alignRight {
			padded[i] = runewidth.FillLeft(cell, widths[i])
		} else {
			padded[i] = runewidth.FillRight(cell, widths[i])
		}
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, "  "), " "))
	return err
}

// RenderOverview prints the monthly regional summary, or the reason it is unavailable.
func RenderOverview(w io.Writer, ov scoring.Overview) error {
	if !ov.OK() {
		_, err := fmt.Fprintln(w, ov.Reason.Message())
		return err
	}
	if _, err := fmt.Fprintf(w, "Monthly overview for %s\n\n", ov.FocusMonth.Format("January 2006")); err != nil {
		return err
	}

	t := table{columns: []column{
		{"Region", alignLeft},
		{"Country", alignLeft},
		{"Days", alignRight},
		{"New snow cm", alignRight},
		{"Depth cm", alignRight},
		{"Temp °C", alignRight},
		{"Precip mm", alignRight},
		{"Wind Bft", alignRight},
		{"Score", alignRight},
	}}
	for _, r := range ov.Rows {
		t.add(
			r.Region,
			orMissing(r.Country),
			strconv.Itoa(r.Observations),
			formatReading(r.NewSnowCM),
			formatReading(r.SnowDepthCM),
			formatReading(r.TemperatureC),
			formatReading(r.PrecipitationMM),
			formatReading(r.WindBeaufort),
			formatScore(r.Score),
		)
	}
	return t.render(w)
}

// RenderRanking prints the top-N table.
func RenderRanking(w io.Writer, r scoring.Ranking) error {
	if len(r.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No region has enough data to be ranked.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Top %d regions\n\n", len(r.Rows)); err != nil {
		return err
	}

	t := table{columns: []column{
		{"#", alignRight},
		{"Region", alignLeft},
		{"Country", alignLeft},
		{"Score", alignRight},
	}}
	for _, row := range r.Rows {
		t.add(
			strconv.Itoa(row.Rank),
			row.Region,
			orMissing(row.Country),
			strconv.FormatFloat(row.Score, 'f', 1, 64),
		)
	}
	return t.render(w)
}

// RenderJSON writes v as indented JSON.
func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatReading(v *float64) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatScore(s scoring.WeightedScore) string {
	if !s.Valid {
		return missing
	}
	return strconv.FormatFloat(s.Value, 'f', 1, 64)
}

func orMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}
