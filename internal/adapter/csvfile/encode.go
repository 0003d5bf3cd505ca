package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/snow-rank/internal/domain"
)

// columnOrder is the layout Encode writes.
var columnOrder = []string{
	domain.ColumnDate,
	domain.ColumnRegion,
	domain.ColumnCountry,
	domain.ColumnTemperature,
	domain.ColumnPrecipitation,
	domain.ColumnSnowDepth,
	domain.ColumnWind,
	domain.ColumnElevation,
	domain.ColumnNewSnow,
}

// Encode writes the dataset's present columns in canonical order.
func Encode(w io.Writer, ds domain.Dataset) error {
	var header []string
	for _, c := range columnOrder {
		if ds.Columns.Has(c) {
			header = append(header, c)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(header))
	for _, o := range ds.Observations {
		for i, c := range header {
			record[i] = cell(o, c)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(o domain.Observation, column string) string {
	switch column {
	case domain.ColumnDate:
		if o.Date.IsZero() {
			return ""
		}
		return o.Date.UTC().Format("2006-01-02")
	case domain.ColumnRegion:
		return o.Region
	case domain.ColumnCountry:
		return o.Country
	case domain.ColumnTemperature:
		return number(o.TemperatureC)
	case domain.ColumnPrecipitation:
		return number(o.PrecipitationMM)
	case domain.ColumnSnowDepth:
		return number(o.SnowDepthCM)
	case domain.ColumnWind:
		return number(o.WindBeaufort)
	case domain.ColumnElevation:
		return number(o.ElevationM)
	case domain.ColumnNewSnow:
		return number(o.NewSnowCM)
	default:
		return ""
	}
}

func number(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
