package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/couchcryptid/snow-rank/internal/config"
	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePath = "../../internal/pipeline/testdata/snow_weather.csv"

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{
		"-weight-snow-new", "40%",
		"-weight-wind", "12,5",
		"-preset", "powder",
		"-region", "Arlberg,Zermatt",
		"-region", "Niseko",
		"-country", "AT",
		"-season", "2023/24",
		"-top", "3",
		"-format", "json",
		"-interactive",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, map[domain.MetricKey]string{
		domain.MetricSnowNew: "40%",
		domain.MetricWind:    "12,5",
	}, opts.overrides)
	assert.Equal(t, "powder", opts.preset)
	assert.Equal(t, []string{"Arlberg,Zermatt", "Niseko"}, opts.filter.Regions)
	assert.Equal(t, []string{"AT"}, opts.filter.Countries)
	assert.Equal(t, "2023/24", opts.filter.Season)
	assert.Equal(t, 3, opts.top)
	assert.Equal(t, "json", opts.format)
	assert.True(t, opts.interactive)
	assert.False(t, opts.publish)
}

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Empty(t, opts.overrides)
	assert.Equal(t, "table", opts.format)
	assert.Zero(t, opts.top)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-colour"}},
		{"bad format", []string{"-format", "xml"}},
		{"negative top", []string{"-top", "-1"}},
		{"stray argument", []string{"rank"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, io.Discard)
			require.Error(t, err)
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	var out bytes.Buffer
	_, err := parseFlags([]string{"-h"}, &out)
	require.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, out.String(), "-weight-snow-depth")
}

func runFixture(t *testing.T, args ...string) string {
	t.Helper()
	opts, err := parseFlags(args, io.Discard)
	require.NoError(t, err)

	cfg := &config.Config{DataPath: fixturePath, TopN: 10}
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err = run(context.Background(), cfg, opts, strings.NewReader(""), &out, logger, observability.NewMetricsForTesting())
	require.NoError(t, err)
	return out.String()
}

func TestRun_Table(t *testing.T) {
	out := runFixture(t)

	assert.Contains(t, out, "Monthly overview for February 2024")
	assert.Contains(t, out, "Top 3 regions")
	assert.Less(t, strings.Index(out, "1  Zermatt"), strings.Index(out, "2  Arlberg"))
}

func TestRun_JSONWithFilter(t *testing.T) {
	out := runFixture(t, "-format", "json", "-weight-snow-new", "100", "-weight-snow-depth", "0",
		"-weight-temperature", "0", "-weight-precipitation", "0", "-weight-wind", "0", "-country", "AT,FR")

	var res struct {
		Ranking struct {
			Rows []struct {
				Rank   int     `json:"rank"`
				Region string  `json:"region"`
				Score  float64 `json:"score"`
			} `json:"rows"`
		} `json:"ranking"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Ranking.Rows, 2)
	assert.Equal(t, "Arlberg", res.Ranking.Rows[0].Region)
	assert.InDelta(t, 100, res.Ranking.Rows[0].Score, 1e-9)
	assert.Equal(t, "Chamonix", res.Ranking.Rows[1].Region)
}

func TestRun_PublishWithoutBrokers(t *testing.T) {
	opts, err := parseFlags([]string{"-publish"}, io.Discard)
	require.NoError(t, err)

	cfg := &config.Config{DataPath: fixturePath, TopN: 10}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err = run(context.Background(), cfg, opts, strings.NewReader(""), io.Discard, logger, observability.NewMetricsForTesting())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestRun_InvalidFilter(t *testing.T) {
	opts, err := parseFlags([]string{"-season", "winter"}, io.Discard)
	require.NoError(t, err)

	cfg := &config.Config{DataPath: fixturePath, TopN: 10}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err = run(context.Background(), cfg, opts, strings.NewReader(""), io.Discard, logger, observability.NewMetricsForTesting())
	require.Error(t, err)
}
