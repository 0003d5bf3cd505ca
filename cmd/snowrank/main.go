// Command snowrank ranks ski regions by the most recent month of snow and weather
// observations, weighting each metric by user preference.
//
// Usage:
//
//	go run ./cmd/snowrank -preset powder -top 5
//	go run ./cmd/snowrank -weight-snow-new 50 -weight-wind 0 -country AT,CH -format json
//
// Weights are taken from registry defaults, WEIGHT_* environment variables, the
// -weight-* flags and -preset, in that order. On a terminal (or with -interactive or
// WEIGHTS_INTERACTIVE=1) the user is then offered the preset menu and manual entry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kafkaadapter "github.com/couchcryptid/snow-rank/internal/adapter/kafka"
	"github.com/couchcryptid/snow-rank/internal/adapter/terminal"
	"github.com/couchcryptid/snow-rank/internal/config"
	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/observability"
	"github.com/couchcryptid/snow-rank/internal/pipeline"
	"github.com/couchcryptid/snow-rank/internal/source"
	"github.com/couchcryptid/snow-rank/internal/weights"
	"github.com/joho/godotenv"
)

type options struct {
	overrides   map[domain.MetricKey]string
	preset      string
	interactive bool
	format      string
	top         int
	filter      domain.FilterArgs
	publish     bool
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, os.Stdin, os.Stdout, logger, observability.NewMetrics()); err != nil {
		logger.Error("ranking failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	opts := options{overrides: make(map[domain.MetricKey]string)}

	fs := flag.NewFlagSet("snowrank", flag.ContinueOnError)
	fs.SetOutput(output)
	for _, m := range domain.Metrics() {
		key := m.Key
		fs.Func(m.FlagName, fmt.Sprintf("%s weight, e.g. 30, 30%% or 12,5", m.Label), func(s string) error {
			opts.overrides[key] = s
			return nil
		})
	}
	fs.StringVar(&opts.preset, "preset", "", "weight preset by number, name or alias")
	fs.BoolVar(&opts.interactive, "interactive", false, "prompt for weights even without a terminal")
	fs.StringVar(&opts.format, "format", "table", "output format: table or json")
	fs.IntVar(&opts.top, "top", 0, "number of ranked regions (default TOP_N)")
	fs.Func("region", "only these regions (comma-separated, repeatable)", func(s string) error {
		opts.filter.Regions = append(opts.filter.Regions, s)
		return nil
	})
	fs.Func("country", "only these countries (names or ISO codes)", func(s string) error {
		opts.filter.Countries = append(opts.filter.Countries, s)
		return nil
	})
	fs.StringVar(&opts.filter.Season, "season", "", "winter season, e.g. 2023/24")
	fs.StringVar(&opts.filter.From, "from", "", "first day to include (YYYY-MM-DD)")
	fs.StringVar(&opts.filter.To, "to", "", "last day to include (YYYY-MM-DD)")
	fs.BoolVar(&opts.publish, "publish", false, "publish the ranking to Kafka (requires KAFKA_BROKERS)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %v", fs.Args())
		fmt.Fprintln(output, err)
		return opts, err
	}
	switch opts.format {
	case "table", "json":
	default:
		err := fmt.Errorf("invalid -format %q: expected table or json", opts.format)
		fmt.Fprintln(output, err)
		return opts, err
	}
	if opts.top < 0 {
		err := errors.New("-top must not be negative")
		fmt.Fprintln(output, err)
		return opts, err
	}
	return opts, nil
}

func run(ctx context.Context, cfg *config.Config, opts options, in io.Reader, out io.Writer, logger *slog.Logger, metrics *observability.Metrics) error {
	filter, err := domain.ParseFilter(opts.filter)
	if err != nil {
		return err
	}

	// Prompts go to stderr so stdout carries only the report.
	prompter := terminal.NewPrompter(in, os.Stderr)
	resolution := weights.NewResolver(prompter, logger).Resolve(weights.Options{
		Overrides: opts.overrides,
		Preset:    opts.preset,
		Terminal:  terminal.IsTerminal(os.Stdin),
		Force:     opts.interactive,
	})
	metrics.WeightsRejected.Add(float64(resolution.Rejected))
	logger.Debug("weights resolved",
		"preset", resolution.Preset,
		"interactive", resolution.Interactive,
		"rejected", resolution.Rejected,
	)

	extractor, closeSource, err := source.Open(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	var loaders []pipeline.RankingLoader
	if opts.publish {
		if !cfg.PublishEnabled() {
			return errors.New("-publish requires KAFKA_BROKERS")
		}
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
	}

	topN := opts.top
	if topN == 0 {
		topN = cfg.TopN
	}

	p := pipeline.New(extractor, pipeline.NewTransformer(logger, metrics), logger, metrics, loaders...)
	res, err := p.Run(ctx, pipeline.Request{
		Filter:  filter,
		Weights: resolution.Weights,
		TopN:    topN,
		Publish: opts.publish,
	})
	if err != nil {
		return err
	}

	if opts.format == "json" {
		return terminal.RenderJSON(out, res)
	}
	if err := terminal.RenderOverview(out, res.Overview); err != nil {
		return err
	}
	if !res.Overview.OK() {
		return nil
	}
	fmt.Fprintln(out)
	return terminal.RenderRanking(out, res.Ranking)
}
