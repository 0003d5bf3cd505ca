package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/observability"
	"github.com/couchcryptid/snow-rank/internal/scoring"
	"github.com/couchcryptid/snow-rank/internal/weights"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DatasetExtractor loads the full observation table from a source.
type DatasetExtractor interface {
	Extract(ctx context.Context) (domain.Dataset, error)
}

// Transformer prepares a loaded dataset for aggregation.
type Transformer interface {
	Transform(ctx context.Context, ds domain.Dataset) (domain.Dataset, error)
}

// RankingLoader publishes a finished ranking.
type RankingLoader interface {
	LoadRanking(ctx context.Context, r scoring.Ranking) error
}

// Request describes one ranking run.
type Request struct {
	Filter  domain.Filter
	Weights weights.WeightMap
	TopN    int
	// Publish sends the ranking to every loader.
	Publish bool
}

// Result is the outcome of a run. When Overview is not OK, Ranking has no rows.
type Result struct {
	RunID        string           `json:"run_id"`
	Observations int              `json:"observations"`
	Overview     scoring.Overview `json:"overview"`
	Ranking      scoring.Ranking  `json:"ranking"`
}

// Pipeline orchestrates the extract-transform-rank-publish run.
type Pipeline struct {
	extractor   DatasetExtractor
	transformer Transformer
	loaders     []RankingLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability. Loaders are optional.
func New(e DatasetExtractor, t Transformer, logger *slog.Logger, metrics *observability.Metrics, loaders ...RankingLoader) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a dataset has been loaded successfully,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no dataset has been loaded yet")
	}
	return nil
}

// Ready reports whether a dataset has been loaded.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run loads the dataset, derives new snow, applies the request filter, builds the
// monthly overview and ranks it. An overview that cannot be built is not an error;
// check Result.Overview.Reason.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res := Result{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", res.RunID)

	ds, err := p.extractor.Extract(ctx)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return res, fmt.Errorf("extract dataset: %w", err)
	}
	p.ready.Store(true)
	res.Observations = len(ds.Observations)
	p.metrics.ObservationsLoaded.Add(float64(len(ds.Observations)))

	ds, err = p.transformer.Transform(ctx, ds)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return res, fmt.Errorf("transform dataset: %w", err)
	}
	ds = req.Filter.Apply(ds)

	w := req.Weights
	if !w.SumsToTotal() {
		w = weights.Normalize(w, logger)
	}

	res.Overview = scoring.BuildOverview(ds, w)
	if !res.Overview.OK() {
		p.metrics.RunsTotal.WithLabelValues(string(res.Overview.Reason)).Inc()
		logger.Info("overview not available", "reason", res.Overview.Reason, "observations", len(ds.Observations))
		return res, nil
	}

	res.Ranking = scoring.Ranking{
		RunID:       res.RunID,
		GeneratedAt: res.Overview.GeneratedAt,
		FocusMonth:  res.Overview.FocusMonth,
		Weights:     w,
		Rows:        res.Overview.Ranking(req.TopN),
	}
	p.metrics.RegionsRanked.Set(float64(len(res.Ranking.Rows)))

	if req.Publish {
		if err := p.publish(ctx, res.Ranking); err != nil {
			p.metrics.RunsTotal.WithLabelValues("error").Inc()
			return res, err
		}
	}

	p.metrics.RunsTotal.WithLabelValues("ok").Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	logger.Info("ranking complete",
		"focus_month", res.Overview.FocusMonth.Format("2006-01"),
		"groups", len(res.Overview.Rows),
		"ranked", len(res.Ranking.Rows),
	)
	return res, nil
}

// publish fans the ranking out to every loader concurrently.
func (p *Pipeline) publish(ctx context.Context, r scoring.Ranking) error {
	if len(p.loaders) == 0 || len(r.Rows) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, l := range p.loaders {
		g.Go(func() error {
			return l.LoadRanking(gctx, r)
		})
	}
	if err := g.Wait(); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish ranking: %w", err)
	}
	p.metrics.RankingsPublished.Inc()
	return nil
}

// Watch re-runs req every interval until the context is cancelled, backing off
// after failures.
func (p *Pipeline) Watch(ctx context.Context, interval time.Duration, req Request) error {
	p.logger.Info("ranking refresh started", "interval", interval)

	// Exponential backoff: start at 200ms, double each retry, cap at the interval.
	backoff := 200 * time.Millisecond
	maxBackoff := interval

	for {
		if ctx.Err() != nil {
			p.logger.Info("ranking refresh stopping", "reason", ctx.Err())
			return nil
		}

		wait := interval
		if _, err := p.Run(ctx, req); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("ranking run failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			backoff = 200 * time.Millisecond
		}

		if !sleepWithContext(ctx, wait) {
			p.logger.Info("ranking refresh stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
