package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/observability"
)

// SnowTransformer implements Transformer: it canonicalizes region and country names
// and derives new snow on an independent copy of the dataset.
type SnowTransformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a SnowTransformer.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *SnowTransformer {
	return &SnowTransformer{
		logger:  logger,
		metrics: metrics,
	}
}

func (t *SnowTransformer) Transform(_ context.Context, ds domain.Dataset) (domain.Dataset, error) {
	out := ds.Clone()
	domain.NormalizeObservations(out.Observations)

	res := domain.DeriveNewSnow(&out)
	if !res.Derived {
		t.logger.Debug("new snow not derived, dataset has no snow depth column")
		return out, nil
	}

	t.metrics.NewSnowDerived.WithLabelValues("positive").Add(float64(res.Positive))
	t.metrics.NewSnowDerived.WithLabelValues("rejected").Add(float64(res.Rejected))
	t.logger.Debug("new snow derived",
		"groups", res.Groups,
		"positive", res.Positive,
		"rejected", res.Rejected,
	)
	return out, nil
}
