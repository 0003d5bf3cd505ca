package csvfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/snow-rank/internal/domain"
)

// maxLoggedIssues caps per-cell warnings; the total is always logged.
const maxLoggedIssues = 5

// Reader loads observations from a local CSV file on every Extract.
type Reader struct {
	path   string
	logger *slog.Logger
}

// NewReader creates a Reader for path.
func NewReader(path string, logger *slog.Logger) *Reader {
	return &Reader{path: path, logger: logger}
}

// Extract reads and decodes the file.
func (r *Reader) Extract(ctx context.Context) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}
	f, err := os.Open(r.path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	ds, issues, err := Decode(f)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("decode %s: %w", r.path, err)
	}
	LogIssues(r.logger, r.path, issues)
	r.logger.Debug("dataset loaded", "path", r.path, "observations", len(ds.Observations), "columns", ds.Columns.Names())
	return ds, nil
}

// LogIssues warns about unparseable cells.
func LogIssues(logger *slog.Logger, source string, issues []Issue) {
	if len(issues) == 0 {
		return
	}
	for i, is := range issues {
		if i == maxLoggedIssues {
			break
		}
		logger.Warn("unparseable cell read as missing",
			"source", source,
			"line", is.Line,
			"column", is.Column,
			"value", is.Value,
		)
	}
	logger.Warn("dataset has unparseable cells", "source", source, "count", len(issues))
}
