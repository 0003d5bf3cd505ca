// Package remote loads observation tables published as CSV over HTTP.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/snow-rank/internal/adapter/csvfile"
	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/observability"
)

// maxBodyBytes bounds a single download.
const maxBodyBytes = 64 << 20

// Fetcher downloads and decodes one dataset.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (domain.Dataset, error)
}

// Client implements Fetcher with a plain HTTP GET.
type Client struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a download client with a per-request timeout.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch downloads url and decodes it as CSV.
func (c *Client) Fetch(ctx context.Context, url string) (domain.Dataset, error) {
	start := time.Now()
	body, err := c.download(ctx, url)
	c.metrics.SourceFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.SourceFetches.WithLabelValues("error").Inc()
		return domain.Dataset{}, err
	}
	c.metrics.SourceFetches.WithLabelValues("success").Inc()

	ds, issues, err := csvfile.Decode(bytes.NewReader(body))
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("decode %s: %w", url, err)
	}
	csvfile.LogIssues(c.logger, url, issues)
	c.logger.Debug("remote dataset fetched", "url", url, "bytes", len(body), "observations", len(ds.Observations))
	return ds, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", url, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("fetch %s: body exceeds %d bytes", url, maxBodyBytes)
	}
	return body, nil
}
