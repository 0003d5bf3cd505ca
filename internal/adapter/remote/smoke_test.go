//go:build remote

package remote

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/snow-rank/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests download a real dataset and require SMOKE_DATA_URL.
// Run with: go test -tags=remote ./internal/adapter/remote/ -v -count=1

func TestSmoke_Fetch(t *testing.T) {
	url := os.Getenv("SMOKE_DATA_URL")
	if url == "" {
		t.Fatal("SMOKE_DATA_URL must be set to run smoke tests")
	}
	c := NewClient(30*time.Second, observability.NewMetricsForTesting(), testLogger())

	ds, err := c.Fetch(context.Background(), url)
	require.NoError(t, err)

	assert.NotEmpty(t, ds.Observations)
	assert.NotEmpty(t, ds.Columns.Names())
	t.Logf("fetched %d observations with columns %v", len(ds.Observations), ds.Columns.Names())
}
