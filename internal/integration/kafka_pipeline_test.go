//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/snow-rank/internal/adapter/csvfile"
	"github.com/couchcryptid/snow-rank/internal/adapter/kafka"
	"github.com/couchcryptid/snow-rank/internal/config"
	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/couchcryptid/snow-rank/internal/observability"
	"github.com/couchcryptid/snow-rank/internal/pipeline"
	"github.com/couchcryptid/snow-rank/internal/scoring"
	"github.com/couchcryptid/snow-rank/internal/weights"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSinkTopic = "test-snow-rankings"

// publishedMessage holds a deserialized message read from the sink topic.
type publishedMessage struct {
	Body    kafka.RankingMessage
	Key     string
	Headers map[string]string
}

// readPublished reads a single message from the sink consumer and deserializes it.
func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var body kafka.RankingMessage
	require.NoError(t, json.Unmarshal(msg.Value, &body), "unmarshal sink message")

	return publishedMessage{Body: body, Key: string(msg.Key), Headers: headers}
}

func newSinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaWriter verifies that kafka.Writer publishes one keyed message per ranked row.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSinkTopic: testSinkTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	ranking := scoring.Ranking{
		RunID:       "run-it-1",
		GeneratedAt: time.Date(2024, time.February, 20, 8, 0, 0, 0, time.UTC),
		FocusMonth:  time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		Weights:     weights.Defaults(),
		Rows: []scoring.RankedRow{
			{Rank: 1, Region: "Zermatt", Country: "Switzerland", Score: 85.3},
			{Rank: 2, Region: "Arlberg", Country: "Austria", Score: 60.4},
		},
	}
	require.NoError(t, writer.LoadRanking(ctx, ranking))

	consumer := newSinkConsumer(t, broker)
	first := readPublished(ctx, t, consumer)
	second := readPublished(ctx, t, consumer)

	assert.Equal(t, "Zermatt|Switzerland", first.Key)
	assert.Equal(t, 1, first.Body.Rank)
	assert.Equal(t, "run-it-1", first.Headers["run_id"])
	assert.Equal(t, "2024-02", first.Headers["focus_month"])
	_, err := time.Parse(time.RFC3339, first.Headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	assert.Equal(t, "Arlberg|Austria", second.Key)
	assert.Equal(t, 2, second.Body.Rank)
	assert.InDelta(t, 60.4, second.Body.Score, 1e-9)
}

// TestPipelineEndToEnd wires the CSV reader, transformer and Kafka writer and verifies
// the fixture ranking arrives on the sink topic in rank order.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSinkTopic: testSinkTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(
		csvfile.NewReader(fixturePath, discardLogger()),
		pipeline.NewTransformer(discardLogger(), metrics),
		discardLogger(),
		metrics,
		writer,
	)

	res, err := p.Run(ctx, pipeline.Request{
		Weights: weights.WeightMap{domain.MetricSnowNew: 100},
		TopN:    10,
		Publish: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Ranking.Rows, 3)

	consumer := newSinkConsumer(t, broker)
	var received []publishedMessage
	for len(received) < len(res.Ranking.Rows) {
		received = append(received, readPublished(ctx, t, consumer))
	}

	wantRegions := []string{"Arlberg", "Zermatt", "Chamonix"}
	for i, msg := range received {
		assert.Equal(t, res.RunID, msg.Body.RunID)
		assert.Equal(t, i+1, msg.Body.Rank)
		assert.Equal(t, wantRegions[i], msg.Body.Region)
		assert.Equal(t, "2024-02", msg.Body.FocusMonth)
	}
	assert.InDelta(t, 58.333, received[1].Body.Score, 1e-9)
}
