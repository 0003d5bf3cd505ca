package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/snow-rank/internal/config"
	"github.com/couchcryptid/snow-rank/internal/scoring"
	"github.com/couchcryptid/snow-rank/internal/weights"
	kafkago "github.com/segmentio/kafka-go"
)

// RankingMessage is the JSON value of one published message: a single ranked
// region together with the context of the run that produced it.
type RankingMessage struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	FocusMonth  string            `json:"focus_month"`
	Rank        int               `json:"rank"`
	Region      string            `json:"region"`
	Country     string            `json:"country,omitempty"`
	Score       float64           `json:"score"`
	Weights     weights.WeightMap `json:"weights"`
}

// Writer produces ranking messages to a Kafka topic.
// It implements pipeline.RankingLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadRanking publishes one message per ranked row in a single WriteMessages call.
// Messages are keyed by region and country so a region's history stays on one partition.
func (w *Writer) LoadRanking(ctx context.Context, r scoring.Ranking) error {
	if len(r.Rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(r.Rows))
	for i := range r.Rows {
		msg, err := serializeToMessage(r, r.Rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write rankings: %w", err)
	}
	w.logger.Debug("ranking published", "run_id", r.RunID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ranked row into a Kafka message.
func serializeToMessage(r scoring.Ranking, row scoring.RankedRow) (kafkago.Message, error) {
	focus := r.FocusMonth.Format("2006-01")
	data, err := json.Marshal(RankingMessage{
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt,
		FocusMonth:  focus,
		Rank:        row.Rank,
		Region:      row.Region,
		Country:     row.Country,
		Score:       row.Score,
		Weights:     r.Weights,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize ranking row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(row)),
		Value: data,
		Time:  r.GeneratedAt,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(r.RunID)},
			{Key: "focus_month", Value: []byte(focus)},
			{Key: "generated_at", Value: []byte(r.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}

func messageKey(row scoring.RankedRow) string {
	if row.Country == "" {
		return row.Region
	}
	return row.Region + "|" + row.Country
}
