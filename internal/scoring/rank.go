package scoring

import (
	"sort"
	"time"

	"github.com/couchcryptid/snow-rank/internal/weights"
)

// DefaultTopN is the ranking length used when none is requested.
const DefaultTopN = 10

// RankedRow is one entry of a ranking. Rank is 1-based.
type RankedRow struct {
	Rank    int     `json:"rank"`
	Region  string  `json:"region"`
	Country string  `json:"country,omitempty"`
	Score   float64 `json:"score"`
}

// Ranking is a finished ranking as handed to publishers.
type Ranking struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	FocusMonth  time.Time         `json:"focus_month"`
	Weights     weights.WeightMap `json:"weights"`
	Rows        []RankedRow       `json:"rows"`
}

// Rank keeps the scored rows, orders them by score descending and returns at most
// topN of them. A non-positive topN means DefaultTopN. Equal scores keep their input
// order.
func Rank(rows []AggregateRow, topN int) []RankedRow {
	if topN <= 0 {
		topN = DefaultTopN
	}

	scored := make([]AggregateRow, 0, len(rows))
	for _, r := range rows {
		if r.Score.Valid {
			scored = append(scored, r)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score.Value > scored[j].Score.Value
	})
	if len(scored) > topN {
		scored = scored[:topN]
	}

	out := make([]RankedRow, len(scored))
	for i, r := range scored {
		out[i] = RankedRow{
			Rank:    i + 1,
			Region:  r.Region,
			Country: r.Country,
			Score:   r.Score.Value,
		}
	}
	return out
}
