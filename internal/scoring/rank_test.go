package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(region string, v float64) AggregateRow {
	return AggregateRow{Region: region, Score: WeightedScore{Value: v, Valid: true}}
}

func TestRank_OrderAndPositions(t *testing.T) {
	rows := []AggregateRow{
		scored("Laax", 41.2),
		{Region: "Unscored"},
		scored("Obergurgl", 88),
		scored("Tignes", 63.5),
		scored("Sölden", 63.5),
	}

	got := Rank(rows, 0)

	require.Len(t, got, 4)
	for i, r := range got {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, r.Score)
		}
	}
	assert.Equal(t, "Obergurgl", got[0].Region)
	assert.Equal(t, "Tignes", got[1].Region, "ties keep input order")
	assert.Equal(t, "Sölden", got[2].Region)
	assert.Equal(t, "Laax", got[3].Region)
}

func TestRank_TopN(t *testing.T) {
	rows := make([]AggregateRow, 0, 15)
	for i := range 15 {
		rows = append(rows, scored(fmt.Sprintf("R%02d", i), float64(i)))
	}

	tests := []struct {
		name string
		topN int
		want int
	}{
		{"default", 0, DefaultTopN},
		{"negative", -3, DefaultTopN},
		{"explicit", 3, 3},
		{"larger than input", 50, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(rows, tt.topN)
			assert.Len(t, got, tt.want)
			assert.Equal(t, "R14", got[0].Region)
		})
	}
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil, 5))
}
