package result

import (
	"math"
	"slices"
	"time"
)

// Match is one ranked, explained result: a tender for a company search or a
// company for a tender match.
type Match struct {
	ID      string   `json:"id"`
	Label   string   `json:"label,omitempty"`
	Score   float64  `json:"score"`
	Reasons []string `json:"match_reasons"`
}

// Ranked pairs a match with its sort keys.
type Ranked struct {
	Match
	// RawScore is the unrounded score ranking is done on.
	RawScore float64
	// EndDate orders equal scores, later dates first, unknown dates last.
	EndDate *time.Time
}

// NewRanked builds a ranked entry; the presented score is rounded, the sort
// key is not.
func NewRanked(m Match, raw float64, endDate *time.Time) Ranked {
	m.Score = RoundScore(raw)
	return Ranked{Match: m, RawScore: raw, EndDate: endDate}
}

// SortRanked orders by raw score descending, then end date descending with
// missing dates last. Stable.
func SortRanked(rs []Ranked) {
	slices.SortStableFunc(rs, func(a, b Ranked) int {
		if c := compareScore(a.RawScore, b.RawScore); c != 0 {
			return c
		}
		switch {
		case a.EndDate == nil && b.EndDate == nil:
			return 0
		case a.EndDate == nil:
			return 1
		case b.EndDate == nil:
			return -1
		}
		return b.EndDate.Compare(*a.EndDate)
	})
}

// Matches strips the tie-break keys.
func Matches(rs []Ranked) []Match {
	out := make([]Match, len(rs))
	for i, r := range rs {
		out[i] = r.Match
	}
	return out
}

func compareScore(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

// RoundScore rounds to four decimals for presentation.
func RoundScore(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
