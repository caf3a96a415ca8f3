package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/Dev7-web/tendorlelo/internal/domain/search/filter"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/result"
)

// DefaultTopN is how many results a history record keeps.
const DefaultTopN = 5

// Record is an append-only log entry of one tender search.
type Record struct {
	ID          string         `json:"id"`
	CompanyID   string         `json:"company_id"`
	Query       string         `json:"search_query,omitempty"`
	Filters     filter.Filters `json:"filters_applied"`
	ResultCount int            `json:"results_count"`
	TopResults  []result.Match `json:"top_results"`
	SearchedAt  time.Time      `json:"searched_at"`
}

// New builds a record keeping at most topN results.
func New(companyID, query string, f filter.Filters, results []result.Match, topN int, now time.Time) Record {
	if topN <= 0 {
		topN = DefaultTopN
	}
	top := make([]result.Match, min(len(results), topN))
	copy(top, results)
	return Record{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		Query:       query,
		Filters:     f,
		ResultCount: len(results),
		TopResults:  top,
		SearchedAt:  now.UTC(),
	}
}
