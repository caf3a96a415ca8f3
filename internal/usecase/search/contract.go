package search

import (
	"context"

	"github.com/Dev7-web/tendorlelo/internal/domain"
	domcompany "github.com/Dev7-web/tendorlelo/internal/domain/company"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/filter"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/history"
	domtender "github.com/Dev7-web/tendorlelo/internal/domain/tender"
)

// TenderReader loads tenders and the filtered candidate pool.
type TenderReader interface {
	Get(ctx context.Context, id string) (domtender.Tender, error)
	ListCandidates(ctx context.Context, f filter.Filters, limit int) ([]domtender.Tender, error)
}

// CompanyReader loads company profiles.
type CompanyReader interface {
	Get(ctx context.Context, id string) (domcompany.Profile, error)
	List(ctx context.Context, limit int) ([]domcompany.Profile, error)
}

// HistoryWriter persists search history records.
type HistoryWriter interface {
	Append(ctx context.Context, rec history.Record) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
