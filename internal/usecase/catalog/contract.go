package catalog

import (
	"context"

	"github.com/Dev7-web/tendorlelo/internal/domain"
	domcompany "github.com/Dev7-web/tendorlelo/internal/domain/company"
	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/history"
	domtender "github.com/Dev7-web/tendorlelo/internal/domain/tender"
)

// TenderRepository is the tender persistence contract.
type TenderRepository interface {
	Save(ctx context.Context, t domtender.Tender) error
	Get(ctx context.Context, id string) (domtender.Tender, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]domtender.Tender, error)
}

// CompanyRepository is the company-profile persistence contract.
type CompanyRepository interface {
	Save(ctx context.Context, p domcompany.Profile) error
	Get(ctx context.Context, id string) (domcompany.Profile, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]domcompany.Profile, error)
}

// HistoryReader reads recent searches.
type HistoryReader interface {
	Recent(ctx context.Context, companyID string, n int) ([]history.Record, error)
}

// Extractor turns raw document text into metadata.
type Extractor interface {
	ExtractTender(ctx context.Context, text string) (metadata.Record, error)
	ExtractCompany(ctx context.Context, text string) (metadata.Record, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
