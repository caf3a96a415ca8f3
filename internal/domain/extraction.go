package domain

import (
	"context"

	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
)

// MetadataExtractor turns raw document text into a metadata record.
// Implementations fail with ErrExtractionFailed (an ErrUpstreamUnavailable)
// when nothing usable comes back.
type MetadataExtractor interface {
	ExtractTender(ctx context.Context, text string) (metadata.Record, error)
	ExtractCompany(ctx context.Context, text string) (metadata.Record, error)
}
