package history

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Dev7-web/tendorlelo/internal/domain/search/history"
)

// DefaultRetention is the number of records kept per company.
const DefaultRetention = 1000

// store is the consumer interface for search history (ISP).
type store interface {
	PushCapped(ctx context.Context, key string, value []byte, maxLen int) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
}

// Repo keeps a capped, newest-first log of searches per company.
// Key pattern: {prefix}history:{company_id}.
type Repo struct {
	store     store
	prefix    string
	retention int
	logger    *zap.Logger
}

// New creates a history repository. A non-positive retention uses DefaultRetention.
func New(s store, prefix string, retention int, logger *zap.Logger) *Repo {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Repo{store: s, prefix: prefix, retention: retention, logger: logger}
}

// Append records one search.
func (r *Repo) Append(ctx context.Context, rec history.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}
	if err := r.store.PushCapped(ctx, r.key(rec.CompanyID), data, r.retention); err != nil {
		return fmt.Errorf("append history for %s: %w", rec.CompanyID, err)
	}
	return nil
}

// Recent returns up to n records, newest first.
func (r *Repo) Recent(ctx context.Context, companyID string, n int) ([]history.Record, error) {
	if n <= 0 {
		return []history.Record{}, nil
	}
	items, err := r.store.LRange(ctx, r.key(companyID), 0, int64(n-1))
	if err != nil {
		return nil, fmt.Errorf("read history for %s: %w", companyID, err)
	}

	out := make([]history.Record, 0, len(items))
	for _, data := range items {
		var rec history.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			r.logger.Warn("Skipping undecodable history record",
				zap.String("company_id", companyID), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repo) key(companyID string) string { return r.prefix + "history:" + companyID }
