package tender

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Dev7-web/tendorlelo/internal/db"
	"github.com/Dev7-web/tendorlelo/internal/domain"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/filter"
	domtender "github.com/Dev7-web/tendorlelo/internal/domain/tender"
)

// store is the consumer interface for tenders (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo stores tenders as JSON values plus an id set.
// Key patterns: {prefix}tender:{id}, {prefix}tenders.
type Repo struct {
	store  store
	prefix string
	logger *zap.Logger
}

// New creates a tender repository.
func New(s store, prefix string, logger *zap.Logger) *Repo {
	return &Repo{store: s, prefix: prefix, logger: logger}
}

// Save inserts or replaces a tender.
func (r *Repo) Save(ctx context.Context, t domtender.Tender) error {
	data, err := encode(t)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.key(t.ID()), data); err != nil {
		return fmt.Errorf("set tender %s: %w", t.ID(), err)
	}
	if err := r.store.SAdd(ctx, r.indexKey(), t.ID()); err != nil {
		return fmt.Errorf("index tender %s: %w", t.ID(), err)
	}
	return nil
}

// Get loads a tender by id.
func (r *Repo) Get(ctx context.Context, id string) (domtender.Tender, error) {
	data, err := r.store.Get(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domtender.Tender{}, fmt.Errorf("tender %s: %w", id, domain.ErrNotFound)
		}
		return domtender.Tender{}, fmt.Errorf("get tender %s: %w", id, err)
	}
	return decode(data)
}

// Delete removes a tender.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("del tender %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, r.indexKey(), id); err != nil {
		return fmt.Errorf("unindex tender %s: %w", id, err)
	}
	return nil
}

// List returns up to limit tenders, most recently created first.
// A non-positive limit returns all.
func (r *Repo) List(ctx context.Context, limit int) ([]domtender.Tender, error) {
	return r.scan(ctx, limit, func(domtender.Tender) bool { return true })
}

// ListCandidates returns up to limit eligible tenders passing f, most recently
// created first.
func (r *Repo) ListCandidates(ctx context.Context, f filter.Filters, limit int) ([]domtender.Tender, error) {
	return r.scan(ctx, limit, func(t domtender.Tender) bool {
		return t.Eligible() && f.Matches(t.Metadata())
	})
}

func (r *Repo) scan(ctx context.Context, limit int, keep func(domtender.Tender) bool) ([]domtender.Tender, error) {
	ids, err := r.store.SMembers(ctx, r.indexKey())
	if err != nil {
		return nil, fmt.Errorf("list tender ids: %w", err)
	}
	if len(ids) == 0 {
		return []domtender.Tender{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget tenders: %w", err)
	}

	out := make([]domtender.Tender, 0, len(values))
	for i, data := range values {
		if data == nil {
			continue
		}
		t, err := decode(data)
		if err != nil {
			r.logger.Warn("Skipping undecodable tender", zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		if keep(t) {
			out = append(out, t)
		}
	}

	slices.SortFunc(out, func(a, b domtender.Tender) int {
		if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
			return c
		}
		return strings.Compare(a.ID(), b.ID())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repo) key(id string) string { return r.prefix + "tender:" + id }

func (r *Repo) indexKey() string { return r.prefix + "tenders" }
