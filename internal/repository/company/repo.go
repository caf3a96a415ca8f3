package company

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Dev7-web/tendorlelo/internal/db"
	"github.com/Dev7-web/tendorlelo/internal/domain"
	domcompany "github.com/Dev7-web/tendorlelo/internal/domain/company"
	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
)

// store is the consumer interface for company profiles (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

type row struct {
	ID        string          `json:"company_id"`
	Name      string          `json:"name,omitempty"`
	Metadata  metadata.Record `json:"metadata"`
	Embedding []float32       `json:"summary_embedding,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Repo stores company profiles as JSON values plus an id set.
// Key patterns: {prefix}company:{id}, {prefix}companies.
type Repo struct {
	store  store
	prefix string
	logger *zap.Logger
}

// New creates a company repository.
func New(s store, prefix string, logger *zap.Logger) *Repo {
	return &Repo{store: s, prefix: prefix, logger: logger}
}

// Save inserts or replaces a profile.
func (r *Repo) Save(ctx context.Context, p domcompany.Profile) error {
	data, err := json.Marshal(row{
		ID:        p.ID(),
		Name:      p.Name(),
		Metadata:  p.Metadata(),
		Embedding: p.Embedding(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	})
	if err != nil {
		return fmt.Errorf("marshal company %s: %w", p.ID(), err)
	}
	if err := r.store.Set(ctx, r.key(p.ID()), data); err != nil {
		return fmt.Errorf("set company %s: %w", p.ID(), err)
	}
	if err := r.store.SAdd(ctx, r.indexKey(), p.ID()); err != nil {
		return fmt.Errorf("index company %s: %w", p.ID(), err)
	}
	return nil
}

// Get loads a profile by id.
func (r *Repo) Get(ctx context.Context, id string) (domcompany.Profile, error) {
	data, err := r.store.Get(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcompany.Profile{}, fmt.Errorf("company %s: %w", id, domain.ErrNotFound)
		}
		return domcompany.Profile{}, fmt.Errorf("get company %s: %w", id, err)
	}
	return decode(data)
}

// Delete removes a profile.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("del company %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, r.indexKey(), id); err != nil {
		return fmt.Errorf("unindex company %s: %w", id, err)
	}
	return nil
}

// List returns up to limit profiles, most recently created first.
// A non-positive limit returns all.
func (r *Repo) List(ctx context.Context, limit int) ([]domcompany.Profile, error) {
	ids, err := r.store.SMembers(ctx, r.indexKey())
	if err != nil {
		return nil, fmt.Errorf("list company ids: %w", err)
	}
	if len(ids) == 0 {
		return []domcompany.Profile{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget companies: %w", err)
	}

	out := make([]domcompany.Profile, 0, len(values))
	for i, data := range values {
		if data == nil {
			continue
		}
		p, err := decode(data)
		if err != nil {
			r.logger.Warn("Skipping undecodable company", zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b domcompany.Profile) int {
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

func decode(data []byte) (domcompany.Profile, error) {
	var r row
	if err := json.Unmarshal(data, &r); err != nil {
		return domcompany.Profile{}, fmt.Errorf("unmarshal company: %w", err)
	}
	if r.ID == "" {
		return domcompany.Profile{}, fmt.Errorf("company record without id")
	}
	return domcompany.Reconstruct(r.ID, r.Name, r.Metadata, r.Embedding, r.CreatedAt, r.UpdatedAt), nil
}

func (r *Repo) key(id string) string { return r.prefix + "company:" + id }

func (r *Repo) indexKey() string { return r.prefix + "companies" }
