package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domcompany "github.com/Dev7-web/tendorlelo/internal/domain/company"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/filter"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/history"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/request"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/result"
	"github.com/Dev7-web/tendorlelo/internal/logger"
	"github.com/Dev7-web/tendorlelo/internal/matching"
	"github.com/Dev7-web/tendorlelo/internal/metrics"
)

// Operation labels for metrics and logs.
const (
	opSearchTenders  = "search_tenders"
	opMatchCompanies = "match_companies"
)

// Config tunes the ranking pass.
type Config struct {
	// CandidateCap bounds the pool fetched per request.
	CandidateCap int
	// Workers bounds scoring concurrency.
	Workers int
	// HistoryTopN is how many results a history record keeps.
	HistoryTopN int
}

// DefaultConfig returns the stock ranking settings.
func DefaultConfig() Config {
	return Config{CandidateCap: 500, Workers: 8, HistoryTopN: history.DefaultTopN}
}

// Response is the ranked answer to a tender search.
type Response struct {
	CompanyID      string         `json:"company_id"`
	Results        []result.Match `json:"results"`
	Total          int            `json:"total"`
	GeneratedAt    time.Time      `json:"generated_at"`
	Query          string         `json:"query,omitempty"`
	FiltersApplied filter.Filters `json:"filters_applied"`
}

// Service ranks tenders for companies and companies for tenders.
type Service struct {
	tenders   TenderReader
	companies CompanyReader
	history   HistoryWriter
	embed     Embedder
	scorer    *matching.Scorer
	cfg       Config
	now       func() time.Time
}

// New creates a search service. A nil scorer uses matching.DefaultScorer.
func New(
	tenders TenderReader, companies CompanyReader, hist HistoryWriter,
	embed Embedder, scorer *matching.Scorer, cfg Config,
) *Service {
	if scorer == nil {
		scorer = matching.DefaultScorer()
	}
	def := DefaultConfig()
	if cfg.CandidateCap <= 0 {
		cfg.CandidateCap = def.CandidateCap
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.HistoryTopN <= 0 {
		cfg.HistoryTopN = def.HistoryTopN
	}
	return &Service{
		tenders:   tenders,
		companies: companies,
		history:   hist,
		embed:     embed,
		scorer:    scorer,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SearchTenders ranks eligible tenders for a company.
// Embedding failures degrade to keyword-only scoring; history persistence is
// best-effort.
func (s *Service) SearchTenders(ctx context.Context, req request.Request) (Response, error) {
	ctx, log := logger.With(ctx, zap.String("company_id", req.CompanyID()))

	profile, err := s.companies.Get(ctx, req.CompanyID())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(opSearchTenders, "error").Inc()
		return Response{}, fmt.Errorf("get company: %w", err)
	}

	queryVec := s.queryEmbedding(ctx, log, req.Query(), profile)

	candidates, err := s.tenders.ListCandidates(ctx, req.Filters(), s.cfg.CandidateCap)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(opSearchTenders, "error").Inc()
		return Response{}, fmt.Errorf("list candidates: %w", err)
	}
	metrics.CandidatePoolSize.WithLabelValues(opSearchTenders).Observe(float64(len(candidates)))

	ranked := make([]result.Ranked, len(candidates))
	profileMeta := profile.Metadata()
	start := time.Now()
	err = s.parallel(ctx, len(candidates), func(i int) {
		t := candidates[i]
		r := s.scorer.Score(t.Metadata(), profileMeta, matching.Cosine(queryVec, t.Embedding()))
		ranked[i] = result.NewRanked(result.Match{
			ID:      t.ID(),
			Label:   t.Label(),
			Reasons: r.Reasons,
		}, r.Score, t.EndDate())
	})
	metrics.ScoringDuration.WithLabelValues(opSearchTenders).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(opSearchTenders, "error").Inc()
		return Response{}, err
	}

	result.SortRanked(ranked)
	if len(ranked) > req.Limit() {
		ranked = ranked[:req.Limit()]
	}
	results := result.Matches(ranked)

	now := s.now()
	rec := history.New(req.CompanyID(), req.Query(), req.Filters(), results, s.cfg.HistoryTopN, now)
	if err := s.history.Append(ctx, rec); err != nil {
		metrics.HistoryWriteFailuresTotal.Inc()
		log.Warn("Failed to persist search history", zap.Error(err))
	}

	metrics.SearchRequestsTotal.WithLabelValues(opSearchTenders, "ok").Inc()
	log.Debug("Tender search completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Bool("vector", len(queryVec) > 0),
	)

	return Response{
		CompanyID:      req.CompanyID(),
		Results:        results,
		Total:          len(results),
		GeneratedAt:    now.UTC(),
		Query:          req.Query(),
		FiltersApplied: req.Filters(),
	}, nil
}

// MatchCompanies ranks companies for a tender by score only.
func (s *Service) MatchCompanies(ctx context.Context, req request.Match) ([]result.Match, error) {
	t, err := s.tenders.Get(ctx, req.TenderID())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(opMatchCompanies, "error").Inc()
		return nil, fmt.Errorf("get tender: %w", err)
	}

	profiles, err := s.companies.List(ctx, s.cfg.CandidateCap)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(opMatchCompanies, "error").Inc()
		return nil, fmt.Errorf("list companies: %w", err)
	}
	metrics.CandidatePoolSize.WithLabelValues(opMatchCompanies).Observe(float64(len(profiles)))

	ranked := make([]result.Ranked, len(profiles))
	tenderMeta, tenderVec := t.Metadata(), t.Embedding()
	start := time.Now()
	err = s.parallel(ctx, len(profiles), func(i int) {
		p := profiles[i]
		r := s.scorer.Score(tenderMeta, p.Metadata(), matching.Cosine(tenderVec, p.Embedding()))
		ranked[i] = result.NewRanked(result.Match{
			ID:      p.ID(),
			Label:   p.DisplayName(),
			Reasons: r.Reasons,
		}, r.Score, nil)
	})
	metrics.ScoringDuration.WithLabelValues(opMatchCompanies).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(opMatchCompanies, "error").Inc()
		return nil, err
	}

	result.SortRanked(ranked)
	if len(ranked) > req.Limit() {
		ranked = ranked[:req.Limit()]
	}
	matches := result.Matches(ranked)
	metrics.SearchRequestsTotal.WithLabelValues(opMatchCompanies, "ok").Inc()
	return matches, nil
}

// queryEmbedding picks the vector a search compares against: the query text,
// then the stored profile embedding, then the profile summary. Failures
// return nil so that scoring proceeds without vector similarity.
func (s *Service) queryEmbedding(
	ctx context.Context, log *zap.Logger, query string, profile domcompany.Profile,
) []float32 {
	text := query
	if text == "" {
		if len(profile.Embedding()) > 0 {
			return profile.Embedding()
		}
		text = strings.TrimSpace(profile.Metadata().Summary)
	}
	if text == "" {
		return nil
	}

	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		metrics.DegradedTotal.WithLabelValues(opSearchTenders, "embedding").Inc()
		log.Warn("Query embedding failed, ranking without vector similarity", zap.Error(err))
		return nil
	}
	return res.Embedding
}

// parallel runs fn for every index on a bounded worker pool. fn must write
// only to its own slot.
func (s *Service) parallel(ctx context.Context, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := 0; i < n; i++ {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("scoring pass: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scoring pass: %w", err)
	}
	return nil
}
