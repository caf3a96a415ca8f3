package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Dev7-web/tendorlelo/internal/domain"
	domcompany "github.com/Dev7-web/tendorlelo/internal/domain/company"
	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/history"
	domtender "github.com/Dev7-web/tendorlelo/internal/domain/tender"
	"github.com/Dev7-web/tendorlelo/internal/logger"
	"github.com/Dev7-web/tendorlelo/internal/metrics"
)

// Listing and history caps.
const (
	DefaultListLimit   = 50
	MaxListLimit       = 500
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

const opCatalogProcessing = "catalog"

// TenderInput creates or updates a tender. Metadata, when non-nil, is used
// as given; otherwise Text is sent to the extractor. With neither, an
// existing tender keeps its processed fields.
type TenderInput struct {
	ID       string
	BidID    string
	EndDate  *time.Time
	Active   *bool
	Metadata map[string]any
	Text     string
}

// CompanyInput creates or updates a company profile.
type CompanyInput struct {
	ID       string
	Name     string
	Metadata map[string]any
	Text     string
}

// Stats summarizes the catalog.
type Stats struct {
	TendersTotal     int `json:"tenders_total"`
	TendersProcessed int `json:"tenders_processed"`
	TendersPending   int `json:"tenders_pending"`
	TendersEligible  int `json:"tenders_eligible"`
	TendersExpired   int `json:"tenders_expired"`
	CompaniesTotal   int `json:"companies_total"`
}

// Service ingests tenders and company profiles: metadata extraction,
// summary embedding and lifecycle.
type Service struct {
	tenders   TenderRepository
	companies CompanyRepository
	history   HistoryReader
	extractor Extractor
	embed     Embedder
	now       func() time.Time
}

// New creates a catalog service. extractor may be nil, in which case only
// metadata supplied by callers is accepted.
func New(
	tenders TenderRepository, companies CompanyRepository, hist HistoryReader,
	extractor Extractor, embed Embedder,
) *Service {
	return &Service{
		tenders:   tenders,
		companies: companies,
		history:   hist,
		extractor: extractor,
		embed:     embed,
		now:       time.Now,
	}
}

// UpsertTender creates or replaces a tender. Extraction and embedding
// failures are logged and leave the corresponding fields empty.
func (s *Service) UpsertTender(ctx context.Context, in TenderInput) (domtender.Tender, error) {
	if err := domtender.ValidateID(in.ID); err != nil {
		return domtender.Tender{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	now := s.now()

	existing, err := s.tenders.Get(ctx, in.ID)
	found := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domtender.Tender{}, fmt.Errorf("get tender: %w", err)
	}

	var t domtender.Tender
	if found {
		active := existing.Active()
		if in.Active != nil {
			active = *in.Active
		}
		bidID := existing.BidID()
		if in.BidID != "" {
			bidID = in.BidID
		}
		endDate := existing.EndDate()
		if in.EndDate != nil {
			endDate = in.EndDate
		}
		t = existing.WithListing(bidID, endDate, active, now)
	} else {
		if in.Metadata == nil && strings.TrimSpace(in.Text) == "" {
			return domtender.Tender{}, domain.InvalidInputf("tender %q needs metadata or document text", in.ID)
		}
		t, err = domtender.New(in.ID, in.BidID, metadata.Record{}, in.EndDate, now)
		if err != nil {
			return domtender.Tender{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		if in.Active != nil && !*in.Active {
			t = t.WithListing(t.BidID(), t.EndDate(), false, now)
		}
	}

	if in.Metadata != nil || strings.TrimSpace(in.Text) != "" {
		meta, err := s.resolveMetadata(ctx, in.Metadata, in.Text, s.extractTender)
		if err != nil {
			return domtender.Tender{}, err
		}
		t = t.WithProcessing(meta, s.summaryEmbedding(ctx, meta, meta.Title), now)
	}

	if err := s.tenders.Save(ctx, t); err != nil {
		return domtender.Tender{}, fmt.Errorf("save tender: %w", err)
	}
	return t, nil
}

// ReprocessTender re-extracts (when text is given) and re-embeds a tender.
// Metadata and embedding are replaced wholesale.
func (s *Service) ReprocessTender(ctx context.Context, id, text string) (domtender.Tender, error) {
	t, err := s.tenders.Get(ctx, id)
	if err != nil {
		return domtender.Tender{}, fmt.Errorf("get tender: %w", err)
	}
	meta := t.Metadata()
	if strings.TrimSpace(text) != "" {
		if meta, err = s.resolveMetadata(ctx, nil, text, s.extractTender); err != nil {
			return domtender.Tender{}, err
		}
	}
	now := s.now()
	t = t.WithProcessing(meta, s.summaryEmbedding(ctx, meta, meta.Title), now)
	if err := s.tenders.Save(ctx, t); err != nil {
		return domtender.Tender{}, fmt.Errorf("save tender: %w", err)
	}
	return t, nil
}

// UpsertCompany creates or replaces a company profile.
func (s *Service) UpsertCompany(ctx context.Context, in CompanyInput) (domcompany.Profile, error) {
	if err := domcompany.ValidateID(in.ID); err != nil {
		return domcompany.Profile{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	now := s.now()

	p, err := s.companies.Get(ctx, in.ID)
	found := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domcompany.Profile{}, fmt.Errorf("get company: %w", err)
	}
	if !found {
		if in.Metadata == nil && strings.TrimSpace(in.Text) == "" {
			return domcompany.Profile{}, domain.InvalidInputf("company %q needs metadata or document text", in.ID)
		}
		if p, err = domcompany.New(in.ID, in.Name, metadata.Record{}, now); err != nil {
			return domcompany.Profile{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
	} else if strings.TrimSpace(in.Name) != "" {
		p = p.WithName(in.Name, now)
	}

	if in.Metadata != nil || strings.TrimSpace(in.Text) != "" {
		meta, err := s.resolveMetadata(ctx, in.Metadata, in.Text, s.extractCompany)
		if err != nil {
			return domcompany.Profile{}, err
		}
		p = p.WithProcessing(meta, s.summaryEmbedding(ctx, meta, meta.CompanyName), now)
	}

	if err := s.companies.Save(ctx, p); err != nil {
		return domcompany.Profile{}, fmt.Errorf("save company: %w", err)
	}
	return p, nil
}

// ExpireOverdue marks every active tender whose end date is before now as
// expired and returns how many were changed.
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	all, err := s.tenders.List(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("list tenders: %w", err)
	}

	expired := 0
	for _, t := range all {
		if t.Expired() || !t.Overdue(now) {
			continue
		}
		if err := s.tenders.Save(ctx, t.MarkExpired(now)); err != nil {
			return expired, fmt.Errorf("expire tender %s: %w", t.ID(), err)
		}
		expired++
	}

	metrics.TendersExpiredTotal.Add(float64(expired))
	logger.FromContext(ctx).Info("Expired overdue tenders", zap.Int("expired", expired), zap.Int("scanned", len(all)))
	return expired, nil
}

// GetTender returns a tender by ID.
func (s *Service) GetTender(ctx context.Context, id string) (domtender.Tender, error) {
	t, err := s.tenders.Get(ctx, id)
	if err != nil {
		return domtender.Tender{}, fmt.Errorf("get tender: %w", err)
	}
	return t, nil
}

// GetCompany returns a company profile by ID.
func (s *Service) GetCompany(ctx context.Context, id string) (domcompany.Profile, error) {
	p, err := s.companies.Get(ctx, id)
	if err != nil {
		return domcompany.Profile{}, fmt.Errorf("get company: %w", err)
	}
	return p, nil
}

// ListTenders returns recent tenders. A zero limit means DefaultListLimit.
func (s *Service) ListTenders(ctx context.Context, limit int) ([]domtender.Tender, error) {
	limit, err := clamp(limit, DefaultListLimit, MaxListLimit)
	if err != nil {
		return nil, err
	}
	out, err := s.tenders.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list tenders: %w", err)
	}
	return out, nil
}

// ListCompanies returns recent company profiles.
func (s *Service) ListCompanies(ctx context.Context, limit int) ([]domcompany.Profile, error) {
	limit, err := clamp(limit, DefaultListLimit, MaxListLimit)
	if err != nil {
		return nil, err
	}
	out, err := s.companies.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return out, nil
}

// DeleteTender removes a tender.
func (s *Service) DeleteTender(ctx context.Context, id string) error {
	if err := s.tenders.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tender: %w", err)
	}
	return nil
}

// DeleteCompany removes a company profile. Its search history is kept.
func (s *Service) DeleteCompany(ctx context.Context, id string) error {
	if err := s.companies.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}

// RecentSearches returns a company's latest searches, newest first.
func (s *Service) RecentSearches(ctx context.Context, companyID string, n int) ([]history.Record, error) {
	if _, err := s.companies.Get(ctx, companyID); err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	n, err := clamp(n, DefaultRecentLimit, MaxRecentLimit)
	if err != nil {
		return nil, err
	}
	out, err := s.history.Recent(ctx, companyID, n)
	if err != nil {
		return nil, fmt.Errorf("recent searches: %w", err)
	}
	return out, nil
}

// Stats counts tenders by processing and lifecycle state.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	tenders, err := s.tenders.List(ctx, 0)
	if err != nil {
		return Stats{}, fmt.Errorf("list tenders: %w", err)
	}
	companies, err := s.companies.List(ctx, 0)
	if err != nil {
		return Stats{}, fmt.Errorf("list companies: %w", err)
	}

	st := Stats{TendersTotal: len(tenders), CompaniesTotal: len(companies)}
	for _, t := range tenders {
		if t.Metadata().IsEmpty() {
			st.TendersPending++
		} else {
			st.TendersProcessed++
		}
		if t.Expired() {
			st.TendersExpired++
		}
		if t.Eligible() {
			st.TendersEligible++
		}
	}
	return st, nil
}

type extractFunc func(ctx context.Context, text string) (metadata.Record, error)

func (s *Service) extractTender(ctx context.Context, text string) (metadata.Record, error) {
	return s.extractor.ExtractTender(ctx, text)
}

func (s *Service) extractCompany(ctx context.Context, text string) (metadata.Record, error) {
	return s.extractor.ExtractCompany(ctx, text)
}

// resolveMetadata decodes caller metadata or extracts it from text.
// Upstream extraction failures degrade to an empty record.
func (s *Service) resolveMetadata(
	ctx context.Context, raw map[string]any, text string, extract extractFunc,
) (metadata.Record, error) {
	log := logger.FromContext(ctx)

	if raw != nil {
		rec, fieldErrs := metadata.FromMap(raw)
		for _, fe := range fieldErrs {
			log.Warn("Dropped malformed metadata field", zap.String("field", fe.Field), zap.Error(fe.Err))
		}
		return rec, nil
	}

	if s.extractor == nil {
		return metadata.Record{}, domain.InvalidInputf("metadata extraction is not configured, supply metadata")
	}
	rec, err := extract(ctx, text)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		metrics.DegradedTotal.WithLabelValues(opCatalogProcessing, "extraction").Inc()
		log.Warn("Metadata extraction failed, storing without metadata", zap.Error(err))
		return metadata.Record{}, nil
	default:
		return metadata.Record{}, fmt.Errorf("extract metadata: %w", err)
	}
}

// summaryEmbedding embeds the summary, falling back to the given text.
// Failures degrade to no embedding.
func (s *Service) summaryEmbedding(ctx context.Context, meta metadata.Record, fallback string) []float32 {
	text := strings.TrimSpace(meta.Summary)
	if text == "" {
		text = strings.TrimSpace(fallback)
	}
	if text == "" || s.embed == nil {
		return nil
	}
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		metrics.DegradedTotal.WithLabelValues(opCatalogProcessing, "embedding").Inc()
		logger.FromContext(ctx).Warn("Summary embedding failed, storing without embedding", zap.Error(err))
		return nil
	}
	return res.Embedding
}

func clamp(n, def, maxN int) (int, error) {
	switch {
	case n < 0:
		return 0, domain.InvalidInputf("limit must be >= 0, got %d", n)
	case n == 0:
		return def, nil
	case n > maxN:
		return maxN, nil
	}
	return n, nil
}
