package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Dev7-web/tendorlelo/internal/domain"
	domcompany "github.com/Dev7-web/tendorlelo/internal/domain/company"
	"github.com/Dev7-web/tendorlelo/internal/domain/metadata"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/filter"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/history"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/request"
	domtender "github.com/Dev7-web/tendorlelo/internal/domain/tender"
)

// --- Mocks ---

type mockTenders struct {
	byID       map[string]domtender.Tender
	candidates []domtender.Tender
	listErr    error
	lastFilter filter.Filters
	lastLimit  int
}

func (m *mockTenders) Get(_ context.Context, id string) (domtender.Tender, error) {
	t, ok := m.byID[id]
	if !ok {
		return domtender.Tender{}, fmt.Errorf("tender %q: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

func (m *mockTenders) ListCandidates(_ context.Context, f filter.Filters, limit int) ([]domtender.Tender, error) {
	m.lastFilter = f
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := m.candidates
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockCompanies struct {
	byID map[string]domcompany.Profile
	all  []domcompany.Profile
}

func (m *mockCompanies) Get(_ context.Context, id string) (domcompany.Profile, error) {
	p, ok := m.byID[id]
	if !ok {
		return domcompany.Profile{}, fmt.Errorf("company %q: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (m *mockCompanies) List(_ context.Context, _ int) ([]domcompany.Profile, error) {
	return m.all, nil
}

type mockHistory struct {
	records []history.Record
	err     error
}

func (m *mockHistory) Append(_ context.Context, rec history.Record) error {
	m.records = append(m.records, rec)
	return m.err
}

type mockEmbedder struct {
	vec   []float32
	err   error
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

// --- Fixtures ---

var (
	created = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fixedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func avProfile() domcompany.Profile {
	return domcompany.Reconstruct("acme-av", "Acme AV", metadata.Record{
		Summary:      "Museum audio visual integrator",
		Domains:      []string{"Museum", "Audio Visual"},
		Technologies: []string{"LED Wall", "Projection Mapping"},
		Capabilities: []string{"LED wall installation", "museum exhibit design"},
	}, nil, created, created)
}

func museumTender(id string, end *time.Time) domtender.Tender {
	return domtender.Reconstruct(id, "GEM/"+id, metadata.Record{
		Title:   "LED video wall for museum gallery",
		Domains: []string{"Museum"},
	}, nil, end, true, false, created, created)
}

func farmTender(id string) domtender.Tender {
	return domtender.Reconstruct(id, "", metadata.Record{
		Title:   "Supply of tractors",
		Domains: []string{"Agriculture"},
	}, nil, date(2027, 1, 1), true, false, created, created)
}

type fixture struct {
	svc       *Service
	tenders   *mockTenders
	companies *mockCompanies
	history   *mockHistory
	embed     *mockEmbedder
}

func newFixture(candidates ...domtender.Tender) *fixture {
	p := avProfile()
	f := &fixture{
		tenders:   &mockTenders{byID: map[string]domtender.Tender{}, candidates: candidates},
		companies: &mockCompanies{byID: map[string]domcompany.Profile{p.ID(): p}, all: []domcompany.Profile{p}},
		history:   &mockHistory{},
		embed:     &mockEmbedder{vec: []float32{1, 0}},
	}
	for _, t := range candidates {
		f.tenders.byID[t.ID()] = t
	}
	f.svc = New(f.tenders, f.companies, f.history, f.embed, nil, Config{Workers: 2})
	f.svc.now = func() time.Time { return fixedAt }
	return f
}

func mustRequest(t *testing.T, companyID, query string, f filter.Filters, limit int) request.Request {
	t.Helper()
	req, err := request.New(companyID, query, f, limit)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return req
}

// --- SearchTenders ---

func TestSearchTenders_RanksBestFirst(t *testing.T) {
	f := newFixture(farmTender("farm"), museumTender("museum", date(2026, 5, 1)))

	resp, err := f.svc.SearchTenders(context.Background(), mustRequest(t, "acme-av", "", filter.Filters{}, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 2 || len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %+v", resp)
	}
	if resp.Results[0].ID != "museum" {
		t.Errorf("expected museum tender first, got %q", resp.Results[0].ID)
	}
	if resp.Results[0].Label != "GEM/museum" {
		t.Errorf("expected bid id as label, got %q", resp.Results[0].Label)
	}
	if resp.Results[0].Score <= resp.Results[1].Score {
		t.Errorf("expected strictly better score, got %v", resp.Results)
	}
	if len(resp.Results[0].Reasons) == 0 {
		t.Error("expected match reasons")
	}
	if !resp.GeneratedAt.Equal(fixedAt) || resp.CompanyID != "acme-av" {
		t.Errorf("unexpected envelope: %+v", resp)
	}
}

func TestSearchTenders_EndDateTieBreak(t *testing.T) {
	f := newFixture(
		museumTender("no-date", nil),
		museumTender("early", date(2026, 4, 1)),
		museumTender("late", date(2026, 9, 1)),
	)

	resp, err := f.svc.SearchTenders(context.Background(), mustRequest(t, "acme-av", "", filter.Filters{}, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"late", "early", "no-date"}
	for i, id := range want {
		if resp.Results[i].ID != id {
			t.Fatalf("position %d: want %q, got %q (all: %v)", i, id, resp.Results[i].ID, resp.Results)
		}
	}
}

func TestSearchTenders_UnknownCompany(t *testing.T) {
	f := newFixture(museumTender("museum", nil))

	_, err := f.svc.SearchTenders(context.Background(), mustRequest(t, "ghost", "", filter.Filters{}, 0))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(f.history.records) != 0 {
		t.Error("no history must be written for a failed search")
	}
}

func TestSearchTenders_LimitAndHistory(t *testing.T) {
	var cands []domtender.Tender
	for i := 0; i < 8; i++ {
		cands = append(cands, museumTender(fmt.Sprintf("t%d", i), date(2026, 4, i+1)))
	}
	f := newFixture(cands...)

	resp, err := f.svc.SearchTenders(context.Background(), mustRequest(t, "acme-av", "led wall", filter.Filters{}, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(resp.Results))
	}
	if len(f.history.records) != 1 {
		t.Fatalf("expected one history record, got %d", len(f.history.records))
	}
	rec := f.history.records[0]
	if rec.ResultCount != 7 || len(rec.TopResults) != history.DefaultTopN {
		t.Errorf("unexpected history record: count=%d top=%d", rec.ResultCount, len(rec.TopResults))
	}
	if rec.Query != "led wall" || rec.CompanyID != "acme-av" || rec.ID == "" {
		t.Errorf("unexpected history record: %+v", rec)
	}
	if rec.TopResults[0].ID != resp.Results[0].ID {
		t.Error("history must keep the top results in rank order")
	}
}

func TestSearchTenders_HistoryFailureIsNotReturned(t *testing.T) {
	f := newFixture(museumTender("museum", nil))
	f.history.err = errors.New("redis down")

	resp, err := f.svc.SearchTenders(context.Background(), mustRequest(t, "acme-av", "", filter.Filters{}, 0))
	if err != nil {
		t.Fatalf("history failure must not fail the search: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(resp.Results))
	}
}

func TestSearchTenders_EmbeddingFailureDegrades(t *testing.T) {
	f := newFixture(museumTender("museum", nil))
	f.embed.err = domain.ErrEmbeddingProviderError

	resp, err := f.svc.SearchTenders(context.Background(), mustRequest(t, "acme-av", "video wall", filter.Filters{}, 0))
	if err != nil {
		t.Fatalf("embedding failure must degrade, got %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Score == 0 {
		t.Errorf("expected keyword-only score, got %+v", resp.Results)
	}
}

func TestSearchTenders_QueryEmbeddingSource(t *testing.T) {
	t.Run("query text", func(t *testing.T) {
		f := newFixture(museumTender("museum", nil))
		_, _ = f.svc.SearchTenders(context.Background(), mustRequest(t, "acme-av", "projector", filter.Filters{}, 0))
		if len(f.embed.texts) != 1 || f.embed.texts[0] != "projector" {
			t.Errorf("expected query to be embedded, got %v", f.embed.texts)
		}
	})

	t.Run("stored profile embedding", func(t *testing.T) {
		f := newFixture(museumTender("museum", nil))
		p := avProfile().WithProcessing(avProfile().Metadata(), []float32{0, 1}, created)
		f.companies.byID[p.ID()] = p
		_, _ = f.svc.SearchTenders(context.Background(), mustRequest(t, "acme-av", "", filter.Filters{}, 0))
		if len(f.embed.texts) != 0 {
			t.Errorf("stored embedding must be reused, got %v", f.embed.texts)
		}
	})

	t.Run("profile summary", func(t *testing.T) {
		f := newFixture(museumTender("museum", nil))
		_, _ = f.svc.SearchTenders(context.Background(), mustRequest(t, "acme-av", "", filter.Filters{}, 0))
		if len(f.embed.texts) != 1 || f.embed.texts[0] != "Museum audio visual integrator" {
			t.Errorf("expected summary to be embedded, got %v", f.embed.texts)
		}
	})
}

func TestSearchTenders_PassesFiltersAndCap(t *testing.T) {
	f := newFixture(museumTender("museum", nil))
	filters := filter.Filters{Domains: []string{"Museum"}}

	resp, err := f.svc.SearchTenders(context.Background(), mustRequest(t, "acme-av", "", filters, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.tenders.lastLimit != DefaultConfig().CandidateCap {
		t.Errorf("expected candidate cap %d, got %d", DefaultConfig().CandidateCap, f.tenders.lastLimit)
	}
	if len(f.tenders.lastFilter.Domains) != 1 || len(resp.FiltersApplied.Domains) != 1 {
		t.Error("filters must reach the candidate lister and the response")
	}
}

func TestSearchTenders_ListError(t *testing.T) {
	f := newFixture()
	f.tenders.listErr = errors.New("timeout")

	_, err := f.svc.SearchTenders(context.Background(), mustRequest(t, "acme-av", "", filter.Filters{}, 0))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSearchTenders_EmptyPool(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.SearchTenders(context.Background(), mustRequest(t, "acme-av", "", filter.Filters{}, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("expected empty non-nil results, got %#v", resp.Results)
	}
}

func TestSearchTenders_Deterministic(t *testing.T) {
	f := newFixture(
		museumTender("a", date(2026, 4, 1)), farmTender("b"),
		museumTender("c", nil), museumTender("d", date(2026, 4, 1)),
	)
	req := mustRequest(t, "acme-av", "", filter.Filters{}, 0)

	first, _ := f.svc.SearchTenders(context.Background(), req)
	for n := 0; n < 5; n++ {
		again, _ := f.svc.SearchTenders(context.Background(), req)
		for i := range first.Results {
			if first.Results[i].ID != again.Results[i].ID || first.Results[i].Score != again.Results[i].Score {
				t.Fatalf("ranking changed between runs: %v vs %v", first.Results, again.Results)
			}
		}
	}
}

// --- MatchCompanies ---

func TestMatchCompanies_UnknownTender(t *testing.T) {
	f := newFixture()
	req, _ := request.NewMatch("missing", 0)

	_, err := f.svc.MatchCompanies(context.Background(), req)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMatchCompanies_RanksAndLimits(t *testing.T) {
	f := newFixture(museumTender("museum", nil))
	weak := domcompany.Reconstruct("farmco", "", metadata.Record{
		CompanyName: "Farm Co",
		Domains:     []string{"Agriculture"},
	}, nil, created, created)
	f.companies.all = []domcompany.Profile{weak, avProfile()}

	req, _ := request.NewMatch("museum", 1)
	got, err := f.svc.MatchCompanies(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "acme-av" || got[0].Label != "Acme AV" {
		t.Fatalf("expected acme-av alone, got %+v", got)
	}

	req, _ = request.NewMatch("museum", 0)
	got, _ = f.svc.MatchCompanies(context.Background(), req)
	if len(got) != 2 || got[1].Label != "Farm Co" {
		t.Errorf("expected both companies, display name fallback, got %+v", got)
	}
	if len(f.history.records) != 0 {
		t.Error("company matching must not write history")
	}
}

func TestMatchCompanies_UsesVectorSimilarity(t *testing.T) {
	tn := domtender.Reconstruct("vec", "", metadata.Record{}, []float32{1, 0}, nil, true, false, created, created)
	f := newFixture(tn)
	near := domcompany.Reconstruct("near", "Near", metadata.Record{}, []float32{1, 0}, created, created)
	far := domcompany.Reconstruct("far", "Far", metadata.Record{}, []float32{0, 1}, created, created)
	f.companies.all = []domcompany.Profile{far, near}

	req, _ := request.NewMatch("vec", 0)
	got, err := f.svc.MatchCompanies(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].ID != "near" || got[0].Score != 0.05 || got[1].Score != 0 {
		t.Errorf("expected vector-only ranking, got %+v", got)
	}
}
