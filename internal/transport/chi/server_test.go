package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dev7-web/tendorlelo/internal/db/badger"
	"github.com/Dev7-web/tendorlelo/internal/domain"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/history"
	companyrepo "github.com/Dev7-web/tendorlelo/internal/repository/company"
	historyrepo "github.com/Dev7-web/tendorlelo/internal/repository/history"
	tenderrepo "github.com/Dev7-web/tendorlelo/internal/repository/tender"
	catalogusecase "github.com/Dev7-web/tendorlelo/internal/usecase/catalog"
	embeddingusecase "github.com/Dev7-web/tendorlelo/internal/usecase/embedding"
	healthusecase "github.com/Dev7-web/tendorlelo/internal/usecase/health"
	searchusecase "github.com/Dev7-web/tendorlelo/internal/usecase/search"
)

// --- Fakes ---

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if text == "" {
		return domain.EmbeddingResult{}, errors.New("empty text")
	}
	return domain.EmbeddingResult{Embedding: []float32{0.6, 0.8}, TotalTokens: 4}, nil
}

// --- Fixture ---

const (
	tenderBody = `{
		"bid_id": "GEM/2026/B/1001",
		"end_date": "2026-12-31T00:00:00Z",
		"metadata": {
			"title": "LED video wall",
			"summary": "Supply and installation of LED video wall for museum gallery",
			"sector": "Culture",
			"domains": ["Museum"],
			"required_technologies": ["LED display"]
		}
	}`
	companyBody = `{
		"name": "Acme AV",
		"metadata": {
			"summary": "Audio visual integrator for museums",
			"domains": ["museum", "audio visual"],
			"technologies": ["LED display"],
			"capabilities": ["LED wall installation"],
			"government_experience": true
		}
	}`
)

func newTestAPI(t *testing.T, probes ...healthusecase.Probe) http.Handler {
	t.Helper()
	store, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(store.Close)

	log := zap.NewNop()
	tenders := tenderrepo.New(store, "api:", log)
	companies := companyrepo.New(store, "api:", log)
	hist := historyrepo.New(store, "api:", 50, log)
	embed := embeddingusecase.NewInstrumentedEmbedder(fakeEmbedder{}, "fake", "fake-model", log)

	srv := NewServer(
		catalogusecase.New(tenders, companies, hist, nil, embed),
		searchusecase.New(tenders, companies, hist, embed, nil, searchusecase.DefaultConfig()),
		healthusecase.New(store, time.Second, probes...),
	)
	return NewRouter(srv, nil, log)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func seed(t *testing.T, h http.Handler) {
	t.Helper()
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/tenders/t-1", tenderBody).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/companies/c-1", companyBody).Code)
}

// --- Catalog ---

func TestUpsertAndGetTender(t *testing.T) {
	h := newTestAPI(t)

	rr := do(t, h, http.MethodPut, "/tenders/t-1", tenderBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "4", rr.Header().Get("X-Embedding-Tokens"))
	created := decode[TenderResponse](t, rr)
	assert.Equal(t, "GEM/2026/B/1001", created.Label)
	assert.True(t, created.Eligible)
	assert.True(t, created.HasEmbedding)

	rr = do(t, h, http.MethodGet, "/tenders/t-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[TenderResponse](t, rr)
	assert.Equal(t, "LED video wall", got.Metadata.Title)
	assert.Equal(t, []string{"Museum"}, got.Metadata.Domains)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, 2026, got.EndDate.Year())
}

func TestUpsertTender_WithoutContent_400(t *testing.T) {
	h := newTestAPI(t)

	rr := do(t, h, http.MethodPut, "/tenders/t-1", `{"bid_id":"X"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, CodeValidationFailed, decode[ErrorResponse](t, rr).Code)
}

func TestUpsertTender_MalformedJSON_400(t *testing.T) {
	h := newTestAPI(t)

	rr := do(t, h, http.MethodPut, "/tenders/t-1", `{"metadata":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, CodeBadRequest, decode[ErrorResponse](t, rr).Code)
}

func TestGetTender_NotFound(t *testing.T) {
	h := newTestAPI(t)

	rr := do(t, h, http.MethodGet, "/tenders/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decode[ErrorResponse](t, rr)
	assert.Equal(t, CodeNotFound, resp.Code)
	assert.Equal(t, domain.ErrNotFound.Error(), resp.Message)
}

func TestDeleteTender(t *testing.T) {
	h := newTestAPI(t)
	seed(t, h)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/tenders/t-1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/tenders/t-1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/tenders/t-1", "").Code)
}

func TestReprocessTender_EmptyBody(t *testing.T) {
	h := newTestAPI(t)
	seed(t, h)

	rr := do(t, h, http.MethodPost, "/tenders/t-1/reprocess", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "LED video wall", decode[TenderResponse](t, rr).Metadata.Title)
}

func TestListTendersAndCompanies(t *testing.T) {
	h := newTestAPI(t)
	seed(t, h)

	rr := do(t, h, http.MethodGet, "/tenders", "")
	require.Equal(t, http.StatusOK, rr.Code)
	tenders := decode[ListResponse[TenderResponse]](t, rr)
	assert.Equal(t, 1, tenders.Total)

	rr = do(t, h, http.MethodGet, "/companies?limit=10", "")
	require.Equal(t, http.StatusOK, rr.Code)
	companies := decode[ListResponse[CompanyResponse]](t, rr)
	require.Len(t, companies.Items, 1)
	assert.Equal(t, "Acme AV", companies.Items[0].DisplayName)
}

func TestList_BadLimit(t *testing.T) {
	h := newTestAPI(t)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/tenders?limit=ten", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/tenders?limit=-1", "").Code)
}

func TestStats(t *testing.T) {
	h := newTestAPI(t)
	seed(t, h)

	rr := do(t, h, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	st := decode[catalogusecase.Stats](t, rr)
	assert.Equal(t, 1, st.TendersTotal)
	assert.Equal(t, 1, st.TendersEligible)
	assert.Equal(t, 1, st.CompaniesTotal)
}

// --- Search ---

func TestSearchTenders(t *testing.T) {
	h := newTestAPI(t)
	seed(t, h)

	rr := do(t, h, http.MethodPost, "/search", `{"company_id":"c-1","query":"museum LED wall","limit":5}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "4", rr.Header().Get("X-Embedding-Tokens"))

	resp := decode[searchusecase.Response](t, rr)
	assert.Equal(t, "c-1", resp.CompanyID)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "t-1", resp.Results[0].ID)
	assert.Greater(t, resp.Results[0].Score, 0.0)
	assert.NotEmpty(t, resp.Results[0].Reasons)

	rr = do(t, h, http.MethodGet, "/companies/c-1/searches", "")
	require.Equal(t, http.StatusOK, rr.Code)
	recent := decode[ListResponse[history.Record]](t, rr)
	require.Len(t, recent.Items, 1)
	assert.Equal(t, "museum LED wall", recent.Items[0].Query)
}

func TestSearchTenders_Validation(t *testing.T) {
	h := newTestAPI(t)
	seed(t, h)

	tests := []struct {
		name string
		body string
		code ErrorCode
	}{
		{"malformed", `{`, CodeBadRequest},
		{"missing company", `{"query":"x"}`, CodeValidationFailed},
		{"negative limit", `{"company_id":"c-1","limit":-3}`, CodeValidationFailed},
		{"inverted value range", `{"company_id":"c-1","filters":{"min_value":10,"max_value":1}}`, CodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rr).Code)
		})
	}
}

func TestSearchTenders_UnknownCompany_404(t *testing.T) {
	h := newTestAPI(t)

	rr := do(t, h, http.MethodPost, "/search", `{"company_id":"nobody"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMatchCompanies(t *testing.T) {
	h := newTestAPI(t)
	seed(t, h)

	rr := do(t, h, http.MethodGet, "/tenders/t-1/matches?limit=3", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[MatchResponse](t, rr)
	assert.Equal(t, "t-1", resp.TenderID)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "c-1", resp.Matches[0].ID)
	assert.Equal(t, "Acme AV", resp.Matches[0].Label)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/tenders/none/matches", "").Code)
}

// --- Health and plumbing ---

func TestHealthCheck(t *testing.T) {
	h := newTestAPI(t)

	rr := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[HealthResponse](t, rr)
	assert.Equal(t, healthusecase.Healthy, resp.Status)
	assert.Equal(t, healthusecase.CheckOK, resp.Checks["database"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	failing := healthusecase.Probe{
		Name:  "embedding",
		Check: healthusecase.CheckerFunc(func(context.Context) error { return errors.New("down") }),
	}
	h := newTestAPI(t, failing)

	rr := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	resp := decode[HealthResponse](t, rr)
	assert.Equal(t, healthusecase.Degraded, resp.Status)
	assert.Equal(t, healthusecase.CheckError, resp.Checks["embedding"])
}

func TestRouter_RequestIDAndNotFound(t *testing.T) {
	h := newTestAPI(t)

	rr := do(t, h, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, CodeNotFound, decode[ErrorResponse](t, rr).Code)
}

func TestHandleDomainError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    ErrorCode
		message string
	}{
		{"not found", fmt.Errorf("get: %w", domain.ErrNotFound), http.StatusNotFound, CodeNotFound, "not found"},
		{
			"upstream", domain.NewUpstreamError("redis", errors.New("dial tcp 10.0.0.1:6379")),
			http.StatusBadGateway, CodeUpstreamError, "upstream unavailable",
		},
		{"internal", errors.New("boom at /secret/path"), http.StatusInternalServerError, CodeInternalError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handleDomainError(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody), tt.err)
			assert.Equal(t, tt.status, rr.Code)
			resp := decode[ErrorResponse](t, rr)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestHandleDomainError_InvalidInputKeepsDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	handleDomainError(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody), domain.InvalidInputf("limit must be >= 0"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.True(t, strings.Contains(decode[ErrorResponse](t, rr).Message, "limit must be >= 0"))
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, CodeInternalError, decode[ErrorResponse](t, rr).Code)
}
