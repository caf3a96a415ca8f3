// Package chi exposes the matching engine over HTTP.
package chi

import (
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"

	"github.com/Dev7-web/tendorlelo/internal/domain"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/history"
	"github.com/Dev7-web/tendorlelo/internal/domain/search/request"
	catalogusecase "github.com/Dev7-web/tendorlelo/internal/usecase/catalog"
	healthusecase "github.com/Dev7-web/tendorlelo/internal/usecase/health"
	searchusecase "github.com/Dev7-web/tendorlelo/internal/usecase/search"
)

// Server holds the HTTP handlers.
type Server struct {
	catalog *catalogusecase.Service
	search  *searchusecase.Service
	health  *healthusecase.Service
}

// NewServer creates an HTTP API server.
func NewServer(
	catalog *catalogusecase.Service,
	search *searchusecase.Service,
	health *healthusecase.Service,
) *Server {
	return &Server{catalog: catalog, search: search, health: health}
}

// SearchTenders handles POST /search.
func (s *Server) SearchTenders(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if code, msg, ok := decodeBody(r, &body, false); !ok {
		writeError(w, http.StatusBadRequest, code, msg)
		return
	}

	req, err := request.New(body.CompanyID, body.Query, body.Filters, body.Limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.SearchTenders(ctx, req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

// MatchCompanies handles GET /tenders/{id}/matches.
func (s *Server) MatchCompanies(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	id := gochi.URLParam(r, "id")
	req, err := request.NewMatch(id, limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	matches, err := s.search.MatchCompanies(r.Context(), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MatchResponse{TenderID: id, Matches: matches, Total: len(matches)})
}

// ListTenders handles GET /tenders.
func (s *Server) ListTenders(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	tenders, err := s.catalog.ListTenders(r.Context(), limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items := make([]TenderResponse, len(tenders))
	for i, t := range tenders {
		items[i] = tenderToResponse(t)
	}
	writeJSON(w, http.StatusOK, ListResponse[TenderResponse]{Items: items, Total: len(items)})
}

// GetTender handles GET /tenders/{id}.
func (s *Server) GetTender(w http.ResponseWriter, r *http.Request) {
	t, err := s.catalog.GetTender(r.Context(), gochi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tenderToResponse(t))
}

// UpsertTender handles PUT /tenders/{id}.
func (s *Server) UpsertTender(w http.ResponseWriter, r *http.Request) {
	var body TenderRequest
	if code, msg, ok := decodeBody(r, &body, false); !ok {
		writeError(w, http.StatusBadRequest, code, msg)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	t, err := s.catalog.UpsertTender(ctx, catalogusecase.TenderInput{
		ID:       gochi.URLParam(r, "id"),
		BidID:    body.BidID,
		EndDate:  body.EndDate,
		Active:   body.Active,
		Metadata: body.Metadata,
		Text:     body.Text,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, tenderToResponse(t))
}

// ReprocessTender handles POST /tenders/{id}/reprocess.
func (s *Server) ReprocessTender(w http.ResponseWriter, r *http.Request) {
	var body ReprocessRequest
	if code, msg, ok := decodeBody(r, &body, true); !ok {
		writeError(w, http.StatusBadRequest, code, msg)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	t, err := s.catalog.ReprocessTender(ctx, gochi.URLParam(r, "id"), body.Text)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, tenderToResponse(t))
}

// DeleteTender handles DELETE /tenders/{id}.
func (s *Server) DeleteTender(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteTender(r.Context(), gochi.URLParam(r, "id")); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCompanies handles GET /companies.
func (s *Server) ListCompanies(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	profiles, err := s.catalog.ListCompanies(r.Context(), limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items := make([]CompanyResponse, len(profiles))
	for i, p := range profiles {
		items[i] = companyToResponse(p)
	}
	writeJSON(w, http.StatusOK, ListResponse[CompanyResponse]{Items: items, Total: len(items)})
}

// GetCompany handles GET /companies/{id}.
func (s *Server) GetCompany(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.GetCompany(r.Context(), gochi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, companyToResponse(p))
}

// UpsertCompany handles PUT /companies/{id}.
func (s *Server) UpsertCompany(w http.ResponseWriter, r *http.Request) {
	var body CompanyRequest
	if code, msg, ok := decodeBody(r, &body, false); !ok {
		writeError(w, http.StatusBadRequest, code, msg)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	p, err := s.catalog.UpsertCompany(ctx, catalogusecase.CompanyInput{
		ID:       gochi.URLParam(r, "id"),
		Name:     body.Name,
		Metadata: body.Metadata,
		Text:     body.Text,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, companyToResponse(p))
}

// DeleteCompany handles DELETE /companies/{id}.
func (s *Server) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteCompany(r.Context(), gochi.URLParam(r, "id")); err != nil {
		handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecentSearches handles GET /companies/{id}/searches.
func (s *Server) RecentSearches(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	records, err := s.catalog.RecentSearches(r.Context(), gochi.URLParam(r, "id"), limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[history.Record]{Items: records, Total: len(records)})
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.catalog.Stats(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status healthusecase.Status                 `json:"status"`
	Checks map[string]healthusecase.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthusecase.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: report.Status, Checks: report.Checks})
}

// queryLimit parses the optional ?limit= parameter. A missing value is 0,
// which the use cases turn into their default.
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "limit must be an integer")
		return 0, false
	}
	return n, true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Calls > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}
