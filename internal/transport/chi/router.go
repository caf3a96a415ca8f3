package chi

import (
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Dev7-web/tendorlelo/internal/metrics"
)

// NewRouter mounts the API on a chi router with recovery, request ids,
// request logging, bearer auth and HTTP metrics.
func NewRouter(s *Server, apiKeys []string, log *zap.Logger) http.Handler {
	r := gochi.NewRouter()
	r.Use(jsonRecoverer(log))
	r.Use(chimiddleware.RequestID)
	r.Use(wideEventMiddleware(log))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/stats", s.Stats)
	r.Post("/search", s.SearchTenders)

	r.Route("/tenders", func(r gochi.Router) {
		r.Get("/", s.ListTenders)
		r.Route("/{id}", func(r gochi.Router) {
			r.Get("/", s.GetTender)
			r.Put("/", s.UpsertTender)
			r.Delete("/", s.DeleteTender)
			r.Post("/reprocess", s.ReprocessTender)
			r.Get("/matches", s.MatchCompanies)
		})
	})

	r.Route("/companies", func(r gochi.Router) {
		r.Get("/", s.ListCompanies)
		r.Route("/{id}", func(r gochi.Router) {
			r.Get("/", s.GetCompany)
			r.Put("/", s.UpsertCompany)
			r.Delete("/", s.DeleteCompany)
			r.Get("/searches", s.RecentSearches)
		})
	})

	return r
}
