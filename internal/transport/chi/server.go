// Package chi is the HTTP transport: admin and tenant routes over the use cases.
package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apikeyuc "github.com/kailas-cloud/indexgate/internal/usecase/apikey"
	documentuc "github.com/kailas-cloud/indexgate/internal/usecase/document"
	guarduc "github.com/kailas-cloud/indexgate/internal/usecase/guard"
	healthuc "github.com/kailas-cloud/indexgate/internal/usecase/health"
	lifecycleuc "github.com/kailas-cloud/indexgate/internal/usecase/lifecycle"
	searchuc "github.com/kailas-cloud/indexgate/internal/usecase/search"
)

const defaultMaxBodyBytes = 10 << 20

// Services groups the use cases the server dispatches to.
type Services struct {
	Lifecycle *lifecycleuc.Service
	Documents *documentuc.Service
	Search    *searchuc.Service
	Keys      *apikeyuc.Service
	Guard     *guarduc.Service
	Health    *healthuc.Service
}

// Server holds the HTTP handlers.
type Server struct {
	lifecycle *lifecycleuc.Service
	documents *documentuc.Service
	search    *searchuc.Service
	keys      *apikeyuc.Service
	guard     *guarduc.Service
	health    *healthuc.Service
	tokens    *TokenIssuer
	adminKeys []string

	maxBodyBytes  int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, tokens *TokenIssuer, adminKeys []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		lifecycle:     svc.Lifecycle,
		documents:     svc.Documents,
		search:        svc.Search,
		keys:          svc.Keys,
		guard:         svc.Guard,
		health:        svc.Health,
		tokens:        tokens,
		adminKeys:     adminKeys,
		maxBodyBytes:  defaultMaxBodyBytes,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithMaxBodyBytes limits request bodies.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Mount registers every route on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(s.adminKeys))

		r.Get("/mappings", s.ListMappings)
		r.Post("/mappings", s.CreateMapping)
		r.Get("/mappings/{index}", s.GetMapping)
		r.Put("/mappings/{index}", s.UpdateMapping)
		r.Delete("/mappings/{index}", s.RemoveMapping)

		r.Post("/indexes/{index}/activate", s.AdminActivate)
		r.Post("/indexes/{index}/flush", s.AdminFlush)
		r.Delete("/indexes/{index}", s.AdminRemoveIndex)
		r.Get("/catalog", s.AdminCatalog)

		r.Get("/keys", s.ListKeys)
		r.Post("/keys", s.CreateKey)
		r.Get("/keys/{key}", s.GetKey)
		r.Put("/keys/{key}", s.UpdateKey)
		r.Delete("/keys/{key}", s.RemoveKey)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/token", s.IssueToken)

		r.Group(func(r chi.Router) {
			r.Use(TenantAuthMiddleware(s.tokens))

			r.Get("/indexes", s.ListIndexes)
			r.Get("/catalog", s.TenantCatalog)
			r.Post("/indexes/{index}/activate", s.TenantActivate)
			r.Post("/indexes/{index}/flush", s.TenantFlush)
			r.Delete("/indexes/{index}", s.TenantRemoveIndex)

			r.Post("/{index}/{type}/documents", s.AddDocument)
			r.Post("/{index}/{type}/documents/{id}", s.AddDocumentWithID)
			r.Put("/{index}/{type}/documents/{id}", s.UpdateDocument)
			r.Delete("/{index}/{type}/documents/{id}", s.RemoveDocument)
			r.Post("/{index}/{type}/_search", s.Search)
			r.Post("/{index}/{type}/_count", s.Count)
		})
	})
}

// Handler returns a router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Mount(r)
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
