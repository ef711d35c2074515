package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/marketplace/internal/db"
	"github.com/kailas-cloud/marketplace/internal/domain"
	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/request"
	"github.com/kailas-cloud/marketplace/internal/domain/search/result"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
	healthuc "github.com/kailas-cloud/marketplace/internal/usecase/health"
	marketplaceuc "github.com/kailas-cloud/marketplace/internal/usecase/marketplace"
)

// Marketplace is the consumer interface for the marketplace use cases (ISP).
type Marketplace interface {
	SearchProjects(
		ctx context.Context, req *request.SearchRequest, pageable page.Pageable, token *access.Token,
	) (page.Page[project.Project], error)
	PerformSearchByText(
		ctx context.Context, pageable page.Pageable, query string, conjunctive bool, token *access.Token,
	) ([]result.SearchResult, error)
	FindEntry(ctx context.Context, id string, token *access.Token) (project.Project, error)
	FindEntriesForProjects(
		ctx context.Context, pageable page.Pageable, projects map[string]access.Level,
	) ([]project.Project, error)
	FindEntryBySlug(ctx context.Context, projects map[string]access.Level, slug string) (project.Project, error)
	PublishEntry(ctx context.Context, searchable project.Searchable, token *access.Token) (project.Project, error)
	AddStar(ctx context.Context, p project.Project, person access.Subject) (project.Project, error)
	RemoveStar(ctx context.Context, p project.Project, person access.Subject) (project.Project, error)
	AddTags(ctx context.Context, p project.Project, tags []tag.Tag) (project.Project, error)
	DefineTags(ctx context.Context, p project.Project, tags []tag.Tag) (project.Project, error)
	ResolveTags(ctx context.Context, names []string) ([]tag.Tag, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the marketplace HTTP API.
type Server struct {
	marketplace     Marketplace
	health          *healthuc.Service
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
	errorHandlers   []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(marketplace Marketplace, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		marketplace:     marketplace,
		health:          health,
		logger:          logger,
		defaultPageSize: page.DefaultSize,
		maxPageSize:     page.MaxSize,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrUnsupportedVariant, http.StatusUnprocessableEntity, ErrorCodeUnsupportedVariant),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, ErrorCodeUnauthorized),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, ErrorCodeForbidden),
		sentinelHandler(db.ErrUnavailable, http.StatusServiceUnavailable, ErrorCodeUnavailable),
	}
	return s
}

// WithPagination sets the default and maximum page sizes.
func (s *Server) WithPagination(defaultSize, maxSize int) *Server {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/projects", func(r gochi.Router) {
		r.Get("/", s.ListEntries)
		r.Post("/search", s.SearchProjects)
		r.Get("/search/text", s.SearchByText)
		r.Get("/slug/{slug}", s.GetEntryBySlug)
		r.Post("/entries", s.AssertEntry)
		r.Post("/{id}/star", s.AddStar)
		r.Delete("/{id}/star", s.RemoveStar)
		r.Post("/{id}/tags", s.AddTags)
		r.Put("/{id}/tags", s.DefineTags)
	})
}

// SearchProjects handles POST /projects/search.
func (s *Server) SearchProjects(w http.ResponseWriter, r *http.Request) {
	pageable, err := s.pageable(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	var req SearchRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	res, err := s.marketplace.SearchProjects(r.Context(), searchRequestToDomain(req), pageable, caller(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToResponse(res))
}

// SearchByText handles GET /projects/search/text.
func (s *Server) SearchByText(w http.ResponseWriter, r *http.Request) {
	pageable, err := s.pageable(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	var query string
	if err := runtime.BindQueryParameter("form", true, true, "query", r.URL.Query(), &query); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	conjunctive := true
	if err := runtime.BindQueryParameter("form", true, false, "conjunctive", r.URL.Query(), &conjunctive); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	ranked, err := s.marketplace.PerformSearchByText(r.Context(), pageable, query, conjunctive, caller(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse[RankedProjectResponse]{Content: rankedToResponse(ranked)})
}

// ListEntries handles GET /projects: public entries plus those the caller can access.
func (s *Server) ListEntries(w http.ResponseWriter, r *http.Request) {
	pageable, err := s.pageable(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	entries, err := s.marketplace.FindEntriesForProjects(r.Context(), pageable, accessMap(caller(r)))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse[ProjectResponse]{Content: projectsToResponse(entries)})
}

// GetEntryBySlug handles GET /projects/slug/{slug}.
func (s *Server) GetEntryBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := s.marketplace.FindEntryBySlug(r.Context(), accessMap(caller(r)), gochi.URLParam(r, "slug"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projectToResponse(p))
}

// AssertEntry handles POST /projects/entries.
func (s *Server) AssertEntry(w http.ResponseWriter, r *http.Request) {
	if _, err := requirePerson(r); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	tags, err := s.marketplace.ResolveTags(r.Context(), req.Tags)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	p, err := entryToDomain(req, tags)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	entry, err := s.marketplace.PublishEntry(r.Context(), p, caller(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projectToResponse(entry))
}

// AddStar handles POST /projects/{id}/star.
func (s *Server) AddStar(w http.ResponseWriter, r *http.Request) {
	s.star(w, r, s.marketplace.AddStar)
}

// RemoveStar handles DELETE /projects/{id}/star.
func (s *Server) RemoveStar(w http.ResponseWriter, r *http.Request) {
	s.star(w, r, s.marketplace.RemoveStar)
}

type starFunc func(ctx context.Context, p project.Project, person access.Subject) (project.Project, error)

func (s *Server) star(w http.ResponseWriter, r *http.Request, apply starFunc) {
	person, err := requirePerson(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	p, err := s.marketplace.FindEntry(r.Context(), gochi.URLParam(r, "id"), caller(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	updated, err := apply(r.Context(), p, person)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projectToResponse(updated))
}

// AddTags handles POST /projects/{id}/tags.
func (s *Server) AddTags(w http.ResponseWriter, r *http.Request) {
	s.retag(w, r, s.marketplace.AddTags)
}

// DefineTags handles PUT /projects/{id}/tags.
func (s *Server) DefineTags(w http.ResponseWriter, r *http.Request) {
	s.retag(w, r, s.marketplace.DefineTags)
}

type tagFunc func(ctx context.Context, p project.Project, tags []tag.Tag) (project.Project, error)

func (s *Server) retag(w http.ResponseWriter, r *http.Request, apply tagFunc) {
	if _, err := requirePerson(r); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var req TagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	token := caller(r)
	p, err := s.marketplace.FindEntry(r.Context(), gochi.URLParam(r, "id"), token)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !marketplaceuc.CanCurate(token, p) {
		s.handleDomainError(w, r, fmt.Errorf("curate %s: %w", p.ID(), domain.ErrForbidden))
		return
	}

	tags, err := s.marketplace.ResolveTags(r.Context(), req.Tags)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	updated, err := apply(r.Context(), p, tags)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, projectToResponse(updated))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// pageable binds page, size and sort from the query string.
func (s *Server) pageable(r *http.Request) (page.Pageable, error) {
	q := r.URL.Query()
	var number, size int
	var sortParam string
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &number); err != nil {
		return page.Pageable{}, fmt.Errorf("page: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "size", q, &size); err != nil {
		return page.Pageable{}, fmt.Errorf("size: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "sort", q, &sortParam); err != nil {
		return page.Pageable{}, fmt.Errorf("sort: %w", err)
	}

	if size == 0 {
		size = s.defaultPageSize
	}
	if size > s.maxPageSize {
		return page.Pageable{}, fmt.Errorf("size must be between 1 and %d", s.maxPageSize)
	}
	sort, err := page.ParseSort(sortParam)
	if err != nil {
		return page.Pageable{}, err
	}
	return page.NewPageable(number, size, sort)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client message without exposing internals.
// Invalid requests keep their detail; other sentinels collapse to the sentinel text.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrUnsupportedVariant,
		domain.ErrUnauthorized,
		domain.ErrForbidden,
		db.ErrUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logFor(r, s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
