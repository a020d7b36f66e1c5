// Path: internal/delivery/rest/handlers.go
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"pastry-portal/internal/backend"
	"pastry-portal/internal/domain"
	"pastry-portal/internal/listing"
	"pastry-portal/internal/query"
	"pastry-portal/internal/service"
)

// dataService defines the interface required by the handlers from the core service.
// This keeps the delivery layer decoupled from the full service implementation.
type dataService interface {
	ListCourses(ctx context.Context, state query.State) service.Page[domain.Course]
	CourseRatings(ctx context.Context, state query.State) service.CourseRatingsPage
	ListPosts(ctx context.Context, session domain.Session, tab string, state query.State) (service.Page[domain.Post], error)
	ListReviews(ctx context.Context, session domain.Session, tab string, state query.State) (service.ReviewPage, error)
	Collection(ctx context.Context, session domain.Session, status domain.CollectionStatus, state query.State) (service.Page[domain.UserCourse], error)
	Levels(ctx context.Context) ([]domain.Level, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	CourseReviewSummary(ctx context.Context, courseID int) (domain.ReviewSummary, error)

	SaveQuery(ctx context.Context, session domain.Session, in service.SaveQueryInput) (*domain.SavedQuery, error)
	SavedQueries(ctx context.Context, session domain.Session, resource domain.Resource) ([]domain.SavedQuery, error)
	DeleteSavedQuery(ctx context.Context, session domain.Session, id string) error
	ApplySavedQuery(ctx context.Context, session domain.Session, id string) (domain.Resource, query.State, error)
	DefaultState(ctx context.Context, session domain.Session, resource domain.Resource) (query.State, bool, error)

	SyncStatuses(ctx context.Context) []domain.SyncStatus
}

// Handlers holds dependencies for the JSON API handlers.
type Handlers struct {
	service dataService
	log     *logrus.Entry
}

// NewHandlers creates a new handler struct.
func NewHandlers(s dataService) *Handlers {
	return &Handlers{service: s, log: logrus.WithField("component", "rest")}
}

// RegisterRoutes registers the API routes on r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(WithSession)

	api.HandleFunc("/courses", h.ListCourses).Methods(http.MethodGet)
	api.HandleFunc("/courses/ratings", h.CourseRatings).Methods(http.MethodGet)
	api.HandleFunc("/courses/{id:[0-9]+}/reviews/summary", h.CourseReviewSummary).Methods(http.MethodGet)
	api.HandleFunc("/posts", h.ListPosts).Methods(http.MethodGet)
	api.HandleFunc("/reviews", h.ListReviews).Methods(http.MethodGet)
	api.HandleFunc("/collection/{status}", h.Collection).Methods(http.MethodGet)
	api.HandleFunc("/levels", h.Levels).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.Categories).Methods(http.MethodGet)
	api.HandleFunc("/schema/{resource}", h.Schema).Methods(http.MethodGet)

	api.HandleFunc("/saved-queries", h.SavedQueries).Methods(http.MethodGet)
	api.HandleFunc("/saved-queries", h.SaveQuery).Methods(http.MethodPost)
	api.HandleFunc("/saved-queries/{id}", h.DeleteSavedQuery).Methods(http.MethodDelete)
	api.HandleFunc("/saved-queries/{id}/apply", h.ApplySavedQuery).Methods(http.MethodGet)

	api.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
}

// ListCourses handles GET /api/courses.
func (h *Handlers) ListCourses(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r, domain.ResourceCourses)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.ListCourses(r.Context(), state))
}

// CourseRatings handles GET /api/courses/ratings.
func (h *Handlers) CourseRatings(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r, domain.ResourceCourses)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.CourseRatings(r.Context(), state))
}

// ListPosts handles GET /api/posts?tab=discover|liked|mine.
func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r, domain.ResourcePosts)
	if !ok {
		return
	}
	page, err := h.service.ListPosts(r.Context(), SessionFromContext(r.Context()), r.URL.Query().Get("tab"), state)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListReviews handles GET /api/reviews?tab=all|website|mine.
func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r, domain.ResourceReviews)
	if !ok {
		return
	}
	page, err := h.service.ListReviews(r.Context(), SessionFromContext(r.Context()), r.URL.Query().Get("tab"), state)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Collection handles GET /api/collection/{status}.
func (h *Handlers) Collection(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseCollectionStatus(mux.Vars(r)["status"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	state, ok := h.state(w, r, domain.ResourceCourses)
	if !ok {
		return
	}
	page, err := h.service.Collection(r.Context(), SessionFromContext(r.Context()), status, state)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Levels handles GET /api/levels.
func (h *Handlers) Levels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.service.Levels(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

// Categories handles GET /api/categories.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CourseReviewSummary handles GET /api/courses/{id}/reviews/summary.
func (h *Handlers) CourseReviewSummary(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	summary, err := h.service.CourseReviewSummary(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Schema handles GET /api/schema/{resource}: the filters and sort keys a
// list accepts.
func (h *Handlers) Schema(w http.ResponseWriter, r *http.Request) {
	resource, err := domain.ParseResource(mux.Vars(r)["resource"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	schema, _ := listing.SchemaFor(resource)
	writeJSON(w, http.StatusOK, schema)
}

// SavedQueries handles GET /api/saved-queries?resource=.
func (h *Handlers) SavedQueries(w http.ResponseWriter, r *http.Request) {
	var resource domain.Resource
	if raw := r.URL.Query().Get("resource"); raw != "" {
		var err error
		if resource, err = domain.ParseResource(raw); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	queries, err := h.service.SavedQueries(r.Context(), SessionFromContext(r.Context()), resource)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queries)
}

// SaveQuery handles POST /api/saved-queries.
func (h *Handlers) SaveQuery(w http.ResponseWriter, r *http.Request) {
	var in service.SaveQueryInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := h.service.SaveQuery(r.Context(), SessionFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	status := http.StatusCreated
	if in.ID != "" {
		status = http.StatusOK
	}
	writeJSON(w, status, saved)
}

// DeleteSavedQuery handles DELETE /api/saved-queries/{id}.
func (h *Handlers) DeleteSavedQuery(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSavedQuery(r.Context(), SessionFromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type appliedQuery struct {
	Resource domain.Resource `json:"resource"`
	Query    string          `json:"query"`
	Result   any             `json:"result"`
}

// ApplySavedQuery handles GET /api/saved-queries/{id}/apply. It runs the
// saved query against its resource; "tab" selects the posts or reviews tab.
func (h *Handlers) ApplySavedQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)
	resource, state, err := h.service.ApplySavedQuery(ctx, session, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}

	out := appliedQuery{Resource: resource, Query: listing.EncodeState(state).Encode()}
	tab := r.URL.Query().Get("tab")
	switch resource {
	case domain.ResourceCourses:
		out.Result = h.service.ListCourses(ctx, state)
	case domain.ResourcePosts:
		out.Result, err = h.service.ListPosts(ctx, session, tab, state)
	case domain.ResourceReviews:
		out.Result, err = h.service.ListReviews(ctx, session, tab, state)
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Status handles GET /api/status.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"resources": h.service.SyncStatuses(r.Context())})
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// state reads the list query of a request. A logged-in user who sends no
// list parameters gets their default saved query for the resource.
func (h *Handlers) state(w http.ResponseWriter, r *http.Request, resource domain.Resource) (query.State, bool) {
	values := listParams(r.URL.Query())
	if len(values) == 0 {
		state, ok, err := h.service.DefaultState(r.Context(), SessionFromContext(r.Context()), resource)
		if err != nil {
			h.log.WithError(err).Warn("failed to load default query")
		} else if ok {
			return state, true
		}
	}

	state, err := listing.ParseState(resource, values)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return query.State{}, false
	}
	return state, true
}

// listParams drops the parameters that select a view rather than filter it.
func listParams(values url.Values) url.Values {
	out := url.Values{}
	for k, v := range values {
		if k == "tab" {
			continue
		}
		out[k] = v
	}
	return out
}

// fail maps service and backend errors to HTTP responses.
func (h *Handlers) fail(w http.ResponseWriter, err error) {
	var statusErr *backend.StatusError
	switch {
	case errors.Is(err, listing.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrLoginRequired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound:
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, backend.ErrUnexpectedStatus):
		h.log.WithError(err).Warn("backend error")
		writeError(w, http.StatusBadGateway, "backend unavailable")
	default:
		h.log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
