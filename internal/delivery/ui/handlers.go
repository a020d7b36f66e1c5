// Path: internal/delivery/ui/handlers.go
package ui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"pastry-portal/internal/delivery/rest"
	"pastry-portal/internal/domain"
	"pastry-portal/internal/listing"
	"pastry-portal/internal/query"
	"pastry-portal/internal/service"
	"pastry-portal/internal/stats"
)

//go:embed templates/*.html
var templateFS embed.FS

// dataService defines the interface required by the UI handlers.
type dataService interface {
	ListCourses(ctx context.Context, state query.State) service.Page[domain.Course]
	CourseRatings(ctx context.Context, state query.State) service.CourseRatingsPage
	ListReviews(ctx context.Context, session domain.Session, tab string, state query.State) (service.ReviewPage, error)
	Levels(ctx context.Context) ([]domain.Level, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

// sortLabels are the human names of the sort keys offered in the forms.
var sortLabels = map[query.SortKey]string{
	query.DefaultSort:        "Default",
	listing.SortTitleAsc:     "Title A-Z",
	listing.SortTitleDesc:    "Title Z-A",
	listing.SortRatingHigh:   "Highest rated",
	listing.SortRatingLow:    "Lowest rated",
	listing.SortTimeShort:    "Quickest",
	listing.SortTimeLong:     "Longest",
	listing.SortServingsHigh: "Most servings",
	listing.SortMostReviewed: "Most reviewed",
	listing.SortNewest:       "Newest",
	listing.SortOldest:       "Oldest",
	listing.SortMostLiked:    "Most liked",
}

// Handlers holds dependencies for UI handlers.
type Handlers struct {
	service   dataService
	templates *template.Template
	now       func() time.Time
	log       *logrus.Entry
}

// NewHandlers creates a new UI handler struct.
func NewHandlers(s dataService) *Handlers {
	h := &Handlers{
		service: s,
		now:     time.Now,
		log:     logrus.WithField("component", "ui"),
	}
	h.templates = template.Must(template.New("").Funcs(h.funcs()).ParseFS(templateFS, "templates/*.html"))
	return h
}

// RegisterRoutes registers all UI routes on r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	pages := r.NewRoute().Subrouter()
	pages.Use(rest.WithSession)

	// HTMX endpoint returning only the results fragment.
	pages.HandleFunc("/search", h.handleSearch).Methods(http.MethodGet)
	pages.HandleFunc("/reviews", h.handleReviews).Methods(http.MethodGet)
	pages.HandleFunc("/", h.handleShowIndex).Methods(http.MethodGet)
}

// handleShowIndex serves the course catalogue with its search form.
func (h *Handlers) handleShowIndex(w http.ResponseWriter, r *http.Request) {
	data, err := h.catalogueData(r)
	if err != nil {
		h.render(w, http.StatusBadRequest, "error.html", map[string]any{"Message": err.Error()})
		return
	}

	levels, err := h.service.Levels(r.Context())
	if err != nil {
		h.log.WithError(err).Warn("failed to load levels for the filter form")
	}
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.log.WithError(err).Warn("failed to load categories for the filter form")
	}
	data["Levels"] = levels
	data["Categories"] = categories

	h.render(w, http.StatusOK, "index.html", data)
}

// handleSearch is an HTMX endpoint that returns the search results.
func (h *Handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	data, err := h.catalogueData(r)
	if err != nil {
		h.render(w, http.StatusBadRequest, "error.html", map[string]any{"Message": err.Error()})
		return
	}
	h.render(w, http.StatusOK, "course_results.html", data)
}

// handleReviews serves the reviews page. The "courses" tab lists courses by
// their review average; the other tabs list the reviews themselves.
func (h *Handlers) handleReviews(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	values := r.URL.Query()
	values.Del("tab")

	resource := domain.ResourceReviews
	if tab == "courses" {
		resource = domain.ResourceCourses
	}
	state, err := listing.ParseState(resource, values)
	if err != nil {
		h.render(w, http.StatusBadRequest, "error.html", map[string]any{"Message": err.Error()})
		return
	}
	session := rest.SessionFromContext(r.Context())

	data := map[string]any{
		"Tab":      tab,
		"Query":    state.Search,
		"SortBy":   string(state.Sort),
		"LoggedIn": session.IsLoggedIn(),
	}

	if tab == "courses" {
		page := h.service.CourseRatings(r.Context(), state)
		data["Courses"] = page.Items
		data["Page"] = page.Page
		data["CourseStats"] = page.Stats
		data["Stars"] = []int{5, 4, 3, 2, 1}
		data["Sorts"] = h.sortOptions(domain.ResourceCourses)
		h.render(w, http.StatusOK, "reviews.html", data)
		return
	}

	page, err := h.service.ListReviews(r.Context(), session, tab, state)
	if err != nil {
		h.render(w, errorStatus(err), "error.html", map[string]any{"Message": err.Error()})
		return
	}
	data["Reviews"] = page.Items
	data["Page"] = page.Page
	data["Stats"] = page.Stats
	data["Stars"] = []int{5, 4, 3, 2, 1}
	data["Sorts"] = h.sortOptions(domain.ResourceReviews)
	h.render(w, http.StatusOK, "reviews.html", data)
}

// catalogueData runs the course query of r and builds the template data.
func (h *Handlers) catalogueData(r *http.Request) (map[string]any, error) {
	values := r.URL.Query()
	state, err := listing.ParseState(domain.ResourceCourses, values)
	if err != nil {
		return nil, err
	}
	page := h.service.ListCourses(r.Context(), state)

	sortBy := string(state.Sort)
	if sortBy == "" {
		sortBy = string(query.DefaultSort)
	}
	_, maxTime := listing.RangeParam(listing.RangeTime)

	return map[string]any{
		"Courses":  page.Items,
		"Page":     page,
		"Query":    state.Search,
		"Level":    values.Get(listing.FilterLevel),
		"Category": values.Get(listing.FilterCategory),
		"MaxTime":  values.Get(maxTime),
		"SortBy":   sortBy,
		"Sorts":    h.sortOptions(domain.ResourceCourses),
	}, nil
}

// errorStatus maps a service error to the status of the error page.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrLoginRequired):
		return http.StatusUnauthorized
	case errors.Is(err, listing.ErrInvalidQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type sortOption struct {
	Key   string
	Label string
}

func (h *Handlers) sortOptions(resource domain.Resource) []sortOption {
	schema, _ := listing.SchemaFor(resource)
	out := make([]sortOption, 0, len(schema.Sorts))
	for _, k := range schema.Sorts {
		label, ok := sortLabels[k]
		if !ok {
			label = string(k)
		}
		out = append(out, sortOption{Key: string(k), Label: label})
	}
	return out
}

func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	var buf strings.Builder
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.WithError(err).WithField("template", name).Error("template execution failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, buf.String())
}

func (h *Handlers) funcs() template.FuncMap {
	return template.FuncMap{
		"timeAgo": func(ts domain.Timestamp) string {
			return stats.TimeAgo(h.now(), ts.Time)
		},
		"stars": func(n int) string {
			if n < 0 {
				n = 0
			}
			if n > 5 {
				n = 5
			}
			return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
		},
		"round": func(v float64) int {
			return int(math.Round(v))
		},
		"percent": func(s stats.Summary, star int) string {
			return fmt.Sprintf("%.0f%%", s.Percent(star))
		},
		"rating": func(v *float64) string {
			if v == nil {
				return "No ratings yet"
			}
			return fmt.Sprintf("%.1f", *v)
		},
		"minutes": func(v *int) string {
			if v == nil {
				return "-"
			}
			return fmt.Sprintf("%d min", *v)
		},
	}
}
