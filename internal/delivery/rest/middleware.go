// Path: internal/delivery/rest/middleware.go
package rest

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pastry-portal/internal/domain"
)

type contextKey string

const sessionKey contextKey = "session"

// Session headers set by the front end after login.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserName  = "X-User-Name"
	HeaderRequestID = "X-Request-ID"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type sessionHeaders struct {
	UserID   string `validate:"omitempty,number,max=10"`
	UserName string `validate:"max=100"`
}

// WithSession builds the request's domain.Session from the session headers.
// Requests without a user ID are anonymous; a malformed user ID is rejected.
func WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := sessionHeaders{
			UserID:   strings.TrimSpace(r.Header.Get(HeaderUserID)),
			UserName: strings.TrimSpace(r.Header.Get(HeaderUserName)),
		}
		if err := validate.Struct(h); err != nil {
			writeError(w, http.StatusBadRequest, "invalid session headers")
			return
		}

		session := domain.Anonymous()
		if h.UserID != "" {
			id, err := strconv.Atoi(h.UserID)
			if err != nil || id <= 0 {
				writeError(w, http.StatusBadRequest, "invalid session headers")
				return
			}
			session = domain.Session{UserID: id, UserName: h.UserName}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}

// SessionFromContext returns the session stored by WithSession, or an
// anonymous session.
func SessionFromContext(ctx context.Context) domain.Session {
	if s, ok := ctx.Value(sessionKey).(domain.Session); ok {
		return s
	}
	return domain.Anonymous()
}

// CORS allows the configured origins to call the API from a browser.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (slices.Contains(allowedOrigins, origin) || slices.Contains(allowedOrigins, "*")) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Accept, Origin, "+HeaderUserID+", "+HeaderUserName+", "+HeaderRequestID)
				w.Header().Set("Access-Control-Max-Age", "3600") // Cache preflight request results
			}

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger tags each request with an ID and logs its outcome.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		entry := logrus.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Warn("request failed")
		} else {
			entry.Debug("request")
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
