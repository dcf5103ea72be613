package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/codevault/codevault/internal/common"
	"github.com/codevault/codevault/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const (
	ownerIDKey   contextKey = "ownerID"
	requestIDKey contextKey = "requestID"
)

const requestIDHeader = "X-Request-ID"

// OwnerIDFrom returns the authenticated owner id stored by RequireSession.
func OwnerIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerIDKey).(string)
	return id, ok
}

// RequestIDFrom returns the id assigned to the request by RequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID tags every request with an id, reusing a valid incoming one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestLogger logs method, path, status and duration of each request.
func RequestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	log := logger.With("component", "http_logger")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info(r.Context(), "HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote_addr", r.RemoteAddr,
				"request_id", RequestIDFrom(r.Context()),
			)
		})
	}
}

// TokenValidator checks a session token and returns its owner id.
type TokenValidator interface {
	Validate(token string) (string, error)
}

func sessionOwner(r *http.Request, v TokenValidator) (string, bool) {
	c, err := r.Cookie(common.SessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, err := v.Validate(c.Value)
	if err != nil {
		return "", false
	}
	return id, true
}

// PageGuard redirects page navigations according to Decide.
func PageGuard(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := sessionOwner(r, v)
			d := Decide(r.URL.Path, ok)
			if d.Action == Redirect {
				http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession answers 401 for API calls without a valid session.
func RequireSession(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := sessionOwner(r, v)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "Sign in to continue."})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerIDKey, id)))
		})
	}
}
