package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"chat-relay/internal/store"
)

type ctxKey int

const userKey ctxKey = 0

// clientIP resolves the caller's address, preferring the CDN header, then the
// first X-Forwarded-For hop, then the socket peer.
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("Ali-Real-Client-Ip")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// withRequestLogger puts a request-scoped logger carrying the client IP into
// the context and writes one debug record per request.
func (h *Handler) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		l := h.log.With().
			Str("ip", ip).
			Str("requestId", middleware.GetReqID(r.Context())).
			Logger()
		ctx := l.WithContext(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		l.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	})
}

// requireUser treats the {uuid} path parameter as the caller's credential.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uuid := chi.URLParam(r, "uuid")
		user, err := h.store.GetUser(uuid)
		if errors.Is(err, store.ErrNotFound) {
			zerolog.Ctx(r.Context()).Warn().Str("uuid", uuid).Msg("Unauthorized access attempt")
			fail(w, r, http.StatusForbidden, "Access denied")
			return
		}
		if err != nil {
			internalError(w, r, err, "Failed to load user")
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(ctx context.Context) store.User {
	u, _ := ctx.Value(userKey).(store.User)
	return u
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			fail(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !h.auth.CheckHeader(header) {
			zerolog.Ctx(r.Context()).Warn().Msg("Rejected admin token")
			fail(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}
