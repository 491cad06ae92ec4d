package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Clark-Hu/foodgram/internal/auth"
	"github.com/Clark-Hu/foodgram/internal/domain"
	"github.com/Clark-Hu/foodgram/internal/repository"
)

type ctxKey int

const viewerKey ctxKey = iota

// viewer is the authenticated caller of a request.
type viewer struct {
	user   domain.User
	claims auth.Claims
}

func viewerFrom(ctx context.Context) (viewer, bool) {
	v, ok := ctx.Value(viewerKey).(viewer)
	return v, ok
}

// viewerID returns the caller id, or nil for anonymous requests.
func viewerID(ctx context.Context) *int64 {
	v, ok := viewerFrom(ctx)
	if !ok {
		return nil
	}
	id := v.user.ID
	return &id
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// authenticate resolves the Authorization header when present. Anonymous
// requests pass through; a header with a bad token is rejected.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := extractToken(header)
		if !ok {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header")
			return
		}
		claims, err := s.tokens.Parse(r.Context(), raw)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				s.logger.Error().Err(err).Msg("token verification failed")
				s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify token")
				return
			}
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}
		userID, _ := claims.UserID()
		user, err := s.repo.Users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "User not found")
				return
			}
			s.logger.Error().Err(err).Int64("user_id", userID).Msg("load token user failed")
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user")
			return
		}

		ctx := context.WithValue(r.Context(), viewerKey, viewer{user: user, claims: claims})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := viewerFrom(r.Context()); !ok {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication credentials were not provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken accepts "Token <jwt>" and "Bearer <jwt>".
func extractToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
