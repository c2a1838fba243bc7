package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"gotodo/internal/models"
	"gotodo/internal/store"
)

type identityContextKey struct{}

// IdentityFromContext returns the authenticated identity attached by
// requireAuth, if any.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(models.Identity)
	return identity, ok
}

// requireAuth is the authorization gate: extract an access token from the
// cookie or the Authorization header, verify it, resolve the subject user,
// and attach the minimal identity to the request context. It reads only and
// rejects with 401 at each of its three failure points.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractAccessToken(r)
		if tokenString == "" {
			respondError(w, http.StatusUnauthorized, "missing access token")
			return
		}

		claims, err := s.codec.VerifyAccess(tokenString)
		if err != nil {
			s.log.Debug().Err(err).Msg("access token rejected")
			respondError(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		user, err := s.users.ByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, "invalid access token")
				return
			}
			s.log.Error().Err(err).Msg("resolve user for access token")
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey{}, user.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	const bearer = "Bearer "
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, bearer) {
		return header[len(bearer):]
	}
	return ""
}
