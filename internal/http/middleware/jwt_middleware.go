package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/http/response"
	"github.com/diagnosis/inkbook/pkg/auth"
	"github.com/diagnosis/inkbook/pkg/logger"
)

type ctxKey string

const CtxPrincipal ctxKey = "principal"

// Authenticate reads an optional bearer token. A missing token leaves the request anonymous,
// an invalid or refresh token is rejected.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(authz, "Bearer ") {
				response.WriteError(w, http.StatusUnauthorized, "invalid authorization header", response.CodeInvalidToken)
				return
			}
			claims, err := auth.Parse(strings.TrimPrefix(authz, "Bearer "), secret)
			if err != nil || claims.Role == auth.RoleRefresh {
				response.WriteError(w, http.StatusUnauthorized, "invalid authorization token", response.CodeInvalidToken)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principalFrom(claims))))
		})
	}
}

// AuthenticateLenient reads an optional bearer token like Authenticate, but a malformed,
// expired or refresh token leaves the request anonymous instead of failing it.
func AuthenticateLenient(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.Parse(token, secret)
			if err != nil || claims.Role == auth.RoleRefresh {
				logger.DebugContext(r.Context(), "Ignoring unusable bearer token", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principalFrom(claims))))
		})
	}
}

// RequireAuth rejects anonymous requests. It must run after Authenticate.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Principal(r).Authenticated() {
			response.FromError(w, r, domain.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func principalFrom(c *auth.Claims) domain.Principal {
	return domain.Principal{UserID: c.Sub, Email: c.Email, Role: c.Role}
}

// WithPrincipal stores the caller and tags the request logger with their id.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	ctx = context.WithValue(ctx, CtxPrincipal, p)
	return context.WithValue(ctx, logger.UserIDKey, p.UserID)
}

func FromContext(ctx context.Context) domain.Principal {
	if p, ok := ctx.Value(CtxPrincipal).(domain.Principal); ok {
		return p
	}
	return domain.Principal{}
}

func Principal(r *http.Request) domain.Principal {
	return FromContext(r.Context())
}
