package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/EazyNick/Kubernetes-Docker-Server/internal/domain"
	"github.com/EazyNick/Kubernetes-Docker-Server/internal/service/auth"
)

type authContextKey string

const contextKeyAuth authContextKey = "dashboard-auth-identity"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth ensures the request carries a valid session token before
// invoking the handler.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// requireAdmin layers a role check on top of requireAuth. Authentication
// failures stay 401; a valid session with the wrong role gets 403.
func (r *Router) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return r.requireAuth(func(w http.ResponseWriter, req *http.Request) {
		identity, ok := identityFromContext(req.Context())
		if !ok {
			r.logger.Error("auth context missing after requireAuth", "path", req.URL.Path)
			writeError(w, http.StatusInternalServerError, codeInternal, "authorization context missing")
			return
		}
		if err := auth.RequireRole(&identity, domain.RoleAdmin); err != nil {
			r.logger.Warn("admin access denied", "user_id", identity.UserID, "role", identity.Role, "path", req.URL.Path)
			writeError(w, http.StatusForbidden, codeForbidden, "admin privileges required")
			return
		}
		next(w, req)
	})
}

// ensureAuth validates the Authorization header and enriches the context.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, auth.Identity, bool) {
	token, err := bearerToken(req.Header.Get("Authorization"))
	if err != nil {
		r.logger.Warn("authorization header invalid", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
		return req.Context(), auth.Identity{}, false
	}
	identity, err := r.auth.Resolve(req.Context(), token)
	if err != nil {
		// Only authentication sentinels become 401; a store outage or any
		// other internal failure must surface as 500, not a login problem.
		if !auth.Unauthenticated(err) {
			r.serviceError(w, err)
			return req.Context(), auth.Identity{}, false
		}
		code := codeUnauthorized
		if errors.Is(err, auth.ErrSessionExpired) {
			code = codeSessionExpired
		}
		r.logger.Warn("session validation failed", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, code, "authentication failed")
		return req.Context(), auth.Identity{}, false
	}
	ctx := context.WithValue(req.Context(), contextKeyAuth, *identity)
	return ctx, *identity, true
}

// identityFromContext extracts the resolved identity from context.
func identityFromContext(ctx context.Context) (auth.Identity, bool) {
	value := ctx.Value(contextKeyAuth)
	if value == nil {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
