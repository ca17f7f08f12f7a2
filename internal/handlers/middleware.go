package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"starquest/internal/models"
	"starquest/internal/security"
	"starquest/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const PrincipalContextKey ContextKey = "principal"

// Principal is the authenticated caller attached to the request context
type Principal struct {
	UserID string
	Role   models.Role
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens      *security.TokenManager
	userService *service.UserService
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.TokenManager, userService *service.UserService, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		tokens:      tokens,
		userService: userService,
		limiter:     limiter,
	}
}

// bearerToken extracts the JWT from the Authorization header, falling back
// to the legacy x-auth-token header
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("x-auth-token")
}

// RequireAuth rejects requests without a valid token and attaches the
// caller's identity to the context
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, security.ErrTokenMissing.Error())
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, security.ErrTokenInvalid.Error())
			return
		}

		principal := Principal{UserID: claims.UserID, Role: models.Role(claims.Role)}
		ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
		next(w, r.WithContext(ctx))
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present
// and lets the request through either way
func (m *Middleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if claims, err := m.tokens.Verify(token); err == nil {
				principal := Principal{UserID: claims.UserID, Role: models.Role(claims.Role)}
				r = r.WithContext(context.WithValue(r.Context(), PrincipalContextKey, principal))
			}
		}
		next(w, r)
	}
}

// RequireAdmin requires a valid token carrying the admin role
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r.Context())
		if principal == nil || principal.Role != models.RoleAdmin {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	})
}

// RateLimit throttles requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			respondError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetPrincipal retrieves the authenticated caller from the request context
func GetPrincipal(ctx context.Context) *Principal {
	principal, ok := ctx.Value(PrincipalContextKey).(Principal)
	if !ok {
		return nil
	}
	return &principal
}

// CanActOn reports whether the caller may operate on the target user's data.
// Users act on themselves, admins on anyone, parents on their linked children.
func (m *Middleware) CanActOn(principal *Principal, targetID string) bool {
	if principal == nil {
		return false
	}
	if principal.UserID == targetID || principal.Role == models.RoleAdmin {
		return true
	}
	if principal.Role == models.RoleParent {
		ok, err := m.userService.IsParentOf(principal.UserID, targetID)
		if err != nil {
			log.Printf("Error checking parent link: %v", err)
			return false
		}
		return ok
	}
	return false
}

// RequireAccessTo guards routes addressing another user's data by the given
// path parameter
func (m *Middleware) RequireAccessTo(param string, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r.Context())
		targetID := r.PathValue(param)
		if !m.CanActOn(principal, targetID) {
			respondError(w, http.StatusForbidden, "access denied")
			return
		}
		next(w, r)
	})
}
