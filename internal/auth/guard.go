package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/travel-request/internal"
)

// RoleGuard gates route groups on the server-resolved role.
type RoleGuard struct {
	logger *slog.Logger
}

func NewRoleGuard(logger *slog.Logger) *RoleGuard {
	return &RoleGuard{logger: logger}
}

// Require allows the request through when the actor holds one of the given
// roles. The actor must already be in context from AuthMiddleware.
func (g *RoleGuard) Require(roles ...internal.Role) func(http.Handler) http.Handler {
	allowed := make(map[internal.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := internal.ActorFromContext(r.Context())
			if !ok || actor == nil {
				g.logger.Warn("role check failed: actor not found in context", "path", r.URL.Path)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if _, ok := allowed[actor.Role]; !ok {
				g.logger.WarnContext(r.Context(), "access denied: role not permitted",
					"user_id", actor.UserID,
					"role", actor.Role,
					"path", r.URL.Path)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *RoleGuard) RequireEmployee() func(http.Handler) http.Handler {
	return g.Require(internal.RoleEmployee)
}

func (g *RoleGuard) RequireManager() func(http.Handler) http.Handler {
	return g.Require(internal.RoleManager)
}

func (g *RoleGuard) RequireAdmin() func(http.Handler) http.Handler {
	return g.Require(internal.RoleAdmin)
}
