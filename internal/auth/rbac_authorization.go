package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/report-hub/internal"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"github.com/frahmantamala/report-hub/internal/transport"
)

type RBACAuthorization struct {
	*transport.BaseHandler
	checker RoleChecker
}

func NewRBACAuthorization(checker RoleChecker, logger *slog.Logger) *RBACAuthorization {
	if checker == nil {
		checker = NewRoleChecker()
	}
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		checker:     checker,
	}
}

// RequireRole lets the request through when the caller holds one of roles.
func (ra *RBACAuthorization) RequireRole(roles ...coreuser.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := internal.CallerFromContext(r.Context())
			if !ok {
				ra.Logger.Warn("authorization check failed: caller not found in context")
				ra.WriteAppError(w, internal.ErrMissingToken)
				return
			}

			allowed, err := ra.checker.HasRole(r.Context(), caller, roles...)
			if err != nil {
				ra.Logger.ErrorContext(r.Context(), "role check failed", "error", err, "user_id", caller.ID)
				ra.HandleServiceError(w, err)
				return
			}

			if !allowed {
				ra.Logger.WarnContext(r.Context(), "access denied: insufficient role",
					"user_id", caller.ID,
					"role", caller.Role,
					"required_roles", roles)
				ra.WriteAppError(w, internal.NewForbiddenError(
					"User role "+string(caller.Role)+" is not authorized to access this route",
					internal.ErrCodeAdminRequired))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRole(coreuser.RoleAdmin)
}
