package middleware

import (
	"net/http"

	"github.com/producehub/producehub-backend/api/responses"
	pkgAuth "github.com/producehub/producehub-backend/pkg/auth"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/logger"
)

// RequireApprovedStore admits store principals whose approval status is
// approved. Everyone else is refused with the landing route they belong on.
func RequireApprovedStore(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			if !actor.IsStore() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing"))
				return
			}
			if !actor.Approved() {
				landing := pkgAuth.Landing(actor.Role, actor.ApprovalStatus)
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeForbidden, "store is not approved").WithDetails(map[string]any{"landing": landing}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
