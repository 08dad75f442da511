package middleware

import (
	"net/http"
	"slices"

	"github.com/producehub/producehub-backend/api/responses"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/logger"
)

// RequireMemberRoles narrows an admin route to staff whose member role is in
// allowed. Tokens minted without a member role are treated as full admins.
func RequireMemberRoles(logg *logger.Logger, allowed ...enums.MemberRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if len(allowed) == 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allowed roles missing"))
				return
			}

			actor, ok := ActorFromContext(ctx)
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			if !actor.IsAdmin() {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			if actor.MemberRole != nil && !slices.Contains(allowed, *actor.MemberRole) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient member role"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
