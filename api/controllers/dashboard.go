package controllers

import (
	"context"
	"net/http"

	"github.com/producehub/producehub-backend/api/responses"
	"github.com/producehub/producehub-backend/internal/dashboard"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/logger"
)

// DashboardService is satisfied by *dashboard.Service.
type DashboardService interface {
	Summary(ctx context.Context, actor auth.Actor) (*dashboard.Summary, error)
}

func AdminDashboard(svc DashboardService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("dashboard"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
