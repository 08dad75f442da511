package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/producehub/producehub-backend/api/responses"
	"github.com/producehub/producehub-backend/api/validators"
	"github.com/producehub/producehub-backend/internal/workorders"
	"github.com/producehub/producehub-backend/pkg/logger"
)

// Week keys are ISO weeks such as 2025-W07; the service rejects anything
// else.
func weekParam(r *http.Request) string {
	return validators.SanitizeString(chi.URLParam(r, "week"), 16)
}

func AdminWorkOrderGet(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("work order"))
			return
		}
		wo, err := svc.Get(r.Context(), weekParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wo)
	}
}

// AdminWorkOrderTogglePick answers 200 for stale toggles too; the result's
// applied flag tells the client whether its seq won.
func AdminWorkOrderTogglePick(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("work order"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body workorders.ToggleInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.TogglePick(r.Context(), actor, weekParam(r), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminWorkOrderAvailability(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("work order"))
			return
		}
		var body workorders.AvailabilityInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wo, err := svc.SetAvailability(r.Context(), weekParam(r), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wo)
	}
}

func AdminWorkOrderExport(svc workorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("work order"))
			return
		}
		body, filename, err := svc.ExportXLSX(r.Context(), weekParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteFile(w, contentTypeXLSX, filename, body)
	}
}
