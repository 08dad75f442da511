package controllers

import (
	"net/http"

	"github.com/producehub/producehub-backend/api/responses"
	"github.com/producehub/producehub-backend/api/validators"
	"github.com/producehub/producehub-backend/internal/members"
	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/logger"
)

type createMemberRequest struct {
	Name             string           `json:"name" validate:"required,max=120"`
	Email            string           `json:"email" validate:"required,email"`
	Phone            *string          `json:"phone,omitempty"`
	Role             enums.MemberRole `json:"role" validate:"required,oneof=admin manager dispatcher accountant staff"`
	CanManageOrders  bool             `json:"can_manage_orders"`
	CanManageFinance bool             `json:"can_manage_finance"`
}

type updateMemberRequest struct {
	Name  *string           `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Email *string           `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string           `json:"phone,omitempty"`
	Role  *enums.MemberRole `json:"role,omitempty" validate:"omitempty,oneof=admin manager dispatcher accountant staff"`
}

type memberStatusRequest struct {
	Status enums.MemberStatus `json:"status" validate:"required,oneof=active inactive suspended"`
}

type memberCapabilitiesRequest struct {
	CanManageOrders  *bool `json:"can_manage_orders" validate:"required"`
	CanManageFinance *bool `json:"can_manage_finance" validate:"required"`
}

func AdminMemberList(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("member"))
			return
		}
		filter := members.ListFilter{Search: validators.SearchTerm(r)}
		var err error
		if filter.Role, err = validators.ParseQueryEnum(r, "role", enums.MemberRole.IsValid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Status, err = validators.ParseQueryEnum(r, "status", enums.MemberStatus.IsValid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func AdminMemberGet(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("member"))
			return
		}
		id, err := validators.PathUUID(r, "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

// AdminMemberCreate returns the temporary password once; it is never
// readable again.
func AdminMemberCreate(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("member"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createMemberRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), actor, members.CreateInput{
			Name:             body.Name,
			Email:            body.Email,
			Phone:            body.Phone,
			Role:             body.Role,
			CanManageOrders:  body.CanManageOrders,
			CanManageFinance: body.CanManageFinance,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, created)
	}
}

func AdminMemberUpdate(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("member"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateMemberRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.Update(r.Context(), actor, id, members.UpdateInput{
			Name:  body.Name,
			Email: body.Email,
			Phone: body.Phone,
			Role:  body.Role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

func AdminMemberStatus(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("member"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body memberStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.SetStatus(r.Context(), actor, id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

func AdminMemberCapabilities(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("member"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body memberCapabilitiesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.SetCapabilities(r.Context(), actor, id, members.CapabilitiesInput{
			CanManageOrders:  *body.CanManageOrders,
			CanManageFinance: *body.CanManageFinance,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

func AdminMemberDelete(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("member"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func AdminMemberActivity(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("member"))
			return
		}
		id, err := validators.PathUUID(r, "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.Activity(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
