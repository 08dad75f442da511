package controllers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/producehub/producehub-backend/api/responses"
	"github.com/producehub/producehub-backend/api/validators"
	"github.com/producehub/producehub-backend/internal/export"
	"github.com/producehub/producehub-backend/internal/stores"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/logger"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// parseStoreFilter reads the shared list, analytics and export filter so
// every view of the store grid applies identical criteria.
func parseStoreFilter(r *http.Request) (stores.ListFilter, error) {
	filter := stores.ListFilter{
		Search: validators.SearchTerm(r),
		State:  validators.SanitizeString(r.URL.Query().Get("state"), 64),
		City:   validators.SanitizeString(r.URL.Query().Get("city"), 128),
	}

	approval, err := validators.ParseQueryEnum(r, "approval_status", enums.ApprovalStatus.IsValid)
	if err != nil {
		return filter, err
	}
	filter.ApprovalStatus = approval

	payment, err := validators.ParseQueryEnum(r, "payment_status", enums.PaymentStatus.IsValid)
	if err != nil {
		return filter, err
	}
	filter.PaymentStatus = payment

	switch sort := stores.SortField(strings.ToLower(r.URL.Query().Get("sort"))); sort {
	case "":
	case stores.SortByName, stores.SortByCreated, stores.SortByBalance:
		filter.Sort = sort
	default:
		return filter, pkgerrors.New(pkgerrors.CodeValidation, "sort must be name, created or balance").WithDetails(map[string]any{"field": "sort"})
	}
	filter.Desc = strings.EqualFold(r.URL.Query().Get("order"), "desc")
	return filter, nil
}

type storeProfileRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	OwnerName *string  `json:"owner_name,omitempty" validate:"omitempty,min=1"`
	Email     *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string  `json:"phone,omitempty"`
	Address   *string  `json:"address,omitempty"`
	City      *string  `json:"city,omitempty"`
	State     *string  `json:"state,omitempty"`
	ZipCode   *string  `json:"zip_code,omitempty"`
	Lat       *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lng       *float64 `json:"lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
	// CreditLimitCents is ignored for store callers.
	CreditLimitCents *int64 `json:"credit_limit_cents,omitempty" validate:"omitempty,gte=0"`
}

func (p storeProfileRequest) toInput() stores.UpdateProfileInput {
	return stores.UpdateProfileInput{
		Name:             p.Name,
		OwnerName:        p.OwnerName,
		Email:            p.Email,
		Phone:            p.Phone,
		Address:          p.Address,
		City:             p.City,
		State:            p.State,
		ZipCode:          p.ZipCode,
		Lat:              p.Lat,
		Lng:              p.Lng,
		CreditLimitCents: p.CreditLimitCents,
	}
}

// StoreProfile returns the caller's own store.
func StoreProfile(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("store"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !actor.IsStore() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing"))
			return
		}

		profile, err := svc.Get(r.Context(), actor, *actor.StoreID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// StoreProfileUpdate edits the caller's own store profile.
func StoreProfileUpdate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("store"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !actor.IsStore() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing"))
			return
		}

		var body storeProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Update(r.Context(), actor, *actor.StoreID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func AdminStoreList(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("store"))
			return
		}
		filter, err := parseStoreFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Offset, filter.Limit, err = pageWindow(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminStorePending lists the approval queue.
func AdminStorePending(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("store"))
			return
		}
		rows, err := svc.ListPending(r.Context(), validators.SearchTerm(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func AdminStoreGet(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("store"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

func AdminStoreUpdate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("store"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body storeProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Update(r.Context(), actor, id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

type storePermissionsRequest struct {
	IsOrder   *bool `json:"is_order" validate:"required"`
	IsProduct *bool `json:"is_product" validate:"required"`
}

func AdminStorePermissions(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("store"))
			return
		}
		id, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body storePermissionsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.UpdatePermissions(r.Context(), id, stores.PermissionsInput{IsOrder: *body.IsOrder, IsProduct: *body.IsProduct})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// AdminStoreApprove moves a pending store to approved. The body is empty;
// the request itself is the confirmation.
func AdminStoreApprove(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("store"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Approve(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// rejectRequest leaves reason unvalidated here; the service owns the blank
// check so the rule holds for every caller.
type rejectRequest struct {
	Reason string `json:"reason"`
}

func AdminStoreReject(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("store"))
			return
		}
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body rejectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Reject(r.Context(), actor, id, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

func AdminStoreAnalytics(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("store"))
			return
		}
		filter, err := parseStoreFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Analytics(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// AdminStoreExport downloads the filtered store grid as CSV or XLSX. Rows
// match AdminStoreList for the same query, without pagination.
func AdminStoreExport(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("store"))
			return
		}
		format, err := exportFormat(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := parseStoreFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ExportRows(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeTable(w, r, logg, export.Stores(rows), "stores", format)
	}
}

func writeTable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, table export.Table, name, format string) {
	if format == "xlsx" {
		body, err := table.XLSX()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteFile(w, contentTypeXLSX, name+".xlsx", body)
		return
	}

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteFile(w, contentTypeCSV, name+".csv", buf.Bytes())
}
