package controllers

import (
	"net/http"

	"github.com/producehub/producehub-backend/api/responses"
	"github.com/producehub/producehub-backend/api/validators"
	"github.com/producehub/producehub-backend/internal/products"
	"github.com/producehub/producehub-backend/pkg/logger"
)

// ProductCatalog lists the active catalog for store ordering.
func ProductCatalog(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return listProducts(svc, logg, true)
}

// AdminProductList includes inactive products unless ?active=true.
func AdminProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return listProducts(svc, logg, false)
}

func listProducts(svc products.Service, logg *logger.Logger, activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		filter := products.ListFilter{Search: validators.SearchTerm(r), ActiveOnly: activeOnly}
		if !activeOnly {
			active, err := validators.ParseQueryBool(r, "active")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.ActiveOnly = active != nil && *active
		}
		var err error
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

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		var body products.CreateProductInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}

func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body products.UpdateProductInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// LocationHandlers binds the warehouse or vendor CRUD surface to one kind.
type LocationHandlers struct {
	svc  products.LocationService
	kind products.LocationKind
	logg *logger.Logger
}

func NewLocationHandlers(svc products.LocationService, kind products.LocationKind, logg *logger.Logger) LocationHandlers {
	return LocationHandlers{svc: svc, kind: kind, logg: logg}
}

func (h LocationHandlers) List(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		responses.WriteError(r.Context(), h.logg, w, unavailable(string(h.kind)))
		return
	}
	rows, err := h.svc.List(r.Context(), h.kind, validators.SearchTerm(r))
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, rows)
}

func (h LocationHandlers) Create(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		responses.WriteError(r.Context(), h.logg, w, unavailable(string(h.kind)))
		return
	}
	var body products.LocationInput
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	location, err := h.svc.Create(r.Context(), h.kind, body)
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	responses.WriteCreated(w, location)
}

func (h LocationHandlers) Update(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		responses.WriteError(r.Context(), h.logg, w, unavailable(string(h.kind)))
		return
	}
	id, err := validators.PathUUID(r, "locationId")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	var body products.LocationInput
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	location, err := h.svc.Update(r.Context(), h.kind, id, body)
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	responses.WriteSuccess(w, location)
}

func (h LocationHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		responses.WriteError(r.Context(), h.logg, w, unavailable(string(h.kind)))
		return
	}
	id, err := validators.PathUUID(r, "locationId")
	if err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), h.kind, id); err != nil {
		responses.WriteError(r.Context(), h.logg, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
