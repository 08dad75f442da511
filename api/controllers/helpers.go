package controllers

import (
	"net/http"

	"github.com/producehub/producehub-backend/api/middleware"
	"github.com/producehub/producehub-backend/api/validators"
	"github.com/producehub/producehub-backend/pkg/auth"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/pagination"
)

const maxOffset = 1_000_000

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

func requireActor(r *http.Request) (auth.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return auth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return actor, nil
}

// pageWindow reads offset and limit for offset-paginated lists.
func pageWindow(r *http.Request) (offset, limit int, err error) {
	offset, err = validators.ParseQueryInt(r, "offset", 0, 0, maxOffset)
	if err != nil {
		return 0, 0, err
	}
	limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

// exportFormat resolves ?format= for download endpoints; csv is the default.
func exportFormat(r *http.Request) (string, error) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		return "csv", nil
	case "xlsx":
		return "xlsx", nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "format must be csv or xlsx").WithDetails(map[string]any{"field": "format"})
	}
}
