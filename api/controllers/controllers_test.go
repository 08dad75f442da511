package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/api/middleware"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx, ok := req.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || routeCtx == nil {
		routeCtx = chi.NewRouteContext()
	}
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func asAdmin(req *http.Request) (*http.Request, auth.Actor) {
	actor := auth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}
	return req.WithContext(middleware.WithActor(req.Context(), actor)), actor
}

func asStore(req *http.Request, storeID uuid.UUID) (*http.Request, auth.Actor) {
	status := enums.ApprovalStatusApproved
	actor := auth.Actor{UserID: uuid.New(), Role: enums.RoleStore, StoreID: &storeID, ApprovalStatus: &status}
	return req.WithContext(middleware.WithActor(req.Context(), actor)), actor
}
