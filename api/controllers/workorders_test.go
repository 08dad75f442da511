package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/internal/workorders"
	"github.com/producehub/producehub-backend/pkg/auth"
)

type testWorkOrdersService struct {
	toggleFn func(ctx context.Context, actor auth.Actor, week string, input workorders.ToggleInput) (*workorders.ToggleResult, error)
	exportFn func(ctx context.Context, week string) ([]byte, string, error)
}

func (s *testWorkOrdersService) Get(_ context.Context, week string) (*workorders.WorkOrder, error) {
	return &workorders.WorkOrder{Week: week}, nil
}

func (s *testWorkOrdersService) TogglePick(ctx context.Context, actor auth.Actor, week string, input workorders.ToggleInput) (*workorders.ToggleResult, error) {
	if s.toggleFn != nil {
		return s.toggleFn(ctx, actor, week, input)
	}
	return &workorders.ToggleResult{}, nil
}

func (s *testWorkOrdersService) SetAvailability(_ context.Context, week string, _ workorders.AvailabilityInput) (*workorders.WorkOrder, error) {
	return &workorders.WorkOrder{Week: week}, nil
}

func (s *testWorkOrdersService) ExportXLSX(ctx context.Context, week string) ([]byte, string, error) {
	if s.exportFn != nil {
		return s.exportFn(ctx, week)
	}
	return nil, "", errors.New("not configured")
}

func TestTogglePickReportsStaleSeq(t *testing.T) {
	storeID, productID := uuid.New(), uuid.New()
	svc := &testWorkOrdersService{toggleFn: func(_ context.Context, _ auth.Actor, week string, input workorders.ToggleInput) (*workorders.ToggleResult, error) {
		if week != "2025-W07" {
			t.Fatalf("unexpected week %q", week)
		}
		if input.StoreID != storeID || input.ProductID != productID || input.Seq != 3 || !input.Picked {
			t.Fatalf("unexpected input %+v", input)
		}
		return &workorders.ToggleResult{Applied: false, WorkOrder: &workorders.WorkOrder{Week: week}}, nil
	}}

	body := `{"store_id":"` + storeID.String() + `","product_id":"` + productID.String() + `","picked":true,"seq":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/work-orders/2025-W07/picks", strings.NewReader(body))
	req, _ = asAdmin(req)
	req = addRouteParam(req, "week", "2025-W07")
	resp := httptest.NewRecorder()
	AdminWorkOrderTogglePick(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data workorders.ToggleResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Applied {
		t.Fatal("expected stale toggle reported as not applied")
	}
}

func TestTogglePickRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/work-orders/2025-W07/picks", strings.NewReader(`{"qty":1}`))
	req, _ = asAdmin(req)
	req = addRouteParam(req, "week", "2025-W07")
	resp := httptest.NewRecorder()
	AdminWorkOrderTogglePick(&testWorkOrdersService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestWorkOrderExportAttachment(t *testing.T) {
	svc := &testWorkOrdersService{exportFn: func(_ context.Context, week string) ([]byte, string, error) {
		return []byte("PK"), "work-order-" + week + ".xlsx", nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/work-orders/2025-W07/export", nil)
	req, _ = asAdmin(req)
	req = addRouteParam(req, "week", "2025-W07")
	resp := httptest.NewRecorder()
	AdminWorkOrderExport(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "work-order-2025-W07.xlsx") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if ct := resp.Header().Get("Content-Type"); ct != contentTypeXLSX {
		t.Fatalf("unexpected content type %q", ct)
	}
}
