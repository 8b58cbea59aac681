package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wms/backend/internal/cache"
	"wms/backend/internal/domain"
	"wms/backend/internal/service"
	"wms/backend/internal/store/memory"
)

func newTestHandler() http.Handler {
	repo := memory.NewSeeded()
	svc := service.New(repo, cache.NoopSearchCache{}, 5*time.Second, domain.WarehouseFinishedGoods)
	return New(svc, "http://127.0.0.1:3000").Handler()
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestExecuteReturnEndpoint(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/returns/execute", `{
		"mode": "return",
		"invoice_number": "INV-001",
		"items": [{"product_id": "prod-halogen-red", "amount": 2}]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.ExecuteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Invoice == nil {
		t.Fatalf("expected rewritten invoice in response")
	}
	if resp.Invoice.TotalPrice.IntPart() != 725000 {
		t.Fatalf("expected total 725000, got %s", resp.Invoice.TotalPrice)
	}
}

func TestExecuteRejectsUnknownMode(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/returns/execute", `{
		"mode": "refund",
		"invoice_number": "INV-001",
		"items": [{"product_id": "prod-halogen-red", "amount": 1}]
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", rec.Code)
	}
}

func TestExecuteMissingInvoiceIs404(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/returns/execute", `{
		"mode": "return",
		"invoice_number": "INV-404",
		"items": [{"product_id": "prod-halogen-red", "amount": 1}]
	}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestInvoiceLookupEndpoint(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/invoices/INV-001", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var lookup domain.InvoiceLookupResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &lookup); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !lookup.Found || lookup.Voided {
		t.Fatalf("expected live invoice, got %+v", lookup)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/returns/execute", `{
		"mode": "void",
		"invoice_number": "INV-001"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("void failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/invoices/INV-001", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &lookup); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lookup.Found || !lookup.Voided {
		t.Fatalf("expected void snapshot after void, got %+v", lookup)
	}
}

func TestDisposeEndpointRejectsBadTarget(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/broken-products/broken-x/dispose", `{
		"target": "shredder"
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown target, got %d", rec.Code)
	}
}

func TestBrokenProductSearchEndpoint(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/returns/execute", `{
		"mode": "exchange",
		"invoice_number": "INV-001",
		"items": [{"product_id": "prod-halogen-red", "amount": 2}]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("exchange failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/broken-products?search=beat", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		BrokenProducts []domain.BrokenProduct `json:"broken_products"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.BrokenProducts) != 1 || payload.BrokenProducts[0].Count != 2 {
		t.Fatalf("unexpected search payload %+v", payload)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/returns/execute", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/dispatch-notes", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
