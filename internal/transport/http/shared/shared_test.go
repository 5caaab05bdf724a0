package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParsePaginationClamps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/kpis?limit=900&offset=20", nil)
	page := ParsePagination(req, 50, 200)
	if page.Limit != 200 || page.Offset != 20 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestValidatorDateOrder(t *testing.T) {
	v := NewValidator()
	start, _ := v.Date("startDate", "2025-03-10")
	end, _ := v.Date("endDate", "2025-03-01")
	v.DateOrder("startDate", start, "endDate", end)
	if len(v.Issues()) != 2 {
		t.Fatalf("expected two issues, got %v", v.Issues())
	}
}

func TestDecodeAndValidate(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required,orgname"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"BE  Team"}`))
	var p payload
	if DecodeAndValidate(rec, req, &p, "req-1") {
		t.Fatal("expected validation failure")
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "validation_error") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"BE Team"}`))
	if !DecodeAndValidate(rec, req, &p, "req-1") || p.Name != "BE Team" {
		t.Fatal("expected valid payload to decode")
	}
}
