package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"perfhub/internal/domain/auth"
)

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func send(h http.Handler, ctx context.Context, method, path, remote, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body)).WithContext(ctx)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitKeysByUserBeforeIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())
	ctx := WithUser(context.Background(), auth.UserContext{OrganisationID: "org-1", UserID: "user-1"})

	if rec := send(limited, ctx, http.MethodPost, "/api/v1/kpis/import", "198.51.100.11:2222", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	rec := send(limited, ctx, http.MethodPost, "/api/v1/kpis/import", "198.51.100.12:3333", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected same user from another ip to be throttled, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected retry metadata headers")
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(noContent())
	ctx := context.Background()

	if rec := send(limited, ctx, http.MethodPost, "/api/v1/auth/login", "192.0.2.20:1111", `{"email":"a@example.com"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	if rec := send(limited, ctx, http.MethodPost, "/api/v1/auth/login", "192.0.2.20:1111", `{"email":"a@example.com"}`); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec.Code)
	}
	time.Sleep(50 * time.Millisecond)
	if rec := send(limited, ctx, http.MethodPost, "/api/v1/auth/login", "192.0.2.20:1111", `{"email":"a@example.com"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("expected request after window reset to pass, got %d", rec.Code)
	}
}

func TestSensitiveMutationRateLimitScope(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute)(noContent())

	for i := 0; i < 6; i++ {
		if rec := send(limited, context.Background(), http.MethodGet, "/api/v1/review-cycles", "198.51.100.40:8888", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("read request %d must bypass sensitive limits, got %d", i+1, rec.Code)
		}
	}

	ctx := WithUser(context.Background(), auth.UserContext{OrganisationID: "org-1", UserID: "hr-1"})
	for i := 0; i < 3; i++ {
		rec := send(limited, ctx, http.MethodPost, "/api/v1/review-cycles/c1/publish", "198.51.100.41:9999", "")
		if i < 2 && rec.Code != http.StatusNoContent {
			t.Fatalf("expected sensitive request %d to pass, got %d", i+1, rec.Code)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected third sensitive request to be throttled, got %d", rec.Code)
		}
	}
}

func TestSensitiveRateScope(t *testing.T) {
	tests := map[string]sensitiveScope{
		"/api/v1/auth/login":               sensitiveScopeAuth,
		"/api/v1/kpis/import":              sensitiveScopeActor,
		"/api/v1/jobs/reminders/run":       sensitiveScopeActor,
		"/api/v1/review-cycles/c1/publish": sensitiveScopeActor,
		"/api/v1/kpis":                     sensitiveScopeNone,
	}
	for path, want := range tests {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if got := sensitiveRateScope(req); got != want {
			t.Fatalf("%s: expected %q, got %q", path, want, got)
		}
	}
}
