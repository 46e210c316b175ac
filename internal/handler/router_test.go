package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/handler"
	"github.com/boddenberg/technova-crm-go/internal/infra/cache"
	"github.com/boddenberg/technova-crm-go/internal/infra/observability"
	"github.com/boddenberg/technova-crm-go/internal/infra/resilience"
	"github.com/boddenberg/technova-crm-go/internal/infra/storage/jsonfile"
	"github.com/boddenberg/technova-crm-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxBodyBytes mirrors the request body limit of the handlers.
const maxBodyBytes = 1 << 20

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	repo := jsonfile.New(filepath.Join(t.TempDir(), "state.json"), logger)
	crm, err := service.NewCRM(context.Background(), repo, metrics, logger,
		service.WithSeedUsers([]domain.User{
			{ID: "u-admin", Login: "admin", Name: "Admin", Role: domain.RoleAdmin, Password: "admin"},
			{ID: "u-ana", Login: "ana", Name: "Ana", Role: domain.RoleSeller, Password: "ana"},
			{ID: "u-helena", Login: "helena", Name: "Helena", Role: domain.RoleHR, Password: "helena"},
		}),
	)
	if err != nil {
		t.Fatalf("NewCRM: %v", err)
	}

	revoked := cache.New[struct{}](time.Minute)
	t.Cleanup(revoked.Close)
	sessions := service.NewSessionManager(crm, "test-secret", time.Minute, revoked, logger)

	return handler.NewRouter(crm, sessions, metrics, resilience.NewBulkhead(10), logger)
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router http.Handler, user string) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{"login": user, "password": user})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", user, rec.Code, rec.Body.String())
	}
	var res domain.LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return res.AccessToken
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ping"} {
		rec := do(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestClosedClientFlowsIntoFinance(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "admin")

	rec := do(t, router, http.MethodPost, "/v1/clients", token, map[string]any{
		"name":          "Carla",
		"company":       "Padaria Sol",
		"contractValue": 6000,
		"status":        "CLOSED",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var client domain.Client
	if err := json.Unmarshal(rec.Body.Bytes(), &client); err != nil {
		t.Fatalf("decode client: %v", err)
	}
	if client.ResponsibleID != "u-admin" {
		t.Errorf("expected responsible to default to session user, got %q", client.ResponsibleID)
	}

	rec = do(t, router, http.MethodGet, "/v1/finance/summary", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", rec.Code)
	}
	var sum domain.FinanceSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if !sum.TotalIncome.Equal(decimal.NewFromInt(6000)) {
		t.Errorf("expected income 6000, got %s", sum.TotalIncome)
	}
	if len(sum.Movements) != 1 || sum.Movements[0].RelatedClientID == nil {
		t.Fatalf("expected one generated entry, got %+v", sum.Movements)
	}

	rec = do(t, router, http.MethodPut, "/v1/clients/"+client.ID+"/status", token, map[string]string{"status": "LOST"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/v1/finance/entries", token, nil)
	var list struct {
		Entries []domain.FinancialEntry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(list.Entries) != 0 {
		t.Errorf("expected generated entry to be removed, got %d", len(list.Entries))
	}
}

func TestSellerIsGated(t *testing.T) {
	router := newTestRouter(t)
	admin := login(t, router, "admin")
	rec := do(t, router, http.MethodPost, "/v1/clients", admin, map[string]any{"name": "X", "company": "Y"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client: expected 201, got %d", rec.Code)
	}
	var client domain.Client
	json.Unmarshal(rec.Body.Bytes(), &client)

	seller := login(t, router, "ana")

	if rec := do(t, router, http.MethodGet, "/v1/finance/summary", seller, nil); rec.Code != http.StatusForbidden {
		t.Errorf("finance: expected 403, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodDelete, "/v1/clients/"+client.ID, seller, nil); rec.Code != http.StatusForbidden {
		t.Errorf("delete client: expected 403, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/v1/state", seller, nil); rec.Code != http.StatusForbidden {
		t.Errorf("state: expected 403, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/v1/dashboard", seller, nil); rec.Code != http.StatusOK {
		t.Errorf("dashboard: expected 200, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPut, "/v1/clients/"+client.ID+"/status", seller, map[string]string{"status": "CLOSED"}); rec.Code != http.StatusNotFound {
		t.Errorf("foreign client status: expected 404, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPatch, "/v1/clients/"+client.ID, seller, map[string]any{"contractValue": 1}); rec.Code != http.StatusNotFound {
		t.Errorf("foreign client update: expected 404, got %d", rec.Code)
	}

	hr := login(t, router, "helena")
	if rec := do(t, router, http.MethodPut, "/v1/clients/"+client.ID+"/status", hr, map[string]string{"status": "CLOSED"}); rec.Code != http.StatusForbidden {
		t.Errorf("HR status change: expected 403, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPatch, "/v1/clients/"+client.ID, hr, map[string]any{"notes": "called"}); rec.Code != http.StatusOK {
		t.Errorf("HR field update: expected 200, got %d", rec.Code)
	}
}

func TestPreviousTokenRejectedAfterNewLogin(t *testing.T) {
	router := newTestRouter(t)
	first := login(t, router, "admin")
	login(t, router, "ana")

	if rec := do(t, router, http.MethodGet, "/v1/auth/me", first, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for replaced session, got %d", rec.Code)
	}
}

func TestPreviousTokenRejectedAfterSameUserLogin(t *testing.T) {
	router := newTestRouter(t)
	first := login(t, router, "ana")
	second := login(t, router, "ana")

	if rec := do(t, router, http.MethodGet, "/v1/auth/me", first, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for the earlier token, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/v1/auth/me", second, nil); rec.Code != http.StatusOK {
		t.Errorf("expected 200 for the latest token, got %d", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "admin")

	if rec := do(t, router, http.MethodPost, "/v1/auth/logout", token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/v1/auth/me", token, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	router := newTestRouter(t)

	if rec := do(t, router, http.MethodGet, "/v1/clients", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{"login": "admin", "password": "x"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad credentials: expected 401, got %d", rec.Code)
	}

	token := login(t, router, "admin")

	if rec := do(t, router, http.MethodPost, "/v1/clients", token, "{not json"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: expected 400, got %d", rec.Code)
	}

	if rec := do(t, router, http.MethodPost, "/v1/clients", token, map[string]any{"name": "X", "company": "Y", "discount": 10}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field: expected 400, got %d", rec.Code)
	}
	huge := `{"name": "` + strings.Repeat("x", maxBodyBytes) + `", "company": "Y"}`
	if rec := do(t, router, http.MethodPost, "/v1/clients", token, huge); rec.Code != http.StatusBadRequest {
		t.Errorf("oversized body: expected 400, got %d", rec.Code)
	}

	rec := do(t, router, http.MethodPost, "/v1/clients", token, map[string]any{"company": "Y"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name: expected 400, got %d", rec.Code)
	}
	var body struct {
		Field string `json:"field"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Field != "name" {
		t.Errorf("expected field name, got %q", body.Field)
	}

	if rec := do(t, router, http.MethodPut, "/v1/clients/missing/status", token, map[string]string{"status": "LOST"}); rec.Code != http.StatusNotFound {
		t.Errorf("unknown client: expected 404, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPost, "/v1/users", token, map[string]string{
		"login": "ADMIN", "name": "Dup", "role": "HR", "password": "x",
	}); rec.Code != http.StatusConflict {
		t.Errorf("duplicate login: expected 409, got %d", rec.Code)
	}
}
