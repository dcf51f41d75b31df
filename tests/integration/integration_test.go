package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adstack/adboard-bff-go/internal/dialog"
	"github.com/adstack/adboard-bff-go/internal/domain"
	"github.com/adstack/adboard-bff-go/internal/handler"
	"github.com/adstack/adboard-bff-go/internal/infra/notify"
	"github.com/adstack/adboard-bff-go/internal/infra/observability"
	"github.com/adstack/adboard-bff-go/internal/infra/querycache"
	"github.com/adstack/adboard-bff-go/internal/infra/resilience"
	"github.com/adstack/adboard-bff-go/internal/infra/upstream"

	"go.uber.org/zap"
)

// fakePlatform is an in-process stand-in for the advertising platform API.
type fakePlatform struct {
	walletCalls   atomic.Int64
	depositCalls  atomic.Int64
	rejectDeposit bool
}

func (f *fakePlatform) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/v1/wallet/me":
			f.walletCalls.Add(1)
			w.Write([]byte(`{"success":true,"data":{"_id":"w1","balance":1000,"currency":"USD","paymentFeeRule":{"facebook_commission":5,"google_commission":3}}}`))
		case r.URL.Path == "/api/v1/ad-accounts":
			w.Write([]byte(`{"success":true,"data":[{"_id":"acc-1","name":"Main Campaign","account_id":"111","platform":"facebook","status":"active","created_at":"2026-01-10T12:00:00Z"}]}`))
		case r.URL.Path == "/api/v1/ad-accounts/acc-1/deposits":
			f.depositCalls.Add(1)
			if f.rejectDeposit {
				w.Write([]byte(`{"success":false,"message":"Insufficient balance"}`))
				return
			}
			w.Write([]byte(`{"success":true}`))
		case r.URL.Path == "/api/v1/deposits":
			w.Write([]byte(`{"success":true,"data":[]}`))
		case r.URL.Path == "/api/v1/users":
			w.Write([]byte(`{"success":true,"data":[{"_id":"u1","full_name":"John Carter","email":"john@example.com"}]}`))
		case r.URL.Path == "/api/v1/provisioned-accounts" && r.Method == http.MethodPost:
			w.Write([]byte(`{"success":true}`))
		case r.URL.Path == "/api/v1/provisioned-accounts":
			w.Write([]byte(`{"success":true,"data":[]}`))
		case r.URL.Path == "/api/v1/health":
			w.Write([]byte(`{"success":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"message":"not found"}`))
		}
	}
}

func buildStack(t *testing.T, fake *fakePlatform) (http.Handler, *fakePlatform) {
	t.Helper()

	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("platform-api-it")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 5 * time.Millisecond, MaxConcurrency: 10}
	platform := upstream.NewClient(server.Client(), server.URL, "it-key", cb, cfg, logger)

	queries := querycache.New(5*time.Minute, 2*time.Second, metrics, logger)
	queries.Register(dialog.QueryWallet, func(ctx context.Context) (any, error) {
		return platform.FetchWallet(ctx)
	})
	queries.Register(dialog.QueryActiveAccounts, func(ctx context.Context) (any, error) {
		return platform.ListAccounts(ctx, "active", 100)
	})
	queries.Register(dialog.QueryAccounts, func(ctx context.Context) (any, error) {
		return platform.ListAccounts(ctx, "", 100)
	})
	queries.Register(dialog.QueryDeposits, func(ctx context.Context) (any, error) {
		return platform.ListDeposits(ctx, 100)
	})
	queries.Register(dialog.QueryAllGoogleAccts, func(ctx context.Context) (any, error) {
		return platform.ListProvisionedAccounts(ctx, 100)
	})

	notices := notify.NewRing(20, logger)
	provisioningCfg := dialog.ProvisioningConfig{
		SearchDebounce:        10 * time.Millisecond,
		SearchLimit:           10,
		SearchTimeout:         time.Second,
		DefaultApplicationFee: 20,
	}
	sessions := handler.NewSessions(time.Minute,
		func() *dialog.DepositDialog {
			return dialog.NewDepositDialog(queries, platform, notices, metrics, logger)
		},
		func() *dialog.ProvisioningDialog {
			return dialog.NewProvisioningDialog(queries, platform, platform, notices, provisioningCfg, metrics, logger)
		},
	)

	return handler.NewRouter(sessions, queries, platform, notices, platform, metrics, logger), fake
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestIntegration_DepositFlow drives the deposit dialog end to end against
// a fake platform API: open, fill, submit, and verify the wallet cache is
// refetched after the invalidation that follows a successful submit.
func TestIntegration_DepositFlow(t *testing.T) {
	router, fake := buildStack(t, &fakePlatform{})

	rec := do(t, router, http.MethodPost, "/v1/dialogs/deposit", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var opened struct {
		SessionID string              `json:"session_id"`
		State     dialog.DepositState `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &opened); err != nil {
		t.Fatal(err)
	}
	if opened.State.CommissionPercent != 5 {
		t.Errorf("expected commission 5, got %v", opened.State.CommissionPercent)
	}
	if len(opened.State.Accounts) != 1 {
		t.Fatalf("expected 1 account, got %+v", opened.State.Accounts)
	}

	base := "/v1/dialogs/deposit/" + opened.SessionID
	rec = do(t, router, http.MethodPatch, base, map[string]any{
		"account_id": "acc-1",
		"amount":     100,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var state dialog.DepositState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.Summary.Fee != 5 || state.Summary.Total != 105 {
		t.Errorf("unexpected summary %+v", state.Summary)
	}

	walletBefore := fake.walletCalls.Load()
	rec = do(t, router, http.MethodPost, base+"/submit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on submit, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	if fake.depositCalls.Load() != 1 {
		t.Errorf("expected 1 deposit call, got %d", fake.depositCalls.Load())
	}

	// Invalidation refetches subscribed keys in the background.
	deadline := time.Now().Add(time.Second)
	for fake.walletCalls.Load() == walletBefore && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if fake.walletCalls.Load() == walletBefore {
		t.Error("expected wallet refetch after submit")
	}

	rec = do(t, router, http.MethodGet, "/v1/notifications", nil)
	var notes []domain.Notice
	if err := json.Unmarshal(rec.Body.Bytes(), &notes); err != nil {
		t.Fatal(err)
	}
	if len(notes) == 0 || notes[0].Level != domain.NoticeSuccess {
		t.Errorf("expected success notice, got %+v", notes)
	}
}

// TestIntegration_DepositRejected verifies an application-level rejection
// surfaces as 422 and keeps the dialog open for correction.
func TestIntegration_DepositRejected(t *testing.T) {
	router, fake := buildStack(t, &fakePlatform{rejectDeposit: true})

	rec := do(t, router, http.MethodPost, "/v1/dialogs/deposit", nil)
	var opened struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &opened); err != nil {
		t.Fatal(err)
	}

	base := "/v1/dialogs/deposit/" + opened.SessionID
	do(t, router, http.MethodPatch, base, map[string]any{"account_id": "acc-1", "amount": 100})

	rec = do(t, router, http.MethodPost, base+"/submit", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	// Rejections are not retried.
	if fake.depositCalls.Load() != 1 {
		t.Errorf("expected 1 deposit call, got %d", fake.depositCalls.Load())
	}

	// The session survives a rejection so the operator can correct it.
	rec = do(t, router, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var state dialog.DepositState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.AccountID != "acc-1" {
		t.Errorf("expected selection kept, got %+v", state)
	}
}

// TestIntegration_ProvisioningFlow drives the provisioning dialog end to
// end: debounced user search, field entry, and submit.
func TestIntegration_ProvisioningFlow(t *testing.T) {
	router, _ := buildStack(t, &fakePlatform{})

	rec := do(t, router, http.MethodPost, "/v1/dialogs/provisioning", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var opened struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &opened); err != nil {
		t.Fatal(err)
	}
	base := "/v1/dialogs/provisioning/" + opened.SessionID

	rec = do(t, router, http.MethodPatch, base+"/search", map[string]string{"query": "john"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	deadline := time.Now().Add(time.Second)
	var search dialog.SearchState
	for {
		rec = do(t, router, http.MethodGet, base+"/search", nil)
		if err := json.Unmarshal(rec.Body.Bytes(), &search); err != nil {
			t.Fatal(err)
		}
		if len(search.Results) > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(search.Results) != 1 {
		t.Fatalf("expected 1 result, got %+v", search)
	}

	rec = do(t, router, http.MethodPost, base+"/user", map[string]string{"user_id": "u1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPatch, base, map[string]any{
		"updates": map[string]string{
			"account_name": "Acme Ads",
			"account_id":   "123-456-7890",
			"timezone":     "America/New_York",
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, base+"/submit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on submit, got %d. Body: %s", rec.Code, rec.Body.String())
	}
}

// TestIntegration_Healthz checks the health endpoint reports the platform
// API as healthy when it is reachable.
func TestIntegration_Healthz(t *testing.T) {
	router, _ := buildStack(t, &fakePlatform{})

	rec := do(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status domain.HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "healthy" {
		t.Errorf("expected healthy, got %+v", status)
	}
}
