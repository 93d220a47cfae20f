package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lchelper/hints_api/model"
	"github.com/lchelper/hints_api/services/handlers"
	"github.com/lchelper/hints_api/shared"
)

type gateTestEnv struct {
	app    *fiber.App
	ds     *SqliteService
	jwtSvc *JWTService
	subSvc *SubscriptionService
}

// newGateTestEnv assembles the real middleware chain for the hints
// routes: auth, subscription gate, persistent limiter, handler.
func newGateTestEnv(t *testing.T, upstream hintsUpstream) *gateTestEnv {
	t.Helper()

	ds := newTestSqlite(t)
	jwtSvc := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "gate-test-secret"}
	subSvc := &SubscriptionService{sqlSvc: ds, maxFree: 10, maxPremium: 25, maxPro: 60}
	authSvc := &AuthService{sqlSvc: ds, jwtSvc: jwtSvc, subSvc: subSvc}
	monSvc := &MonitoringService{}
	rlSvc := &RateLimitService{
		sqlSvc:         ds,
		subSvc:         subSvc,
		monSvc:         monSvc,
		windowDuration: 24 * time.Hour,
	}
	hintsSvc := &HintsService{sqlSvc: ds, monSvc: monSvc, upstream: upstream}

	httpSvc := &HttpService{}
	app := fiber.New(fiber.Config{
		BodyLimit:    maxRequestBodyBytes,
		ErrorHandler: httpSvc.handleError,
	})

	hintsHandler := handlers.NewHintsHandler(hintsSvc)
	hints := app.Group("/api/v1/hints",
		authSvc.RequiredAuth(),
		authSvc.RequireActiveSubscription(),
		rlSvc.PersistentRateLimit(DefaultRateLimitEndpoint),
	)
	hints.Post("/generate", hintsHandler.Generate)

	return &gateTestEnv{app: app, ds: ds, jwtSvc: jwtSvc, subSvc: subSvc}
}

func (env *gateTestEnv) request(t *testing.T, token string, body []byte) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hints/generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func hintsRequestBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(testHintsRequest())
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestGateRejectsMissingToken(t *testing.T) {
	env := newGateTestEnv(t, &stubUpstream{hints: testHintsPayload()})

	resp := env.request(t, "", hintsRequestBody(t))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestGateRejectsGarbageToken(t *testing.T) {
	env := newGateTestEnv(t, &stubUpstream{hints: testHintsPayload()})

	resp := env.request(t, "not-a-jwt", hintsRequestBody(t))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestGateRequiresSubscriptionBeforeCounting(t *testing.T) {
	env := newGateTestEnv(t, &stubUpstream{hints: testHintsPayload()})
	user := seedUser(t, env.ds, "unsubscribed@example.com")
	token, err := env.jwtSvc.ToJWT(user.ID)
	if err != nil {
		t.Fatal(err)
	}

	resp := env.request(t, token, hintsRequestBody(t))
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", resp.StatusCode)
	}

	// The 402 fires before the limiter; no quota may be consumed.
	count, err := env.ds.CurrentRequestCount(RateLimitIdentifierForUser(user.ID), DefaultRateLimitEndpoint)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("quota consumed by rejected request: count = %d", count)
	}
}

// The free-tier scenario end to end: ten requests pass, the eleventh is
// denied with limiter headers, and the denial does not consume quota.
func TestGateFreeTierQuotaExhaustion(t *testing.T) {
	env := newGateTestEnv(t, &stubUpstream{hints: testHintsPayload()})
	user := seedUser(t, env.ds, "freetier@example.com")
	seedSubscription(t, env.ds, user.ID, shared.TierFree, time.Now().Add(24*time.Hour), false)
	token, err := env.jwtSvc.ToJWT(user.ID)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 10; i++ {
		resp := env.request(t, token, hintsRequestBody(t))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, resp.StatusCode)
		}
		wantRemaining := fmt.Sprintf("%d", 10-i)
		if got := resp.Header.Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("request %d: X-RateLimit-Remaining = %q, want %q", i, got, wantRemaining)
		}
	}

	resp := env.request(t, token, hintsRequestBody(t))
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("11th request: status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
	if got := resp.Header.Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	if got := resp.Header.Get("X-RateLimit-Limit"); got != "10" {
		t.Errorf("X-RateLimit-Limit = %q, want 10", got)
	}

	// The denied request's increment is rolled back.
	count, err := env.ds.CurrentRequestCount(RateLimitIdentifierForUser(user.ID), DefaultRateLimitEndpoint)
	if err != nil {
		t.Fatal(err)
	}
	if count != 10 {
		t.Errorf("stored count after denial = %d, want 10", count)
	}
}

func TestGateServesCachedSecondRequest(t *testing.T) {
	upstream := &stubUpstream{hints: testHintsPayload()}
	env := newGateTestEnv(t, upstream)
	user := seedUser(t, env.ds, "cachehit@example.com")
	seedSubscription(t, env.ds, user.ID, shared.TierPremium, time.Now().Add(24*time.Hour), false)
	token, err := env.jwtSvc.ToJWT(user.ID)
	if err != nil {
		t.Fatal(err)
	}

	first := env.request(t, token, hintsRequestBody(t))
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first request: status = %d", first.StatusCode)
	}

	second := env.request(t, token, hintsRequestBody(t))
	if second.StatusCode != http.StatusOK {
		t.Fatalf("second request: status = %d", second.StatusCode)
	}

	var payload struct {
		Data struct {
			Cached bool `json:"cached"`
		} `json:"data"`
	}
	if err := json.NewDecoder(second.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload.Data.Cached {
		t.Error("second response should be marked cached")
	}
	if upstream.hintCalls != 1 {
		t.Errorf("upstream called %d times, want 1", upstream.hintCalls)
	}

	// Cache hits still consume quota.
	count, err := env.ds.CurrentRequestCount(RateLimitIdentifierForUser(user.ID), DefaultRateLimitEndpoint)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("stored count = %d, want 2", count)
	}
}

func TestGateFailsClosedOnStorageError(t *testing.T) {
	env := newGateTestEnv(t, &stubUpstream{hints: testHintsPayload()})
	user := seedUser(t, env.ds, "failclosed@example.com")
	seedSubscription(t, env.ds, user.ID, shared.TierFree, time.Now().Add(24*time.Hour), false)
	token, err := env.jwtSvc.ToJWT(user.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := env.ds.Db().Migrator().DropTable(&model.RateLimitWindow{}); err != nil {
		t.Fatal(err)
	}

	resp := env.request(t, token, hintsRequestBody(t))
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when the counter store is down", resp.StatusCode)
	}
	if got := resp.Header.Get("X-RateLimit-Limit"); got != "10" {
		t.Errorf("X-RateLimit-Limit = %q, want the tier ceiling even on fail-closed", got)
	}
}

func TestGateRejectsOversizedBody(t *testing.T) {
	env := newGateTestEnv(t, &stubUpstream{hints: testHintsPayload()})
	user := seedUser(t, env.ds, "bigbody@example.com")
	seedSubscription(t, env.ds, user.ID, shared.TierFree, time.Now().Add(24*time.Hour), false)
	token, err := env.jwtSvc.ToJWT(user.ID)
	if err != nil {
		t.Fatal(err)
	}

	resp := env.request(t, token, bytes.Repeat([]byte("a"), maxRequestBodyBytes+1))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestGateRejectsOverlongDescription(t *testing.T) {
	env := newGateTestEnv(t, &stubUpstream{hints: testHintsPayload()})
	user := seedUser(t, env.ds, "longdesc@example.com")
	seedSubscription(t, env.ds, user.ID, shared.TierFree, time.Now().Add(24*time.Hour), false)
	token, err := env.jwtSvc.ToJWT(user.ID)
	if err != nil {
		t.Fatal(err)
	}

	req := testHintsRequest()
	req.Problem.Description = string(bytes.Repeat([]byte("d"), 50001))
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}

	resp := env.request(t, token, body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
