package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/tenantgate/internal/tenant"
	"github.com/mbd888/tenantgate/internal/trust"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func middlewareRouter(l *Limiter, cfg Config, tc *trust.Context) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies(nil)
	if tc != nil {
		router.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(trust.WithTenant(c.Request.Context(), tc))
			c.Next()
		})
	}
	router.Use(Middleware(l, cfg))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doRequest(router *gin.Engine, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_IPLimitAndHeaders(t *testing.T) {
	l, _, _ := newTestLimiter()
	router := middlewareRouter(l, Config{IPRequestsPerMinute: 2, IPBurst: 0}, nil)

	w := doRequest(router, "203.0.113.5:1234", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("expected limit header 2, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Errorf("expected remaining header 1, got %q", got)
	}
	if w.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("expected reset header")
	}

	doRequest(router, "203.0.113.5:1234", "")
	w = doRequest(router, "203.0.113.5:1234", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on rejection")
	}
}

func TestMiddleware_SeparateIPsSeparateBuckets(t *testing.T) {
	l, _, _ := newTestLimiter()
	router := middlewareRouter(l, Config{IPRequestsPerMinute: 1, IPBurst: 0}, nil)

	doRequest(router, "203.0.113.5:1234", "")
	if w := doRequest(router, "203.0.113.5:1234", ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for exhausted IP, got %d", w.Code)
	}
	if w := doRequest(router, "198.51.100.7:1234", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for fresh IP, got %d", w.Code)
	}
}

func TestMiddleware_TenantKeyUsesEntitlements(t *testing.T) {
	l, store, _ := newTestLimiter()
	tc := &trust.Context{
		Identity: tenant.Identity{ID: "t_1", Slug: "acme", Status: tenant.StatusActive},
		Source:   trust.SourceToken,
		Tenant:   &tenant.Tenant{ID: "t_1", Slug: "acme", Plan: tenant.PlanStarter, Status: tenant.StatusActive},
	}
	// IP defaults of 1/0 would reject the second request; the tenant's
	// starter entitlement of 60+12 must apply instead.
	router := middlewareRouter(l, Config{IPRequestsPerMinute: 1, IPBurst: 0}, tc)

	for i := 0; i < 3; i++ {
		if w := doRequest(router, "203.0.113.5:1234", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	window := windowStart.UnixMilli() / windowMillis
	current, _, err := store.Counts(context.Background(),
		bucketKey("tenant:t_1", window), bucketKey("tenant:t_1", window-1))
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if current != 3 {
		t.Errorf("expected tenant bucket to hold 3, got %d", current)
	}
}

func TestMiddleware_StoreDownFailsClosed(t *testing.T) {
	l := New(failingCounterStore{})
	router := middlewareRouter(l, DefaultConfig(), nil)

	if w := doRequest(router, "203.0.113.5:1234", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the store is down, got %d", w.Code)
	}
}

func TestMiddleware_ForwardedForCannotSplitBuckets(t *testing.T) {
	l, _, _ := newTestLimiter()
	router := middlewareRouter(l, Config{IPRequestsPerMinute: 2, IPBurst: 0}, nil)

	// With no trusted proxies, a rotating forwarded-for chain still keys by
	// the peer address, so the limit cannot be evaded.
	doRequest(router, "203.0.113.5:1234", "198.51.100.7")
	doRequest(router, "203.0.113.5:1234", "198.51.100.8")
	if w := doRequest(router, "203.0.113.5:1234", "198.51.100.9"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 despite rotating X-Forwarded-For, got %d", w.Code)
	}
}
