package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

var rateTestStart = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func newRateLimitedRouter(userID string, now func() time.Time, rules map[string]RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(userIDKey, userID)
		}
		c.Next()
	})
	r.Use(RateLimit(RateLimitConfig{
		Limiter: NewRateLimiter(now),
		Rules:   rules,
		GroupFor: func(c *gin.Context) string {
			if c.FullPath() == "/reports/:id" {
				return "POLLING"
			}
			return ""
		},
	}))
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.GET("/reports/:id", ok)
	r.POST("/classifications", ok)
	r.GET("/open", ok)
	return r
}

func hit(r http.Handler, method, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(method, path, nil))
	return resp
}

func TestRateLimitGroupsHaveSeparateBudgets(t *testing.T) {
	now := func() time.Time { return rateTestStart }
	r := newRateLimitedRouter("guest:g-1", now, map[string]RateLimitRule{
		"DEFAULT": {Rate: 1, Burst: 2},
		"POLLING": {Rate: 5, Burst: 10},
	})

	steps := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/reports/r-1", http.StatusNoContent},
		{http.MethodGet, "/reports/r-1", http.StatusNoContent},
		{http.MethodGet, "/reports/r-1", http.StatusNoContent},
		{http.MethodPost, "/classifications", http.StatusNoContent},
		{http.MethodPost, "/classifications", http.StatusNoContent},
		{http.MethodPost, "/classifications", http.StatusTooManyRequests},
		{http.MethodGet, "/reports/r-1", http.StatusNoContent},
	}
	for i, step := range steps {
		if got := hit(r, step.method, step.path).Code; got != step.want {
			t.Fatalf("step %d %s %s: expected %d, got %d", i, step.method, step.path, step.want, got)
		}
	}
}

func TestRateLimitRejectionUsesErrorEnvelope(t *testing.T) {
	now := func() time.Time { return rateTestStart }
	r := newRateLimitedRouter("buyer-1", now, map[string]RateLimitRule{
		"DEFAULT": {Rate: 0.5, Burst: 1},
	})

	if got := hit(r, http.MethodPost, "/classifications").Code; got != http.StatusNoContent {
		t.Fatalf("first request: expected 204, got %d", got)
	}
	resp := hit(r, http.MethodPost, "/classifications")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if got := resp.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}

	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != "rate_limited" {
		t.Fatalf("expected rate_limited, got %q", payload.Error.Code)
	}
	if payload.Error.Details["group"] != "DEFAULT" || payload.Error.Details["retryAfterMs"] != float64(2000) {
		t.Fatalf("unexpected details: %v", payload.Error.Details)
	}
}

func TestRateLimitSkipsGroupsWithoutRule(t *testing.T) {
	now := func() time.Time { return rateTestStart }
	r := newRateLimitedRouter("buyer-1", now, map[string]RateLimitRule{
		"POLLING": {Rate: 1, Burst: 1},
	})
	for i := 0; i < 5; i++ {
		if got := hit(r, http.MethodGet, "/open").Code; got != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, got)
		}
	}
}

func TestRateLimitKeysAnonymousCallersByIP(t *testing.T) {
	now := func() time.Time { return rateTestStart }
	r := newRateLimitedRouter("", now, map[string]RateLimitRule{
		"DEFAULT": {Rate: 1, Burst: 1},
	})

	first := httptest.NewRequest(http.MethodGet, "/open", nil)
	first.RemoteAddr = "10.0.0.1:5000"
	other := httptest.NewRequest(http.MethodGet, "/open", nil)
	other.RemoteAddr = "10.0.0.2:5000"

	for _, req := range []*http.Request{first, other} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusNoContent {
			t.Fatalf("%s: expected 204, got %d", req.RemoteAddr, resp.Code)
		}
	}
	again := httptest.NewRequest(http.MethodGet, "/open", nil)
	again.RemoteAddr = "10.0.0.1:6000"
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, again)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("same IP should share a bucket, got %d", resp.Code)
	}
}

func TestRateLimiterRefillsAndSweeps(t *testing.T) {
	now := rateTestStart
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 0.2, Burst: 1}

	if ok, _ := limiter.Allow("guest:a|REPORTS", rule); !ok {
		t.Fatal("first report request should pass")
	}
	ok, wait := limiter.Allow("guest:a|REPORTS", rule)
	if ok || wait != 5*time.Second {
		t.Fatalf("expected limited with 5s wait, got ok=%v wait=%s", ok, wait)
	}

	now = now.Add(5 * time.Second)
	if ok, _ := limiter.Allow("guest:a|REPORTS", rule); !ok {
		t.Fatal("bucket should refill after 5s")
	}
	if ok, _ := limiter.Allow("guest:b|REPORTS", rule); !ok {
		t.Fatal("other principals keep their own bucket")
	}
	if limiter.Size() != 2 {
		t.Fatalf("expected 2 buckets, got %d", limiter.Size())
	}

	now = now.Add(bucketIdleTTL + time.Second)
	limiter.Sweep()
	if limiter.Size() != 0 {
		t.Fatalf("expected idle buckets swept, got %d", limiter.Size())
	}
}

func TestDisabledRuleAlwaysAllows(t *testing.T) {
	limiter := NewRateLimiter(nil)
	for i := 0; i < 3; i++ {
		if ok, _ := limiter.Allow("k", RateLimitRule{Rate: 0, Burst: 5}); !ok {
			t.Fatal("zero rate should not limit")
		}
	}
	if limiter.Size() != 0 {
		t.Fatalf("disabled rules should not allocate buckets")
	}
}
