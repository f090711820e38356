package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lumen-optics/internal/config"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(`{"email":" Test@Example.com "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("email")(c)
	if key != "test@example.com|1.2.3.4" {
		t.Fatalf("key want test@example.com|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Test@Example.com") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestKeyByUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/ar/try-on", nil)
	c.Request.RemoteAddr = "5.6.7.8:1234"
	if key := KeyByUserID(c); key != "5.6.7.8" {
		t.Fatalf("anonymous key want ip got %s", key)
	}
	c.Set("user_id", uint(42))
	if key := KeyByUserID(c); key != "user:42" {
		t.Fatalf("key want user:42 got %s", key)
	}
}

func TestRuleFromConfig(t *testing.T) {
	rule := RuleFromConfig("lumen:rate:login", config.RateLimitConfig{WindowSeconds: 300, MaxAttempts: 5})
	if rule.Prefix != "lumen:rate:login" || rule.WindowSeconds != 300 || rule.MaxRequests != 5 {
		t.Fatalf("unexpected rule: %+v", rule)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := []struct {
		ttl    time.Duration
		window int
		want   int
	}{
		{ttl: 42 * time.Second, window: 60, want: 42},
		{ttl: -1 * time.Second, window: 60, want: 60},
		{ttl: 0, window: 0, want: 1},
	}
	for _, tc := range cases {
		if got := retryAfterSeconds(tc.ttl, tc.window); got != tc.want {
			t.Fatalf("retryAfterSeconds(%v, %d) want %d got %d", tc.ttl, tc.window, tc.want, got)
		}
	}
}

func TestKeyByIPAndJSONFieldIgnoresNonString(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":42}`))
	c.Request.RemoteAddr = "9.9.9.9:80"
	if key := KeyByIPAndJSONField("email")(c); key != "9.9.9.9" {
		t.Fatalf("key want ip fallback got %s", key)
	}
}
