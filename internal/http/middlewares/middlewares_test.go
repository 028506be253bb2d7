package middlewares_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/tenderhub/internal/auth"
	"github.com/geocoder89/tenderhub/internal/domain/user"
	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims map[string]*auth.Claims
}

func (f fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	if c, ok := f.claims[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func newAuth() *middlewares.AuthMiddleware {
	return middlewares.NewAuthMiddleware(fakeVerifier{claims: map[string]*auth.Claims{
		"admin-token":     {UserID: "u-admin", Email: "admin@court.dz", Role: user.RoleAdmin},
		"candidate-token": {UserID: "u-cand", Email: "test@company.dz", Role: user.RoleCandidate},
	}})
}

type errorEnvelope struct {
	Message string `json:"message"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body: %v body=%s", err, w.Body.String())
	}
	return env
}

func TestRequireAuthAndRole(t *testing.T) {
	m := newAuth()

	r := gin.New()
	r.Use(middlewares.Locale("en"))
	r.GET("/admin", m.RequireAuth(), m.RequireRole(user.RoleAdmin), func(c *gin.Context) {
		id, _ := middlewares.UserIDFromContext(c)
		c.String(http.StatusOK, id)
	})
	r.GET("/ws", m.RequireAuthOrQuery(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name     string
		path     string
		header   string
		wantCode int
		wantErr  string
	}{
		{name: "missing header", path: "/admin", wantCode: http.StatusUnauthorized, wantErr: "unauthorized"},
		{name: "invalid token", path: "/admin", header: "Bearer nope", wantCode: http.StatusUnauthorized, wantErr: "invalid_token"},
		{name: "candidate forbidden", path: "/admin", header: "Bearer candidate-token", wantCode: http.StatusForbidden, wantErr: "admin_required"},
		{name: "admin allowed", path: "/admin", header: "Bearer admin-token", wantCode: http.StatusOK},
		{name: "query token ignored on header-only route", path: "/admin?token=admin-token", wantCode: http.StatusUnauthorized, wantErr: "unauthorized"},
		{name: "query token accepted for ws", path: "/ws?token=admin-token", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantErr == "" {
				return
			}

			env := decodeError(t, w)
			if env.Error.Code != tt.wantErr {
				t.Fatalf("code = %q, want %q", env.Error.Code, tt.wantErr)
			}
			if env.Message == "" || env.Message == tt.wantErr {
				t.Fatalf("expected a translated message, got %q", env.Message)
			}
		})
	}
}

func TestLocale_NegotiatesLanguage(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.Locale("ar"))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, middlewares.LangFromContext(c))
	})

	tests := []struct {
		name   string
		path   string
		accept string
		want   string
	}{
		{name: "default", path: "/", want: "ar"},
		{name: "accept-language", path: "/", accept: "fr-FR,fr;q=0.9", want: "fr"},
		{name: "query wins", path: "/?lang=en", accept: "fr", want: "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Body.String() != tt.want {
				t.Fatalf("lang = %q, want %q", w.Body.String(), tt.want)
			}
			if w.Header().Get("Content-Language") != tt.want {
				t.Fatalf("Content-Language = %q", w.Header().Get("Content-Language"))
			}
		})
	}
}

func TestRequireJSON(t *testing.T) {
	r := gin.New()
	r.POST("/json", middlewares.RequireJSON(false), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/upload", middlewares.RequireJSON(true), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name string
		path string
		ct   string
		body string
		want int
	}{
		{name: "json ok", path: "/json", ct: "application/json; charset=utf-8", body: `{}`, want: http.StatusNoContent},
		{name: "empty body ok", path: "/json", want: http.StatusNoContent},
		{name: "text rejected", path: "/json", ct: "text/plain", body: "hi", want: http.StatusUnsupportedMediaType},
		{name: "multipart rejected on json route", path: "/json", ct: "multipart/form-data; boundary=x", body: "--x--", want: http.StatusUnsupportedMediaType},
		{name: "multipart allowed on upload route", path: "/upload", ct: "multipart/form-data; boundary=x", body: "--x--", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			if tt.ct != "" {
				req.Header.Set("Content-Type", tt.ct)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMaxBodyBytes_RejectsDeclaredOversize(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.MaxBodyBytes(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"too long"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	if decodeError(t, w).Error.Code != "payload_too_large" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.CORSMiddleware([]string{"http://localhost:5173"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("missing allow-origin")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected allow-origin for unknown origin")
	}
}

func TestRateLimit_MemoryStore(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	l, err := middlewares.NewRateLimiter(2, time.Minute, nil, log)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}

	r := gin.New()
	r.POST("/login", middlewares.RateLimit(l, middlewares.KeyByIP, log), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		r.ServeHTTP(last, req)

		if i < 2 && last.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, last.Code)
		}
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	if decodeError(t, last).Error.Code != "rate_limited" {
		t.Fatalf("unexpected body %s", last.Body.String())
	}
}

func TestRequestID_EchoesHeader(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, middlewares.RequestIDFromContext(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "req-42" || w.Header().Get("X-Request-Id") != "req-42" {
		t.Fatalf("request id not echoed: body=%q header=%q", w.Body.String(), w.Header().Get("X-Request-Id"))
	}
}
