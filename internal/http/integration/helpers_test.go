package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/tenderhub/internal/auth"
	"github.com/geocoder89/tenderhub/internal/cache"
	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/db"
	apphttp "github.com/geocoder89/tenderhub/internal/http"
	"github.com/geocoder89/tenderhub/internal/repo/postgres"
	"github.com/geocoder89/tenderhub/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type testEnv struct {
	router *gin.Engine
	pool   *pgxpool.Pool
	cfg    config.Config
	log    *slog.Logger
}

// setupTestEnv needs a disposable database in TEST_DB_DSN; every table is truncated.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("pg pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	resetDB(t, pool)

	cfg := config.Config{
		Env:                 "test",
		DBURL:               dsn,
		JWTSecret:           "test-secret",
		JWTAccessTTLMinutes: 60,
		JWTRefreshTTLDays:   7,
		AdminEmail:          "admin@example.com",
		AdminPassword:       "admin-pass",
		AdminUsername:       "admin",
		UploadDir:           t.TempDir(),
		MaxUploadMB:         5,
		DefaultLanguage:     "en",
	}

	if _, err := db.EnsureAdminUser(ctx, pool, cfg); err != nil {
		t.Fatalf("admin: %v", err)
	}

	files, err := storage.NewDocumentStore(cfg.UploadDir, cfg.MaxUploadBytes())
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	jobsRepo := postgres.NewJobsRepo(pool, nil)

	router := apphttp.NewRouter(apphttp.Deps{
		Cfg:           cfg,
		Log:           log,
		JWT:           auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL()),
		Users:         postgres.NewUsersRepo(pool, nil),
		RefreshTokens: postgres.NewRefreshTokensRepo(pool, nil),
		Projects:      postgres.NewProjectsRepo(pool, nil),
		Bids:          postgres.NewBidsRepo(pool, nil, jobsRepo),
		Documents:     postgres.NewDocumentsRepo(pool, nil),
		Dashboard:     postgres.NewDashboardRepo(pool, nil),
		Jobs:          jobsRepo,
		Files:         files,
		Cache:         cache.New(time.Minute),
	})

	return &testEnv{router: router, pool: pool, cfg: cfg, log: log}
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE notification_deliveries, jobs, documents, bids, projects, refresh_tokens, candidates, users
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func (e *testEnv) do(method, path, body, token string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, *http.Response) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w, w.Result()
}

// login returns the access token and the refresh cookie.
func (e *testEnv) login(t *testing.T, email, password string) (string, *http.Cookie) {
	t.Helper()

	w, resp := e.do(http.MethodPost, "/api/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login %s got %d body=%s", email, w.Code, w.Body.String())
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	mustReadJSON(t, w, &out)

	return out.AccessToken, refreshCookie(t, resp)
}

func refreshCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	t.Fatalf("refresh_token cookie not found in response")
	return nil
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}
