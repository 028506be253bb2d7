package integration_test

import (
	"net/http"
	"testing"
)

func TestAuthIntegration_Register_Login_Refresh_Logout(t *testing.T) {
	env := setupTestEnv(t)

	w, _ := env.do(http.MethodPost, "/api/auth/register",
		`{"username":"builder","email":"Builder@Example.com","password":"password123","company_name":"Builder SARL"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register got %d body=%s", w.Code, w.Body.String())
	}

	// the same address in another case is still taken
	w, _ = env.do(http.MethodPost, "/api/auth/register",
		`{"username":"builder2","email":"builder@example.com","password":"password123","company_name":"Other"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register got %d body=%s", w.Code, w.Body.String())
	}

	access, first := env.login(t, "builder@example.com", "password123")

	w, _ = env.do(http.MethodGet, "/api/auth/me", "", access)
	if w.Code != http.StatusOK {
		t.Fatalf("me got %d body=%s", w.Code, w.Body.String())
	}
	var me struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
		Candidate *struct {
			CompanyName string `json:"company_name"`
		} `json:"candidate"`
	}
	mustReadJSON(t, w, &me)
	if me.User.Role != "candidate" || me.Candidate == nil || me.Candidate.CompanyName != "Builder SARL" {
		t.Fatalf("unexpected me: %+v", me)
	}

	// rotation
	w, resp := env.do(http.MethodPost, "/api/auth/refresh", "", "", first)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh got %d body=%s", w.Code, w.Body.String())
	}
	rotated := refreshCookie(t, resp)

	// replaying the old token fails and ends every session of the user
	w, _ = env.do(http.MethodPost, "/api/auth/refresh", "", "", first)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh(old cookie) got %d body=%s", w.Code, w.Body.String())
	}
	w, _ = env.do(http.MethodPost, "/api/auth/refresh", "", "", rotated)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh(rotated after replay) got %d body=%s", w.Code, w.Body.String())
	}

	_, second := env.login(t, "builder@example.com", "password123")

	w, resp = env.do(http.MethodPost, "/api/auth/logout", "", "", second)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout got %d body=%s", w.Code, w.Body.String())
	}
	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" && (c.MaxAge < 0 || c.Value == "") {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected logout to clear refresh_token cookie")
	}

	w, _ = env.do(http.MethodPost, "/api/auth/refresh", "", "", second)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh(after logout) got %d body=%s", w.Code, w.Body.String())
	}
}

func TestAuthIntegration_Login_InvalidCredentials(t *testing.T) {
	env := setupTestEnv(t)

	w, _ := env.do(http.MethodPost, "/api/auth/login", `{"email":"nope@example.com","password":"wrong"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login(invalid creds) got %d body=%s", w.Code, w.Body.String())
	}
}
