package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"hostel/internal/account"
	"hostel/pkg/config"
	"hostel/pkg/supabase"
)

type fakeRoles map[string]account.Role

func (f fakeRoles) RoleOf(_ context.Context, userID string) (account.Role, error) {
	r, ok := f[userID]
	if !ok {
		return "", account.ErrNoRole
	}
	return r, nil
}

func echoActor(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := ActorFromContext(r.Context())
		if !ok {
			t.Fatalf("expected actor in context")
		}
		w.Header().Set("X-Actor", a.String())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionAuth_BearerToken(t *testing.T) {
	cfg := config.Config{AppEnv: "prod", Supabase: config.SupabaseConfig{JWTSecret: "secret", Audience: "authenticated"}}
	roles := fakeRoles{"u-1": account.RoleWorker}

	tok, err := supabase.MintAccessToken("u-1", "w@example.com", "authenticated", "secret", time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	SessionAuth(cfg, roles)(echoActor(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Actor"); got != "worker:u-1" {
		t.Fatalf("unexpected actor %q", got)
	}
}

const devUser = "6f1c2a34-8b9d-4e0f-a1b2-c3d4e5f60718"

func TestSessionAuth_DevHeaderOnlyOutsideProd(t *testing.T) {
	roles := fakeRoles{devUser: account.RoleCustomer}

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("X-User-Id", devUser)

	rec := httptest.NewRecorder()
	SessionAuth(config.Config{AppEnv: "dev"}, roles)(echoActor(t)).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("dev: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	SessionAuth(config.Config{AppEnv: "prod"}, roles)(echoActor(t)).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("prod: expected 401, got %d", rec.Code)
	}
}

func TestSessionAuth_UnknownRoleIsForbidden(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("X-User-Id", devUser)
	rec := httptest.NewRecorder()
	SessionAuth(config.Config{AppEnv: "dev"}, fakeRoles{})(echoActor(t)).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

type brokenRoles struct{}

func (brokenRoles) RoleOf(context.Context, string) (account.Role, error) {
	return "", errors.New("connection refused")
}

func TestSessionAuth_LookupFailureIsInternal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("X-User-Id", devUser)
	rec := httptest.NewRecorder()
	SessionAuth(config.Config{AppEnv: "dev"}, brokenRoles{})(echoActor(t)).ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestSessionAuth_DevHeaderMustBeUUID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("X-User-Id", "ghost")
	rec := httptest.NewRecorder()
	SessionAuth(config.Config{AppEnv: "dev"}, fakeRoles{"ghost": account.RoleManager})(echoActor(t)).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestValidID(t *testing.T) {
	r := chi.NewRouter()
	r.With(ValidID("id")).Get("/v1/bills/{id}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	for path, want := range map[string]int{
		"/v1/bills/" + devUser: http.StatusOK,
		"/v1/bills/abc":        http.StatusNotFound,
		"/v1/bills/1":          http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireRole(account.RoleManager)(ok)

	cases := []struct {
		name  string
		actor *account.Actor
		want  int
	}{
		{"no actor", nil, http.StatusUnauthorized},
		{"customer", &account.Actor{UserID: "c", Role: account.RoleCustomer}, http.StatusForbidden},
		{"manager", &account.Actor{UserID: "m", Role: account.RoleManager}, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/overview", nil)
		if tc.actor != nil {
			req = req.WithContext(WithActor(req.Context(), *tc.actor))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	h := CORSMiddleware(CORSOptions{AllowedOrigins: []string{"http://localhost:5173"}})(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodOptions, "/v1/requests", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("origin not echoed")
	}
	if rec.Header().Get("Access-Control-Max-Age") != "600" {
		t.Fatalf("unexpected max age %q", rec.Header().Get("Access-Control-Max-Age"))
	}
}
