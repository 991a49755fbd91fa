package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/auth"
	"github.com/dukerupert/kinship/internal/model"
)

type fakeAccounts map[string]*model.Account

func (f fakeAccounts) GetByID(_ context.Context, id string) (*model.Account, error) {
	a, ok := f[id]
	if !ok {
		return nil, apperr.NotFound("account not found")
	}
	return a, nil
}

func setupAuth(t *testing.T) (*auth.Tokens, fakeAccounts) {
	t.Helper()
	fam := "fam-1"
	accounts := fakeAccounts{
		"acc-1": {ID: "acc-1", Email: "ruth@example.com", DisplayName: "Ruth", FamilyID: &fam, Role: model.RoleAdmin},
		"acc-2": {ID: "acc-2", Email: "eli@example.com", DisplayName: "Eli", Role: model.RoleMember},
	}
	return auth.NewTokens("test-secret", time.Hour), accounts
}

func unreachable(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	})
}

func TestRequireAuthNoToken(t *testing.T) {
	tokens, accounts := setupAuth(t)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	RequireAuth(tokens, accounts)(unreachable(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] == "" {
		t.Error("expected JSON error body")
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	tokens, accounts := setupAuth(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	RequireAuth(tokens, accounts)(unreachable(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthUnknownAccount(t *testing.T) {
	tokens, accounts := setupAuth(t)
	token, _ := tokens.Issue("deleted")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	RequireAuth(tokens, accounts)(unreachable(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthBearer(t *testing.T) {
	tokens, accounts := setupAuth(t)
	token, err := tokens.Issue("acc-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var got auth.AuthContext
	handler := RequireAuth(tokens, accounts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		got = ac
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.AccountID != "acc-1" || got.FamilyID != "fam-1" || got.Role != model.RoleAdmin {
		t.Errorf("auth context = %+v", got)
	}
}

func TestRequireAuthCookie(t *testing.T) {
	tokens, accounts := setupAuth(t)
	token, _ := tokens.Issue("acc-2")

	var got string
	handler := RequireAuth(tokens, accounts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.AccountID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got != "acc-2" {
		t.Errorf("account = %q, want acc-2", got)
	}
}

func TestRequireFamily(t *testing.T) {
	ctx := auth.WithAuth(context.Background(), auth.AuthContext{AccountID: "acc-2"})
	req := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	RequireFamily(unreachable(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequireAdminAllowed(t *testing.T) {
	ctx := auth.WithAuth(context.Background(), auth.AuthContext{Role: model.RoleAdmin})
	req := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireAdminForbidden(t *testing.T) {
	ctx := auth.WithAuth(context.Background(), auth.AuthContext{Role: model.RoleMember})
	req := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	RequireAdmin(unreachable(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
