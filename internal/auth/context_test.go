package auth

import (
	"context"
	"testing"

	"github.com/dukerupert/kinship/internal/model"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		AccountID:   "acct-1",
		FamilyID:    "fam-1",
		Role:        "admin",
		DisplayName: "Ruth",
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestFamilyID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{FamilyID: "fam-42"})
	if FamilyID(ctx) != "fam-42" {
		t.Errorf("FamilyID = %q, want fam-42", FamilyID(ctx))
	}
	if FamilyID(context.Background()) != "" {
		t.Error("expected empty family for missing context")
	}
}

func TestAccountID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{AccountID: "acct-7"})
	if AccountID(ctx) != "acct-7" {
		t.Errorf("AccountID = %q, want acct-7", AccountID(ctx))
	}
	if AccountID(context.Background()) != "" {
		t.Error("expected empty account for missing context")
	}
}

func TestIsAdmin(t *testing.T) {
	if !IsAdmin(WithAuth(context.Background(), AuthContext{Role: "admin"})) {
		t.Error("expected IsAdmin = true for admin role")
	}
	if IsAdmin(WithAuth(context.Background(), AuthContext{Role: "member"})) {
		t.Error("expected IsAdmin = false for member role")
	}
	if IsAdmin(context.Background()) {
		t.Error("expected IsAdmin = false for missing context")
	}
}

func TestFromAccount(t *testing.T) {
	fam := "fam-1"
	ac := FromAccount(&model.Account{ID: "acct-1", DisplayName: "Eli", Role: model.RoleMember, FamilyID: &fam})
	if ac.AccountID != "acct-1" || ac.FamilyID != "fam-1" || ac.DisplayName != "Eli" {
		t.Errorf("got %+v", ac)
	}

	ac = FromAccount(&model.Account{ID: "acct-2"})
	if ac.FamilyID != "" {
		t.Errorf("family = %q, want empty", ac.FamilyID)
	}
}
