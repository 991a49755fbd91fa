package auth

import (
	"context"

	"github.com/dukerupert/kinship/internal/model"
)

type contextKey struct{}

// AuthContext is the identity attached to an authenticated request. FamilyID
// is empty until the account joins a family.
type AuthContext struct {
	AccountID   string
	FamilyID    string
	Role        string
	DisplayName string
}

// FromAccount builds the context for a loaded account.
func FromAccount(a *model.Account) AuthContext {
	ac := AuthContext{
		AccountID:   a.ID,
		Role:        a.Role,
		DisplayName: a.DisplayName,
	}
	if a.FamilyID != nil {
		ac.FamilyID = *a.FamilyID
	}
	return ac
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func FamilyID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.FamilyID
}

func AccountID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.AccountID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleAdmin
}
