package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// MaxAdminsPerFamily caps how many accounts in one family may hold the admin role.
const MaxAdminsPerFamily = 2

type Account struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	FamilyID    *string   `json:"family_id"`
	Role        string    `json:"role"`
	QuizScore   int       `json:"quiz_score"`
	QuizStreak  int       `json:"quiz_streak"`
	CreatedAt   time.Time `json:"created_at"`
}

// InFamily reports whether the account currently belongs to familyID.
func (a *Account) InFamily(familyID string) bool {
	return a.FamilyID != nil && *a.FamilyID == familyID
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
