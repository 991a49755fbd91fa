// Package family manages profiles and family membership.
package family

import (
	"context"
	"log/slog"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/store"
)

type Service struct {
	accounts *store.AccountStore
	families *store.FamilyStore
	logger   *slog.Logger
}

func NewService(accounts *store.AccountStore, families *store.FamilyStore, logger *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		families: families,
		logger:   logger.With("component", "family"),
	}
}

// CreateProfile inserts the account row for a newly registered identity.
// role defaults to member.
func (s *Service) CreateProfile(ctx context.Context, accountID, email, displayName string, familyID *string, role string) (*model.Account, error) {
	if role == "" {
		role = model.RoleMember
	}
	return s.accounts.Create(ctx, accountID, email, displayName, familyID, role)
}

// JoinFamily moves the account into familyID as a member and bumps the
// family's member count. Joining the current family again changes nothing.
// The count increment is best effort: a failure is logged and the join still
// succeeds.
func (s *Service) JoinFamily(ctx context.Context, accountID, familyID string) error {
	if _, err := s.families.GetByID(ctx, familyID); err != nil {
		return err
	}
	moved, err := s.accounts.SetFamily(ctx, accountID, familyID)
	if err != nil || !moved {
		return err
	}
	if err := s.families.IncrementMembers(ctx, familyID); err != nil {
		s.logger.Warn("increment member count", "family_id", familyID, "account_id", accountID, "error", err)
	}
	return nil
}

// PromoteToAdmin grants the admin role to accountID. It fails with a policy
// error once the family already has MaxAdminsPerFamily admins, whatever the
// target's current role. The admin count is read before the write, so two
// concurrent promotions can both pass the check.
func (s *Service) PromoteToAdmin(ctx context.Context, accountID, familyID string) (*model.Account, error) {
	members, err := s.accounts.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}

	admins := 0
	for _, m := range members {
		if m.IsAdmin() {
			admins++
		}
	}
	if admins >= model.MaxAdminsPerFamily {
		return nil, apperr.Policy("max admins reached")
	}

	return s.accounts.SetRole(ctx, accountID, model.RoleAdmin)
}

// CreateFamily creates a family, joins creatorID to it and makes them its
// first admin.
func (s *Service) CreateFamily(ctx context.Context, creatorID, name, description string) (*model.Family, error) {
	f, err := s.families.Create(ctx, name, description)
	if err != nil {
		return nil, err
	}
	if err := s.JoinFamily(ctx, creatorID, f.ID); err != nil {
		return nil, err
	}
	if _, err := s.PromoteToAdmin(ctx, creatorID, f.ID); err != nil {
		return nil, err
	}
	s.logger.Info("family created", "family_id", f.ID, "creator_id", creatorID)
	return s.families.GetByID(ctx, f.ID)
}

func (s *Service) ListFamilies(ctx context.Context) ([]model.Family, error) {
	return s.families.List(ctx)
}

func (s *Service) GetFamily(ctx context.Context, id string) (*model.Family, error) {
	return s.families.GetByID(ctx, id)
}

func (s *Service) Members(ctx context.Context, familyID string) ([]model.Account, error) {
	return s.accounts.ListByFamily(ctx, familyID)
}
