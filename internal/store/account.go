package store

import (
	"context"
	"database/sql"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/realtime"
)

type AccountStore struct {
	db   *sql.DB
	feed Publisher
}

func NewAccountStore(db *sql.DB, feed Publisher) *AccountStore {
	return &AccountStore{db: db, feed: feed}
}

func scanAccount(s scanner) (*model.Account, error) {
	var a model.Account
	var familyID sql.NullString
	err := s.Scan(&a.ID, &a.Email, &a.DisplayName, &familyID, &a.Role, &a.QuizScore, &a.QuizStreak, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.FamilyID = stringPtr(familyID)
	return &a, nil
}

const accountCols = `id, email, display_name, family_id, role, quiz_score, quiz_streak, created_at`

func (s *AccountStore) changed(action, id string, familyID *string) {
	c := realtime.Change{Table: realtime.TableAccounts, Action: action, RowID: id}
	if familyID != nil {
		c.FamilyID = *familyID
	}
	publish(s.feed, c)
}

// Create inserts a profile. A duplicate id or email is a conflict.
func (s *AccountStore) Create(ctx context.Context, id, email, displayName string, familyID *string, role string) (*model.Account, error) {
	if role == "" {
		role = model.RoleMember
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, display_name, family_id, role) VALUES (?, ?, ?, ?, ?)`,
		id, email, displayName, nullString(familyID), role,
	)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("account already exists", err)
		}
		return nil, apperr.FromDB("insert account", err)
	}
	s.changed(realtime.ActionInsert, id, familyID)
	return s.GetByID(ctx, id)
}

func (s *AccountStore) GetByID(ctx context.Context, id string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, apperr.FromDB("get account", err)
	}
	return a, nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE email = ?`, email)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, apperr.FromDB("get account by email", err)
	}
	return a, nil
}

// ListByFamily returns every account in the family in join order.
func (s *AccountStore) ListByFamily(ctx context.Context, familyID string) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE family_id = ? ORDER BY created_at ASC, rowid ASC`,
		familyID,
	)
	if err != nil {
		return nil, apperr.FromDB("list accounts", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, apperr.FromDB("scan account", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromDB("list accounts", err)
	}
	return accounts, nil
}

// SetFamily moves the account into familyID and reports whether it moved.
// Moving resets the role to member; admin rights never follow an account into
// another family. Subscribers of both the old and the new family are told
// about the change.
func (s *AccountStore) SetFamily(ctx context.Context, id, familyID string) (bool, error) {
	var previous sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT family_id FROM accounts WHERE id = ?`, id).Scan(&previous)
	if err == sql.ErrNoRows {
		return false, apperr.NotFound("account not found")
	}
	if err != nil {
		return false, apperr.FromDB("get account family", err)
	}
	if previous.Valid && previous.String == familyID {
		return false, nil
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE accounts SET family_id = ?, role = ? WHERE id = ?`,
		familyID, model.RoleMember, id); err != nil {
		return false, apperr.FromDB("update account family", err)
	}

	if previous.Valid {
		s.changed(realtime.ActionUpdate, id, &previous.String)
	}
	s.changed(realtime.ActionUpdate, id, &familyID)
	return true, nil
}

func (s *AccountStore) SetRole(ctx context.Context, id, role string) (*model.Account, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return nil, apperr.FromDB("update account role", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("account not found")
	}
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.changed(realtime.ActionUpdate, id, a.FamilyID)
	return a, nil
}

// SetQuizStats overwrites the account's score and streak.
func (s *AccountStore) SetQuizStats(ctx context.Context, id string, score, streak int) error {
	return s.updateQuiz(ctx, id, `UPDATE accounts SET quiz_score = ?, quiz_streak = ? WHERE id = ?`, score, streak, id)
}

// ResetStreak sets the account's streak to zero, leaving the score untouched.
func (s *AccountStore) ResetStreak(ctx context.Context, id string) error {
	return s.updateQuiz(ctx, id, `UPDATE accounts SET quiz_streak = 0 WHERE id = ?`, id)
}

func (s *AccountStore) updateQuiz(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.FromDB("update quiz stats", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("account not found")
	}
	var familyID sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT family_id FROM accounts WHERE id = ?`, id).Scan(&familyID); err != nil {
		return apperr.FromDB("get account family", err)
	}
	s.changed(realtime.ActionUpdate, id, stringPtr(familyID))
	return nil
}

// Leaderboard returns the family's top accounts by quiz score. Ties are broken
// by streak, then display name, then id.
func (s *AccountStore) Leaderboard(ctx context.Context, familyID string, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name, quiz_score, quiz_streak FROM accounts
		 WHERE family_id = ?
		 ORDER BY quiz_score DESC, quiz_streak DESC, display_name ASC, id ASC
		 LIMIT ?`,
		familyID, limit,
	)
	if err != nil {
		return nil, apperr.FromDB("leaderboard", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.AccountID, &e.DisplayName, &e.QuizScore, &e.QuizStreak); err != nil {
			return nil, apperr.FromDB("scan leaderboard entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromDB("leaderboard", err)
	}
	return entries, nil
}

func (s *AccountStore) SetPasswordHash(ctx context.Context, id, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return apperr.FromDB("set password hash", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}

// GetPasswordHash returns the account id and bcrypt hash for email. The hash
// is empty when the account has no password set.
func (s *AccountStore) GetPasswordHash(ctx context.Context, email string) (string, string, error) {
	var id string
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT id, password_hash FROM accounts WHERE email = ?`, email).Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return "", "", apperr.NotFound("account not found")
	}
	if err != nil {
		return "", "", apperr.FromDB("get password hash", err)
	}
	return id, hash.String, nil
}
