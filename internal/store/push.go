package store

import (
	"context"
	"database/sql"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/google/uuid"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const pushCols = `id, account_id, family_id, endpoint, p256dh_key, auth_key, device_name, created_at`

func scanPushSubscription(s scanner) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.Scan(&sub.ID, &sub.AccountID, &sub.FamilyID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Upsert registers a browser endpoint. Re-registering an endpoint refreshes
// its keys and moves it to the given account.
func (s *PushStore) Upsert(ctx context.Context, accountID, familyID, endpoint, p256dh, auth, deviceName string) (*model.PushSubscription, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (id, account_id, family_id, endpoint, p256dh_key, auth_key, device_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET
		   account_id = excluded.account_id,
		   family_id = excluded.family_id,
		   p256dh_key = excluded.p256dh_key,
		   auth_key = excluded.auth_key,
		   device_name = excluded.device_name`,
		uuid.NewString(), accountID, familyID, endpoint, p256dh, auth, deviceName,
	)
	if err != nil {
		return nil, apperr.FromDB("upsert push subscription", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	sub, err := scanPushSubscription(row)
	if err != nil {
		return nil, apperr.FromDB("get push subscription", err)
	}
	return sub, nil
}

func (s *PushStore) ListByFamily(ctx context.Context, familyID string) ([]model.PushSubscription, error) {
	return s.list(ctx, `SELECT `+pushCols+` FROM push_subscriptions WHERE family_id = ? ORDER BY created_at DESC`, familyID)
}

func (s *PushStore) ListByAccount(ctx context.Context, accountID string) ([]model.PushSubscription, error) {
	return s.list(ctx, `SELECT `+pushCols+` FROM push_subscriptions WHERE account_id = ? ORDER BY created_at DESC`, accountID)
}

func (s *PushStore) list(ctx context.Context, query string, args ...any) ([]model.PushSubscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.FromDB("list push subscriptions", err)
	}
	defer rows.Close()

	subs := []model.PushSubscription{}
	for rows.Next() {
		sub, err := scanPushSubscription(rows)
		if err != nil {
			return nil, apperr.FromDB("scan push subscription", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromDB("list push subscriptions", err)
	}
	return subs, nil
}

// DeleteForAccount removes one of the account's subscriptions.
func (s *PushStore) DeleteForAccount(ctx context.Context, id, accountID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		return apperr.FromDB("delete push subscription", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("push subscription not found")
	}
	return nil
}

func (s *PushStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint); err != nil {
		return apperr.FromDB("delete push subscription by endpoint", err)
	}
	return nil
}
