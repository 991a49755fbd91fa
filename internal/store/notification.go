package store

import (
	"context"
	"database/sql"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/realtime"
	"github.com/google/uuid"
)

type NotificationStore struct {
	db   *sql.DB
	feed Publisher
}

func NewNotificationStore(db *sql.DB, feed Publisher) *NotificationStore {
	return &NotificationStore{db: db, feed: feed}
}

func scanNotification(s scanner) (*model.Notification, error) {
	var n model.Notification
	var accountID sql.NullString
	var isRead int
	if err := s.Scan(&n.ID, &n.FamilyID, &accountID, &n.Title, &n.Message, &n.Type, &isRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.AccountID = stringPtr(accountID)
	n.IsRead = isRead != 0
	return &n, nil
}

const notificationCols = `id, family_id, account_id, title, message, type, is_read, created_at`

// Create stores a notification. A nil accountID broadcasts it to the family.
func (s *NotificationStore) Create(ctx context.Context, familyID string, accountID *string, title, message, notifType string) (*model.Notification, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, family_id, account_id, title, message, type) VALUES (?, ?, ?, ?, ?, ?)`,
		id, familyID, nullString(accountID), title, message, notifType,
	)
	if err != nil {
		return nil, apperr.FromDB("insert notification", err)
	}
	publish(s.feed, realtime.Change{Table: realtime.TableNotifications, Action: realtime.ActionInsert, FamilyID: familyID, RowID: id})
	return s.GetByID(ctx, id)
}

func (s *NotificationStore) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("notification not found")
	}
	if err != nil {
		return nil, apperr.FromDB("get notification", err)
	}
	return n, nil
}

// ListForAccount returns the newest notifications visible to accountID in
// familyID: those addressed to the account and family-wide broadcasts.
func (s *NotificationStore) ListForAccount(ctx context.Context, familyID, accountID string, limit int) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationCols+` FROM notifications
		 WHERE family_id = ? AND (account_id IS NULL OR account_id = ?)
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		familyID, accountID, limit,
	)
	if err != nil {
		return nil, apperr.FromDB("list notifications", err)
	}
	defer rows.Close()

	items := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, apperr.FromDB("scan notification", err)
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromDB("list notifications", err)
	}
	return items, nil
}

// MarkRead flags a notification as read. Broadcasts are shared, so marking
// one read marks it for the whole family.
func (s *NotificationStore) MarkRead(ctx context.Context, id, familyID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = ? WHERE id = ? AND family_id = ?`,
		boolInt(true), id, familyID,
	)
	if err != nil {
		return apperr.FromDB("mark notification read", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("notification not found")
	}
	publish(s.feed, realtime.Change{Table: realtime.TableNotifications, Action: realtime.ActionUpdate, FamilyID: familyID, RowID: id})
	return nil
}
