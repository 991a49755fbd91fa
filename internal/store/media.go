package store

import (
	"context"
	"database/sql"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/realtime"
	"github.com/google/uuid"
)

type MediaStore struct {
	db   *sql.DB
	feed Publisher
}

func NewMediaStore(db *sql.DB, feed Publisher) *MediaStore {
	return &MediaStore{db: db, feed: feed}
}

func scanMedia(s scanner) (*model.Media, error) {
	var m model.Media
	var description sql.NullString
	if err := s.Scan(&m.ID, &m.FamilyID, &m.Type, &m.Title, &description, &m.URL, &m.UploadedBy, &m.UploadedAt); err != nil {
		return nil, err
	}
	m.Description = stringPtr(description)
	return &m, nil
}

const mediaCols = `id, family_id, type, title, description, url, uploaded_by, uploaded_at`

func (s *MediaStore) Create(ctx context.Context, familyID, mediaType, title string, description *string, url, uploadedBy string) (*model.Media, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO media (id, family_id, type, title, description, url, uploaded_by) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, familyID, mediaType, title, nullString(description), url, uploadedBy,
	)
	if err != nil {
		return nil, apperr.FromDB("insert media", err)
	}
	publish(s.feed, realtime.Change{Table: realtime.TableMedia, Action: realtime.ActionInsert, FamilyID: familyID, RowID: id})

	row := s.db.QueryRowContext(ctx, `SELECT `+mediaCols+` FROM media WHERE id = ?`, id)
	m, err := scanMedia(row)
	if err != nil {
		return nil, apperr.FromDB("get media", err)
	}
	return m, nil
}

// ListByFamily returns the family's media, newest first.
func (s *MediaStore) ListByFamily(ctx context.Context, familyID string) ([]model.Media, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mediaCols+` FROM media WHERE family_id = ? ORDER BY uploaded_at DESC, rowid DESC`,
		familyID,
	)
	if err != nil {
		return nil, apperr.FromDB("list media", err)
	}
	defer rows.Close()

	items := []model.Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, apperr.FromDB("scan media", err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromDB("list media", err)
	}
	return items, nil
}
