package store

import (
	"context"
	"database/sql"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/realtime"
	"github.com/google/uuid"
)

type FamilyStore struct {
	db   *sql.DB
	feed Publisher
}

func NewFamilyStore(db *sql.DB, feed Publisher) *FamilyStore {
	return &FamilyStore{db: db, feed: feed}
}

func scanFamily(s scanner) (*model.Family, error) {
	var f model.Family
	var imageURL sql.NullString
	if err := s.Scan(&f.ID, &f.Name, &f.Description, &imageURL, &f.MemberCount, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.ImageURL = stringPtr(imageURL)
	return &f, nil
}

const familyCols = `id, name, description, image_url, member_count, created_at`

func (s *FamilyStore) Create(ctx context.Context, name, description string) (*model.Family, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO families (id, name, description) VALUES (?, ?, ?)`,
		id, name, description,
	)
	if err != nil {
		return nil, apperr.FromDB("insert family", err)
	}
	publish(s.feed, realtime.Change{Table: realtime.TableFamilies, Action: realtime.ActionInsert, FamilyID: id, RowID: id})
	return s.GetByID(ctx, id)
}

func (s *FamilyStore) GetByID(ctx context.Context, id string) (*model.Family, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("family not found")
	}
	if err != nil {
		return nil, apperr.FromDB("get family", err)
	}
	return f, nil
}

// List returns all families, newest first.
func (s *FamilyStore) List(ctx context.Context) ([]model.Family, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+familyCols+` FROM families ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, apperr.FromDB("list families", err)
	}
	defer rows.Close()

	families := []model.Family{}
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, apperr.FromDB("scan family", err)
		}
		families = append(families, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromDB("list families", err)
	}
	return families, nil
}

// IncrementMembers bumps the stored member count by one. The count is never
// recomputed from membership.
func (s *FamilyStore) IncrementMembers(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE families SET member_count = member_count + 1 WHERE id = ?`, id)
	if err != nil {
		return apperr.FromDB("increment family members", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("family not found")
	}
	publish(s.feed, realtime.Change{Table: realtime.TableFamilies, Action: realtime.ActionUpdate, FamilyID: id, RowID: id})
	return nil
}
