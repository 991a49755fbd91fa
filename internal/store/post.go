package store

import (
	"context"
	"database/sql"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/realtime"
	"github.com/google/uuid"
)

// PostStore owns posts together with their likes and comments.
type PostStore struct {
	db   *sql.DB
	feed Publisher
}

func NewPostStore(db *sql.DB, feed Publisher) *PostStore {
	return &PostStore{db: db, feed: feed}
}

func scanPost(s scanner) (*model.Post, error) {
	var p model.Post
	if err := s.Scan(&p.ID, &p.FamilyID, &p.AuthorID, &p.AuthorName, &p.Content, &p.Type, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Likes = []string{}
	p.Comments = []model.Comment{}
	return &p, nil
}

func scanComment(s scanner) (*model.Comment, error) {
	var c model.Comment
	if err := s.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const postCols = `id, family_id, author_id, author_name, content, type, created_at`
const commentCols = `id, post_id, author_id, author_name, content, created_at`

func (s *PostStore) Create(ctx context.Context, familyID, authorID, authorName, content, postType string) (*model.Post, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, family_id, author_id, author_name, content, type) VALUES (?, ?, ?, ?, ?, ?)`,
		id, familyID, authorID, authorName, content, postType,
	)
	if err != nil {
		return nil, apperr.FromDB("insert post", err)
	}
	publish(s.feed, realtime.Change{Table: realtime.TablePosts, Action: realtime.ActionInsert, FamilyID: familyID, RowID: id})
	return s.GetByID(ctx, id)
}

// GetByID returns a single post hydrated with likes and comments.
func (s *PostStore) GetByID(ctx context.Context, id string) (*model.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postCols+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("post not found")
	}
	if err != nil {
		return nil, apperr.FromDB("get post", err)
	}
	posts := []*model.Post{p}
	if err := s.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByFamily returns the family's newest posts, at most limit, each with
// its full like set and comments in the order they were written.
func (s *PostStore) ListByFamily(ctx context.Context, familyID string, limit int) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postCols+` FROM posts WHERE family_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		familyID, limit,
	)
	if err != nil {
		return nil, apperr.FromDB("list posts", err)
	}

	var posts []*model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, apperr.FromDB("scan post", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, apperr.FromDB("list posts", err)
	}
	rows.Close()

	if err := s.hydrate(ctx, posts); err != nil {
		return nil, err
	}

	out := make([]model.Post, len(posts))
	for i, p := range posts {
		out[i] = *p
	}
	return out, nil
}

// hydrate loads likes and comments for posts with one query each.
func (s *PostStore) hydrate(ctx context.Context, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	byID := make(map[string]*model.Post, len(posts))
	args := make([]any, len(posts))
	for i, p := range posts {
		byID[p.ID] = p
		args[i] = p.ID
	}
	in := placeholders(len(posts))

	likeRows, err := s.db.QueryContext(ctx,
		`SELECT post_id, account_id FROM post_likes WHERE post_id IN (`+in+`) ORDER BY created_at ASC, rowid ASC`,
		args...,
	)
	if err != nil {
		return apperr.FromDB("list likes", err)
	}
	for likeRows.Next() {
		var postID, accountID string
		if err := likeRows.Scan(&postID, &accountID); err != nil {
			likeRows.Close()
			return apperr.FromDB("scan like", err)
		}
		if p, ok := byID[postID]; ok {
			p.Likes = append(p.Likes, accountID)
		}
	}
	if err := likeRows.Err(); err != nil {
		likeRows.Close()
		return apperr.FromDB("list likes", err)
	}
	likeRows.Close()

	commentRows, err := s.db.QueryContext(ctx,
		`SELECT `+commentCols+` FROM comments WHERE post_id IN (`+in+`) ORDER BY created_at ASC, rowid ASC`,
		args...,
	)
	if err != nil {
		return apperr.FromDB("list comments", err)
	}
	defer commentRows.Close()
	for commentRows.Next() {
		c, err := scanComment(commentRows)
		if err != nil {
			return apperr.FromDB("scan comment", err)
		}
		if p, ok := byID[c.PostID]; ok {
			p.Comments = append(p.Comments, *c)
		}
	}
	if err := commentRows.Err(); err != nil {
		return apperr.FromDB("list comments", err)
	}
	return nil
}

// FamilyOf returns the family a post belongs to.
func (s *PostStore) FamilyOf(ctx context.Context, postID string) (string, error) {
	var familyID string
	err := s.db.QueryRowContext(ctx, `SELECT family_id FROM posts WHERE id = ?`, postID).Scan(&familyID)
	if err == sql.ErrNoRows {
		return "", apperr.NotFound("post not found")
	}
	if err != nil {
		return "", apperr.FromDB("get post family", err)
	}
	return familyID, nil
}

func (s *PostStore) HasLike(ctx context.Context, postID, accountID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_likes WHERE post_id = ? AND account_id = ?`,
		postID, accountID,
	).Scan(&n)
	if err != nil {
		return false, apperr.FromDB("check like", err)
	}
	return n > 0, nil
}

// AddLike inserts a like row. A second like by the same account is a conflict.
func (s *PostStore) AddLike(ctx context.Context, postID, accountID string) error {
	familyID, err := s.FamilyOf(ctx, postID)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO post_likes (id, post_id, account_id) VALUES (?, ?, ?)`,
		id, postID, accountID,
	); err != nil {
		return apperr.FromDB("insert like", err)
	}
	publish(s.feed, realtime.Change{Table: realtime.TablePostLikes, Action: realtime.ActionInsert, FamilyID: familyID, RowID: id})
	return nil
}

func (s *PostStore) RemoveLike(ctx context.Context, postID, accountID string) error {
	familyID, err := s.FamilyOf(ctx, postID)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = ? AND account_id = ?`,
		postID, accountID,
	)
	if err != nil {
		return apperr.FromDB("delete like", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		publish(s.feed, realtime.Change{Table: realtime.TablePostLikes, Action: realtime.ActionDelete, FamilyID: familyID})
	}
	return nil
}

func (s *PostStore) AddComment(ctx context.Context, postID, authorID, authorName, content string) (*model.Comment, error) {
	familyID, err := s.FamilyOf(ctx, postID)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, author_id, author_name, content) VALUES (?, ?, ?, ?, ?)`,
		id, postID, authorID, authorName, content,
	); err != nil {
		return nil, apperr.FromDB("insert comment", err)
	}
	publish(s.feed, realtime.Change{Table: realtime.TableComments, Action: realtime.ActionInsert, FamilyID: familyID, RowID: id})

	row := s.db.QueryRowContext(ctx, `SELECT `+commentCols+` FROM comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if err != nil {
		return nil, apperr.FromDB("get comment", err)
	}
	return c, nil
}
