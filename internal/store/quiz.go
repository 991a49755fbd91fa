package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/realtime"
	"github.com/google/uuid"
)

type QuizStore struct {
	db   *sql.DB
	feed Publisher
}

func NewQuizStore(db *sql.DB, feed Publisher) *QuizStore {
	return &QuizStore{db: db, feed: feed}
}

func scanQuestion(s scanner) (*model.QuizQuestion, error) {
	var q model.QuizQuestion
	var options string
	if err := s.Scan(&q.ID, &q.Question, &q.CorrectAnswer, &options, &q.Difficulty, &q.BibleReference); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return nil, err
	}
	return &q, nil
}

const questionCols = `id, question, correct_answer, options, difficulty, bible_reference`

// ListQuestions returns up to limit questions in insertion order.
func (s *QuizStore) ListQuestions(ctx context.Context, limit int) ([]model.QuizQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM quiz_questions ORDER BY rowid ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, apperr.FromDB("list quiz questions", err)
	}
	defer rows.Close()

	questions := []model.QuizQuestion{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, apperr.FromDB("scan quiz question", err)
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromDB("list quiz questions", err)
	}
	return questions, nil
}

func (s *QuizStore) GetQuestion(ctx context.Context, id string) (*model.QuizQuestion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionCols+` FROM quiz_questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("question not found")
	}
	if err != nil {
		return nil, apperr.FromDB("get quiz question", err)
	}
	return q, nil
}

func (s *QuizStore) CreateQuestion(ctx context.Context, question, correctAnswer string, options []string, difficulty, reference string) (*model.QuizQuestion, error) {
	if options == nil {
		options = []string{}
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return nil, apperr.Persist("encode quiz options", err)
	}
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_questions (id, question, correct_answer, options, difficulty, bible_reference) VALUES (?, ?, ?, ?, ?, ?)`,
		id, question, correctAnswer, string(encoded), difficulty, reference,
	); err != nil {
		return nil, apperr.FromDB("insert quiz question", err)
	}
	return s.GetQuestion(ctx, id)
}

// RecordAttempt appends an attempt to the quiz history.
func (s *QuizStore) RecordAttempt(ctx context.Context, accountID, familyID, questionID, answer string, correct bool, points int) (*model.QuizAttempt, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_attempts (id, account_id, family_id, question_id, user_answer, is_correct, points_earned)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, accountID, familyID, questionID, answer, boolInt(correct), points,
	); err != nil {
		return nil, apperr.FromDB("insert quiz attempt", err)
	}
	publish(s.feed, realtime.Change{Table: realtime.TableQuizAttempts, Action: realtime.ActionInsert, FamilyID: familyID, RowID: id})

	var a model.QuizAttempt
	var isCorrect int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, family_id, question_id, user_answer, is_correct, points_earned, created_at
		 FROM quiz_attempts WHERE id = ?`, id,
	).Scan(&a.ID, &a.AccountID, &a.FamilyID, &a.QuestionID, &a.UserAnswer, &isCorrect, &a.PointsEarned, &a.CreatedAt)
	if err != nil {
		return nil, apperr.FromDB("get quiz attempt", err)
	}
	a.IsCorrect = isCorrect != 0
	return &a, nil
}

// CountAttempts returns how many attempts accountID has made and how many
// were correct.
func (s *QuizStore) CountAttempts(ctx context.Context, accountID string) (total, correct int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_correct), 0) FROM quiz_attempts WHERE account_id = ?`,
		accountID,
	).Scan(&total, &correct)
	if err != nil {
		return 0, 0, apperr.FromDB("count quiz attempts", err)
	}
	return total, correct, nil
}
