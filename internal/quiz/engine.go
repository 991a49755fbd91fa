// Package quiz runs the trivia game: question selection, answer scoring and
// the family leaderboard.
package quiz

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/metrics"
	"github.com/dukerupert/kinship/internal/model"
	"github.com/dukerupert/kinship/internal/store"
)

// Result is the outcome of one submitted answer.
type Result struct {
	Attempt       *model.QuizAttempt `json:"attempt"`
	Correct       bool               `json:"correct"`
	CorrectAnswer string             `json:"correct_answer"`
	PointsEarned  int                `json:"points_earned"`
	Score         int                `json:"score"`
	Streak        int                `json:"streak"`
}

type Engine struct {
	questions *store.QuizStore
	accounts  *store.AccountStore
	metrics   *metrics.Metrics
	logger    *slog.Logger
	intn      func(n int) int
}

func NewEngine(questions *store.QuizStore, accounts *store.AccountStore, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		questions: questions,
		accounts:  accounts,
		metrics:   m,
		logger:    logger.With("component", "quiz"),
		intn:      rand.IntN,
	}
}

// PickRandomQuestion fetches one page of candidates and picks one uniformly.
// Questions beyond the first page are never chosen.
func (e *Engine) PickRandomQuestion(ctx context.Context) (*model.QuizQuestion, error) {
	candidates, err := e.questions.ListQuestions(ctx, model.QuestionPageSize)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperr.NotFound("no quiz questions available")
	}
	q := candidates[e.intn(len(candidates))]
	return &q, nil
}

// SubmitAnswer records an attempt and updates the account's score and streak.
// The match is exact: case and whitespace matter. A correct answer adds the
// question's points and extends the streak; a wrong one resets the streak.
// The stats update reads the account and writes it back without a
// transaction, so concurrent submissions for one account can lose updates.
func (e *Engine) SubmitAnswer(ctx context.Context, accountID, familyID, questionID, chosen string) (*Result, error) {
	q, err := e.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	account, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	correct := chosen == q.CorrectAnswer
	points := 0
	if correct {
		points = q.Points()
	}

	attempt, err := e.questions.RecordAttempt(ctx, accountID, familyID, q.ID, chosen, correct, points)
	if err != nil {
		return nil, err
	}
	e.metrics.QuizAnswer(q.Difficulty, correct)

	res := &Result{
		Attempt:       attempt,
		Correct:       correct,
		CorrectAnswer: q.CorrectAnswer,
		PointsEarned:  points,
	}
	if correct {
		res.Score = account.QuizScore + points
		res.Streak = account.QuizStreak + 1
		if err := e.accounts.SetQuizStats(ctx, accountID, res.Score, res.Streak); err != nil {
			return nil, err
		}
	} else {
		res.Score = account.QuizScore
		if err := e.accounts.ResetStreak(ctx, accountID); err != nil {
			return nil, err
		}
	}

	e.logger.Debug("answer submitted", "account_id", accountID, "question_id", q.ID, "correct", correct, "points", points)
	return res, nil
}

// Leaderboard returns the family's top accounts by score.
func (e *Engine) Leaderboard(ctx context.Context, familyID string) ([]model.LeaderboardEntry, error) {
	return e.accounts.Leaderboard(ctx, familyID, model.LeaderboardSize)
}
