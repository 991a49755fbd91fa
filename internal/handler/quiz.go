package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/kinship/internal/auth"
	"github.com/dukerupert/kinship/internal/quiz"
)

type QuizHandler struct {
	engine *quiz.Engine
	rounds *quiz.Rounds
	logger *slog.Logger
}

func NewQuizHandler(engine *quiz.Engine, rounds *quiz.Rounds, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{engine: engine, rounds: rounds, logger: logger}
}

type answerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// Question handles GET /api/quiz/question. It shows a question if none is
// up and returns the caller's round.
func (h *QuizHandler) Question(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountID(r.Context())
	if _, err := h.rounds.Show(r.Context(), accountID); err != nil {
		// An answered round is still returned so the client can render it.
		if h.rounds.Current(accountID).Phase != quiz.AnswerSubmitted {
			writeError(w, h.logger, "show question", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.rounds.Current(accountID))
}

// Answer handles POST /api/quiz/answer
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ac, _ := auth.FromContext(r.Context())
	res, err := h.rounds.Answer(r.Context(), ac.AccountID, ac.FamilyID, req.Answer)
	if err != nil {
		writeError(w, h.logger, "submit answer", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Next handles POST /api/quiz/next
func (h *QuizHandler) Next(w http.ResponseWriter, r *http.Request) {
	accountID := auth.AccountID(r.Context())
	if err := h.rounds.Advance(accountID); err != nil {
		writeError(w, h.logger, "advance round", err)
		return
	}
	writeJSON(w, http.StatusOK, h.rounds.Current(accountID))
}

// Leaderboard handles GET /api/quiz/leaderboard
func (h *QuizHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.engine.Leaderboard(r.Context(), auth.FamilyID(r.Context()))
	if err != nil {
		writeError(w, h.logger, "leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
