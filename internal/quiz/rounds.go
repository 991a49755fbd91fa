package quiz

import (
	"context"
	"sync"

	"github.com/dukerupert/kinship/internal/apperr"
	"github.com/dukerupert/kinship/internal/model"
)

// Phase is where an account's current round stands.
type Phase int

const (
	AwaitingQuestion Phase = iota
	QuestionShown
	AnswerSubmitted
)

func (p Phase) String() string {
	switch p {
	case QuestionShown:
		return "question_shown"
	case AnswerSubmitted:
		return "answer_submitted"
	default:
		return "awaiting_question"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Round is one account's view of the game.
type Round struct {
	Phase    Phase               `json:"phase"`
	Question *model.QuizQuestion `json:"question,omitempty"`
	Result   *Result             `json:"result,omitempty"`
}

// Rounds holds the in-memory round for each account. Rounds are lost on
// restart.
type Rounds struct {
	engine *Engine

	mu     sync.Mutex
	rounds map[string]*Round
}

func NewRounds(engine *Engine) *Rounds {
	return &Rounds{
		engine: engine,
		rounds: make(map[string]*Round),
	}
}

func (r *Rounds) get(accountID string) *Round {
	round, ok := r.rounds[accountID]
	if !ok {
		round = &Round{Phase: AwaitingQuestion}
		r.rounds[accountID] = round
	}
	return round
}

// Current returns a copy of the account's round.
func (r *Rounds) Current(accountID string) Round {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.get(accountID)
}

// Show moves AwaitingQuestion to QuestionShown with a random question. While
// a question is already shown it is returned again.
func (r *Rounds) Show(ctx context.Context, accountID string) (*model.QuizQuestion, error) {
	r.mu.Lock()
	round := r.get(accountID)
	switch round.Phase {
	case QuestionShown:
		q := round.Question
		r.mu.Unlock()
		return q, nil
	case AnswerSubmitted:
		r.mu.Unlock()
		return nil, apperr.Policy("answer already submitted; advance to the next question")
	}
	r.mu.Unlock()

	q, err := r.engine.PickRandomQuestion(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	round = r.get(accountID)
	if round.Phase != AwaitingQuestion {
		// A concurrent Show won.
		if round.Phase == QuestionShown {
			return round.Question, nil
		}
		return nil, apperr.Policy("answer already submitted; advance to the next question")
	}
	round.Phase = QuestionShown
	round.Question = q
	round.Result = nil
	return q, nil
}

// Answer scores chosen against the shown question and moves the round to
// AnswerSubmitted.
func (r *Rounds) Answer(ctx context.Context, accountID, familyID, chosen string) (*Result, error) {
	r.mu.Lock()
	round := r.get(accountID)
	if round.Phase != QuestionShown {
		r.mu.Unlock()
		return nil, apperr.Policy("no question is awaiting an answer")
	}
	q := round.Question
	round.Phase = AnswerSubmitted
	r.mu.Unlock()

	res, err := r.engine.SubmitAnswer(ctx, accountID, familyID, q.ID, chosen)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		round.Phase = QuestionShown
		return nil, err
	}
	round.Result = res
	return res, nil
}

// Advance moves AnswerSubmitted back to AwaitingQuestion.
func (r *Rounds) Advance(accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	round := r.get(accountID)
	if round.Phase != AnswerSubmitted || round.Result == nil {
		return apperr.Policy("answer the current question first")
	}
	*round = Round{Phase: AwaitingQuestion}
	return nil
}
