package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dukerupert/kinship/internal/apperr"
)

func TestRoundLifecycle(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a := e.member(t, "ruth")
	rounds := NewRounds(e.engine)

	if got := rounds.Current(a.ID).Phase; got != AwaitingQuestion {
		t.Fatalf("initial phase = %v, want awaiting", got)
	}

	q, err := rounds.Show(ctx, a.ID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	again, err := rounds.Show(ctx, a.ID)
	if err != nil || again.ID != q.ID {
		t.Errorf("second show = %v, %v; want same question", again, err)
	}

	res, err := rounds.Answer(ctx, a.ID, e.familyID, q.CorrectAnswer)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !res.Correct {
		t.Error("expected correct answer")
	}
	if got := rounds.Current(a.ID); got.Phase != AnswerSubmitted || got.Result == nil {
		t.Errorf("round = %+v, want answer submitted with result", got)
	}

	if err := rounds.Advance(a.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got := rounds.Current(a.ID); got.Phase != AwaitingQuestion || got.Question != nil {
		t.Errorf("round = %+v, want reset", got)
	}
}

func TestRoundInvalidTransitions(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a := e.member(t, "ruth")
	rounds := NewRounds(e.engine)

	if _, err := rounds.Answer(ctx, a.ID, e.familyID, "x"); !errors.Is(err, apperr.ErrPolicy) {
		t.Errorf("answer before show: err = %v, want policy", err)
	}
	if err := rounds.Advance(a.ID); !errors.Is(err, apperr.ErrPolicy) {
		t.Errorf("advance before answer: err = %v, want policy", err)
	}

	rounds.Show(ctx, a.ID)
	if err := rounds.Advance(a.ID); !errors.Is(err, apperr.ErrPolicy) {
		t.Errorf("advance before answer: err = %v, want policy", err)
	}

	rounds.Answer(ctx, a.ID, e.familyID, "x")
	if _, err := rounds.Answer(ctx, a.ID, e.familyID, "x"); !errors.Is(err, apperr.ErrPolicy) {
		t.Errorf("double answer: err = %v, want policy", err)
	}
	if _, err := rounds.Show(ctx, a.ID); !errors.Is(err, apperr.ErrPolicy) {
		t.Errorf("show after answer: err = %v, want policy", err)
	}
}

func TestRoundFailedAnswerStaysShown(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	rounds := NewRounds(e.engine)

	// The account row does not exist, so scoring fails.
	if _, err := rounds.Show(ctx, "ghost"); err != nil {
		t.Fatalf("show: %v", err)
	}
	if _, err := rounds.Answer(ctx, "ghost", e.familyID, "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("answer: err = %v, want not found", err)
	}
	if got := rounds.Current("ghost").Phase; got != QuestionShown {
		t.Errorf("phase = %v, want question shown", got)
	}
}

func TestRoundsAreIndependent(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a := e.member(t, "ruth")
	b := e.member(t, "eli")
	rounds := NewRounds(e.engine)

	rounds.Show(ctx, a.ID)
	if got := rounds.Current(b.ID).Phase; got != AwaitingQuestion {
		t.Errorf("eli phase = %v, want awaiting", got)
	}
}

func TestRoundJSONHidesAnswer(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a := e.member(t, "ruth")
	rounds := NewRounds(e.engine)

	rounds.Show(ctx, a.ID)
	data, err := json.Marshal(rounds.Current(a.ID))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"phase":"question_shown"`) {
		t.Errorf("body = %s, want phase name", body)
	}
	if strings.Contains(body, "correct_answer") {
		t.Errorf("body leaks the answer: %s", body)
	}
}
