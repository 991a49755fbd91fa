package model

import "time"

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// LeaderboardSize is the number of entries returned for a family leaderboard.
const LeaderboardSize = 10

// QuestionPageSize is how many candidate questions are fetched before one is
// picked at random.
const QuestionPageSize = 50

type QuizQuestion struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	CorrectAnswer  string   `json:"-"`
	Options        []string `json:"options"`
	Difficulty     string   `json:"difficulty"`
	BibleReference string   `json:"bible_reference"`
}

// Points returns the score awarded for answering q correctly.
func (q *QuizQuestion) Points() int {
	return DifficultyPoints(q.Difficulty)
}

// DifficultyPoints maps a difficulty tier to its point value. Unknown tiers
// are worth nothing.
func DifficultyPoints(difficulty string) int {
	switch difficulty {
	case DifficultyEasy:
		return 10
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 30
	default:
		return 0
	}
}

type QuizAttempt struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	FamilyID     string    `json:"family_id"`
	QuestionID   string    `json:"question_id"`
	UserAnswer   string    `json:"user_answer"`
	IsCorrect    bool      `json:"is_correct"`
	PointsEarned int       `json:"points_earned"`
	CreatedAt    time.Time `json:"created_at"`
}

type LeaderboardEntry struct {
	AccountID   string `json:"id"`
	DisplayName string `json:"display_name"`
	QuizScore   int    `json:"quiz_score"`
	QuizStreak  int    `json:"quiz_streak"`
}
