package model

import "time"

const (
	NotifyAnnouncement = "announcement"
	NotifyMedia        = "media"
	NotifyGeneral      = "general"
	NotifyQuiz         = "quiz"
)

// MaxNotifications caps how many notifications an account's list returns.
const MaxNotifications = 20

// Notification is either targeted at one account or, when AccountID is nil,
// broadcast to every member of the family.
type Notification struct {
	ID        string    `json:"id"`
	FamilyID  string    `json:"family_id"`
	AccountID *string   `json:"account_id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
