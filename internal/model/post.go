package model

import "time"

const (
	PostAnnouncement  = "announcement"
	PostDiscussion    = "discussion"
	PostPrayerRequest = "prayer-request"
)

// MaxFeedPosts caps how many posts a family feed returns.
const MaxFeedPosts = 50

type Post struct {
	ID         string    `json:"id"`
	FamilyID   string    `json:"family_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
	Likes      []string  `json:"likes"`
	Comments   []Comment `json:"comments"`
}

// LikedBy reports whether accountID is in the post's like set.
func (p *Post) LikedBy(accountID string) bool {
	for _, id := range p.Likes {
		if id == accountID {
			return true
		}
	}
	return false
}

type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
