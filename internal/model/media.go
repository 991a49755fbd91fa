package model

import "time"

const (
	MediaPhoto = "photo"
	MediaAudio = "audio"
)

type Media struct {
	ID          string    `json:"id"`
	FamilyID    string    `json:"family_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	URL         string    `json:"url"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
