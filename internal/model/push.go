package model

import "time"

type PushSubscription struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	FamilyID   string    `json:"family_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"-"`
	AuthKey    string    `json:"-"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}
