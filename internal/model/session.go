package model

import "time"

// SessionRecord is one named chat session in the registry.
type SessionRecord struct {
	SessionID string    `json:"sessionId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}
