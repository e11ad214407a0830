package models

import "time"

// ProfileView is one visit to a public profile. Rows are append-only.
type ProfileView struct {
	ID        string    `json:"id" bson:"_id"`
	ProfileID string    `json:"profile_id" bson:"profile_id"`
	VisitorID *string   `json:"visitor_id" bson:"visitor_id,omitempty"`
	VisitedAt time.Time `json:"visited_at" bson:"visited_at"`
}
