package models

import "time"

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// CommentEvent is pushed to subscribers of a comment target. Seq increases per target
// so clients can discard stale or duplicate deliveries.
type CommentEvent struct {
	Type       ChangeType   `json:"type"`
	TargetType TargetType   `json:"target_type"`
	TargetID   string       `json:"target_id"`
	Seq        int64        `json:"seq"`
	Comment    *CommentView `json:"comment"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// ProfileViewedEvent is published when a public profile is opened.
type ProfileViewedEvent struct {
	ProfileID string    `json:"profile_id"`
	VisitorID string    `json:"visitor_id,omitempty"`
	VisitedAt time.Time `json:"visited_at"`
}

// ProfileEvent is pushed to subscribers of a profile when its owner edits it.
type ProfileEvent struct {
	Type       ChangeType `json:"type"`
	Profile    *Profile   `json:"profile"`
	OccurredAt time.Time  `json:"occurred_at"`
}
