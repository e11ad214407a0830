package models

import (
	"strings"
	"time"
)

const MaxCommentLength = 2000

type TargetType string

const (
	TargetProfile TargetType = "profile"
	TargetPage    TargetType = "page"
)

func (t TargetType) Valid() bool {
	return t == TargetProfile || t == TargetPage
}

// Comment is text attached to a profile or a page.
type Comment struct {
	ID         string     `json:"id" bson:"_id"`
	UserID     string     `json:"user_id" bson:"user_id"`
	TargetType TargetType `json:"target_type" bson:"target_type"`
	TargetID   string     `json:"target_id" bson:"target_id"`
	Content    string     `json:"content" bson:"content"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" bson:"updated_at"`
}

// CommentView is a comment joined with its author.
type CommentView struct {
	*Comment
	Author     *ProfileSummary `json:"profiles"`
	CreatedAgo string          `json:"created_ago"`
	Edited     bool            `json:"edited"`
}

// CommentListResponse is a thread snapshot. Seq is the stream position it
// reflects; events at or below it are already included.
type CommentListResponse struct {
	Comments []*CommentView `json:"comments"`
	Seq      int64          `json:"seq"`
}

type CreateCommentRequest struct {
	TargetType TargetType `json:"target_type"`
	TargetID   string     `json:"target_id"`
	Content    string     `json:"content"`
}

type UpdateCommentRequest struct {
	Content string `json:"content"`
}

func validateCommentContent(content string, errors map[string]string) {
	if content == "" {
		errors["content"] = "Comment cannot be empty"
	} else if len([]rune(content)) > MaxCommentLength {
		errors["content"] = "Comment too long"
	}
}

func (r *CreateCommentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	r.Content = strings.TrimSpace(r.Content)
	r.TargetID = strings.TrimSpace(r.TargetID)

	if !r.TargetType.Valid() {
		errors["target_type"] = "Target type must be profile or page"
	}
	if r.TargetID == "" {
		errors["target_id"] = "Target is required"
	}
	validateCommentContent(r.Content, errors)

	return errors
}

func (r *UpdateCommentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	r.Content = strings.TrimSpace(r.Content)
	validateCommentContent(r.Content, errors)

	return errors
}
