package models

import (
	"strings"
	"time"
)

const (
	MaxPageTitleLength   = 100
	MaxPageContentLength = 10000
)

// Page is a user-authored markdown document.
type Page struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	Published bool      `json:"published" bson:"published"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type PageRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

type SetPublishedRequest struct {
	Published bool `json:"published"`
}

func (r *PageRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

func (r *PageRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Title == "" {
		errors["title"] = "Title is required"
	} else if len([]rune(r.Title)) > MaxPageTitleLength {
		errors["title"] = "Title too long"
	}
	if strings.TrimSpace(r.Content) == "" {
		errors["content"] = "Content is required"
	} else if len([]rune(r.Content)) > MaxPageContentLength {
		errors["content"] = "Content too long"
	}

	return errors
}

// PageStatus filters an owner's page list.
type PageStatus string

const (
	PageStatusAll       PageStatus = "all"
	PageStatusPublished PageStatus = "published"
	PageStatusDraft     PageStatus = "draft"
)

// ParsePageStatus maps unknown values to PageStatusAll.
func ParsePageStatus(s string) PageStatus {
	switch PageStatus(strings.ToLower(strings.TrimSpace(s))) {
	case PageStatusPublished:
		return PageStatusPublished
	case PageStatusDraft:
		return PageStatusDraft
	default:
		return PageStatusAll
	}
}

type PagesQuery struct {
	Search string
	Status PageStatus
}

// PageListItem is a page row with its display preview.
type PageListItem struct {
	*Page
	Preview     string `json:"preview"`
	UpdatedText string `json:"updated_text"`
}

type PageListResponse struct {
	Pages   []PageListItem `json:"pages"`
	Total   int            `json:"total"`
	Showing int            `json:"showing"`
}

// PublishedPageResponse is a page as shown to visitors.
type PublishedPageResponse struct {
	Page        *Page          `json:"page"`
	Author      ProfileSummary `json:"author"`
	HTML        string         `json:"html"`
	UpdatedText string         `json:"updated_text"`
}

type PreviewRequest struct {
	Content string `json:"content"`
}

type PreviewResponse struct {
	HTML string `json:"html"`
}
