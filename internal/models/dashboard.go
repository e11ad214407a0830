package models

import "time"

type DashboardStats struct {
	TotalPages     int   `json:"total_pages"`
	PublishedPages int   `json:"published_pages"`
	TotalMedia     int64 `json:"total_media"`
	ProfileViews   int64 `json:"profile_views"`
}

type RecentPage struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updated_at"`
	Updated   string    `json:"updated"`
}

// ProfileCompleteness mirrors the dashboard checklist.
type ProfileCompleteness struct {
	BasicInfo  bool `json:"basic_info"`
	ProfilePic bool `json:"profile_pic"`
	Bio        bool `json:"bio"`
	Skills     bool `json:"skills"`
}

func (c ProfileCompleteness) Complete() bool {
	return c.BasicInfo && c.ProfilePic && c.Bio && c.Skills
}

type Dashboard struct {
	Profile      *Profile            `json:"profile"`
	Stats        DashboardStats      `json:"stats"`
	RecentPages  []RecentPage        `json:"recent_pages"`
	Completeness ProfileCompleteness `json:"completeness"`
	Complete     bool                `json:"complete"`
}
