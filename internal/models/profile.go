package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/RehanEggSupplierdev/batchboard/internal/format"
)

const (
	MaxBioLength      = 500
	MaxQuoteLength    = 200
	MaxSkills         = 20
	MaxSkillLength    = 50
	MaxSocialLinks    = 10
	MaxFullNameLength = 50
)

var adminStudentIDs = map[string]bool{
	"ADMIN001": true,
	"admin":    true,
	"DEMO001":  true,
}

// Profile is the public-facing identity of a student, keyed by the owning user.
type Profile struct {
	ID          string            `json:"id" bson:"_id"`
	UserID      string            `json:"user_id" bson:"user_id"`
	StudentID   string            `json:"student_id" bson:"student_id"`
	FullName    string            `json:"full_name" bson:"full_name"`
	Bio         *string           `json:"bio" bson:"bio,omitempty"`
	Quote       *string           `json:"quote" bson:"quote,omitempty"`
	Skills      []string          `json:"skills" bson:"skills"`
	SocialLinks map[string]string `json:"social_links" bson:"social_links"`
	ProfilePic  *string           `json:"profile_pic" bson:"profile_pic,omitempty"`
	Public      bool              `json:"public" bson:"public"`
	FirstLogin  bool              `json:"first_login" bson:"first_login"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" bson:"updated_at"`
}

// IsAdmin reports whether the profile belongs to one of the reserved admin accounts.
func (p *Profile) IsAdmin() bool {
	return p != nil && adminStudentIDs[p.StudentID]
}

// Summary is the author block attached to comments and published pages.
func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:         p.ID,
		StudentID:  p.StudentID,
		FullName:   p.FullName,
		ProfilePic: p.ProfilePic,
		Initials:   format.Initials(p.FullName),
	}
}

type ProfileSummary struct {
	ID         string  `json:"id"`
	StudentID  string  `json:"student_id"`
	FullName   string  `json:"full_name"`
	ProfilePic *string `json:"profile_pic"`
	Initials   string  `json:"initials"`
}

// UpdateProfileRequest is a partial update; nil fields are left untouched.
type UpdateProfileRequest struct {
	FullName    *string            `json:"full_name"`
	Bio         *string            `json:"bio"`
	Quote       *string            `json:"quote"`
	Skills      *[]string          `json:"skills"`
	SocialLinks *map[string]string `json:"social_links"`
	ProfilePic  *string            `json:"profile_pic"`
	Public      *bool              `json:"public"`
}

// Normalize trims free-text fields in place.
func (r *UpdateProfileRequest) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(r.FullName)
	trim(r.Bio)
	trim(r.Quote)
	trim(r.ProfilePic)

	if r.Skills != nil {
		skills := make([]string, 0, len(*r.Skills))
		for _, s := range *r.Skills {
			skills = append(skills, strings.TrimSpace(s))
		}
		r.Skills = &skills
	}
	if r.SocialLinks != nil {
		links := make(map[string]string, len(*r.SocialLinks))
		for platform, u := range *r.SocialLinks {
			links[strings.TrimSpace(platform)] = strings.TrimSpace(u)
		}
		r.SocialLinks = &links
	}
}

func (r *UpdateProfileRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.FullName != nil {
		if *r.FullName == "" {
			errors["full_name"] = "Name is required"
		} else if !ValidFullName(*r.FullName) {
			errors["full_name"] = "Name must be 2-50 characters (letters and spaces only)"
		}
	}
	if r.Bio != nil && len([]rune(*r.Bio)) > MaxBioLength {
		errors["bio"] = "Bio must be less than 500 characters"
	}
	if r.Quote != nil && len([]rune(*r.Quote)) > MaxQuoteLength {
		errors["quote"] = "Quote must be less than 200 characters"
	}
	if r.Skills != nil {
		if len(*r.Skills) > MaxSkills {
			errors["skills"] = "Maximum 20 skills allowed"
		} else {
			for i, s := range *r.Skills {
				if s == "" {
					errors[fmt.Sprintf("skills[%d]", i)] = "Skill is required"
				} else if len([]rune(s)) > MaxSkillLength {
					errors[fmt.Sprintf("skills[%d]", i)] = "Skill name too long"
				}
			}
		}
	}
	if r.SocialLinks != nil {
		if len(*r.SocialLinks) > MaxSocialLinks {
			errors["social_links"] = "Maximum 10 social links allowed"
		} else {
			for platform, u := range *r.SocialLinks {
				if platform == "" {
					errors["social_links"] = "Platform is required"
					continue
				}
				if u == "" {
					errors["social_links."+platform] = "URL is required"
				} else if !ValidURL(u) {
					errors["social_links."+platform] = "Must be a valid URL"
				}
			}
		}
	}
	if r.ProfilePic != nil && *r.ProfilePic != "" && !ValidURL(*r.ProfilePic) && !strings.HasPrefix(*r.ProfilePic, "/") {
		errors["profile_pic"] = "Must be a valid URL"
	}

	return errors
}

// ValidURL accepts absolute http(s) URLs with a host.
func ValidURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// StudentsQuery filters the public directory.
type StudentsQuery struct {
	Search string `json:"search"`
	Skill  string `json:"skill"`
}

type StudentsResponse struct {
	Students []*Profile `json:"students"`
	Skills   []string   `json:"skills"`
	Total    int        `json:"total"`
	Showing  int        `json:"showing"`
}

type FeaturedResponse struct {
	Students []*Profile `json:"students"`
	Total    int64      `json:"total"`
}

// StudentPageResponse is everything the public profile page needs.
type StudentPageResponse struct {
	Profile   *Profile `json:"profile"`
	Initials  string   `json:"initials"`
	Pages     []*Page  `json:"pages"`
	ViewCount int64    `json:"view_count"`
}
