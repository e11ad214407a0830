package services

import (
	"sort"
	"strings"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
)

// FilterStudents applies the directory search box and skill chip. search matches
// full name, bio or any skill case-insensitively; skill must match exactly.
func FilterStudents(profiles []*models.Profile, q models.StudentsQuery) []*models.Profile {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	skill := strings.TrimSpace(q.Skill)

	out := make([]*models.Profile, 0, len(profiles))
	for _, p := range profiles {
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		if skill != "" && !hasSkill(p, skill) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSearch(p *models.Profile, term string) bool {
	if strings.Contains(strings.ToLower(p.FullName), term) {
		return true
	}
	if p.Bio != nil && strings.Contains(strings.ToLower(*p.Bio), term) {
		return true
	}
	for _, s := range p.Skills {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func hasSkill(p *models.Profile, skill string) bool {
	for _, s := range p.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// CollectSkills returns the sorted set of skills across profiles.
func CollectSkills(profiles []*models.Profile) []string {
	seen := make(map[string]struct{})
	for _, p := range profiles {
		for _, s := range p.Skills {
			seen[s] = struct{}{}
		}
	}
	skills := make([]string, 0, len(seen))
	for s := range seen {
		skills = append(skills, s)
	}
	sort.Strings(skills)
	return skills
}
