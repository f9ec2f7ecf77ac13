package domain

import "strings"

// Category identifies one of the fixed knowledge groupings the portfolio
// knowledge base is partitioned into.
type Category string

const (
	CategoryAbout      Category = "About"
	CategoryExperience Category = "Experience"
	CategorySkills     Category = "Skills"
	CategoryProjects   Category = "Projects"
	CategoryEducation  Category = "Education"
	CategoryContact    Category = "Contact"
)

// Categories returns the closed category set in canonical order.
func Categories() []Category {
	return []Category{
		CategoryAbout,
		CategoryExperience,
		CategorySkills,
		CategoryProjects,
		CategoryEducation,
		CategoryContact,
	}
}

// IsValidCategory reports whether c is a member of the closed set.
func IsValidCategory(c Category) bool {
	switch c {
	case CategoryAbout, CategoryExperience, CategorySkills,
		CategoryProjects, CategoryEducation, CategoryContact:
		return true
	}
	return false
}

// ParseCategory resolves a case-insensitive category name.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

// PartitionName returns the vector-store partition holding this category's
// passages, e.g. "portfolio-experience".
func (c Category) PartitionName(prefix string) string {
	return prefix + "-" + strings.ToLower(string(c))
}

// RoutedQuery is the transient, per-request outcome of query routing.
// Categories is never empty once routing completes.
type RoutedQuery struct {
	Raw        string
	Categories []Category
}
