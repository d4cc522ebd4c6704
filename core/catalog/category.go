package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Category identifies one kind of academic data exchanged with an institution.
type Category string

const (
	// CategoryFaculty is a faculty or college within an institution.
	CategoryFaculty Category = "faculty"
	// CategorySubject is a subject area (e.g. CMPUT) that groups courses.
	CategorySubject Category = "subject"
	// CategoryTerm is an academic term (e.g. Fall 2024).
	CategoryTerm Category = "term"
	// CategoryCourse is a catalogue course.
	CategoryCourse Category = "course"
	// CategorySection is a course offering in a given term.
	CategorySection Category = "section"
	// CategoryExam is an exam schedule entry attached to a section.
	CategoryExam Category = "exam"
	// CategoryInstructor is a teaching staff member.
	CategoryInstructor Category = "instructor"
)

// allCategories is ordered by dependency depth.
var allCategories = []Category{
	CategoryFaculty,
	CategorySubject,
	CategoryTerm,
	CategoryInstructor,
	CategoryCourse,
	CategorySection,
	CategoryExam,
}

// parents lists the categories whose rows must exist before a record of the
// key category can be stored.
var parents = map[Category][]Category{
	CategoryCourse:  {CategorySubject},
	CategorySection: {CategoryCourse, CategoryTerm},
	CategoryExam:    {CategorySection},
}

// AllCategories returns every known category in dependency order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Parents returns the categories referenced by records of c.
func (c Category) Parents() []Category {
	return parents[c]
}

// Depth is the length of the longest parent chain below c.
func (c Category) Depth() int {
	depth := 0
	for _, p := range parents[c] {
		if d := p.Depth() + 1; d > depth {
			depth = d
		}
	}
	return depth
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// ParseCategories parses a list of category names. Each entry may itself be a
// comma separated list, so both repeated flags and "a,b" forms are accepted.
func ParseCategories(values []string) ([]Category, error) {
	var out []Category
	seen := make(map[Category]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := ParseCategory(part)
			if err != nil {
				return nil, err
			}
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// Stages groups categories by dependency depth so that every stage only
// references categories from earlier stages. Categories inside one stage are
// independent of each other.
func Stages(categories []Category) [][]Category {
	byDepth := make(map[int][]Category)
	for _, c := range categories {
		d := c.Depth()
		byDepth[d] = append(byDepth[d], c)
	}

	depths := make([]int, 0, len(byDepth))
	for d := range byDepth {
		depths = append(depths, d)
	}
	sort.Ints(depths)

	stages := make([][]Category, 0, len(depths))
	for _, d := range depths {
		stages = append(stages, byDepth[d])
	}
	return stages
}
