package ualberta

import (
	"fmt"
	"regexp"
	"strings"

	"unisync/core/catalog"
	"unisync/core/utils"
)

var (
	weightPattern   = regexp.MustCompile(`^[^\d(]*(\d+(?:\.\d+)?)`)
	feeIndexPattern = regexp.MustCompile(`fi\s*(\d+(?:\.\d+)?)`)
	hoursPattern    = regexp.MustCompile(`\(\s*([A-Za-z][A-Za-z ]*?)\s*,\s*([^)]*)\)`)
)

func errMissingTitle(title string) error {
	return fmt.Errorf("course heading %q is not \"CODE - Name\"", title)
}

// units holds what the "★ 3 (fi 6)(EITHER, 3-0-3)" line encodes.
type units struct {
	Weight   *float64
	FeeIndex string
	// Pattern is the term pattern, e.g. EITHER or TWO.
	Pattern string
	Lecture string
	Seminar string
	Lab     string
}

func parseUnits(text string) units {
	text = utils.CleanText(text)
	var u units
	if m := weightPattern.FindStringSubmatch(text); m != nil {
		u.Weight = utils.ToFloat(m[1])
	}
	if m := feeIndexPattern.FindStringSubmatch(text); m != nil {
		u.FeeIndex = m[1]
	}
	if m := hoursPattern.FindStringSubmatch(text); m != nil {
		u.Pattern = m[1]
		parts := strings.Split(strings.TrimSpace(m[2]), "-")
		for i, p := range parts {
			p = strings.TrimSpace(p)
			switch i {
			case 0:
				u.Lecture = p
			case 1:
				u.Seminar = p
			case 2:
				u.Lab = p
			}
		}
	}
	return u
}

// Schedule returns the hours breakdown, or nil when the line had none.
func (u units) Schedule() catalog.Metadata {
	if u.Pattern == "" && u.Lecture == "" {
		return nil
	}
	m := catalog.Metadata{}
	for k, v := range map[string]string{
		"term_pattern":  u.Pattern,
		"lecture_hours": u.Lecture,
		"seminar_hours": u.Seminar,
		"lab_hours":     u.Lab,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// splitDescription separates the description paragraph into the free text
// and the prerequisite and corequisite clauses that usually trail it.
func splitDescription(text string) (description, prerequisites, corequisites string) {
	text = utils.CleanText(text)
	description, rest, found := strings.Cut(text, "Prerequisite")
	description = strings.TrimSpace(description)
	if !found {
		description, rest, found = strings.Cut(text, "Corequisite")
		description = strings.TrimSpace(description)
		if found {
			corequisites = clause(rest)
		}
		return description, "", corequisites
	}

	pre, co, found := strings.Cut(rest, "Corequisite")
	prerequisites = clause(pre)
	if found {
		corequisites = clause(co)
	}
	return description, prerequisites, corequisites
}

// clause trims the "s: " left over from the marker and the closing period.
func clause(s string) string {
	s = strings.TrimPrefix(s, "s")
	s = strings.TrimLeft(s, ": ")
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, ".")
}
