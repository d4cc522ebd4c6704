package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Diff compares a stored record with an incoming one of the same category
// field by field and returns one description per mismatching field, e.g.
// "name: stored=Foo incoming=Bar". Metadata bags are compared as a whole.
// An empty result means the incoming record carries no change.
func Diff(stored, incoming Record) []string {
	d := &differ{}

	switch in := incoming.(type) {
	case Faculty:
		st, ok := stored.(Faculty)
		if !ok {
			return typeMismatch(stored, incoming)
		}
		d.str("name", st.Name, in.Name)
		d.str("description", st.Description, in.Description)
		d.str("website_url", st.WebsiteURL, in.WebsiteURL)
		d.meta("metadata", st.Metadata, in.Metadata)

	case Subject:
		st, ok := stored.(Subject)
		if !ok {
			return typeMismatch(stored, incoming)
		}
		d.str("name", st.Name, in.Name)
		d.str("description", st.Description, in.Description)
		d.list("faculty_codes", st.FacultyCodes, in.FacultyCodes)
		d.meta("metadata", st.Metadata, in.Metadata)

	case Term:
		st, ok := stored.(Term)
		if !ok {
			return typeMismatch(stored, incoming)
		}
		d.str("name", st.Name, in.Name)
		d.str("start_date", st.StartDate, in.StartDate)
		d.str("end_date", st.EndDate, in.EndDate)
		d.str("is_active", strconv.FormatBool(st.IsActive), strconv.FormatBool(in.IsActive))
		d.meta("metadata", st.Metadata, in.Metadata)

	case Course:
		st, ok := stored.(Course)
		if !ok {
			return typeMismatch(stored, incoming)
		}
		d.str("name", st.Name, in.Name)
		d.str("description", st.Description, in.Description)
		d.decimal("credit_hours", st.CreditHours, in.CreditHours)
		d.str("level", st.Level, in.Level)
		d.str("prerequisites", st.Prerequisites, in.Prerequisites)
		d.str("corequisites", st.Corequisites, in.Corequisites)
		d.str("exclusions", st.Exclusions, in.Exclusions)
		d.str("website_url", st.WebsiteURL, in.WebsiteURL)
		d.meta("fees", st.Fees, in.Fees)
		d.meta("schedule", st.Schedule, in.Schedule)
		d.meta("metadata", st.Metadata, in.Metadata)

	case Section:
		st, ok := stored.(Section)
		if !ok {
			return typeMismatch(stored, incoming)
		}
		d.str("section_type", st.SectionType, in.SectionType)
		d.count("capacity", st.Capacity, in.Capacity)
		d.count("enrolled", st.Enrolled, in.Enrolled)
		d.count("waitlist", st.Waitlist, in.Waitlist)
		d.str("status", st.Status, in.Status)
		d.meta("instructors", st.Instructors, in.Instructors)
		d.meta("schedule", st.Schedule, in.Schedule)
		d.meta("metadata", st.Metadata, in.Metadata)

	case Exam:
		st, ok := stored.(Exam)
		if !ok {
			return typeMismatch(stored, incoming)
		}
		d.str("date", st.Date, in.Date)
		d.str("start_time", st.StartTime, in.StartTime)
		d.str("end_time", st.EndTime, in.EndTime)
		d.str("location", st.Location, in.Location)
		d.count("duration_minutes", st.DurationMinutes, in.DurationMinutes)
		d.str("instructions", st.Instructions, in.Instructions)
		d.meta("metadata", st.Metadata, in.Metadata)

	case Instructor:
		st, ok := stored.(Instructor)
		if !ok {
			return typeMismatch(stored, incoming)
		}
		d.str("email", strings.ToLower(st.Email), strings.ToLower(in.Email))
		d.str("first_name", st.FirstName, in.FirstName)
		d.str("last_name", st.LastName, in.LastName)
		d.str("title", st.Title, in.Title)
		d.str("department", st.Department, in.Department)
		d.str("phone", st.Phone, in.Phone)
		d.str("office", st.Office, in.Office)
		d.list("research_areas", st.ResearchAreas, in.ResearchAreas)
		d.meta("metadata", st.Metadata, in.Metadata)

	default:
		return []string{fmt.Sprintf("unsupported record type %T", incoming)}
	}

	return d.out
}

func typeMismatch(stored, incoming Record) []string {
	return []string{fmt.Sprintf("type: stored=%T incoming=%T", stored, incoming)}
}

// differ accumulates field mismatches.
type differ struct {
	out []string
}

func (d *differ) add(field, stored, incoming string) {
	d.out = append(d.out, fmt.Sprintf("%s: stored=%s incoming=%s", field, stored, incoming))
}

func (d *differ) str(field, stored, incoming string) {
	if stored != incoming {
		d.add(field, stored, incoming)
	}
}

func (d *differ) decimal(field string, stored, incoming *float64) {
	switch {
	case stored == nil && incoming == nil:
	case stored == nil || incoming == nil || *stored != *incoming:
		d.add(field, fmtPtr(stored), fmtPtr(incoming))
	}
}

func (d *differ) count(field string, stored, incoming *int) {
	switch {
	case stored == nil && incoming == nil:
	case stored == nil || incoming == nil || *stored != *incoming:
		d.add(field, fmtPtr(stored), fmtPtr(incoming))
	}
}

func (d *differ) list(field string, stored, incoming []string) {
	if len(stored) == 0 && len(incoming) == 0 {
		return
	}
	if !slices.Equal(stored, incoming) {
		d.add(field, strings.Join(stored, ","), strings.Join(incoming, ","))
	}
}

func (d *differ) meta(field string, stored, incoming Metadata) {
	if !stored.Equal(incoming) {
		d.add(field, stored.String(), incoming.String())
	}
}

func fmtPtr[T any](v *T) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprint(*v)
}
