package catalog

import (
	"strings"
	"unicode"
)

// KeySeparator joins the components of composite natural keys.
const KeySeparator = "|"

// DateLayout is the wire and comparison format for calendar dates.
const DateLayout = "2006-01-02"

// DefaultExamType is used when a source does not distinguish exam kinds.
const DefaultExamType = "final"

// Course levels derived from the first digit of the course number.
const (
	LevelJunior = "junior"
	LevelSenior = "senior"
)

// Record is one normalized upstream entity.
//
// Implementations are plain values; the natural key is derived from the
// payload so two records with the same key describe the same entity.
type Record interface {
	// Category returns the record category.
	Category() Category
	// NaturalKey returns the institution-scoped identity of the record.
	NaturalKey() string
	// ParentKeys returns the natural keys of the parents this record
	// references, keyed by parent category.
	ParentKeys() map[Category]string
	// Validate checks that the record carries everything needed to store it.
	Validate() error
}

// Faculty is a normalized faculty.
type Faculty struct {
	Code        string   `json:"code" validate:"notblank"`
	Name        string   `json:"name" validate:"notblank"`
	Description string   `json:"description,omitempty"`
	WebsiteURL  string   `json:"website_url,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

func (Faculty) Category() Category              { return CategoryFaculty }
func (f Faculty) NaturalKey() string            { return NormalizeCode(f.Code) }
func (Faculty) ParentKeys() map[Category]string { return nil }
func (f Faculty) Validate() error               { return validateRecord(f) }

// Subject is a normalized subject area. Faculty associations are a plain
// list of faculty codes and are not enforced as references.
type Subject struct {
	Code         string   `json:"code" validate:"notblank"`
	Name         string   `json:"name" validate:"notblank"`
	Description  string   `json:"description,omitempty"`
	FacultyCodes []string `json:"faculty_codes,omitempty"`
	Metadata     Metadata `json:"metadata,omitempty"`
}

func (Subject) Category() Category              { return CategorySubject }
func (s Subject) NaturalKey() string            { return NormalizeCode(s.Code) }
func (Subject) ParentKeys() map[Category]string { return nil }
func (s Subject) Validate() error               { return validateRecord(s) }

// Term is a normalized academic term.
type Term struct {
	Code      string   `json:"code" validate:"notblank"`
	Name      string   `json:"name" validate:"notblank"`
	StartDate string   `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string   `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsActive  bool     `json:"is_active"`
	Metadata  Metadata `json:"metadata,omitempty"`
}

func (Term) Category() Category              { return CategoryTerm }
func (t Term) NaturalKey() string            { return NormalizeCode(t.Code) }
func (Term) ParentKeys() map[Category]string { return nil }

func (t Term) Validate() error { return validateRecord(t) }

// Course is a normalized catalogue course.
type Course struct {
	Code          string   `json:"code" validate:"notblank"`
	SubjectCode   string   `json:"subject_code"`
	Name          string   `json:"name" validate:"notblank"`
	Description   string   `json:"description,omitempty"`
	CreditHours   *float64 `json:"credit_hours,omitempty"`
	Level         string   `json:"level,omitempty"`
	Prerequisites string   `json:"prerequisites,omitempty"`
	Corequisites  string   `json:"corequisites,omitempty"`
	Exclusions    string   `json:"exclusions,omitempty"`
	WebsiteURL    string   `json:"website_url,omitempty"`
	Fees          Metadata `json:"fees,omitempty"`
	Schedule      Metadata `json:"schedule,omitempty"`
	Metadata      Metadata `json:"metadata,omitempty"`
}

func (Course) Category() Category   { return CategoryCourse }
func (c Course) NaturalKey() string { return NormalizeCode(c.Code) }

// ParentKeys falls back to the alphabetic prefix of the course code when the
// source did not name a subject.
func (c Course) ParentKeys() map[Category]string {
	subject := c.SubjectCode
	if subject == "" {
		subject = SubjectFromCourseCode(c.Code)
	}
	return map[Category]string{CategorySubject: NormalizeCode(subject)}
}

func (c Course) Validate() error { return validateRecord(c) }

// Section is a course offering in a term.
type Section struct {
	CourseCode  string   `json:"course_code" validate:"notblank"`
	TermCode    string   `json:"term_code" validate:"notblank"`
	SectionCode string   `json:"section_code" validate:"notblank"`
	SectionType string   `json:"section_type,omitempty"`
	Capacity    *int     `json:"capacity,omitempty"`
	Enrolled    *int     `json:"enrolled,omitempty"`
	Waitlist    *int     `json:"waitlist,omitempty"`
	Status      string   `json:"status,omitempty"`
	Instructors Metadata `json:"instructors,omitempty"`
	Schedule    Metadata `json:"schedule,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

func (Section) Category() Category { return CategorySection }

func (s Section) NaturalKey() string {
	return SectionKey(s.CourseCode, s.TermCode, s.SectionCode)
}

func (s Section) ParentKeys() map[Category]string {
	return map[Category]string{
		CategoryCourse: NormalizeCode(s.CourseCode),
		CategoryTerm:   NormalizeCode(s.TermCode),
	}
}

func (s Section) Validate() error { return validateRecord(s) }

// Exam is an exam schedule entry for a section.
type Exam struct {
	CourseCode      string   `json:"course_code" validate:"notblank"`
	TermCode        string   `json:"term_code" validate:"notblank"`
	SectionCode     string   `json:"section_code" validate:"notblank"`
	ExamType        string   `json:"exam_type,omitempty"`
	Date            string   `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime       string   `json:"start_time,omitempty"`
	EndTime         string   `json:"end_time,omitempty"`
	Location        string   `json:"location,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	Instructions    string   `json:"instructions,omitempty"`
	Metadata        Metadata `json:"metadata,omitempty"`
}

func (Exam) Category() Category { return CategoryExam }

func (e Exam) NaturalKey() string {
	return SectionKey(e.CourseCode, e.TermCode, e.SectionCode) + KeySeparator + e.Type()
}

func (e Exam) ParentKeys() map[Category]string {
	return map[Category]string{
		CategorySection: SectionKey(e.CourseCode, e.TermCode, e.SectionCode),
	}
}

// Type returns the exam type, defaulting to a final exam.
func (e Exam) Type() string {
	if t := strings.ToLower(strings.TrimSpace(e.ExamType)); t != "" {
		return t
	}
	return DefaultExamType
}

func (e Exam) Validate() error { return validateRecord(e) }

// Instructor is a teaching staff member.
type Instructor struct {
	EmployeeID    string   `json:"employee_id,omitempty"`
	Email         string   `json:"email,omitempty"`
	FirstName     string   `json:"first_name" validate:"notblank"`
	LastName      string   `json:"last_name" validate:"notblank"`
	Title         string   `json:"title,omitempty"`
	Department    string   `json:"department,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Office        string   `json:"office,omitempty"`
	ResearchAreas []string `json:"research_areas,omitempty"`
	Metadata      Metadata `json:"metadata,omitempty"`
}

func (Instructor) Category() Category              { return CategoryInstructor }
func (Instructor) ParentKeys() map[Category]string { return nil }

// NaturalKey prefers the employee id and falls back to the e-mail address.
func (i Instructor) NaturalKey() string {
	if id := strings.TrimSpace(i.EmployeeID); id != "" {
		return id
	}
	return strings.ToLower(strings.TrimSpace(i.Email))
}

func (i Instructor) Validate() error { return validateRecord(i) }

// NormalizeCode upper-cases a code and strips whitespace so "cmput 401" and
// "CMPUT401" address the same entity.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// SectionKey builds the composite natural key of a section.
func SectionKey(courseCode, termCode, sectionCode string) string {
	return NormalizeCode(courseCode) + KeySeparator + NormalizeCode(termCode) + KeySeparator +
		strings.ToUpper(strings.Join(strings.Fields(sectionCode), " "))
}

// SubjectFromCourseCode returns the leading alphabetic run of a course code,
// e.g. "CMPUT 401" -> "CMPUT".
func SubjectFromCourseCode(code string) string {
	code = NormalizeCode(code)
	end := 0
	for end < len(code) && unicode.IsLetter(rune(code[end])) {
		end++
	}
	return code[:end]
}

// LevelFromCourseCode classifies a course as junior when its number starts
// with 1 and senior otherwise. Codes without a number have no level.
func LevelFromCourseCode(code string) string {
	code = NormalizeCode(code)
	number := strings.TrimLeftFunc(code, unicode.IsLetter)
	if number == "" {
		return ""
	}
	if number[0] == '1' {
		return LevelJunior
	}
	return LevelSenior
}
