package models

import (
	"testing"

	"unisync/core/catalog"

	"github.com/stretchr/testify/assert"
)

func TestTermDatesRoundTrip(t *testing.T) {
	var row Term
	row.Assign(catalog.Term{Code: "1890", Name: "Fall 2024", StartDate: "2024-09-03", EndDate: "2024-12-20"})

	rec := row.ToRecord()
	assert.Equal(t, "2024-09-03", rec.StartDate)
	assert.Equal(t, "2024-12-20", rec.EndDate)
	assert.Empty(t, catalog.Diff(rec, catalog.Term{Code: "1890", Name: "Fall 2024", StartDate: "2024-09-03", EndDate: "2024-12-20"}))
}

func TestSectionAssignUsesNormalizedCode(t *testing.T) {
	var row CourseSection
	row.Assign(catalog.Section{CourseCode: "CMPUT 401", TermCode: "1890", SectionCode: "lec a1"})
	assert.Equal(t, "LEC A1", row.SectionCode)

	rec := row.ToRecord("CMPUT401", "1890")
	assert.Equal(t, "CMPUT401|1890|LEC A1", rec.NaturalKey())
}

func TestExamAssignDefaultsType(t *testing.T) {
	var row ExamSchedule
	row.Assign(catalog.Exam{CourseCode: "CMPUT401", TermCode: "1890", SectionCode: "A1", Date: "bad"})
	assert.Equal(t, catalog.DefaultExamType, row.ExamType)
	assert.Nil(t, row.ExamDate)
}

func TestInstructorSourceKey(t *testing.T) {
	var row Instructor
	row.Assign(catalog.Instructor{Email: "Ada@Example.ca", FirstName: "Ada", LastName: "Lovelace"})
	assert.Equal(t, "ada@example.ca", row.SourceKey)
	assert.Equal(t, "Ada@Example.ca", row.Email)
}
