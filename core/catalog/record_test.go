package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaturalKeys(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{"Faculty", Faculty{Code: "sc", Name: "Science"}, "SC"},
		{"Course strips spaces", Course{Code: "cmput 401", Name: "Software Process"}, "CMPUT401"},
		{"Section", Section{CourseCode: "CMPUT 401", TermCode: "1890", SectionCode: "lec  a1"}, "CMPUT401|1890|LEC A1"},
		{"Exam default type", Exam{CourseCode: "CMPUT401", TermCode: "1890", SectionCode: "LEC A1"}, "CMPUT401|1890|LEC A1|final"},
		{"Exam midterm", Exam{CourseCode: "CMPUT401", TermCode: "1890", SectionCode: "LEC A1", ExamType: "Midterm"}, "CMPUT401|1890|LEC A1|midterm"},
		{"Instructor by id", Instructor{EmployeeID: " 1001 ", Email: "a@b.ca"}, "1001"},
		{"Instructor by email", Instructor{Email: "Ada@Example.CA"}, "ada@example.ca"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.NaturalKey())
		})
	}
}

func TestCourseParentKeys(t *testing.T) {
	t.Run("Explicit subject", func(t *testing.T) {
		c := Course{Code: "CMPUT401", SubjectCode: "cmput"}
		assert.Equal(t, map[Category]string{CategorySubject: "CMPUT"}, c.ParentKeys())
	})

	t.Run("Derived from code", func(t *testing.T) {
		c := Course{Code: "E E 250"}
		assert.Equal(t, "EE", c.ParentKeys()[CategorySubject])
	})
}

func TestLevelFromCourseCode(t *testing.T) {
	assert.Equal(t, LevelJunior, LevelFromCourseCode("CMPUT 174"))
	assert.Equal(t, LevelSenior, LevelFromCourseCode("CMPUT401"))
	assert.Equal(t, "", LevelFromCourseCode("CMPUT"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr string
	}{
		{"Valid course", Course{Code: "CMPUT401", Name: "Software Process"}, ""},
		{"Course without name", Course{Code: "CMPUT401"}, "course: name cannot be blank"},
		{"Course with blank name", Course{Code: "CMPUT401", Name: "  \t"}, "course: name cannot be blank"},
		{"Course without subject", Course{Code: "401", Name: "Numbers only"}, "subject_code is required"},
		{"Course with explicit subject", Course{Code: "401", Name: "Numbers only", SubjectCode: "MATH"}, ""},
		{"Section missing term", Section{CourseCode: "CMPUT401", SectionCode: "A1"}, "section: term_code cannot be blank"},
		{"Exam bad date", Exam{CourseCode: "C1", TermCode: "T", SectionCode: "A1", Date: "12/10/2024"}, "exam: date"},
		{"Exam good date", Exam{CourseCode: "C1", TermCode: "T", SectionCode: "A1", Date: "2024-12-10"}, ""},
		{"Term bad end date", Term{Code: "1890", Name: "Fall", EndDate: "soon"}, "end_date"},
		{"Instructor without identity", Instructor{FirstName: "A", LastName: "B"}, "one of employee_id or email is required"},
		{"Instructor keyed by email", Instructor{Email: "a@example.test", FirstName: "A", LastName: "B"}, ""},
		{"Faculty missing everything", Faculty{}, "faculty: code cannot be blank; name cannot be blank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidRecord)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDiff(t *testing.T) {
	credit := 3.0
	base := Course{
		Code:        "CMPUT401",
		Name:        "Software Process",
		CreditHours: &credit,
		Fees:        Metadata{"fee_index": 6},
		Metadata:    Metadata{"link": "https://example.test/cmput401"},
	}

	t.Run("Identical", func(t *testing.T) {
		assert.Empty(t, Diff(base, base))
	})

	t.Run("Metadata decoded from storage", func(t *testing.T) {
		stored := base
		stored.Fees = Metadata{"fee_index": float64(6)}
		assert.Empty(t, Diff(stored, base))
	})

	t.Run("Nil and empty metadata are equal", func(t *testing.T) {
		a, b := base, base
		a.Schedule = nil
		b.Schedule = Metadata{}
		assert.Empty(t, Diff(a, b))
	})

	t.Run("Field change", func(t *testing.T) {
		incoming := base
		incoming.Name = "Software Engineering"
		assert.Equal(t, []string{"name: stored=Software Process incoming=Software Engineering"}, Diff(base, incoming))
	})

	t.Run("Whitespace only change", func(t *testing.T) {
		incoming := base
		incoming.Name = "Software Process "
		assert.Len(t, Diff(base, incoming), 1)
	})

	t.Run("Credit hours removed", func(t *testing.T) {
		incoming := base
		incoming.CreditHours = nil
		assert.Equal(t, []string{"credit_hours: stored=3 incoming=<nil>"}, Diff(base, incoming))
	})

	t.Run("Metadata change", func(t *testing.T) {
		incoming := base
		incoming.Metadata = Metadata{"link": "https://example.test/other"}
		diff := Diff(base, incoming)
		assert.Len(t, diff, 1)
		assert.Contains(t, diff[0], "metadata:")
	})

	t.Run("Category mismatch", func(t *testing.T) {
		diff := Diff(Faculty{Code: "SC"}, base)
		assert.Len(t, diff, 1)
		assert.Contains(t, diff[0], "type:")
	})
}
