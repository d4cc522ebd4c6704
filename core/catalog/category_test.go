package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []Category
		wantErr bool
	}{
		{"Single", []string{"course"}, []Category{CategoryCourse}, false},
		{"CommaList", []string{"course, Section"}, []Category{CategoryCourse, CategorySection}, false},
		{"Repeated", []string{"exam", "exam,faculty"}, []Category{CategoryExam, CategoryFaculty}, false},
		{"Empty", nil, nil, false},
		{"Unknown", []string{"course,rooms"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategories(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStages(t *testing.T) {
	stages := Stages(AllCategories())
	require.Len(t, stages, 4)
	assert.ElementsMatch(t, []Category{CategoryFaculty, CategorySubject, CategoryTerm, CategoryInstructor}, stages[0])
	assert.Equal(t, []Category{CategoryCourse}, stages[1])
	assert.Equal(t, []Category{CategorySection}, stages[2])
	assert.Equal(t, []Category{CategoryExam}, stages[3])

	t.Run("Subset keeps order", func(t *testing.T) {
		stages := Stages([]Category{CategoryExam, CategoryCourse})
		assert.Equal(t, [][]Category{{CategoryCourse}, {CategoryExam}}, stages)
	})
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, CategoryFaculty.Depth())
	assert.Equal(t, 1, CategoryCourse.Depth())
	assert.Equal(t, 2, CategorySection.Depth())
	assert.Equal(t, 3, CategoryExam.Depth())
}
