package reconcile

import (
	"context"
	"errors"
	"fmt"

	"unisync/core/catalog"
	"unisync/core/models"
	"unisync/core/source"

	"gorm.io/gorm"
)

// GormStore persists catalog entities through GORM. Each Batch is one
// database transaction.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// EnsureInstitution returns the university row for inst, creating it on first
// use. Existing rows are left untouched.
func (s *GormStore) EnsureInstitution(ctx context.Context, inst source.Institution) (uint, error) {
	code := source.NormalizeInstitutionCode(inst.Code)

	var uni models.University
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&uni).Error
	if err == nil {
		return uni.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("failed to look up university %s: %w", code, err)
	}

	uni = models.University{
		Code:     code,
		Name:     inst.Name,
		Country:  inst.Country,
		Region:   inst.Region,
		Website:  inst.Website,
		IsActive: true,
		APIConfig: catalog.Metadata{
			"adapter":          inst.Adapter,
			"base_url":         inst.BaseURL,
			"endpoints":        inst.Endpoints,
			"request_interval": inst.RequestInterval.String(),
		},
	}
	if err := s.db.WithContext(ctx).Create(&uni).Error; err != nil {
		return 0, fmt.Errorf("failed to create university %s: %w", code, err)
	}
	return uni.ID, nil
}

// Batch implements Store.
func (s *GormStore) Batch(ctx context.Context, institution string, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var uni models.University
		err := db.Where("code = ?", source.NormalizeInstitutionCode(institution)).First(&uni).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", source.ErrUnknownInstitution, institution)
		}
		if err != nil {
			return err
		}
		return fn(&gormTx{db: db, universityID: uni.ID})
	})
}

type gormTx struct {
	db           *gorm.DB
	universityID uint
}

type sectionRow struct {
	models.CourseSection
	CourseCode string `gorm:"column:course_code"`
	TermCode   string `gorm:"column:term_code"`
}

type examRow struct {
	models.ExamSchedule
	CourseCode  string `gorm:"column:course_code"`
	TermCode    string `gorm:"column:term_code"`
	SectionCode string `gorm:"column:parent_section_code"`
}

func (t *gormTx) Load(ctx context.Context, category catalog.Category) (map[string]Entity, error) {
	db := t.db.WithContext(ctx)
	out := make(map[string]Entity)

	switch category {
	case catalog.CategoryFaculty:
		var rows []models.Faculty
		if err := db.Where("university_id = ?", t.universityID).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.Code] = Entity{ID: row.ID, Record: row.ToRecord()}
		}

	case catalog.CategorySubject:
		var rows []models.Subject
		if err := db.Where("university_id = ?", t.universityID).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.Code] = Entity{ID: row.ID, Record: row.ToRecord()}
		}

	case catalog.CategoryTerm:
		var rows []models.Term
		if err := db.Where("university_id = ?", t.universityID).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.Code] = Entity{ID: row.ID, Record: row.ToRecord()}
		}

	case catalog.CategoryCourse:
		var rows []models.Course
		if err := db.Where("university_id = ?", t.universityID).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.Code] = Entity{
				ID:     row.ID,
				Record: row.ToRecord(),
				Refs:   Refs{catalog.CategorySubject: row.SubjectID},
			}
		}

	case catalog.CategorySection:
		var rows []sectionRow
		err := db.Table("course_sections").
			Select("course_sections.*, courses.code AS course_code, terms.code AS term_code").
			Joins("JOIN courses ON courses.id = course_sections.course_id").
			Joins("JOIN terms ON terms.id = course_sections.term_id").
			Where("courses.university_id = ?", t.universityID).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			rec := row.CourseSection.ToRecord(row.CourseCode, row.TermCode)
			out[rec.NaturalKey()] = Entity{
				ID:     row.ID,
				Record: rec,
				Refs:   Refs{catalog.CategoryCourse: row.CourseID, catalog.CategoryTerm: row.TermID},
			}
		}

	case catalog.CategoryExam:
		var rows []examRow
		err := db.Table("exam_schedules").
			Select("exam_schedules.*, courses.code AS course_code, terms.code AS term_code, course_sections.section_code AS parent_section_code").
			Joins("JOIN course_sections ON course_sections.id = exam_schedules.course_section_id").
			Joins("JOIN courses ON courses.id = course_sections.course_id").
			Joins("JOIN terms ON terms.id = course_sections.term_id").
			Where("courses.university_id = ?", t.universityID).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			rec := row.ExamSchedule.ToRecord(row.CourseCode, row.TermCode, row.SectionCode)
			out[rec.NaturalKey()] = Entity{
				ID:     row.ID,
				Record: rec,
				Refs:   Refs{catalog.CategorySection: row.CourseSectionID},
			}
		}

	case catalog.CategoryInstructor:
		var rows []models.Instructor
		if err := db.Where("university_id = ?", t.universityID).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.SourceKey] = Entity{ID: row.ID, Record: row.ToRecord()}
		}

	default:
		return nil, fmt.Errorf("unsupported category %q", category)
	}

	return out, nil
}

func (t *gormTx) ParentIndex(ctx context.Context, category catalog.Category) (map[string]uint, error) {
	entities, err := t.Load(ctx, category)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]uint, len(entities))
	for key, e := range entities {
		idx[key] = e.ID
	}
	return idx, nil
}

func (t *gormTx) Insert(ctx context.Context, rec catalog.Record, refs Refs) (uint, error) {
	db := t.db.WithContext(ctx)

	switch r := rec.(type) {
	case catalog.Faculty:
		row := models.Faculty{UniversityID: t.universityID}
		row.Assign(r)
		err := db.Create(&row).Error
		return row.ID, err

	case catalog.Subject:
		row := models.Subject{UniversityID: t.universityID}
		row.Assign(r)
		err := db.Create(&row).Error
		return row.ID, err

	case catalog.Term:
		row := models.Term{UniversityID: t.universityID}
		row.Assign(r)
		err := db.Create(&row).Error
		return row.ID, err

	case catalog.Course:
		row := models.Course{UniversityID: t.universityID, SubjectID: refs[catalog.CategorySubject]}
		row.Assign(r)
		err := db.Create(&row).Error
		return row.ID, err

	case catalog.Section:
		row := models.CourseSection{CourseID: refs[catalog.CategoryCourse], TermID: refs[catalog.CategoryTerm]}
		row.Assign(r)
		err := db.Create(&row).Error
		return row.ID, err

	case catalog.Exam:
		row := models.ExamSchedule{CourseSectionID: refs[catalog.CategorySection]}
		row.Assign(r)
		err := db.Create(&row).Error
		return row.ID, err

	case catalog.Instructor:
		row := models.Instructor{UniversityID: t.universityID}
		row.Assign(r)
		err := db.Create(&row).Error
		return row.ID, err
	}

	return 0, fmt.Errorf("unsupported record type %T", rec)
}

func (t *gormTx) Update(ctx context.Context, id uint, rec catalog.Record, refs Refs) error {
	db := t.db.WithContext(ctx)

	switch r := rec.(type) {
	case catalog.Faculty:
		var row models.Faculty
		if err := db.First(&row, id).Error; err != nil {
			return err
		}
		row.Assign(r)
		return db.Save(&row).Error

	case catalog.Subject:
		var row models.Subject
		if err := db.First(&row, id).Error; err != nil {
			return err
		}
		row.Assign(r)
		return db.Save(&row).Error

	case catalog.Term:
		var row models.Term
		if err := db.First(&row, id).Error; err != nil {
			return err
		}
		row.Assign(r)
		return db.Save(&row).Error

	case catalog.Course:
		var row models.Course
		if err := db.First(&row, id).Error; err != nil {
			return err
		}
		row.Assign(r)
		row.SubjectID = refs[catalog.CategorySubject]
		return db.Save(&row).Error

	case catalog.Section:
		var row models.CourseSection
		if err := db.First(&row, id).Error; err != nil {
			return err
		}
		row.Assign(r)
		row.CourseID = refs[catalog.CategoryCourse]
		row.TermID = refs[catalog.CategoryTerm]
		return db.Save(&row).Error

	case catalog.Exam:
		var row models.ExamSchedule
		if err := db.First(&row, id).Error; err != nil {
			return err
		}
		row.Assign(r)
		row.CourseSectionID = refs[catalog.CategorySection]
		return db.Save(&row).Error

	case catalog.Instructor:
		var row models.Instructor
		if err := db.First(&row, id).Error; err != nil {
			return err
		}
		row.Assign(r)
		return db.Save(&row).Error
	}

	return fmt.Errorf("unsupported record type %T", rec)
}
