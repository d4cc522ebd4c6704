package models

import (
	"time"

	"unisync/core/catalog"
)

// University represents the 'universities' table.
type University struct {
	ID        uint             `gorm:"column:id;primaryKey"`
	Code      string           `gorm:"column:code;size:50;not null;uniqueIndex"`
	Name      string           `gorm:"column:name;size:255;not null"`
	Country   string           `gorm:"column:country;size:100"`
	Region    string           `gorm:"column:state_province;size:100"`
	Website   string           `gorm:"column:website;size:255"`
	APIConfig catalog.Metadata `gorm:"column:api_config;type:text;serializer:json"`
	IsActive  bool             `gorm:"column:is_active;default:true"`
	CreatedAt time.Time        `gorm:"column:created_at"`
	UpdatedAt time.Time        `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (University) TableName() string { return "universities" }

// Faculty represents the 'faculties' table.
type Faculty struct {
	ID           uint             `gorm:"column:id;primaryKey"`
	UniversityID uint             `gorm:"column:university_id;not null;uniqueIndex:idx_faculties_university_code"`
	Code         string           `gorm:"column:code;size:50;not null;uniqueIndex:idx_faculties_university_code"`
	Name         string           `gorm:"column:name;size:255;not null"`
	Description  string           `gorm:"column:description;type:text"`
	WebsiteURL   string           `gorm:"column:website_url;size:500"`
	Meta         catalog.Metadata `gorm:"column:meta;type:text;serializer:json"`
	CreatedAt    time.Time        `gorm:"column:created_at"`
	UpdatedAt    time.Time        `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Faculty) TableName() string { return "faculties" }

// ToRecord converts the row to its normalized form.
func (f Faculty) ToRecord() catalog.Faculty {
	return catalog.Faculty{
		Code:        f.Code,
		Name:        f.Name,
		Description: f.Description,
		WebsiteURL:  f.WebsiteURL,
		Metadata:    f.Meta,
	}
}

// Assign copies the payload of a normalized record onto the row.
func (f *Faculty) Assign(r catalog.Faculty) {
	f.Code = r.NaturalKey()
	f.Name = r.Name
	f.Description = r.Description
	f.WebsiteURL = r.WebsiteURL
	f.Meta = r.Metadata
}

// Subject represents the 'subjects' table.
type Subject struct {
	ID                  uint             `gorm:"column:id;primaryKey"`
	UniversityID        uint             `gorm:"column:university_id;not null;uniqueIndex:idx_subjects_university_code"`
	Code                string           `gorm:"column:code;size:50;not null;uniqueIndex:idx_subjects_university_code"`
	Name                string           `gorm:"column:name;size:255;not null"`
	Description         string           `gorm:"column:description;type:text"`
	FacultyAssociations []string         `gorm:"column:faculty_associations;type:text;serializer:json"`
	Meta                catalog.Metadata `gorm:"column:meta;type:text;serializer:json"`
	CreatedAt           time.Time        `gorm:"column:created_at"`
	UpdatedAt           time.Time        `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Subject) TableName() string { return "subjects" }

// ToRecord converts the row to its normalized form.
func (s Subject) ToRecord() catalog.Subject {
	return catalog.Subject{
		Code:         s.Code,
		Name:         s.Name,
		Description:  s.Description,
		FacultyCodes: s.FacultyAssociations,
		Metadata:     s.Meta,
	}
}

// Assign copies the payload of a normalized record onto the row.
func (s *Subject) Assign(r catalog.Subject) {
	s.Code = r.NaturalKey()
	s.Name = r.Name
	s.Description = r.Description
	s.FacultyAssociations = r.FacultyCodes
	s.Meta = r.Metadata
}

// Term represents the 'terms' table.
type Term struct {
	ID           uint             `gorm:"column:id;primaryKey"`
	UniversityID uint             `gorm:"column:university_id;not null;uniqueIndex:idx_terms_university_code"`
	Code         string           `gorm:"column:code;size:50;not null;uniqueIndex:idx_terms_university_code"`
	Name         string           `gorm:"column:name;size:100;not null"`
	StartDate    *time.Time       `gorm:"column:start_date;type:date"`
	EndDate      *time.Time       `gorm:"column:end_date;type:date"`
	IsActive     bool             `gorm:"column:is_active"`
	Meta         catalog.Metadata `gorm:"column:meta;type:text;serializer:json"`
	CreatedAt    time.Time        `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (Term) TableName() string { return "terms" }

// ToRecord converts the row to its normalized form.
func (t Term) ToRecord() catalog.Term {
	return catalog.Term{
		Code:      t.Code,
		Name:      t.Name,
		StartDate: formatDate(t.StartDate),
		EndDate:   formatDate(t.EndDate),
		IsActive:  t.IsActive,
		Metadata:  t.Meta,
	}
}

// Assign copies the payload of a normalized record onto the row.
func (t *Term) Assign(r catalog.Term) {
	t.Code = r.NaturalKey()
	t.Name = r.Name
	t.StartDate = parseDate(r.StartDate)
	t.EndDate = parseDate(r.EndDate)
	t.IsActive = r.IsActive
	t.Meta = r.Metadata
}

// Course represents the 'courses' table.
type Course struct {
	ID            uint             `gorm:"column:id;primaryKey"`
	UniversityID  uint             `gorm:"column:university_id;not null;uniqueIndex:idx_courses_university_code"`
	SubjectID     uint             `gorm:"column:subject_id;index"`
	Code          string           `gorm:"column:code;size:50;not null;uniqueIndex:idx_courses_university_code"`
	Name          string           `gorm:"column:name;size:500;not null"`
	Description   string           `gorm:"column:description;type:text"`
	CreditHours   *float64         `gorm:"column:credit_hours"`
	Level         string           `gorm:"column:level;size:50"`
	Prerequisites string           `gorm:"column:prerequisites;type:text"`
	Corequisites  string           `gorm:"column:corequisites;type:text"`
	Exclusions    string           `gorm:"column:exclusions;type:text"`
	WebsiteURL    string           `gorm:"column:website_url;size:500"`
	FeeInfo       catalog.Metadata `gorm:"column:fee_info;type:text;serializer:json"`
	ScheduleInfo  catalog.Metadata `gorm:"column:schedule_info;type:text;serializer:json"`
	Meta          catalog.Metadata `gorm:"column:meta;type:text;serializer:json"`
	CreatedAt     time.Time        `gorm:"column:created_at"`
	UpdatedAt     time.Time        `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Course) TableName() string { return "courses" }

// ToRecord converts the row to its normalized form. The subject is carried
// as a storage reference, so SubjectCode is left for the caller to fill.
func (c Course) ToRecord() catalog.Course {
	return catalog.Course{
		Code:          c.Code,
		Name:          c.Name,
		Description:   c.Description,
		CreditHours:   c.CreditHours,
		Level:         c.Level,
		Prerequisites: c.Prerequisites,
		Corequisites:  c.Corequisites,
		Exclusions:    c.Exclusions,
		WebsiteURL:    c.WebsiteURL,
		Fees:          c.FeeInfo,
		Schedule:      c.ScheduleInfo,
		Metadata:      c.Meta,
	}
}

// Assign copies the payload of a normalized record onto the row.
func (c *Course) Assign(r catalog.Course) {
	c.Code = r.NaturalKey()
	c.Name = r.Name
	c.Description = r.Description
	c.CreditHours = r.CreditHours
	c.Level = r.Level
	c.Prerequisites = r.Prerequisites
	c.Corequisites = r.Corequisites
	c.Exclusions = r.Exclusions
	c.WebsiteURL = r.WebsiteURL
	c.FeeInfo = r.Fees
	c.ScheduleInfo = r.Schedule
	c.Meta = r.Metadata
}

// CourseSection represents the 'course_sections' table.
type CourseSection struct {
	ID             uint             `gorm:"column:id;primaryKey"`
	CourseID       uint             `gorm:"column:course_id;not null;uniqueIndex:idx_sections_course_term_code"`
	TermID         uint             `gorm:"column:term_id;not null;uniqueIndex:idx_sections_course_term_code"`
	SectionCode    string           `gorm:"column:section_code;size:50;not null;uniqueIndex:idx_sections_course_term_code"`
	SectionType    string           `gorm:"column:section_type;size:50"`
	Capacity       *int             `gorm:"column:capacity"`
	Enrolled       *int             `gorm:"column:enrolled"`
	Waitlist       *int             `gorm:"column:waitlist"`
	Status         string           `gorm:"column:status;size:50"`
	InstructorInfo catalog.Metadata `gorm:"column:instructor_info;type:text;serializer:json"`
	Schedule       catalog.Metadata `gorm:"column:schedule;type:text;serializer:json"`
	Meta           catalog.Metadata `gorm:"column:meta;type:text;serializer:json"`
	CreatedAt      time.Time        `gorm:"column:created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (CourseSection) TableName() string { return "course_sections" }

// ToRecord converts the row to its normalized form given the natural keys of
// its course and term.
func (s CourseSection) ToRecord(courseCode, termCode string) catalog.Section {
	return catalog.Section{
		CourseCode:  courseCode,
		TermCode:    termCode,
		SectionCode: s.SectionCode,
		SectionType: s.SectionType,
		Capacity:    s.Capacity,
		Enrolled:    s.Enrolled,
		Waitlist:    s.Waitlist,
		Status:      s.Status,
		Instructors: s.InstructorInfo,
		Schedule:    s.Schedule,
		Metadata:    s.Meta,
	}
}

// Assign copies the payload of a normalized record onto the row.
func (s *CourseSection) Assign(r catalog.Section) {
	s.SectionCode = sectionCode(r.NaturalKey())
	s.SectionType = r.SectionType
	s.Capacity = r.Capacity
	s.Enrolled = r.Enrolled
	s.Waitlist = r.Waitlist
	s.Status = r.Status
	s.InstructorInfo = r.Instructors
	s.Schedule = r.Schedule
	s.Meta = r.Metadata
}

// ExamSchedule represents the 'exam_schedules' table.
type ExamSchedule struct {
	ID                  uint             `gorm:"column:id;primaryKey"`
	CourseSectionID     uint             `gorm:"column:course_section_id;not null;uniqueIndex:idx_exams_section_type"`
	ExamType            string           `gorm:"column:exam_type;size:50;not null;uniqueIndex:idx_exams_section_type"`
	ExamDate            *time.Time       `gorm:"column:exam_date;type:date"`
	StartTime           string           `gorm:"column:start_time;size:8"`
	EndTime             string           `gorm:"column:end_time;size:8"`
	Location            string           `gorm:"column:location;size:255"`
	DurationMinutes     *int             `gorm:"column:duration_minutes"`
	SpecialInstructions string           `gorm:"column:special_instructions;type:text"`
	Meta                catalog.Metadata `gorm:"column:meta;type:text;serializer:json"`
	CreatedAt           time.Time        `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (ExamSchedule) TableName() string { return "exam_schedules" }

// ToRecord converts the row to its normalized form given the parent
// section's natural key components.
func (e ExamSchedule) ToRecord(courseCode, termCode, sectionCode string) catalog.Exam {
	return catalog.Exam{
		CourseCode:      courseCode,
		TermCode:        termCode,
		SectionCode:     sectionCode,
		ExamType:        e.ExamType,
		Date:            formatDate(e.ExamDate),
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		Location:        e.Location,
		DurationMinutes: e.DurationMinutes,
		Instructions:    e.SpecialInstructions,
		Metadata:        e.Meta,
	}
}

// Assign copies the payload of a normalized record onto the row.
func (e *ExamSchedule) Assign(r catalog.Exam) {
	e.ExamType = r.Type()
	e.ExamDate = parseDate(r.Date)
	e.StartTime = r.StartTime
	e.EndTime = r.EndTime
	e.Location = r.Location
	e.DurationMinutes = r.DurationMinutes
	e.SpecialInstructions = r.Instructions
	e.Meta = r.Metadata
}

// Instructor represents the 'instructors' table. SourceKey holds the natural
// key used for reconciliation since employee ids are optional upstream.
type Instructor struct {
	ID             uint             `gorm:"column:id;primaryKey"`
	UniversityID   uint             `gorm:"column:university_id;not null;uniqueIndex:idx_instructors_university_key"`
	SourceKey      string           `gorm:"column:source_key;size:255;not null;uniqueIndex:idx_instructors_university_key"`
	EmployeeID     string           `gorm:"column:employee_id;size:100"`
	FirstName      string           `gorm:"column:first_name;size:100"`
	LastName       string           `gorm:"column:last_name;size:100"`
	Title          string           `gorm:"column:title;size:100"`
	Department     string           `gorm:"column:department;size:255"`
	Email          string           `gorm:"column:email;size:255"`
	Phone          string           `gorm:"column:phone;size:50"`
	OfficeLocation string           `gorm:"column:office_location;size:255"`
	ResearchAreas  []string         `gorm:"column:research_areas;type:text;serializer:json"`
	Meta           catalog.Metadata `gorm:"column:meta;type:text;serializer:json"`
	CreatedAt      time.Time        `gorm:"column:created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (Instructor) TableName() string { return "instructors" }

// ToRecord converts the row to its normalized form.
func (i Instructor) ToRecord() catalog.Instructor {
	return catalog.Instructor{
		EmployeeID:    i.EmployeeID,
		Email:         i.Email,
		FirstName:     i.FirstName,
		LastName:      i.LastName,
		Title:         i.Title,
		Department:    i.Department,
		Phone:         i.Phone,
		Office:        i.OfficeLocation,
		ResearchAreas: i.ResearchAreas,
		Metadata:      i.Meta,
	}
}

// Assign copies the payload of a normalized record onto the row.
func (i *Instructor) Assign(r catalog.Instructor) {
	i.SourceKey = r.NaturalKey()
	i.EmployeeID = r.EmployeeID
	i.FirstName = r.FirstName
	i.LastName = r.LastName
	i.Title = r.Title
	i.Department = r.Department
	i.Email = r.Email
	i.Phone = r.Phone
	i.OfficeLocation = r.Office
	i.ResearchAreas = r.ResearchAreas
	i.Meta = r.Metadata
}

// SyncError is one attributable error stored with a sync log entry.
type SyncError struct {
	Kind    string `json:"kind"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

// SyncLog represents the 'sync_logs' table. Rows are written once when a run
// is finalized and never updated.
type SyncLog struct {
	ID               uint             `gorm:"column:id;primaryKey"`
	RunID            string           `gorm:"column:run_id;size:36;not null;uniqueIndex"`
	UniversityID     uint             `gorm:"column:university_id;not null;index:idx_sync_logs_lookup,priority:1"`
	DataType         string           `gorm:"column:data_type;size:100;not null;index:idx_sync_logs_lookup,priority:2"`
	SyncStatus       string           `gorm:"column:sync_status;size:50;not null"`
	RecordsProcessed int              `gorm:"column:records_processed"`
	ErrorsCount      int              `gorm:"column:errors_count"`
	ErrorDetails     []SyncError      `gorm:"column:error_details;type:text;serializer:json"`
	StartedAt        time.Time        `gorm:"column:started_at;index:idx_sync_logs_lookup,priority:3"`
	CompletedAt      time.Time        `gorm:"column:completed_at"`
	Meta             catalog.Metadata `gorm:"column:meta;type:text;serializer:json"`
}

// TableName overrides the table name.
func (SyncLog) TableName() string { return "sync_logs" }

// All returns every model in dependency order, for migrations and schema checks.
func All() []any {
	return []any{
		&University{},
		&Faculty{},
		&Subject{},
		&Term{},
		&Course{},
		&CourseSection{},
		&ExamSchedule{},
		&Instructor{},
		&SyncLog{},
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(catalog.DateLayout)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(catalog.DateLayout, s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// sectionCode extracts the section component of a section natural key.
func sectionCode(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == catalog.KeySeparator[0] {
			return key[i+1:]
		}
	}
	return key
}
