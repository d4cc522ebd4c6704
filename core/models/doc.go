// Package models contains the GORM models for the academic catalog schema.
//
// The models carry the composite unique constraints that make natural keys
// unique per institution, and `unisync migrate` creates them through GORM
// auto-migration:
//
//	universities      (code)
//	faculties         (university_id, code)
//	subjects          (university_id, code)
//	terms             (university_id, code)
//	courses           (university_id, code)
//	course_sections   (course_id, term_id, section_code)
//	exam_schedules    (course_section_id, exam_type)
//	instructors       (university_id, source_key)
//
// Each entity model offers ToRecord and Assign to convert between the row and
// its catalog.Record form. Metadata bags live in the JSON 'meta' column.
package models
