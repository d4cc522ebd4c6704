// Package catalog defines the normalized academic records exchanged between
// source adapters and the reconciler.
//
// # Categories
//
// Every record belongs to exactly one Category. The set is fixed at compile
// time and ordered by dependency: faculties, subjects, terms and instructors
// stand alone, courses reference subjects, sections reference a course and a
// term, and exams reference a section. Stages groups a set of categories so
// that parents are always synchronized before their children.
//
// # Natural keys
//
// A record's identity within an institution is its natural key, derived from
// the payload:
//
//	faculty, subject, term, course   CODE
//	section                          COURSE|TERM|SECTION
//	exam                             COURSE|TERM|SECTION|type
//	instructor                       employee id, else lower-cased e-mail
//
// Codes are normalized (upper case, no whitespace) so that "cmput 401" and
// "CMPUT401" are the same course.
//
// # Comparison
//
// Diff compares a stored record against an incoming one field by field and
// reports every mismatch. Metadata bags are compared as a whole after a JSON
// round trip, so values decoded from storage compare equal to freshly parsed
// ones.
package catalog
