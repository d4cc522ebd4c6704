// Package ualberta implements the source adapter for the University of
// Alberta.
//
// Faculties, subjects and courses are scraped from the public catalogue at
// apps.ualberta.ca with goquery:
//   - The catalogue index lists faculties as "AR - Faculty of Arts" links.
//   - Each faculty page lists its subjects; a subject offered by several
//     faculties is reported once with every faculty code.
//   - Each subject page lists course blocks. The units line
//     "★ 3 (fi 6)(EITHER, 3-0-3)" yields the credit weight, the fee index and
//     the lecture, seminar and lab hours. Prerequisites and corequisites are
//     split off the description paragraph.
//
// Terms, sections and exams come from the exam schedule spreadsheet feed.
// Terms and sections are implied by the exam rows: a row without a term
// label is placed in the season of its exam date (Winter, Spring, Summer or
// Fall).
//
// Requests are paced at one every two seconds by default. A faculty or
// subject page that answers with a permanent error is skipped as a parse
// error; transport failures abort the fetch so the orchestrator can retry.
package ualberta
