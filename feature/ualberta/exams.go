package ualberta

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"unisync/core/catalog"
	"unisync/core/source"
	"unisync/core/utils"
)

// Column aliases in the exam spreadsheet, compared after normalizing case
// and dropping spaces and underscores.
var (
	colCourse   = []string{"course", "coursecode", "class"}
	colSection  = []string{"section", "sectioncode", "component"}
	colTerm     = []string{"term", "session"}
	colType     = []string{"type", "examtype"}
	colDate     = []string{"date", "examdate"}
	colStart    = []string{"start", "starttime", "time"}
	colEnd      = []string{"end", "endtime"}
	colLocation = []string{"location", "room", "building"}
	colDuration = []string{"duration", "durationminutes", "length"}
)

var dateLayouts = []string{
	catalog.DateLayout,
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
}

var timeLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm", "3 PM", "3PM"}

// row is one spreadsheet line with normalized column names.
type row map[string]any

func (r row) get(names []string) string {
	for _, n := range names {
		if v, ok := r[n]; ok {
			if s := strings.TrimSpace(utils.ToString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func normalizeColumn(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name)
}

// decodeRows accepts a bare array of row objects or an object wrapping it
// under data, rows or items.
func decodeRows(body []byte) ([]row, error) {
	var raw json.RawMessage = body
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err == nil {
		raw = nil
		for _, key := range []string{"data", "rows", "items"} {
			if v, ok := wrapper[key]; ok {
				raw = v
				break
			}
		}
		if raw == nil {
			return nil, fmt.Errorf("no data, rows or items field")
		}
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("invalid exam rows: %w", err)
	}

	rows := make([]row, len(items))
	for i, item := range items {
		r := make(row, len(item))
		for k, v := range item {
			r[normalizeColumn(k)] = v
		}
		rows[i] = r
	}
	return rows, nil
}

// examRows fetches and decodes the spreadsheet.
func (a *Adapter) examRows(ctx context.Context) ([]row, error) {
	body, err := a.client.Get(ctx, a.exams)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, source.NewFetchError(source.KindBadResponse, a.exams, err)
	}
	return rows, nil
}

// examRecords derives terms, sections or exams from the spreadsheet. Terms
// and sections are implied by the exam rows and deduplicated.
func (a *Adapter) examRecords(ctx context.Context, category catalog.Category) source.Sequence {
	return func(yield func(catalog.Record, error) bool) {
		rows, err := a.examRows(ctx)
		if err != nil {
			yield(nil, err)
			return
		}

		seen := make(map[string]bool)
		for i, r := range rows {
			exam, term, err := a.parseExam(r)
			if err != nil {
				if !yield(nil, source.NewParseError("row "+strconv.Itoa(i+1), err)) {
					return
				}
				continue
			}

			var rec catalog.Record
			switch category {
			case catalog.CategoryTerm:
				rec = term
			case catalog.CategorySection:
				rec = catalog.Section{
					CourseCode:  exam.CourseCode,
					TermCode:    exam.TermCode,
					SectionCode: exam.SectionCode,
					Metadata:    catalog.Metadata{"source": "exam_schedule"},
				}
			default:
				rec = exam
			}

			key := rec.NaturalKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// parseExam normalizes one row into an exam and the term it belongs to.
func (a *Adapter) parseExam(r row) (catalog.Exam, catalog.Term, error) {
	course := strings.ReplaceAll(r.get(colCourse), " ", "")
	if course == "" {
		return catalog.Exam{}, catalog.Term{}, fmt.Errorf("missing course")
	}
	section := utils.CleanText(r.get(colSection))
	if section == "" {
		return catalog.Exam{}, catalog.Term{}, fmt.Errorf("%s: missing section", course)
	}

	var date time.Time
	if raw := r.get(colDate); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return catalog.Exam{}, catalog.Term{}, fmt.Errorf("%s: %w", course, err)
		}
		date = d
	}

	term, err := a.deriveTerm(r.get(colTerm), date)
	if err != nil {
		return catalog.Exam{}, catalog.Term{}, fmt.Errorf("%s: %w", course, err)
	}

	exam := catalog.Exam{
		CourseCode:  course,
		TermCode:    term.Code,
		SectionCode: section,
		ExamType:    r.get(colType),
		Location:    r.get(colLocation),
	}
	if !date.IsZero() {
		exam.Date = date.Format(catalog.DateLayout)
	}

	start, startOK := parseClock(r.get(colStart))
	end, endOK := parseClock(r.get(colEnd))
	if startOK {
		exam.StartTime = start.Format("15:04")
	}
	if endOK {
		exam.EndTime = end.Format("15:04")
	}
	if d := utils.ToIntPtr(r.get(colDuration)); d != nil {
		exam.DurationMinutes = d
	} else if startOK && endOK && end.After(start) {
		minutes := int(end.Sub(start).Minutes())
		exam.DurationMinutes = &minutes
	}
	return exam, term, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = utils.CleanText(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func parseClock(raw string) (time.Time, bool) {
	raw = utils.CleanText(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// season bounds, by month.
var seasons = []struct {
	name       string
	start, end time.Month
}{
	{"Winter", time.January, time.April},
	{"Spring", time.May, time.June},
	{"Summer", time.July, time.August},
	{"Fall", time.September, time.December},
}

// deriveTerm builds the term from a label like "Winter Term 2025" or, when
// the row has none, from the exam date. Codes are condensed to "Winter2025".
func (a *Adapter) deriveTerm(label string, date time.Time) (catalog.Term, error) {
	season, year := "", 0
	if label != "" {
		for _, f := range strings.Fields(label) {
			if n, err := strconv.Atoi(f); err == nil && n > 1900 {
				year = n
				continue
			}
			for _, s := range seasons {
				if strings.EqualFold(f, s.name) || (strings.EqualFold(f, "autumn") && s.name == "Fall") {
					season = s.name
				}
			}
		}
	}
	if (season == "" || year == 0) && !date.IsZero() {
		year = date.Year()
		for _, s := range seasons {
			if date.Month() >= s.start && date.Month() <= s.end {
				season = s.name
			}
		}
	}
	if season == "" || year == 0 {
		return catalog.Term{}, fmt.Errorf("cannot determine term from %q", label)
	}

	term := catalog.Term{
		Code: fmt.Sprintf("%s%d", season, year),
		Name: fmt.Sprintf("%s Term %d", season, year),
	}
	for _, s := range seasons {
		if s.name != season {
			continue
		}
		start := time.Date(year, s.start, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, s.end+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		term.StartDate = start.Format(catalog.DateLayout)
		term.EndDate = end.Format(catalog.DateLayout)

		now := a.now().UTC()
		term.IsActive = !now.Before(start) && now.Before(end.AddDate(0, 0, 1))
	}
	return term, nil
}
