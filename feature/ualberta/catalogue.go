package ualberta

import (
	"context"
	"strings"

	"unisync/core/catalog"
	"unisync/core/source"
	"unisync/core/utils"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	facultySelector = "div.col.col-md-6.col-lg-5.offset-lg-2 li a"
	subjectSelector = "div.content div.container ul li a"
	courseSelector  = "div.course.first"
)

// link is a "CODE - Name" anchor from a catalogue listing.
type link struct {
	Code string
	Name string
	URL  string
}

// splitTitle splits "AR - Faculty of Arts" into code and name.
func splitTitle(title string) (code, name string, ok bool) {
	code, name, ok = strings.Cut(utils.CleanText(title), " - ")
	if !ok || strings.TrimSpace(code) == "" || strings.TrimSpace(name) == "" {
		return "", "", false
	}
	return strings.TrimSpace(code), strings.TrimSpace(name), true
}

// listing extracts the "CODE - Name" anchors matched by selector.
func (a *Adapter) listing(doc *goquery.Document, selector string) []link {
	var out []link
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		code, name, ok := splitTitle(s.Text())
		if !ok {
			return
		}
		href, _ := s.Attr("href")
		url, err := a.client.Resolve(href)
		if err != nil {
			url = href
		}
		out = append(out, link{Code: code, Name: name, URL: url})
	})
	return out
}

func (a *Adapter) facultyLinks(ctx context.Context) ([]link, error) {
	doc, err := a.document(ctx, a.catalogue)
	if err != nil {
		return nil, err
	}
	return a.listing(doc, facultySelector), nil
}

func (a *Adapter) faculties(ctx context.Context) source.Sequence {
	return func(yield func(catalog.Record, error) bool) {
		links, err := a.facultyLinks(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, l := range links {
			if !yield(catalog.Faculty{Code: l.Code, Name: l.Name, WebsiteURL: l.URL}, nil) {
				return
			}
		}
	}
}

// subjectLinks walks every faculty page and merges subjects offered by
// several faculties. Faculty pages that answer permanently wrong are
// reported through skip and left out.
func (a *Adapter) subjectLinks(ctx context.Context, skip func(ref string, err error) bool) ([]catalog.Subject, []link, error) {
	faculties, err := a.facultyLinks(ctx)
	if err != nil {
		return nil, nil, err
	}

	var (
		subjects []catalog.Subject
		links    []link
		index    = make(map[string]int)
	)
	for _, f := range faculties {
		doc, err := a.document(ctx, f.URL)
		if err != nil {
			if skippable(err) {
				if !skip("faculty "+f.Code, err) {
					return nil, nil, nil
				}
				continue
			}
			return nil, nil, err
		}

		for _, l := range a.listing(doc, subjectSelector) {
			key := catalog.NormalizeCode(l.Code)
			if i, ok := index[key]; ok {
				subjects[i].FacultyCodes = append(subjects[i].FacultyCodes, f.Code)
				continue
			}
			index[key] = len(subjects)
			subjects = append(subjects, catalog.Subject{
				Code:         l.Code,
				Name:         l.Name,
				FacultyCodes: []string{f.Code},
				Metadata:     catalog.Metadata{"url": l.URL},
			})
			links = append(links, l)
		}
	}
	return subjects, links, nil
}

func (a *Adapter) subjects(ctx context.Context) source.Sequence {
	return func(yield func(catalog.Record, error) bool) {
		subjects, _, err := a.subjectLinks(ctx, func(ref string, err error) bool {
			return yield(nil, source.NewParseError(ref, err))
		})
		if err != nil {
			yield(nil, err)
			return
		}
		for _, s := range subjects {
			if !yield(s, nil) {
				return
			}
		}
	}
}

func (a *Adapter) courses(ctx context.Context) source.Sequence {
	return func(yield func(catalog.Record, error) bool) {
		stopped := false
		skip := func(ref string, err error) bool {
			if !yield(nil, source.NewParseError(ref, err)) {
				stopped = true
				return false
			}
			return true
		}

		_, subjects, err := a.subjectLinks(ctx, skip)
		if err != nil {
			yield(nil, err)
			return
		}
		if stopped {
			return
		}

		for _, subj := range subjects {
			doc, err := a.document(ctx, subj.URL)
			if err != nil {
				if skippable(err) {
					if !skip("subject "+subj.Code, err) {
						return
					}
					continue
				}
				yield(nil, err)
				return
			}

			n := 0
			var stop bool
			doc.Find(courseSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				course, err := a.parseCourse(s, subj.Code)
				if err != nil {
					stop = !yield(nil, err)
				} else {
					n++
					stop = !yield(course, nil)
				}
				return !stop
			})
			if stop {
				return
			}
			a.logger.Debug("Parsed subject courses", zap.String("subject", subj.Code), zap.Int("courses", n))
		}
	}
}

// parseCourse turns one course block into a record.
func (a *Adapter) parseCourse(s *goquery.Selection, subjectCode string) (catalog.Course, error) {
	heading := s.Find("h2.flex-grow-1").First()
	title := strings.TrimSpace(heading.Text())
	if line, _, found := strings.Cut(title, "\n"); found {
		title = line
	}
	rawCode, name, ok := splitTitle(title)
	if !ok {
		return catalog.Course{}, source.NewParseError("subject "+subjectCode, errMissingTitle(title))
	}

	code := strings.ReplaceAll(rawCode, " ", "")
	course := catalog.Course{
		Code:        code,
		SubjectCode: strings.ReplaceAll(subjectCode, " ", ""),
		Name:        name,
		Level:       catalog.LevelFromCourseCode(code),
	}

	if href, ok := s.Find("a").First().Attr("href"); ok && href != "" {
		if url, err := a.client.Resolve(href); err == nil {
			course.WebsiteURL = url
		}
	}

	units := parseUnits(s.Find("b").First().Text())
	course.CreditHours = units.Weight
	if units.FeeIndex != "" {
		course.Fees = catalog.Metadata{"fee_index": units.FeeIndex}
	}
	course.Schedule = units.Schedule()

	course.Description, course.Prerequisites, course.Corequisites = splitDescription(s.Find("p").First().Text())
	return course, nil
}
