package ualberta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"unisync/core/catalog"
	"unisync/core/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cataloguePage = `<html><body>
<div class="col col-md-6 col-lg-5 offset-lg-2">
  <ul>
    <li><a href="/catalogue/faculty/ar">AR - Faculty of Arts</a></li>
    <li><a href="/catalogue/faculty/sc">SC - Faculty of Science</a></li>
    <li><a href="/catalogue/faculty/xx">XX - Closed Faculty</a></li>
    <li><a href="/catalogue/other">Not a faculty</a></li>
  </ul>
</div>
</body></html>`

const artsPage = `<html><body><div class="content"><div class="container"><ul>
  <li><a href="/catalogue/course/hist">HIST - History</a></li>
  <li><a href="/catalogue/course/wkexp">WKEXP - Work Experience</a></li>
</ul></div></div></body></html>`

const sciencePage = `<html><body><div class="content"><div class="container"><ul>
  <li><a href="/catalogue/course/cmput">CMPUT - Computing Science</a></li>
  <li><a href="/catalogue/course/wkexp">WKEXP - Work Experience</a></li>
</ul></div></div></body></html>`

const cmputPage = `<html><body>
<div class="course first">
  <h2 class="flex-grow-1"><a href="/catalogue/course/cmput/174">CMPUT 174 - Introduction to the Foundations of Computation I</a>
  </h2>
  <b>★ 3 (fi 6)(EITHER, 3-0-3)</b>
  <p>Introduces computation and programming. Prerequisite: Math 30-1. Corequisite: MATH 125.</p>
</div>
<div class="course first">
  <h2 class="flex-grow-1"><a href="/catalogue/course/cmput/401">CMPUT 401 - Software Process and Product Management</a></h2>
  <b>★ 3 (fi 6)(SECOND, 3-0-0)</b>
  <p>Team based software development.</p>
</div>
<div class="course first">
  <h2 class="flex-grow-1">Untitled block</h2>
</div>
</body></html>`

const examFeed = `{"data": [
  {"Course": "CMPUT 174", "Section": "LEC A1", "Term": "Fall Term 2024", "Date": "2024-12-10", "Start Time": "9:00 AM", "End Time": "12:00 PM", "Location": "PAV"},
  {"Course": "CMPUT 174", "Section": "LEC A1", "Term": "Fall Term 2024", "Date": "2024-12-10", "Start Time": "9:00 AM", "End Time": "12:00 PM", "Location": "PAV"},
  {"Course": "CMPUT 401", "Section": "LEC B1", "Date": "April 22, 2025", "Start": "14:00", "Duration": "120"},
  {"Course": "", "Section": "LEC A1"},
  {"Course": "MATH 100", "Section": "LEC A1", "Date": "someday"}
]}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/catalogue", page(cataloguePage))
	mux.HandleFunc("/catalogue/faculty/ar", page(artsPage))
	mux.HandleFunc("/catalogue/faculty/sc", page(sciencePage))
	mux.HandleFunc("/catalogue/course/cmput", page(cmputPage))
	mux.HandleFunc("/catalogue/course/hist", page(`<html><body></body></html>`))
	mux.HandleFunc("/catalogue/course/wkexp", page(`<html><body></body></html>`))
	mux.HandleFunc("/exams", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(examFeed))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newAdapter(t *testing.T, srv *httptest.Server) *Adapter {
	t.Helper()
	inst := Institution()
	inst.BaseURL = srv.URL
	inst.RequestInterval = time.Nanosecond
	inst.Endpoints = map[string]string{EndpointExams: "/exams"}

	a, err := New(inst, nil)
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC) }
	return a
}

func drain(t *testing.T, a *Adapter, category catalog.Category) source.Batch {
	t.Helper()
	ctx := context.Background()
	b, err := source.Drain(ctx, a.Fetch(ctx, category, source.FullHint()))
	require.NoError(t, err)
	return b
}

func TestFetchFaculties(t *testing.T) {
	srv := newServer(t)
	b := drain(t, newAdapter(t, srv), catalog.CategoryFaculty)

	require.Len(t, b.Records, 3)
	arts := b.Records[0].(catalog.Faculty)
	assert.Equal(t, "AR", arts.Code)
	assert.Equal(t, "Faculty of Arts", arts.Name)
	assert.Equal(t, srv.URL+"/catalogue/faculty/ar", arts.WebsiteURL)
	assert.Empty(t, b.ParseErrors)
}

func TestFetchSubjects(t *testing.T) {
	b := drain(t, newAdapter(t, newServer(t)), catalog.CategorySubject)

	require.Len(t, b.Records, 3)
	byCode := map[string]catalog.Subject{}
	for _, r := range b.Records {
		s := r.(catalog.Subject)
		byCode[s.Code] = s
	}
	assert.Equal(t, []string{"AR", "SC"}, byCode["WKEXP"].FacultyCodes)
	assert.Equal(t, []string{"SC"}, byCode["CMPUT"].FacultyCodes)

	// The closed faculty page answers 404 and is skipped.
	require.Len(t, b.ParseErrors, 1)
	assert.Equal(t, "faculty XX", b.ParseErrors[0].Ref)
}

func TestFetchCourses(t *testing.T) {
	srv := newServer(t)
	b := drain(t, newAdapter(t, srv), catalog.CategoryCourse)

	require.Len(t, b.Records, 2)
	intro := b.Records[0].(catalog.Course)
	assert.Equal(t, "CMPUT174", intro.Code)
	assert.Equal(t, "CMPUT", intro.SubjectCode)
	assert.Equal(t, "Introduction to the Foundations of Computation I", intro.Name)
	assert.Equal(t, catalog.LevelJunior, intro.Level)
	require.NotNil(t, intro.CreditHours)
	assert.Equal(t, 3.0, *intro.CreditHours)
	assert.Equal(t, catalog.Metadata{"fee_index": "6"}, intro.Fees)
	assert.Equal(t, catalog.Metadata{
		"term_pattern":  "EITHER",
		"lecture_hours": "3",
		"seminar_hours": "0",
		"lab_hours":     "3",
	}, intro.Schedule)
	assert.Equal(t, "Introduces computation and programming.", intro.Description)
	assert.Equal(t, "Math 30-1", intro.Prerequisites)
	assert.Equal(t, "MATH 125", intro.Corequisites)
	assert.Equal(t, srv.URL+"/catalogue/course/cmput/174", intro.WebsiteURL)
	assert.NoError(t, intro.Validate())

	senior := b.Records[1].(catalog.Course)
	assert.Equal(t, catalog.LevelSenior, senior.Level)
	assert.Empty(t, senior.Prerequisites)

	// One parse error for the closed faculty and one for the untitled block.
	assert.Len(t, b.ParseErrors, 2)
}

func TestFetchExamDerived(t *testing.T) {
	a := newAdapter(t, newServer(t))

	t.Run("Exams", func(t *testing.T) {
		b := drain(t, a, catalog.CategoryExam)
		require.Len(t, b.Records, 2)

		fall := b.Records[0].(catalog.Exam)
		assert.Equal(t, "CMPUT174", fall.CourseCode)
		assert.Equal(t, "Fall2024", fall.TermCode)
		assert.Equal(t, "LEC A1", fall.SectionCode)
		assert.Equal(t, "2024-12-10", fall.Date)
		assert.Equal(t, "09:00", fall.StartTime)
		assert.Equal(t, "12:00", fall.EndTime)
		require.NotNil(t, fall.DurationMinutes)
		assert.Equal(t, 180, *fall.DurationMinutes)
		assert.Equal(t, "CMPUT174|FALL2024|LEC A1|final", fall.NaturalKey())

		winter := b.Records[1].(catalog.Exam)
		assert.Equal(t, "Winter2025", winter.TermCode)
		assert.Equal(t, "2025-04-22", winter.Date)
		assert.Equal(t, 120, *winter.DurationMinutes)

		// Missing course and unparseable date.
		assert.Len(t, b.ParseErrors, 2)
	})

	t.Run("Terms", func(t *testing.T) {
		b := drain(t, a, catalog.CategoryTerm)
		require.Len(t, b.Records, 2)
		fall := b.Records[0].(catalog.Term)
		assert.Equal(t, "Fall2024", fall.Code)
		assert.Equal(t, "Fall Term 2024", fall.Name)
		assert.Equal(t, "2024-09-01", fall.StartDate)
		assert.Equal(t, "2024-12-31", fall.EndDate)
		assert.True(t, fall.IsActive)
		assert.False(t, b.Records[1].(catalog.Term).IsActive)
	})

	t.Run("Sections", func(t *testing.T) {
		b := drain(t, a, catalog.CategorySection)
		require.Len(t, b.Records, 2)
		assert.Equal(t, "CMPUT174|FALL2024|LEC A1", b.Records[0].NaturalKey())
	})
}

func TestFetchErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Unsupported category", func(t *testing.T) {
		a := newAdapter(t, newServer(t))
		_, err := source.Drain(ctx, a.Fetch(ctx, catalog.CategoryInstructor, source.FullHint()))
		assert.ErrorIs(t, err, source.ErrUnsupportedCategory)
	})

	t.Run("Catalogue down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := source.Drain(ctx, newAdapter(t, srv).Fetch(ctx, catalog.CategoryCourse, source.FullHint()))
		var fe *source.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, source.KindNetworkUnavailable, fe.Kind)
	})

	t.Run("Exam feed malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"unexpected": true}`))
		}))
		defer srv.Close()

		_, err := source.Drain(ctx, newAdapter(t, srv).Fetch(ctx, catalog.CategoryExam, source.FullHint()))
		var fe *source.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, source.KindBadResponse, fe.Kind)
	})

	t.Run("Early stop", func(t *testing.T) {
		a := newAdapter(t, newServer(t))
		n := 0
		for range a.Fetch(ctx, catalog.CategoryFaculty, source.FullHint()) {
			n++
			break
		}
		assert.Equal(t, 1, n)
	})
}

func TestParseUnits(t *testing.T) {
	u := parseUnits("★ 1.5 (fi 4)(VARIABLE, 0-3s-0)")
	require.NotNil(t, u.Weight)
	assert.Equal(t, 1.5, *u.Weight)
	assert.Equal(t, "4", u.FeeIndex)
	assert.Equal(t, "VARIABLE", u.Pattern)
	assert.Equal(t, "3s", u.Seminar)

	empty := parseUnits("")
	assert.Nil(t, empty.Weight)
	assert.Nil(t, empty.Schedule())
}

func TestWithDefaults(t *testing.T) {
	inst := WithDefaults(source.Institution{Code: Code, RequestInterval: time.Second})
	assert.Equal(t, "University of Alberta", inst.Name)
	assert.Equal(t, DefaultBaseURL, inst.BaseURL)
	assert.Equal(t, time.Second, inst.RequestInterval)
	assert.Equal(t, DefaultFetchTimeout, inst.FetchTimeout)

	inst = WithDefaults(source.Institution{Code: Code, FetchTimeout: time.Hour})
	assert.Equal(t, time.Hour, inst.FetchTimeout)
	assert.Equal(t, DefaultRequestInterval, inst.RequestInterval)
}

func TestDefaultFetchTimeoutCoversCatalogueCrawl(t *testing.T) {
	// The live catalogue lists a few hundred subject pages behind roughly
	// twenty faculty pages.
	const pagedRequests = 1 + 20 + 600
	assert.GreaterOrEqual(t, DefaultFetchTimeout, pagedRequests*DefaultRequestInterval)
}
