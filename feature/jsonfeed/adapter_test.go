package jsonfeed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"unisync/core/catalog"
	"unisync/core/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T, srv *httptest.Server, endpoints map[string]string, options map[string]string) *Adapter {
	t.Helper()
	a, err := New(source.Institution{
		Code:      "example",
		Name:      "Example University",
		Adapter:   Kind,
		BaseURL:   srv.URL,
		Endpoints: endpoints,
		Options:   options,
	}, nil)
	require.NoError(t, err)
	return a
}

func drain(t *testing.T, a *Adapter, category catalog.Category, hint source.Hint) (source.Batch, error) {
	t.Helper()
	ctx := context.Background()
	return source.Drain(ctx, a.Fetch(ctx, category, hint))
}

func TestNew(t *testing.T) {
	_, err := New(source.Institution{Code: "x", Name: "X"}, nil)
	assert.ErrorContains(t, err, "base_url is required")

	_, err = New(source.Institution{Code: "x", Name: "X", BaseURL: "http://x"}, nil)
	assert.ErrorContains(t, err, "no endpoints")

	_, err = New(source.Institution{Code: "x", Name: "X", BaseURL: "http://x",
		Endpoints: map[string]string{"rooms": "/rooms"}}, nil)
	assert.ErrorContains(t, err, "unknown category")

	a, err := New(source.Institution{Code: "x", Name: "X", BaseURL: "http://x",
		Endpoints: map[string]string{"course": "/c", "faculty": "/f"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Category{catalog.CategoryFaculty, catalog.CategoryCourse}, a.Categories())
}

func TestFetch_PageNumbers(t *testing.T) {
	var (
		mu    sync.Mutex
		pages []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		pages = append(pages, r.URL.Query().Get("page"))
		mu.Unlock()

		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `[{"code":"CMPUT174","name":"Intro I","credit_hours":3},{"code":"CMPUT175","name":"Intro II"}]`)
		case "2":
			fmt.Fprint(w, `[{"code":"MATH100","name":"Calculus","credit_hours":"three"}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer srv.Close()

	a := newAdapter(t, srv, map[string]string{"course": "/courses?page={page}"}, nil)
	b, err := drain(t, a, catalog.CategoryCourse, source.FullHint())
	require.NoError(t, err)

	require.Len(t, b.Records, 2)
	first := b.Records[0].(catalog.Course)
	assert.Equal(t, "CMPUT174", first.Code)
	assert.Equal(t, 3.0, *first.CreditHours)
	require.Len(t, b.ParseErrors, 1)
	assert.Equal(t, "page 2 item 1", b.ParseErrors[0].Ref)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"1", "2", "3"}, pages)
}

func TestFetch_NextLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/subjects":
			fmt.Fprint(w, `{"data":[{"code":"CMPUT","name":"Computing Science","faculty_codes":["SC"]}],"next":"/subjects/2"}`)
		case "/subjects/2":
			fmt.Fprint(w, `{"data":[{"code":"HIST","name":"History"}],"links":{"next":null}}`)
		}
	}))
	defer srv.Close()

	a := newAdapter(t, srv, map[string]string{"subject": "/subjects"}, nil)
	b, err := drain(t, a, catalog.CategorySubject, source.FullHint())
	require.NoError(t, err)
	require.Len(t, b.Records, 2)
	assert.Equal(t, []string{"SC"}, b.Records[0].(catalog.Subject).FacultyCodes)
	assert.Equal(t, "HIST", b.Records[1].NaturalKey())
}

func TestFetch_SinceHint(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.URL.Query().Get("since"))
		mu.Unlock()
		fmt.Fprint(w, `{"items":[]}`)
	}))
	defer srv.Close()

	a := newAdapter(t, srv, map[string]string{"instructor": "/people?since={since}"}, nil)

	_, err := drain(t, a, catalog.CategoryInstructor, source.FullHint())
	require.NoError(t, err)
	since := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	_, err = drain(t, a, catalog.CategoryInstructor, source.IncrementalSince(since))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", "2024-09-01T12:00:00Z"}, got)
}

func TestFetch_Errors(t *testing.T) {
	t.Run("Unsupported category", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		a := newAdapter(t, srv, map[string]string{"course": "/c"}, nil)

		_, err := drain(t, a, catalog.CategoryExam, source.FullHint())
		assert.ErrorIs(t, err, source.ErrUnsupportedCategory)
	})

	t.Run("Top level not a list", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"message":"maintenance"}`)
		}))
		defer srv.Close()
		a := newAdapter(t, srv, map[string]string{"course": "/c"}, nil)

		_, err := drain(t, a, catalog.CategoryCourse, source.FullHint())
		var fe *source.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, source.KindBadResponse, fe.Kind)
		assert.False(t, fe.Retryable())
	})

	t.Run("Server error is retryable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		a := newAdapter(t, srv, map[string]string{"course": "/c"}, nil)

		_, err := drain(t, a, catalog.CategoryCourse, source.FullHint())
		var fe *source.FetchError
		require.ErrorAs(t, err, &fe)
		assert.True(t, fe.Retryable())
	})

	t.Run("Page limit", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[{"code":"AR","name":"Arts"}]`)
		}))
		defer srv.Close()
		a := newAdapter(t, srv, map[string]string{"faculty": "/f?p={page}"}, map[string]string{"max_pages": "3"})

		b, err := drain(t, a, catalog.CategoryFaculty, source.FullHint())
		assert.ErrorContains(t, err, "more than 3 pages")
		assert.Len(t, b.Records, 3)
	})
}

func TestFetch_Restartable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"code":"AR","name":"Arts"},{"code":"SC","name":"Science"}]`)
	}))
	defer srv.Close()
	a := newAdapter(t, srv, map[string]string{"faculty": "/f"}, nil)

	seq := a.Fetch(context.Background(), catalog.CategoryFaculty, source.FullHint())
	for range seq {
		break
	}
	n := 0
	for rec, err := range seq {
		require.NoError(t, err)
		require.NotNil(t, rec)
		n++
	}
	assert.Equal(t, 2, n)
}
