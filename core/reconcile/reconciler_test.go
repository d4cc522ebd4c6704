package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"unisync/core/catalog"
	"unisync/core/reconcile"
	"unisync/core/reconcile/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inst = "ualberta"

func subjects(codes ...string) []catalog.Record {
	out := make([]catalog.Record, 0, len(codes))
	for _, c := range codes {
		out = append(out, catalog.Subject{Code: c, Name: c + " subject"})
	}
	return out
}

func apply(t *testing.T, r *reconcile.Reconciler, category catalog.Category, records []catalog.Record) *reconcile.Result {
	t.Helper()
	res, err := r.Apply(context.Background(), inst, category, records, reconcile.ApplyOptions{})
	require.NoError(t, err)
	return res
}

func TestApply_InsertThenIdempotent(t *testing.T) {
	store := memstore.New()
	r := reconcile.New(store, nil)

	first := apply(t, r, catalog.CategorySubject, subjects("CMPUT", "MATH", "PHYS"))
	assert.Equal(t, 3, first.Inserted)
	assert.Equal(t, 0, first.Updated)
	assert.Equal(t, 3, store.Count(inst, catalog.CategorySubject))

	second := apply(t, r, catalog.CategorySubject, subjects("CMPUT", "MATH", "PHYS"))
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 3, second.Unchanged)
	assert.Equal(t, 3, second.Total())
}

func TestApply_UpdatesChangedFields(t *testing.T) {
	store := memstore.New()
	r := reconcile.New(store, nil)

	apply(t, r, catalog.CategorySubject, subjects("CMPUT"))
	res := apply(t, r, catalog.CategorySubject, []catalog.Record{
		catalog.Subject{Code: "cmput", Name: "Computing Science"},
	})

	assert.Equal(t, 1, res.Updated)
	stored := store.Entities(inst, catalog.CategorySubject)["CMPUT"]
	assert.Equal(t, "Computing Science", stored.Record.(catalog.Subject).Name)
}

func TestApply_NeverDeletes(t *testing.T) {
	store := memstore.New()
	r := reconcile.New(store, nil)

	apply(t, r, catalog.CategorySubject, subjects("CMPUT", "MATH"))
	res := apply(t, r, catalog.CategorySubject, subjects("MATH"))

	assert.Equal(t, 1, res.Unchanged)
	assert.Equal(t, 2, store.Count(inst, catalog.CategorySubject))

	res = apply(t, r, catalog.CategorySubject, nil)
	assert.Equal(t, 0, res.Total())
	assert.Equal(t, 2, store.Count(inst, catalog.CategorySubject))
}

func TestApply_DuplicateKeysFold(t *testing.T) {
	store := memstore.New()
	r := reconcile.New(store, nil)

	res := apply(t, r, catalog.CategorySubject, []catalog.Record{
		catalog.Subject{Code: "CMPUT", Name: "First"},
		catalog.Subject{Code: "cmput", Name: "Second"},
	})

	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, store.Count(inst, catalog.CategorySubject))
	assert.Equal(t, "Second", store.Entities(inst, catalog.CategorySubject)["CMPUT"].Record.(catalog.Subject).Name)
}

func TestApply_PartialFailure(t *testing.T) {
	store := memstore.New()
	r := reconcile.New(store, nil)

	apply(t, r, catalog.CategorySubject, subjects("CMPUT"))

	res := apply(t, r, catalog.CategoryCourse, []catalog.Record{
		catalog.Course{Code: "CMPUT 174", Name: "Intro to Computing"},
		catalog.Course{Code: "CMPUT 175"},
		catalog.Course{Code: "HIST 100", Name: "World History"},
		catalog.Course{Code: "CMPUT 201", Name: "Practical Programming"},
	})

	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, reconcile.KindInvalidRecord, res.Errors[0].Kind)
	assert.Equal(t, "CMPUT175", res.Errors[0].Key)
	assert.Equal(t, reconcile.KindUnresolvedReference, res.Errors[1].Kind)
	assert.Equal(t, "HIST100", res.Errors[1].Key)

	var unresolved *reconcile.UnresolvedReferenceError
	require.ErrorAs(t, res.Errors[1], &unresolved)
	assert.Equal(t, catalog.CategorySubject, unresolved.Parent)
	assert.Equal(t, "HIST", unresolved.ParentKey)

	assert.Equal(t, 2, store.Count(inst, catalog.CategoryCourse))
}

func TestApply_WrongCategoryIsInvalid(t *testing.T) {
	r := reconcile.New(memstore.New(), nil)

	res := apply(t, r, catalog.CategorySubject, []catalog.Record{
		catalog.Faculty{Code: "SC", Name: "Science"},
		nil,
	})

	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, "#0", res.Errors[0].Key)
	assert.Equal(t, "#1", res.Errors[1].Key)
}

func TestApply_ParentReferenceChangeIsUpdate(t *testing.T) {
	store := memstore.New()
	r := reconcile.New(store, nil)

	apply(t, r, catalog.CategorySubject, subjects("CMPUT", "CMPE"))
	apply(t, r, catalog.CategoryCourse, []catalog.Record{
		catalog.Course{Code: "CMPUT 274", SubjectCode: "CMPUT", Name: "Intro to Tangible Computing"},
	})

	res := apply(t, r, catalog.CategoryCourse, []catalog.Record{
		catalog.Course{Code: "CMPUT 274", SubjectCode: "CMPE", Name: "Intro to Tangible Computing"},
	})
	assert.Equal(t, 1, res.Updated)

	subjectIDs := store.Entities(inst, catalog.CategorySubject)
	course := store.Entities(inst, catalog.CategoryCourse)["CMPUT274"]
	assert.Equal(t, subjectIDs["CMPE"].ID, course.Refs[catalog.CategorySubject])
}

func TestApply_SectionsAndExams(t *testing.T) {
	store := memstore.New()
	r := reconcile.New(store, nil)

	apply(t, r, catalog.CategorySubject, subjects("CMPUT"))
	apply(t, r, catalog.CategoryTerm, []catalog.Record{catalog.Term{Code: "1890", Name: "Fall 2024"}})
	apply(t, r, catalog.CategoryCourse, []catalog.Record{catalog.Course{Code: "CMPUT 401", Name: "Software Process"}})

	res := apply(t, r, catalog.CategorySection, []catalog.Record{
		catalog.Section{CourseCode: "CMPUT 401", TermCode: "1890", SectionCode: "LEC A1"},
		catalog.Section{CourseCode: "CMPUT 401", TermCode: "1900", SectionCode: "LEC A1"},
	})
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Failed)

	res = apply(t, r, catalog.CategoryExam, []catalog.Record{
		catalog.Exam{CourseCode: "CMPUT401", TermCode: "1890", SectionCode: "lec a1", Date: "2024-12-10"},
	})
	assert.Equal(t, 1, res.Inserted)
	assert.Contains(t, store.Entities(inst, catalog.CategoryExam), "CMPUT401|1890|LEC A1|final")
}

func TestApply_DryRun(t *testing.T) {
	store := memstore.New()
	r := reconcile.New(store, nil)

	apply(t, r, catalog.CategorySubject, subjects("CMPUT"))

	res, err := r.Apply(context.Background(), inst, catalog.CategorySubject, []catalog.Record{
		catalog.Subject{Code: "CMPUT", Name: "Computing Science"},
		catalog.Subject{Code: "MATH", Name: "Mathematics"},
	}, reconcile.ApplyOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Actions, 2)
	assert.Equal(t, reconcile.ActionUpdate, res.Actions[0].Type)
	assert.Equal(t, []string{"name: stored=CMPUT subject incoming=Computing Science"}, res.Actions[0].Mismatch)
	assert.Equal(t, reconcile.Action{Type: reconcile.ActionInsert, Key: "MATH"}, res.Actions[1])

	// Nothing was committed
	assert.Equal(t, 1, store.Count(inst, catalog.CategorySubject))
	assert.Equal(t, "CMPUT subject", store.Entities(inst, catalog.CategorySubject)["CMPUT"].Record.(catalog.Subject).Name)
}

func TestApply_StorageFailureRollsBack(t *testing.T) {
	t.Run("Write failure", func(t *testing.T) {
		store := memstore.New()
		store.FailOn("MATH", errors.New("disk full"))
		r := reconcile.New(store, nil)

		res, err := r.Apply(context.Background(), inst, catalog.CategorySubject, subjects("CMPUT", "MATH", "PHYS"), reconcile.ApplyOptions{})
		assert.Nil(t, res)

		var se *reconcile.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "insert", se.Op)
		assert.Equal(t, "MATH", se.Key)
		assert.Equal(t, 0, store.Count(inst, catalog.CategorySubject))
	})

	t.Run("Commit failure", func(t *testing.T) {
		store := memstore.New()
		store.FailCommit(errors.New("connection reset"))
		r := reconcile.New(store, nil)

		_, err := r.Apply(context.Background(), inst, catalog.CategorySubject, subjects("CMPUT"), reconcile.ApplyOptions{})

		var se *reconcile.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "transaction", se.Op)
		assert.ErrorContains(t, err, "connection reset")
		assert.Equal(t, 0, store.Count(inst, catalog.CategorySubject))
	})

	t.Run("Cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := reconcile.New(memstore.New(), nil).Apply(ctx, inst, catalog.CategorySubject, subjects("CMPUT"), reconcile.ApplyOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
