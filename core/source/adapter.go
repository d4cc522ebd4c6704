package source

import (
	"context"
	"errors"
	"iter"
	"slices"
	"time"

	"unisync/core/catalog"
)

// Mode tells an adapter how much data the caller needs.
type Mode string

const (
	// ModeFull requests the complete dataset.
	ModeFull Mode = "full"
	// ModeIncremental requests changes since Hint.Since. Adapters may ignore
	// it and return everything.
	ModeIncremental Mode = "incremental"
)

// Hint is advisory fetch scoping.
type Hint struct {
	Mode  Mode
	Since time.Time
}

// FullHint requests the complete dataset.
func FullHint() Hint { return Hint{Mode: ModeFull} }

// IncrementalSince requests changes since t.
func IncrementalSince(t time.Time) Hint { return Hint{Mode: ModeIncremental, Since: t} }

// Sequence is a lazy, finite stream of records. A *ParseError item marks one
// skipped record; any other error is fatal and is the last item yielded.
// Ranging over a Sequence again restarts the fetch from scratch.
type Sequence = iter.Seq2[catalog.Record, error]

// Adapter fetches one institution's upstream data and normalizes it.
type Adapter interface {
	// Categories lists the categories this adapter can fetch.
	Categories() []catalog.Category
	// Fetch returns the records of one category. Nothing is requested until
	// the sequence is ranged over.
	Fetch(ctx context.Context, category catalog.Category, hint Hint) Sequence
}

// Supports reports whether the adapter serves the category.
func Supports(a Adapter, category catalog.Category) bool {
	return slices.Contains(a.Categories(), category)
}

// Failed returns a sequence that yields a single fatal error.
func Failed(err error) Sequence {
	return func(yield func(catalog.Record, error) bool) {
		yield(nil, err)
	}
}

// Batch is the materialized result of a sequence.
type Batch struct {
	Records     []catalog.Record
	ParseErrors []*ParseError
}

// Drain consumes a sequence, collecting records and parse errors. It stops at
// the first fatal error or when ctx is done, returning it as a *FetchError.
func Drain(ctx context.Context, seq Sequence) (Batch, error) {
	var b Batch
	for rec, err := range seq {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return b, Classify(ctxErr)
		}
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				b.ParseErrors = append(b.ParseErrors, pe)
				continue
			}
			return b, Classify(err)
		}
		if rec != nil {
			b.Records = append(b.Records, rec)
		}
	}
	if err := ctx.Err(); err != nil {
		return b, Classify(err)
	}
	return b, nil
}
