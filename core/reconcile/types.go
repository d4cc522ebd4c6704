package reconcile

import (
	"context"
	"errors"
	"fmt"

	"unisync/core/catalog"
)

// Refs maps a parent category to the storage id of the referenced row.
type Refs map[catalog.Category]uint

// Entity is a stored row in its normalized form.
type Entity struct {
	// ID is the storage id of the row.
	ID uint
	// Record is the row converted back to a catalog record.
	Record catalog.Record
	// Refs are the parent ids the row currently points to.
	Refs Refs
}

// Store is the persistence layer the reconciler writes through.
type Store interface {
	// Batch runs fn inside one transaction scoped to an institution. If fn
	// returns an error, or the commit fails, nothing fn wrote is persisted.
	Batch(ctx context.Context, institution string, fn func(tx Tx) error) error
}

// Tx is the view of the store inside one batch.
type Tx interface {
	// Load returns every stored entity of the category keyed by natural key.
	Load(ctx context.Context, category catalog.Category) (map[string]Entity, error)
	// ParentIndex returns natural key to storage id for a parent category.
	ParentIndex(ctx context.Context, category catalog.Category) (map[string]uint, error)
	// Insert stores a new entity and returns its id.
	Insert(ctx context.Context, rec catalog.Record, refs Refs) (uint, error)
	// Update overwrites the payload and references of an existing entity.
	Update(ctx context.Context, id uint, rec catalog.Record, refs Refs) error
}

// ActionType is what the reconciler did with one record.
type ActionType string

const (
	// ActionInsert created a new entity.
	ActionInsert ActionType = "insert"
	// ActionUpdate changed an existing entity.
	ActionUpdate ActionType = "update"
)

// Action describes one write, reported in dry runs.
type Action struct {
	// Type specifies the write.
	Type ActionType `json:"type"`
	// Key is the natural key of the entity.
	Key string `json:"key"`
	// Mismatch lists the changed fields for updates.
	Mismatch []string `json:"mismatch,omitempty"`
}

// Error kinds attached to record level failures.
const (
	KindInvalidRecord       = "invalid_record"
	KindUnresolvedReference = "unresolved_reference"
)

// RecordError is a failure isolated to one record of a batch.
type RecordError struct {
	Key  string `json:"key"`
	Kind string `json:"kind"`
	Err  error  `json:"-"`
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Key, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// Result summarizes one Apply call.
type Result struct {
	Institution string           `json:"institution"`
	Category    catalog.Category `json:"category"`
	Inserted    int              `json:"inserted"`
	Updated     int              `json:"updated"`
	Unchanged   int              `json:"unchanged"`
	Failed      int              `json:"failed"`
	// Errors holds one entry per failed record.
	Errors []RecordError `json:"errors,omitempty"`
	// Actions holds the planned writes; only filled for dry runs.
	Actions []Action `json:"actions,omitempty"`
	// DryRun is true when nothing was committed.
	DryRun bool `json:"dry_run"`
}

// Total is the number of records the batch contained.
func (r *Result) Total() int {
	return r.Inserted + r.Updated + r.Unchanged + r.Failed
}

func (r *Result) fail(key, kind string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RecordError{Key: key, Kind: kind, Err: err})
}

// ApplyOptions controls reconcile behavior.
type ApplyOptions struct {
	// DryRun computes the full result and rolls the transaction back.
	DryRun bool
}

// UnresolvedReferenceError reports a parent that does not exist in storage.
type UnresolvedReferenceError struct {
	Category  catalog.Category
	Key       string
	Parent    catalog.Category
	ParentKey string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s %s references unknown %s %q", e.Category, e.Key, e.Parent, e.ParentKey)
}

// StorageError is a batch level persistence failure. The whole batch was
// rolled back.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// errDryRun aborts the transaction after a dry run.
var errDryRun = errors.New("dry run")
