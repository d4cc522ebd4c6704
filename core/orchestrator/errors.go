package orchestrator

import (
	"errors"
	"fmt"

	"unisync/core/catalog"
)

// ErrPairBusy is returned when a pair already has a run in flight and the
// orchestrator is configured to reject rather than queue.
var ErrPairBusy = errors.New("sync already running")

// BusyError names the pair that was rejected.
type BusyError struct {
	Institution string
	Category    catalog.Category
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("%s: %s/%s", ErrPairBusy, e.Institution, e.Category)
}

func (e *BusyError) Is(target error) bool { return target == ErrPairBusy }
