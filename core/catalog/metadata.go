package catalog

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"
)

// Metadata is the open, institution-specific bag carried by every record.
type Metadata map[string]any

// Canonical returns the metadata normalized through JSON so values decoded
// from storage (float64 numbers, []any slices) compare equal to freshly
// parsed ones. Empty bags normalize to nil.
func (m Metadata) Canonical() Metadata {
	if len(m) == 0 {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return m
	}
	var out Metadata
	if err := json.Unmarshal(raw, &out); err != nil {
		return m
	}
	return out
}

// Equal compares two bags as a whole after canonicalization.
func (m Metadata) Equal(other Metadata) bool {
	return cmp.Equal(m.Canonical(), other.Canonical())
}

// String renders the bag as compact JSON for mismatch reports.
func (m Metadata) String() string {
	if len(m) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "{?}"
	}
	return string(raw)
}
