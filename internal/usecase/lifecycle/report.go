package lifecycle

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/kailas-cloud/indexgate/internal/domain"
)

// Messages returned by successful transitions.
const (
	MsgIndexCreated = "index created"
	MsgIndexFlushed = "index flushed"
	MsgIndexRemoved = "index removed"
)

// Result is the outcome of a successful transition.
type Result struct {
	Index   string `json:"index"`
	Message string `json:"message"`
}

// RemoveReport records which steps of an index removal took effect. When a
// step failed the report is also the returned error and matches
// domain.ErrPartialFailure.
type RemoveReport struct {
	Index          string            `json:"index"`
	IndexDeleted   bool              `json:"index_deleted"`
	MappingDeleted bool              `json:"mapping_deleted"`
	ScrubbedKeys   []string          `json:"scrubbed_keys"`
	FailedKeys     map[string]string `json:"failed_keys,omitempty"`
	Failure        string            `json:"failure,omitempty"`

	cause error
}

// Complete reports whether every step succeeded.
func (r *RemoveReport) Complete() bool {
	return r.cause == nil && len(r.FailedKeys) == 0
}

func (r *RemoveReport) fail(step string, err error) {
	r.cause = err
	r.Failure = step + ": " + err.Error()
}

func (r *RemoveReport) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "remove %s: index_deleted=%t mapping_deleted=%t scrubbed=%d",
		r.Index, r.IndexDeleted, r.MappingDeleted, len(r.ScrubbedKeys))
	if r.Failure != "" {
		b.WriteString(": " + r.Failure)
	}
	if len(r.FailedKeys) > 0 {
		fmt.Fprintf(&b, ": %d key(s) not scrubbed", len(r.FailedKeys))
	}
	return b.String()
}

// Unwrap exposes ErrPartialFailure and the failing step's cause.
func (r *RemoveReport) Unwrap() []error {
	if r.cause != nil {
		return []error{domain.ErrPartialFailure, r.cause}
	}
	return []error{domain.ErrPartialFailure}
}

// FailedKeyList returns the keys that still reference the index, sorted.
func (r *RemoveReport) FailedKeyList() []string {
	return slices.Sorted(maps.Keys(r.FailedKeys))
}
