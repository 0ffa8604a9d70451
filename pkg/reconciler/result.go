package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/differ"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/store"
)

// Mode says how text records are combined with the graph.
type Mode string

const (
	// ModeMerge adds every resolved text record to the graph.
	ModeMerge Mode = "merge"
	// ModeRewrite makes the text follow the graph, dropping resolved
	// records without an edge.
	ModeRewrite Mode = "rewrite"
)

// Result represents the outcome of reconciling one contact.
type Result struct {
	UID string

	// Encoded state after the merge
	Fields  []codec.FieldRecord
	Entries []codec.ListEntry

	// Graph changes
	EdgesAdded []graph.Edge

	// Text changes
	Changeset *differ.Changeset
	Written   bool
	Revision  store.Revision

	// Issues
	Unresolved  []*errors.UnresolvedTargetError
	Diagnostics []error

	Metadata ResultMetadata
}

// ResultMetadata contains metadata about the reconciliation.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Mode is merge for Reconcile and rewrite for Rewrite
	Mode Mode

	// DryRun indicates if this was a dry-run
	DryRun bool

	// Attempts is the number of read-merge-write attempts made
	Attempts int

	// Strategy used for duplicate resolution
	Strategy StrategyType
}

// NewResult creates a new result with defaults.
func NewResult(uid string, mode Mode) *Result {
	return &Result{
		UID: uid,
		Metadata: ResultMetadata{
			StartTime: time.Now(),
			Mode:      mode,
		},
	}
}

// reset clears everything a retried attempt recomputes.
func (r *Result) reset() {
	r.Fields = nil
	r.Entries = nil
	r.EdgesAdded = nil
	r.Changeset = nil
	r.Written = false
	r.Unresolved = nil
	r.Diagnostics = nil
}

// HasChanges returns true if the text needed a rewrite.
func (r *Result) HasChanges() bool {
	return r.Changeset != nil && r.Changeset.HasChanges()
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	switch {
	case r.Written:
		return fmt.Sprintf("Reconciled %s: wrote revision %d, %d edges added", r.UID, r.Revision, len(r.EdgesAdded))
	case r.Metadata.DryRun && r.HasChanges():
		return fmt.Sprintf("Dry run %s: %s", r.UID, r.Changeset.String())
	default:
		return fmt.Sprintf("Reconciled %s: no changes, %d edges added", r.UID, len(r.EdgesAdded))
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}
