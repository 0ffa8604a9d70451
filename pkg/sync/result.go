package sync

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/agentstation/kinmap/pkg/consistency"
)

// Result represents the complete result of a whole-set pass.
type Result struct {
	// Overall statistics
	TotalWrites     int // Contact texts written across all iterations
	TotalEdgesAdded int // Edges added by reconciliation and repair
	TotalRepairs    int // Missing reciprocals repaired
	Converged       bool

	Iterations []IterationResult           // One entry per iteration, in order
	Contacts   map[string]*ContactResult   // Outcomes per contact UID
	Missing    []consistency.MissingReciprocal // Gaps left after the last iteration

	// Operation metadata
	DryRun   bool
	Duration time.Duration
}

// IterationResult summarizes one fixed-point iteration.
type IterationResult struct {
	Number     int `json:"number" yaml:"number"`
	Reconciled int `json:"reconciled" yaml:"reconciled"`
	Writes     int `json:"writes" yaml:"writes"`
	EdgesAdded int `json:"edges_added" yaml:"edges_added"`
	Repairs    int `json:"repairs" yaml:"repairs"`
	Failures   int `json:"failures" yaml:"failures"`
}

// Settled reports whether the iteration changed nothing.
func (it IterationResult) Settled() bool {
	return it.Writes == 0 && it.EdgesAdded == 0 && it.Repairs == 0
}

// ContactResult accumulates one contact's outcomes across iterations.
type ContactResult struct {
	UID         string   `json:"uid" yaml:"uid"`
	Name        string   `json:"name" yaml:"name"`
	Writes      int      `json:"writes" yaml:"writes"`
	EdgesAdded  int      `json:"edges_added" yaml:"edges_added"`
	Pending     bool     `json:"pending,omitempty" yaml:"pending,omitempty"` // dry run: text would change
	Unresolved  []string `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Status returns a one-word outcome.
func (cr *ContactResult) Status() string {
	switch {
	case cr.Error != "":
		return "failed"
	case cr.Writes > 0:
		return "updated"
	case cr.Pending:
		return "pending"
	default:
		return "unchanged"
	}
}

// NewResult creates an empty result.
func NewResult(dryRun bool) *Result {
	return &Result{
		Contacts: make(map[string]*ContactResult),
		DryRun:   dryRun,
	}
}

// Contact returns the accumulator for uid, creating it on first use.
func (sr *Result) Contact(uid string) *ContactResult {
	cr, ok := sr.Contacts[uid]
	if !ok {
		cr = &ContactResult{UID: uid}
		sr.Contacts[uid] = cr
	}
	return cr
}

// SortedContacts returns contact outcomes sorted by name, then UID.
func (sr *Result) SortedContacts() []*ContactResult {
	list := make([]*ContactResult, 0, len(sr.Contacts))
	for _, cr := range sr.Contacts {
		list = append(list, cr)
	}
	slices.SortFunc(list, func(a, b *ContactResult) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.UID, b.UID))
	})
	return list
}

// Failures returns the contacts that ended in an error.
func (sr *Result) Failures() []*ContactResult {
	var failed []*ContactResult
	for _, cr := range sr.SortedContacts() {
		if cr.Error != "" {
			failed = append(failed, cr)
		}
	}
	return failed
}

// HasChanges returns true if the pass wrote, or would write, anything.
func (sr *Result) HasChanges() bool {
	if sr.TotalWrites > 0 || sr.TotalEdgesAdded > 0 {
		return true
	}
	for _, cr := range sr.Contacts {
		if cr.Pending {
			return true
		}
	}
	return false
}

// Summary returns a human-readable summary of the pass.
func (sr *Result) Summary() string {
	var parts []string
	if sr.DryRun {
		parts = append(parts, "(Dry run)")
	}
	if !sr.Converged {
		parts = append(parts, "(Not converged)")
	}
	if n := len(sr.Failures()); n > 0 {
		parts = append(parts, fmt.Sprintf("(%d failed)", n))
	}

	summary := fmt.Sprintf("%d contacts, %d writes, %d edges added, %d repairs in %d iterations",
		len(sr.Contacts), sr.TotalWrites, sr.TotalEdgesAdded, sr.TotalRepairs, len(sr.Iterations))
	if !sr.HasChanges() {
		summary = fmt.Sprintf("No changes detected across %d contacts", len(sr.Contacts))
	}
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}
	return summary
}
