// Package consistency finds relationships whose reciprocal is missing
// from the graph and repairs them.
//
// If John holds "parent" toward Bob, Bob must hold "child" toward John.
// Scan reports every such gap; Repair adds the missing edges and
// reconciles the contacts whose text must gain a line. Custom types have
// no reciprocal and are never reported.
package consistency

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/logging"
	"github.com/agentstation/kinmap/pkg/reconciler"
	"github.com/agentstation/kinmap/pkg/relations"
)

// MissingReciprocal says Source should hold ExpectedType toward Target
// because Origin exists.
type MissingReciprocal struct {
	Source       string         `json:"source" yaml:"source"`
	Target       string         `json:"target" yaml:"target"`
	ExpectedType relations.Type `json:"expected_type" yaml:"expected_type"`
	Origin       graph.Edge     `json:"origin" yaml:"origin"`
}

// Edge returns the edge that would close the gap.
func (m MissingReciprocal) Edge() graph.Edge {
	return graph.Edge{Source: m.Source, Target: m.Target, Type: m.ExpectedType}
}

// String describes the gap.
func (m MissingReciprocal) String() string {
	return fmt.Sprintf("%s lacks %s toward %s (from %s)", m.Source, m.ExpectedType, m.Target, m.Origin)
}

// Scan reports every missing reciprocal, sorted by source, type, then
// target. Symmetric edges held in both directions produce nothing.
func Scan(g *graph.Graph) []MissingReciprocal {
	seen := make(map[graph.Edge]bool)
	var missing []MissingReciprocal

	for _, e := range g.Edges() {
		rt, ok := relations.ReciprocalOf(e.Type)
		if !ok {
			continue
		}
		want := graph.Edge{Source: e.Target, Target: e.Source, Type: rt}
		if seen[want] || g.HasEdge(want.Source, want.Target, want.Type) {
			continue
		}
		seen[want] = true
		missing = append(missing, MissingReciprocal{
			Source:       want.Source,
			Target:       want.Target,
			ExpectedType: rt,
			Origin:       e,
		})
	}

	slices.SortFunc(missing, func(a, b MissingReciprocal) int {
		return cmp.Or(
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(a.ExpectedType, b.ExpectedType),
			cmp.Compare(a.Target, b.Target),
		)
	})
	return missing
}

// Failure is a contact repair that did not complete.
type Failure struct {
	UID string
	Err error
}

// Report is the outcome of a repair.
type Report struct {
	// EdgesAdded lists the reciprocal edges inserted into the graph.
	EdgesAdded []graph.Edge

	// Reconciled lists the results of every contact reconciled, in order.
	Reconciled []*reconciler.Result

	// Failures lists contacts whose edge or reconciliation failed.
	Failures []Failure
}

// Writes counts reconciliations that wrote text.
func (r *Report) Writes() int {
	n := 0
	for _, res := range r.Reconciled {
		if res != nil && res.Written {
			n++
		}
	}
	return n
}

// HasFailures reports whether any contact failed.
func (r *Report) HasFailures() bool {
	return len(r.Failures) > 0
}

// Repair inserts every missing edge and then reconciles each affected
// source contact once, so its text gains the reciprocal line. A failure
// for one contact does not stop the others. Cancellation is checked
// between contacts.
func Repair(ctx context.Context, missing []MissingReciprocal, g *graph.Graph, r reconciler.Reconciler) *Report {
	logger := logging.FromContext(ctx)
	report := &Report{}

	var owners []string
	failed := make(map[string]bool)
	for _, m := range missing {
		added, err := g.AddEdge(m.Source, m.Target, m.ExpectedType)
		if err != nil {
			report.Failures = append(report.Failures, Failure{UID: m.Source, Err: err})
			failed[m.Source] = true
			logger.Warn().Err(err).Str("contact", m.Source).Msg("Reciprocal edge rejected")
			continue
		}
		if added {
			report.EdgesAdded = append(report.EdgesAdded, m.Edge())
		}
		if !slices.Contains(owners, m.Source) {
			owners = append(owners, m.Source)
		}
	}

	for _, uid := range owners {
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, Failure{UID: uid, Err: err})
			continue
		}
		res, err := r.Reconcile(ctx, uid)
		if err != nil {
			report.Failures = append(report.Failures, Failure{UID: uid, Err: err})
			logger.Warn().Err(err).Str("contact", uid).Msg("Repair reconciliation failed")
			continue
		}
		report.Reconciled = append(report.Reconciled, res)
	}

	logger.Debug().
		Int("missing", len(missing)).
		Int("edges_added", len(report.EdgesAdded)).
		Int("failures", len(report.Failures)).
		Msg("Repair finished")
	return report
}
