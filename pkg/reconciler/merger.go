package reconciler

import (
	"golang.org/x/text/cases"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/relations"
)

// Source identifies which representation a candidate was read from.
type Source int

const (
	// SourceFrontmatter is the RELATED key block.
	SourceFrontmatter Source = iota
	// SourceList is the Related section of the body.
	SourceList
)

// String returns the representation name.
func (s Source) String() string {
	if s == SourceList {
		return "list"
	}
	return "frontmatter"
}

// Candidate is one relationship read from either representation.
type Candidate struct {
	Type   relations.Type
	Gender relations.Gender // implied by the term as written
	Ref    codec.Reference
	Source Source

	// Target is the resolved contact UID, empty when unresolved.
	Target string
}

// Resolved reports whether the reference matched a contact.
func (c Candidate) Resolved() bool {
	return c.Target != ""
}

type candidateKey struct {
	typ    relations.Type
	target string
	kind   codec.Kind
	value  string
}

// key identifies the relationship a candidate describes. Resolved
// candidates are keyed by target UID; unresolved ones by their folded
// reference.
func (c Candidate) key(fold cases.Caser) candidateKey {
	if c.Resolved() {
		return candidateKey{typ: c.Type, target: c.Target}
	}
	return candidateKey{typ: c.Type, kind: c.Ref.Kind, value: fold.String(c.Ref.Value)}
}

// Merger deduplicates candidates describing the same relationship.
type Merger interface {
	Merge(candidates []Candidate) []Candidate
}

type merger struct {
	strategy Strategy
	graph    *graph.Graph
}

// NewMerger creates a merger that consults g for target attributes.
func NewMerger(strategy Strategy, g *graph.Graph) Merger {
	return &merger{strategy: strategy, graph: g}
}

// Merge keeps one candidate per (type, target), chosen by the strategy,
// in order of first appearance.
func (m *merger) Merge(candidates []Candidate) []Candidate {
	fold := cases.Fold()
	index := make(map[candidateKey]int, len(candidates))
	merged := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		k := c.key(fold)
		i, seen := index[k]
		if !seen {
			index[k] = len(merged)
			merged = append(merged, c)
			continue
		}

		var target graph.Contact
		if c.Resolved() {
			target, _ = m.graph.Contact(c.Target)
		}
		merged[i] = m.strategy.Resolve(merged[i], c, target)
	}
	return merged
}
