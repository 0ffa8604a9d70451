// Package graph holds the in-memory relationship graph.
//
// A Graph is a directed multigraph: contacts are nodes keyed by UID and
// every edge carries one canonical relationship type. Two contacts may be
// joined by several edges as long as their types differ. Graphs are safe
// for concurrent use.
package graph

import (
	"cmp"
	"slices"
	"sync"

	"golang.org/x/text/cases"

	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/relations"
)

// Contact is a node of the graph. UID is the identity; every other field
// is a mutable attribute.
type Contact struct {
	UID         string           `json:"uid" yaml:"uid"`
	DisplayName string           `json:"name" yaml:"name"`
	Gender      relations.Gender `json:"gender" yaml:"gender"`
	Handle      string           `json:"handle,omitempty" yaml:"handle,omitempty"` // collaborator reference, e.g. a file path
}

// Name returns the display name, or the UID when no name is known.
func (c Contact) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.UID
}

// Edge is a directed, typed relationship: Source holds Type toward Target.
type Edge struct {
	Source string         `json:"source" yaml:"source"`
	Target string         `json:"target" yaml:"target"`
	Type   relations.Type `json:"type" yaml:"type"`
}

// String renders the edge as "source -type-> target".
func (e Edge) String() string {
	return e.Source + " -" + string(e.Type) + "-> " + e.Target
}

// adjacency maps neighbor UID to the set of edge types.
type adjacency map[string]map[relations.Type]struct{}

// Graph is a concurrent safe relationship graph.
type Graph struct {
	mu       sync.RWMutex
	contacts map[string]*Contact
	out      map[string]adjacency
	in       map[string]adjacency
}

// Option configures a Graph.
type Option func(*Graph)

// WithCapacity sizes the node maps up front.
func WithCapacity(capacity int) Option {
	return func(g *Graph) {
		g.contacts = make(map[string]*Contact, capacity)
		g.out = make(map[string]adjacency, capacity)
		g.in = make(map[string]adjacency, capacity)
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		contacts: make(map[string]*Contact),
		out:      make(map[string]adjacency),
		in:       make(map[string]adjacency),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddContact inserts c, or overwrites every mutable attribute of the
// existing node with the same UID.
func (g *Graph) AddContact(c Contact) error {
	if c.UID == "" {
		return &errors.ValidationError{
			Field:   "contact.UID",
			Message: "cannot be empty",
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	contact := c
	g.contacts[c.UID] = &contact
	return nil
}

// EnsureContact inserts c only when no node with its UID exists.
// It reports whether the node was inserted.
func (g *Graph) EnsureContact(c Contact) bool {
	if c.UID == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.contacts[c.UID]; exists {
		return false
	}
	contact := c
	g.contacts[c.UID] = &contact
	return true
}

// RemoveContact deletes a node together with every edge touching it.
// It reports whether the node existed.
func (g *Graph) RemoveContact(uid string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.contacts[uid]; !exists {
		return false
	}

	for target := range g.out[uid] {
		delete(g.in[target], uid)
	}
	for source := range g.in[uid] {
		delete(g.out[source], uid)
	}
	delete(g.out, uid)
	delete(g.in, uid)
	delete(g.contacts, uid)
	return true
}

// Contact returns a copy of the node with the given UID.
func (g *Graph) Contact(uid string) (Contact, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c, ok := g.contacts[uid]
	if !ok {
		return Contact{}, false
	}
	return *c, true
}

// HasContact reports whether a node exists.
func (g *Graph) HasContact(uid string) bool {
	g.mu.RLock()
	_, ok := g.contacts[uid]
	g.mu.RUnlock()
	return ok
}

// Contacts returns every node sorted by display name, then UID.
func (g *Graph) Contacts() []Contact {
	g.mu.RLock()
	defer g.mu.RUnlock()

	fold := cases.Fold()
	result := make([]Contact, 0, len(g.contacts))
	for _, c := range g.contacts {
		result = append(result, *c)
	}
	slices.SortFunc(result, func(a, b Contact) int {
		return cmp.Or(
			cmp.Compare(fold.String(a.Name()), fold.String(b.Name())),
			cmp.Compare(a.UID, b.UID),
		)
	})
	return result
}

// AddEdge records that source holds relType toward target. The type is
// canonicalized first, so "mother" is stored as "parent". It reports false
// when the identical edge already exists. Edges of other types between
// the same pair are left in place.
func (g *Graph) AddEdge(source, target string, relType relations.Type) (bool, error) {
	t, _ := relations.Canonicalize(string(relType))
	if t == "" {
		return false, &errors.ValidationError{
			Field:   "edge.Type",
			Value:   relType,
			Message: "cannot be empty",
		}
	}
	if source == target {
		return false, errors.NewSelfLoopError(source, string(t))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.contacts[source]; !ok {
		return false, errors.NewUnknownContactError(source)
	}
	if _, ok := g.contacts[target]; !ok {
		return false, errors.NewUnknownContactError(target)
	}

	if _, exists := g.out[source][target][t]; exists {
		return false, nil
	}
	link(g.out, source, target, t)
	link(g.in, target, source, t)
	return true, nil
}

// RemoveEdge deletes a single edge. It reports whether the edge existed.
func (g *Graph) RemoveEdge(source, target string, relType relations.Type) bool {
	t, _ := relations.Canonicalize(string(relType))

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.out[source][target][t]; !exists {
		return false
	}
	unlink(g.out, source, target, t)
	unlink(g.in, target, source, t)
	return true
}

// HasEdge reports whether source holds relType toward target.
func (g *Graph) HasEdge(source, target string, relType relations.Type) bool {
	t, _ := relations.Canonicalize(string(relType))

	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.out[source][target][t]
	return exists
}

// OutgoingEdges returns the edges held by uid, ordered by type, then
// target display name, then target UID.
func (g *Graph) OutgoingEdges(uid string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var edges []Edge
	for target, types := range g.out[uid] {
		for t := range types {
			edges = append(edges, Edge{Source: uid, Target: target, Type: t})
		}
	}

	fold := cases.Fold()
	slices.SortFunc(edges, func(a, b Edge) int {
		return cmp.Or(
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(fold.String(g.nameLocked(a.Target)), fold.String(g.nameLocked(b.Target))),
			cmp.Compare(a.Target, b.Target),
		)
	})
	return edges
}

// IncomingEdgesOfType returns the relType edges pointing at uid, ordered
// by source display name, then source UID.
func (g *Graph) IncomingEdgesOfType(uid string, relType relations.Type) []Edge {
	t, _ := relations.Canonicalize(string(relType))

	g.mu.RLock()
	defer g.mu.RUnlock()

	var edges []Edge
	for source, types := range g.in[uid] {
		if _, ok := types[t]; ok {
			edges = append(edges, Edge{Source: source, Target: uid, Type: t})
		}
	}

	fold := cases.Fold()
	slices.SortFunc(edges, func(a, b Edge) int {
		return cmp.Or(
			cmp.Compare(fold.String(g.nameLocked(a.Source)), fold.String(g.nameLocked(b.Source))),
			cmp.Compare(a.Source, b.Source),
		)
	})
	return edges
}

// Edges returns every edge ordered by source UID, type, then target UID.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var edges []Edge
	for source, targets := range g.out {
		for target, types := range targets {
			for t := range types {
				edges = append(edges, Edge{Source: source, Target: target, Type: t})
			}
		}
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		return cmp.Or(
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.Target, b.Target),
		)
	})
	return edges
}

// Stats returns the node and edge counts.
func (g *Graph) Stats() (nodes, edges int) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, targets := range g.out {
		for _, types := range targets {
			edges += len(types)
		}
	}
	return len(g.contacts), edges
}

func (g *Graph) nameLocked(uid string) string {
	if c, ok := g.contacts[uid]; ok {
		return c.Name()
	}
	return uid
}

func link(adj map[string]adjacency, from, to string, t relations.Type) {
	if adj[from] == nil {
		adj[from] = make(adjacency)
	}
	if adj[from][to] == nil {
		adj[from][to] = make(map[relations.Type]struct{})
	}
	adj[from][to][t] = struct{}{}
}

func unlink(adj map[string]adjacency, from, to string, t relations.Type) {
	delete(adj[from][to], t)
	if len(adj[from][to]) == 0 {
		delete(adj[from], to)
	}
	if len(adj[from]) == 0 {
		delete(adj, from)
	}
}
