// Package reconciler merges a contact's two textual relationship
// representations with the relationship graph and writes the merged
// state back.
//
// One call reconciles one contact: its frontmatter and list records are
// decoded, resolved, deduplicated and added to the graph; the contact's
// outgoing edges are then encoded into both representations. The text is
// written at most once, and only when it changed materially.
package reconciler

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/constants"
	"github.com/agentstation/kinmap/pkg/differ"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/logging"
	"github.com/agentstation/kinmap/pkg/relations"
	"github.com/agentstation/kinmap/pkg/store"
)

// Reconciler is the main interface for reconciling contacts.
type Reconciler interface {
	// Reconcile merges the contact's text into the graph and writes the
	// graph's view of the contact back to its text.
	Reconcile(ctx context.Context, uid string) (*Result, error)

	// Rewrite makes the contact's text follow the graph without adding
	// edges. Resolved text records missing from the graph are dropped.
	Rewrite(ctx context.Context, uid string) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	graph   *graph.Graph
	store   store.Store
	differ  differ.Differ
	merger  Merger
	options *options

	locks sync.Map // uid -> *sync.Mutex
}

// New creates a new Reconciler over g and st.
func New(g *graph.Graph, st store.Store, opts ...Option) (Reconciler, error) {
	if g == nil {
		return nil, &errors.ValidationError{Field: "graph", Message: "cannot be nil"}
	}
	if st == nil {
		return nil, &errors.ValidationError{Field: "store", Message: "cannot be nil"}
	}

	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &reconciler{
		graph:   g,
		store:   st,
		differ:  differ.New(differ.WithIgnoredFields(options.revisionField)),
		merger:  NewMerger(options.strategy, g),
		options: options,
	}, nil
}

// Reconcile implements Reconciler.
func (r *reconciler) Reconcile(ctx context.Context, uid string) (*Result, error) {
	return r.run(ctx, uid, ModeMerge)
}

// Rewrite implements Reconciler.
func (r *reconciler) Rewrite(ctx context.Context, uid string) (*Result, error) {
	return r.run(ctx, uid, ModeRewrite)
}

func (r *reconciler) lock(uid string) func() {
	mu, _ := r.locks.LoadOrStore(uid, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// run retries an attempt after a revision conflict, up to maxAttempts.
func (r *reconciler) run(ctx context.Context, uid string, mode Mode) (*Result, error) {
	if uid == "" {
		return nil, &errors.ValidationError{Field: "uid", Message: "cannot be empty"}
	}

	unlock := r.lock(uid)
	defer unlock()

	ctx = logging.WithContact(ctx, uid)
	logger := logging.FromContext(ctx)

	result := NewResult(uid, mode)
	result.Metadata.DryRun = r.options.dryRun
	result.Metadata.Strategy = r.options.strategy.Type()
	defer result.Finalize()

	for attempt := 1; ; attempt++ {
		result.reset()
		result.Metadata.Attempts = attempt

		err := r.attempt(ctx, uid, mode, result, logger)
		if err == nil {
			return result, nil
		}

		var conflict *errors.RevisionConflictError
		if !errors.As(err, &conflict) {
			return result, err
		}
		if attempt >= r.options.maxAttempts {
			conflict.Attempts = attempt
			logger.Warn().Err(conflict).Msg("Giving up after revision conflict")
			return result, conflict
		}
		logger.Debug().Err(conflict).Int("attempt", attempt).Msg("Retrying after revision conflict")
	}
}

// attempt performs one read-merge-write cycle with clean step-by-step flow.
func (r *reconciler) attempt(ctx context.Context, uid string, mode Mode, result *Result, logger *zerolog.Logger) error {
	// Step 1: Read revision, text and attributes; upsert the node
	revision, text, err := r.read(ctx, uid)
	if err != nil {
		return err
	}
	col := newCollector(uid, r.store, r.graph, logger)

	// Step 2: Decode both representations
	dec, err := col.decode(text)
	if err != nil {
		return err
	}
	cands, diags := col.candidates(dec)
	result.Diagnostics = append(result.Diagnostics, diags...)

	// Step 3: Resolve references
	res, err := col.resolve(ctx, cands)
	if err != nil {
		return err
	}
	result.Unresolved = res.unresolved
	result.Diagnostics = append(result.Diagnostics, res.diagnostics...)

	// Step 4: Deduplicate
	merged := r.merger.Merge(res.candidates)

	// Step 5: Merge into the graph, or filter against it
	if mode == ModeMerge {
		result.EdgesAdded = r.addEdges(uid, merged, result, logger)
	}

	// Step 6: Recompute both representations from the graph
	fields, entries := r.encode(uid, merged)
	result.Fields = fields
	result.Entries = entries

	// Step 7: Compare, and write when the change is material
	return r.commit(ctx, uid, revision, dec, result, logger)
}

func (r *reconciler) read(ctx context.Context, uid string) (store.Revision, string, error) {
	revision, err := r.store.CurrentRevision(ctx, uid)
	if err != nil {
		return 0, "", errors.WrapResource("read", "contact", uid, err)
	}
	text, err := r.store.ReadContactText(ctx, uid)
	if err != nil {
		return 0, "", errors.WrapResource("read", "contact", uid, err)
	}
	contact, err := r.store.DescribeContact(ctx, uid)
	if err != nil {
		return 0, "", errors.WrapResource("describe", "contact", uid, err)
	}
	contact.UID = uid
	if err := r.graph.AddContact(contact); err != nil {
		return 0, "", err
	}
	return revision, text, nil
}

func (r *reconciler) addEdges(uid string, merged []Candidate, result *Result, logger *zerolog.Logger) []graph.Edge {
	var added []graph.Edge
	for _, c := range merged {
		if !c.Resolved() {
			continue
		}
		ok, err := r.graph.AddEdge(uid, c.Target, c.Type)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, err)
			logger.Warn().Err(err).Msg("Edge rejected")
			continue
		}
		if ok {
			edge := graph.Edge{Source: uid, Target: c.Target, Type: c.Type}
			added = append(added, edge)
			logger.Debug().Stringer("edge", edge).Msg("Added edge")
		}
	}
	return added
}

// encode renders the contact's outgoing edges followed by its unresolved
// records, with terms gendered by renderGender.
func (r *reconciler) encode(uid string, merged []Candidate) ([]codec.FieldRecord, []codec.ListEntry) {
	type edgeKey struct {
		target string
		typ    relations.Type
	}
	implied := make(map[edgeKey]relations.Gender)
	for _, c := range merged {
		if c.Resolved() {
			implied[edgeKey{c.Target, c.Type}] = c.Gender
		}
	}

	var (
		fields  []codec.FieldRecord
		entries []codec.ListEntry
	)
	for _, e := range r.graph.OutgoingEdges(uid) {
		target, ok := r.graph.Contact(e.Target)
		if !ok {
			continue
		}
		gender := renderGender(e.Type, target.Gender, implied[edgeKey{e.Target, e.Type}])
		fields = append(fields, codec.FieldRecord{
			Type:   e.Type,
			Gender: gender,
			Ref:    codec.ReferenceFor(target.UID, target.DisplayName),
		})
		entries = append(entries, codec.ListEntry{
			Type:   e.Type,
			Gender: gender,
			Name:   target.Name(),
		})
	}

	var unresolved []Candidate
	for _, c := range merged {
		if !c.Resolved() {
			unresolved = append(unresolved, c)
		}
	}
	slices.SortStableFunc(unresolved, func(a, b Candidate) int {
		return cmp.Compare(a.Type, b.Type)
	})
	for _, c := range unresolved {
		fields = append(fields, codec.FieldRecord{Type: c.Type, Gender: c.Gender, Ref: c.Ref})
		if c.Ref.Kind == codec.KindName {
			entries = append(entries, codec.ListEntry{Type: c.Type, Gender: c.Gender, Name: c.Ref.Value})
		}
	}
	return fields, entries
}

// renderGender picks the gender a term is rendered with. Only types with
// gendered variants carry one: a Male or Female target decides, a
// NonBinary target gets the neutral term, and an unknown target keeps the
// gender of the term the contact wrote.
func renderGender(t relations.Type, target, implied relations.Gender) relations.Gender {
	if !relations.IsGendered(t) {
		return relations.Unspecified
	}
	switch target {
	case relations.Male, relations.Female:
		return target
	case relations.NonBinary:
		return relations.Unspecified
	default:
		return implied
	}
}

func (r *reconciler) commit(ctx context.Context, uid string, revision store.Revision, dec *decoded, result *Result, logger *zerolog.Logger) error {
	fields := codec.EncodeFrontmatter(result.Fields)
	hasSection := dec.section.Found || len(result.Entries) > 0

	oldItems := make([]codec.ListEntry, 0, len(dec.items))
	for _, item := range dec.items {
		oldItems = append(oldItems, item.ListEntry)
	}
	result.Changeset = r.differ.Contact(uid,
		differ.Snapshot{Fields: dec.fields, Items: oldItems, HasSection: dec.section.Found},
		differ.Snapshot{Fields: fields, Items: result.Entries, HasSection: hasSection},
	)

	if !result.Changeset.HasChanges() {
		logger.Debug().Msg("No material change")
		return nil
	}
	if r.options.dryRun {
		logger.Info().Str("changes", result.Changeset.String()).Msg("Dry run: contact would change")
		return nil
	}

	doc := dec.doc
	doc.SetRelatedFields(fields)
	if hasSection {
		level := dec.section.Level
		if !dec.section.Found {
			level = constants.DefaultHeadingLevel
		}
		doc.Body = codec.ReplaceSection(doc.Body, dec.section, codec.EncodeList(result.Entries, level))
	}
	doc.Set(r.options.revisionField, r.options.clock().UTC().Format(constants.RevisionLayout))

	text, err := doc.Render()
	if err != nil {
		return errors.WrapResource("encode", "contact", uid, err)
	}

	current, err := r.store.CurrentRevision(ctx, uid)
	if err != nil {
		return errors.WrapResource("read", "contact", uid, err)
	}
	if current != revision {
		return &errors.RevisionConflictError{UID: uid, Expected: uint64(revision), Actual: uint64(current)}
	}

	if err := r.store.WriteContactText(ctx, uid, text); err != nil {
		return errors.WrapResource("write", "contact", uid, err)
	}
	next, err := r.store.AdvanceRevision(ctx, uid)
	if err != nil {
		return errors.WrapResource("write", "contact", uid, err)
	}

	result.Written = true
	result.Revision = next
	logger.Info().
		Uint64("revision", uint64(next)).
		Str("changes", result.Changeset.String()).
		Msg("Wrote contact")
	return nil
}
