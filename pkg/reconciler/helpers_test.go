package reconciler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/reconciler"
	"github.com/agentstation/kinmap/pkg/relations"
	"github.com/agentstation/kinmap/pkg/store/memory"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fixture is a store holding John and Bob, a graph, and a reconciler.
type fixture struct {
	ctx   context.Context
	store *memory.Store
	graph *graph.Graph
	rec   reconciler.Reconciler
}

func newFixture(t *testing.T, opts ...reconciler.Option) *fixture {
	t.Helper()

	st := memory.New()
	st.Put(graph.Contact{UID: "john", DisplayName: "John Doe"}, "---\nUID: john\nFN: John Doe\n---\n# John Doe\n")
	st.Put(graph.Contact{UID: "bob", DisplayName: "Bob Doe"}, "---\nUID: bob\nFN: Bob Doe\n---\n# Bob Doe\n")

	g := graph.New()
	rec, err := reconciler.New(g, st, append([]reconciler.Option{reconciler.WithClock(fixedClock)}, opts...)...)
	require.NoError(t, err)

	return &fixture{ctx: context.Background(), store: st, graph: g, rec: rec}
}

// note builds contact text from frontmatter lines and a body.
func note(front []string, body string) string {
	text := "---\n"
	for _, line := range front {
		text += line + "\n"
	}
	return text + "---\n" + body
}

func (f *fixture) set(t *testing.T, uid, text string) {
	t.Helper()
	require.NoError(t, f.store.Edit(uid, func(string) string { return text }))
}

// decodeText returns the RELATED fields and list entries of stored text.
func decodeText(t *testing.T, text string) (map[string]string, []codec.ListEntry) {
	t.Helper()
	doc, err := codec.ParseDocument(text)
	require.NoError(t, err)

	items, _ := codec.DecodeList(doc.Body)
	entries := make([]codec.ListEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.ListEntry)
	}
	return doc.RelatedFields(), entries
}

func entry(term, name string) codec.ListEntry {
	t, g := relations.Canonicalize(term)
	return codec.ListEntry{Type: t, Gender: g, Name: name}
}
