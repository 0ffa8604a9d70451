package kinmap_test

import (
	"context"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/kinmap"
	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/relations"
	"github.com/agentstation/kinmap/pkg/store/memory"
	"github.com/agentstation/kinmap/pkg/sync"
)

func fixedClock() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) }

// johnAndBob returns a store where John lists Bob as parent and Bob lists nobody.
func johnAndBob() *memory.Store {
	st := memory.New()
	st.Put(graph.Contact{UID: "john", DisplayName: "John Doe", Gender: relations.Male},
		"---\nUID: john\nFN: John Doe\n---\n# John Doe\n\n## Related\n- parent [[Bob Doe]]\n")
	st.Put(graph.Contact{UID: "bob", DisplayName: "Bob Doe", Gender: relations.Male},
		"---\nUID: bob\nFN: Bob Doe\n---\n# Bob Doe\n")
	return st
}

func newKinmap(t *testing.T, st *memory.Store) kinmap.Kinmap {
	t.Helper()
	km, err := kinmap.New(st, kinmap.WithClock(fixedClock))
	require.NoError(t, err)
	return km
}

func TestNewValidation(t *testing.T) {
	_, err := kinmap.New(nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = kinmap.New(memory.New(), kinmap.WithMaxAttempts(0))
	assert.True(t, errors.IsValidationError(err))

	_, err = kinmap.New(memory.New(), kinmap.WithGraph(nil))
	assert.True(t, errors.IsValidationError(err))

	g := graph.New()
	km, err := kinmap.New(memory.New(), kinmap.WithGraph(g), kinmap.WithRevisionField("UPDATED"))
	require.NoError(t, err)
	assert.Same(t, g, km.Graph())
}

func TestSyncRepairsReciprocals(t *testing.T) {
	ctx := context.Background()
	st := johnAndBob()
	km := newKinmap(t, st)

	result, err := km.Sync(ctx)
	require.NoError(t, err)

	assert.True(t, result.Converged)
	assert.Len(t, result.Iterations, 2)
	assert.Equal(t, 2, result.TotalWrites)
	assert.Equal(t, 2, result.TotalEdgesAdded)
	assert.Equal(t, 1, result.TotalRepairs)
	assert.Empty(t, result.Missing)
	assert.True(t, result.Iterations[1].Settled())

	john, err := codec.ParseDocument(st.Text("john"))
	require.NoError(t, err)
	assert.Equal(t, "uid:bob", john.RelatedFields()["RELATED[father]"])

	bob, err := codec.ParseDocument(st.Text("bob"))
	require.NoError(t, err)
	assert.Contains(t, bob.Body, "- son [[John Doe]]")
	assert.Equal(t, "uid:john", bob.RelatedFields()["RELATED[son]"])

	assert.True(t, km.Graph().HasEdge("john", "bob", relations.Parent))
	assert.True(t, km.Graph().HasEdge("bob", "john", relations.Child))

	contacts := result.SortedContacts()
	require.Len(t, contacts, 2)
	assert.Equal(t, "Bob Doe", contacts[0].Name)
	assert.Equal(t, "updated", contacts[0].Status())
	assert.Equal(t, 1, contacts[1].Writes)

	t.Run("second pass writes nothing", func(t *testing.T) {
		again, err := km.Sync(ctx)
		require.NoError(t, err)
		assert.True(t, again.Converged)
		assert.Len(t, again.Iterations, 1)
		assert.Zero(t, again.TotalWrites)
		assert.False(t, again.HasChanges())
		assert.Equal(t, 1, st.Writes("john"))
		assert.Equal(t, 1, st.Writes("bob"))
	})
}

func TestSyncConvergesWithGenderedContacts(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	st.Put(graph.Contact{UID: "john", DisplayName: "John Doe", Gender: relations.Male},
		"---\nUID: john\nFN: John Doe\n---\n# John Doe\n\n## Related\n- friend [[Ann Roe]]\n- colleague [[Sam Poe]]\n")
	st.Put(graph.Contact{UID: "ann", DisplayName: "Ann Roe", Gender: relations.Female},
		"---\nUID: ann\nFN: Ann Roe\n---\n# Ann Roe\n")
	st.Put(graph.Contact{UID: "sam", DisplayName: "Sam Poe", Gender: relations.NonBinary},
		"---\nUID: sam\nFN: Sam Poe\n---\n# Sam Poe\n\n## Related\n- cousin [[John Doe]]\n- mentor [[Ann Roe]]\n")
	km := newKinmap(t, st)

	result, err := km.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Len(t, result.Iterations, 2)
	assert.Empty(t, result.Missing)

	ann, err := codec.ParseDocument(st.Text("ann"))
	require.NoError(t, err)
	assert.Contains(t, ann.Body, "- friend [[John Doe]]")

	john, err := codec.ParseDocument(st.Text("john"))
	require.NoError(t, err)
	assert.Contains(t, john.Body, "- cousin [[Sam Poe]]")

	writes := map[string]int{}
	for _, uid := range []string{"john", "ann", "sam"} {
		writes[uid] = st.Writes(uid)
	}

	again, err := km.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, again.Converged)
	assert.Len(t, again.Iterations, 1)
	assert.Zero(t, again.TotalWrites)
	for uid, n := range writes {
		assert.Equal(t, n, st.Writes(uid), uid)
	}
}

func TestSyncDryRun(t *testing.T) {
	st := johnAndBob()
	before := st.Text("bob")
	km := newKinmap(t, st)

	result, err := km.Sync(context.Background(), sync.WithDryRun(true))
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.True(t, result.Converged)
	assert.Zero(t, result.TotalWrites)
	assert.True(t, result.HasChanges())
	assert.True(t, result.Contact("john").Pending)
	assert.True(t, result.Contact("bob").Pending)
	assert.Zero(t, st.Writes("john"))
	assert.Equal(t, before, st.Text("bob"))
}

func TestSyncReportsIterationBound(t *testing.T) {
	km := newKinmap(t, johnAndBob())

	result, err := km.Sync(context.Background(), sync.WithMaxIterations(1))
	require.NoError(t, err)
	assert.False(t, result.Converged)
	assert.Len(t, result.Iterations, 1)
	assert.Contains(t, result.Summary(), "(Not converged)")
}

func TestSyncSkipRepair(t *testing.T) {
	st := johnAndBob()
	km := newKinmap(t, st)

	result, err := km.Sync(context.Background(), sync.WithSkipRepair(true))
	require.NoError(t, err)
	assert.True(t, result.Converged)
	require.Len(t, result.Missing, 1)
	assert.Equal(t, "bob", result.Missing[0].Source)
	assert.Zero(t, st.Writes("bob"))
}

func TestSyncIsolatesContactFailures(t *testing.T) {
	st := johnAndBob()
	st.Put(graph.Contact{UID: "broken", DisplayName: "Broken"}, "---\nFN: [Broken\n---\n# Broken\n")

	t.Run("continue", func(t *testing.T) {
		km := newKinmap(t, st)
		result, err := km.Sync(context.Background())
		require.NoError(t, err)

		failed := result.Failures()
		require.Len(t, failed, 1)
		assert.Equal(t, "broken", failed[0].UID)
		assert.Contains(t, st.Text("bob"), "[[John Doe]]")
	})

	t.Run("fail fast", func(t *testing.T) {
		km := newKinmap(t, st)
		result, err := km.Sync(context.Background(), sync.WithFailFast(true), sync.WithConcurrency(1))
		require.Error(t, err)
		require.NotNil(t, result)
		assert.NotEmpty(t, result.Contact("broken").Error)
	})
}

func TestSyncHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	km := newKinmap(t, johnAndBob())
	_, err := km.Sync(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSyncRejectsInvalidOptions(t *testing.T) {
	km := newKinmap(t, johnAndBob())
	_, err := km.Sync(context.Background(), sync.WithConcurrency(0))
	assert.True(t, errors.IsValidationError(err))
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	km := newKinmap(t, johnAndBob())

	tests := []struct {
		query string
		want  string
	}{
		{"bob", "bob"},
		{"uid:john", "john"},
		{"Bob Doe", "bob"},
		{"name:john doe", "john"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			uid, err := km.Lookup(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, uid)
		})
	}

	_, err := km.Lookup(ctx, "Alice")
	assert.True(t, errors.IsNotFound(err))
	_, err = km.Lookup(ctx, "")
	assert.True(t, errors.IsValidationError(err))
}

func TestCheckAndRepair(t *testing.T) {
	ctx := context.Background()
	st := johnAndBob()
	km := newKinmap(t, st)

	_, err := km.Reconcile(ctx, "john")
	require.NoError(t, err)

	missing := km.Check(ctx)
	require.Len(t, missing, 1)
	assert.Equal(t, relations.Child, missing[0].ExpectedType)

	report := km.Repair(ctx, missing)
	assert.False(t, report.HasFailures())
	assert.Equal(t, 1, report.Writes())
	assert.Empty(t, km.Check(ctx))
}

func TestUnlink(t *testing.T) {
	ctx := context.Background()
	st := johnAndBob()
	km := newKinmap(t, st)

	_, err := km.Sync(ctx)
	require.NoError(t, err)

	result, err := km.Unlink(ctx, "john", "bob", "father")
	require.NoError(t, err)
	assert.ElementsMatch(t, []graph.Edge{
		{Source: "john", Target: "bob", Type: relations.Parent},
		{Source: "bob", Target: "john", Type: relations.Child},
	}, result.Removed)
	require.Len(t, result.Rewritten, 2)

	assert.NotContains(t, st.Text("john"), "[[Bob Doe]]")
	assert.NotContains(t, st.Text("bob"), "[[John Doe]]")
	assert.Empty(t, km.Check(ctx))

	_, err = km.Unlink(ctx, "john", "bob", "parent")
	assert.True(t, errors.IsNotFound(err))

	_, err = km.Unlink(ctx, "john", "nobody", "parent")
	assert.True(t, errors.IsNotFound(err))

	_, err = km.Unlink(ctx, "john", "bob", "")
	assert.True(t, errors.IsValidationError(err))

	again, err := km.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.TotalEdgesAdded)
}

func TestUnlinkWaitsForRunningSync(t *testing.T) {
	ctx := context.Background()
	st := johnAndBob()
	km := newKinmap(t, st)

	_, err := km.Sync(ctx)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	var once gosync.Once
	st.SetHook(func(op, _ string) {
		if op != memory.OpRead {
			return
		}
		once.Do(func() { close(started) })
		<-release
	})

	syncDone := make(chan error, 1)
	go func() {
		_, err := km.Sync(ctx)
		syncDone <- err
	}()
	<-started

	var unlinked atomic.Bool
	unlinkDone := make(chan error, 1)
	go func() {
		_, err := km.Unlink(ctx, "john", "bob", "parent")
		unlinked.Store(true)
		unlinkDone <- err
	}()

	assert.Never(t, unlinked.Load, 50*time.Millisecond, 5*time.Millisecond)
	close(release)

	require.NoError(t, <-syncDone)
	require.NoError(t, <-unlinkDone)
	st.SetHook(nil)

	assert.False(t, km.Graph().HasEdge("john", "bob", relations.Parent))
	assert.False(t, km.Graph().HasEdge("bob", "john", relations.Child))
	assert.NotContains(t, st.Text("john"), "[[Bob Doe]]")
	assert.NotContains(t, st.Text("bob"), "[[John Doe]]")
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	km := newKinmap(t, johnAndBob())

	_, err := km.Load(ctx)
	require.NoError(t, err)
	assert.True(t, km.Forget(ctx, "bob"))
	assert.False(t, km.Forget(ctx, "bob"))
	assert.False(t, km.Graph().HasContact("bob"))
}
