package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/store/memory"
)

func TestStoreReadWrite(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.Put(graph.Contact{UID: "john", DisplayName: "John Doe"}, "# John\n")

	text, err := s.ReadContactText(ctx, "john")
	require.NoError(t, err)
	assert.Equal(t, "# John\n", text)

	require.NoError(t, s.WriteContactText(ctx, "john", "# John Doe\n"))
	assert.Equal(t, "# John Doe\n", s.Text("john"))
	assert.Equal(t, 1, s.Writes("john"))

	_, err = s.ReadContactText(ctx, "ghost")
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(s.WriteContactText(ctx, "ghost", "")))
}

func TestStoreRevisions(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.Put(graph.Contact{UID: "john"}, "a")

	r1, err := s.CurrentRevision(ctx, "john")
	require.NoError(t, err)

	require.NoError(t, s.Edit("john", func(text string) string { return text + "b" }))
	r2, err := s.CurrentRevision(ctx, "john")
	require.NoError(t, err)
	assert.Greater(t, r2, r1)
	assert.Equal(t, "ab", s.Text("john"))

	r3, err := s.AdvanceRevision(ctx, "john")
	require.NoError(t, err)
	assert.Greater(t, r3, r2)

	assert.True(t, errors.IsNotFound(s.Edit("ghost", func(s string) string { return s })))
}

func TestStoreResolve(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.Put(graph.Contact{UID: "b2", DisplayName: "Bob Doe"}, "")
	s.Put(graph.Contact{UID: "b1", DisplayName: "bob doe"}, "")
	s.Put(graph.Contact{UID: "6f1c2a9e-3b1d-4c8e-9a57-2d0f4b8e1c33", DisplayName: "Ann"}, "")

	uid, ok, err := s.ResolveContact(ctx, codec.NameRef("BOB DOE"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b1", uid)

	uid, ok, _ = s.ResolveContact(ctx, codec.UIDRef("b2"))
	assert.True(t, ok)
	assert.Equal(t, "b2", uid)

	uid, ok, _ = s.ResolveContact(ctx, codec.UUIDRef("6f1c2a9e-3b1d-4c8e-9a57-2d0f4b8e1c33"))
	assert.True(t, ok)
	assert.Equal(t, "6f1c2a9e-3b1d-4c8e-9a57-2d0f4b8e1c33", uid)

	_, ok, err = s.ResolveContact(ctx, codec.NameRef("Nobody"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreDirectoryAndHook(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.Put(graph.Contact{UID: "zed", DisplayName: "Zed"}, "")
	s.Put(graph.Contact{UID: "amy", DisplayName: "Amy"}, "")

	uids, err := s.ListContacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "zed"}, uids)

	c, err := s.DescribeContact(ctx, "zed")
	require.NoError(t, err)
	assert.Equal(t, "Zed", c.DisplayName)

	var ops []string
	s.SetHook(func(op, uid string) { ops = append(ops, op+":"+uid) })
	_, _ = s.ReadContactText(ctx, "amy")
	_, _ = s.CurrentRevision(ctx, "amy")
	s.SetHook(nil)
	_, _ = s.ReadContactText(ctx, "amy")
	assert.Equal(t, []string{"read:amy", "revision:amy"}, ops)
}
