package vault_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/kinmap"
	"github.com/agentstation/kinmap/internal/vault"
	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/relations"
)

const johnUUID = "5F0C2B7E-2D1B-4E58-9A7C-3B4C5D6E7F80"

func writeNote(t *testing.T, root, rel, text string) {
	t.Helper()
	file := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(text), 0o644))
}

func readNote(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func newVault(t *testing.T, opts ...vault.Option) (string, *vault.Vault) {
	t.Helper()
	root := t.TempDir()
	writeNote(t, root, "people/john.md", "---\nUID: urn:uuid:"+johnUUID+"\nFN: John Doe\nGENDER: M\n---\n# John\n\n## Related\n- parent [[Bob Doe]]\n")
	writeNote(t, root, "people/bob.md", "---\nUID: bob\nFN: Bob Doe\nGENDER: M\n---\n# Bob\n")
	writeNote(t, root, "people/ann-lee.md", "# Ann\n")
	writeNote(t, root, "archive/old.md", "---\nUID: old\n---\n")
	writeNote(t, root, "people/readme.txt", "not a note")

	v, err := vault.Open(context.Background(), root, opts...)
	require.NoError(t, err)
	return root, v
}

func TestOpenIndexesNotes(t *testing.T) {
	ctx := context.Background()
	_, v := newVault(t, vault.WithExclude("archive"))

	uids, err := v.ListContacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{strings.ToLower(johnUUID), "bob", "people/ann-lee"}, uids)

	john, err := v.DescribeContact(ctx, strings.ToLower(johnUUID))
	require.NoError(t, err)
	assert.Equal(t, "John Doe", john.DisplayName)
	assert.Equal(t, relations.Male, john.Gender)
	assert.Equal(t, "people/john.md", john.Handle)

	ann, err := v.DescribeContact(ctx, "people/ann-lee")
	require.NoError(t, err)
	assert.Equal(t, "ann-lee", ann.DisplayName)

	_, err = v.DescribeContact(ctx, "old")
	assert.True(t, errors.IsNotFound(err))
}

func TestOpenValidation(t *testing.T) {
	ctx := context.Background()
	_, err := vault.Open(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = vault.Open(ctx, t.TempDir(), vault.WithExclude("[bad"))
	assert.True(t, errors.IsValidationError(err))
}

func TestResolveContact(t *testing.T) {
	ctx := context.Background()
	_, v := newVault(t)

	tests := []struct {
		name string
		ref  codec.Reference
		want string
		ok   bool
	}{
		{"uuid", codec.UUIDRef(strings.ToLower(johnUUID)), strings.ToLower(johnUUID), true},
		{"uuid upper", codec.UIDRef(johnUUID), strings.ToLower(johnUUID), true},
		{"uid", codec.UIDRef("bob"), "bob", true},
		{"name", codec.NameRef("bob doe"), "bob", true},
		{"stem", codec.NameRef("Ann-Lee"), "people/ann-lee", true},
		{"unknown", codec.NameRef("Zed"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid, ok, err := v.ResolveContact(ctx, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, uid)
		})
	}
}

func TestRevisionsTrackExternalEdits(t *testing.T) {
	ctx := context.Background()
	root, v := newVault(t)

	r1, err := v.CurrentRevision(ctx, "bob")
	require.NoError(t, err)
	r2, err := v.CurrentRevision(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	writeNote(t, root, "people/bob.md", "---\nUID: bob\nFN: Bob Doe\n---\n# Bob edited\n")
	r3, err := v.CurrentRevision(ctx, "bob")
	require.NoError(t, err)
	assert.Greater(t, r3, r2)

	require.NoError(t, v.WriteContactText(ctx, "bob", "---\nUID: bob\n---\n# Bob rewritten\n"))
	r4, err := v.CurrentRevision(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, r3, r4, "own writes are not external edits")

	r5, err := v.AdvanceRevision(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, r4+1, r5)

	text, err := v.ReadContactText(ctx, "bob")
	require.NoError(t, err)
	assert.Contains(t, text, "# Bob rewritten")
}

func TestAssignMissingUIDs(t *testing.T) {
	ctx := context.Background()
	root, v := newVault(t, vault.WithExclude("archive/**"))

	planned, err := v.AssignMissingUIDs(ctx, true)
	require.NoError(t, err)
	require.Len(t, planned, 1)
	assert.Equal(t, "people/ann-lee.md", planned[0].Path)
	assert.Equal(t, "# Ann\n", readNote(t, root, "people/ann-lee.md"))

	assigned, err := v.AssignMissingUIDs(ctx, false)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.True(t, codec.IsUUID(assigned[0].UID))

	doc, err := codec.ParseDocument(readNote(t, root, "people/ann-lee.md"))
	require.NoError(t, err)
	uid, _ := doc.Get("UID")
	assert.Equal(t, "urn:uuid:"+assigned[0].UID, uid)
	name, _ := doc.Get("FN")
	assert.Equal(t, "ann-lee", name)

	contact, err := v.DescribeContact(ctx, assigned[0].UID)
	require.NoError(t, err)
	assert.Equal(t, "ann-lee", contact.DisplayName)

	again, err := v.AssignMissingUIDs(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestSyncOverVault(t *testing.T) {
	ctx := context.Background()
	root, v := newVault(t, vault.WithExclude("archive"))

	km, err := kinmap.New(v)
	require.NoError(t, err)

	result, err := km.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Empty(t, result.Missing)

	bob := readNote(t, root, "people/bob.md")
	assert.Contains(t, bob, "- son [[John Doe]]")
	assert.Contains(t, bob, "urn:uuid:"+strings.ToLower(johnUUID))

	john, err := codec.ParseDocument(readNote(t, root, "people/john.md"))
	require.NoError(t, err)
	assert.Equal(t, "uid:bob", john.RelatedFields()["RELATED[father]"])

	again, err := km.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.TotalWrites)
}
