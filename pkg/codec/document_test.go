package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/errors"
)

const johnNote = `---
UID: john
FN: John Doe
RELATED[father]: name:Bob Doe
GENDER: M
---
# John Doe
`

func TestParseDocument(t *testing.T) {
	doc, err := codec.ParseDocument(johnNote)
	require.NoError(t, err)
	assert.True(t, doc.HasFrontmatter())
	assert.Equal(t, "# John Doe\n", doc.Body)
	assert.Equal(t, []string{"UID", "FN", "RELATED[father]", "GENDER"}, doc.Keys())

	fn, ok := doc.Get("FN")
	assert.True(t, ok)
	assert.Equal(t, "John Doe", fn)

	assert.Equal(t, map[string]string{"RELATED[father]": "name:Bob Doe"}, doc.RelatedFields())
}

func TestParseDocumentWithoutFrontmatter(t *testing.T) {
	doc, err := codec.ParseDocument("# Just a body\n")
	require.NoError(t, err)
	assert.False(t, doc.HasFrontmatter())
	assert.Equal(t, "# Just a body\n", doc.String())
}

func TestParseDocumentInvalidYAML(t *testing.T) {
	_, err := codec.ParseDocument("---\nFN: [unclosed\n---\nbody\n")
	var pe *errors.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestSetRelatedFields(t *testing.T) {
	doc, err := codec.ParseDocument(johnNote)
	require.NoError(t, err)

	doc.SetRelatedFields(map[string]string{
		"RELATED[friend]":   "uid:carol",
		"RELATED[0:parent]": "uid:ann",
		"RELATED[father]":   "uid:bob",
	})
	assert.Equal(t, []string{"UID", "FN", "GENDER", "RELATED[friend]", "RELATED[father]", "RELATED[0:parent]"}, doc.Keys())

	text, err := doc.Render()
	require.NoError(t, err)

	reparsed, err := codec.ParseDocument(text)
	require.NoError(t, err)
	assert.Equal(t, doc.Keys(), reparsed.Keys())
	assert.Equal(t, doc.RelatedFields(), reparsed.RelatedFields())
	assert.Equal(t, "# John Doe\n", reparsed.Body)
}

func TestDocumentSetAndDelete(t *testing.T) {
	doc, err := codec.ParseDocument("# Body only\n")
	require.NoError(t, err)

	doc.Set("REV", "20240309T140500Z")
	doc.Set("REV", "20240310T000000Z")
	rev, ok := doc.Get("REV")
	assert.True(t, ok)
	assert.Equal(t, "20240310T000000Z", rev)
	assert.True(t, doc.HasFrontmatter())

	text, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, text, "---\nREV:")
	assert.Contains(t, text, "---\n# Body only\n")

	assert.True(t, doc.Delete("REV"))
	assert.False(t, doc.Delete("REV"))
}
