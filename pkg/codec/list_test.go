package codec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/relations"
)

const johnBody = `# John Doe

Met at the reunion.

### related
- father [[Bob Doe]]
* Sister [[Jane Doe|Janie]]
- mother in law [[Gail]]
- call on sundays
- colleague Ann

## Notes
- parent [[Not Included]]
`

func TestDecodeList(t *testing.T) {
	items, section := codec.DecodeList(johnBody)
	require.True(t, section.Found)
	assert.Equal(t, 3, section.Level)
	assert.True(t, strings.HasPrefix(johnBody[section.Start:], "### related"))
	assert.True(t, strings.HasPrefix(johnBody[section.End:], "## Notes"))
	assert.Equal(t, []string{"- call on sundays", "- colleague Ann"}, section.Extra)

	require.Len(t, items, 3)
	assert.Equal(t, codec.ListEntry{Type: relations.Parent, Gender: relations.Male, Name: "Bob Doe"}, items[0].ListEntry)
	assert.Equal(t, codec.ListEntry{Type: relations.Sibling, Gender: relations.Female, Name: "Jane Doe"}, items[1].ListEntry)
	assert.Equal(t, codec.ListEntry{Type: relations.Type("mother-in-law"), Name: "Gail"}, items[2].ListEntry)
	assert.Equal(t, 5, items[0].Line)
}

func TestDecodeListWithoutSection(t *testing.T) {
	body := "# Bob\n\n- father [[John]]\n"
	items, section := codec.DecodeList(body)
	assert.Empty(t, items)
	assert.False(t, section.Found)
	assert.Equal(t, len(body), section.Start)
}

func TestEncodeList(t *testing.T) {
	out := codec.EncodeList([]codec.ListEntry{
		{Type: relations.Sibling, Gender: relations.Female, Name: "Jane"},
		{Type: relations.Parent, Gender: relations.Male, Name: "Bob"},
		{Type: relations.Parent, Name: "ann"},
	}, 2)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "## Related", lines[0])
	assert.Equal(t, "- parent [[ann]]", lines[1])
	assert.Equal(t, "- father [[Bob]]", lines[2])
	assert.Equal(t, "- sister [[Jane]]", lines[3])
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestEncodeListEmptyStillHasHeading(t *testing.T) {
	out := codec.EncodeList(nil, 4)
	assert.Equal(t, "#### Related\n", out)
}

func TestListRoundTrip(t *testing.T) {
	entries := []codec.ListEntry{
		{Type: relations.Child, Gender: relations.Male, Name: "Max"},
		{Type: relations.Friend, Name: "Carol"},
		{Type: relations.Type("godparent"), Name: "Gus"},
		{Type: relations.Auncle, Gender: relations.Female, Name: "Tia"},
	}

	items, section := codec.DecodeList(codec.EncodeList(entries, 2))
	require.True(t, section.Found)

	decoded := make([]codec.ListEntry, 0, len(items))
	for _, item := range items {
		decoded = append(decoded, item.ListEntry)
	}
	assert.ElementsMatch(t, entries, decoded)
}

func TestReplaceSection(t *testing.T) {
	_, section := codec.DecodeList(johnBody)
	rendered := codec.EncodeList([]codec.ListEntry{
		{Type: relations.Parent, Gender: relations.Male, Name: "Bob Doe"},
	}, section.Level)

	out := codec.ReplaceSection(johnBody, section, rendered)
	assert.Contains(t, out, "Met at the reunion.")
	assert.Contains(t, out, "### Related\n- father [[Bob Doe]]\n")
	assert.Contains(t, out, "- call on sundays\n- colleague Ann\n")
	assert.Contains(t, out, "## Notes\n- parent [[Not Included]]")
	assert.NotContains(t, out, "Jane Doe")

	_, again := codec.DecodeList(out)
	assert.Equal(t, out, codec.ReplaceSection(out, again, rendered), "replacement is stable")
}

func TestReplaceSectionAppends(t *testing.T) {
	rendered := codec.EncodeList([]codec.ListEntry{{Type: relations.Child, Name: "John"}}, 2)

	out := codec.ReplaceSection("# Bob\n\nSome notes.\n\n", codec.Section{}, rendered)
	assert.Equal(t, "# Bob\n\nSome notes.\n\n## Related\n- child [[John]]\n", out)

	assert.Equal(t, rendered, codec.ReplaceSection("", codec.Section{}, rendered))
}
