package codec

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	md "github.com/nao1215/markdown"
	"golang.org/x/text/cases"

	"github.com/agentstation/kinmap/pkg/constants"
	"github.com/agentstation/kinmap/pkg/relations"
)

var (
	headingPattern = regexp.MustCompile(`^(#{1,6})[ \t]+(.*?)[ \t#]*$`)
	bulletPattern  = regexp.MustCompile(`^\s*[-*][ \t]+(.+?)[ \t]+\[\[([^\]|]+)(?:\|[^\]]*)?\]\][ \t]*$`)
)

// ListEntry is one relationship of the Related list.
type ListEntry struct {
	Type   relations.Type
	Gender relations.Gender // implied by the term
	Name   string           // link target, the related contact's display name
}

// Term returns the word the entry renders as.
func (e ListEntry) Term() string {
	return relations.Render(e.Type, e.Gender)
}

// ListItem is a ListEntry decoded from a body, with its source line.
type ListItem struct {
	ListEntry
	Line int // zero-based line number within the body
}

// Section locates the Related section in a body. Start and End are byte
// offsets: Start is the first byte of the heading line and End is the
// first byte of the following heading, or len(body). Extra holds the
// section's lines that are not relationship bullets, so rewriting the
// section keeps them.
type Section struct {
	Found bool
	Level int
	Start int
	End   int
	Extra []string
}

type line struct {
	text   string
	offset int
}

func splitLines(body string) []line {
	var lines []line
	offset := 0
	for offset < len(body) {
		end := strings.IndexByte(body[offset:], '\n')
		if end < 0 {
			lines = append(lines, line{text: body[offset:], offset: offset})
			break
		}
		lines = append(lines, line{text: strings.TrimSuffix(body[offset:offset+end], "\r"), offset: offset})
		offset += end + 1
	}
	return lines
}

// isRelatedHeading reports whether the heading text names the Related section.
func isRelatedHeading(text string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(text)) == fold.String(constants.RelatedHeading)
}

// DecodeList finds the first Related heading of any level and reads the
// bullet lines up to the next heading. Lines that are not of the form
// "- <term> [[<name>]]" are ignored. For "[[name|alias]]" links the
// name is used.
func DecodeList(body string) ([]ListItem, Section) {
	lines := splitLines(body)
	section := Section{End: len(body)}

	var items []ListItem
	for i, l := range lines {
		m := headingPattern.FindStringSubmatch(l.text)
		if !section.Found {
			if m != nil && isRelatedHeading(m[2]) {
				section.Found = true
				section.Level = len(m[1])
				section.Start = l.offset
			}
			continue
		}
		if m != nil {
			section.End = l.offset
			break
		}

		b := bulletPattern.FindStringSubmatch(l.text)
		if b == nil {
			section.Extra = append(section.Extra, l.text)
			continue
		}
		name := strings.TrimSpace(b[2])
		t, g := relations.Canonicalize(b[1])
		if t == "" || name == "" {
			section.Extra = append(section.Extra, l.text)
			continue
		}
		items = append(items, ListItem{
			ListEntry: ListEntry{Type: t, Gender: g, Name: name},
			Line:      i,
		})
	}

	if !section.Found {
		return nil, Section{Start: len(body), End: len(body)}
	}
	section.Extra = trimBlankLines(section.Extra)
	return items, section
}

// EncodeList renders the Related section: the heading at the given level
// followed by one bullet per entry, sorted by type then name. The heading
// is emitted even when entries is empty. The result ends with a newline.
func EncodeList(entries []ListEntry, level int) string {
	sorted := slices.Clone(entries)
	fold := cases.Fold()
	slices.SortStableFunc(sorted, func(a, b ListEntry) int {
		return cmp.Or(
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(fold.String(a.Name), fold.String(b.Name)),
			cmp.Compare(a.Name, b.Name),
		)
	})

	items := make([]string, 0, len(sorted))
	for _, e := range sorted {
		items = append(items, e.Term()+" [["+e.Name+"]]")
	}

	var buf strings.Builder
	doc := md.NewMarkdown(&buf)
	heading(doc, level, constants.RelatedHeading)
	if len(items) > 0 {
		doc.BulletList(items...)
	}
	return strings.TrimRight(doc.String(), "\r\n") + "\n"
}

func heading(doc *md.Markdown, level int, text string) {
	switch level {
	case 1:
		doc.H1(text)
	case 3:
		doc.H3(text)
	case 4:
		doc.H4(text)
	case 5:
		doc.H5(text)
	case 6:
		doc.H6(text)
	default:
		doc.H2(text)
	}
}

// ReplaceSection swaps the located section for rendered, or appends
// rendered to the end of body, separated by a blank line, when the
// section was not found. Non-bullet lines of the old section follow the
// new list.
func ReplaceSection(body string, at Section, rendered string) string {
	if !at.Found {
		trimmed := strings.TrimRight(body, "\r\n \t")
		if trimmed == "" {
			return rendered
		}
		return trimmed + "\n\n" + rendered
	}

	out := rendered
	if len(at.Extra) > 0 {
		out += "\n" + strings.Join(at.Extra, "\n") + "\n"
	}
	tail := body[at.End:]
	if tail != "" {
		out += "\n"
	}
	return body[:at.Start] + out + tail
}

func trimBlankLines(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil
	}
	return lines
}
