package codec

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/kinmap/pkg/errors"
)

const fence = "---"

// Document is a contact note split into ordered frontmatter and body.
type Document struct {
	front    yaml.MapSlice
	hasFront bool

	// Body is the text after the frontmatter block.
	Body string
}

// ParseDocument splits text into frontmatter and body. Text that does not
// open with a "---" line has no frontmatter and is all body.
func ParseDocument(text string) (*Document, error) {
	raw, body, ok := splitFrontmatter(text)
	if !ok {
		return &Document{Body: text}, nil
	}

	doc := &Document{hasFront: true, Body: body}
	if strings.TrimSpace(raw) == "" {
		return doc, nil
	}
	if err := yaml.UnmarshalWithOptions([]byte(raw), &doc.front, yaml.UseOrderedMap()); err != nil {
		return nil, &errors.ParseError{
			Format:  "yaml",
			Message: "invalid frontmatter",
			Err:     err,
		}
	}
	return doc, nil
}

func splitFrontmatter(text string) (front, body string, ok bool) {
	lines := splitLines(text)
	if len(lines) == 0 || strings.TrimRight(lines[0].text, " \t") != fence {
		return "", text, false
	}
	for _, l := range lines[1:] {
		trimmed := strings.TrimRight(l.text, " \t")
		if trimmed != fence && trimmed != "..." {
			continue
		}
		front = text[lines[1].offset:l.offset]
		rest := l.offset + len(l.text)
		if rest < len(text) && text[rest] == '\r' {
			rest++
		}
		if rest < len(text) && text[rest] == '\n' {
			rest++
		}
		return front, text[rest:], true
	}
	return "", text, false
}

// HasFrontmatter reports whether the document carries a frontmatter block.
func (d *Document) HasFrontmatter() bool {
	return d.hasFront || len(d.front) > 0
}

// Keys returns the frontmatter keys in document order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.front))
	for _, item := range d.front {
		keys = append(keys, keyString(item.Key))
	}
	return keys
}

// Get returns a scalar frontmatter value as text.
func (d *Document) Get(key string) (string, bool) {
	for _, item := range d.front {
		if keyString(item.Key) == key {
			return scalarString(item.Value), true
		}
	}
	return "", false
}

// Set replaces the value of key in place, or appends the key.
func (d *Document) Set(key, value string) {
	for i, item := range d.front {
		if keyString(item.Key) == key {
			d.front[i].Value = value
			return
		}
	}
	d.front = append(d.front, yaml.MapItem{Key: key, Value: value})
}

// Delete removes key. It reports whether the key existed.
func (d *Document) Delete(key string) bool {
	for i, item := range d.front {
		if keyString(item.Key) == key {
			d.front = slices.Delete(d.front, i, i+1)
			return true
		}
	}
	return false
}

// RelatedFields returns every RELATED family field, well-formed or not.
// Non-scalar values come back empty.
func (d *Document) RelatedFields() map[string]string {
	fields := make(map[string]string)
	for _, item := range d.front {
		key := keyString(item.Key)
		if IsRelatedKey(key) {
			fields[key] = scalarString(item.Value)
		}
	}
	return fields
}

// SetRelatedFields removes every RELATED family field and appends fields
// in record order.
func (d *Document) SetRelatedFields(fields map[string]string) {
	d.front = slices.DeleteFunc(d.front, func(item yaml.MapItem) bool {
		return IsRelatedKey(keyString(item.Key))
	})

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	for _, k := range keys {
		d.front = append(d.front, yaml.MapItem{Key: k, Value: fields[k]})
	}
}

// Render joins frontmatter and body back into note text.
func (d *Document) Render() (string, error) {
	if !d.HasFrontmatter() {
		return d.Body, nil
	}

	var sb strings.Builder
	sb.WriteString(fence + "\n")
	if len(d.front) > 0 {
		data, err := yaml.MarshalWithOptions(d.front, yaml.Indent(2), yaml.IndentSequence(false))
		if err != nil {
			return "", errors.WrapParse("yaml", "", err)
		}
		sb.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			sb.WriteByte('\n')
		}
	}
	sb.WriteString(fence + "\n")
	sb.WriteString(d.Body)
	return sb.String(), nil
}

// String renders the document, falling back to the body alone if the
// frontmatter cannot be marshaled.
func (d *Document) String() string {
	text, err := d.Render()
	if err != nil {
		return d.Body
	}
	return text
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case yaml.MapSlice, []any, map[string]any, map[any]any:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
