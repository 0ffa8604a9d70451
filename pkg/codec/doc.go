// Package codec converts relationship records to and from contact text.
//
// A contact carries its relationships twice: as RELATED keys in the YAML
// frontmatter and as a bulleted list under a "Related" heading in the
// note body. This package decodes and encodes both representations and
// splits a note into its frontmatter and body. It does no resolution;
// references come out exactly as written.
//
// Frontmatter grammar:
//
//	RELATED[<type>]: <reference>
//	RELATED[<index>:<type>]: <reference>
//
// where <reference> is urn:uuid:<uuid>, uid:<id> or name:<display name>.
//
// List grammar:
//
//	## Related
//	- <term> [[<display name>]]
package codec
