package codec

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/kinmap/pkg/constants"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/relations"
)

// FieldRecord is one relationship read from or written to frontmatter.
type FieldRecord struct {
	Type   relations.Type
	Gender relations.Gender // implied by the key's term
	Ref    Reference

	// Key and Index describe where a decoded record came from. Index is
	// -1 for the unindexed RELATED[<type>] form. Both are ignored by
	// EncodeFrontmatter.
	Key   string
	Index int
}

// Term returns the word the record renders as.
func (r FieldRecord) Term() string {
	return relations.Render(r.Type, r.Gender)
}

// relatedKey is a parsed RELATED key.
type relatedKey struct {
	index int
	term  string
}

// IsRelatedKey reports whether key belongs to the RELATED family,
// well-formed or not.
func IsRelatedKey(key string) bool {
	rest, ok := cutPrefixFold(strings.TrimSpace(key), constants.RelatedField)
	return ok && (rest == "" || strings.HasPrefix(rest, "["))
}

// parseRelatedKey splits a RELATED key. ok is false when the key is not
// in the RELATED family at all; err is set for family members that
// cannot be mapped to a relationship type.
func parseRelatedKey(key string) (relatedKey, bool, error) {
	rest, ok := cutPrefixFold(strings.TrimSpace(key), constants.RelatedField)
	if !ok {
		return relatedKey{}, false, nil
	}
	if rest == "" {
		return relatedKey{}, true, errors.New("no relationship type")
	}
	if !strings.HasPrefix(rest, "[") {
		return relatedKey{}, false, nil
	}
	if !strings.HasSuffix(rest, "]") {
		return relatedKey{}, true, errors.New("unterminated bracket")
	}

	inner := strings.TrimSpace(rest[1 : len(rest)-1])
	parsed := relatedKey{index: -1}
	if idx, term, found := strings.Cut(inner, ":"); found {
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil || n < 0 {
			return relatedKey{}, true, fmt.Errorf("index %q is not a non-negative integer", idx)
		}
		parsed.index = n
		parsed.term = strings.TrimSpace(term)
	} else if _, err := strconv.Atoi(inner); err == nil {
		return relatedKey{}, true, errors.New("no relationship type")
	} else {
		parsed.term = inner
	}

	if parsed.term == "" {
		return relatedKey{}, true, errors.New("no relationship type")
	}
	return parsed, true, nil
}

// isBlankValue reports values that mean "no entry".
func isBlankValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "null", "undefined", "~":
		return true
	}
	return false
}

// DecodeFrontmatter extracts relationship records from frontmatter
// fields. Keys outside the RELATED family are ignored. RELATED keys
// without a type segment are dropped and reported as MalformedKeyError
// diagnostics. Records are ordered by type, then index with the
// unindexed key first.
func DecodeFrontmatter(fields map[string]string) ([]FieldRecord, []error) {
	var (
		records []FieldRecord
		diags   []error
	)

	for key, value := range fields {
		parsed, related, err := parseRelatedKey(key)
		if !related {
			continue
		}
		if isBlankValue(value) {
			continue
		}
		if err != nil {
			diags = append(diags, errors.NewMalformedKeyError(key, value, err.Error()))
			continue
		}

		ref, ok := ParseReference(value)
		if !ok {
			continue
		}
		t, g := relations.Canonicalize(parsed.term)
		records = append(records, FieldRecord{
			Type:   t,
			Gender: g,
			Ref:    ref,
			Key:    key,
			Index:  parsed.index,
		})
	}

	slices.SortFunc(records, func(a, b FieldRecord) int {
		return cmp.Or(
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.Index, b.Index),
			cmp.Compare(a.Key, b.Key),
		)
	})
	slices.SortFunc(diags, func(a, b error) int {
		return cmp.Compare(a.Error(), b.Error())
	})
	return records, diags
}

// EncodeFrontmatter renders records as RELATED fields. Records are
// grouped by type in input order: the first of each type is written as
// RELATED[<term>], the following ones as RELATED[<n>:<term>] with n
// counting from zero.
func EncodeFrontmatter(records []FieldRecord) map[string]string {
	fields := make(map[string]string, len(records))
	seen := make(map[relations.Type]int)

	for _, r := range records {
		if r.Type == "" || r.Ref.IsZero() {
			continue
		}
		n, repeated := seen[r.Type]
		if !repeated {
			fields[FieldKey(-1, r.Term())] = r.Ref.String()
			seen[r.Type] = 0
			continue
		}
		fields[FieldKey(n, r.Term())] = r.Ref.String()
		seen[r.Type] = n + 1
	}
	return fields
}

// FieldKey formats a RELATED key. A negative index yields the unindexed form.
func FieldKey(index int, term string) string {
	if index < 0 {
		return fmt.Sprintf("%s[%s]", constants.RelatedField, term)
	}
	return fmt.Sprintf("%s[%d:%s]", constants.RelatedField, index, term)
}

// compareKeys orders RELATED keys the way DecodeFrontmatter orders records.
// Keys that do not parse sort last, by text.
func compareKeys(a, b string) int {
	pa, _, errA := parseRelatedKey(a)
	pb, _, errB := parseRelatedKey(b)
	if errA != nil || errB != nil {
		return cmp.Or(
			cmp.Compare(boolRank(errA != nil), boolRank(errB != nil)),
			cmp.Compare(a, b),
		)
	}
	ta, _ := relations.Canonicalize(pa.term)
	tb, _ := relations.Canonicalize(pb.term)
	return cmp.Or(
		cmp.Compare(ta, tb),
		cmp.Compare(pa.index, pb.index),
		cmp.Compare(a, b),
	)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
