// Package differ decides whether re-encoding a contact changed it.
//
// The comparison works on decoded structure, not raw text: frontmatter
// fields are compared as a key/value set and list entries as a multiset,
// so reordering or reformatting alone is never a change.
package differ

import (
	"cmp"
	"slices"

	"golang.org/x/text/cases"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/constants"
	"github.com/agentstation/kinmap/pkg/relations"
)

// Snapshot is the relationship-bearing state of one contact's text.
type Snapshot struct {
	// Fields holds the RELATED frontmatter fields plus any other fields
	// the caller wants compared.
	Fields map[string]string

	// Items holds the Related list entries.
	Items []codec.ListEntry

	// HasSection reports whether the body carries a Related heading.
	HasSection bool
}

// Differ handles change detection between encodings.
type Differ interface {
	// Contact compares the stored snapshot of a contact with a freshly
	// encoded one.
	Contact(uid string, existing, updated Snapshot) *Changeset
}

// differ is the default implementation of Differ.
type differ struct {
	ignoreFields map[string]bool
}

// New creates a Differ that ignores the revision field.
func New(opts ...Option) Differ {
	d := &differ{
		ignoreFields: map[string]bool{constants.RevisionField: true},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Contact compares two snapshots of the same contact.
func (diff *differ) Contact(uid string, existing, updated Snapshot) *Changeset {
	changeset := &Changeset{
		UID:          uid,
		Fields:       diff.fields(existing.Fields, updated.Fields),
		SectionAdded: updated.HasSection && !existing.HasSection,
	}
	changeset.Entries = entries(existing.Items, updated.Items)
	changeset.Summary = calculateSummary(changeset)
	return changeset
}

func (diff *differ) fields(existing, updated map[string]string) []FieldChange {
	var changes []FieldChange

	for key, newValue := range updated {
		if diff.ignoreFields[key] {
			continue
		}
		oldValue, exists := existing[key]
		switch {
		case !exists:
			changes = append(changes, FieldChange{Path: key, NewValue: newValue, Type: ChangeTypeAdd})
		case oldValue != newValue:
			changes = append(changes, FieldChange{Path: key, OldValue: oldValue, NewValue: newValue, Type: ChangeTypeUpdate})
		}
	}
	for key, oldValue := range existing {
		if diff.ignoreFields[key] {
			continue
		}
		if _, exists := updated[key]; !exists {
			changes = append(changes, FieldChange{Path: key, OldValue: oldValue, Type: ChangeTypeRemove})
		}
	}

	slices.SortFunc(changes, func(a, b FieldChange) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return changes
}

// entryKey is what a list line shows: the type, the rendered term and
// the case-folded link name. Genders that render the same term compare
// equal.
type entryKey struct {
	typ  relations.Type
	term string
	name string
}

// entries compares two entry multisets. Names compare case-insensitively
// because the list link text is resolved that way.
func entries(existing, updated []codec.ListEntry) EntryChangeset {
	fold := cases.Fold()
	key := func(e codec.ListEntry) entryKey {
		return entryKey{typ: e.Type, term: e.Term(), name: fold.String(e.Name)}
	}

	counts := make(map[entryKey]int, len(existing))
	for _, e := range existing {
		counts[key(e)]++
	}

	var changes EntryChangeset
	for _, e := range updated {
		k := key(e)
		if counts[k] > 0 {
			counts[k]--
			continue
		}
		changes.Added = append(changes.Added, e)
	}

	remaining := make(map[entryKey]int, len(counts))
	for k, n := range counts {
		if n > 0 {
			remaining[k] = n
		}
	}
	for _, e := range existing {
		k := key(e)
		if remaining[k] > 0 {
			remaining[k]--
			changes.Removed = append(changes.Removed, e)
		}
	}

	sortEntries(changes.Added)
	sortEntries(changes.Removed)
	return changes
}

func sortEntries(list []codec.ListEntry) {
	slices.SortFunc(list, func(a, b codec.ListEntry) int {
		return cmp.Or(
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Gender, b.Gender),
		)
	})
}
