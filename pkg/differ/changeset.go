package differ

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentstation/kinmap/pkg/codec"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates an item was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates an item was updated.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates an item was removed.
	ChangeTypeRemove ChangeType = "remove"
)

// FieldChange represents a change to a single frontmatter field.
type FieldChange struct {
	Path     string     // Field key (e.g., "RELATED[0:parent]")
	OldValue string     // Previous value
	NewValue string     // New value
	Type     ChangeType // Type of change
}

// EntryChangeset represents changes to the Related list.
type EntryChangeset struct {
	Added   []codec.ListEntry
	Removed []codec.ListEntry
}

// HasChanges returns true if any list entry changed.
func (e EntryChangeset) HasChanges() bool {
	return len(e.Added) > 0 || len(e.Removed) > 0
}

// Changeset represents every material change to one contact's text.
type Changeset struct {
	UID          string
	Fields       []FieldChange
	Entries      EntryChangeset
	SectionAdded bool
	Summary      ChangesetSummary
}

// ChangesetSummary provides summary statistics for a changeset.
type ChangesetSummary struct {
	FieldsAdded    int
	FieldsUpdated  int
	FieldsRemoved  int
	EntriesAdded   int
	EntriesRemoved int
	TotalChanges   int
}

func calculateSummary(c *Changeset) ChangesetSummary {
	var s ChangesetSummary
	for _, f := range c.Fields {
		switch f.Type {
		case ChangeTypeAdd:
			s.FieldsAdded++
		case ChangeTypeUpdate:
			s.FieldsUpdated++
		case ChangeTypeRemove:
			s.FieldsRemoved++
		}
	}
	s.EntriesAdded = len(c.Entries.Added)
	s.EntriesRemoved = len(c.Entries.Removed)
	s.TotalChanges = len(c.Fields) + s.EntriesAdded + s.EntriesRemoved
	if c.SectionAdded {
		s.TotalChanges++
	}
	return s
}

// HasChanges returns true if the changeset contains any changes.
func (c *Changeset) HasChanges() bool {
	return c != nil && c.Summary.TotalChanges > 0
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return !c.HasChanges()
}

// String returns a human-readable summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}

	var parts []string
	if n := len(c.Fields); n > 0 {
		parts = append(parts, fmt.Sprintf("Fields: %d added, %d updated, %d removed",
			c.Summary.FieldsAdded, c.Summary.FieldsUpdated, c.Summary.FieldsRemoved))
	}
	if c.Entries.HasChanges() {
		parts = append(parts, fmt.Sprintf("Entries: %d added, %d removed",
			c.Summary.EntriesAdded, c.Summary.EntriesRemoved))
	}
	if c.SectionAdded {
		parts = append(parts, "Section: added")
	}

	return fmt.Sprintf("Changeset %s: %s (Total: %d changes)", c.UID, strings.Join(parts, "; "), c.Summary.TotalChanges)
}

// Print writes a detailed, human-readable view of the changeset.
func (c *Changeset) Print(w io.Writer) {
	fmt.Fprintln(w, c.String())
	if c.IsEmpty() {
		return
	}

	for _, f := range c.Fields {
		switch f.Type {
		case ChangeTypeAdd:
			fmt.Fprintf(w, "  + %s: %s\n", f.Path, f.NewValue)
		case ChangeTypeRemove:
			fmt.Fprintf(w, "  - %s: %s\n", f.Path, f.OldValue)
		default:
			fmt.Fprintf(w, "  ~ %s: %s → %s\n", f.Path, f.OldValue, f.NewValue)
		}
	}
	for _, e := range c.Entries.Added {
		fmt.Fprintf(w, "  + %s [[%s]]\n", e.Term(), e.Name)
	}
	for _, e := range c.Entries.Removed {
		fmt.Fprintf(w, "  - %s [[%s]]\n", e.Term(), e.Name)
	}
}
