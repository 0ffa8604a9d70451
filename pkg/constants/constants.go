// Package constants provides shared constants used throughout the kinmap codebase.
// This includes limits, file permissions, and the field names of the contact
// text grammar that must stay consistent between the codecs and the vault.
package constants

// Limit constants bound the whole-set reconciliation pass.
const (
	// DefaultMaxIterations is the fixed-point bound of a whole-set pass
	DefaultMaxIterations = 10

	// MaxConcurrentContacts is the default number of contacts reconciled in parallel
	MaxConcurrentContacts = 8

	// MaxReconcileAttempts is the number of read-merge-write attempts per contact
	// before a revision conflict is reported
	MaxReconcileAttempts = 2
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Field names of the frontmatter block.
const (
	// RelatedField is the key prefix of relationship entries
	RelatedField = "RELATED"

	// RevisionField carries the last-write timestamp
	RevisionField = "REV"

	// UIDField carries the stable contact identifier
	UIDField = "UID"

	// NameField carries the formatted display name
	NameField = "FN"

	// GenderField carries the vCard gender code
	GenderField = "GENDER"
)

// Body text conventions.
const (
	// RelatedHeading is the heading text of the relationship list section
	RelatedHeading = "Related"

	// DefaultHeadingLevel is used when a section is emitted for the first time
	DefaultHeadingLevel = 2

	// RevisionLayout is the vCard basic timestamp layout used for REV
	RevisionLayout = "20060102T150405Z"

	// NoteExtension is the file extension of contact notes in a vault
	NoteExtension = ".md"
)
