// Package store defines the collaborator contracts the reconciler needs:
// reading and writing contact text, resolving references to contacts,
// and tracking per-contact revisions. The reconciler never touches a
// file system or database directly.
package store

import (
	"context"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/graph"
)

// Revision is an opaque, monotonically increasing token of a contact's
// stored text. Any change to the text, ours or external, must produce a
// different revision.
type Revision uint64

// Reader reads contact text.
type Reader interface {
	// ReadContactText returns the full text of the contact's note.
	ReadContactText(ctx context.Context, uid string) (string, error)
}

// Writer writes contact text.
type Writer interface {
	// WriteContactText replaces the full text of the contact's note.
	WriteContactText(ctx context.Context, uid, text string) error
}

// Resolver maps a reference to a contact UID.
type Resolver interface {
	// ResolveContact returns the UID a reference points at. ok is false,
	// with a nil error, when nothing matches.
	ResolveContact(ctx context.Context, ref codec.Reference) (uid string, ok bool, err error)
}

// Revisions tracks per-contact revision tokens.
type Revisions interface {
	// CurrentRevision returns the revision of the contact's stored text.
	CurrentRevision(ctx context.Context, uid string) (Revision, error)

	// AdvanceRevision records that we just wrote the contact and returns
	// the new revision.
	AdvanceRevision(ctx context.Context, uid string) (Revision, error)
}

// Directory enumerates contacts and describes their attributes.
type Directory interface {
	// ListContacts returns every contact UID, sorted.
	ListContacts(ctx context.Context) ([]string, error)

	// DescribeContact returns the node attributes of a contact.
	DescribeContact(ctx context.Context, uid string) (graph.Contact, error)
}

// Store is everything the reconciler and the whole-set pass need.
type Store interface {
	Reader
	Writer
	Resolver
	Revisions
	Directory
}
