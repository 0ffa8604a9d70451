// Package memory provides an in-memory Store. It backs tests and any
// host that keeps contact notes in memory.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/store"
)

// Operation names passed to a Hook.
const (
	OpRead     = "read"
	OpWrite    = "write"
	OpRevision = "revision"
	OpAdvance  = "advance"
)

// Hook runs before an operation touches the store. It may call back
// into the store.
type Hook func(op, uid string)

type entry struct {
	contact  graph.Contact
	text     string
	revision store.Revision
	writes   int
}

// Store is a concurrent safe in-memory contact store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	hook    Hook
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// SetHook installs a hook, replacing any previous one. Passing nil removes it.
func (s *Store) SetHook(h Hook) {
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

func (s *Store) before(op, uid string) {
	s.mu.RLock()
	h := s.hook
	s.mu.RUnlock()
	if h != nil {
		h(op, uid)
	}
}

// Put adds or replaces a contact with its note text and bumps its revision.
func (s *Store) Put(c graph.Contact, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[c.UID]
	if !ok {
		e = &entry{}
		s.entries[c.UID] = e
	}
	e.contact = c
	e.text = text
	e.revision++
}

// Edit rewrites a contact's text as an external editor would, bumping
// the revision.
func (s *Store) Edit(uid string, fn func(text string) string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[uid]
	if !ok {
		return errors.NewNotFoundError("contact", uid)
	}
	e.text = fn(e.text)
	e.revision++
	return nil
}

// Text returns the current text of a contact, or "" when unknown.
func (s *Store) Text(uid string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.entries[uid]; ok {
		return e.text
	}
	return ""
}

// Writes returns how many times the contact was written through WriteContactText.
func (s *Store) Writes(uid string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.entries[uid]; ok {
		return e.writes
	}
	return 0
}

// ReadContactText implements store.Reader.
func (s *Store) ReadContactText(ctx context.Context, uid string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.before(OpRead, uid)

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[uid]
	if !ok {
		return "", errors.NewNotFoundError("contact", uid)
	}
	return e.text, nil
}

// WriteContactText implements store.Writer.
func (s *Store) WriteContactText(ctx context.Context, uid, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.before(OpWrite, uid)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[uid]
	if !ok {
		return errors.NewNotFoundError("contact", uid)
	}
	e.text = text
	e.writes++
	return nil
}

// ResolveContact implements store.Resolver. UUID and UID references match
// contact UIDs; name references match display names case-insensitively,
// preferring the lowest UID when several contacts share a name.
func (s *Store) ResolveContact(_ context.Context, ref codec.Reference) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch ref.Kind {
	case codec.KindUUID, codec.KindUID:
		if _, ok := s.entries[ref.Value]; ok {
			return ref.Value, true, nil
		}
		if ref.Kind == codec.KindUUID {
			for uid := range s.entries {
				if strings.EqualFold(uid, ref.Value) {
					return uid, true, nil
				}
			}
		}
		return "", false, nil
	default:
		fold := cases.Fold()
		want := fold.String(strings.TrimSpace(ref.Value))
		for _, uid := range slices.Sorted(maps.Keys(s.entries)) {
			if fold.String(s.entries[uid].contact.Name()) == want {
				return uid, true, nil
			}
		}
		return "", false, nil
	}
}

// CurrentRevision implements store.Revisions.
func (s *Store) CurrentRevision(_ context.Context, uid string) (store.Revision, error) {
	s.before(OpRevision, uid)

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[uid]
	if !ok {
		return 0, errors.NewNotFoundError("contact", uid)
	}
	return e.revision, nil
}

// AdvanceRevision implements store.Revisions.
func (s *Store) AdvanceRevision(_ context.Context, uid string) (store.Revision, error) {
	s.before(OpAdvance, uid)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[uid]
	if !ok {
		return 0, errors.NewNotFoundError("contact", uid)
	}
	e.revision++
	return e.revision, nil
}

// ListContacts implements store.Directory.
func (s *Store) ListContacts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.entries)), nil
}

// DescribeContact implements store.Directory.
func (s *Store) DescribeContact(_ context.Context, uid string) (graph.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[uid]
	if !ok {
		return graph.Contact{}, errors.NewNotFoundError("contact", uid)
	}
	return e.contact, nil
}
