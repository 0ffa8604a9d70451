// Package kinmap keeps typed relationships between contact records
// consistent across a contact set.
//
// A Kinmap owns one relationship graph and reconciles contacts held by a
// store.Store: each contact's frontmatter and Related section are merged
// into the graph, missing reciprocal relationships are repaired, and the
// merged state is written back to both representations.
//
//	km, err := kinmap.New(st)
//	result, err := km.Sync(ctx)
package kinmap

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/consistency"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/logging"
	"github.com/agentstation/kinmap/pkg/reconciler"
	"github.com/agentstation/kinmap/pkg/store"
	syncpkg "github.com/agentstation/kinmap/pkg/sync"
)

// Kinmap manages a relationship graph over a contact store.
type Kinmap interface {
	// Graph returns the relationship graph shared by every operation.
	Graph() *graph.Graph

	// Load adds every contact listed by the store to the graph and
	// returns their UIDs in store order.
	Load(ctx context.Context) ([]string, error)

	// Lookup finds the UID for a UID, a reference or a display name.
	Lookup(ctx context.Context, query string) (string, error)

	// Reconcile merges one contact's text with the graph and writes it back.
	Reconcile(ctx context.Context, uid string) (*reconciler.Result, error)

	// Check reports every relationship whose reciprocal is missing.
	Check(ctx context.Context) []consistency.MissingReciprocal

	// Repair adds the missing reciprocals and reconciles their owners.
	Repair(ctx context.Context, missing []consistency.MissingReciprocal) *consistency.Report

	// Sync runs the whole-set pass until nothing changes.
	Sync(ctx context.Context, opts ...syncpkg.Option) (*syncpkg.Result, error)

	// Unlink removes a relationship and its reciprocal from the graph and
	// rewrites both contacts.
	Unlink(ctx context.Context, source, target string, relType string) (*UnlinkResult, error)

	// Forget removes a contact and all its edges from the graph.
	Forget(ctx context.Context, uid string) bool
}

// kinmap is the internal implementation of the Kinmap interface
type kinmap struct {
	mu     sync.Mutex // serializes Sync, Unlink and Forget
	graph  *graph.Graph
	store  store.Store
	config *config

	live   reconciler.Reconciler
	dryRun reconciler.Reconciler
}

// New creates a new Kinmap instance over st with the given options.
func New(st store.Store, opts ...Option) (Kinmap, error) {
	if st == nil {
		return nil, &errors.ValidationError{Field: "store", Message: "cannot be nil"}
	}

	km := &kinmap{
		store:  st,
		config: defaultConfig(),
	}

	if err := km.options(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}

	// Use provided graph or create an empty one
	km.graph = km.config.graph
	if km.graph == nil {
		km.graph = graph.New()
	}

	var err error
	if km.live, err = reconciler.New(km.graph, st, km.config.reconcilerOptions(false)...); err != nil {
		return nil, fmt.Errorf("creating reconciler: %w", err)
	}
	if km.dryRun, err = reconciler.New(km.graph, st, km.config.reconcilerOptions(true)...); err != nil {
		return nil, fmt.Errorf("creating dry-run reconciler: %w", err)
	}

	return km, nil
}

// Graph implements Kinmap.
func (k *kinmap) Graph() *graph.Graph {
	return k.graph
}

// Load implements Kinmap.
func (k *kinmap) Load(ctx context.Context) ([]string, error) {
	uids, err := k.store.ListContacts(ctx)
	if err != nil {
		return nil, errors.WrapResource("list", "contacts", "", err)
	}
	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		contact, err := k.store.DescribeContact(ctx, uid)
		if err != nil {
			return nil, errors.WrapResource("describe", "contact", uid, err)
		}
		contact.UID = uid
		if err := k.graph.AddContact(contact); err != nil {
			return nil, err
		}
	}
	logging.FromContext(ctx).Debug().Int("contacts", len(uids)).Msg("Loaded contacts")
	return uids, nil
}

// Lookup implements Kinmap. An exact UID wins over a reference or name.
func (k *kinmap) Lookup(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", &errors.ValidationError{Field: "query", Message: "cannot be empty"}
	}
	refs := []codec.Reference{codec.UIDRef(query)}
	if ref, ok := codec.ParseReference(query); ok {
		refs = append(refs, ref)
	}
	for _, ref := range refs {
		uid, ok, err := k.store.ResolveContact(ctx, ref)
		if err != nil {
			return "", errors.WrapResource("resolve", "contact", query, err)
		}
		if ok {
			return uid, nil
		}
	}
	return "", errors.NewNotFoundError("contact", query)
}

// Reconcile implements Kinmap.
func (k *kinmap) Reconcile(ctx context.Context, uid string) (*reconciler.Result, error) {
	return k.live.Reconcile(ctx, uid)
}

// Check implements Kinmap.
func (k *kinmap) Check(ctx context.Context) []consistency.MissingReciprocal {
	missing := consistency.Scan(k.graph)
	logging.FromContext(ctx).Debug().Int("missing", len(missing)).Msg("Checked reciprocals")
	return missing
}

// Repair implements Kinmap.
func (k *kinmap) Repair(ctx context.Context, missing []consistency.MissingReciprocal) *consistency.Report {
	return consistency.Repair(ctx, missing, k.graph, k.live)
}

func (k *kinmap) reconcilerFor(dryRun bool) reconciler.Reconciler {
	if dryRun {
		return k.dryRun
	}
	return k.live
}
