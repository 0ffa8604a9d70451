package kinmap

import (
	"context"

	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/logging"
	"github.com/agentstation/kinmap/pkg/reconciler"
	"github.com/agentstation/kinmap/pkg/relations"
)

// UnlinkResult is the outcome of removing a relationship.
type UnlinkResult struct {
	// Removed lists the edges taken out of the graph.
	Removed []graph.Edge

	// Rewritten holds the rewrite results for the source, then the target.
	Rewritten []*reconciler.Result
}

// Unlink implements Kinmap. relType may be gendered; the canonical type
// is removed. The reciprocal edge is removed too when present. Both
// contacts are rewritten so their text no longer lists the relationship.
// Unlink waits for a running Sync to finish.
func (k *kinmap) Unlink(ctx context.Context, source, target string, relType string) (*UnlinkResult, error) {
	t, _ := relations.Canonicalize(relType)
	if t == "" {
		return nil, &errors.ValidationError{Field: "type", Value: relType, Message: "cannot be empty"}
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, uid := range []string{source, target} {
		if !k.graph.HasContact(uid) {
			return nil, errors.NewUnknownContactError(uid)
		}
	}

	result := &UnlinkResult{}
	if k.graph.RemoveEdge(source, target, t) {
		result.Removed = append(result.Removed, graph.Edge{Source: source, Target: target, Type: t})
	}
	if rt, ok := relations.ReciprocalOf(t); ok && k.graph.RemoveEdge(target, source, rt) {
		result.Removed = append(result.Removed, graph.Edge{Source: target, Target: source, Type: rt})
	}
	if len(result.Removed) == 0 {
		return nil, errors.NewNotFoundError("relationship", graph.Edge{Source: source, Target: target, Type: t}.String())
	}

	ctx = logging.WithOperation(ctx, "unlink")
	for _, uid := range []string{source, target} {
		res, err := k.live.Rewrite(ctx, uid)
		if err != nil {
			return result, err
		}
		result.Rewritten = append(result.Rewritten, res)
	}

	logging.FromContext(ctx).Info().
		Str("source", source).
		Str("target", target).
		Str("type", string(t)).
		Int("removed", len(result.Removed)).
		Msg("Unlinked contacts")
	return result, nil
}

// Forget implements Kinmap. The contact's text is left untouched.
func (k *kinmap) Forget(ctx context.Context, uid string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	removed := k.graph.RemoveContact(uid)
	if removed {
		logging.FromContext(ctx).Debug().Str("contact", uid).Msg("Forgot contact")
	}
	return removed
}
