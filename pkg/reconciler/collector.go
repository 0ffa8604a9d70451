package reconciler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agentstation/kinmap/pkg/codec"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/store"
)

// collector gathers candidates from a contact's text and resolves their
// references.
type collector struct {
	uid    string
	store  store.Store
	graph  *graph.Graph
	logger *zerolog.Logger
}

// decoded is a contact's text split into the pieces reconciliation uses.
type decoded struct {
	doc     *codec.Document
	fields  map[string]string
	items   []codec.ListItem
	section codec.Section
}

// newCollector creates a collector for one contact.
func newCollector(uid string, st store.Store, g *graph.Graph, logger *zerolog.Logger) *collector {
	return &collector{uid: uid, store: st, graph: g, logger: logger}
}

// decode parses the contact's text.
func (c *collector) decode(text string) (*decoded, error) {
	doc, err := codec.ParseDocument(text)
	if err != nil {
		return nil, errors.WrapResource("parse", "contact", c.uid, err)
	}
	items, section := codec.DecodeList(doc.Body)
	return &decoded{
		doc:     doc,
		fields:  doc.RelatedFields(),
		items:   items,
		section: section,
	}, nil
}

// candidates returns frontmatter candidates followed by list candidates,
// plus decode diagnostics.
func (c *collector) candidates(d *decoded) ([]Candidate, []error) {
	records, diags := codec.DecodeFrontmatter(d.fields)

	out := make([]Candidate, 0, len(records)+len(d.items))
	for _, r := range records {
		out = append(out, Candidate{
			Type:   r.Type,
			Gender: r.Gender,
			Ref:    r.Ref,
			Source: SourceFrontmatter,
		})
	}
	for _, item := range d.items {
		out = append(out, Candidate{
			Type:   item.Type,
			Gender: item.Gender,
			Ref:    codec.NameRef(item.Name),
			Source: SourceList,
		})
	}

	for _, diag := range diags {
		c.logger.Warn().Err(diag).Msg("Dropped malformed frontmatter key")
	}
	return out, diags
}

// resolution is the outcome of resolving every candidate.
type resolution struct {
	candidates  []Candidate
	unresolved  []*errors.UnresolvedTargetError
	diagnostics []error
}

// resolve looks up every reference. Targets seen for the first time are
// added to the graph. References to the contact itself are dropped.
func (c *collector) resolve(ctx context.Context, cands []Candidate) (*resolution, error) {
	res := &resolution{candidates: make([]Candidate, 0, len(cands))}

	for _, cand := range cands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		uid, ok, err := c.store.ResolveContact(ctx, cand.Ref)
		if err != nil {
			return nil, errors.WrapResource("resolve", "contact", cand.Ref.String(), err)
		}

		if !ok {
			unresolved := errors.NewUnresolvedTargetError(c.uid, string(cand.Type), cand.Ref.String())
			res.unresolved = append(res.unresolved, unresolved)
			res.candidates = append(res.candidates, cand)
			c.logger.Warn().
				Str("type", string(cand.Type)).
				Str("reference", cand.Ref.String()).
				Msg("Relationship target does not resolve")
			continue
		}

		if uid == c.uid {
			diag := errors.NewSelfLoopError(c.uid, string(cand.Type))
			res.diagnostics = append(res.diagnostics, diag)
			c.logger.Warn().Err(diag).Msg("Dropped self reference")
			continue
		}

		if !c.graph.HasContact(uid) {
			c.graph.EnsureContact(c.describe(ctx, uid, cand.Ref))
		}

		cand.Target = uid
		res.candidates = append(res.candidates, cand)
	}
	return res, nil
}

// describe fetches a newly seen target's attributes, falling back to what
// the reference itself says.
func (c *collector) describe(ctx context.Context, uid string, ref codec.Reference) graph.Contact {
	contact, err := c.store.DescribeContact(ctx, uid)
	if err == nil && contact.UID == uid {
		return contact
	}
	if err != nil {
		c.logger.Debug().Err(err).Str("target", uid).Msg("Describing target failed")
	}

	fallback := graph.Contact{UID: uid}
	if ref.Kind == codec.KindName {
		fallback.DisplayName = ref.Value
	}
	return fallback
}

// String implements fmt.Stringer for debugging.
func (c Candidate) String() string {
	target := c.Target
	if target == "" {
		target = "?" + c.Ref.String()
	}
	return fmt.Sprintf("%s %s→%s (%s)", c.Source, c.Type, target, c.Gender)
}
