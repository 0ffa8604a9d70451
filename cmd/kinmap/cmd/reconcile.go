package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/kinmap/internal/appcontext"
	"github.com/agentstation/kinmap/internal/cmd/table"
)

// relationshipView is the json/yaml shape of one encoded relationship.
type relationshipView struct {
	Term      string `json:"term" yaml:"term"`
	Reference string `json:"reference" yaml:"reference"`
}

// reconcileReport is the json/yaml shape of a single reconciliation.
type reconcileReport struct {
	UID           string             `json:"uid" yaml:"uid"`
	Written       bool               `json:"written" yaml:"written"`
	Revision      uint64             `json:"revision,omitempty" yaml:"revision,omitempty"`
	EdgesAdded    int                `json:"edges_added" yaml:"edges_added"`
	Repaired      int                `json:"repaired,omitempty" yaml:"repaired,omitempty"`
	Changes       string             `json:"changes,omitempty" yaml:"changes,omitempty"`
	Relationships []relationshipView `json:"relationships" yaml:"relationships"`
	Unresolved    []string           `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Diagnostics   []string           `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(app appcontext.Interface) *cobra.Command {
	var repair bool

	c := &cobra.Command{
		Use:     "reconcile <name|uid>",
		GroupID: "core",
		Short:   "Reconcile one contact",
		Long: `Reconcile merges one contact's frontmatter and Related section and
writes the result back. With --repair, contacts this one names also gain
the reciprocal relationship.`,
		Example: `  kinmap reconcile "John Doe"
  kinmap reconcile uid:john --repair`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			km, err := app.Kinmap(ctx)
			if err != nil {
				return err
			}
			if _, err := km.Load(ctx); err != nil {
				return err
			}
			uid, err := km.Lookup(ctx, args[0])
			if err != nil {
				return err
			}

			res, err := km.Reconcile(ctx, uid)
			if err != nil {
				return err
			}

			report := reconcileReport{
				UID:        res.UID,
				Written:    res.Written,
				Revision:   uint64(res.Revision),
				EdgesAdded: len(res.EdgesAdded),
			}
			if res.Changeset != nil && res.Changeset.HasChanges() {
				report.Changes = res.Changeset.String()
			}
			for _, f := range res.Fields {
				report.Relationships = append(report.Relationships, relationshipView{Term: f.Term(), Reference: f.Ref.String()})
			}
			for _, u := range res.Unresolved {
				report.Unresolved = append(report.Unresolved, u.Reference)
			}
			for _, d := range res.Diagnostics {
				report.Diagnostics = append(report.Diagnostics, d.Error())
			}

			if repair {
				if missing := km.Check(ctx); len(missing) > 0 {
					rep := km.Repair(ctx, missing)
					report.Repaired = len(rep.EdgesAdded)
					if rep.HasFailures() {
						return rep.Failures[0].Err
					}
				}
			}

			return emit(app, report, res.Summary(), table.ReconcileToTableData(res))
		},
	}

	c.Flags().BoolVar(&repair, "repair", false, "also add reciprocals to the contacts this one names")
	return c
}
