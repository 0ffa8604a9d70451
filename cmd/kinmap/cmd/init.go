package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/kinmap/internal/appcontext"
	"github.com/agentstation/kinmap/internal/cmd/table"
)

// NewInitCommand creates the init command.
func NewInitCommand(app appcontext.Interface) *cobra.Command {
	var dryRun bool

	c := &cobra.Command{
		Use:     "init",
		GroupID: "management",
		Short:   "Give every note a stable UID",
		Long: `Init writes a fresh urn:uuid: UID into every note whose frontmatter
has none. Notes without a UID are otherwise identified by their path and
lose their relationships when renamed.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			v, err := app.Vault(ctx)
			if err != nil {
				return err
			}

			assigned, err := v.AssignMissingUIDs(ctx, dryRun)
			if err != nil {
				return err
			}

			verb := "Assigned"
			if dryRun {
				verb = "Would assign"
			}
			summary := fmt.Sprintf("%s %d UIDs", verb, len(assigned))
			return emit(app, assigned, summary, table.AssignmentsToTableData(assigned))
		},
	}

	c.Flags().BoolVar(&dryRun, "dry-run", false, "list the notes without writing them")
	return c
}
