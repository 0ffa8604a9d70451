package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/kinmap/internal/appcontext"
	"github.com/agentstation/kinmap/internal/cmd/table"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/sync"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(app appcontext.Interface) *cobra.Command {
	var strict bool

	c := &cobra.Command{
		Use:     "check",
		GroupID: "core",
		Short:   "Report relationships whose reciprocal is missing",
		Long: `Check reads every note without writing, builds the relationship
graph and lists each relationship whose reciprocal is missing.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			km, err := app.Kinmap(ctx)
			if err != nil {
				return err
			}

			result, err := km.Sync(ctx,
				sync.WithDryRun(true),
				sync.WithSkipRepair(true),
				sync.WithMaxIterations(app.MaxIterations()),
				sync.WithConcurrency(app.Concurrency()),
			)
			if err != nil {
				return err
			}

			summary := "No missing reciprocals"
			if n := len(result.Missing); n > 0 {
				summary = fmt.Sprintf("%d missing reciprocals", n)
			}
			if err := emit(app, missingViews(result.Missing, km.Graph()), summary,
				table.MissingToTableData(result.Missing, km.Graph())); err != nil {
				return err
			}
			if strict && len(result.Missing) > 0 {
				return errors.New(summary)
			}
			return nil
		},
	}

	c.Flags().BoolVar(&strict, "strict", false, "exit non-zero when reciprocals are missing")
	return c
}
