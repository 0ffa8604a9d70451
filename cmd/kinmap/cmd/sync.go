package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/kinmap/internal/appcontext"
	"github.com/agentstation/kinmap/internal/cmd/table"
	"github.com/agentstation/kinmap/pkg/sync"
)

// syncReport is the json/yaml shape of a pass.
type syncReport struct {
	Converged  bool                   `json:"converged" yaml:"converged"`
	DryRun     bool                   `json:"dry_run" yaml:"dry_run"`
	Writes     int                    `json:"writes" yaml:"writes"`
	EdgesAdded int                    `json:"edges_added" yaml:"edges_added"`
	Repairs    int                    `json:"repairs" yaml:"repairs"`
	Iterations []sync.IterationResult `json:"iterations" yaml:"iterations"`
	Contacts   []*sync.ContactResult  `json:"contacts" yaml:"contacts"`
	Missing    []missingView          `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(app appcontext.Interface) *cobra.Command {
	var (
		dryRun        bool
		failFast      bool
		maxIterations int
		concurrency   int
		timeout       time.Duration
	)

	c := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Reconcile every contact until nothing changes",
		Long: `Sync reconciles every note in the vault, adds missing reciprocal
relationships and repeats until an iteration changes nothing or the
iteration bound is reached.`,
		Example: `  kinmap sync
  kinmap sync --dry-run -o yaml
  kinmap sync --vault ~/notes/people --concurrency 4`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if !c.Flags().Changed("dry-run") {
				dryRun = app.DryRun()
			}
			if !c.Flags().Changed("max-iterations") {
				maxIterations = app.MaxIterations()
			}
			if !c.Flags().Changed("concurrency") {
				concurrency = app.Concurrency()
			}

			ctx := c.Context()
			km, err := app.Kinmap(ctx)
			if err != nil {
				return err
			}

			result, err := km.Sync(ctx,
				sync.WithDryRun(dryRun),
				sync.WithFailFast(failFast),
				sync.WithMaxIterations(maxIterations),
				sync.WithConcurrency(concurrency),
				sync.WithTimeout(timeout),
			)
			if err != nil {
				return err
			}

			report := syncReport{
				Converged:  result.Converged,
				DryRun:     result.DryRun,
				Writes:     result.TotalWrites,
				EdgesAdded: result.TotalEdgesAdded,
				Repairs:    result.TotalRepairs,
				Iterations: result.Iterations,
				Contacts:   result.SortedContacts(),
				Missing:    missingViews(result.Missing, km.Graph()),
			}
			return emit(app, report, result.Summary(),
				table.SyncToTableData(result),
				table.MissingToTableData(result.Missing, km.Graph()),
				counts("iterations", len(result.Iterations), "writes", result.TotalWrites,
					"edges_added", result.TotalEdgesAdded, "repairs", result.TotalRepairs,
					"converged", result.Converged),
			)
		},
	}

	c.Flags().BoolVar(&dryRun, "dry-run", false, "compute changes without writing notes")
	c.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first contact that fails")
	c.Flags().IntVar(&maxIterations, "max-iterations", 0, "upper bound on fixed-point iterations (default from config)")
	c.Flags().IntVar(&concurrency, "concurrency", 0, "contacts reconciled in parallel (default from config)")
	c.Flags().DurationVar(&timeout, "timeout", 0, "abort the pass after this long (0 disables)")
	return c
}
