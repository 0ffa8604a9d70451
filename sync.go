package kinmap

import (
	"context"
	gosync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/kinmap/pkg/consistency"
	"github.com/agentstation/kinmap/pkg/logging"
	"github.com/agentstation/kinmap/pkg/reconciler"
	"github.com/agentstation/kinmap/pkg/sync"
)

// SyncOption configures a whole-set pass.
type SyncOption = sync.Option

// SyncResult is the outcome of a whole-set pass.
type SyncResult = sync.Result

// Sync reconciles every contact, repairs missing reciprocals and repeats
// until an iteration changes nothing or MaxIterations is reached.
// Hitting the bound is reported through Result.Converged, not as an error.
func (k *kinmap) Sync(ctx context.Context, opts ...SyncOption) (*SyncResult, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Parse and validate options
	options := sync.NewOptions(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {} // No-op cancel if no timeout
	}
	defer cancel()

	k.mu.Lock()
	defer k.mu.Unlock()

	start := time.Now()
	result := sync.NewResult(options.DryRun)
	defer func() { result.Duration = time.Since(start) }()

	ctx = logging.WithOperation(ctx, "sync")
	logger := logging.FromContext(ctx)

	// Step 3: Load every contact into the graph
	uids, err := k.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, uid := range uids {
		cr := result.Contact(uid)
		if c, ok := k.graph.Contact(uid); ok {
			cr.Name = c.Name()
		}
	}

	// Step 4: Iterate to a fixed point
	rec := k.reconcilerFor(options.DryRun)
	for n := 1; n <= options.MaxIterations; n++ {
		it, err := k.iterate(logging.WithPass(ctx, n), n, uids, rec, options, result)
		result.Iterations = append(result.Iterations, it)
		if err != nil {
			return result, err
		}
		if it.Settled() {
			result.Converged = true
			break
		}
	}

	// Step 5: Record gaps the pass could not close
	result.Missing = consistency.Scan(k.graph)

	// Step 6: Log the summary
	event := logger.Info()
	if !result.Converged {
		event = logger.Warn()
	}
	event.
		Int("iterations", len(result.Iterations)).
		Int("writes", result.TotalWrites).
		Int("edges_added", result.TotalEdgesAdded).
		Int("repairs", result.TotalRepairs).
		Int("missing", len(result.Missing)).
		Bool("converged", result.Converged).
		Bool("dry_run", options.DryRun).
		Msg("Sync completed")

	return result, nil
}

// iterate reconciles every contact once with bounded concurrency, then
// scans and repairs.
func (k *kinmap) iterate(ctx context.Context, n int, uids []string, rec reconciler.Reconciler, options *sync.Options, result *SyncResult) (sync.IterationResult, error) {
	logger := logging.FromContext(ctx)
	it := sync.IterationResult{Number: n}

	var mu gosync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(options.Concurrency)
	for _, uid := range uids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := rec.Reconcile(gctx, uid)

			mu.Lock()
			defer mu.Unlock()
			it.Reconciled++
			record(result, &it, uid, res, err)
			if err != nil && options.FailFast {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return it, err
	}
	if err := ctx.Err(); err != nil {
		return it, err
	}

	missing := consistency.Scan(k.graph)
	if len(missing) > 0 && !options.SkipRepair {
		report := consistency.Repair(ctx, missing, k.graph, rec)
		it.Repairs = len(report.EdgesAdded)
		it.EdgesAdded += len(report.EdgesAdded)
		result.TotalEdgesAdded += len(report.EdgesAdded)
		result.TotalRepairs += len(report.EdgesAdded)
		for _, res := range report.Reconciled {
			record(result, &it, res.UID, res, nil)
		}
		for _, f := range report.Failures {
			record(result, &it, f.UID, nil, f.Err)
			if options.FailFast {
				return it, f.Err
			}
		}
	}

	logger.Info().
		Int("reconciled", it.Reconciled).
		Int("writes", it.Writes).
		Int("edges_added", it.EdgesAdded).
		Int("repairs", it.Repairs).
		Int("missing", len(missing)).
		Int("failures", it.Failures).
		Msg("Iteration finished")
	return it, nil
}

// record folds one reconciliation outcome into the iteration and the
// per-contact totals.
func record(result *SyncResult, it *sync.IterationResult, uid string, res *reconciler.Result, err error) {
	cr := result.Contact(uid)
	if err != nil {
		cr.Error = err.Error()
		it.Failures++
		return
	}
	cr.Error = ""
	if res == nil {
		return
	}

	added := len(res.EdgesAdded)
	cr.EdgesAdded += added
	it.EdgesAdded += added
	result.TotalEdgesAdded += added
	if res.Written {
		cr.Writes++
		it.Writes++
		result.TotalWrites++
	}
	cr.Pending = res.Metadata.DryRun && res.HasChanges()

	cr.Unresolved = cr.Unresolved[:0]
	for _, u := range res.Unresolved {
		cr.Unresolved = append(cr.Unresolved, u.Reference)
	}
	cr.Diagnostics = cr.Diagnostics[:0]
	for _, d := range res.Diagnostics {
		cr.Diagnostics = append(cr.Diagnostics, d.Error())
	}
}
