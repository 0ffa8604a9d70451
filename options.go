package kinmap

import (
	"time"

	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/graph"
	"github.com/agentstation/kinmap/pkg/reconciler"
)

// Option is a function that configures a Kinmap instance
type Option func(*config) error

// config holds the settings shared by every reconciler a Kinmap creates.
type config struct {
	graph         *graph.Graph
	strategy      reconciler.Strategy
	clock         func() time.Time
	revisionField string
	maxAttempts   int
}

func defaultConfig() *config {
	return &config{}
}

// options applies opts in order and stops at the first error.
func (k *kinmap) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(k.config); err != nil {
			return err
		}
	}
	return nil
}

// reconcilerOptions translates the config; zero values keep the
// reconciler's defaults.
func (c *config) reconcilerOptions(dryRun bool) []reconciler.Option {
	opts := []reconciler.Option{reconciler.WithDryRun(dryRun)}
	if c.strategy != nil {
		opts = append(opts, reconciler.WithStrategy(c.strategy))
	}
	if c.clock != nil {
		opts = append(opts, reconciler.WithClock(c.clock))
	}
	if c.revisionField != "" {
		opts = append(opts, reconciler.WithRevisionField(c.revisionField))
	}
	if c.maxAttempts > 0 {
		opts = append(opts, reconciler.WithMaxAttempts(c.maxAttempts))
	}
	return opts
}

// WithGraph configures the graph to reconcile into, e.g. one shared
// with another Kinmap or pre-populated by the caller.
func WithGraph(g *graph.Graph) Option {
	return func(c *config) error {
		if g == nil {
			return &errors.ValidationError{Field: "graph", Message: "cannot be nil"}
		}
		c.graph = g
		return nil
	}
}

// WithStrategy configures how conflicting duplicate relationships are resolved.
func WithStrategy(strategy reconciler.Strategy) Option {
	return func(c *config) error {
		if strategy == nil {
			return &errors.ValidationError{Field: "strategy", Message: "cannot be nil"}
		}
		c.strategy = strategy
		return nil
	}
}

// WithClock configures the clock used to stamp revisions.
func WithClock(clock func() time.Time) Option {
	return func(c *config) error {
		if clock == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		c.clock = clock
		return nil
	}
}

// WithRevisionField configures the frontmatter field stamped on write.
func WithRevisionField(field string) Option {
	return func(c *config) error {
		if field == "" {
			return &errors.ValidationError{Field: "revisionField", Message: "cannot be empty"}
		}
		c.revisionField = field
		return nil
	}
}

// WithMaxAttempts configures how often a contact is retried after a
// revision conflict.
func WithMaxAttempts(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return &errors.ValidationError{Field: "maxAttempts", Value: n, Message: "must be at least 1"}
		}
		c.maxAttempts = n
		return nil
	}
}
