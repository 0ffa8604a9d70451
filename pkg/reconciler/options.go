package reconciler

import (
	"time"

	"github.com/agentstation/kinmap/pkg/constants"
	"github.com/agentstation/kinmap/pkg/errors"
)

// Options configures a reconciler.
type options struct {
	clock         func() time.Time
	dryRun        bool
	revisionField string
	maxAttempts   int
	strategy      Strategy
}

func defaultOptions() *options {
	return &options{
		clock:         time.Now,
		revisionField: constants.RevisionField,
		maxAttempts:   constants.MaxReconcileAttempts,
		strategy:      NewTargetGenderStrategy(),
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithClock sets the time source used for revision stamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) error {
		if clock == nil {
			return &errors.ValidationError{
				Field:   "clock",
				Message: "cannot be nil",
			}
		}
		o.clock = clock
		return nil
	}
}

// WithDryRun computes changes without writing them.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithRevisionField sets the frontmatter key stamped on every write.
func WithRevisionField(field string) Option {
	return func(o *options) error {
		if field == "" {
			return &errors.ValidationError{
				Field:   "revisionField",
				Message: "cannot be empty",
			}
		}
		o.revisionField = field
		return nil
	}
}

// WithMaxAttempts sets how many read-merge-write attempts are made before
// a revision conflict is reported.
func WithMaxAttempts(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{
				Field:   "maxAttempts",
				Value:   n,
				Message: "must be at least 1",
			}
		}
		o.maxAttempts = n
		return nil
	}
}

// WithStrategy sets the duplicate-resolution strategy.
func WithStrategy(strategy Strategy) Option {
	return func(o *options) error {
		if strategy == nil {
			return &errors.ValidationError{
				Field:   "strategy",
				Message: "cannot be nil",
			}
		}
		o.strategy = strategy
		return nil
	}
}
