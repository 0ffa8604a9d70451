// Package sync provides options and results for the whole-set
// reconciliation pass.
package sync

import (
	"time"

	"github.com/agentstation/kinmap/pkg/constants"
	"github.com/agentstation/kinmap/pkg/errors"
)

// Options controls the whole-set pass in Kinmap.Sync().
type Options struct {
	// Orchestration control
	DryRun        bool          // Compute changes without writing them
	FailFast      bool          // Stop on the first contact error instead of continuing
	Timeout       time.Duration // Timeout for the entire pass
	MaxIterations int           // Upper bound on fixed-point iterations
	Concurrency   int           // Contacts reconciled in parallel

	// Consistency control
	SkipRepair bool // Report missing reciprocals without adding them
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		MaxIterations: constants.DefaultMaxIterations,
		Concurrency:   constants.MaxConcurrentContacts,
	}
}

// NewOptions returns the defaults with opts applied.
func NewOptions(opts ...Option) *Options {
	return Defaults().Apply(opts...)
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}
	if s.MaxIterations < 1 {
		return &errors.ValidationError{
			Field:   "MaxIterations",
			Value:   s.MaxIterations,
			Message: "must be at least 1",
		}
	}
	if s.Concurrency < 1 {
		return &errors.ValidationError{
			Field:   "Concurrency",
			Value:   s.Concurrency,
			Message: "must be at least 1",
		}
	}
	return nil
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithFailFast configures fail-fast behavior.
func WithFailFast(failFast bool) Option {
	return func(opts *Options) {
		opts.FailFast = failFast
	}
}

// WithTimeout configures the pass timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithMaxIterations bounds the fixed-point loop.
func WithMaxIterations(n int) Option {
	return func(opts *Options) {
		opts.MaxIterations = n
	}
}

// WithConcurrency sets how many contacts are reconciled at once.
func WithConcurrency(n int) Option {
	return func(opts *Options) {
		opts.Concurrency = n
	}
}

// WithSkipRepair reports missing reciprocals without repairing them.
func WithSkipRepair(skip bool) Option {
	return func(opts *Options) {
		opts.SkipRepair = skip
	}
}
