package appcontext

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/kinmap"
	"github.com/agentstation/kinmap/internal/vault"
	"github.com/agentstation/kinmap/pkg/constants"
	"github.com/agentstation/kinmap/pkg/logging"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding field.
// Unset fields yield a default value.
type Mock struct {
	VaultFunc  func(context.Context) (*vault.Vault, error)
	KinmapFunc func(context.Context) (kinmap.Kinmap, error)
	LoggerFunc func() *zerolog.Logger

	Format     string
	Writer     io.Writer
	Iterations int
	Workers    int
	DryRunSet  bool
}

var _ Interface = (*Mock)(nil)

// Vault returns a vault using the mock function or nil.
func (m *Mock) Vault(ctx context.Context) (*vault.Vault, error) {
	if m.VaultFunc != nil {
		return m.VaultFunc(ctx)
	}
	return nil, nil
}

// Kinmap returns a kinmap using the mock function or nil.
func (m *Mock) Kinmap(ctx context.Context) (kinmap.Kinmap, error) {
	if m.KinmapFunc != nil {
		return m.KinmapFunc(ctx)
	}
	return nil, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	return logging.NewNopLogger()
}

// OutputFormat returns Format.
func (m *Mock) OutputFormat() string { return m.Format }

// Out returns Writer or stdout.
func (m *Mock) Out() io.Writer {
	if m.Writer != nil {
		return m.Writer
	}
	return os.Stdout
}

// MaxIterations returns Iterations or the default bound.
func (m *Mock) MaxIterations() int {
	if m.Iterations > 0 {
		return m.Iterations
	}
	return constants.DefaultMaxIterations
}

// Concurrency returns Workers or the default.
func (m *Mock) Concurrency() int {
	if m.Workers > 0 {
		return m.Workers
	}
	return constants.MaxConcurrentContacts
}

// DryRun returns DryRunSet.
func (m *Mock) DryRun() bool { return m.DryRunSet }

// Version returns "dev".
func (m *Mock) Version() string { return "dev" }

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }
