// Package appcontext provides the shared application context interface
// used by all commands, so command packages depend on an interface
// rather than the concrete App.
package appcontext

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/agentstation/kinmap"
	"github.com/agentstation/kinmap/internal/vault"
)

// Interface defines the application context that commands need.
// The App struct from cmd/kinmap/app implements it; tests use Mock.
type Interface interface {
	// Vault returns the indexed contact vault, opening it lazily.
	Vault(ctx context.Context) (*vault.Vault, error)

	// Kinmap returns the kinmap instance over the vault, creating it lazily.
	Kinmap(ctx context.Context) (kinmap.Kinmap, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Out returns the writer command output goes to.
	Out() io.Writer

	// MaxIterations and Concurrency are the configured pass defaults.
	MaxIterations() int
	Concurrency() int

	// DryRun reports whether dry run is configured by default.
	DryRun() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
