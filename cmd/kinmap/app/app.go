// Package app provides the application context and dependency management
// for the kinmap CLI. It centralizes configuration, logging and the lazily
// created vault and kinmap instances.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/kinmap"
	"github.com/agentstation/kinmap/internal/appcontext"
	"github.com/agentstation/kinmap/internal/vault"
	"github.com/agentstation/kinmap/pkg/errors"
	"github.com/agentstation/kinmap/pkg/logging"
)

// App represents the kinmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	out    io.Writer

	// Lazily initialized, singletons
	mu     sync.Mutex
	vault  *vault.Vault
	kinmap kinmap.Kinmap
}

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		out:     os.Stdout,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// Out returns the writer command output goes to.
func (a *App) Out() io.Writer { return a.out }

// MaxIterations returns the configured pass bound.
func (a *App) MaxIterations() int { return a.config.MaxIterations }

// Concurrency returns the configured pass concurrency.
func (a *App) Concurrency() int { return a.config.Concurrency }

// DryRun reports whether dry run is configured by default.
func (a *App) DryRun() bool { return a.config.DryRun }

// Vault returns the vault, opening and indexing it on first use.
func (a *App) Vault(ctx context.Context) (*vault.Vault, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openVault(ctx)
}

func (a *App) openVault(ctx context.Context) (*vault.Vault, error) {
	if a.vault != nil {
		return a.vault, nil
	}
	v, err := vault.Open(logging.WithLogger(ctx, a.logger), a.config.Vault, vault.WithExclude(a.config.Exclude...))
	if err != nil {
		return nil, errors.WrapResource("open", "vault", a.config.Vault, err)
	}
	a.vault = v
	return v, nil
}

// Kinmap returns the kinmap instance over the vault, creating it on first use.
func (a *App) Kinmap(ctx context.Context) (kinmap.Kinmap, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.kinmap != nil {
		return a.kinmap, nil
	}
	v, err := a.openVault(ctx)
	if err != nil {
		return nil, err
	}
	km, err := kinmap.New(v)
	if err != nil {
		return nil, errors.WrapResource("create", "kinmap", "", err)
	}
	a.kinmap = km
	return km, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOutput redirects command output, e.g. into a buffer in tests.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
