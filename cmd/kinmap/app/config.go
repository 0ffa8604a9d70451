package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/kinmap/pkg/constants"
	"github.com/agentstation/kinmap/pkg/errors"
)

// EnvPrefix prefixes every environment key, e.g. KINMAP_VAULT.
const EnvPrefix = "KINMAP"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	Format  string

	// Config file
	ConfigFile string

	// Vault configuration
	Vault   string
	Exclude []string

	// Pass configuration
	MaxIterations int
	Concurrency   int
	DryRun        bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (KINMAP_ prefixed)
// 3. .env files
// 4. Config file (explicit path, else ~/.kinmap.yaml or ./.kinmap.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("vault", ".")
	v.SetDefault("max_iterations", constants.DefaultMaxIterations)
	v.SetDefault("concurrency", constants.MaxConcurrentContacts)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "reading "+configFile, err)
		}
	} else {
		// Search for config in standard locations
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".kinmap")

		// Read config file (ignore error if not found)
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Vault:   v.GetString("vault"),
		Exclude: v.GetStringSlice("exclude"),

		MaxIterations: v.GetInt("max_iterations"),
		Concurrency:   v.GetInt("concurrency"),
		DryRun:        v.GetBool("dry_run"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}
	if config.LogLevel == "" {
		config.LogLevel = os.Getenv("LOG_LEVEL")
	}

	return config, config.Validate()
}

// Validate checks the numeric settings.
func (c *Config) Validate() error {
	if c.MaxIterations < 1 {
		return &errors.ValidationError{Field: "max_iterations", Value: c.MaxIterations, Message: "must be at least 1"}
	}
	if c.Concurrency < 1 {
		return &errors.ValidationError{Field: "concurrency", Value: c.Concurrency, Message: "must be at least 1"}
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env; neither overrides the real environment.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
