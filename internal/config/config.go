// Package config loads the migration engine's configuration record: a
// viper instance that walks up from the working directory to find a YAML
// file, then layers MONGODBEE_-prefixed environment variables
// on top, and exposes the result as a typed record rather than ad hoc
// package-level getters — the core (chain/planner/executor) takes a
// *Config value, it never touches viper directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseOptions holds the database.options.* keys, passed through to
// the driver collaborator verbatim.
type DatabaseOptions struct {
	ConnectTimeoutMS int
	MaxPoolSize      int
	MinPoolSize      int
	MaxIdleTimeMS    int
	SSL              bool
	AuthSource       string
	ReadPreference   string
	WriteConcern     string
}

// Config is the resolved, typed configuration record. Every recognized
// key has a typed accessor here; `cli.*` is intentionally not modeled —
// it is presentation-only and ignored by
// the core, consumed directly off viper by the cmd/mongodbee collaborator.
type Config struct {
	DatabaseURI     string
	DatabaseName    string
	DatabaseOptions DatabaseOptions

	MigrationsPath string
	SchemasPath    string

	BatchSize        int
	OperationTimeout time.Duration
	Backup           bool
	DryRun           bool
	Verbose          bool

	v *viper.Viper
}

const envPrefix = "MONGODBEE"

// Load resolves configuration the same way BeadsLog's Initialize does:
// walk up from the working directory looking for mongodbee.yaml (or
// .mongodbee.yaml), bind MONGODBEE_-prefixed environment variables over
// it, deep-merge the environments.<name> override block if envName is
// non-empty, and return the typed record.
func Load(envName string) (*Config, error) {
	return load("", envName)
}

// LoadFile resolves configuration the same way Load does, except path is
// used verbatim instead of searching upward from the working directory.
func LoadFile(path, envName string) (*Config, error) {
	return load(path, envName)
}

func load(explicitPath, envName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	path, ok := explicitPath, explicitPath != ""
	if !ok {
		path, ok = findConfigFile()
	}
	if ok {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The mechanical dot-to-underscore mapping gives MONGODBEE_DATABASE_URI
	// and friends; the documented short forms (MONGODBEE_DB_URI,
	// MONGODBEE_MIGRATIONS_PATH, ...) need explicit aliases. Listing the
	// mechanical name first keeps it working alongside the alias.
	for key, names := range map[string][]string{
		"database.uri":     {"MONGODBEE_DATABASE_URI", "MONGODBEE_DB_URI"},
		"database.name":    {"MONGODBEE_DATABASE_NAME", "MONGODBEE_DB_NAME"},
		"paths.migrations": {"MONGODBEE_PATHS_MIGRATIONS", "MONGODBEE_MIGRATIONS_PATH"},
		"paths.schemas":    {"MONGODBEE_PATHS_SCHEMAS", "MONGODBEE_SCHEMAS_PATH"},
	} {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	v.SetDefault("migration.batchSize", 500)
	v.SetDefault("migration.operationTimeoutMS", 30000)
	v.SetDefault("migration.backup", true)
	v.SetDefault("migration.dryRun", false)

	if envName != "" {
		overrides := v.Sub("environments." + envName)
		if overrides != nil {
			if err := v.MergeConfigMap(overrides.AllSettings()); err != nil {
				return nil, fmt.Errorf("config: merging environments.%s: %w", envName, err)
			}
		}
	}

	cfg := &Config{
		DatabaseURI:  v.GetString("database.uri"),
		DatabaseName: v.GetString("database.name"),
		DatabaseOptions: DatabaseOptions{
			ConnectTimeoutMS: v.GetInt("database.options.connectTimeoutMS"),
			MaxPoolSize:      v.GetInt("database.options.maxPoolSize"),
			MinPoolSize:      v.GetInt("database.options.minPoolSize"),
			MaxIdleTimeMS:    v.GetInt("database.options.maxIdleTimeMS"),
			SSL:              v.GetBool("database.options.ssl"),
			AuthSource:       v.GetString("database.options.authSource"),
			ReadPreference:   v.GetString("database.options.readPreference"),
			WriteConcern:     v.GetString("database.options.writeConcern"),
		},
		MigrationsPath:   v.GetString("paths.migrations"),
		SchemasPath:      v.GetString("paths.schemas"),
		BatchSize:        v.GetInt("migration.batchSize"),
		OperationTimeout: time.Duration(v.GetInt("migration.operationTimeoutMS")) * time.Millisecond,
		Backup:           v.GetBool("migration.backup"),
		DryRun:           v.GetBool("migration.dryRun"),
		Verbose:          v.GetBool("cli.verbose"),
		v:                v,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigInvalidError reports a missing required configuration key.
type ConfigInvalidError struct {
	MissingKeys []string
}

func (e *ConfigInvalidError) Error() string {
	return fmt.Sprintf("config: missing required keys: %s", strings.Join(e.MissingKeys, ", "))
}

func (c *Config) validate() error {
	var missing []string
	if c.DatabaseURI == "" {
		missing = append(missing, "database.uri")
	}
	if c.DatabaseName == "" {
		missing = append(missing, "database.name")
	}
	if c.MigrationsPath == "" {
		missing = append(missing, "paths.migrations")
	}
	if c.SchemasPath == "" {
		missing = append(missing, "paths.schemas")
	}
	if len(missing) > 0 {
		return &ConfigInvalidError{MissingKeys: missing}
	}
	return nil
}

// findConfigFile walks up from the working directory looking for
// mongodbee.yaml or .mongodbee.yaml, the same upward-search BeadsLog
// uses for its own config file.
func findConfigFile() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	names := []string{"mongodbee.yaml", ".mongodbee.yaml"}
	for dir := cwd; ; {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// Raw exposes the underlying viper instance for cmd/mongodbee's cli.*
// presentation keys, which the core never reads itself.
func (c *Config) Raw() *viper.Viper { return c.v }
