package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "mongodbee.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadFileRequiredKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
database:
  uri: mongodb://localhost:27017
  name: testdb
paths:
  migrations: ./migrations
  schemas: ./schemas
`)
	cfg, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.DatabaseURI != "mongodb://localhost:27017" {
		t.Errorf("DatabaseURI = %q", cfg.DatabaseURI)
	}
	if cfg.DatabaseName != "testdb" {
		t.Errorf("DatabaseName = %q", cfg.DatabaseName)
	}
	if cfg.BatchSize != 500 {
		t.Errorf("expected default BatchSize 500, got %d", cfg.BatchSize)
	}
	if !cfg.Backup {
		t.Errorf("expected default Backup true")
	}
}

func TestLoadFileMissingRequiredKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `database:
  uri: mongodb://localhost:27017
`)
	_, err := LoadFile(path, "")
	cerr, ok := err.(*ConfigInvalidError)
	if !ok {
		t.Fatalf("expected *ConfigInvalidError, got %v (%T)", err, err)
	}
	if len(cerr.MissingKeys) == 0 {
		t.Fatalf("expected missing keys to be reported")
	}
}

func TestLoadFileEnvironmentOverrideMerges(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
database:
  uri: mongodb://localhost:27017
  name: testdb
paths:
  migrations: ./migrations
  schemas: ./schemas
migration:
  batchSize: 500
environments:
  staging:
    migration:
      batchSize: 50
`)
	cfg, err := LoadFile(path, "staging")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("expected environments.staging override to set BatchSize=50, got %d", cfg.BatchSize)
	}
}

func TestLoadFileEnvVarOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
database:
  uri: mongodb://localhost:27017
  name: testdb
paths:
  migrations: ./migrations
  schemas: ./schemas
`)
	t.Setenv("MONGODBEE_DATABASE_NAME", "envdb")
	cfg, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.DatabaseName != "envdb" {
		t.Errorf("expected MONGODBEE_DATABASE_NAME to override file value, got %q", cfg.DatabaseName)
	}
}

func TestLoadFileShortEnvAliases(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
database:
  uri: mongodb://localhost:27017
  name: testdb
paths:
  migrations: ./migrations
  schemas: ./schemas
`)
	t.Setenv("MONGODBEE_DB_URI", "mongodb://short:27017")
	t.Setenv("MONGODBEE_MIGRATIONS_PATH", "./short-migrations")
	cfg, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.DatabaseURI != "mongodb://short:27017" {
		t.Errorf("expected MONGODBEE_DB_URI alias to resolve, got %q", cfg.DatabaseURI)
	}
	if cfg.MigrationsPath != "./short-migrations" {
		t.Errorf("expected MONGODBEE_MIGRATIONS_PATH alias to resolve, got %q", cfg.MigrationsPath)
	}
}
