package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: tgt-test
http:
  port: 9090
database:
  host: db.internal
  dbname: marketplace
auth:
  jwt_secret: filevalue
storage:
  sign_key: sk
`), 0o644))

	t.Setenv("JWT_SECRET", "envwins")
	t.Setenv("DB_PORT", "5433")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tgt-test", cfg.App.Name)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "envwins", cfg.Auth.JWTSecret)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
}

func TestValidateRequiresSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Auth.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "x"
	cfg.Storage.SignKey = ""
	assert.Error(t, cfg.Validate())

	cfg.Storage.SignKey = "y"
	assert.NoError(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", d.DSN())
}
