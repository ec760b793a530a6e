package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	raw := `
server:
  rest_port: 8080
auth:
  token_expiry_hours: 6
storage:
  backend: maria
  maria_host: db.local
  maria_port: 3306
cache:
  enabled: true
  redis_url: localhost:6379
  ttl_seconds: 120
catalog:
  base_url: https://api.rawg.io/api
observability:
  otlp_endpoint: otel-collector:4318
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.GetRESTPort())
	assert.Equal(t, 6, cfg.Auth.TokenExpiryHours)
	assert.Equal(t, "maria", cfg.Storage.Backend)
	assert.Equal(t, "db.local", cfg.Storage.MariaHost)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 120, cfg.Cache.TTLSeconds)
	assert.Equal(t, "https://api.rawg.io/api", cfg.Catalog.BaseURL)

	t.Setenv("GALLERY_OTLP_ENDPOINT", "")
	assert.Equal(t, "otel-collector:4318", cfg.Observability.GetOTLPEndpoint())
}

func TestOTLPEndpointEnvWins(t *testing.T) {
	o := ObservabilityConfig{OTLPEndpoint: "from-file:4318"}

	t.Setenv("GALLERY_OTLP_ENDPOINT", "")
	assert.Equal(t, "from-file:4318", o.GetOTLPEndpoint())

	t.Setenv("GALLERY_OTLP_ENDPOINT", "from-env:4318")
	assert.Equal(t, "from-env:4318", o.GetOTLPEndpoint())
}

func TestLoad_NoPathNoEnv(t *testing.T) {
	t.Setenv("GALLERY_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestRESTPortFallbacks(t *testing.T) {
	var s ServerConfig

	t.Setenv("GALLERY_REST_PORT", "")
	assert.Equal(t, 3001, s.GetRESTPort())

	t.Setenv("GALLERY_REST_PORT", "4500")
	assert.Equal(t, 4500, s.GetRESTPort())

	// Конфиг имеет приоритет над ENV
	s.RESTPort = 9000
	assert.Equal(t, 9000, s.GetRESTPort())
}

func TestJWTSecretEnvWins(t *testing.T) {
	a := AuthConfig{JWTSecret: "from-file"}

	t.Setenv("GALLERY_JWT_SECRET", "")
	assert.Equal(t, "from-file", a.GetJWTSecret())

	t.Setenv("GALLERY_JWT_SECRET", "from-env")
	assert.Equal(t, "from-env", a.GetJWTSecret())
}

func TestMongoURIDefault(t *testing.T) {
	var s StorageConfig

	t.Setenv("GALLERY_MONGO_URI", "")
	assert.Equal(t, "mongodb://localhost:27017", s.GetMongoURI())

	s.MongoURI = "mongodb://db:27017"
	assert.Equal(t, "mongodb://db:27017", s.GetMongoURI())

	t.Setenv("GALLERY_MONGO_URI", "mongodb://env:27017")
	assert.Equal(t, "mongodb://env:27017", s.GetMongoURI())
}

func TestCatalogAPIKeyEnvWins(t *testing.T) {
	c := CatalogConfig{APIKey: "file-key"}

	t.Setenv("GALLERY_RAWG_KEY", "")
	assert.Equal(t, "file-key", c.GetAPIKey())

	t.Setenv("GALLERY_RAWG_KEY", "env-key")
	assert.Equal(t, "env-key", c.GetAPIKey())
}
