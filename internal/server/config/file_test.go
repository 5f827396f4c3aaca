package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseFile_JSON(t *testing.T) {
	path := writeTemp(t, "cfg.json", `{
		"endpoint_addr_grpc": "www.example:9000",
		"database_dsn": "postgres://db",
		"secret_key": "my_secret_key",
		"jwt_algorithm": "HS512",
		"access_token_validity_duration": "1m",
		"refresh_token_validity_duration": 180000000000,
		"store_timeout": "500ms",
		"revocation_backend": "memory",
		"bcrypt_cost": 12
	}`)

	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, parseFile(&cfg, []string{"-c", path}))

	assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
	assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
	assert.Equal(t, "my_secret_key", cfg.SecretKey)
	assert.Equal(t, "HS512", cfg.JWTAlgorithm)
	assert.Equal(t, time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, 500*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, RevocationBackendMemory, cfg.RevocationBackend)
	assert.Equal(t, 12, cfg.BcryptCost)

	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL, "fields missing from the file keep their value")
	assert.Equal(t, "admin", cfg.SuperAdminName)
}

func TestParseFile_YAML(t *testing.T) {
	path := writeTemp(t, "cfg.yaml", `
endpoint_addr_grpc: ":6000"
redis_url: redis://cache:6379/1
access_token_validity_duration: 15m
refresh_token_validity_duration: 24h
password_hash_algorithm: argon2id
superadmin_name: root
superadmin_password: s3cret
log_backend: zerolog
log_format: text
log_level: debug
`)

	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, parseFile(&cfg, []string{"--config", path}))

	assert.Equal(t, ":6000", cfg.EndpointAddrGRPC)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, "argon2id", cfg.PasswordHashAlgorithm)
	assert.Equal(t, "root", cfg.SuperAdminName)
	assert.Equal(t, "s3cret", cfg.SuperAdminPassword)
	assert.Equal(t, "zerolog", cfg.LogBackend)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseFile_NoFlag(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, parseFile(&cfg, []string{"-a", ":1"}))
	assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
}

func TestParseFile_Errors(t *testing.T) {
	var cfg Config

	err := parseFile(&cfg, []string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.ErrorContains(t, err, "reading config file")

	err = parseFile(&cfg, []string{"-c", writeTemp(t, "cfg.toml", "a = 1")})
	assert.ErrorContains(t, err, "unsupported config file extension")

	err = parseFile(&cfg, []string{"-c", writeTemp(t, "bad.json", "{")})
	assert.ErrorContains(t, err, "parsing config file")

	err = parseFile(&cfg, []string{"-c", writeTemp(t, "bad.yaml", "store_timeout: soon")})
	assert.ErrorContains(t, err, "parsing config file")
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := writeTemp(t, "cfg.yml", "endpoint_addr_grpc: \":7000\"\nsecret_key: from-file\n")

	cfg, err := LoadConfig([]string{"-c", path, "-a", ":8000"})
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.EndpointAddrGRPC, "flag wins over file")
	assert.Equal(t, "from-file", cfg.SecretKey, "file wins over default")
}
