package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations use
// timex.Duration so both "30m" and integer nanoseconds are accepted.
// Fields left out of the file keep their current value.
type FileConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn" yaml:"database_dsn"`
	RedisURL                     string         `json:"redis_url" yaml:"redis_url"`
	RevocationBackend            string         `json:"revocation_backend" yaml:"revocation_backend"`
	SecretKey                    string         `json:"secret_key" yaml:"secret_key"`
	JWTAlgorithm                 string         `json:"jwt_algorithm" yaml:"jwt_algorithm"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	StoreTimeout                 timex.Duration `json:"store_timeout" yaml:"store_timeout"`
	PasswordHashAlgorithm        string         `json:"password_hash_algorithm" yaml:"password_hash_algorithm"`
	BcryptCost                   int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	SuperAdminName               string         `json:"superadmin_name" yaml:"superadmin_name"`
	SuperAdminPassword           string         `json:"superadmin_password" yaml:"superadmin_password"`
	LogBackend                   string         `json:"log_backend" yaml:"log_backend"`
	LogFormat                    string         `json:"log_format" yaml:"log_format"`
	LogLevel                     string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays the file given by -c/--config onto config. The format
// follows the extension: .json, or .yaml/.yml.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	fc := &FileConfig{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, fc.DatabaseDSN)
	setString(&config.RedisURL, fc.RedisURL)
	setString(&config.RevocationBackend, fc.RevocationBackend)
	setString(&config.SecretKey, fc.SecretKey)
	setString(&config.JWTAlgorithm, fc.JWTAlgorithm)
	setString(&config.PasswordHashAlgorithm, fc.PasswordHashAlgorithm)
	setString(&config.SuperAdminName, fc.SuperAdminName)
	setString(&config.SuperAdminPassword, fc.SuperAdminPassword)
	setString(&config.LogBackend, fc.LogBackend)
	setString(&config.LogFormat, fc.LogFormat)
	setString(&config.LogLevel, fc.LogLevel)

	if fc.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	if fc.StoreTimeout.Duration != 0 {
		config.StoreTimeout = fc.StoreTimeout.Duration
	}
	if fc.BcryptCost != 0 {
		config.BcryptCost = fc.BcryptCost
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
