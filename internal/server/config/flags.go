package config

import (
	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/spf13/pflag"
)

// newFlagSet binds every server flag to the matching config field, using the
// current field values as defaults.
func newFlagSet(config *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)

	fs.StringVarP(&config.EndpointAddrGRPC, "address", "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVarP(&config.DatabaseDSN, "database-dsn", "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "redis-url", config.RedisURL, "redis URL for the revocation store")
	fs.StringVar(&config.RevocationBackend, "revocation-backend", config.RevocationBackend, "revocation store backend (redis|memory)")
	fs.StringVarP(&config.SecretKey, "secret-key", "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.JWTAlgorithm, "jwt-algorithm", config.JWTAlgorithm, "token signing algorithm (HS256|HS384|HS512)")
	fs.DurationVarP(&config.AccessTokenValidityDuration, "access-token-ttl", "t", config.AccessTokenValidityDuration, "access token lifetime")
	fs.DurationVarP(&config.RefreshTokenValidityDuration, "refresh-token-ttl", "r", config.RefreshTokenValidityDuration, "refresh token lifetime")
	fs.DurationVar(&config.StoreTimeout, "store-timeout", config.StoreTimeout, "timeout for a single revocation store call")
	fs.StringVar(&config.PasswordHashAlgorithm, "password-hash", config.PasswordHashAlgorithm, "password hash algorithm (bcrypt|argon2id)")
	fs.IntVar(&config.BcryptCost, "bcrypt-cost", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.SuperAdminName, "superadmin-name", config.SuperAdminName, "superadmin user name")
	fs.StringVar(&config.SuperAdminPassword, "superadmin-password", config.SuperAdminPassword, "superadmin password (generated when empty)")
	fs.StringVar(&config.LogBackend, "log-backend", config.LogBackend, "log backend (slog|zerolog)")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format (json|text)")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level (debug|info|warn|error)")

	return fs
}

// parseFlags overlays command-line flags onto config. Arguments that are not
// server flags (such as -c/--config) are filtered out first.
func parseFlags(config *Config, args []string) error {
	fs := newFlagSet(config)

	var names []string
	fs.VisitAll(func(f *pflag.Flag) {
		names = append(names, "--"+f.Name)
		if f.Shorthand != "" {
			names = append(names, "-"+f.Shorthand)
		}
	})

	return fs.Parse(flagx.FilterArgs(args, names))
}
