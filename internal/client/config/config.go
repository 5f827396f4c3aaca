package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for authctl.
//
// Fields:
//   - ServerEndpointAddr: host:port of the auth server gRPC endpoint.
//   - TokenFile: where the current token pair is kept between runs.
//   - RequestTimeout: upper bound for a single command round trip.
type Config struct {
	ServerEndpointAddr string
	TokenFile          string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.TokenFile = defaultTokenFile()
	c.RequestTimeout = 10 * time.Second
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".gophauth-tokens.json"
	}
	return filepath.Join(dir, "gophauth", "tokens.json")
}

// LoadConfig applies defaults, then the file named by -c/--config, then the
// flags in args. Parsing stops at the first non-flag argument; it and
// everything after it is returned as the command line.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, nil, err
	}
	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.ServerEndpointAddr == "" {
		errs = append(errs, errors.New("server address must not be empty"))
	}
	if c.TokenFile == "" {
		errs = append(errs, errors.New("token file must not be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	return errors.Join(errs...)
}
