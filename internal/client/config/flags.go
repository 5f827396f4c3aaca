package config

import (
	"github.com/spf13/pflag"
)

// parseFlags overlays command-line flags onto cfg and returns the positional
// arguments that follow them.
//
//	-a, --address string     address and port of the auth server
//	    --token-file string  where tokens are stored between runs
//	    --timeout duration   request timeout
//	-c, --config string      config file (read by parseFile)
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := pflag.NewFlagSet("authctl", pflag.ContinueOnError)
	fs.SetInterspersed(false)

	fs.StringVarP(&cfg.ServerEndpointAddr, "address", "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "file that keeps the token pair between runs")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "request timeout")
	fs.StringP("config", "c", "", "path to config file (.json, .yaml, .yml)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}
