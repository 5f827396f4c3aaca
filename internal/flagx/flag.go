// Package flagx holds helpers for components that parse only a subset of the
// process command line.
package flagx

import (
	"strings"

	"github.com/spf13/pflag"
)

// FilterArgs returns the subset of args that belongs to allowedFlags,
// keeping each flag's value.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.yaml
//  2. Flag and value combined with '=':      --config=conf.yaml
//
// A following argument is treated as the value only when it does not start
// with '-'. The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFileFlag extracts the configuration file path passed with -c or
// --config. Other arguments are ignored, so the caller can parse its own flags
// independently. An empty string means no file was requested.
func ConfigFileFlag(args []string) string {
	var path string

	fs := pflag.NewFlagSet("config-file", pflag.ContinueOnError)
	fs.StringVarP(&path, "config", "c", "", "path to config file (.json, .yaml, .yml)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "--config"}))

	return path
}
