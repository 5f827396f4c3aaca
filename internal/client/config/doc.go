// Package config loads runtime configuration for authctl.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c or --config.
//  3. Command-line flags, which override earlier values.
//
// # File schema
//
// Durations accept strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "token_file": "/home/me/.config/gophauth/tokens.json",
//	  "request_timeout": "10s"
//	}
package config
