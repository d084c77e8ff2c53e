// Package config loads runtime configuration for the whistles admin CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables prefixed with WHISTLES_CLI_ (ADDR, TOKEN, TIMEOUT).
//  3. Optional JSON file selected with -c or -config.
//  4. Global flags placed before the command name.
//
// Supported flags
//
//	-a string   address:port of the whistles gRPC endpoint
//	-t string   bearer token sent with every call
//	-i int      per-call timeout (seconds)
//
// The token is better passed through the environment than on the command
// line, where it ends up in shell history.
package config
