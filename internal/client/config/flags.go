package config

import (
	"flag"
	"io"
	"os"
	"time"
)

// parseFlags reads the global flags that precede the command name and keeps
// the rest in cfg.Args. -c/-config are accepted here so that parsing stops at
// the command rather than at the JSON path.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.Token, "t", cfg.Token, "bearer token")
	timeout := fs.Int("i", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.String("c", "", "path to JSON config file")
	fs.String("config", "", "path to JSON config file")

	if err := fs.Parse(os.Args[1:]); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.Args = fs.Args()
}
