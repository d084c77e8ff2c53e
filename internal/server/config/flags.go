package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/whistles/internal/flagx"
)

// parseFlags populates selected Config fields from short command-line flags.
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-o string   ops HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-l string   log level
//	-s string   JWT HMAC secret
//	-k string   default encryption secret (JWK k value)
//	-n string   default salt
//	-x int      default timestamp shift
//	-p int      prune interval, days
//	-w int      lookback window, days
//	-v string   schema version
//	-r string   registry directory (empty keeps it in memory)
//	-b string   S3 bucket for exports
//
// os.Args is filtered through flagx.FilterArgs first so flags owned by other
// layers (-c, -env-file) do not make parsing fail.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-o", "-d", "-l", "-s", "-k", "-n", "-x", "-p", "-w", "-v", "-r", "-b",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run gRPC server")
	fs.StringVar(&config.EndpointAddrHTTP, "o", config.EndpointAddrHTTP, "address and port to run ops HTTP server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "JWT secret key")
	fs.StringVar(&config.Secret, "k", config.Secret, "default encryption secret")
	fs.StringVar(&config.Salt, "n", config.Salt, "default salt")
	fs.Int64Var(&config.Shift, "x", config.Shift, "default timestamp shift")
	fs.IntVar(&config.PruneIntervalDays, "p", config.PruneIntervalDays, "prune interval (in days)")
	fs.IntVar(&config.LookbackWindowDays, "w", config.LookbackWindowDays, "lookback window (in days)")
	fs.StringVar(&config.SchemaVersion, "v", config.SchemaVersion, "schema version")
	fs.StringVar(&config.RegistryPath, "r", config.RegistryPath, "registry directory")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket for exports")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
