package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/filekeeper/internal/flagx"
)

// parseFlags applies the short command-line flags:
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-g string     gRPC bind address (e.g. ":50051")
//	-d string     PostgreSQL DSN; empty selects in-memory storage
//	-s string     JWT HMAC secret key
//	-t duration   token lifetime
//	-b string     file storage backend, "disk" or "s3"
//	-f string     directory of the disk backend
//	-i duration   sweep interval
//	-r duration   orphan retention window
//	-l string     log level
//
// Other arguments, including -c/-config, are filtered out first.
func parseFlags(c *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-b", "-f", "-i", "-r", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.HTTPAddr, "a", c.HTTPAddr, "HTTP address and port")
	fs.StringVar(&c.GRPCAddr, "g", c.GRPCAddr, "gRPC address and port")
	fs.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "database DSN")
	fs.StringVar(&c.SecretKey, "s", c.SecretKey, "secret key")
	fs.DurationVar(&c.TokenTTL, "t", c.TokenTTL, "token lifetime")
	fs.StringVar(&c.StorageBackend, "b", c.StorageBackend, "storage backend (disk|s3)")
	fs.StringVar(&c.StorageDir, "f", c.StorageDir, "storage directory")
	fs.DurationVar(&c.SweepInterval, "i", c.SweepInterval, "orphan sweep interval")
	fs.DurationVar(&c.Retention, "r", c.Retention, "orphan retention window")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")

	return fs.Parse(args)
}
