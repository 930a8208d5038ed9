package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/encodex/internal/flagx"
)

var knownFlags = []string{"-s", "-d", "-k", "-i", "-l", "-f", "-b", "-g", "-e", "-u", "-p", "-w"}

// parseFlags populates Config fields from command-line flags, keeping the
// current values as defaults. Arguments it does not know (such as -c) are
// filtered out first with flagx.FilterArgs. A malformed value panics.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.StorageDriver, "s", cfg.StorageDriver, "storage driver: memory, sqlite, postgres, bolt, s3")
	fs.StringVar(&cfg.StorageDSN, "d", cfg.StorageDSN, "database file path or postgres DSN")
	fs.StringVar(&cfg.KDF, "k", cfg.KDF, "key derivation for new users: pbkdf2-sha256, argon2id")
	fs.IntVar(&cfg.KDFIterations, "i", cfg.KDFIterations, "KDF iterations for new users")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format: text, json")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3Endpoint, "e", cfg.S3Endpoint, "S3 endpoint")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.ShareBaseURL, "w", cfg.ShareBaseURL, "base URL for share links")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
