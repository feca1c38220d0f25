package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/docvault/internal/common"
	"github.com/dmitrijs2005/docvault/internal/flagx"
)

// valueFlags are the configuration flags parsed by parseFlags.
var valueFlags = []string{
	"-d", "-driver", "-backend", "-u", "-p", "-b", "-g", "-e", "-dir",
	"-m", "-x", "-l", "-f", "-j", "-metrics",
}

// commandLineFlags adds the layer selectors handled elsewhere (-c/-config,
// -env), so CommandArgs can strip every configuration flag.
var commandLineFlags = append([]string{"-c", "-config", "-env"}, valueFlags...)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string        database DSN
//	-driver string   catalog driver (postgres, sqlite)
//	-backend string  storage backend (s3, minio, local)
//	-u string        S3 access key id
//	-p string        S3 secret access key
//	-b string        S3 bucket name
//	-g string        S3 region
//	-e string        S3 base endpoint (e.g., "http://127.0.0.1:9000")
//	-dir string      local storage directory
//	-m int           maximum file size, bytes
//	-x string        comma-separated supported extensions
//	-l string        log level
//	-f string        log format (json, text, auto)
//	-j int           concurrent uploads
//	-metrics string  Prometheus textfile written after a batch
//
// The function first filters args to only the flags it recognizes using
// flagx.FilterArgs, so subcommand flags never collide with these.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, valueFlags)

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.DatabaseDriver, "driver", cfg.DatabaseDriver, "catalog driver")
	fs.StringVar(&cfg.StorageBackend, "backend", cfg.StorageBackend, "storage backend")
	fs.StringVar(&cfg.S3AccessKeyID, "u", cfg.S3AccessKeyID, "S3 access key id")
	fs.StringVar(&cfg.S3SecretAccessKey, "p", cfg.S3SecretAccessKey, "S3 secret access key")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.LocalStorageDir, "dir", cfg.LocalStorageDir, "local storage directory")
	fs.Int64Var(&cfg.MaxFileSize, "m", cfg.MaxFileSize, "maximum file size (bytes)")
	extensions := fs.String("x", "", "supported extensions, comma-separated")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format")
	fs.IntVar(&cfg.UploadConcurrency, "j", cfg.UploadConcurrency, "concurrent uploads")
	fs.StringVar(&cfg.MetricsTextfile, "metrics", cfg.MetricsTextfile, "metrics textfile path")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfig, err)
	}

	if *extensions != "" {
		cfg.SupportedExtensions = NormalizeExtensions(*extensions)
	}
	return nil
}
