package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/flagx"
)

var shortFlags = []string{
	"-a", "-w", "-d", "-s", "-t",
	"-k", "-m", "-o", "-f",
	"-u", "-p", "-b", "-g", "-e",
	"-x", "-n", "-z", "-v", "-j", "-T",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-w string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN, empty for in-memory repositories
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-k string   master key backend: file, db, memory
//	-m string   master key file path
//	-o string   blob storage backend: s3, local, memory
//	-f string   local blob storage directory
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-x int      max upload size, bytes
//	-n int      default share max downloads
//	-z int      default share expiry, minutes
//	-v string   log level
//	-j string   log format: json or text
//	-T bool     enable tracing
//
// Duration flags are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], shortFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&config.MasterKeyBackend, "k", config.MasterKeyBackend, "master key backend")
	fs.StringVar(&config.MasterKeyPath, "m", config.MasterKeyPath, "master key file path")
	fs.StringVar(&config.StorageBackend, "o", config.StorageBackend, "blob storage backend")
	fs.StringVar(&config.StorageDir, "f", config.StorageDir, "local blob storage directory")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.Int64Var(&config.MaxUploadSize, "x", config.MaxUploadSize, "max upload size (bytes)")
	fs.IntVar(&config.DefaultMaxDownloads, "n", config.DefaultMaxDownloads, "default share max downloads")
	shareExpiry := fs.Int("z", int(config.DefaultShareExpiry.Minutes()), "default share expiry (in minutes)")

	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "j", config.LogFormat, "log format")
	fs.BoolVar(&config.TracingEnabled, "T", config.TracingEnabled, "enable tracing")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.DefaultShareExpiry = time.Duration(*shareExpiry) * time.Minute
}
