package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/flagx"
)

// Flags lists the short flags owned by the config. Everything else on the
// command line belongs to the command being run.
var Flags = []string{"-a", "-T", "-K", "-i", "-c", "-config"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the server
//	-T string   access token
//	-K string   client key file
//	-i int      request timeout in seconds
func parseFlags(cfg *Config) {
	parseArgs(cfg, os.Args[1:])
}

func parseArgs(cfg *Config, argv []string) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(argv, []string{"-a", "-T", "-K", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AccessToken, "T", cfg.AccessToken, "access token")
	fs.StringVar(&cfg.KeyPath, "K", cfg.KeyPath, "client key file")
	timeout := fs.Int("i", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
