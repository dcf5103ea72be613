package config

import (
	"flag"
	"os"
	"time"

	"github.com/codevault/codevault/internal/flagx"
)

// serverFlags lists the short flags parseFlags understands.
var serverFlags = []string{"-a", "-m", "-d", "-s", "-t", "-o", "-w", "-r", "-l", "-u", "-p", "-b", "-g", "-e"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-m string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      session validity, minutes
//	-o string   owner email
//	-w string   owner bcrypt password hash
//	-r int      failed login attempts allowed per minute
//	-l string   log level
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Arguments are filtered first, so subcommand arguments and the -c/-config
// flag do not make the flag set fail.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to serve HTTP")
	fs.StringVar(&config.EndpointAddrHealth, "m", config.EndpointAddrHealth, "address and port to serve gRPC health")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session validity (in minutes)")

	fs.StringVar(&config.OwnerEmail, "o", config.OwnerEmail, "owner email")
	fs.StringVar(&config.OwnerPasswordHash, "w", config.OwnerPasswordHash, "owner bcrypt password hash")
	fs.IntVar(&config.LoginAttemptsPerMinute, "r", config.LoginAttemptsPerMinute, "failed login attempts per minute")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// -t has minute granularity; leave finer JSON values alone unless given.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
		}
	})
}
