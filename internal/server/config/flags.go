package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/minsend/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   TCP bind address (e.g., ":5050")
//	-r string   data root of the local store
//	-n int      pin length of temporary identities
//	-k string   key derivation, "raw" or "hkdf"
//	-s string   storage backend, "local" or "s3"
//	-d string   PostgreSQL DSN of the transfer journal
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// os.Args is filtered with flagx.FilterArgs first, so -c/-config and
// unknown flags are ignored here.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-n", "-k", "-s", "-d", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to listen on")
	fs.StringVar(&config.DataRoot, "r", config.DataRoot, "data root directory")
	fs.IntVar(&config.PinLength, "n", config.PinLength, "pin length")
	fs.StringVar(&config.KeyDerivation, "k", config.KeyDerivation, "key derivation (raw|hkdf)")
	fs.StringVar(&config.StorageBackend, "s", config.StorageBackend, "storage backend (local|s3)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "journal database DSN")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
