package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/minsend/internal/flagx"
)

// parseFlags populates Config fields from -a, -k, -l and -o. Invalid values
// panic.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k", "-l", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerAddr, "a", config.ServerAddr, "address and port of the file server")
	fs.StringVar(&config.KeyDerivation, "k", config.KeyDerivation, "key derivation (raw|hkdf)")
	fs.StringVar(&config.HistoryPath, "l", config.HistoryPath, "local history database")
	fs.StringVar(&config.DownloadDir, "o", config.DownloadDir, "directory for files shared by other clients")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
