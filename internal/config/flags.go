package config

import (
	"flag"
	"os"

	"github.com/akarpov87/userstore/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string     PostgreSQL DSN
//	-t duration   query timeout (e.g., "30s")
//	-l string     log level (debug, info, warn, error)
//	-m            run the embedded migrations on startup
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so subcommands and their arguments pass through
// untouched.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-t", "-l", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.DurationVar(&config.QueryTimeout, "t", config.QueryTimeout, "query timeout")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.AutoMigrate, "m", config.AutoMigrate, "run migrations on startup")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
