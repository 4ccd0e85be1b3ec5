// Package cli implements the userctl command-line interface: a thin
// subcommand dispatcher over the user service.
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/akarpov87/userstore/internal/buildinfo"
	"github.com/akarpov87/userstore/internal/config"
	"github.com/akarpov87/userstore/internal/logging"
	"github.com/akarpov87/userstore/internal/models"
	"github.com/akarpov87/userstore/internal/repomanager"
	"github.com/akarpov87/userstore/internal/users"
)

// UserService is the part of the user service surface the CLI drives.
type UserService interface {
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByOrderedLogins(ctx context.Context, logins []string) ([]*models.User, error)
	Search(ctx context.Context, query models.UserQuery) ([]*models.User, error)
	GetByScmAccountOrLoginOrEmail(ctx context.Context, value string) ([]*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetRoot(ctx context.Context, login string, root bool) error
	CountRootUsersButLogin(ctx context.Context, login string) (int64, error)
	DeactivateByLogin(ctx context.Context, login string) (bool, error)
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	manager repomanager.RepositoryManager
	service UserService
	out     io.Writer
}

// NewApp wires the database connection, the repository manager and the user
// service for the given configuration.
func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	manager := repomanager.NewPostgresRepositoryManager()

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		manager: manager,
		service: users.NewService(db, manager.Users),
		out:     os.Stdout,
	}, nil
}

// Close releases the database connection.
func (a *App) Close() error {
	return a.db.Close()
}

const usage = `usage: userctl [flags] <command> [args]

commands:
  get <login>               show one user, active or not
  resolve <login>...        resolve logins preserving input order
  search [-all] [text]      search users by login, name or email
  scm <value>               find users by SCM account, login or email
  email-exists <email>      check whether an active user has the email
  set-root <login> <bool>   grant or revoke the root flag
  count-roots <login>       count active root users besides the login
  deactivate <login>        deactivate a user and purge its dependent rows
  migrate                   apply the embedded schema migrations
  version                   print build information

flags (before the command):
  -d DSN        database DSN
  -t DURATION   query timeout, e.g. "30s"
  -l LEVEL      log level
  -m            run migrations on startup
  -c FILE       JSON config file
`

// commandArgs strips the configuration flags from args so only the
// subcommand and its arguments remain. Flags must precede the command.
func commandArgs(args []string) []string {
	fs := flag.NewFlagSet("userctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("d", "", "")
	fs.Duration("t", 0, "")
	fs.String("l", "", "")
	fs.Bool("m", false, "")
	fs.String("c", "", "")
	fs.String("config", "", "")
	if err := fs.Parse(args); err != nil {
		return args
	}
	return fs.Args()
}

// Run executes one command against the store and writes the result to the
// app's output. The configured query timeout bounds the whole command,
// including the optional automatic migration run.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd := commandArgs(args)
	if len(cmd) == 0 {
		fmt.Fprint(a.out, usage)
		return nil
	}

	// version needs neither the database nor a deadline
	if cmd[0] == "version" {
		buildinfo.PrintBuildData(a.out)
		return nil
	}

	if a.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.QueryTimeout)
		defer cancel()
	}

	if a.config.AutoMigrate {
		if err := a.manager.RunMigrations(ctx, a.db); err != nil {
			return fmt.Errorf("migrations error: %w", err)
		}
	}

	switch cmd[0] {
	case "get":
		return a.cmdGet(ctx, cmd[1:])
	case "resolve":
		return a.cmdResolve(ctx, cmd[1:])
	case "search":
		return a.cmdSearch(ctx, cmd[1:])
	case "scm":
		return a.cmdScm(ctx, cmd[1:])
	case "email-exists":
		return a.cmdEmailExists(ctx, cmd[1:])
	case "set-root":
		return a.cmdSetRoot(ctx, cmd[1:])
	case "count-roots":
		return a.cmdCountRoots(ctx, cmd[1:])
	case "deactivate":
		return a.cmdDeactivate(ctx, cmd[1:])
	case "migrate":
		return a.cmdMigrate(ctx)
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command: %s", cmd[0])
	}
}
