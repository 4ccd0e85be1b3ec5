package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/akarpov87/userstore/internal/models"
)

func (a *App) printUser(u *models.User) {
	scm := strings.Join(u.ScmAccountsList(), ",")
	fmt.Fprintf(a.out, "%d\t%s\t%s\t%s\tactive=%t\troot=%t\t%s\n",
		u.ID, u.Login, u.Name, u.Email, u.Active, u.Root, scm)
}

func (a *App) cmdGet(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("get: expected <login>")
	}

	user, err := a.service.GetByLogin(ctx, args[0])
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Fprintf(a.out, "user %q not found\n", args[0])
		return nil
	}

	a.printUser(user)
	return nil
}

func (a *App) cmdResolve(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("resolve: expected at least one <login>")
	}

	found, err := a.service.GetByOrderedLogins(ctx, args)
	if err != nil {
		return err
	}

	for _, u := range found {
		a.printUser(u)
	}
	return nil
}

func (a *App) cmdSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	all := fs.Bool("all", false, "include deactivated users")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("search: %w", err)
	}

	query := models.UserQuery{
		SearchText:         strings.Join(fs.Args(), " "),
		IncludeDeactivated: *all,
	}

	found, err := a.service.Search(ctx, query)
	if err != nil {
		return err
	}

	for _, u := range found {
		a.printUser(u)
	}
	return nil
}

func (a *App) cmdScm(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("scm: expected <value>")
	}

	found, err := a.service.GetByScmAccountOrLoginOrEmail(ctx, args[0])
	if err != nil {
		return err
	}

	for _, u := range found {
		a.printUser(u)
	}
	return nil
}

func (a *App) cmdEmailExists(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("email-exists: expected <email>")
	}

	exists, err := a.service.EmailExists(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, exists)
	return nil
}

func (a *App) cmdSetRoot(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("set-root: expected <login> <bool>")
	}

	root, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("set-root: bad flag value %q", args[1])
	}

	if err := a.service.SetRoot(ctx, args[0], root); err != nil {
		return err
	}

	a.logger.Info(ctx, "root flag updated", "login", args[0], "root", root)
	fmt.Fprintf(a.out, "%s: root=%t\n", args[0], root)
	return nil
}

func (a *App) cmdCountRoots(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("count-roots: expected <login>")
	}

	n, err := a.service.CountRootUsersButLogin(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, n)
	return nil
}

func (a *App) cmdDeactivate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("deactivate: expected <login>")
	}

	ok, err := a.service.DeactivateByLogin(ctx, args[0])
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(a.out, "user %q not found\n", args[0])
		return nil
	}

	a.logger.Info(ctx, "user deactivated", "login", args[0])
	fmt.Fprintf(a.out, "deactivated %s\n", args[0])
	return nil
}

func (a *App) cmdMigrate(ctx context.Context) error {
	if err := a.manager.RunMigrations(ctx, a.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	fmt.Fprintln(a.out, "migrations applied")
	return nil
}
