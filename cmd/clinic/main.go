// Command clinic manages patients, treatment chairs, inventory and
// appointments in the local clinic store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/internal/app"
	"github.com/and161185/clinic-keeper/internal/config"
	"github.com/and161185/clinic-keeper/internal/errs"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var (
	errUsage        = errors.New("usage")
	errNoSession    = errors.New("not logged in (run: clinic login -u <user> -p <password>)")
	errBadLogin     = errors.New("bad credentials")
	errInconsistent = errors.New("chair occupancy is inconsistent")
)

func usage(w io.Writer) {
	fmt.Fprintf(w, `clinic CLI
Usage:
  clinic [-backend memory|file|sqlite|postgres|redis] [-data-dir dir] [-passphrase p] <cmd> [args]

Commands:
  version
  init                                              (default user and chairs)
  login      -u <username> -p <password>
  logout
  whoami
  passwd     -old <password> -new <password>
  useradd    -u <username> -p <password>
  patients   list | get -id | add | edit -id | rm -id
  chairs     list [-available] | add | edit -id | avail -id -set | occupant -id | rm -id | check
  meds       list | add | edit -id | rm -id | low | expiry -status expired|expiring|valid
  appts      list [-patient] | add | edit -id | rm -id
  visits     list [-patient] | add | edit -id | rm -id

Run "clinic <cmd> <sub> -h" for the flags of a subcommand.
`)
}

// main dispatches subcommands against the configured store.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		usage(os.Stderr)
		os.Exit(2)
	default:
		fail(err)
	}
}

// run parses global flags, opens the store and executes one command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("clinic", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 1 {
		return errUsage
	}
	cmd, args := rest[0], rest[1:]

	if cmd == "version" {
		fmt.Fprintf(stdout, "clinic %s (%s)\n", version, buildDate)
		return nil
	}

	log := zap.NewNop()
	if cfg.Dev {
		if log, err = cfg.Logger(); err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	if err := a.Bootstrap(ctx, log); err != nil {
		return err
	}

	c := &cli{app: a, out: stdout, errOut: stderr}

	switch cmd {
	case "init":
		return c.initStore(ctx)
	case "login":
		return c.login(ctx, args)
	case "logout":
		if err := a.Auth.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "ok")
		return nil
	}

	// everything below needs a session
	user, ok, err := a.Auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errNoSession
	}
	c.userID = user.ID

	switch cmd {
	case "whoami":
		printJSON(stdout, user)
		return nil
	case "passwd":
		return c.passwd(ctx, args)
	case "useradd":
		return c.useradd(ctx, args)
	case "patients":
		return c.patients(ctx, args)
	case "chairs":
		return c.chairs(ctx, args)
	case "meds":
		return c.meds(ctx, args)
	case "appts":
		return c.appts(ctx, args)
	case "visits":
		return c.visits(ctx, args)
	}
	return errUsage
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// exitCode maps an error to the process status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return 3
	case errors.Is(err, errs.ErrNotFound):
		return 4
	case errs.IsDomainRule(err), errors.Is(err, errs.ErrAlreadyExists):
		return 5
	case errors.Is(err, errNoSession), errors.Is(err, errBadLogin),
		errors.Is(err, errs.ErrUnauthorized), errors.Is(err, errs.ErrRateLimited):
		return 6
	}
	return 1
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitCode(err))
}
