package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fli.dev/internal/app"
	"fli.dev/internal/appconf"
	"fli.dev/internal/logging"
)

const usage = `Usage: fli <command> [arguments]

Commands:
  search FROM TO DATE   search flights for one day
  cheap FROM TO         find the cheapest days to fly
  serve                 run the REST API

Run "fli <command> -h" for command flags.
`

// errNoResults ends a command with exit status 1 after its message is shown.
var errNoResults = errors.New("no results")

type command func(ctx context.Context, env *cliEnv, args []string) error

var commands = map[string]command{
	"search": searchCommand,
	"cheap":  cheapCommand,
	"serve":  serveCommand,
}

// cliEnv carries what every command needs before it builds the application.
type cliEnv struct {
	cfg    appconf.Config
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	cfg, err := appconf.Load(nil)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	err = cmd(ctx, &cliEnv{cfg: cfg, stdout: stdout, stderr: stderr}, args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errNoResults):
		return 1
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// parseArgs parses flags wherever they appear among the positional arguments
// and returns the positionals in order.
func parseArgs(flags *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := flags.Parse(args); err != nil {
			return nil, err
		}
		args = flags.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func (env *cliEnv) newFlagSet(name string) *flag.FlagSet {
	flags := flag.NewFlagSet("fli "+name, flag.ContinueOnError)
	flags.SetOutput(env.stderr)
	env.cfg.RegisterFlags(flags)
	return flags
}

// application validates the flag-adjusted config and builds the application.
func (env *cliEnv) application(ctx context.Context, logger *slog.Logger) (*app.Application, error) {
	if err := env.cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(ctx, env.cfg, logger)
}

// consoleLogger writes to stderr. At the default info level only warnings
// are shown so they do not interleave with the result table.
func (env *cliEnv) consoleLogger() *slog.Logger {
	level, err := logging.ParseLevel(env.cfg.LogLevel)
	if err != nil || level == slog.LevelInfo {
		level = slog.LevelWarn
	}
	return logging.NewConsoleLogger(env.stderr, level)
}
