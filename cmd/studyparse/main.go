package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conorfennell/studyparse/internal/config"
)

const usage = `Usage: studyparse <command> [flags] [args]

Commands:
  extract [file|-]        Parse a model response and print the records found
  watch <file>            Re-parse a file on every change while it is written
  calendar [file|-]       Place a spaced repetition plan on the calendar
  serve                   Run the JSON HTTP API
  add-source <path|url>   Add a local folder or git repository of transcripts
  sync                    Scan every source into the library
  due                     List library items due for review
  review <hash> <1-4>     Grade a library item

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "studyparse: %v\n", err)
		os.Exit(1)
	}
}

// env carries what a command needs from the process.
type env struct {
	cfg   *config.Config
	flags *pflag.FlagSet
	args  []string
	in    io.Reader
	out   io.Writer
}

type command func(ctx context.Context, e *env) error

var commands = map[string]command{
	"extract":    runExtract,
	"watch":      runWatch,
	"calendar":   runCalendar,
	"serve":      runServe,
	"add-source": runAddSource,
	"sync":       runSync,
	"due":        runDue,
	"review":     runReview,
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(out, usage+config.Flags("studyparse").FlagUsages())
		if len(args) == 0 {
			return errors.New("no command given")
		}
		return nil
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, run studyparse help", name)
	}

	fs := config.Flags(name)
	fs.SetOutput(out)
	if name == "extract" {
		fs.Bool("save", false, "Save the records found to the library")
	}
	if name == "calendar" {
		fs.String("start", "", "Date of day 1 as YYYY-MM-DD, today when empty")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	slog.SetDefault(cfg.NewLogger())

	return cmd(ctx, &env{cfg: cfg, flags: fs, args: fs.Args(), in: in, out: out})
}
