// Package cli parses command line arguments for the gridsearch binary.
package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/ishanwen-byte/gridsearch-go/internal/constants"
	"github.com/ishanwen-byte/gridsearch-go/internal/types"
)

// ExitError carries the process exit code for an error
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Options holds the parsed command line. Only flags given explicitly
// override the loaded configuration.
type Options struct {
	ConfigPath string
	InitPath   string
	DryRun     bool

	spaceFile string
	command   string
	workers   int
	timeout   int
	outputDir string
	logLevel  string

	set map[string]bool
}

// Parse reads args. The second return value is true when the program should
// exit without running, as after -h.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	flagSet := flag.NewFlagSet(constants.Name, flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprintf(output, `
%s - %s.

Usage:
  gridsearch [options] [SPACE_FILE]

The objective command is run once per configuration as
  <command> -name 'value' ...
and must print its score. Lower scores are better.

Options:
`, constants.Name, constants.Description)
		flagSet.PrintDefaults()
	}

	opts := &Options{set: make(map[string]bool)}
	flagSet.StringVar(&opts.ConfigPath, "config", "", "Path to a YAML configuration file.")
	flagSet.StringVar(&opts.spaceFile, "space", "", "Path to the parameter space file.")
	flagSet.StringVar(&opts.command, "command", "", "Objective command to evaluate each configuration with.")
	flagSet.IntVar(&opts.workers, "workers", constants.DefaultParallelWorkers, "Number of evaluations to run at once.")
	flagSet.IntVar(&opts.timeout, "timeout", constants.DefaultTimeout, "Per-evaluation timeout in seconds. 0 disables it.")
	flagSet.StringVar(&opts.outputDir, "output", "", "Directory for stored results.")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "Log level: 'debug', 'info', 'warn' or 'error'.")
	flagSet.BoolVar(&opts.DryRun, "dry-run", false, "Print the invocation for every configuration instead of running it.")
	flagSet.StringVar(&opts.InitPath, "init", "", "Write a default configuration file to this path and exit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: constants.ExitError, Message: err.Error()}
	}

	flagSet.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: constants.ExitError, Message: "at most one space file may be given"}
	}
	if flagSet.NArg() == 1 {
		if opts.set["space"] {
			return nil, false, &ExitError{Code: constants.ExitError, Message: "space file given both as -space and as an argument"}
		}
		opts.spaceFile = flagSet.Arg(0)
		opts.set["space"] = true
	}

	if opts.set["workers"] && opts.workers <= 0 {
		return nil, false, &ExitError{Code: constants.ExitError, Message: "invalid workers: must be positive"}
	}
	if opts.set["timeout"] && opts.timeout < 0 {
		return nil, false, &ExitError{Code: constants.ExitError, Message: "invalid timeout: must not be negative"}
	}

	return opts, false, nil
}

// Apply copies the explicitly given flags onto config
func (o *Options) Apply(config *types.Config) {
	if o.set["space"] {
		config.Search.SpaceFile = o.spaceFile
	}
	if o.set["command"] {
		config.Search.Command = o.command
	}
	if o.set["workers"] {
		config.Search.ParallelWorkers = o.workers
	}
	if o.set["timeout"] {
		config.Evaluator.Timeout = o.timeout
	}
	if o.set["output"] {
		config.Output.Dir = o.outputDir
	}
	if o.set["log-level"] {
		config.Logging.Level = o.logLevel
	}
}
