package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/ishanwen-byte/gridsearch-go/internal/cli"
	"github.com/ishanwen-byte/gridsearch-go/internal/constants"
	"github.com/ishanwen-byte/gridsearch-go/internal/types"
	"github.com/ishanwen-byte/gridsearch-go/pkg/config"
	"github.com/ishanwen-byte/gridsearch-go/pkg/evaluator"
	"github.com/ishanwen-byte/gridsearch-go/pkg/grid"
	"github.com/ishanwen-byte/gridsearch-go/pkg/invocation"
	"github.com/ishanwen-byte/gridsearch-go/pkg/report"
	"github.com/ishanwen-byte/gridsearch-go/pkg/search"
	"github.com/ishanwen-byte/gridsearch-go/pkg/space"
	"github.com/ishanwen-byte/gridsearch-go/pkg/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		stop()
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(constants.ExitError)
	}
}

// run loads the configuration, builds the grid and either prints or runs it.
// Results go to outW, logs and the progress bar to errW.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	if opts.InitPath != "" {
		if err := config.CreateDefaultConfig(opts.InitPath); err != nil {
			return err
		}
		fmt.Fprintf(outW, "Wrote default configuration to %s\n", opts.InitPath)
		return nil
	}

	if err := config.LoadEnv(); err != nil {
		return err
	}

	manager := config.NewManager()
	if opts.ConfigPath != "" {
		err = manager.Load(opts.ConfigPath)
	} else {
		err = manager.LoadDefaults()
	}
	if err != nil {
		return err
	}
	opts.Apply(manager.GetConfig())
	if err := manager.Validate(); err != nil {
		return &cli.ExitError{Code: constants.ExitError, Message: fmt.Sprintf("invalid configuration: %v", err)}
	}
	cfg := manager.GetConfig()

	logger := config.NewLogger(cfg.Logging)
	logger.SetOutput(errW)

	s, err := space.ParseFile(cfg.Search.SpaceFile)
	if err != nil {
		return err
	}
	g := grid.Build(s)

	logger.WithFields(logrus.Fields{
		"space":      cfg.Search.SpaceFile,
		"parameters": s.Len(),
		"grid_size":  g.Len(),
	}).Debug("Loaded parameter space")

	if opts.DryRun {
		return printInvocations(outW, cfg.Search.Command, g)
	}

	return runSearch(ctx, outW, errW, cfg, g, logger)
}

func printInvocations(w io.Writer, command string, g *grid.Grid) error {
	for _, c := range g.All() {
		line, err := invocation.Encode(command, c)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func runSearch(ctx context.Context, outW, errW io.Writer, cfg *types.Config, g *grid.Grid, logger *logrus.Logger) error {
	eval, err := evaluator.NewCommand(cfg.Search.Command, cfg.Evaluator, logger)
	if err != nil {
		return err
	}

	opts := []search.Option{
		search.WithLogger(logger),
		search.WithWorkers(cfg.Search.ParallelWorkers),
		search.WithReporter(report.NewProgress(errW, logger)),
	}

	var runID string
	if cfg.Output.JSON {
		js, err := store.NewJSONStore(cfg.Output.Dir, 1, logger)
		if err != nil {
			return err
		}
		runID = js.RunID()
		opts = append(opts, search.WithReporter(js))
	}
	if cfg.Output.Bolt {
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		bs, err := store.NewBoltStore(filepath.Join(cfg.Output.Dir, constants.BoltDBFile), logger)
		if err != nil {
			return err
		}
		if runID == "" {
			runID = bs.RunID()
		}
		opts = append(opts, search.WithReporter(bs))
	}

	driver := search.New(opts...)
	best, searchErr := driver.Search(ctx, eval, g)
	if err := driver.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close reporter")
	}

	if searchErr != nil {
		if errors.Is(searchErr, context.Canceled) {
			return &cli.ExitError{Code: constants.ExitInterrupt, Message: "search interrupted"}
		}
		return searchErr
	}

	return printSummary(outW, runID, len(driver.Results()), best)
}

func printSummary(w io.Writer, runID string, evaluations int, best *types.EvaluationResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if runID != "" {
		fmt.Fprintf(tw, "Run\t%s\n", runID)
	}
	fmt.Fprintf(tw, "Evaluations\t%d\n", evaluations)
	fmt.Fprintf(tw, "Best index\t%d\n", best.Index)
	fmt.Fprintf(tw, "Best score\t%g\n", best.Score)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "PARAMETER\tVALUE")
	for name, value := range best.Configuration.All() {
		fmt.Fprintf(tw, "%s\t%s\n", name, value)
	}

	return tw.Flush()
}
