package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arloliu/blocktally"
	"github.com/arloliu/blocktally/cache"
	"github.com/arloliu/blocktally/internal/config"
	"github.com/arloliu/blocktally/tally"
)

type countFlags struct {
	top       int
	sort      bool
	ignore    []string
	workers   int
	cachePath string
	noCache   bool
	states    bool
	recursive bool
}

func newCountCmd(a *app) *cobra.Command {
	f := &countFlags{}

	cmd := &cobra.Command{
		Use:   "count <path>...",
		Short: "Count the blocks of region files",
		Long: `Count decodes every chunk of the given region files and prints the
most frequent blocks. Directories are expanded to the .mca and .mcr files
they contain.

Chunks that cannot be decoded are reported and skipped. Press Ctrl-C to
stop early and print what was counted so far.

Examples:
  blocktally count world/region
  blocktally count world/region -n 10 --ignore air --ignore cave_air
  blocktally count world -r --states --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runCount(ctx, cmd, a, f, args)
		},
	}

	defaults := config.Default()
	cmd.Flags().IntVarP(&f.top, "top", "n", defaults.Top, "Number of entries to print (0 for all)")
	cmd.Flags().BoolVar(&f.sort, "sort", defaults.Sort, "Sort entries by descending count")
	cmd.Flags().StringSliceVarP(&f.ignore, "ignore", "i", nil, "Block identifiers to leave out (repeatable)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Region files decoded in parallel (default GOMAXPROCS)")
	cmd.Flags().StringVar(&f.cachePath, "cache", "", "Path of the result cache database")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Ignore the configured cache")
	cmd.Flags().BoolVar(&f.states, "states", false, "Count block states instead of block names")
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "r", false, "Descend into subdirectories")

	return cmd
}

// apply overrides the configuration with the flags set on the command line.
func (f *countFlags) apply(cmd *cobra.Command, a *app) error {
	cfg := &a.cfg
	flags := cmd.Flags()

	if flags.Changed("top") {
		cfg.Top = f.top
	}
	if flags.Changed("sort") {
		cfg.Sort = f.sort
	}
	cfg.Ignore = append(cfg.Ignore, f.ignore...)
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("cache") {
		cfg.Cache.Path = f.cachePath
	}
	if f.noCache {
		cfg.Cache.Path = ""
	}
	if flags.Changed("states") {
		cfg.States = f.states
	}
	if flags.Changed("recursive") {
		cfg.Recursive = f.recursive
	}

	cfg.Normalize()

	return cfg.Validate()
}

func runCount(ctx context.Context, cmd *cobra.Command, a *app, f *countFlags, args []string) error {
	if err := f.apply(cmd, a); err != nil {
		return err
	}
	cfg := a.cfg

	opts := blocktally.Options{
		Limit:       cfg.Top,
		Sort:        cfg.Sort,
		Ignore:      cfg.Ignore,
		Workers:     cfg.Workers,
		BlockStates: cfg.States,
		Recursive:   cfg.Recursive,
		Logger:      a.logger,
	}

	var (
		db    *cache.Cache
		runID string
	)
	if cfg.Cache.Path != "" {
		ct, err := cfg.CacheCompression()
		if err != nil {
			return err
		}
		db, err = cache.Open(cfg.Cache.Path, cache.WithCompression(ct))
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer db.Close()

		opts.Cache = db
		if runID, err = db.BeginRun(ctx); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		a.printVerbose("Using cache %s (run %s)\n", cfg.Cache.Path, runID)
	}

	res, err := blocktally.Count(ctx, args, opts)
	if res == nil {
		return err
	}
	cancelled := tally.IsCancelled(err)
	if err != nil && !cancelled {
		return err
	}

	if db != nil {
		// The scan context may already be cancelled.
		if ferr := db.FinishRun(context.WithoutCancel(ctx), runID, res.Report); ferr != nil {
			a.logger.Warn("record run failed", "error", ferr)
		}
	}

	if a.jsonOut {
		if err := a.printJSON(newJSONReport(res, runID, cancelled)); err != nil {
			return err
		}
	} else if !a.quiet {
		if err := renderEntries(a.out, res.Entries, res.Report.Table.Total()); err != nil {
			return err
		}
		renderSummary(a.out, res.Report, cancelled)
		printFailures(a.errOut, res.Report.Failures, a.verbose)
	}

	if cancelled {
		return errors.New("scan interrupted")
	}

	return nil
}
