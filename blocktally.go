// Package blocktally counts the blocks stored in Minecraft Anvil region files.
//
// A world's terrain lives in region files, each holding up to 32×32 chunks.
// blocktally decodes every chunk, resolves the block at every position through
// its section palette, and merges the per-region counts into one frequency
// table across any number of files.
//
// # Core Features
//
//   - Every chunk layout since 1.2: legacy numeric ids, both post-flattening
//     bit packings and the 1.18+ block_states format
//   - All region compression schemes (gzip, zlib, none, LZ4, custom) and
//     external .mcc payloads
//   - Parallel scanning with a deterministic, input-ordered result
//   - Per-chunk failure isolation: damaged chunks are reported, not fatal
//   - Optional sqlite result cache for unchanged region files
//
// # Basic Usage
//
//	res, err := blocktally.Count(ctx, []string{"world/region"}, blocktally.Options{
//	    Limit:  10,
//	    Sort:   true,
//	    Ignore: []string{"air", "cave_air"},
//	})
//	if err != nil {
//	    return err
//	}
//	for _, e := range res.Entries {
//	    fmt.Println(e.ID, e.Count)
//	}
//
// # Package Structure
//
// This package is a thin wrapper over the tally package. Use tally.Scanner
// directly to reuse a scanner across scans, and the region, nbt and chunk
// packages to work with the file format itself.
package blocktally

import (
	"context"
	"log/slog"

	"github.com/arloliu/blocktally/region"
	"github.com/arloliu/blocktally/tally"
)

// Entry is one block identifier and the number of positions holding it.
type Entry = tally.Entry

// Options configures Count. The zero value counts every block with default
// concurrency and returns all entries in discovery order.
type Options struct {
	// Limit keeps only the Limit most frequent entries; zero keeps all.
	Limit int
	// Sort orders entries by descending count.
	Sort bool
	// Ignore lists identifiers left out of the result. A bare name such as
	// "air" matches it in any namespace.
	Ignore []string
	// Workers is the number of region files decoded in parallel; zero uses
	// GOMAXPROCS.
	Workers int
	// BlockStates counts each distinct block state instead of block names.
	BlockStates bool
	// Recursive descends into subdirectories of directory arguments.
	Recursive bool
	// Logger receives progress and failure records. May be nil.
	Logger *slog.Logger
	// Cache answers unchanged region files without decoding them. May be nil.
	Cache tally.RegionCache
}

// Result is the reduced output of Count together with the full scan report.
type Result struct {
	Entries []Entry
	Report  *tally.Report
}

// Count scans the region files at paths and returns the most frequent blocks.
//
// Directories are expanded to the region files they contain. A path that
// cannot be expanded is still scanned so that its error appears among the
// report's failures. Failures never abort the scan; inspect Report.Failures.
// When ctx is cancelled Count returns the partial result with ctx.Err().
func Count(ctx context.Context, paths []string, opts Options) (*Result, error) {
	scannerOpts := make([]tally.ScannerOption, 0, 4)
	if opts.Workers > 0 {
		scannerOpts = append(scannerOpts, tally.WithWorkers(opts.Workers))
	}
	if opts.Logger != nil {
		scannerOpts = append(scannerOpts, tally.WithLogger(opts.Logger))
	}
	if opts.Cache != nil {
		scannerOpts = append(scannerOpts, tally.WithCache(opts.Cache))
	}
	if opts.BlockStates {
		scannerOpts = append(scannerOpts, tally.WithBlockStates())
	}

	scanner, err := tally.NewScanner(scannerOpts...)
	if err != nil {
		return nil, err
	}

	report, scanErr := scanner.Scan(ctx, Expand(paths, opts.Recursive))
	if report == nil {
		return nil, scanErr
	}

	entries := tally.Top(report.Table, tally.ReduceOptions{
		Limit:  opts.Limit,
		Sort:   opts.Sort,
		Ignore: tally.NewIgnoreSet(opts.Ignore...),
	})

	return &Result{Entries: entries, Report: report}, scanErr
}

// Expand replaces every directory in paths with the region files it holds.
// Paths that cannot be read are kept as given.
func Expand(paths []string, recursive bool) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		found, err := region.Find(p, recursive)
		if err != nil {
			out = append(out, p)
			continue
		}
		out = append(out, found...)
	}

	return out
}
