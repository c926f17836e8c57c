// Package cache keeps the count tables of region files between runs.
//
// Entries are keyed by region path and identifier mode and carry a hash of
// the region's header tables and file size. The game rewrites a chunk's
// timestamp whenever it saves the chunk, so any change to a region changes
// its header and turns the entry stale. Tables are stored compressed, zstd
// by default.
//
// The database also records scan runs, each under a random UUID, with the
// summary statistics of the run.
package cache
