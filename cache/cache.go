package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/arloliu/blocktally/compress"
	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/format"
	"github.com/arloliu/blocktally/internal/options"
	"github.com/arloliu/blocktally/tally"
)

// Cache stores per-region count tables in a sqlite database. It implements
// tally.RegionCache and is safe for concurrent use.
type Cache struct {
	db    *sql.DB
	codec compress.Codec
	ctype format.CompressionType
}

var _ tally.RegionCache = (*Cache)(nil)

// Config holds the settings of a Cache.
type Config struct {
	compression format.CompressionType
}

// Option is a functional option for configuring a Cache.
type Option = options.Option[*Config]

// WithCompression sets the codec applied to stored tables. Default is zstd.
// Region-only schemes (LZ4 frames, custom) are rejected.
func WithCompression(ct format.CompressionType) Option {
	return options.New(func(c *Config) error {
		switch ct {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionGzip, format.CompressionZlib:
			c.compression = ct
			return nil
		default:
			return fmt.Errorf("%w: cache compression %s", errs.ErrInvalidConfig, ct)
		}
	})
}

// Open opens or creates the cache database at path.
func Open(path string, opts ...Option) (*Cache, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty cache path", errs.ErrInvalidConfig)
	}

	cfg := &Config{compression: format.CompressionZstd}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{db: db, codec: codec, ctype: cfg.compression}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}

	return nil
}

// schemaVersion is kept in PRAGMA user_version. Entries are disposable, so
// an older regions table is dropped rather than migrated.
const schemaVersion = 2

func initSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version;`).Scan(&version); err != nil {
		return err
	}

	var stmts []string
	if version < schemaVersion {
		stmts = append(stmts, `DROP TABLE IF EXISTS regions;`)
	}
	stmts = append(stmts,
		`CREATE TABLE IF NOT EXISTS regions (
			path TEXT NOT NULL,
			variant TEXT NOT NULL,
			hash INTEGER NOT NULL,
			codec INTEGER NOT NULL,
			ids INTEGER NOT NULL,
			blocks INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			chunks_absent INTEGER NOT NULL,
			blob BLOB NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (path, variant)
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			regions INTEGER,
			regions_cached INTEGER,
			chunks INTEGER,
			failures INTEGER,
			blocks INTEGER
		);`,
		fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion),
	)
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the entry stored for key. An entry stored under a
// different hash is stale and reported as a miss.
func (c *Cache) Lookup(ctx context.Context, key tally.CacheKey) (tally.CachedRegion, bool, error) {
	var (
		hash   int64
		codec  int64
		chunks int
		absent int
		blob   []byte
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT hash, codec, chunks, chunks_absent, blob FROM regions WHERE path = ? AND variant = ?`,
		key.Path, key.Variant,
	).Scan(&hash, &codec, &chunks, &absent, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return tally.CachedRegion{}, false, nil
	}
	if err != nil {
		return tally.CachedRegion{}, false, err
	}
	if uint64(hash) != key.Hash { //nolint:gosec
		return tally.CachedRegion{}, false, nil
	}

	dec, err := compress.GetCodec(format.CompressionType(codec)) //nolint:gosec
	if err != nil {
		return tally.CachedRegion{}, false, err
	}
	raw, err := dec.Decompress(blob)
	if err != nil {
		return tally.CachedRegion{}, false, err
	}

	t := tally.NewTable()
	if err := t.UnmarshalBinary(raw); err != nil {
		return tally.CachedRegion{}, false, fmt.Errorf("cached table for %s: %w", key.Path, err)
	}

	return tally.CachedRegion{Table: t, Chunks: chunks, ChunksAbsent: absent}, true, nil
}

// Store saves r under key, replacing any previous entry for the same path
// and variant.
func (c *Cache) Store(ctx context.Context, key tally.CacheKey, r tally.CachedRegion) error {
	raw, err := r.Table.MarshalBinary()
	if err != nil {
		return err
	}
	blob, err := c.codec.Compress(raw)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO regions(path, variant, hash, codec, ids, blocks, chunks, chunks_absent, blob, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path, variant) DO UPDATE SET
			hash = excluded.hash,
			codec = excluded.codec,
			ids = excluded.ids,
			blocks = excluded.blocks,
			chunks = excluded.chunks,
			chunks_absent = excluded.chunks_absent,
			blob = excluded.blob,
			updated_at = excluded.updated_at`,
		key.Path, key.Variant, int64(key.Hash), int64(c.ctype), r.Table.Len(), int64(r.Table.Total()), //nolint:gosec
		r.Chunks, r.ChunksAbsent,
		blob, time.Now().UTC().Format(time.RFC3339),
	)

	return err
}

// Len returns the number of stored region entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM regions`).Scan(&n)

	return n, err
}

// Run is one recorded scan.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time // zero while the run is unfinished
	Regions       int
	RegionsCached int
	Chunks        int
	Failures      int
	Blocks        uint64
}

// BeginRun records the start of a scan and returns its id.
func (c *Cache) BeginRun(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO runs(id, started_at) VALUES(?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

// FinishRun records the outcome of the scan started as id.
func (c *Cache) FinishRun(ctx context.Context, id string, report *tally.Report) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, regions = ?, regions_cached = ?, chunks = ?, failures = ?, blocks = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		report.Stats.Regions, report.Stats.RegionsCached, report.Stats.Chunks,
		len(report.Failures), int64(report.Stats.Blocks), //nolint:gosec
		id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}

	return nil
}

// Runs returns up to limit recorded runs, most recent first.
func (c *Cache) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, ''), COALESCE(regions, 0), COALESCE(regions_cached, 0),
			COALESCE(chunks, 0), COALESCE(failures, 0), COALESCE(blocks, 0)
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			blocks            int64
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Regions, &r.RegionsCached, &r.Chunks, &r.Failures, &blocks); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		}
		r.Blocks = uint64(blocks) //nolint:gosec
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
