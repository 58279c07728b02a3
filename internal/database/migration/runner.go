package migration

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"jobscout/internal/database"
	"jobscout/internal/pkg/logger"
)

//go:embed sql/*.sql
var embedded embed.FS

// lockKey serializes concurrent runners (several replicas booting at once).
const lockKey int64 = 746295115

var ErrChecksumMismatch = errors.New("migration checksum mismatch")

type Migration struct {
	Version  int64
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// Runner applies versioned SQL files (V<n>__<name>.sql) once each, every file
// in its own transaction. Files come from FS, then Dir, then the set embedded
// in the binary.
type Runner struct {
	Dir    string
	FS     fs.FS
	Logger *zap.Logger
}

func (r Runner) Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return errors.New("migration: nil db")
	}
	log := logger.Component(r.Logger, "migration")

	src, err := r.source()
	if err != nil {
		return err
	}
	migs, err := Load(src)
	if err != nil {
		return err
	}
	if len(migs) == 0 {
		log.Info("no migrations found", zap.String(logger.FieldStatus, "skipped"))
		return nil
	}

	if _, err := db.Exec(ctx, createHistoryTable); err != nil {
		return fmt.Errorf("migration: create history table: %w", err)
	}
	applied, err := appliedChecksums(ctx, db)
	if err != nil {
		return err
	}
	if err := verify(migs, applied); err != nil {
		return err
	}

	var count int
	for _, m := range Pending(migs, applied) {
		ran, err := apply(ctx, db, m)
		if err != nil {
			return err
		}
		if !ran {
			continue
		}
		count++
		log.Info("migration applied",
			zap.String(logger.FieldStatus, "ok"),
			zap.Int64("version", m.Version),
			zap.String("file", m.Filename),
		)
	}
	log.Info("migrations up to date", zap.String(logger.FieldStatus, "ok"), zap.Int("applied", count), zap.Int("known", len(migs)))
	return nil
}

func (r Runner) source() (fs.FS, error) {
	switch {
	case r.FS != nil:
		return r.FS, nil
	case strings.TrimSpace(r.Dir) != "":
		return os.DirFS(r.Dir), nil
	default:
		return fs.Sub(embedded, "sql")
	}
}

var filename = regexp.MustCompile(`^V(\d+)__([A-Za-z0-9_.-]+)\.sql$`)

// Load reads and orders the migrations at the root of fsys. Files not named
// V<n>__<name>.sql are ignored.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var migs []Migration
	for _, e := range entries {
		parts := filename.FindStringSubmatch(e.Name())
		if e.IsDir() || parts == nil {
			continue
		}
		m, err := read(fsys, e.Name(), parts[1], parts[2])
		if err != nil {
			return nil, err
		}
		migs = append(migs, m)
	}

	sort.Slice(migs, func(i, j int) bool { return migs[i].Version < migs[j].Version })
	for i := 1; i < len(migs); i++ {
		if migs[i].Version == migs[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version: %d", migs[i].Version)
		}
	}
	return migs, nil
}

func read(fsys fs.FS, name, version, label string) (Migration, error) {
	v, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return Migration{}, fmt.Errorf("invalid migration version: %s", name)
	}
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Migration{}, err
	}
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return Migration{}, fmt.Errorf("empty migration file: %s", name)
	}
	sum := sha256.Sum256([]byte(body))
	return Migration{Version: v, Name: label, Filename: name, SQL: body, Checksum: hex.EncodeToString(sum[:])}, nil
}

// Pending returns the migrations whose version is not in applied, in order.
func Pending(migs []Migration, applied map[int64]string) []Migration {
	var out []Migration
	for _, m := range migs {
		if _, done := applied[m.Version]; !done {
			out = append(out, m)
		}
	}
	return out
}

// verify refuses to run when a file already applied has been edited since.
func verify(migs []Migration, applied map[int64]string) error {
	for _, m := range migs {
		if sum, ok := applied[m.Version]; ok && sum != m.Checksum {
			return fmt.Errorf("%w: version=%d file=%s", ErrChecksumMismatch, m.Version, m.Filename)
		}
	}
	return nil
}

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func appliedChecksums(ctx context.Context, db database.DB) (map[int64]string, error) {
	rows, err := db.Query(ctx, `SELECT version, checksum FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("migration: read history: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var (
			v   int64
			sum string
		)
		if err := rows.Scan(&v, &sum); err != nil {
			return nil, err
		}
		out[v] = sum
	}
	return out, rows.Err()
}

// apply runs m under a transaction-scoped advisory lock. It reports false when
// another runner applied m while this one waited for the lock.
func apply(ctx context.Context, db database.DB, m Migration) (bool, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); err != nil {
		return false, fmt.Errorf("migration: lock: %w", err)
	}

	var sum string
	err = tx.QueryRow(ctx, `SELECT checksum FROM schema_migrations WHERE version = $1`, m.Version).Scan(&sum)
	switch {
	case err == nil && sum == m.Checksum:
		return false, nil
	case err == nil:
		return false, fmt.Errorf("%w: version=%d file=%s", ErrChecksumMismatch, m.Version, m.Filename)
	case !errors.Is(err, pgx.ErrNoRows):
		return false, err
	}

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return false, fmt.Errorf("apply migration failed: version=%d file=%s: %w", m.Version, m.Filename, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (version, name, checksum) VALUES ($1, $2, $3)`,
		m.Version, m.Name, m.Checksum,
	); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}
