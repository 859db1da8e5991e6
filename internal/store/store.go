// Package store writes OASIS projects into the grey-literature schema.
//
// Every write goes through a Tx obtained from Store.InTx. Lookups used to
// make writes idempotent (sources, series, persons, project numbers) are
// available on both Store and Tx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/adsarch/greylit/internal/config"
	"github.com/adsarch/greylit/internal/logging"
)

// ErrSeriesNameMissing is returned when a SERIES row exists without its
// SERIES_NAME row.
var ErrSeriesNameMissing = errors.New("existing series has no series name")

// queryer is the subset of *sql.DB and *sql.Tx used here.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn binds a queryer to a dialect.
type conn struct {
	q       queryer
	dialect Dialect
	log     *logrus.Entry
}

// Store wraps a database connection.
type Store struct {
	conn
	db *sql.DB
}

// Tx is an open transaction.
type Tx struct {
	conn
	tx *sql.Tx
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Store) {
		s.log = l
	}
}

// Open connects to the configured database. For SQLite the schema is
// created if needed.
func Open(ctx context.Context, cfg config.DatabaseConfig, opts ...Option) (*Store, error) {
	dialect, dsn, err := dialectFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		conn: conn{q: db, dialect: dialect, log: logging.NewLogger("store")},
		db:   db,
	}
	for _, opt := range opts {
		opt(s)
	}

	if dialect == SQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
		if err := createSchema(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", dialect.Name, err)
	}

	s.log.WithFields(logrus.Fields{
		"driver": dialect.Name,
		"host":   cfg.Host,
		"port":   cfg.Port,
		"sid":    cfg.SID,
		"path":   cfg.Path,
	}).Info("connected to database")

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// InTx runs fn in a transaction, committing if it returns nil and rolling
// back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(*Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	tx := &Tx{conn: conn{q: sqlTx, dialect: s.dialect, log: s.log}, tx: sqlTx}
	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.log.WithError(rbErr).Error("rollback failed")
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	s.log.Debug("transaction committed")
	return nil
}

// Counts returns the number of rows in each table in Tables.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// insert executes ins and returns the generated id when ins.idColumn is set.
func (c conn) insert(ctx context.Context, ins insert) (int64, error) {
	query := c.dialect.insertSQL(ins)

	args := make([]any, 0, len(ins.values)+1)
	for i, col := range ins.columns {
		args = append(args, sql.Named(bindName(col), ins.values[i]))
	}

	if ins.idColumn == "" {
		if _, err := c.q.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("inserting into %s: %w", ins.table, err)
		}
		return 0, nil
	}

	var id int64
	if c.dialect.returningInto {
		args = append(args, sql.Named(retBind, sql.Out{Dest: &id}))
		if _, err := c.q.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("inserting into %s: %w", ins.table, err)
		}
		return id, nil
	}

	if err := c.q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", ins.table, err)
	}
	return id, nil
}

// lookupID runs a single-column id query. found is false when no row matches.
func (c conn) lookupID(ctx context.Context, query string, args ...any) (id int64, found bool, err error) {
	err = c.q.QueryRowContext(ctx, query, args...).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}
