package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"my-pet/internal/platform/ledger"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

//go:embed schema.sql
var schema string

// DB es el ledger SQL: cada Update es una transacción serializada y los
// repos toman la transacción del ctx.
type DB struct {
	db     *sql.DB
	driver string

	newTxID func() string
}

var _ ledger.Ledger = (*DB)(nil)

// Open abre el pool para Postgres (pgx) o SQLite (modernc) y verifica la conexión.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverPostgres:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
	case DriverSQLite:
		// Una sola conexión: mantiene viva una base :memory: y turna lectores
		// y escritores (un View espera al Update en curso y viceversa).
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db, driver: driver, newTxID: uuid.NewString}, nil
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) Driver() string { return d.driver }

// Migrate aplica el esquema embebido (idempotente).
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: migrate: %w", err)
		}
	}
	return nil
}

// rebind pasa los placeholders "?" a "$n" para Postgres.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q devuelve la transacción del ctx o el pool.
func (d *DB) q(ctx context.Context) querier {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return d.db
}

func (d *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.q(ctx).ExecContext(ctx, d.rebind(query), args...)
}

func (d *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.q(ctx).QueryContext(ctx, d.rebind(query), args...)
}

func (d *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.q(ctx).QueryRowContext(ctx, d.rebind(query), args...)
}

// nextID: con los escritores serializados MAX(id)+1 no deja huecos y un
// rollback no consume ids.
func (d *DB) nextID(ctx context.Context, table string) (uint64, error) {
	var id uint64
	err := d.queryRow(ctx, "SELECT COALESCE(MAX(id), 0) + 1 FROM "+table).Scan(&id)
	return id, err
}

func i64(v uint64) int64 { return int64(v) }

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	return string(b), err
}

func decodeList(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	err := json.Unmarshal([]byte(raw), &out)
	return out, err
}
