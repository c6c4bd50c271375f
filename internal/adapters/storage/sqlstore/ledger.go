package sqlstore

import (
	"context"
	"database/sql"

	"my-pet/internal/platform/ledger"
)

type txKey struct{}

func withTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// Clave del advisory lock que da el orden total entre escritores en Postgres.
const writerLockKey int64 = 0x6d79706574

func (d *DB) Update(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if d.driver == DriverPostgres {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", writerLockKey); err != nil {
			return err
		}
	}

	txCtx := ledger.WithTxID(withTx(ctx, tx), d.newTxID())
	if err := fn(txCtx); err != nil {
		return err
	}
	return tx.Commit()
}

// View lee sobre una transacción propia para ver un único estado confirmado.
func (d *DB) View(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	var opts *sql.TxOptions
	if d.driver == DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	// solo lectura: nunca hay nada que confirmar
	defer func() {
		_ = tx.Rollback()
	}()

	return fn(withTx(ctx, tx))
}
