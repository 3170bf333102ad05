// Package repository implements the engine's transactional store on MySQL.
// Registrations and seat locks live in two tables; the UNIQUE index on
// seat_locks.lock_key is what turns a concurrent double-claim into a
// duplicate-key failure inside the same transaction, which the engine sees
// as ErrLockHeld.  All timestamps are stored in UTC.
package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/chenti-tech/classseat/internal/engine"
)

// mysqlDupEntry is the MySQL error number for a duplicate key violation.
const mysqlDupEntry = 1062

// Store is a MySQL-backed engine.Store.
type Store struct {
    db *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store {
    if db == nil {
        panic("nil db passed to repository.NewStore")
    }
    return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Atomic opens a transaction, runs fn against it and commits only when fn
// succeeds.  Any error from fn or from the commit rolls everything back,
// so registration and lock state can never diverge.
func (s *Store) Atomic(ctx context.Context, fn func(engine.Txn) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&txn{ctx: ctx, tx: tx}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return mapSQLErr(err)
    }
    committed = true
    return nil
}

// txn adapts one *sql.Tx to the engine's Txn surface.
type txn struct {
    ctx context.Context
    tx  *sql.Tx
}

// mapSQLErr converts driver-level duplicate key failures into the engine's
// lock sentinel and passes everything else through.
func mapSQLErr(err error) error {
    var me *mysql.MySQLError
    if errors.As(err, &me) && me.Number == mysqlDupEntry {
        return engine.ErrLockHeld
    }
    return err
}
