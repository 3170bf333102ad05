package database

import (
    "database/sql"
    "embed"
    "errors"

    "github.com/golang-migrate/migrate/v4"
    migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
    "github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies any pending schema migrations embedded in the binary.
// It is safe to call on every startup; an up-to-date schema is not an
// error.
func Migrate(db *sql.DB) error {
    src, err := iofs.New(migrationsFS, "migrations")
    if err != nil {
        return err
    }
    driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
    if err != nil {
        return err
    }
    m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
    if err != nil {
        return err
    }
    if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
        return err
    }
    return nil
}
