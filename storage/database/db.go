package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/blogclass/core"
	appfs "github.com/trezcool/blogclass/fs"
)

const driverName = "postgres"

// Open opens the database described by conf (the Supabase connection string if set) and waits for it to be ready.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, conf.Database.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// CreateIfNotExist creates the database of a self-hosted server (DEV).
// It does nothing when a connection string is configured: hosted databases already exist.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.URL != "" {
		return nil
	}

	adminConf := *conf
	adminConf.Database.Name = "postgres"
	db, err := sqlx.Open(driverName, adminConf.Database.DSN())
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}

	// check if DB exists
	var exists bool
	err = db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}

	// create DB if not exist
	if !exists {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(conf.Database.Name))); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// MigrateFunc runs a goose command on the embedded migrations.
type MigrateFunc func(command string, db *sql.DB, args ...string) error

// RunMigrations runs a goose command ("up", "down", "status", ...) on the embedded migrations.
func RunMigrations(command string, db *sql.DB, args ...string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(driverName); err != nil {
		return err
	}
	return goose.Run(command, db, appfs.MigrationsDir, args...)
}

// Migrate migrates the database to the most recent version.
func Migrate(db *sqlx.DB) error {
	return errors.Wrap(RunMigrations("up", db.DB), "migrating database")
}

// IsUniqueViolation reports whether err was caused by a unique constraint; constraint optionally narrows it down.
func IsUniqueViolation(err error, constraint ...string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok || pqErr.Code != "23505" {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, c := range constraint {
		if strings.EqualFold(pqErr.Constraint, c) {
			return true
		}
	}
	return false
}

// RedactedDSN returns the DSN of conf with its password hidden, for logs.
func RedactedDSN(conf *core.Config) string {
	u, err := url.Parse(conf.Database.DSN())
	if err != nil {
		return "<invalid dsn>"
	}
	return u.Redacted()
}
