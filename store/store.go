// Package store opens the relational database and provides the
// transaction-scoped unit of work every mutating operation runs in.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/judyrop/restaurant-backend/logger"
)

type Options struct {
	// DatabaseURL selects PostgreSQL; when empty SQLitePath is used.
	DatabaseURL string
	SQLitePath  string
}

const (
	maxRetries = 10
	retryDelay = 2 * time.Second
	pingTTL    = 5 * time.Second
)

func Open(ctx context.Context, opts Options, log *logrus.Entry) (*gorm.DB, error) {
	if opts.DatabaseURL != "" {
		return OpenPostgres(ctx, opts.DatabaseURL, log)
	}
	return OpenSQLite(opts.SQLitePath, log)
}

// OpenPostgres connects through pgx, retrying until the server answers.
func OpenPostgres(ctx context.Context, dsn string, log *logrus.Entry) (*gorm.DB, error) {
	pgxCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	var sqlDB *sql.DB
	for i := 1; ; i++ {
		sqlDB = stdlib.OpenDB(*pgxCfg)
		pctx, cancel := context.WithTimeout(ctx, pingTTL)
		err = sqlDB.PingContext(pctx)
		cancel()
		if err == nil {
			break
		}
		_ = sqlDB.Close()
		if i == maxRetries {
			return nil, fmt.Errorf("database unreachable after %d attempts: %w", maxRetries, err)
		}
		log.WithFields(logrus.Fields{"action": "db_connect", "attempt": i}).WithError(err).Warn("database not ready")
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("db connect canceled: %w", ctx.Err())
		}
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig(log))
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a file or in-memory database with foreign keys enforced.
// SQLite allows one writer, so the pool is capped at a single connection.
func OpenSQLite(path string, log *logrus.Entry) (*gorm.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := gorm.Open(sqlite.Open(path+sep+"_foreign_keys=1"), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func gormConfig(log *logrus.Entry) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Gorm(log),
		TranslateError: true,
	}
}

// Migrate creates or updates the tables of the given models.
func Migrate(db *gorm.DB, models ...any) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Transact runs fn as one unit of work. The transaction commits only when fn
// returns nil; any error or panic rolls every write back.
func Transact(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// IsDuplicate reports a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound reports a missing row from First/Take.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
