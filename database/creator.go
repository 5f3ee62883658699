package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Creator checks for and creates the database a handle points at.
type Creator interface {
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context) error
}

// NewCreator picks a Creator from the handle's dialector.
func NewCreator(db *gorm.DB) (Creator, error) {
	switch d := db.Dialector.(type) {
	case *mysql.Dialector:
		return newMySQLCreator(d.Config.DSN)
	case *postgres.Dialector:
		return newPostgresCreator(d.Config.DSN)
	case *sqlite.Dialector:
		return newSQLiteCreator(d.DSN), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, db.Dialector.Name())
	}
}

// serverSession opens a short-lived session that is not bound to the target
// database, runs fn, and closes it.
func serverSession(ctx context.Context, dialector gorm.Dialector, fn func(db *gorm.DB) error) error {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return fn(db.WithContext(ctx))
}

type mysqlCreator struct {
	name      string
	serverDSN string
}

func newMySQLCreator(dsn string) (*mysqlCreator, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql DSN: %w", err)
	}
	if cfg.DBName == "" {
		return nil, errors.New("mysql DSN has no database name")
	}
	name := cfg.DBName
	cfg.DBName = ""
	return &mysqlCreator{name: name, serverDSN: cfg.FormatDSN()}, nil
}

func (c *mysqlCreator) Exists(ctx context.Context) (bool, error) {
	var count int64
	err := serverSession(ctx, mysql.Open(c.serverDSN), func(db *gorm.DB) error {
		return db.Raw(`SELECT COUNT(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?`, c.name).Scan(&count).Error
	})
	if err != nil {
		return false, fmt.Errorf("check mysql database %q: %w", c.name, err)
	}
	return count > 0, nil
}

func (c *mysqlCreator) Create(ctx context.Context) error {
	err := serverSession(ctx, mysql.Open(c.serverDSN), func(db *gorm.DB) error {
		return db.Exec("CREATE DATABASE IF NOT EXISTS " + quoteMySQLIdentifier(c.name)).Error
	})
	if err != nil {
		return fmt.Errorf("create mysql database %q: %w", c.name, err)
	}
	return nil
}

func quoteMySQLIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

const postgresMaintenanceDB = "postgres"

type postgresCreator struct {
	name   string
	server pgx.ConnConfig
}

func newPostgresCreator(dsn string) (*postgresCreator, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	if cfg.Database == "" {
		return nil, errors.New("postgres DSN has no database name")
	}
	name := cfg.Database
	cfg.Database = postgresMaintenanceDB
	return &postgresCreator{name: name, server: *cfg}, nil
}

func (c *postgresCreator) dialector() gorm.Dialector {
	return postgres.New(postgres.Config{Conn: stdlib.OpenDB(c.server)})
}

func (c *postgresCreator) Exists(ctx context.Context) (bool, error) {
	var count int64
	err := serverSession(ctx, c.dialector(), func(db *gorm.DB) error {
		return db.Raw(`SELECT COUNT(*) FROM pg_database WHERE datname = ?`, c.name).Scan(&count).Error
	})
	if err != nil {
		return false, fmt.Errorf("check postgres database %q: %w", c.name, err)
	}
	return count > 0, nil
}

func (c *postgresCreator) Create(ctx context.Context) error {
	err := serverSession(ctx, c.dialector(), func(db *gorm.DB) error {
		// CREATE DATABASE cannot run inside a transaction block
		return db.Exec("CREATE DATABASE " + pgx.Identifier{c.name}.Sanitize()).Error
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P04" {
		// created concurrently by another instance
		return nil
	}
	if err != nil {
		return fmt.Errorf("create postgres database %q: %w", c.name, err)
	}
	return nil
}

type sqliteCreator struct {
	path string
}

func newSQLiteCreator(dsn string) *sqliteCreator {
	return &sqliteCreator{path: sqlitePath(dsn)}
}

// sqlitePath strips the file: scheme and query options. An empty result
// means an in-memory database.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return path
}

func (c *sqliteCreator) Exists(ctx context.Context) (bool, error) {
	if c.path == "" {
		return true, nil
	}
	_, err := os.Stat(c.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("check sqlite database %q: %w", c.path, err)
}

func (c *sqliteCreator) Create(ctx context.Context) error {
	if c.path == "" {
		return nil
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	f, err := os.OpenFile(c.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("create sqlite database %q: %w", c.path, err)
	}
	return f.Close()
}
