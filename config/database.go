package config

import (
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB 打开数据库句柄。MySQL/PostgreSQL 不会主动连接：目标库可能还不存在，
// 由 database.SchemaManager 负责创建。SQLite 驱动打开时即创建库文件，所在目录需已存在。
func OpenDB(config Config) (*gorm.DB, error) {
	dialector, err := Dialector(config.DBDriver, config.DefaultConnection)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Info
	if config.IsProduction() {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               logger.Default.LogMode(logLevel),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", config.DBDriver, err)
	}

	// 设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(config.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(config.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.DBConnMaxLifetime)

	return db, nil
}

// Dialector 按驱动名构造 GORM dialector
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverMySQL:
		cfg, err := gomysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: parse mysql DSN: %v", ErrInvalidConfig, err)
		}
		// 未改变值的 UPDATE 也要计入受影响行数，否则整行替换会被误判为冲突
		cfg.ClientFoundRows = true
		cfg.ParseTime = true
		return mysql.New(mysql.Config{
			DSN:                       cfg.FormatDSN(),
			SkipInitializeWithVersion: true,
		}), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: unsupported DB_DRIVER %q", ErrInvalidConfig, driver)
	}
}
