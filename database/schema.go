package database

import (
	"context"
	"fmt"
	"time"

	"github.com/SmithE65/Containerizing/config"
	"github.com/SmithE65/Containerizing/models"
	"gorm.io/gorm"
)

// SchemaManager brings a database to the latest schema version.
type SchemaManager struct {
	policy     RetryPolicy
	migrations []Migration
	newCreator func(db *gorm.DB) (Creator, error)
	now        func() time.Time
}

func NewSchemaManager(policy RetryPolicy, migrations []Migration) *SchemaManager {
	return &SchemaManager{
		policy:     policy,
		migrations: migrations,
		newCreator: NewCreator,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// EnsureReady creates the database if needed and applies pending migrations.
// Running it against an up-to-date database is a no-op.
func (m *SchemaManager) EnsureReady(ctx context.Context, db *gorm.DB) error {
	if err := m.EnsureCreated(ctx, db); err != nil {
		return err
	}
	return m.Migrate(ctx, db)
}

// EnsureCreated 检查目标数据库是否存在，不存在则创建
func (m *SchemaManager) EnsureCreated(ctx context.Context, db *gorm.DB) error {
	creator, err := m.newCreator(db)
	if err != nil {
		return err
	}

	err = WithRetry(ctx, m.policy, func(ctx context.Context) error {
		exists, err := creator.Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		config.Logger.Infow("数据库不存在，开始创建", "dialect", db.Dialector.Name())
		return creator.Create(ctx)
	})
	if err != nil {
		return fmt.Errorf("ensure database created: %w", err)
	}
	return nil
}

// Migrate applies every pending migration in ascending version order inside a
// single transaction.
func (m *SchemaManager) Migrate(ctx context.Context, db *gorm.DB) error {
	ordered, err := sortedMigrations(m.migrations)
	if err != nil {
		return err
	}

	var applied []uint
	err = WithRetry(ctx, m.policy, func(ctx context.Context) error {
		return WithTransaction(ctx, db, func(tx *gorm.DB) error {
			var err error
			applied, err = m.applyPending(tx, ordered)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if len(applied) == 0 {
		config.Logger.Infow("数据库结构已是最新", "version", maxMigrationVersion(ordered))
		return nil
	}
	config.Logger.Infow("数据库迁移完成", "applied", applied, "version", maxMigrationVersion(ordered))
	return nil
}

func (m *SchemaManager) applyPending(tx *gorm.DB, ordered []Migration) ([]uint, error) {
	if err := tx.Migrator().AutoMigrate(&models.MigrationHistory{}); err != nil {
		return nil, fmt.Errorf("ensure migration history table: %w", err)
	}

	done, err := appliedVersions(tx)
	if err != nil {
		return nil, err
	}

	known := make(map[uint]struct{}, len(ordered))
	for _, migration := range ordered {
		known[migration.Version] = struct{}{}
	}
	for _, version := range done {
		if _, ok := known[version]; !ok {
			return nil, fmt.Errorf("%w: database has migration v%d, code knows up to v%d",
				ErrSchemaConflict, version, maxMigrationVersion(ordered))
		}
	}

	isDone := make(map[uint]struct{}, len(done))
	for _, version := range done {
		isDone[version] = struct{}{}
	}

	var applied []uint
	for _, migration := range ordered {
		if _, ok := isDone[migration.Version]; ok {
			continue
		}
		config.Logger.Infow("应用迁移",
			"version", migration.Version,
			"name", migration.Name,
			"description", migration.Description,
		)
		if err := migration.Up(tx); err != nil {
			return nil, fmt.Errorf("migration v%d (%s): %w", migration.Version, migration.Name, err)
		}
		record := models.MigrationHistory{
			Version:   migration.Version,
			Name:      migration.Name,
			AppliedAt: m.now(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return nil, fmt.Errorf("record migration v%d: %w", migration.Version, err)
		}
		applied = append(applied, migration.Version)
	}
	return applied, nil
}

// AppliedMigrations lists the recorded migration versions in ascending order.
// A database that was never migrated reports none.
func (m *SchemaManager) AppliedMigrations(ctx context.Context, db *gorm.DB) ([]uint, error) {
	tx := db.WithContext(ctx)
	if !tx.Migrator().HasTable(&models.MigrationHistory{}) {
		return nil, nil
	}
	return appliedVersions(tx)
}

func appliedVersions(tx *gorm.DB) ([]uint, error) {
	var versions []uint
	err := tx.Model(&models.MigrationHistory{}).Order("version").Pluck("version", &versions).Error
	if err != nil {
		return nil, fmt.Errorf("read migration history: %w", err)
	}
	return versions, nil
}
