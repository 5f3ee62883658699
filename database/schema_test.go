package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SmithE65/Containerizing/config"
	"github.com/SmithE65/Containerizing/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type fakeCreator struct {
	exists      bool
	existsErrs  []error
	existsCalls int
	createCalls int
}

func (f *fakeCreator) Exists(ctx context.Context) (bool, error) {
	f.existsCalls++
	if len(f.existsErrs) > 0 {
		err := f.existsErrs[0]
		f.existsErrs = f.existsErrs[1:]
		return false, err
	}
	return f.exists, nil
}

func (f *fakeCreator) Create(ctx context.Context) error {
	f.createCalls++
	f.exists = true
	return nil
}

func managerWithCreator(policy RetryPolicy, migrations []Migration, creator Creator) *SchemaManager {
	m := NewSchemaManager(policy, migrations)
	m.newCreator = func(*gorm.DB) (Creator, error) { return creator, nil }
	return m
}

func TestEnsureReadyAppliesAllMigrations(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	m := NewSchemaManager(fastPolicy(2), DefaultMigrations())

	require.NoError(t, m.EnsureReady(context.Background(), db))

	applied, err := m.AppliedMigrations(context.Background(), db)
	require.NoError(t, err)
	require.Equal(t, []uint{1, 2}, applied)
	require.Equal(t, uint(2), CurrentSchemaVersion())
	require.True(t, db.Migrator().HasTable("todo_items"))
	require.True(t, db.Migrator().HasIndex(&todoItemV1{}, "idx_todo_items_name"))
}

func TestEnsureReadyIsIdempotent(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	m := NewSchemaManager(fastPolicy(2), DefaultMigrations())
	ctx := context.Background()

	require.NoError(t, m.EnsureReady(ctx, db))
	first, err := m.AppliedMigrations(ctx, db)
	require.NoError(t, err)

	var firstHistory []models.MigrationHistory
	require.NoError(t, db.Order("version").Find(&firstHistory).Error)

	require.NoError(t, m.EnsureReady(ctx, db))
	second, err := m.AppliedMigrations(ctx, db)
	require.NoError(t, err)
	require.Equal(t, first, second)

	var secondHistory []models.MigrationHistory
	require.NoError(t, db.Order("version").Find(&secondHistory).Error)
	require.Equal(t, len(firstHistory), len(secondHistory))
	for i := range firstHistory {
		require.Equal(t, firstHistory[i].Version, secondHistory[i].Version)
		require.True(t, firstHistory[i].AppliedAt.Equal(secondHistory[i].AppliedAt))
	}
}

func TestMigrateAppliesInAscendingOrder(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	var order []uint
	step := func(v uint) Migration {
		return Migration{
			Version: v,
			Name:    "step",
			Up: func(tx *gorm.DB) error {
				order = append(order, v)
				return nil
			},
		}
	}

	m := NewSchemaManager(fastPolicy(0), []Migration{step(3), step(1), step(2)})
	require.NoError(t, m.Migrate(context.Background(), db))
	require.Equal(t, []uint{1, 2, 3}, order)
}

func TestMigrateIsAllOrNothing(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	migrations := []Migration{
		{
			Version: 1,
			Name:    "CreateA",
			Up: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE TABLE test_a (id INTEGER PRIMARY KEY)`).Error
			},
		},
		{
			Version: 2,
			Name:    "CreateBThenFail",
			Up: func(tx *gorm.DB) error {
				if err := tx.Exec(`CREATE TABLE test_b (id INTEGER PRIMARY KEY)`).Error; err != nil {
					return err
				}
				return errors.New("boom")
			},
		},
	}

	m := NewSchemaManager(fastPolicy(2), migrations)
	err := m.Migrate(context.Background(), db)
	require.Error(t, err)
	require.Contains(t, err.Error(), "migration v2 (CreateBThenFail)")

	require.False(t, db.Migrator().HasTable("test_a"))
	require.False(t, db.Migrator().HasTable("test_b"))
	applied, err := m.AppliedMigrations(context.Background(), db)
	require.NoError(t, err)
	require.Empty(t, applied)
}

func TestMigrateAppliesOnlyPending(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, NewSchemaManager(fastPolicy(0), DefaultMigrations()).Migrate(ctx, db))

	ran := 0
	next := append(DefaultMigrations(), Migration{
		Version: 3,
		Name:    "AddNotes",
		Up: func(tx *gorm.DB) error {
			ran++
			return tx.Exec(`ALTER TABLE todo_items ADD COLUMN notes TEXT`).Error
		},
	})
	m := NewSchemaManager(fastPolicy(0), next)
	require.NoError(t, m.Migrate(ctx, db))
	require.NoError(t, m.Migrate(ctx, db))
	require.Equal(t, 1, ran)

	applied, err := m.AppliedMigrations(ctx, db)
	require.NoError(t, err)
	require.Equal(t, []uint{1, 2, 3}, applied)
}

func TestMigrateRejectsUnknownAppliedVersion(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.AutoMigrate(&models.MigrationHistory{}))
	require.NoError(t, db.Create(&models.MigrationHistory{Version: 99, Name: "FromTheFuture", AppliedAt: time.Now().UTC()}).Error)

	m := NewSchemaManager(fastPolicy(3), DefaultMigrations())
	err := m.Migrate(ctx, db)
	require.ErrorIs(t, err, ErrSchemaConflict)
	require.NotErrorIs(t, err, ErrRetryLimitExceeded)
	require.False(t, db.Migrator().HasTable("todo_items"))
}

func TestMigrateRejectsInvalidMigrationSets(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	noop := func(tx *gorm.DB) error { return nil }

	dup := NewSchemaManager(fastPolicy(0), []Migration{{Version: 1, Name: "a", Up: noop}, {Version: 1, Name: "b", Up: noop}})
	require.ErrorContains(t, dup.Migrate(context.Background(), db), "duplicate migration version 1")

	zero := NewSchemaManager(fastPolicy(0), []Migration{{Version: 0, Name: "zero", Up: noop}})
	require.Error(t, zero.Migrate(context.Background(), db))

	missingUp := NewSchemaManager(fastPolicy(0), []Migration{{Version: 1, Name: "empty"}})
	require.Error(t, missingUp.Migrate(context.Background(), db))
}

func TestEnsureCreatedCreatesMissingDatabase(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	creator := &fakeCreator{}
	m := managerWithCreator(fastPolicy(0), DefaultMigrations(), creator)

	require.NoError(t, m.EnsureCreated(context.Background(), db))
	require.Equal(t, 1, creator.createCalls)

	require.NoError(t, m.EnsureCreated(context.Background(), db))
	require.Equal(t, 1, creator.createCalls)
}

func TestEnsureCreatedRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	creator := &fakeCreator{existsErrs: []error{
		Transient(errors.New("connection refused")),
		Transient(errors.New("connection refused")),
	}}
	m := managerWithCreator(fastPolicy(3), DefaultMigrations(), creator)

	require.NoError(t, m.EnsureCreated(context.Background(), db))
	require.Equal(t, 3, creator.existsCalls)
	require.Equal(t, 1, creator.createCalls)
}

func TestEnsureCreatedFailsAfterRetryBudget(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	refused := errors.New("connection refused")
	creator := &fakeCreator{existsErrs: []error{Transient(refused), Transient(refused), Transient(refused)}}
	m := managerWithCreator(fastPolicy(1), DefaultMigrations(), creator)

	err := m.EnsureReady(context.Background(), db)
	require.ErrorIs(t, err, ErrRetryLimitExceeded)
	require.ErrorIs(t, err, refused)
	require.Equal(t, 2, creator.existsCalls)
	require.False(t, db.Migrator().HasTable("todo_items"))
}

func TestMigrateRetriesTransientFailureAsOneUnit(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	calls := 0
	migrations := []Migration{
		{
			Version: 1,
			Name:    "CreateA",
			Up: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE TABLE test_a (id INTEGER PRIMARY KEY)`).Error
			},
		},
		{
			Version: 2,
			Name:    "FlakyCreateB",
			Up: func(tx *gorm.DB) error {
				calls++
				if calls == 1 {
					return Transient(errors.New("connection reset"))
				}
				return tx.Exec(`CREATE TABLE test_b (id INTEGER PRIMARY KEY)`).Error
			},
		},
	}

	m := NewSchemaManager(fastPolicy(2), migrations)
	require.NoError(t, m.Migrate(context.Background(), db))
	require.Equal(t, 2, calls)
	require.True(t, db.Migrator().HasTable("test_a"))
	require.True(t, db.Migrator().HasTable("test_b"))

	applied, err := m.AppliedMigrations(context.Background(), db)
	require.NoError(t, err)
	require.Equal(t, []uint{1, 2}, applied)
}

// 替换全局 Logger，不能并行
func TestMigrateLogsMigrationDescription(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	previous := config.Logger
	config.Logger = zap.New(core).Sugar()
	t.Cleanup(func() { config.Logger = previous })

	db := openTestDB(t)
	require.NoError(t, NewSchemaManager(fastPolicy(0), DefaultMigrations()).Migrate(context.Background(), db))

	entries := logs.FilterMessage("应用迁移").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	require.EqualValues(t, 1, fields["version"])
	require.Equal(t, "InitialCreate", fields["name"])
	require.Equal(t, "create todo_items", fields["description"])
	require.Equal(t, "index todo_items.name", entries[1].ContextMap()["description"])
}
