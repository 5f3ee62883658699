package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/SmithE65/Containerizing/config"
	"github.com/SmithE65/Containerizing/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.OpenDB(config.Config{
		Environment:       "production",
		DBDriver:          config.DriverSQLite,
		DefaultConnection: filepath.Join(t.TempDir(), "todo.db"),
		DBMaxIdleConns:    1,
		DBMaxOpenConns:    1,
		DBConnMaxLifetime: time.Hour,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{
		MaxRetryCount: retries,
		BaseDelay:     time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
	}
}

func countTodoItems(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.TodoItem{}).Count(&count).Error)
	return count
}
