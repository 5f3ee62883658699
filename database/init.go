package database

import (
	"context"

	"github.com/SmithE65/Containerizing/config"
	"gorm.io/gorm"
)

// Initialize runs the schema manager to completion, then the seeder, and
// returns the number of seed rows inserted.
func Initialize(ctx context.Context, db *gorm.DB, policy RetryPolicy, seed bool) (int, error) {
	config.Logger.Infow("开始初始化数据库", "seed", seed)

	if err := NewSchemaManager(policy, DefaultMigrations()).EnsureReady(ctx, db); err != nil {
		return 0, err
	}
	if !seed {
		return 0, nil
	}
	return NewSeeder(policy, DefaultSeedItems()).SeedIfEmpty(ctx, db)
}
