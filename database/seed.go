package database

import (
	"context"
	"fmt"

	"github.com/SmithE65/Containerizing/config"
	"github.com/SmithE65/Containerizing/models"
	"gorm.io/gorm"
)

var defaultSeedItems = []models.TodoItem{
	{Name: "Item1"},
	{Name: "Item2"},
	{Name: "Item3"},
}

// DefaultSeedItems 返回初始数据的副本
func DefaultSeedItems() []models.TodoItem {
	out := make([]models.TodoItem, len(defaultSeedItems))
	copy(out, defaultSeedItems)
	return out
}

// Seeder inserts the bootstrap dataset into an empty todo_items table.
type Seeder struct {
	policy RetryPolicy
	items  []models.TodoItem
}

func NewSeeder(policy RetryPolicy, items []models.TodoItem) *Seeder {
	return &Seeder{policy: policy, items: items}
}

// SeedIfEmpty inserts the seed items in one transaction unless the table
// already holds rows. It reports how many rows were inserted.
func (s *Seeder) SeedIfEmpty(ctx context.Context, db *gorm.DB) (int, error) {
	var inserted int
	err := WithRetry(ctx, s.policy, func(ctx context.Context) error {
		inserted = 0
		return WithTransaction(ctx, db, func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.TodoItem{}).Count(&count).Error; err != nil {
				return fmt.Errorf("count todo items: %w", err)
			}
			if count > 0 {
				return nil
			}
			if len(s.items) == 0 {
				return nil
			}

			// ids assigned by a rolled-back attempt must not leak into the next one
			items := make([]models.TodoItem, len(s.items))
			for i, item := range s.items {
				items[i] = models.TodoItem{Name: item.Name, IsComplete: item.IsComplete}
			}
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("insert seed items: %w", err)
			}
			inserted = len(items)
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("seed data: %w", err)
	}

	if inserted == 0 {
		config.Logger.Infow("已有数据，跳过初始化数据")
		return 0, nil
	}
	config.Logger.Infow("初始化数据完成", "inserted", inserted)
	return inserted, nil
}
