package database

import (
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// Migration is one versioned, ordered schema change.
type Migration struct {
	Version     uint
	Name        string
	Description string
	Up          func(tx *gorm.DB) error
}

// todoItemV1 freezes the todo_items shape created by migration 1 so later
// model changes cannot alter what an old migration does.
type todoItemV1 struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"type:varchar(255);not null"`
	IsComplete bool   `gorm:"not null;default:false"`
}

func (todoItemV1) TableName() string { return "todo_items" }

var defaultMigrations = []Migration{
	{
		Version:     1,
		Name:        "InitialCreate",
		Description: "create todo_items",
		Up: func(tx *gorm.DB) error {
			if tx.Migrator().HasTable(&todoItemV1{}) {
				return nil
			}
			if err := tx.Migrator().CreateTable(&todoItemV1{}); err != nil {
				return fmt.Errorf("create todo_items: %w", err)
			}
			return nil
		},
	},
	{
		Version:     2,
		Name:        "AddTodoItemsNameIndex",
		Description: "index todo_items.name",
		Up: func(tx *gorm.DB) error {
			if tx.Migrator().HasIndex(&todoItemV1{}, "idx_todo_items_name") {
				return nil
			}
			if err := tx.Exec(`CREATE INDEX idx_todo_items_name ON todo_items (name)`).Error; err != nil {
				return fmt.Errorf("create idx_todo_items_name: %w", err)
			}
			return nil
		},
	},
}

// DefaultMigrations returns a copy of the migrations shipped with this build.
func DefaultMigrations() []Migration {
	out := make([]Migration, len(defaultMigrations))
	copy(out, defaultMigrations)
	return out
}

// CurrentSchemaVersion is the highest version this build knows about.
func CurrentSchemaVersion() uint {
	return maxMigrationVersion(defaultMigrations)
}

func maxMigrationVersion(migrations []Migration) uint {
	var highest uint
	for _, m := range migrations {
		if m.Version > highest {
			highest = m.Version
		}
	}
	return highest
}

func sortedMigrations(migrations []Migration) ([]Migration, error) {
	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	for i, m := range ordered {
		if m.Version == 0 {
			return nil, fmt.Errorf("migration %q: version must be > 0", m.Name)
		}
		if m.Up == nil {
			return nil, fmt.Errorf("migration v%d (%s): missing Up", m.Version, m.Name)
		}
		if i > 0 && ordered[i-1].Version == m.Version {
			return nil, fmt.Errorf("duplicate migration version %d", m.Version)
		}
	}
	return ordered, nil
}
