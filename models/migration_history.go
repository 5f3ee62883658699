package models

import "time"

// MigrationHistory 已应用的迁移记录
type MigrationHistory struct {
	Version   uint      `gorm:"primaryKey;autoIncrement:false" json:"version"`
	Name      string    `gorm:"type:varchar(150);not null" json:"name"`
	AppliedAt time.Time `gorm:"not null" json:"appliedAt"`
}

func (MigrationHistory) TableName() string {
	return "schema_migrations_history"
}
