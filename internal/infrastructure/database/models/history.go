package models

import (
	"time"

	"gorm.io/datatypes"
)

type EntityHistory struct {
	ID                string         `gorm:"type:uuid;primaryKey"`
	EntityID          string         `gorm:"type:uuid;not null;index:idx_entity_history_entity_id"`
	ChangedAt         time.Time      `gorm:"type:timestamptz;not null;index:idx_entity_history_changed_at"`
	ChangedBy         string         `gorm:"type:uuid;not null"`
	ChangeType        string         `gorm:"type:text;not null"`
	Changes           datatypes.JSON `gorm:"type:jsonb"`
	ChangeDescription *string        `gorm:"type:text"`
	IPAddress         *string        `gorm:"column:ip_address;type:text"`
	UserAgent         *string        `gorm:"type:text"`
}

func (EntityHistory) TableName() string { return "entity_history" }
