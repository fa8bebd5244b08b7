package models

import (
	"time"

	"gorm.io/datatypes"
)

type List struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	SubscriberID string    `gorm:"type:uuid;not null;uniqueIndex:uq_lists_subscriber_name,priority:1"`
	Name         string    `gorm:"column:list_name;type:text;not null;uniqueIndex:uq_lists_subscriber_name,priority:2"`
	Type         string    `gorm:"column:list_type;type:text;not null;index:idx_lists_type"`
	Description  *string   `gorm:"type:text"`
	Scope        string    `gorm:"type:text;not null"`
	IsActive     bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null"`
	CreatedBy    string    `gorm:"type:uuid;not null"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null"`
	UpdatedBy    *string   `gorm:"type:uuid"`
}

func (List) TableName() string { return "lists_management" }

type ListValue struct {
	ID          string         `gorm:"type:uuid;primaryKey"`
	ListID      string         `gorm:"type:uuid;not null;uniqueIndex:uq_list_values_list_name,priority:1"`
	Name        string         `gorm:"column:value_name;type:text;not null;uniqueIndex:uq_list_values_list_name,priority:2"`
	Code        *string        `gorm:"column:value_code;type:text;index:idx_list_values_code"`
	Description *string        `gorm:"column:value_description;type:text"`
	Metadata    datatypes.JSON `gorm:"column:value_metadata;type:jsonb"`
	IsActive    bool           `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"type:timestamptz;not null"`
	CreatedBy   string         `gorm:"type:uuid;not null"`
	UpdatedAt   time.Time      `gorm:"type:timestamptz;not null"`
	UpdatedBy   *string        `gorm:"type:uuid"`
}

func (ListValue) TableName() string { return "list_values" }

type CustomField struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	EntityID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_custom_fields_entity_key,priority:1"`
	Key          string    `gorm:"column:field_key;type:text;not null;uniqueIndex:uq_custom_fields_entity_key,priority:2"`
	Label        *string   `gorm:"column:field_label;type:text"`
	Value        *string   `gorm:"column:field_value;type:text"`
	Type         string    `gorm:"column:field_type;type:text;not null"`
	Category     *string   `gorm:"column:field_category;type:text;index:idx_custom_fields_category"`
	DisplayOrder int       `gorm:"not null"`
	IsSensitive  bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null"`
	CreatedBy    string    `gorm:"type:uuid;not null"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null"`
	UpdatedBy    *string   `gorm:"type:uuid"`
}

func (CustomField) TableName() string { return "entity_custom_fields" }
