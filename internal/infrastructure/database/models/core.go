package models

import (
	"time"
)

type Subscriber struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"type:text;uniqueIndex;not null"`
	Email        string    `gorm:"type:text;uniqueIndex;not null"`
	Password     string    `gorm:"type:text;not null"`
	Type         string    `gorm:"type:text;not null"`
	CompanyName  *string   `gorm:"type:text"`
	Jurisdiction *string   `gorm:"type:text"`
	IsActive     bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null"`
}

func (Subscriber) TableName() string { return "subscribers" }

type SubscriberUser struct {
	ID           string     `gorm:"type:uuid;primaryKey"`
	SubscriberID string     `gorm:"type:uuid;not null;index:idx_subscriber_users_subscriber_id;uniqueIndex:uq_subscriber_users_subscriber_email,priority:1"`
	Name         string     `gorm:"type:text;not null"`
	Email        string     `gorm:"type:text;not null;uniqueIndex:uq_subscriber_users_subscriber_email,priority:2"`
	Role         string     `gorm:"type:text;not null"`
	Password     string     `gorm:"type:text;not null"`
	IsActive     bool       `gorm:"not null"`
	LastLogin    *time.Time `gorm:"type:timestamptz"`
	CreatedAt    time.Time  `gorm:"type:timestamptz;not null"`
	CreatedBy    *string    `gorm:"type:uuid"`
}

func (SubscriberUser) TableName() string { return "subscriber_users" }
