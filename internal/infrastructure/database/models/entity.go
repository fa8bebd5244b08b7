package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Entity struct {
	ID                  string         `gorm:"type:uuid;primaryKey"`
	SubscriberID        string         `gorm:"type:uuid;not null;index:idx_entities_subscriber_id"`
	EntityType          string         `gorm:"type:text;not null;index:idx_entities_entity_type"`
	Name                string         `gorm:"type:text;not null"`
	ReferenceNumber     string         `gorm:"type:text;not null;uniqueIndex"`
	Status              string         `gorm:"type:text;not null;default:PENDING;index:idx_entities_status"`
	RiskLevel           *string        `gorm:"type:text"`
	ScreeningStatus     string         `gorm:"type:text;not null;default:pending"`
	OnboardingCompleted bool           `gorm:"not null"`
	OnboardedAt         *time.Time     `gorm:"type:timestamptz"`
	LastScreenedAt      *time.Time     `gorm:"type:timestamptz"`
	LastRiskAssessedAt  *time.Time     `gorm:"type:timestamptz"`
	CreatedBy           string         `gorm:"type:uuid;not null"`
	UpdatedBy           *string        `gorm:"type:uuid"`
	CreatedAt           time.Time      `gorm:"type:timestamptz;not null"`
	UpdatedAt           time.Time      `gorm:"type:timestamptz;not null"`
	DeletedAt           gorm.DeletedAt `gorm:"type:timestamptz;index:idx_entities_deleted_at"`
	IsActive            bool           `gorm:"not null"`

	Individual   *IndividualEntity   `gorm:"foreignKey:EntityID;references:ID;constraint:OnDelete:CASCADE;"`
	Organization *OrganizationEntity `gorm:"foreignKey:EntityID;references:ID;constraint:OnDelete:CASCADE;"`
}

func (Entity) TableName() string { return "entities" }

type IndividualEntity struct {
	EntityID           string                      `gorm:"type:uuid;primaryKey"`
	DateOfBirth        *time.Time                  `gorm:"type:date"`
	Nationality        datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
	CountryOfResidence *string                     `gorm:"type:text"`
	Gender             *string                     `gorm:"type:text"`
	Occupation         *string                     `gorm:"type:text"`
	NationalID         *string                     `gorm:"type:text"`
	IDType             *string                     `gorm:"type:text"`
	IDExpiryDate       *time.Time                  `gorm:"type:date"`
	SourceOfIncome     *string                     `gorm:"type:text"`
	IsPEP              bool                        `gorm:"column:is_pep;not null"`
	HasCriminalRecord  bool                        `gorm:"not null"`
	CreatedAt          time.Time                   `gorm:"type:timestamptz;not null"`
	UpdatedAt          time.Time                   `gorm:"type:timestamptz;not null"`
}

func (IndividualEntity) TableName() string { return "individual_entities" }

type OrganizationEntity struct {
	EntityID                     string     `gorm:"type:uuid;primaryKey"`
	LegalName                    string     `gorm:"type:text;not null"`
	TradeName                    *string    `gorm:"type:text"`
	CountryOfIncorporation       *string    `gorm:"type:text;index:idx_organization_entities_country"`
	DateOfIncorporation          *time.Time `gorm:"type:date"`
	OrganizationType             *string    `gorm:"type:text"`
	LegalStructure               *string    `gorm:"type:text"`
	TaxIdentificationNumber      *string    `gorm:"type:text"`
	CommercialRegistrationNumber *string    `gorm:"type:text"`
	IndustrySector               *string    `gorm:"type:text"`
	NumberOfEmployees            *int       `gorm:"type:integer"`
	AnnualRevenue                *float64   `gorm:"type:numeric(18,2)"`
	CreatedAt                    time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt                    time.Time  `gorm:"type:timestamptz;not null"`
}

func (OrganizationEntity) TableName() string { return "organization_entities" }
