package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrganizationRelationship struct {
	ID                      string         `gorm:"type:uuid;primaryKey"`
	PrimaryOrganizationID   string         `gorm:"type:uuid;not null;index:idx_org_rel_primary"`
	RelatedOrganizationID   string         `gorm:"type:uuid;not null;index:idx_org_rel_related"`
	RelationshipType        string         `gorm:"type:text;not null;index:idx_org_rel_type"`
	RelationshipDescription *string        `gorm:"type:text"`
	OwnershipPercentage     *float64       `gorm:"type:numeric(5,2)"`
	EffectiveFrom           time.Time      `gorm:"type:date;not null"`
	EffectiveTo             *time.Time     `gorm:"type:date"`
	IsActive                bool           `gorm:"not null"`
	Verified                bool           `gorm:"not null"`
	VerifiedBy              *string        `gorm:"type:uuid"`
	VerifiedAt              *time.Time     `gorm:"type:timestamptz"`
	VerificationMethod      *string        `gorm:"type:text"`
	Metadata                datatypes.JSON `gorm:"type:jsonb"`
	CreatedBy               string         `gorm:"type:uuid;not null"`
	CreatedAt               time.Time      `gorm:"type:timestamptz;not null"`
	UpdatedAt               time.Time      `gorm:"type:timestamptz;not null"`
	DeletedAt               gorm.DeletedAt `gorm:"type:timestamptz"`
}

func (OrganizationRelationship) TableName() string { return "organization_relationships" }

type IndividualRelationship struct {
	ID                      string         `gorm:"type:uuid;primaryKey"`
	PrimaryIndividualID     string         `gorm:"type:uuid;not null;index:idx_ind_rel_primary"`
	RelatedIndividualID     string         `gorm:"type:uuid;not null;index:idx_ind_rel_related"`
	RelationshipType        string         `gorm:"type:text;not null;index:idx_ind_rel_type"`
	RelationshipDescription *string        `gorm:"type:text"`
	OwnershipPercentage     *float64       `gorm:"type:numeric(5,2)"`
	EffectiveFrom           time.Time      `gorm:"type:date;not null"`
	EffectiveTo             *time.Time     `gorm:"type:date"`
	IsActive                bool           `gorm:"not null"`
	Verified                bool           `gorm:"not null"`
	VerifiedBy              *string        `gorm:"type:uuid"`
	VerifiedAt              *time.Time     `gorm:"type:timestamptz"`
	VerificationMethod      *string        `gorm:"type:text"`
	Metadata                datatypes.JSON `gorm:"type:jsonb"`
	CreatedBy               string         `gorm:"type:uuid;not null"`
	CreatedAt               time.Time      `gorm:"type:timestamptz;not null"`
	UpdatedAt               time.Time      `gorm:"type:timestamptz;not null"`
	DeletedAt               gorm.DeletedAt `gorm:"type:timestamptz"`
}

func (IndividualRelationship) TableName() string { return "individual_relationships" }

// OrganizationEntityRelationship is unique per (from, to, type) including
// soft-deleted rows.
type OrganizationEntityRelationship struct {
	ID                  string         `gorm:"type:uuid;primaryKey"`
	FromEntityID        string         `gorm:"type:uuid;not null;uniqueIndex:idx_org_entity_rel_unique,priority:1;index:idx_org_entity_rel_from"`
	ToEntityID          string         `gorm:"type:uuid;not null;uniqueIndex:idx_org_entity_rel_unique,priority:2;index:idx_org_entity_rel_to"`
	RelationshipType    string         `gorm:"type:text;not null;uniqueIndex:idx_org_entity_rel_unique,priority:3;index:idx_org_entity_rel_type"`
	Description         *string        `gorm:"type:text"`
	OwnershipPercentage *float64       `gorm:"type:numeric(5,2)"`
	EffectiveFrom       time.Time      `gorm:"type:date;not null"`
	EffectiveTo         *time.Time     `gorm:"type:date"`
	AdditionalDetails   datatypes.JSON `gorm:"type:jsonb"`
	IsActive            bool           `gorm:"not null"`
	Verified            bool           `gorm:"not null"`
	VerifiedBy          *string        `gorm:"type:uuid"`
	VerifiedAt          *time.Time     `gorm:"type:timestamptz"`
	VerificationMethod  *string        `gorm:"type:text"`
	CreatedBy           string         `gorm:"type:uuid;not null"`
	CreatedAt           time.Time      `gorm:"type:timestamptz;not null"`
	UpdatedAt           time.Time      `gorm:"type:timestamptz;not null"`
	DeletedAt           gorm.DeletedAt `gorm:"type:timestamptz"`
}

func (OrganizationEntityRelationship) TableName() string { return "organization_entity_relationships" }
