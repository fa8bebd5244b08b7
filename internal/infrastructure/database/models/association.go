package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrganizationAssociation struct {
	ID                           string         `gorm:"type:uuid;primaryKey"`
	OrganizationID               string         `gorm:"type:uuid;not null;index:idx_org_assoc_organization"`
	IndividualID                 string         `gorm:"type:uuid;not null;index:idx_org_assoc_individual"`
	RelationshipType             string         `gorm:"type:text;not null;index:idx_org_assoc_type"`
	OwnershipType                *string        `gorm:"type:text"`
	OwnershipPercentage          *float64       `gorm:"type:numeric(5,2)"`
	VotingRightsPercentage       *float64       `gorm:"type:numeric(5,2)"`
	PositionTitle                *string        `gorm:"type:text"`
	AssociationDescription       *string        `gorm:"type:text"`
	HasSigningAuthority          bool           `gorm:"not null"`
	IsBeneficialOwner            bool           `gorm:"not null"`
	IsUltimateBeneficialOwner    bool           `gorm:"not null"`
	IsKeyManagementPersonnel     bool           `gorm:"not null"`
	IsAuthorizedSignatory        bool           `gorm:"not null"`
	IsPEP                        bool           `gorm:"column:is_pep;not null"`
	IsSanctionsRelated           bool           `gorm:"not null"`
	RequiresEnhancedDueDiligence bool           `gorm:"not null"`
	RiskLevel                    *string        `gorm:"type:text"`
	RiskFactors                  pq.StringArray `gorm:"type:text[]"`
	NumberOfShares               *int64         `gorm:"type:bigint"`
	ShareClass                   *string        `gorm:"type:text"`
	Notes                        *string        `gorm:"type:text"`
	LastReviewedAt               *time.Time     `gorm:"type:timestamptz"`
	ReviewedBy                   *string        `gorm:"type:uuid"`
	NextReviewDate               *time.Time     `gorm:"type:date;index:idx_org_assoc_next_review"`
	EffectiveFrom                time.Time      `gorm:"type:date;not null"`
	EffectiveTo                  *time.Time     `gorm:"type:date"`
	IsActive                     bool           `gorm:"not null"`
	Verified                     bool           `gorm:"not null"`
	VerifiedBy                   *string        `gorm:"type:uuid"`
	VerifiedAt                   *time.Time     `gorm:"type:timestamptz"`
	VerificationMethod           *string        `gorm:"type:text"`
	Metadata                     datatypes.JSON `gorm:"type:jsonb"`
	CreatedBy                    string         `gorm:"type:uuid;not null"`
	CreatedAt                    time.Time      `gorm:"type:timestamptz;not null"`
	UpdatedAt                    time.Time      `gorm:"type:timestamptz;not null"`
	DeletedAt                    gorm.DeletedAt `gorm:"type:timestamptz"`
}

func (OrganizationAssociation) TableName() string { return "organization_associations" }
