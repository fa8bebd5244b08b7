package models

import (
	"time"

	"gorm.io/datatypes"
)

type ScreeningAnalysis struct {
	ID              string         `gorm:"type:uuid;primaryKey"`
	EntityID        string         `gorm:"type:uuid;not null;index:idx_screening_entity_id"`
	ScreeningDate   time.Time      `gorm:"type:timestamptz;not null;index:idx_screening_date"`
	ScreeningSource string         `gorm:"type:text;not null"`
	MatchedRecords  datatypes.JSON `gorm:"type:jsonb"`
	BestMatchScore  *float64       `gorm:"type:numeric(5,2);check:chk_screening_best_match_score,best_match_score IS NULL OR (best_match_score >= 0 AND best_match_score <= 100)"`
	ScreeningStatus string         `gorm:"type:text;not null"`
	ReviewerID      *string        `gorm:"type:uuid"`
	CreatedAt       time.Time      `gorm:"type:timestamptz;not null"`
	CreatedBy       string         `gorm:"type:uuid;not null"`
}

func (ScreeningAnalysis) TableName() string { return "screening_analysis" }

type RiskAnalysis struct {
	ID                string         `gorm:"type:uuid;primaryKey"`
	EntityID          string         `gorm:"type:uuid;not null;index:idx_risk_entity_id"`
	AssessmentDate    time.Time      `gorm:"type:timestamptz;not null;index:idx_risk_assessment_date"`
	RiskLevel         string         `gorm:"type:text;not null"`
	RiskScore         *float64       `gorm:"type:numeric(5,2);check:chk_risk_score,risk_score IS NULL OR (risk_score >= 0 AND risk_score <= 100)"`
	RiskFactors       datatypes.JSON `gorm:"type:jsonb"`
	MitigationActions datatypes.JSON `gorm:"type:jsonb"`
	AnalystID         *string        `gorm:"type:uuid"`
	CreatedAt         time.Time      `gorm:"type:timestamptz;not null"`
	CreatedBy         string         `gorm:"type:uuid;not null"`
}

func (RiskAnalysis) TableName() string { return "risk_analysis" }
