package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/infrastructure/database"
	"github.com/totegamma/kycgraph/internal/infrastructure/database/models"
)

type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) CreateScreening(ctx context.Context, s domain.ScreeningAnalysis) (domain.ScreeningAnalysis, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m := models.ScreeningAnalysis{
		ID:              s.ID,
		EntityID:        s.EntityID,
		ScreeningDate:   s.CreatedAt,
		ScreeningSource: s.Provider,
		MatchedRecords:  datatypes.JSON(s.MatchedRecords),
		BestMatchScore:  s.BestMatchScore,
		ScreeningStatus: string(s.ScreeningStatus),
		ReviewerID:      s.ReviewedBy,
		CreatedAt:       s.CreatedAt,
		CreatedBy:       s.CreatedBy,
	}
	if err := database.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return domain.ScreeningAnalysis{}, translateError(err, "screening analysis")
	}
	return screeningToDomain(m), nil
}

func (r *AnalysisRepository) ListScreenings(ctx context.Context, entityID string) ([]domain.ScreeningAnalysis, error) {
	var rows []models.ScreeningAnalysis
	err := database.Conn(ctx, r.db).
		Where("entity_id = ?", entityID).
		Order("screening_date DESC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "screening analysis")
	}
	out := make([]domain.ScreeningAnalysis, len(rows))
	for i, m := range rows {
		out[i] = screeningToDomain(m)
	}
	return out, nil
}

func (r *AnalysisRepository) CreateRisk(ctx context.Context, a domain.RiskAnalysis) (domain.RiskAnalysis, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m := models.RiskAnalysis{
		ID:                a.ID,
		EntityID:          a.EntityID,
		AssessmentDate:    a.CreatedAt,
		RiskLevel:         string(a.RiskLevel),
		RiskScore:         a.RiskScore,
		RiskFactors:       datatypes.JSON(a.RiskFactors),
		MitigationActions: datatypes.JSON(a.MitigationActions),
		AnalystID:         a.AnalystID,
		CreatedAt:         a.CreatedAt,
		CreatedBy:         a.CreatedBy,
	}
	if err := database.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return domain.RiskAnalysis{}, translateError(err, "risk analysis")
	}
	return riskToDomain(m), nil
}

func (r *AnalysisRepository) ListRisks(ctx context.Context, entityID string) ([]domain.RiskAnalysis, error) {
	var rows []models.RiskAnalysis
	err := database.Conn(ctx, r.db).
		Where("entity_id = ?", entityID).
		Order("assessment_date DESC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "risk analysis")
	}
	out := make([]domain.RiskAnalysis, len(rows))
	for i, m := range rows {
		out[i] = riskToDomain(m)
	}
	return out, nil
}

func screeningToDomain(m models.ScreeningAnalysis) domain.ScreeningAnalysis {
	return domain.ScreeningAnalysis{
		ID:              m.ID,
		EntityID:        m.EntityID,
		Provider:        m.ScreeningSource,
		MatchedRecords:  json.RawMessage(m.MatchedRecords),
		BestMatchScore:  m.BestMatchScore,
		ScreeningStatus: domain.ScreeningStatus(m.ScreeningStatus),
		ReviewedBy:      m.ReviewerID,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

func riskToDomain(m models.RiskAnalysis) domain.RiskAnalysis {
	return domain.RiskAnalysis{
		ID:                m.ID,
		EntityID:          m.EntityID,
		RiskLevel:         domain.RiskLevel(m.RiskLevel),
		RiskScore:         m.RiskScore,
		RiskFactors:       json.RawMessage(m.RiskFactors),
		MitigationActions: json.RawMessage(m.MitigationActions),
		AnalystID:         m.AnalystID,
		CreatedBy:         m.CreatedBy,
		CreatedAt:         m.CreatedAt,
	}
}
