package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/kycgraph/internal/domain"
)

type ScreeningInput struct {
	EntityID        string
	Provider        string
	MatchedRecords  json.RawMessage
	BestMatchScore  *float64
	ScreeningStatus domain.ScreeningStatus
	ReviewedBy      *string
}

type RiskInput struct {
	EntityID          string
	RiskLevel         domain.RiskLevel
	RiskScore         *float64
	RiskFactors       json.RawMessage
	MitigationActions json.RawMessage
	AnalystID         *string
}

// AnalysisUsecase stores screening and risk provider results. Payloads are
// opaque; only their JSON syntax is checked.
type AnalysisUsecase struct {
	repo     AnalysisRepository
	entities EntityRepository
	history  HistoryRepository
	tx       Transactor
	now      func() time.Time
}

func NewAnalysisUsecase(repo AnalysisRepository, entities EntityRepository, history HistoryRepository, tx Transactor) *AnalysisUsecase {
	return &AnalysisUsecase{repo: repo, entities: entities, history: history, tx: tx, now: clock}
}

func validJSON(field string, raw json.RawMessage) error {
	if len(raw) > 0 && !json.Valid(raw) {
		return domain.Invalid(field, "must be valid JSON")
	}
	return nil
}

func (uc *AnalysisUsecase) RecordScreening(ctx context.Context, actor domain.Actor, in ScreeningInput) (domain.ScreeningAnalysis, error) {
	ctx, span := tracer.Start(ctx, "Analysis.Usecase.RecordScreening")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return domain.ScreeningAnalysis{}, err
	}
	if in.Provider == "" {
		return domain.ScreeningAnalysis{}, domain.Invalid("provider", "required")
	}
	if !in.ScreeningStatus.Valid() {
		return domain.ScreeningAnalysis{}, domain.Invalid("screeningStatus", "unknown value "+string(in.ScreeningStatus))
	}
	if err := domain.ValidatePercentage("bestMatchScore", in.BestMatchScore); err != nil {
		return domain.ScreeningAnalysis{}, err
	}
	if err := validJSON("matchedRecords", in.MatchedRecords); err != nil {
		return domain.ScreeningAnalysis{}, err
	}

	now := uc.now()
	var created domain.ScreeningAnalysis
	err := uc.tx.Do(ctx, func(ctx context.Context) error {
		if err := ownedBy(ctx, uc.entities, actor, in.EntityID); err != nil {
			return err
		}
		var err error
		created, err = uc.repo.CreateScreening(ctx, domain.ScreeningAnalysis{
			EntityID:        in.EntityID,
			Provider:        in.Provider,
			MatchedRecords:  in.MatchedRecords,
			BestMatchScore:  in.BestMatchScore,
			ScreeningStatus: in.ScreeningStatus,
			ReviewedBy:      in.ReviewedBy,
			CreatedBy:       actor.UserID,
			CreatedAt:       now,
		})
		if err != nil {
			return err
		}
		if err := uc.entities.RecordScreening(ctx, in.EntityID, in.ScreeningStatus, actor.UserID, now); err != nil {
			return err
		}
		return uc.history.Append(ctx, historyEntry(in.EntityID, actor, domain.ChangeScreened, now, "screening recorded", map[string]any{
			"provider":        in.Provider,
			"screeningStatus": in.ScreeningStatus,
		}))
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "AnalysisUsecase.RecordScreening"))
		return domain.ScreeningAnalysis{}, err
	}
	return created, nil
}

func (uc *AnalysisUsecase) RecordRisk(ctx context.Context, actor domain.Actor, in RiskInput) (domain.RiskAnalysis, error) {
	ctx, span := tracer.Start(ctx, "Analysis.Usecase.RecordRisk")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return domain.RiskAnalysis{}, err
	}
	if !in.RiskLevel.Valid() {
		return domain.RiskAnalysis{}, domain.Invalid("riskLevel", "unknown value "+string(in.RiskLevel))
	}
	if err := domain.ValidatePercentage("riskScore", in.RiskScore); err != nil {
		return domain.RiskAnalysis{}, err
	}
	if err := validJSON("riskFactors", in.RiskFactors); err != nil {
		return domain.RiskAnalysis{}, err
	}
	if err := validJSON("mitigationActions", in.MitigationActions); err != nil {
		return domain.RiskAnalysis{}, err
	}

	now := uc.now()
	var created domain.RiskAnalysis
	err := uc.tx.Do(ctx, func(ctx context.Context) error {
		if err := ownedBy(ctx, uc.entities, actor, in.EntityID); err != nil {
			return err
		}
		var err error
		created, err = uc.repo.CreateRisk(ctx, domain.RiskAnalysis{
			EntityID:          in.EntityID,
			RiskLevel:         in.RiskLevel,
			RiskScore:         in.RiskScore,
			RiskFactors:       in.RiskFactors,
			MitigationActions: in.MitigationActions,
			AnalystID:         in.AnalystID,
			CreatedBy:         actor.UserID,
			CreatedAt:         now,
		})
		if err != nil {
			return err
		}
		if err := uc.entities.RecordRisk(ctx, in.EntityID, in.RiskLevel, actor.UserID, now); err != nil {
			return err
		}
		return uc.history.Append(ctx, historyEntry(in.EntityID, actor, domain.ChangeRiskUpdated, now, "risk assessment recorded", map[string]any{
			"riskLevel": in.RiskLevel,
			"riskScore": in.RiskScore,
		}))
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "AnalysisUsecase.RecordRisk"))
		return domain.RiskAnalysis{}, err
	}
	return created, nil
}

func (uc *AnalysisUsecase) Screenings(ctx context.Context, actor domain.Actor, entityID string) ([]domain.ScreeningAnalysis, error) {
	if err := ownedBy(ctx, uc.entities, actor, entityID); err != nil {
		return nil, err
	}
	return uc.repo.ListScreenings(ctx, entityID)
}

func (uc *AnalysisUsecase) Risks(ctx context.Context, actor domain.Actor, entityID string) ([]domain.RiskAnalysis, error) {
	if err := ownedBy(ctx, uc.entities, actor, entityID); err != nil {
		return nil, err
	}
	return uc.repo.ListRisks(ctx, entityID)
}
