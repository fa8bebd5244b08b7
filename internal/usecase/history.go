package usecase

import (
	"context"

	"github.com/totegamma/kycgraph/internal/domain"
)

type HistoryUsecase struct {
	repo     HistoryRepository
	entities EntityRepository
}

func NewHistoryUsecase(repo HistoryRepository, entities EntityRepository) *HistoryUsecase {
	return &HistoryUsecase{repo: repo, entities: entities}
}

// List pages through the audit trail of one entity.
func (uc *HistoryUsecase) List(ctx context.Context, actor domain.Actor, entityID string, p domain.Pagination) (domain.Page[domain.HistoryEntry], error) {
	ctx, span := tracer.Start(ctx, "History.Usecase.List")
	defer span.End()

	if err := ownedBy(ctx, uc.entities, actor, entityID); err != nil {
		return domain.Page[domain.HistoryEntry]{}, err
	}
	return uc.repo.List(ctx, entityID, p)
}
