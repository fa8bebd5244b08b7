package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/totegamma/kycgraph/internal/domain"
)

type OnboardInput struct {
	EntityType      domain.EntityType
	Name            string
	ReferenceNumber string
	RiskLevel       *domain.RiskLevel
	Individual      *domain.IndividualProfile
	Organization    *domain.OrganizationProfile
}

type EntityUsecase struct {
	repo    EntityRepository
	history HistoryRepository
	tx      Transactor
	now     func() time.Time
}

func NewEntityUsecase(repo EntityRepository, history HistoryRepository, tx Transactor) *EntityUsecase {
	return &EntityUsecase{repo: repo, history: history, tx: tx, now: clock}
}

// referenceNumber derives a readable unique reference like "ORG-1A2B3C4D".
func referenceNumber(t domain.EntityType) string {
	prefix := "IND"
	if t == domain.EntityTypeOrganization {
		prefix = "ORG"
	}
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Onboard registers an individual or organization for the actor's tenant.
func (uc *EntityUsecase) Onboard(ctx context.Context, actor domain.Actor, in OnboardInput) (domain.Entity, error) {
	ctx, span := tracer.Start(ctx, "Entity.Usecase.Onboard")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return domain.Entity{}, err
	}
	ref := in.ReferenceNumber
	if ref == "" {
		ref = referenceNumber(in.EntityType)
	}

	now := uc.now()
	entity, err := domain.NewEntity(domain.EntityInput{
		SubscriberID:    actor.SubscriberID,
		EntityType:      in.EntityType,
		Name:            in.Name,
		ReferenceNumber: ref,
		RiskLevel:       in.RiskLevel,
		CreatedBy:       actor.UserID,
		Individual:      in.Individual,
		Organization:    in.Organization,
	}, now)
	if err != nil {
		return domain.Entity{}, err
	}

	var created domain.Entity
	err = uc.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = uc.repo.Create(ctx, entity)
		if err != nil {
			return err
		}
		return uc.history.Append(ctx, historyEntry(created.ID, actor, domain.ChangeCreated, now, "entity onboarded", map[string]any{
			"entityType":      created.EntityType,
			"name":            created.Name,
			"referenceNumber": created.ReferenceNumber,
		}))
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "EntityUsecase.Onboard"))
		return domain.Entity{}, err
	}
	return created, nil
}

func (uc *EntityUsecase) Get(ctx context.Context, actor domain.Actor, id string) (domain.Entity, error) {
	ctx, span := tracer.Start(ctx, "Entity.Usecase.Get")
	defer span.End()

	e, err := uc.repo.Get(ctx, id)
	if err != nil {
		return domain.Entity{}, err
	}
	if e.SubscriberID != actor.SubscriberID {
		return domain.Entity{}, domain.NotFoundError{Resource: "entity"}
	}
	return e, nil
}

func (uc *EntityUsecase) Find(ctx context.Context, actor domain.Actor, f domain.EntityFilter, p domain.Pagination) (domain.Page[domain.Entity], error) {
	ctx, span := tracer.Start(ctx, "Entity.Usecase.Find")
	defer span.End()

	if err := f.Validate(); err != nil {
		return domain.Page[domain.Entity]{}, err
	}
	f.SubscriberID = actor.SubscriberID
	return uc.repo.Find(ctx, f, p)
}

// Delete soft-deletes the entity. Its edges stay in place for audit and
// drop out of default queries through the endpoint checks.
func (uc *EntityUsecase) Delete(ctx context.Context, actor domain.Actor, id string) error {
	ctx, span := tracer.Start(ctx, "Entity.Usecase.Delete")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return err
	}
	return uc.tx.Do(ctx, func(ctx context.Context) error {
		if _, err := uc.Get(ctx, actor, id); err != nil {
			return err
		}
		now := uc.now()
		if err := uc.history.Append(ctx, historyEntry(id, actor, domain.ChangeDeleted, now, "entity deleted", nil)); err != nil {
			return err
		}
		return uc.repo.SoftDelete(ctx, id, actor.UserID, now)
	})
}
