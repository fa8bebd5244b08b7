package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/kycgraph/internal/domain"
)

type CreateRelationshipInput struct {
	PrimaryID           string
	RelatedID           string
	RelationshipType    domain.RelationshipType
	OwnershipPercentage *float64
	EffectiveFrom       time.Time
	EffectiveTo         *time.Time
	Description         string
	Metadata            json.RawMessage
	// CreateReciprocal also writes the mirrored edge in the same transaction.
	CreateReciprocal bool
}

type RelationshipResult struct {
	Edge       domain.Edge  `json:"edge"`
	Reciprocal *domain.Edge `json:"reciprocal,omitempty"`
}

// RelationshipUsecase manages one plain edge table: organization to
// organization, individual to individual, or entity to entity.
type RelationshipUsecase struct {
	repo     EdgeRepository
	entities EntityRepository
	history  HistoryRepository
	tx       Transactor
	metrics  Metrics
	now      func() time.Time
}

func NewRelationshipUsecase(
	repo EdgeRepository,
	entities EntityRepository,
	history HistoryRepository,
	tx Transactor,
	metrics Metrics,
) *RelationshipUsecase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &RelationshipUsecase{
		repo:     repo,
		entities: entities,
		history:  history,
		tx:       tx,
		metrics:  metrics,
		now:      clock,
	}
}

func (uc *RelationshipUsecase) Kind() domain.EdgeKind {
	return uc.repo.Kind()
}

func (uc *RelationshipUsecase) Create(ctx context.Context, actor domain.Actor, in CreateRelationshipInput) (RelationshipResult, error) {
	ctx, span := tracer.Start(ctx, "Relationship.Usecase.Create")
	defer span.End()

	kind := uc.repo.Kind()
	span.SetAttributes(attribute.String("kind", string(kind)))

	if err := actor.Validate(); err != nil {
		return RelationshipResult{}, err
	}

	now := uc.now()
	edge, err := domain.NewEdge(domain.EdgeInput{
		Kind:                kind,
		PrimaryID:           in.PrimaryID,
		RelatedID:           in.RelatedID,
		RelationshipType:    in.RelationshipType,
		OwnershipPercentage: in.OwnershipPercentage,
		EffectiveFrom:       in.EffectiveFrom,
		EffectiveTo:         in.EffectiveTo,
		Description:         in.Description,
		Metadata:            in.Metadata,
		CreatedBy:           actor.UserID,
	}, now)
	if err != nil {
		return RelationshipResult{}, err
	}

	var mirror *domain.Edge
	if in.CreateReciprocal {
		rt, ok := domain.ReciprocalType(kind, edge.RelationshipType)
		if !ok {
			return RelationshipResult{}, domain.Invalid("createReciprocal", "relationship type "+string(edge.RelationshipType)+" has no reciprocal")
		}
		m := edge
		m.PrimaryID, m.RelatedID = edge.RelatedID, edge.PrimaryID
		m.RelationshipType = rt
		mirror = &m
	}

	wantPrimary, wantRelated := kind.Endpoints()
	var result RelationshipResult
	err = uc.tx.Do(ctx, func(ctx context.Context) error {
		err := lockEndpoints(ctx, uc.entities, actor,
			endpoint{field: "primaryId", id: edge.PrimaryID, want: wantPrimary},
			endpoint{field: "relatedId", id: edge.RelatedID, want: wantRelated},
		)
		if err != nil {
			return err
		}

		created, err := uc.repo.Create(ctx, edge)
		if err != nil {
			return err
		}
		result.Edge = created
		entries := edgeHistory(created, actor, domain.ChangeCreated, now, "relationship created")

		if mirror != nil {
			reciprocal, err := uc.repo.Create(ctx, *mirror)
			if err != nil {
				return err
			}
			result.Reciprocal = &reciprocal
			entries = append(entries, edgeHistory(reciprocal, actor, domain.ChangeCreated, now, "reciprocal relationship created")...)
		}

		return uc.history.Append(ctx, entries...)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			uc.metrics.Conflict(kind)
		}
		span.RecordError(errors.Wrap(err, "RelationshipUsecase.Create"))
		return RelationshipResult{}, err
	}

	uc.metrics.EdgeCreated(kind)
	if result.Reciprocal != nil {
		uc.metrics.EdgeCreated(kind)
	}
	return result, nil
}

// Get returns an edge visible to the actor's tenant.
func (uc *RelationshipUsecase) Get(ctx context.Context, actor domain.Actor, id string) (domain.Edge, error) {
	ctx, span := tracer.Start(ctx, "Relationship.Usecase.Get")
	defer span.End()

	e, err := uc.repo.Get(ctx, id)
	if err != nil {
		return domain.Edge{}, err
	}
	if err := ownedBy(ctx, uc.entities, actor, e.PrimaryID); err != nil {
		return domain.Edge{}, domain.NotFoundError{Resource: "relationship"}
	}
	return e, nil
}

// Verify marks the edge verified by the actor. Verifying again refreshes the
// verifier and timestamp.
func (uc *RelationshipUsecase) Verify(ctx context.Context, actor domain.Actor, id, method string) (domain.Edge, error) {
	ctx, span := tracer.Start(ctx, "Relationship.Usecase.Verify")
	defer span.End()

	return uc.mutate(ctx, actor, id, domain.ChangeVerified, "relationship verified", func(e domain.Edge, now time.Time) (domain.Edge, error) {
		return domain.MarkVerified(e, actor.UserID, method, now), nil
	})
}

// Retire ends the edge on effectiveTo and deactivates it.
func (uc *RelationshipUsecase) Retire(ctx context.Context, actor domain.Actor, id string, effectiveTo time.Time) (domain.Edge, error) {
	ctx, span := tracer.Start(ctx, "Relationship.Usecase.Retire")
	defer span.End()

	return uc.mutate(ctx, actor, id, domain.ChangeRetired, "relationship retired", func(e domain.Edge, now time.Time) (domain.Edge, error) {
		if effectiveTo.IsZero() {
			effectiveTo = now
		}
		return domain.Retire(e, effectiveTo, now)
	})
}

func (uc *RelationshipUsecase) mutate(
	ctx context.Context,
	actor domain.Actor,
	id string,
	change domain.ChangeType,
	description string,
	apply func(domain.Edge, time.Time) (domain.Edge, error),
) (domain.Edge, error) {
	if err := actor.Validate(); err != nil {
		return domain.Edge{}, err
	}

	var updated domain.Edge
	err := uc.tx.Do(ctx, func(ctx context.Context) error {
		current, err := uc.Get(ctx, actor, id)
		if err != nil {
			return err
		}
		now := uc.now()
		updated, err = apply(current, now)
		if err != nil {
			return err
		}
		if err := uc.repo.Update(ctx, updated, current.UpdatedAt); err != nil {
			return err
		}
		return uc.history.Append(ctx, edgeHistory(updated, actor, change, now, description)...)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			uc.metrics.Conflict(uc.repo.Kind())
		}
		return domain.Edge{}, err
	}
	return updated, nil
}

// Delete soft-deletes the edge; the row stays for audit.
func (uc *RelationshipUsecase) Delete(ctx context.Context, actor domain.Actor, id string) error {
	ctx, span := tracer.Start(ctx, "Relationship.Usecase.Delete")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return err
	}
	return uc.tx.Do(ctx, func(ctx context.Context) error {
		e, err := uc.Get(ctx, actor, id)
		if err != nil {
			return err
		}
		if err := uc.repo.SoftDelete(ctx, id); err != nil {
			return err
		}
		return uc.history.Append(ctx, edgeHistory(e, actor, domain.ChangeDeleted, uc.now(), "relationship deleted")...)
	})
}

func (uc *RelationshipUsecase) Find(ctx context.Context, actor domain.Actor, f domain.RelationshipFilter, p domain.Pagination) (domain.Page[domain.Edge], error) {
	ctx, span := tracer.Start(ctx, "Relationship.Usecase.Find")
	defer span.End()

	if err := f.Validate(uc.repo.Kind()); err != nil {
		return domain.Page[domain.Edge]{}, err
	}
	f.SubscriberID = actor.SubscriberID

	start := time.Now()
	page, err := uc.repo.Find(ctx, f, p)
	uc.metrics.ObserveQuery(string(uc.repo.Kind())+".find", time.Since(start))
	if err != nil {
		span.RecordError(errors.Wrap(err, "RelationshipUsecase.Find"))
	}
	return page, err
}

// From lists the live edges leaving entityID.
func (uc *RelationshipUsecase) From(ctx context.Context, actor domain.Actor, entityID string, p domain.Pagination) (domain.Page[domain.Edge], error) {
	return uc.Find(ctx, actor, domain.RelationshipFilter{PrimaryIDs: []string{entityID}}, p)
}

// To lists the live edges pointing at entityID.
func (uc *RelationshipUsecase) To(ctx context.Context, actor domain.Actor, entityID string, p domain.Pagination) (domain.Page[domain.Edge], error) {
	return uc.Find(ctx, actor, domain.RelationshipFilter{RelatedIDs: []string{entityID}}, p)
}

// Between lists the edge history linking a and b in either direction,
// including retired edges.
func (uc *RelationshipUsecase) Between(ctx context.Context, actor domain.Actor, a, b string) ([]domain.Edge, error) {
	ctx, span := tracer.Start(ctx, "Relationship.Usecase.Between")
	defer span.End()

	if err := ownedBy(ctx, uc.entities, actor, a); err != nil {
		return nil, err
	}
	if err := ownedBy(ctx, uc.entities, actor, b); err != nil {
		return nil, err
	}
	return uc.repo.ListBetween(ctx, a, b)
}

// Ownership lists the current OWNS edges leaving entityID and the current
// OWNED_BY edges pointing at it.
func (uc *RelationshipUsecase) Ownership(ctx context.Context, actor domain.Actor, entityID string) ([]domain.Edge, error) {
	ctx, span := tracer.Start(ctx, "Relationship.Usecase.Ownership")
	defer span.End()

	if err := ownedBy(ctx, uc.entities, actor, entityID); err != nil {
		return nil, err
	}
	return uc.repo.ListOwnership(ctx, entityID)
}
