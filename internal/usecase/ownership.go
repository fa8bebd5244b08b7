package usecase

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/kycgraph/internal/domain"
)

// OwnershipUsecase answers beneficial-ownership questions about an
// organization from its associations.
type OwnershipUsecase struct {
	assocs     AssociationRepository
	entities   EntityRepository
	cache      SummaryCache
	metrics    Metrics
	thresholds domain.ControlThresholds
	now        func() time.Time
}

func NewOwnershipUsecase(
	assocs AssociationRepository,
	entities EntityRepository,
	cache SummaryCache,
	metrics Metrics,
	thresholds domain.ControlThresholds,
) *OwnershipUsecase {
	if cache == nil {
		cache = nopCache{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &OwnershipUsecase{
		assocs:     assocs,
		entities:   entities,
		cache:      cache,
		metrics:    metrics,
		thresholds: thresholds,
		now:        clock,
	}
}

func (uc *OwnershipUsecase) organization(ctx context.Context, actor domain.Actor, id string) error {
	e, err := uc.entities.Get(ctx, id)
	if err != nil {
		return err
	}
	if e.SubscriberID != actor.SubscriberID {
		return domain.NotFoundError{Resource: "entity"}
	}
	if e.EntityType != domain.EntityTypeOrganization {
		return domain.Invalid("organizationId", "must reference an organization")
	}
	return nil
}

// Summary aggregates the current associations of organizationID. A zero asOf
// means today and is served from the cache when possible.
func (uc *OwnershipUsecase) Summary(ctx context.Context, actor domain.Actor, organizationID string, asOf time.Time) (domain.OwnershipSummary, error) {
	ctx, span := tracer.Start(ctx, "Ownership.Usecase.Summary")
	defer span.End()
	span.SetAttributes(attribute.String("organizationId", organizationID))

	if err := uc.organization(ctx, actor, organizationID); err != nil {
		return domain.OwnershipSummary{}, err
	}

	now := uc.now()
	today := asOf.IsZero()
	if today {
		asOf = domain.Day(now)
		if cached, ok := uc.cache.GetSummary(ctx, organizationID); ok && domain.Day(cached.AsOf).Equal(domain.Day(now)) {
			return cached, nil
		}
	}

	start := time.Now()
	assocs, err := uc.assocs.List(ctx, domain.AssociationFilter{
		SubscriberID:    actor.SubscriberID,
		OrganizationIDs: []string{organizationID},
		Temporal:        domain.TemporalCurrent,
		AsOf:            asOf,
	})
	uc.metrics.ObserveQuery("ownership.summary", time.Since(start))
	if err != nil {
		span.RecordError(errors.Wrap(err, "OwnershipUsecase.Summary"))
		return domain.OwnershipSummary{}, err
	}

	summary := uc.thresholds.SummarizeOwnership(organizationID, assocs, asOf)
	if today {
		uc.cache.SetSummary(ctx, summary)
	}
	return summary, nil
}

// Statistics counts the associations of an organization, an individual, or
// both, including retired ones.
func (uc *OwnershipUsecase) Statistics(ctx context.Context, actor domain.Actor, organizationID, individualID string, asOf time.Time) (domain.AssociationStatistics, error) {
	ctx, span := tracer.Start(ctx, "Ownership.Usecase.Statistics")
	defer span.End()

	if organizationID == "" && individualID == "" {
		return domain.AssociationStatistics{}, domain.Invalid("organizationId", "organizationId or individualId is required")
	}
	f := domain.AssociationFilter{
		Scope:        domain.Scope{IncludeInactive: true},
		SubscriberID: actor.SubscriberID,
	}
	if organizationID != "" {
		if err := uc.organization(ctx, actor, organizationID); err != nil {
			return domain.AssociationStatistics{}, err
		}
		f.OrganizationIDs = []string{organizationID}
	}
	if individualID != "" {
		if err := ownedBy(ctx, uc.entities, actor, individualID); err != nil {
			return domain.AssociationStatistics{}, err
		}
		f.IndividualIDs = []string{individualID}
	}
	if asOf.IsZero() {
		asOf = uc.now()
	}

	start := time.Now()
	assocs, err := uc.assocs.List(ctx, f)
	uc.metrics.ObserveQuery("ownership.statistics", time.Since(start))
	if err != nil {
		span.RecordError(errors.Wrap(err, "OwnershipUsecase.Statistics"))
		return domain.AssociationStatistics{}, err
	}
	return uc.thresholds.Statistics(assocs, asOf), nil
}

// Structure lists current holdings of at least minOwnership percent, largest
// first.
func (uc *OwnershipUsecase) Structure(ctx context.Context, actor domain.Actor, organizationID string, minOwnership float64) ([]domain.AssociationView, error) {
	ctx, span := tracer.Start(ctx, "Ownership.Usecase.Structure")
	defer span.End()

	if err := domain.ValidatePercentage("minOwnership", &minOwnership); err != nil {
		return nil, err
	}
	if err := uc.organization(ctx, actor, organizationID); err != nil {
		return nil, err
	}

	now := uc.now()
	assocs, err := uc.assocs.OwnershipStructure(ctx, organizationID, minOwnership, now)
	if err != nil {
		span.RecordError(errors.Wrap(err, "OwnershipUsecase.Structure"))
		return nil, err
	}
	views := make([]domain.AssociationView, len(assocs))
	for i, a := range assocs {
		views[i] = uc.thresholds.View(a, now)
	}
	return views, nil
}
