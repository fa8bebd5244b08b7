package usecase

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/kycgraph/internal/domain"
)

type UpdateRiskInput struct {
	RiskLevel                    domain.RiskLevel
	RiskFactors                  []string
	IsPEP                        *bool
	IsSanctionsRelated           *bool
	RequiresEnhancedDueDiligence *bool
	Notes                        *string
}

// AssociationUsecase manages the links between organizations and the
// individuals who own, control or represent them.
type AssociationUsecase struct {
	repo       AssociationRepository
	entities   EntityRepository
	history    HistoryRepository
	tx         Transactor
	cache      SummaryCache
	metrics    Metrics
	thresholds domain.ControlThresholds
	now        func() time.Time
}

func NewAssociationUsecase(
	repo AssociationRepository,
	entities EntityRepository,
	history HistoryRepository,
	tx Transactor,
	cache SummaryCache,
	metrics Metrics,
	thresholds domain.ControlThresholds,
) *AssociationUsecase {
	if cache == nil {
		cache = nopCache{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &AssociationUsecase{
		repo:       repo,
		entities:   entities,
		history:    history,
		tx:         tx,
		cache:      cache,
		metrics:    metrics,
		thresholds: thresholds,
		now:        clock,
	}
}

func (uc *AssociationUsecase) Create(ctx context.Context, actor domain.Actor, in domain.AssociationInput) (domain.Association, error) {
	ctx, span := tracer.Start(ctx, "Association.Usecase.Create")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return domain.Association{}, err
	}
	in.CreatedBy = actor.UserID

	now := uc.now()
	assoc, err := domain.NewAssociation(in, now)
	if err != nil {
		return domain.Association{}, err
	}

	var created domain.Association
	err = uc.tx.Do(ctx, func(ctx context.Context) error {
		err := lockEndpoints(ctx, uc.entities, actor,
			endpoint{field: "organizationId", id: assoc.OrganizationID(), want: domain.EntityTypeOrganization},
			endpoint{field: "individualId", id: assoc.IndividualID(), want: domain.EntityTypeIndividual},
		)
		if err != nil {
			return err
		}
		created, err = uc.repo.Create(ctx, assoc)
		if err != nil {
			return err
		}
		return uc.history.Append(ctx, edgeHistory(created.Edge, actor, domain.ChangeCreated, now, "association created")...)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			uc.metrics.Conflict(domain.KindOrganizationAssociation)
		}
		span.RecordError(errors.Wrap(err, "AssociationUsecase.Create"))
		return domain.Association{}, err
	}

	uc.cache.Invalidate(ctx, created.OrganizationID())
	uc.metrics.EdgeCreated(domain.KindOrganizationAssociation)
	return created, nil
}

func (uc *AssociationUsecase) Get(ctx context.Context, actor domain.Actor, id string) (domain.Association, error) {
	ctx, span := tracer.Start(ctx, "Association.Usecase.Get")
	defer span.End()

	a, err := uc.repo.Get(ctx, id)
	if err != nil {
		return domain.Association{}, err
	}
	if err := ownedBy(ctx, uc.entities, actor, a.OrganizationID()); err != nil {
		return domain.Association{}, domain.NotFoundError{Resource: "organization association"}
	}
	return a, nil
}

// View returns the association with its derived classification at asOf.
func (uc *AssociationUsecase) View(ctx context.Context, actor domain.Actor, id string, asOf time.Time) (domain.AssociationView, error) {
	a, err := uc.Get(ctx, actor, id)
	if err != nil {
		return domain.AssociationView{}, err
	}
	if asOf.IsZero() {
		asOf = uc.now()
	}
	return uc.thresholds.View(a, asOf), nil
}

func (uc *AssociationUsecase) Verify(ctx context.Context, actor domain.Actor, id, method string) (domain.Association, error) {
	ctx, span := tracer.Start(ctx, "Association.Usecase.Verify")
	defer span.End()

	return uc.mutate(ctx, actor, id, domain.ChangeVerified, "association verified", func(a domain.Association, now time.Time) (domain.Association, error) {
		a.Edge = domain.MarkVerified(a.Edge, actor.UserID, method, now)
		return a, nil
	})
}

// Review stamps a compliance review and schedules the next one.
func (uc *AssociationUsecase) Review(ctx context.Context, actor domain.Actor, id string, next *time.Time) (domain.Association, error) {
	ctx, span := tracer.Start(ctx, "Association.Usecase.Review")
	defer span.End()

	return uc.mutate(ctx, actor, id, domain.ChangeReviewed, "association reviewed", func(a domain.Association, now time.Time) (domain.Association, error) {
		return domain.MarkReviewed(a, actor.UserID, next, now)
	})
}

func (uc *AssociationUsecase) UpdateRisk(ctx context.Context, actor domain.Actor, id string, in UpdateRiskInput) (domain.Association, error) {
	ctx, span := tracer.Start(ctx, "Association.Usecase.UpdateRisk")
	defer span.End()

	if !in.RiskLevel.Valid() {
		return domain.Association{}, domain.Invalid("riskLevel", "unknown value "+string(in.RiskLevel))
	}
	return uc.mutate(ctx, actor, id, domain.ChangeRiskUpdated, "association risk updated", func(a domain.Association, now time.Time) (domain.Association, error) {
		level := in.RiskLevel
		a.RiskLevel = &level
		a.RiskFactors = in.RiskFactors
		if in.IsPEP != nil {
			a.IsPEP = *in.IsPEP
		}
		if in.IsSanctionsRelated != nil {
			a.IsSanctionsRelated = *in.IsSanctionsRelated
		}
		if in.RequiresEnhancedDueDiligence != nil {
			a.RequiresEnhancedDueDiligence = *in.RequiresEnhancedDueDiligence
		}
		if in.Notes != nil {
			a.Notes = *in.Notes
		}
		a.UpdatedAt = now
		return a, nil
	})
}

func (uc *AssociationUsecase) Retire(ctx context.Context, actor domain.Actor, id string, effectiveTo time.Time) (domain.Association, error) {
	ctx, span := tracer.Start(ctx, "Association.Usecase.Retire")
	defer span.End()

	return uc.mutate(ctx, actor, id, domain.ChangeRetired, "association retired", func(a domain.Association, now time.Time) (domain.Association, error) {
		if effectiveTo.IsZero() {
			effectiveTo = now
		}
		edge, err := domain.Retire(a.Edge, effectiveTo, now)
		if err != nil {
			return domain.Association{}, err
		}
		a.Edge = edge
		return a, nil
	})
}

func (uc *AssociationUsecase) mutate(
	ctx context.Context,
	actor domain.Actor,
	id string,
	change domain.ChangeType,
	description string,
	apply func(domain.Association, time.Time) (domain.Association, error),
) (domain.Association, error) {
	if err := actor.Validate(); err != nil {
		return domain.Association{}, err
	}

	var updated domain.Association
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
		return uc.history.Append(ctx, edgeHistory(updated.Edge, actor, change, now, description)...)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			uc.metrics.Conflict(domain.KindOrganizationAssociation)
		}
		return domain.Association{}, err
	}
	uc.cache.Invalidate(ctx, updated.OrganizationID())
	return updated, nil
}

func (uc *AssociationUsecase) Delete(ctx context.Context, actor domain.Actor, id string) error {
	ctx, span := tracer.Start(ctx, "Association.Usecase.Delete")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return err
	}
	var orgID string
	err := uc.tx.Do(ctx, func(ctx context.Context) error {
		a, err := uc.Get(ctx, actor, id)
		if err != nil {
			return err
		}
		orgID = a.OrganizationID()
		if err := uc.repo.SoftDelete(ctx, id); err != nil {
			return err
		}
		return uc.history.Append(ctx, edgeHistory(a.Edge, actor, domain.ChangeDeleted, uc.now(), "association deleted")...)
	})
	if err != nil {
		return err
	}
	uc.cache.Invalidate(ctx, orgID)
	return nil
}

func (uc *AssociationUsecase) Find(ctx context.Context, actor domain.Actor, f domain.AssociationFilter, p domain.Pagination) (domain.Page[domain.Association], error) {
	ctx, span := tracer.Start(ctx, "Association.Usecase.Find")
	defer span.End()

	if err := f.Validate(); err != nil {
		return domain.Page[domain.Association]{}, err
	}
	f.SubscriberID = actor.SubscriberID

	start := time.Now()
	page, err := uc.repo.Find(ctx, f, p)
	uc.metrics.ObserveQuery("organization_association.find", time.Since(start))
	if err != nil {
		span.RecordError(errors.Wrap(err, "AssociationUsecase.Find"))
	}
	return page, err
}

// FindViews is Find with each item classified at the filter's AsOf.
func (uc *AssociationUsecase) FindViews(ctx context.Context, actor domain.Actor, f domain.AssociationFilter, p domain.Pagination) (domain.Page[domain.AssociationView], error) {
	page, err := uc.Find(ctx, actor, f, p)
	if err != nil {
		return domain.Page[domain.AssociationView]{}, err
	}
	asOf := f.AsOf
	if asOf.IsZero() {
		asOf = uc.now()
	}
	return domain.MapPage(page, func(a domain.Association) domain.AssociationView {
		return uc.thresholds.View(a, asOf)
	}), nil
}

// NamedQuery is a canned association filter.
type NamedQuery string

const (
	QueryCurrent              NamedQuery = "current"
	QueryBeneficialOwners     NamedQuery = "beneficial-owners"
	QueryUltimateOwners       NamedQuery = "ultimate-beneficial-owners"
	QuerySignatories          NamedQuery = "authorized-signatories"
	QueryKeyManagement        NamedQuery = "key-management"
	QuerySignificantControl   NamedQuery = "significant-control"
	QueryHighRisk             NamedQuery = "high-risk"
	QueryPEP                  NamedQuery = "pep"
	QueryUnverified           NamedQuery = "unverified"
	QueryExpiredVerifications NamedQuery = "expired-verifications"
	QueryNeedingReview        NamedQuery = "needing-review"
)

// Filter returns the filter behind q, restricted to organizationID when set.
func (q NamedQuery) Filter(organizationID string) (domain.AssociationFilter, error) {
	yes := true
	f := domain.AssociationFilter{Temporal: domain.TemporalCurrent}
	switch q {
	case QueryCurrent:
	case QueryBeneficialOwners:
		f.IsBeneficialOwner = &yes
	case QueryUltimateOwners:
		f.IsUltimateBeneficialOwner = &yes
	case QuerySignatories:
		f.IsAuthorizedSignatory = &yes
	case QueryKeyManagement:
		f.IsKeyManagementPersonnel = &yes
	case QuerySignificantControl:
		f.SignificantControl = &yes
	case QueryHighRisk:
		f.HighRisk = &yes
	case QueryPEP:
		f.IsPEP = &yes
	case QueryUnverified:
		f.VerificationStatuses = []domain.VerificationStatus{domain.VerificationUnverified}
	case QueryExpiredVerifications:
		f.VerificationStatuses = []domain.VerificationStatus{domain.VerificationExpired}
	case QueryNeedingReview:
		f.NeedsReview = &yes
	default:
		return domain.AssociationFilter{}, domain.Invalid("query", "unknown named query "+string(q))
	}
	if organizationID != "" {
		f.OrganizationIDs = []string{organizationID}
	}
	return f, nil
}

func (uc *AssociationUsecase) Named(ctx context.Context, actor domain.Actor, q NamedQuery, organizationID string, p domain.Pagination) (domain.Page[domain.Association], error) {
	f, err := q.Filter(organizationID)
	if err != nil {
		return domain.Page[domain.Association]{}, err
	}
	return uc.Find(ctx, actor, f, p)
}
