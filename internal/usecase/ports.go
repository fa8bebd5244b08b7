package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/totegamma/kycgraph/internal/domain"
)

var tracer = otel.Tracer("usecase")

// Transactor runs fn inside one database transaction carried by ctx.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// EdgeRepository stores one plain edge table.
type EdgeRepository interface {
	Kind() domain.EdgeKind
	Create(ctx context.Context, e domain.Edge) (domain.Edge, error)
	Get(ctx context.Context, id string) (domain.Edge, error)
	Update(ctx context.Context, e domain.Edge, expectedUpdatedAt time.Time) error
	SoftDelete(ctx context.Context, id string) error
	Find(ctx context.Context, f domain.RelationshipFilter, p domain.Pagination) (domain.Page[domain.Edge], error)
	ListBetween(ctx context.Context, a, b string) ([]domain.Edge, error)
	ListOwnership(ctx context.Context, entityID string) ([]domain.Edge, error)
}

type AssociationRepository interface {
	Create(ctx context.Context, a domain.Association) (domain.Association, error)
	Get(ctx context.Context, id string) (domain.Association, error)
	Update(ctx context.Context, a domain.Association, expectedUpdatedAt time.Time) error
	SoftDelete(ctx context.Context, id string) error
	Find(ctx context.Context, f domain.AssociationFilter, p domain.Pagination) (domain.Page[domain.Association], error)
	List(ctx context.Context, f domain.AssociationFilter) ([]domain.Association, error)
	OwnershipStructure(ctx context.Context, organizationID string, minOwnership float64, asOf time.Time) ([]domain.Association, error)
}

// EntityRepository defines persistence/lookup for entities.
type EntityRepository interface {
	Create(ctx context.Context, e domain.Entity) (domain.Entity, error)
	Get(ctx context.Context, id string) (domain.Entity, error)
	Lock(ctx context.Context, ids ...string) (map[string]domain.Entity, error)
	Find(ctx context.Context, f domain.EntityFilter, p domain.Pagination) (domain.Page[domain.Entity], error)
	SoftDelete(ctx context.Context, id, by string, at time.Time) error
	RecordScreening(ctx context.Context, id string, status domain.ScreeningStatus, by string, at time.Time) error
	RecordRisk(ctx context.Context, id string, level domain.RiskLevel, by string, at time.Time) error
}

type SubscriberRepository interface {
	Create(ctx context.Context, s domain.Subscriber) (domain.Subscriber, error)
	Get(ctx context.Context, id string) (domain.Subscriber, error)
	CreateUser(ctx context.Context, u domain.SubscriberUser) (domain.SubscriberUser, error)
	GetUser(ctx context.Context, id string) (domain.SubscriberUser, error)
	GetUserByEmail(ctx context.Context, subscriberID, email string) (domain.SubscriberUser, error)
	TouchLogin(ctx context.Context, id string) error
}

type HistoryRepository interface {
	Append(ctx context.Context, entries ...domain.HistoryEntry) error
	List(ctx context.Context, entityID string, p domain.Pagination) (domain.Page[domain.HistoryEntry], error)
}

type AnalysisRepository interface {
	CreateScreening(ctx context.Context, s domain.ScreeningAnalysis) (domain.ScreeningAnalysis, error)
	ListScreenings(ctx context.Context, entityID string) ([]domain.ScreeningAnalysis, error)
	CreateRisk(ctx context.Context, a domain.RiskAnalysis) (domain.RiskAnalysis, error)
	ListRisks(ctx context.Context, entityID string) ([]domain.RiskAnalysis, error)
}

type ListRepository interface {
	Create(ctx context.Context, l domain.List) (domain.List, error)
	Get(ctx context.Context, id string) (domain.List, error)
	Update(ctx context.Context, l domain.List, expectedUpdatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, f domain.ListFilter, p domain.Pagination) (domain.Page[domain.List], error)
	CreateValue(ctx context.Context, v domain.ListValue) (domain.ListValue, error)
	GetValue(ctx context.Context, id string) (domain.ListValue, error)
	UpdateValue(ctx context.Context, v domain.ListValue, expectedUpdatedAt time.Time) error
	DeleteValue(ctx context.Context, id string) error
	FindValues(ctx context.Context, f domain.ListValueFilter, p domain.Pagination) (domain.Page[domain.ListValue], error)
	Match(ctx context.Context, subscriberID, term string, types []domain.ListType) ([]domain.ListValue, error)
}

type CustomFieldRepository interface {
	Upsert(ctx context.Context, f domain.CustomField) (domain.CustomField, error)
	Get(ctx context.Context, entityID, key string) (domain.CustomField, error)
	List(ctx context.Context, entityID, category string) ([]domain.CustomField, error)
	Delete(ctx context.Context, entityID, key string) error
}

// SummaryCache keeps derived ownership aggregates per organization.
type SummaryCache interface {
	GetSummary(ctx context.Context, organizationID string) (domain.OwnershipSummary, bool)
	SetSummary(ctx context.Context, summary domain.OwnershipSummary)
	Invalidate(ctx context.Context, organizationID string)
}

// Metrics receives operational counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	EdgeCreated(kind domain.EdgeKind)
	Conflict(kind domain.EdgeKind)
	ObserveQuery(name string, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) EdgeCreated(domain.EdgeKind) {}
func (nopMetrics) Conflict(domain.EdgeKind) {}
func (nopMetrics) ObserveQuery(string, time.Duration) {}

type nopCache struct{}

func (nopCache) GetSummary(context.Context, string) (domain.OwnershipSummary, bool) {
	return domain.OwnershipSummary{}, false
}
func (nopCache) SetSummary(context.Context, domain.OwnershipSummary) {}
func (nopCache) Invalidate(context.Context, string) {}

// clock returns UTC time at the precision Postgres stores, so a value read
// back compares equal to the one written.
func clock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
