package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/totegamma/kycgraph/internal/domain"
)

var (
	testActor  = domain.Actor{SubscriberID: "sub-1", UserID: "user-1"}
	otherActor = domain.Actor{SubscriberID: "sub-2", UserID: "user-9"}
	testNow    = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
)

func fixedClock() time.Time { return testNow }

type mockTx struct {
	calls int
}

func (m *mockTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockEntityRepo struct {
	entities  map[string]domain.Entity
	locked    []string
	screened  map[string]domain.ScreeningStatus
	riskRated map[string]domain.RiskLevel
}

func newMockEntityRepo(es ...domain.Entity) *mockEntityRepo {
	m := &mockEntityRepo{
		entities:  map[string]domain.Entity{},
		screened:  map[string]domain.ScreeningStatus{},
		riskRated: map[string]domain.RiskLevel{},
	}
	for _, e := range es {
		m.entities[e.ID] = e
	}
	return m
}

func (m *mockEntityRepo) Create(ctx context.Context, e domain.Entity) (domain.Entity, error) {
	if e.ID == "" {
		e.ID = fmt.Sprintf("entity-%d", len(m.entities)+1)
	}
	m.entities[e.ID] = e
	return e, nil
}

func (m *mockEntityRepo) Get(ctx context.Context, id string) (domain.Entity, error) {
	e, ok := m.entities[id]
	if !ok || e.DeletedAt != nil {
		return domain.Entity{}, domain.NotFoundError{Resource: "entity"}
	}
	return e, nil
}

func (m *mockEntityRepo) Lock(ctx context.Context, ids ...string) (map[string]domain.Entity, error) {
	m.locked = append(m.locked, ids...)
	out := map[string]domain.Entity{}
	for _, id := range ids {
		if e, ok := m.entities[id]; ok && e.DeletedAt == nil {
			out[id] = e
		}
	}
	return out, nil
}

func (m *mockEntityRepo) Find(ctx context.Context, f domain.EntityFilter, p domain.Pagination) (domain.Page[domain.Entity], error) {
	var items []domain.Entity
	for _, e := range m.entities {
		if e.SubscriberID == f.SubscriberID {
			items = append(items, e)
		}
	}
	return domain.NewPage(items, int64(len(items)), p), nil
}

func (m *mockEntityRepo) SoftDelete(ctx context.Context, id, by string, at time.Time) error {
	e, ok := m.entities[id]
	if !ok {
		return domain.NotFoundError{Resource: "entity"}
	}
	e.DeletedAt = &at
	m.entities[id] = e
	return nil
}

func (m *mockEntityRepo) RecordScreening(ctx context.Context, id string, status domain.ScreeningStatus, by string, at time.Time) error {
	m.screened[id] = status
	return nil
}

func (m *mockEntityRepo) RecordRisk(ctx context.Context, id string, level domain.RiskLevel, by string, at time.Time) error {
	m.riskRated[id] = level
	return nil
}

type mockEdgeRepo struct {
	kind    domain.EdgeKind
	edges   map[string]domain.Edge
	order   []string
	updates int
}

func newMockEdgeRepo(kind domain.EdgeKind) *mockEdgeRepo {
	return &mockEdgeRepo{kind: kind, edges: map[string]domain.Edge{}}
}

func (m *mockEdgeRepo) Kind() domain.EdgeKind { return m.kind }

func (m *mockEdgeRepo) Create(ctx context.Context, e domain.Edge) (domain.Edge, error) {
	for _, existing := range m.edges {
		if existing.DeletedAt == nil &&
			existing.PrimaryID == e.PrimaryID &&
			existing.RelatedID == e.RelatedID &&
			existing.RelationshipType == e.RelationshipType {
			return domain.Edge{}, domain.ConflictError{Resource: "relationship", Reason: "duplicate relationship"}
		}
	}
	e.ID = fmt.Sprintf("edge-%d", len(m.edges)+1)
	m.edges[e.ID] = e
	m.order = append(m.order, e.ID)
	return e, nil
}

func (m *mockEdgeRepo) Get(ctx context.Context, id string) (domain.Edge, error) {
	e, ok := m.edges[id]
	if !ok || e.DeletedAt != nil {
		return domain.Edge{}, domain.NotFoundError{Resource: "relationship"}
	}
	return e, nil
}

func (m *mockEdgeRepo) Update(ctx context.Context, e domain.Edge, expected time.Time) error {
	current, ok := m.edges[e.ID]
	if !ok {
		return domain.NotFoundError{Resource: "relationship"}
	}
	if !current.UpdatedAt.Equal(expected) {
		return domain.ConflictError{Resource: "relationship", Reason: "modified concurrently"}
	}
	m.updates++
	m.edges[e.ID] = e
	return nil
}

func (m *mockEdgeRepo) SoftDelete(ctx context.Context, id string) error {
	e, ok := m.edges[id]
	if !ok || e.DeletedAt != nil {
		return domain.NotFoundError{Resource: "relationship"}
	}
	at := testNow
	e.DeletedAt = &at
	m.edges[id] = e
	return nil
}

func (m *mockEdgeRepo) Find(ctx context.Context, f domain.RelationshipFilter, p domain.Pagination) (domain.Page[domain.Edge], error) {
	p, err := p.Normalize([]string{"created_at"})
	if err != nil {
		return domain.Page[domain.Edge]{}, err
	}
	var items []domain.Edge
	for _, id := range m.order {
		if e := m.edges[id]; e.DeletedAt == nil {
			items = append(items, e)
		}
	}
	return domain.NewPage(items, int64(len(items)), p), nil
}

func (m *mockEdgeRepo) ListBetween(ctx context.Context, a, b string) ([]domain.Edge, error) {
	var out []domain.Edge
	for _, id := range m.order {
		e := m.edges[id]
		if (e.PrimaryID == a && e.RelatedID == b) || (e.PrimaryID == b && e.RelatedID == a) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEdgeRepo) ListOwnership(ctx context.Context, entityID string) ([]domain.Edge, error) {
	var out []domain.Edge
	for _, id := range m.order {
		e := m.edges[id]
		if (e.PrimaryID == entityID && e.RelationshipType == domain.RelOwns) ||
			(e.RelatedID == entityID && e.RelationshipType == domain.RelOwnedBy) {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockAssociationRepo struct {
	assocs     map[string]domain.Association
	listFilter domain.AssociationFilter
	listCalls  int
}

func newMockAssociationRepo(as ...domain.Association) *mockAssociationRepo {
	m := &mockAssociationRepo{assocs: map[string]domain.Association{}}
	for _, a := range as {
		m.assocs[a.ID] = a
	}
	return m
}

func (m *mockAssociationRepo) Create(ctx context.Context, a domain.Association) (domain.Association, error) {
	a.ID = fmt.Sprintf("assoc-%d", len(m.assocs)+1)
	m.assocs[a.ID] = a
	return a, nil
}

func (m *mockAssociationRepo) Get(ctx context.Context, id string) (domain.Association, error) {
	a, ok := m.assocs[id]
	if !ok || a.DeletedAt != nil {
		return domain.Association{}, domain.NotFoundError{Resource: "organization association"}
	}
	return a, nil
}

func (m *mockAssociationRepo) Update(ctx context.Context, a domain.Association, expected time.Time) error {
	current, ok := m.assocs[a.ID]
	if !ok {
		return domain.NotFoundError{Resource: "organization association"}
	}
	if !current.UpdatedAt.Equal(expected) {
		return domain.ConflictError{Resource: "organization association", Reason: "modified concurrently"}
	}
	m.assocs[a.ID] = a
	return nil
}

func (m *mockAssociationRepo) SoftDelete(ctx context.Context, id string) error {
	a, ok := m.assocs[id]
	if !ok {
		return domain.NotFoundError{Resource: "organization association"}
	}
	at := testNow
	a.DeletedAt = &at
	m.assocs[id] = a
	return nil
}

func (m *mockAssociationRepo) Find(ctx context.Context, f domain.AssociationFilter, p domain.Pagination) (domain.Page[domain.Association], error) {
	items, _ := m.List(ctx, f)
	return domain.NewPage(items, int64(len(items)), p), nil
}

func (m *mockAssociationRepo) List(ctx context.Context, f domain.AssociationFilter) ([]domain.Association, error) {
	m.listCalls++
	m.listFilter = f
	var out []domain.Association
	for _, a := range m.assocs {
		if len(f.OrganizationIDs) > 0 && a.OrganizationID() != f.OrganizationIDs[0] {
			continue
		}
		if a.DeletedAt == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAssociationRepo) OwnershipStructure(ctx context.Context, organizationID string, minOwnership float64, asOf time.Time) ([]domain.Association, error) {
	var out []domain.Association
	for _, a := range m.assocs {
		if a.OrganizationID() == organizationID && a.OwnershipPercentage != nil && *a.OwnershipPercentage >= minOwnership {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockHistoryRepo struct {
	entries []domain.HistoryEntry
}

func (m *mockHistoryRepo) Append(ctx context.Context, entries ...domain.HistoryEntry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockHistoryRepo) List(ctx context.Context, entityID string, p domain.Pagination) (domain.Page[domain.HistoryEntry], error) {
	var items []domain.HistoryEntry
	for _, h := range m.entries {
		if h.EntityID == entityID {
			items = append(items, h)
		}
	}
	return domain.NewPage(items, int64(len(items)), p), nil
}

type mockCache struct {
	summaries   map[string]domain.OwnershipSummary
	invalidated []string
}

func newMockCache() *mockCache {
	return &mockCache{summaries: map[string]domain.OwnershipSummary{}}
}

func (m *mockCache) GetSummary(ctx context.Context, id string) (domain.OwnershipSummary, bool) {
	s, ok := m.summaries[id]
	return s, ok
}

func (m *mockCache) SetSummary(ctx context.Context, s domain.OwnershipSummary) {
	m.summaries[s.OrganizationID] = s
}

func (m *mockCache) Invalidate(ctx context.Context, id string) {
	m.invalidated = append(m.invalidated, id)
	delete(m.summaries, id)
}

type mockMetrics struct {
	mu        sync.Mutex
	created   map[domain.EdgeKind]int
	conflicts map[domain.EdgeKind]int
	queries   []string
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{created: map[domain.EdgeKind]int{}, conflicts: map[domain.EdgeKind]int{}}
}

func (m *mockMetrics) EdgeCreated(kind domain.EdgeKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created[kind]++
}

func (m *mockMetrics) Conflict(kind domain.EdgeKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts[kind]++
}

func (m *mockMetrics) ObserveQuery(name string, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, name)
}

func organization(id, subscriber string) domain.Entity {
	return domain.Entity{
		ID:           id,
		SubscriberID: subscriber,
		EntityType:   domain.EntityTypeOrganization,
		Name:         id,
		IsActive:     true,
		Organization: &domain.OrganizationProfile{LegalName: id},
	}
}

func individual(id, subscriber string) domain.Entity {
	return domain.Entity{
		ID:           id,
		SubscriberID: subscriber,
		EntityType:   domain.EntityTypeIndividual,
		Name:         id,
		IsActive:     true,
		Individual:   &domain.IndividualProfile{},
	}
}

func pct(v float64) *float64 { return &v }
