package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/totegamma/kycgraph/internal/domain"
)

type relationshipFixture struct {
	uc       *RelationshipUsecase
	repo     *mockEdgeRepo
	entities *mockEntityRepo
	history  *mockHistoryRepo
	metrics  *mockMetrics
}

func newRelationshipFixture(kind domain.EdgeKind, es ...domain.Entity) relationshipFixture {
	f := relationshipFixture{
		repo:     newMockEdgeRepo(kind),
		entities: newMockEntityRepo(es...),
		history:  &mockHistoryRepo{},
		metrics:  newMockMetrics(),
	}
	f.uc = NewRelationshipUsecase(f.repo, f.entities, f.history, &mockTx{}, f.metrics)
	f.uc.now = fixedClock
	return f
}

func TestRelationshipCreate(t *testing.T) {
	f := newRelationshipFixture(domain.KindOrganizationRelationship,
		organization("org-a", "sub-1"), organization("org-b", "sub-1"))

	res, err := f.uc.Create(context.Background(), testActor, CreateRelationshipInput{
		PrimaryID:           "org-a",
		RelatedID:           "org-b",
		RelationshipType:    domain.RelParent,
		OwnershipPercentage: pct(60),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if res.Reciprocal != nil {
		t.Fatalf("expected no reciprocal edge")
	}
	if res.Edge.CreatedBy != testActor.UserID {
		t.Fatalf("expected creator %s got %s", testActor.UserID, res.Edge.CreatedBy)
	}
	if !res.Edge.EffectiveFrom.Equal(domain.Day(testNow)) {
		t.Fatalf("expected effectiveFrom to default to today, got %v", res.Edge.EffectiveFrom)
	}
	if len(f.history.entries) != 2 {
		t.Fatalf("expected history on both endpoints, got %d entries", len(f.history.entries))
	}
	if f.metrics.created[domain.KindOrganizationRelationship] != 1 {
		t.Fatalf("expected one created edge metric")
	}
	if len(f.entities.locked) != 2 {
		t.Fatalf("expected both endpoints to be locked")
	}
}

func TestRelationshipCreateReciprocal(t *testing.T) {
	f := newRelationshipFixture(domain.KindOrganizationRelationship,
		organization("org-a", "sub-1"), organization("org-b", "sub-1"))

	res, err := f.uc.Create(context.Background(), testActor, CreateRelationshipInput{
		PrimaryID:        "org-a",
		RelatedID:        "org-b",
		RelationshipType: domain.RelParent,
		CreateReciprocal: true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if res.Reciprocal == nil {
		t.Fatalf("expected reciprocal edge")
	}
	if res.Reciprocal.PrimaryID != "org-b" || res.Reciprocal.RelatedID != "org-a" {
		t.Fatalf("reciprocal endpoints not swapped: %+v", res.Reciprocal)
	}
	if res.Reciprocal.RelationshipType != domain.RelSubsidiary {
		t.Fatalf("expected SUBSIDIARY got %s", res.Reciprocal.RelationshipType)
	}
	if len(f.repo.edges) != 2 {
		t.Fatalf("expected two rows, got %d", len(f.repo.edges))
	}
}

func TestRelationshipCreateRejects(t *testing.T) {
	inactive := organization("org-off", "sub-1")
	inactive.IsActive = false

	tests := []struct {
		name  string
		in    CreateRelationshipInput
		actor domain.Actor
		want  error
	}{
		{
			name:  "self relationship",
			in:    CreateRelationshipInput{PrimaryID: "org-a", RelatedID: "org-a", RelationshipType: domain.RelAffiliate},
			actor: testActor,
			want:  domain.ErrValidation,
		},
		{
			name:  "missing endpoint",
			in:    CreateRelationshipInput{PrimaryID: "org-a", RelatedID: "org-x", RelationshipType: domain.RelAffiliate},
			actor: testActor,
			want:  domain.ErrNotFound,
		},
		{
			name:  "other tenant",
			in:    CreateRelationshipInput{PrimaryID: "org-a", RelatedID: "org-b", RelationshipType: domain.RelAffiliate},
			actor: otherActor,
			want:  domain.ErrNotFound,
		},
		{
			name:  "wrong endpoint type",
			in:    CreateRelationshipInput{PrimaryID: "org-a", RelatedID: "ind-1", RelationshipType: domain.RelAffiliate},
			actor: testActor,
			want:  domain.ErrValidation,
		},
		{
			name:  "inactive endpoint",
			in:    CreateRelationshipInput{PrimaryID: "org-a", RelatedID: "org-off", RelationshipType: domain.RelAffiliate},
			actor: testActor,
			want:  domain.ErrValidation,
		},
		{
			name:  "type of another kind",
			in:    CreateRelationshipInput{PrimaryID: "org-a", RelatedID: "org-b", RelationshipType: domain.RelSpouse},
			actor: testActor,
			want:  domain.ErrValidation,
		},
		{
			name:  "percentage above 100",
			in:    CreateRelationshipInput{PrimaryID: "org-a", RelatedID: "org-b", RelationshipType: domain.RelParent, OwnershipPercentage: pct(100.01)},
			actor: testActor,
			want:  domain.ErrValidation,
		},
		{
			name:  "reciprocal without mapping",
			in:    CreateRelationshipInput{PrimaryID: "org-a", RelatedID: "org-b", RelationshipType: domain.RelBranch, CreateReciprocal: true},
			actor: testActor,
			want:  domain.ErrValidation,
		},
		{
			name:  "anonymous actor",
			in:    CreateRelationshipInput{PrimaryID: "org-a", RelatedID: "org-b", RelationshipType: domain.RelParent},
			actor: domain.Actor{SubscriberID: "sub-1"},
			want:  domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRelationshipFixture(domain.KindOrganizationRelationship,
				organization("org-a", "sub-1"), organization("org-b", "sub-1"),
				individual("ind-1", "sub-1"), inactive)

			_, err := f.uc.Create(context.Background(), tt.actor, tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %T got %v", tt.want, err)
			}
			if len(f.repo.edges) != 0 {
				t.Fatalf("no edge should be stored")
			}
			if len(f.history.entries) != 0 {
				t.Fatalf("no history should be written")
			}
		})
	}
}

func TestRelationshipCreateDuplicate(t *testing.T) {
	f := newRelationshipFixture(domain.KindEntityRelationship,
		organization("org-a", "sub-1"), organization("org-b", "sub-1"))
	in := CreateRelationshipInput{PrimaryID: "org-a", RelatedID: "org-b", RelationshipType: domain.RelParent}

	if _, err := f.uc.Create(context.Background(), testActor, in); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := f.uc.Create(context.Background(), testActor, in)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
	if f.metrics.conflicts[domain.KindEntityRelationship] != 1 {
		t.Fatalf("expected conflict metric")
	}

	in = CreateRelationshipInput{PrimaryID: "org-b", RelatedID: "org-a", RelationshipType: domain.RelSubsidiary}
	if _, err := f.uc.Create(context.Background(), testActor, in); err != nil {
		t.Fatalf("reverse direction must be allowed: %v", err)
	}
}

func TestRelationshipVerifyIsIdempotent(t *testing.T) {
	f := newRelationshipFixture(domain.KindIndividualRelationship,
		individual("ind-a", "sub-1"), individual("ind-b", "sub-1"))
	res, err := f.uc.Create(context.Background(), testActor, CreateRelationshipInput{
		PrimaryID: "ind-a", RelatedID: "ind-b", RelationshipType: domain.RelSpouse,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first, err := f.uc.Verify(context.Background(), testActor, res.Edge.ID, "document")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	f.uc.now = func() time.Time { return testNow.Add(time.Hour) }
	second, err := f.uc.Verify(context.Background(), testActor, res.Edge.ID, "")
	if err != nil {
		t.Fatalf("second verify failed: %v", err)
	}

	if !first.Verified || !second.Verified {
		t.Fatalf("expected verified edge")
	}
	if !second.VerifiedAt.After(*first.VerifiedAt) {
		t.Fatalf("expected verifiedAt to be refreshed")
	}
	if second.VerificationMethod != "document" {
		t.Fatalf("expected method to be kept, got %q", second.VerificationMethod)
	}
	if f.repo.updates != 2 {
		t.Fatalf("expected two updates got %d", f.repo.updates)
	}
}

func TestRelationshipVerifyStaleRow(t *testing.T) {
	f := newRelationshipFixture(domain.KindOrganizationRelationship,
		organization("org-a", "sub-1"), organization("org-b", "sub-1"))
	res, err := f.uc.Create(context.Background(), testActor, CreateRelationshipInput{
		PrimaryID: "org-a", RelatedID: "org-b", RelationshipType: domain.RelPartner,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// another writer bumps updated_at between our read and write
	f.uc.repo = &racingEdgeRepo{mockEdgeRepo: f.repo}

	_, err = f.uc.Verify(context.Background(), testActor, res.Edge.ID, "registry")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

type racingEdgeRepo struct {
	*mockEdgeRepo
}

func (r *racingEdgeRepo) Get(ctx context.Context, id string) (domain.Edge, error) {
	e, err := r.mockEdgeRepo.Get(ctx, id)
	if err != nil {
		return e, err
	}
	bumped := e
	bumped.UpdatedAt = e.UpdatedAt.Add(time.Second)
	r.mockEdgeRepo.edges[id] = bumped
	return e, nil
}

func TestRelationshipRetireAndDelete(t *testing.T) {
	f := newRelationshipFixture(domain.KindOrganizationRelationship,
		organization("org-a", "sub-1"), organization("org-b", "sub-1"))
	res, err := f.uc.Create(context.Background(), testActor, CreateRelationshipInput{
		PrimaryID:        "org-a",
		RelatedID:        "org-b",
		RelationshipType: domain.RelAffiliate,
		EffectiveFrom:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	retired, err := f.uc.Retire(context.Background(), testActor, res.Edge.ID, time.Date(2023, 12, 31, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("retire failed: %v", err)
	}
	if retired.IsActive || retired.EffectiveTo == nil {
		t.Fatalf("expected retired edge, got %+v", retired)
	}
	if !domain.IsExpired(retired, testNow) {
		t.Fatalf("retired edge should be expired at %v", testNow)
	}

	if _, err := f.uc.Retire(context.Background(), testActor, res.Edge.ID, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for range inversion, got %v", err)
	}

	if err := f.uc.Delete(context.Background(), otherActor, res.Edge.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("other tenant must not delete, got %v", err)
	}
	if err := f.uc.Delete(context.Background(), testActor, res.Edge.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := f.uc.Get(context.Background(), testActor, res.Edge.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted edge should be not found, got %v", err)
	}
}

func TestRelationshipFindValidatesFilter(t *testing.T) {
	f := newRelationshipFixture(domain.KindIndividualRelationship)

	_, err := f.uc.Find(context.Background(), testActor, domain.RelationshipFilter{
		RelationshipTypes: []domain.RelationshipType{domain.RelSubsidiary},
	}, domain.Pagination{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}

	_, err = f.uc.Find(context.Background(), testActor, domain.RelationshipFilter{}, domain.Pagination{SortBy: "password"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected sort validation error got %v", err)
	}
	if len(f.metrics.queries) != 1 {
		t.Fatalf("expected query latency to be observed once, got %d", len(f.metrics.queries))
	}
}

func TestRelationshipOwnership(t *testing.T) {
	f := newRelationshipFixture(domain.KindEntityRelationship,
		organization("org-a", "sub-1"), organization("org-b", "sub-1"), organization("org-c", "sub-1"))
	ctx := context.Background()
	for _, in := range []CreateRelationshipInput{
		{PrimaryID: "org-a", RelatedID: "org-b", RelationshipType: domain.RelOwns, OwnershipPercentage: pct(70)},
		{PrimaryID: "org-c", RelatedID: "org-a", RelationshipType: domain.RelOwnedBy, OwnershipPercentage: pct(30)},
		{PrimaryID: "org-a", RelatedID: "org-c", RelationshipType: domain.RelAffiliate},
	} {
		if _, err := f.uc.Create(ctx, testActor, in); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	edges, err := f.uc.Ownership(ctx, testActor, "org-a")
	if err != nil {
		t.Fatalf("ownership failed: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected two ownership edges got %d", len(edges))
	}

	between, err := f.uc.Between(ctx, testActor, "org-c", "org-a")
	if err != nil {
		t.Fatalf("between failed: %v", err)
	}
	if len(between) != 2 {
		t.Fatalf("expected both directions, got %d", len(between))
	}
}
