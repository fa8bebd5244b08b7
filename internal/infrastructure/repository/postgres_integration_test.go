//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/fixtures"
	"github.com/totegamma/kycgraph/internal/infrastructure/cache"
	"github.com/totegamma/kycgraph/internal/infrastructure/database"
	"github.com/totegamma/kycgraph/internal/infrastructure/metrics"
	"github.com/totegamma/kycgraph/internal/infrastructure/providers"
	"github.com/totegamma/kycgraph/internal/infrastructure/repository"
	"github.com/totegamma/kycgraph/internal/logger"
	"github.com/totegamma/kycgraph/internal/testutil/containers"
	"github.com/totegamma/kycgraph/internal/usecase"
)

type PostgresSuite struct {
	suite.Suite
	db    *gorm.DB
	uc    providers.Usecases
	actor domain.Actor
	orgA  domain.Entity
	orgB  domain.Entity
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T())
	s.Require().NoError(database.Migrate(pg.DSN))

	db, err := database.NewPostgres(pg.DSN, logger.Nop())
	s.Require().NoError(err)
	s.db = db
	s.uc = providers.NewUsecases(db, cache.NewMemory(time.Minute), metrics.New(prometheus.NewRegistry()), domain.DefaultControlThresholds)
}

func (s *PostgresSuite) SetupTest() {
	err := s.db.Exec(`TRUNCATE subscribers, subscriber_users, entities, individual_entities, organization_entities,
		individual_relationships, organization_relationships, organization_associations,
		organization_entity_relationships, entity_history, screening_analysis, risk_analysis,
		lists_management, list_values, entity_custom_fields CASCADE`).Error
	s.Require().NoError(err)

	s.actor = s.newTenant("acme")
	s.orgA = s.onboardOrganization(s.actor, "Alpha Holdings")
	s.orgB = s.onboardOrganization(s.actor, "Beta Trading")
}

func (s *PostgresSuite) newTenant(name string) domain.Actor {
	ctx := context.Background()
	sub, err := s.uc.Subscribers.Create(ctx, usecase.CreateSubscriberInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "correct horse battery",
		Type:     "business",
	})
	s.Require().NoError(err)
	user, err := s.uc.Subscribers.RegisterUser(ctx, sub.ID, "", usecase.RegisterUserInput{
		Email:    "analyst@" + name + ".example.com",
		FullName: "Analyst " + name,
		Password: "correct horse battery",
	})
	s.Require().NoError(err)
	return domain.Actor{SubscriberID: sub.ID, UserID: user.ID}
}

func (s *PostgresSuite) onboardOrganization(actor domain.Actor, name string) domain.Entity {
	e, err := s.uc.Entities.Onboard(context.Background(), actor, usecase.OnboardInput{
		EntityType:   domain.EntityTypeOrganization,
		Organization: &domain.OrganizationProfile{LegalName: name},
	})
	s.Require().NoError(err)
	return e
}

func (s *PostgresSuite) onboardIndividual(actor domain.Actor, name string) domain.Entity {
	e, err := s.uc.Entities.Onboard(context.Background(), actor, usecase.OnboardInput{
		EntityType: domain.EntityTypeIndividual,
		Name:       name,
		Individual: &domain.IndividualProfile{},
	})
	s.Require().NoError(err)
	return e
}

func (s *PostgresSuite) associate(individual domain.Entity, stake float64, beneficial bool) domain.Association {
	a, err := s.uc.Associations.Create(context.Background(), s.actor, domain.AssociationInput{
		OrganizationID:      s.orgA.ID,
		IndividualID:        individual.ID,
		RelationshipType:    domain.AssocShareholder,
		OwnershipPercentage: &stake,
		EffectiveFrom:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		IsBeneficialOwner:   beneficial,
	})
	s.Require().NoError(err)
	return a
}

func (s *PostgresSuite) TestPercentageBoundEnforcedByDatabase() {
	ctx := context.Background()
	repo := repository.NewOrganizationRelationshipRepository(s.db)

	for _, stake := range []float64{100.01, -1} {
		stake := stake
		_, err := repo.Create(ctx, domain.Edge{
			Kind:                domain.KindOrganizationRelationship,
			PrimaryID:           s.orgA.ID,
			RelatedID:           s.orgB.ID,
			RelationshipType:    domain.RelParent,
			OwnershipPercentage: &stake,
			EffectiveFrom:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			IsActive:            true,
			CreatedBy:           s.actor.UserID,
		})
		s.ErrorIs(err, domain.ErrValidation, "stake %v", stake)
	}

	full := 100.0
	_, err := repo.Create(ctx, domain.Edge{
		Kind:                domain.KindOrganizationRelationship,
		PrimaryID:           s.orgA.ID,
		RelatedID:           s.orgB.ID,
		RelationshipType:    domain.RelParent,
		OwnershipPercentage: &full,
		EffectiveFrom:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:            true,
		CreatedBy:           s.actor.UserID,
	})
	s.NoError(err)
}

func (s *PostgresSuite) TestDuplicateEdgeRejected() {
	ctx := context.Background()
	in := usecase.CreateRelationshipInput{
		PrimaryID:        s.orgA.ID,
		RelatedID:        s.orgB.ID,
		RelationshipType: domain.RelParent,
		EffectiveFrom:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := s.uc.OrganizationRelationships.Create(ctx, s.actor, in)
	s.Require().NoError(err)

	_, err = s.uc.OrganizationRelationships.Create(ctx, s.actor, in)
	s.ErrorIs(err, domain.ErrConflict)

	_, err = s.uc.OrganizationRelationships.Create(ctx, s.actor, usecase.CreateRelationshipInput{
		PrimaryID:        s.orgB.ID,
		RelatedID:        s.orgA.ID,
		RelationshipType: domain.RelSubsidiary,
		EffectiveFrom:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)

	between, err := s.uc.OrganizationRelationships.Between(ctx, s.actor, s.orgA.ID, s.orgB.ID)
	s.Require().NoError(err)
	s.Len(between, 2)
}

func (s *PostgresSuite) TestDeletedEdgeFreesTheSlot() {
	ctx := context.Background()
	in := usecase.CreateRelationshipInput{
		PrimaryID:        s.orgA.ID,
		RelatedID:        s.orgB.ID,
		RelationshipType: domain.RelPartner,
		EffectiveFrom:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		CreateReciprocal: true,
	}
	first, err := s.uc.OrganizationRelationships.Create(ctx, s.actor, in)
	s.Require().NoError(err)
	s.Require().NotNil(first.Reciprocal)

	s.Require().NoError(s.uc.OrganizationRelationships.Delete(ctx, s.actor, first.Edge.ID))

	in.CreateReciprocal = false
	_, err = s.uc.OrganizationRelationships.Create(ctx, s.actor, in)
	s.NoError(err)
}

func (s *PostgresSuite) TestPaginationTotals() {
	ctx := context.Background()
	for i := 0; i < 47; i++ {
		s.onboardIndividual(s.actor, fmt.Sprintf("Person %02d", i))
	}

	filter := domain.EntityFilter{EntityTypes: []domain.EntityType{domain.EntityTypeIndividual}}
	for page, want := range map[int]int{1: 20, 2: 20, 3: 7, 4: 0} {
		got, err := s.uc.Entities.Find(ctx, s.actor, filter, domain.Pagination{Page: page, PageSize: 20})
		s.Require().NoError(err)
		s.Len(got.Items, want, "page %d", page)
		s.Equal(int64(47), got.TotalCount, "page %d", page)
		s.Equal(3, got.TotalPages)
	}
}

func (s *PostgresSuite) TestSoftDeletedAssociationLeavesCurrentView() {
	ctx := context.Background()
	a := s.associate(s.onboardIndividual(s.actor, "Dana Doe"), 40, true)
	s.Require().NoError(s.uc.Associations.Delete(ctx, s.actor, a.ID))

	current, err := s.uc.Associations.Named(ctx, s.actor, usecase.QueryCurrent, s.orgA.ID, domain.Pagination{})
	s.Require().NoError(err)
	s.Empty(current.Items)

	all, err := s.uc.Associations.Find(ctx, s.actor, domain.AssociationFilter{
		Scope:           domain.Scope{IncludeDeleted: true},
		OrganizationIDs: []string{s.orgA.ID},
	}, domain.Pagination{})
	s.Require().NoError(err)
	s.Require().Len(all.Items, 1)
	s.NotNil(all.Items[0].DeletedAt)
}

func (s *PostgresSuite) TestOwnershipSummary() {
	ctx := context.Background()
	x := s.onboardIndividual(s.actor, "Xavier")
	y := s.onboardIndividual(s.actor, "Yara")
	s.associate(x, 30, true)
	s.associate(y, 10, false)

	summary, err := s.uc.Ownership.Summary(ctx, s.actor, s.orgA.ID, time.Time{})
	s.Require().NoError(err)
	s.InDelta(40, summary.TotalOwnershipAccounted, 0.001)
	s.Equal(1, summary.BeneficialOwnersCount)
	s.Equal(1, summary.SignificantControlPersonsCount)
	s.Require().NotNil(summary.LargestShareholder)
	s.Equal(x.ID, summary.LargestShareholder.IndividualID)

	counts := map[string]int{}
	for _, b := range summary.Distribution {
		counts[b.Label] = b.Count
	}
	s.Equal(1, counts["25-50"])
	s.Equal(1, counts["5-10"])
}

func (s *PostgresSuite) TestTenantIsolation() {
	ctx := context.Background()
	other := s.newTenant("globex")

	_, err := s.uc.Entities.Get(ctx, other, s.orgA.ID)
	s.ErrorIs(err, domain.ErrNotFound)

	otherOrg := s.onboardOrganization(other, "Globex")
	_, err = s.uc.OrganizationRelationships.Create(ctx, other, usecase.CreateRelationshipInput{
		PrimaryID:        otherOrg.ID,
		RelatedID:        s.orgA.ID,
		RelationshipType: domain.RelAffiliate,
		EffectiveFrom:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.ErrorIs(err, domain.ErrNotFound)

	page, err := s.uc.Entities.Find(ctx, other, domain.EntityFilter{}, domain.Pagination{})
	s.Require().NoError(err)
	s.Len(page.Items, 1)
}

func (s *PostgresSuite) TestFixturesRoundTrip() {
	ctx := context.Background()
	opts := fixtures.DefaultOptions()
	opts.Reciprocal = 1

	ds, err := fixtures.New(opts).Generate(ctx, s.actor, fixtures.Targets{
		Entities:                  s.uc.Entities,
		Associations:              s.uc.Associations,
		OrganizationRelationships: s.uc.OrganizationRelationships,
		IndividualRelationships:   s.uc.IndividualRelationships,
		EntityRelationships:       s.uc.EntityRelationships,
	})
	s.Require().NoError(err)
	s.NotEmpty(ds.Associations)

	for _, org := range ds.Organizations {
		_, err := s.uc.Ownership.Summary(ctx, s.actor, org.ID, time.Time{})
		s.NoError(err)
	}
}

// seedAssociation links a fresh individual to orgA and applies set to the input.
func (s *PostgresSuite) seedAssociation(name string, set func(*domain.AssociationInput)) domain.Association {
	in := domain.AssociationInput{
		OrganizationID:   s.orgA.ID,
		IndividualID:     s.onboardIndividual(s.actor, name).ID,
		RelationshipType: domain.AssocShareholder,
		EffectiveFrom:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	set(&in)
	a, err := s.uc.Associations.Create(context.Background(), s.actor, in)
	s.Require().NoError(err)
	return a
}

func stake(v float64) *float64 { return &v }

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	sort.Strings(out)
	return out
}

type filterCase struct {
	name   string
	filter domain.AssociationFilter
	keep   func(domain.AssociationView) bool
}

func (s *PostgresSuite) TestAssociationFiltersAgreeWithView() {
	ctx := context.Background()
	asOf := domain.Day(time.Now())
	high := domain.RiskHigh
	low := domain.RiskLow
	today := asOf
	yesterday := asOf.AddDate(0, 0, -1)
	tomorrow := asOf.AddDate(0, 0, 1)

	s.seedAssociation("No Stake", func(in *domain.AssociationInput) {
		in.RelationshipType = domain.AssocOther
		in.NextReviewDate = &tomorrow
	})
	s.seedAssociation("Ten Percent", func(in *domain.AssociationInput) {
		in.OwnershipPercentage = stake(10)
		in.RiskLevel = &low
		in.NextReviewDate = &today
	})
	s.seedAssociation("Just Under", func(in *domain.AssociationInput) {
		in.OwnershipPercentage = stake(24.99)
		in.NextReviewDate = &yesterday
	})
	s.seedAssociation("Quarter", func(in *domain.AssociationInput) {
		in.OwnershipPercentage = stake(25)
		in.Notes = "holds 50% of class A"
	})
	s.seedAssociation("Half", func(in *domain.AssociationInput) {
		in.OwnershipPercentage = stake(50)
		in.Notes = "holds 500 of class B"
		in.RiskLevel = &high
	})
	s.seedAssociation("Voting Only", func(in *domain.AssociationInput) {
		in.VotingRightsPercentage = stake(30)
		in.Notes = "holds 5_0 voting units"
	})
	s.seedAssociation("Ultimate", func(in *domain.AssociationInput) {
		in.RelationshipType = domain.AssocUBO
		in.OwnershipPercentage = stake(5)
		in.IsUltimateBeneficialOwner = true
		in.IsPEP = true
	})
	s.seedAssociation("Chief Executive", func(in *domain.AssociationInput) {
		in.RelationshipType = domain.AssocCEO
		in.PositionTitle = "Chief Executive Officer"
		in.IsKeyManagementPersonnel = true
		in.RequiresEnhancedDueDiligence = true
	})
	beneficial := s.seedAssociation("Beneficial", func(in *domain.AssociationInput) {
		in.RelationshipType = domain.AssocBeneficialOwner
		in.IsBeneficialOwner = true
		in.IsSanctionsRelated = true
	})
	fresh := s.seedAssociation("Fresh Check", func(in *domain.AssociationInput) {
		in.OwnershipPercentage = stake(1)
	})
	stale := s.seedAssociation("Stale Check", func(in *domain.AssociationInput) {
		in.OwnershipPercentage = stake(2)
	})

	_, err := s.uc.Associations.Verify(ctx, s.actor, fresh.ID, "registry")
	s.Require().NoError(err)
	_, err = s.uc.Associations.Verify(ctx, s.actor, beneficial.ID, "document")
	s.Require().NoError(err)
	err = s.db.Exec("UPDATE organization_associations SET verified = true, verified_by = ?, verified_at = ? WHERE id = ?",
		s.actor.UserID, asOf.AddDate(0, -7, 0), stale.ID).Error
	s.Require().NoError(err)

	all, err := s.uc.Associations.Find(ctx, s.actor, domain.AssociationFilter{AsOf: asOf}, domain.Pagination{PageSize: 100})
	s.Require().NoError(err)
	s.Require().Len(all.Items, 11)

	th := domain.DefaultControlThresholds
	expect := func(keep func(domain.AssociationView) bool) []string {
		var out []domain.Association
		for _, a := range all.Items {
			if keep(th.View(a, asOf)) {
				out = append(out, a)
			}
		}
		return ids(out, func(a domain.Association) string { return a.ID })
	}
	yes, no := true, false

	cases := []filterCase{
		{"significant control", domain.AssociationFilter{SignificantControl: &yes},
			func(v domain.AssociationView) bool { return v.SignificantControl }},
		{"no significant control", domain.AssociationFilter{SignificantControl: &no},
			func(v domain.AssociationView) bool { return !v.SignificantControl }},
		{"high risk", domain.AssociationFilter{HighRisk: &yes},
			func(v domain.AssociationView) bool { return v.HighRisk }},
		{"not high risk", domain.AssociationFilter{HighRisk: &no},
			func(v domain.AssociationView) bool { return !v.HighRisk }},
		{"needs review", domain.AssociationFilter{NeedsReview: &yes},
			func(v domain.AssociationView) bool { return v.NeedsReview }},
		{"reviewed", domain.AssociationFilter{NeedsReview: &no},
			func(v domain.AssociationView) bool { return !v.NeedsReview }},
	}
	for _, level := range []domain.ControlLevel{
		domain.ControlNone, domain.ControlMinor, domain.ControlSignificant, domain.ControlControlling, domain.ControlUltimate,
	} {
		level := level
		cases = append(cases, filterCase{"control " + string(level), domain.AssociationFilter{ControlLevels: []domain.ControlLevel{level}},
			func(v domain.AssociationView) bool { return v.ControlLevel == level }})
	}
	for _, status := range []domain.VerificationStatus{
		domain.VerificationUnverified, domain.VerificationVerified, domain.VerificationExpired,
	} {
		status := status
		cases = append(cases, filterCase{"verification " + string(status), domain.AssociationFilter{VerificationStatuses: []domain.VerificationStatus{status}},
			func(v domain.AssociationView) bool { return v.VerificationStatus == status }})
	}

	for _, c := range cases {
		c.filter.AsOf = asOf
		got, err := s.uc.Associations.Find(ctx, s.actor, c.filter, domain.Pagination{PageSize: 100})
		s.Require().NoError(err, c.name)
		want := expect(c.keep)
		s.NotEmpty(want, c.name)
		s.Equal(want, ids(got.Items, func(a domain.Association) string { return a.ID }), c.name)
	}

	for term, want := range map[string][]string{
		"50%":   {"holds 50% of class A"},
		"5_0":   {"holds 5_0 voting units"},
		"CHIEF": {""},
	} {
		got, err := s.uc.Associations.Find(ctx, s.actor, domain.AssociationFilter{Search: term, AsOf: asOf}, domain.Pagination{PageSize: 100})
		s.Require().NoError(err, term)
		notes := make([]string, 0, len(got.Items))
		for _, a := range got.Items {
			notes = append(notes, a.Notes)
		}
		s.Equal(want, notes, term)
	}
}

func (s *PostgresSuite) TestPageFarPastTheEndIsEmpty() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.onboardIndividual(s.actor, fmt.Sprintf("Person %d", i))
	}

	got, err := s.uc.Entities.Find(ctx, s.actor, domain.EntityFilter{}, domain.Pagination{Page: math.MaxInt, PageSize: 20})
	s.Require().NoError(err)
	s.Empty(got.Items)
	s.Equal(int64(5), got.TotalCount)
}

func (s *PostgresSuite) TestMalformedIDIsNotAServerError() {
	ctx := context.Background()
	repo := repository.NewAssociationRepository(s.db, domain.DefaultControlThresholds)

	_, err := repo.Get(ctx, "not-a-uuid")
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.uc.Entities.Find(ctx, domain.Actor{SubscriberID: "tenant", UserID: s.actor.UserID}, domain.EntityFilter{}, domain.Pagination{})
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *PostgresSuite) TestOwnershipEdgesAreCurrent() {
	ctx := context.Background()
	orgC := s.onboardOrganization(s.actor, "Gamma Capital")
	ended := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	past, err := s.uc.EntityRelationships.Create(ctx, s.actor, usecase.CreateRelationshipInput{
		PrimaryID:           s.orgA.ID,
		RelatedID:           s.orgB.ID,
		RelationshipType:    domain.RelOwns,
		OwnershipPercentage: stake(60),
		EffectiveFrom:       time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		EffectiveTo:         &ended,
	})
	s.Require().NoError(err)
	current, err := s.uc.EntityRelationships.Create(ctx, s.actor, usecase.CreateRelationshipInput{
		PrimaryID:           s.orgA.ID,
		RelatedID:           orgC.ID,
		RelationshipType:    domain.RelOwns,
		OwnershipPercentage: stake(40),
		EffectiveFrom:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	edges, err := s.uc.EntityRelationships.Ownership(ctx, s.actor, s.orgA.ID)
	s.Require().NoError(err)
	s.Require().Len(edges, 1)
	s.Equal(current.Edge.ID, edges[0].ID)

	history, err := s.uc.EntityRelationships.Between(ctx, s.actor, s.orgA.ID, s.orgB.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(past.Edge.ID, history[0].ID)
}

func (s *PostgresSuite) TestListsAndLookup() {
	ctx := context.Background()
	other := s.newTenant("globex")

	watch, err := s.uc.Lists.Create(ctx, s.actor, usecase.ListInput{Name: "Internal 100% watch", Type: domain.ListWatchlist})
	s.Require().NoError(err)
	_, err = s.uc.Lists.Create(ctx, s.actor, usecase.ListInput{Name: "Internal 100% watch", Type: domain.ListPEP})
	s.ErrorIs(err, domain.ErrConflict)
	_, err = s.uc.Lists.Create(ctx, s.actor, usecase.ListInput{Name: "Internal 1000 watch", Type: domain.ListCustom})
	s.Require().NoError(err)
	foreign, err := s.uc.Lists.Create(ctx, other, usecase.ListInput{Name: "Internal 100% watch", Type: domain.ListWatchlist})
	s.Require().NoError(err)

	page, err := s.uc.Lists.Find(ctx, s.actor, domain.ListFilter{Search: "100%"}, domain.Pagination{})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal(watch.ID, page.Items[0].ID)

	hit, err := s.uc.Lists.AddValue(ctx, s.actor, watch.ID, usecase.ListValueInput{Name: "Acme Shell Co", Code: "ACME", Metadata: []byte(`{"source":"tip"}`)})
	s.Require().NoError(err)
	_, err = s.uc.Lists.AddValue(ctx, s.actor, watch.ID, usecase.ListValueInput{Name: "Acme Shell Co"})
	s.ErrorIs(err, domain.ErrConflict)
	_, err = s.uc.Lists.AddValue(ctx, other, foreign.ID, usecase.ListValueInput{Name: "Acme Shell Co", Code: "ACME"})
	s.Require().NoError(err)

	found, err := s.uc.Lists.Lookup(ctx, s.actor, "acme", nil)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(hit.ID, found[0].ID)
	s.JSONEq(`{"source":"tip"}`, string(found[0].Metadata))

	found, err = s.uc.Lists.Lookup(ctx, s.actor, "acme", []domain.ListType{domain.ListSanctions})
	s.Require().NoError(err)
	s.Empty(found)

	inactive := false
	_, err = s.uc.Lists.Update(ctx, s.actor, watch.ID, usecase.ListPatch{IsActive: &inactive})
	s.Require().NoError(err)
	found, err = s.uc.Lists.Lookup(ctx, s.actor, "ACME SHELL CO", nil)
	s.Require().NoError(err)
	s.Empty(found)

	s.Require().NoError(s.uc.Lists.Delete(ctx, s.actor, watch.ID))
	var left int64
	s.Require().NoError(s.db.Table("list_values").Where("list_id = ?", watch.ID).Count(&left).Error)
	s.Zero(left)
}

func (s *PostgresSuite) TestCustomFieldUpsertKeepsIdentity() {
	ctx := context.Background()
	person := s.onboardIndividual(s.actor, "Dana Vale")

	first, err := s.uc.CustomFields.Set(ctx, s.actor, person.ID, "source_of_funds", usecase.CustomFieldInput{Value: "salary", Category: "financial"})
	s.Require().NoError(err)
	second, err := s.uc.CustomFields.Set(ctx, s.actor, person.ID, "source_of_funds", usecase.CustomFieldInput{Value: "inheritance", Category: "financial", DisplayOrder: 2})
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal("inheritance", second.Value)
	s.True(first.CreatedAt.Equal(second.CreatedAt))

	_, err = s.uc.CustomFields.Set(ctx, s.actor, person.ID, "passport_number", usecase.CustomFieldInput{Value: "X1234567", IsSensitive: true})
	s.Require().NoError(err)

	fields, err := s.uc.CustomFields.List(ctx, s.actor, person.ID, "")
	s.Require().NoError(err)
	s.Require().Len(fields, 2)
	s.Equal("passport_number", fields[0].Key)
	s.NotEqual("X1234567", fields[0].Value)

	financial, err := s.uc.CustomFields.List(ctx, s.actor, person.ID, "financial")
	s.Require().NoError(err)
	s.Len(financial, 1)

	other := s.newTenant("initech")
	_, err = s.uc.CustomFields.Get(ctx, other, person.ID, "source_of_funds")
	s.ErrorIs(err, domain.ErrNotFound)
}
