// Package fixtures builds deterministic KYC datasets through the usecases.
package fixtures

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/usecase"
)

type Onboarder interface {
	Onboard(ctx context.Context, actor domain.Actor, in usecase.OnboardInput) (domain.Entity, error)
}

type Associator interface {
	Create(ctx context.Context, actor domain.Actor, in domain.AssociationInput) (domain.Association, error)
}

type Relator interface {
	Create(ctx context.Context, actor domain.Actor, in usecase.CreateRelationshipInput) (usecase.RelationshipResult, error)
}

// Targets are the write paths a dataset is pushed through. Nil relators are
// skipped.
type Targets struct {
	Entities                  Onboarder
	Associations              Associator
	OrganizationRelationships Relator
	IndividualRelationships   Relator
	EntityRelationships       Relator
}

type Options struct {
	Seed          uint64
	Individuals   int
	Organizations int
	// Reciprocal is the probability that a relationship with a known mirror
	// type is created together with its reciprocal edge.
	Reciprocal float64
	Now        time.Time
}

func DefaultOptions() Options {
	return Options{
		Seed:          1,
		Individuals:   12,
		Organizations: 4,
		Reciprocal:    0.5,
	}
}

type Dataset struct {
	Individuals   []domain.Entity
	Organizations []domain.Entity
	Associations  []domain.Association
	Relationships []domain.Edge
}

type associationProfile struct {
	ownership    [2]int
	hasOwnership bool
	title        []string
	signing      bool
}

var associationProfiles = map[domain.RelationshipType]associationProfile{
	domain.AssocUBO:             {ownership: [2]int{25, 100}, hasOwnership: true},
	domain.AssocShareholder:     {ownership: [2]int{1, 49}, hasOwnership: true},
	domain.AssocBeneficialOwner: {ownership: [2]int{10, 100}, hasOwnership: true},
	domain.AssocTrustee:         {},
	domain.AssocSettlor:         {ownership: [2]int{50, 100}, hasOwnership: true},
	domain.AssocCEO:             {title: []string{"Chief Executive Officer", "President & CEO", "Managing Director"}, signing: true},
	domain.AssocCFO:             {title: []string{"Chief Financial Officer", "Finance Director"}, signing: true},
	domain.AssocDirector:        {title: []string{"Board Director", "Executive Director", "Non-Executive Director"}, signing: true},
	domain.AssocManager:         {title: []string{"General Manager", "Operations Manager"}},
	domain.AssocBoardMember:     {title: []string{"Board Member", "Independent Director"}},
	domain.AssocSecretary:       {title: []string{"Company Secretary"}, signing: true},
	domain.AssocCEOShareholder:  {ownership: [2]int{15, 75}, hasOwnership: true, title: []string{"CEO & Founder"}, signing: true},
	domain.AssocDirectorUBO:     {ownership: [2]int{25, 100}, hasOwnership: true, title: []string{"Director & Owner"}, signing: true},
}

// associationTypes fixes the draw order; map iteration is random.
var associationTypes = []domain.RelationshipType{
	domain.AssocShareholder, domain.AssocBeneficialOwner, domain.AssocTrustee, domain.AssocSettlor,
	domain.AssocCFO, domain.AssocDirector, domain.AssocManager, domain.AssocBoardMember,
	domain.AssocSecretary, domain.AssocCEOShareholder, domain.AssocDirectorUBO,
}

var (
	organizationTypes = []domain.RelationshipType{
		domain.RelParent, domain.RelAffiliate, domain.RelPartner, domain.RelSisterCompany, domain.RelBranch,
	}
	individualTypes = []domain.RelationshipType{
		domain.RelSpouse, domain.RelParent, domain.RelSibling, domain.RelBusinessPartner, domain.RelAssociate,
	}
	entityTypes = []domain.RelationshipType{
		domain.RelOwns, domain.RelControls, domain.RelAffiliate,
	}
	givenNames   = []string{"Amina", "Lukas", "Sofia", "Kenji", "Maya", "Omar", "Elena", "Tariq", "Ines", "Jonas"}
	familyNames  = []string{"Haddad", "Schmidt", "Rossi", "Tanaka", "Novak", "Farouk", "Silva", "Berg", "Costa", "Moreau"}
	companyWords = []string{"Atlas", "Meridian", "Northwind", "Cobalt", "Harbor", "Summit", "Vertex", "Lumen"}
	companyForms = []string{"Holdings", "Trading", "Capital", "Logistics", "Partners"}
	countries    = []string{"AE", "DE", "GB", "JP", "FR", "SA", "US"}
)

type Generator struct {
	opts Options
	rnd  *rand.Rand
}

func New(opts Options) *Generator {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	return &Generator{
		opts: opts,
		rnd:  rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
}

func (g *Generator) pick(n int) int { return g.rnd.IntN(n) }

func (g *Generator) chance(p float64) bool { return g.rnd.Float64() < p }

func (g *Generator) daysAgo(days int) time.Time {
	return domain.Day(g.opts.Now.AddDate(0, 0, -g.rnd.IntN(days)))
}

func (g *Generator) individual() usecase.OnboardInput {
	dob := time.Date(1950+g.pick(50), time.Month(1+g.pick(12)), 1+g.pick(28), 0, 0, 0, 0, time.UTC)
	return usecase.OnboardInput{
		EntityType: domain.EntityTypeIndividual,
		Name:       fmt.Sprintf("%s %s", givenNames[g.pick(len(givenNames))], familyNames[g.pick(len(familyNames))]),
		Individual: &domain.IndividualProfile{
			DateOfBirth:        &dob,
			Nationality:        []string{countries[g.pick(len(countries))]},
			CountryOfResidence: countries[g.pick(len(countries))],
			NationalID:         fmt.Sprintf("ID%08d", g.rnd.IntN(100000000)),
			IsPEP:              g.chance(0.05),
		},
	}
}

func (g *Generator) organization(i int) usecase.OnboardInput {
	name := fmt.Sprintf("%s %s %d", companyWords[g.pick(len(companyWords))], companyForms[g.pick(len(companyForms))], i+1)
	return usecase.OnboardInput{
		EntityType: domain.EntityTypeOrganization,
		Organization: &domain.OrganizationProfile{
			LegalName:              name,
			CountryOfIncorporation: countries[g.pick(len(countries))],
			RegistrationNumber:     fmt.Sprintf("CR%07d", g.rnd.IntN(10000000)),
		},
	}
}

func (g *Generator) association(org, ind domain.Entity, t domain.RelationshipType, createdBy string) domain.AssociationInput {
	profile := associationProfiles[t]
	in := domain.AssociationInput{
		OrganizationID:   org.ID,
		IndividualID:     ind.ID,
		RelationshipType: t,
		EffectiveFrom:    g.daysAgo(365 * 8),
		CreatedBy:        createdBy,
	}
	if profile.hasOwnership && g.chance(0.9) {
		lo, hi := profile.ownership[0], profile.ownership[1]
		pct := float64(lo + g.rnd.IntN(hi-lo+1))
		kinds := []domain.OwnershipType{domain.OwnershipDirect, domain.OwnershipIndirect, domain.OwnershipBeneficial}
		kind := kinds[g.pick(len(kinds))]
		in.OwnershipPercentage = &pct
		in.OwnershipType = &kind
		in.IsBeneficialOwner = pct >= 25
	}
	if len(profile.title) > 0 {
		in.PositionTitle = profile.title[g.pick(len(profile.title))]
		in.IsKeyManagementPersonnel = true
	}
	in.HasSigningAuthority = profile.signing && g.chance(0.8)
	in.IsAuthorizedSignatory = in.HasSigningAuthority
	if t == domain.AssocUBO || t == domain.AssocDirectorUBO {
		in.IsBeneficialOwner = true
		in.IsUltimateBeneficialOwner = true
	}
	if !g.chance(0.9) {
		end := g.opts.Now.AddDate(0, 0, -1-g.rnd.IntN(30))
		if end.Before(in.EffectiveFrom) {
			end = in.EffectiveFrom
		}
		end = domain.Day(end)
		in.EffectiveTo = &end
	}
	return in
}

func (g *Generator) relationship(types []domain.RelationshipType, kind domain.EdgeKind, from, to domain.Entity) usecase.CreateRelationshipInput {
	t := types[g.pick(len(types))]
	in := usecase.CreateRelationshipInput{
		PrimaryID:        from.ID,
		RelatedID:        to.ID,
		RelationshipType: t,
		EffectiveFrom:    g.daysAgo(365 * 5),
	}
	if t == domain.RelOwns || (t == domain.RelParent && kind != domain.KindIndividualRelationship) {
		pct := float64(10 + g.rnd.IntN(91))
		in.OwnershipPercentage = &pct
	}
	if _, ok := domain.ReciprocalType(kind, t); ok {
		in.CreateReciprocal = g.chance(g.opts.Reciprocal)
	}
	return in
}

// Generate pushes a dataset for actor's tenant through t. The same options
// always produce the same sequence of writes.
func (g *Generator) Generate(ctx context.Context, actor domain.Actor, t Targets) (Dataset, error) {
	var ds Dataset

	for i := 0; i < g.opts.Individuals; i++ {
		e, err := t.Entities.Onboard(ctx, actor, g.individual())
		if err != nil {
			return ds, errors.Wrap(err, "onboard individual")
		}
		ds.Individuals = append(ds.Individuals, e)
	}
	for i := 0; i < g.opts.Organizations; i++ {
		e, err := t.Entities.Onboard(ctx, actor, g.organization(i))
		if err != nil {
			return ds, errors.Wrap(err, "onboard organization")
		}
		ds.Organizations = append(ds.Organizations, e)
	}

	if t.Associations != nil && len(ds.Individuals) > 0 {
		for _, org := range ds.Organizations {
			if err := g.associate(ctx, actor, t.Associations, org, ds.Individuals, &ds); err != nil {
				return ds, err
			}
		}
	}

	if t.OrganizationRelationships != nil {
		if err := g.link(ctx, actor, t.OrganizationRelationships, domain.KindOrganizationRelationship, organizationTypes, ds.Organizations, &ds); err != nil {
			return ds, err
		}
	}
	if t.IndividualRelationships != nil {
		if err := g.link(ctx, actor, t.IndividualRelationships, domain.KindIndividualRelationship, individualTypes, ds.Individuals, &ds); err != nil {
			return ds, err
		}
	}
	if t.EntityRelationships != nil {
		if err := g.link(ctx, actor, t.EntityRelationships, domain.KindEntityRelationship, entityTypes, ds.Organizations, &ds); err != nil {
			return ds, err
		}
	}
	return ds, nil
}

// associate gives org a UBO, a CEO and a few random links, each to a
// different individual.
func (g *Generator) associate(ctx context.Context, actor domain.Actor, a Associator, org domain.Entity, people []domain.Entity, ds *Dataset) error {
	count := 2 + g.rnd.IntN(7)
	if count > len(people) {
		count = len(people)
	}
	types := []domain.RelationshipType{domain.AssocUBO, domain.AssocCEO}
	for len(types) < count {
		types = append(types, associationTypes[g.pick(len(associationTypes))])
	}
	order := g.rnd.Perm(len(people))
	for i, t := range types[:count] {
		created, err := a.Create(ctx, actor, g.association(org, people[order[i]], t, actor.UserID))
		if err != nil {
			return errors.Wrapf(err, "associate %s with %s", t, org.ID)
		}
		ds.Associations = append(ds.Associations, created)
	}
	return nil
}

// link draws one edge per consecutive pair so no pair repeats.
func (g *Generator) link(
	ctx context.Context,
	actor domain.Actor,
	r Relator,
	kind domain.EdgeKind,
	types []domain.RelationshipType,
	parties []domain.Entity,
	ds *Dataset,
) error {
	for i := 0; i+1 < len(parties); i++ {
		result, err := r.Create(ctx, actor, g.relationship(types, kind, parties[i], parties[i+1]))
		if err != nil {
			return errors.Wrapf(err, "create %s", kind)
		}
		ds.Relationships = append(ds.Relationships, result.Edge)
		if result.Reciprocal != nil {
			ds.Relationships = append(ds.Relationships, *result.Reciprocal)
		}
	}
	return nil
}
