package domain

import (
	"time"
)

// TemporalState narrows edges by their effective range at AsOf.
type TemporalState string

const (
	TemporalAny     TemporalState = ""
	TemporalCurrent TemporalState = "current"
	TemporalExpired TemporalState = "expired"
	TemporalFuture  TemporalState = "future"
)

func (s TemporalState) Valid() bool {
	switch s {
	case TemporalAny, TemporalCurrent, TemporalExpired, TemporalFuture:
		return true
	}
	return false
}

type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) validate(field string) error {
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return Invalid(field, "range end is before range start")
	}
	return nil
}

type PercentRange struct {
	Min *float64
	Max *float64
}

func (r PercentRange) validate(field string) error {
	if err := ValidatePercentage(field+".min", r.Min); err != nil {
		return err
	}
	if err := ValidatePercentage(field+".max", r.Max); err != nil {
		return err
	}
	if r.Min != nil && r.Max != nil && *r.Max < *r.Min {
		return Invalid(field, "max is below min")
	}
	return nil
}

// Scope controls which soft-deleted or inactive rows a query may return.
type Scope struct {
	IncludeInactive bool
	IncludeDeleted  bool
}

type RelationshipFilter struct {
	Scope
	SubscriberID      string // restricts to edges whose primary side belongs to the tenant
	PrimaryIDs        []string
	RelatedIDs        []string
	EntityIDs         []string // matches either side
	RelationshipTypes []RelationshipType
	Verified          *bool
	Temporal          TemporalState
	EffectiveFrom     DateRange
	EffectiveTo       DateRange
	CreatedAt         DateRange
	Ownership         PercentRange
	CreatedBy         []string
	Search            string
	AsOf              time.Time
}

func (f RelationshipFilter) Validate(kind EdgeKind) error {
	for _, t := range f.RelationshipTypes {
		if !kind.Allows(t) {
			return Invalid("relationshipTypes", "unknown value "+string(t))
		}
	}
	if !f.Temporal.Valid() {
		return Invalid("temporal", "unknown value "+string(f.Temporal))
	}
	if err := f.EffectiveFrom.validate("effectiveFrom"); err != nil {
		return err
	}
	if err := f.EffectiveTo.validate("effectiveTo"); err != nil {
		return err
	}
	if err := f.CreatedAt.validate("createdAt"); err != nil {
		return err
	}
	return f.Ownership.validate("ownership")
}

type AssociationFilter struct {
	Scope
	SubscriberID                 string
	OrganizationIDs              []string
	IndividualIDs                []string
	RelationshipTypes            []RelationshipType
	OwnershipTypes               []OwnershipType
	RiskLevels                   []RiskLevel
	ControlLevels                []ControlLevel
	VerificationStatuses         []VerificationStatus
	IsBeneficialOwner            *bool
	IsUltimateBeneficialOwner    *bool
	IsKeyManagementPersonnel     *bool
	IsAuthorizedSignatory        *bool
	HasSigningAuthority          *bool
	IsPEP                        *bool
	IsSanctionsRelated           *bool
	RequiresEnhancedDueDiligence *bool
	SignificantControl           *bool
	HighRisk                     *bool
	NeedsReview                  *bool
	Temporal                     TemporalState
	EffectiveFrom                DateRange
	EffectiveTo                  DateRange
	CreatedAt                    DateRange
	Ownership                    PercentRange
	Voting                       PercentRange
	CreatedBy                    []string
	Search                       string
	AsOf                         time.Time
}

func (f AssociationFilter) Validate() error {
	for _, t := range f.RelationshipTypes {
		if !KindOrganizationAssociation.Allows(t) {
			return Invalid("relationshipTypes", "unknown value "+string(t))
		}
	}
	for _, o := range f.OwnershipTypes {
		if !o.Valid() {
			return Invalid("ownershipTypes", "unknown value "+string(o))
		}
	}
	for _, r := range f.RiskLevels {
		if !r.Valid() {
			return Invalid("riskLevels", "unknown value "+string(r))
		}
	}
	for _, c := range f.ControlLevels {
		if !c.Valid() {
			return Invalid("controlLevels", "unknown value "+string(c))
		}
	}
	for _, v := range f.VerificationStatuses {
		switch v {
		case VerificationUnverified, VerificationVerified, VerificationExpired:
		default:
			return Invalid("verificationStatuses", "unknown value "+string(v))
		}
	}
	if !f.Temporal.Valid() {
		return Invalid("temporal", "unknown value "+string(f.Temporal))
	}
	for field, r := range map[string]DateRange{
		"effectiveFrom": f.EffectiveFrom,
		"effectiveTo":   f.EffectiveTo,
		"createdAt":     f.CreatedAt,
	} {
		if err := r.validate(field); err != nil {
			return err
		}
	}
	if err := f.Ownership.validate("ownership"); err != nil {
		return err
	}
	return f.Voting.validate("voting")
}

type EntityFilter struct {
	Scope
	SubscriberID      string
	EntityTypes       []EntityType
	Statuses          []EntityStatus
	RiskLevels        []RiskLevel
	ScreeningStatuses []ScreeningStatus
	CreatedAt         DateRange
	Search            string
}

func (f EntityFilter) Validate() error {
	for _, t := range f.EntityTypes {
		if t != EntityTypeIndividual && t != EntityTypeOrganization {
			return Invalid("entityTypes", "unknown value "+string(t))
		}
	}
	for _, r := range f.RiskLevels {
		if !r.Valid() {
			return Invalid("riskLevels", "unknown value "+string(r))
		}
	}
	for _, s := range f.ScreeningStatuses {
		if !s.Valid() {
			return Invalid("screeningStatuses", "unknown value "+string(s))
		}
	}
	return f.CreatedAt.validate("createdAt")
}
