package domain

import (
	"encoding/json"
	"math"
	"time"
)

// EdgeKind names the table an edge lives in.
type EdgeKind string

const (
	KindOrganizationRelationship EdgeKind = "organization_relationship"
	KindIndividualRelationship   EdgeKind = "individual_relationship"
	KindOrganizationAssociation  EdgeKind = "organization_association"
	KindEntityRelationship       EdgeKind = "entity_relationship"
)

// Endpoints returns the entity types required for the primary and related side.
// An empty type means any entity type is accepted.
func (k EdgeKind) Endpoints() (primary, related EntityType) {
	switch k {
	case KindOrganizationRelationship:
		return EntityTypeOrganization, EntityTypeOrganization
	case KindIndividualRelationship:
		return EntityTypeIndividual, EntityTypeIndividual
	case KindOrganizationAssociation:
		return EntityTypeOrganization, EntityTypeIndividual
	}
	return "", ""
}

func (k EdgeKind) Valid() bool {
	_, ok := relationshipTypes[k]
	return ok
}

type RelationshipType string

// organization <-> organization
const (
	RelParent        RelationshipType = "PARENT"
	RelSubsidiary    RelationshipType = "SUBSIDIARY"
	RelAffiliate     RelationshipType = "AFFILIATE"
	RelJointVenture  RelationshipType = "JOINT_VENTURE"
	RelBranch        RelationshipType = "BRANCH"
	RelSisterCompany RelationshipType = "SISTER_COMPANY"
	RelPartner       RelationshipType = "PARTNER"
)

// individual <-> individual
const (
	RelSpouse          RelationshipType = "SPOUSE"
	RelChild           RelationshipType = "CHILD"
	RelSibling         RelationshipType = "SIBLING"
	RelRelative        RelationshipType = "RELATIVE"
	RelBusinessPartner RelationshipType = "BUSINESS_PARTNER"
	RelAssociate       RelationshipType = "ASSOCIATE"
	RelGuardian        RelationshipType = "GUARDIAN"
	RelWard            RelationshipType = "WARD"
	RelBeneficiary     RelationshipType = "BENEFICIARY"
)

// individual -> organization
const (
	AssocUBO                 RelationshipType = "UBO"
	AssocShareholder         RelationshipType = "SHAREHOLDER"
	AssocBeneficialOwner     RelationshipType = "BENEFICIAL_OWNER"
	AssocTrustee             RelationshipType = "TRUSTEE"
	AssocSettlor             RelationshipType = "SETTLOR"
	AssocCEO                 RelationshipType = "CEO"
	AssocCFO                 RelationshipType = "CFO"
	AssocCOO                 RelationshipType = "COO"
	AssocDirector            RelationshipType = "DIRECTOR"
	AssocManager             RelationshipType = "MANAGER"
	AssocBoardMember         RelationshipType = "BOARD_MEMBER"
	AssocSecretary           RelationshipType = "SECRETARY"
	AssocTreasurer           RelationshipType = "TREASURER"
	AssocAuthorizedSignatory RelationshipType = "AUTHORIZED_SIGNATORY"
	AssocCEOShareholder      RelationshipType = "CEO_SHAREHOLDER"
	AssocDirectorUBO         RelationshipType = "DIRECTOR_UBO"
	AssocOther               RelationshipType = "OTHER"
)

// entity -> entity
const (
	RelOwns         RelationshipType = "OWNS"
	RelOwnedBy      RelationshipType = "OWNED_BY"
	RelControls     RelationshipType = "CONTROLS"
	RelControlledBy RelationshipType = "CONTROLLED_BY"
)

func typeSet(types ...RelationshipType) map[RelationshipType]struct{} {
	set := make(map[RelationshipType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

var relationshipTypes = map[EdgeKind]map[RelationshipType]struct{}{
	KindOrganizationRelationship: typeSet(
		RelParent, RelSubsidiary, RelAffiliate, RelJointVenture, RelBranch, RelSisterCompany, RelPartner,
	),
	KindIndividualRelationship: typeSet(
		RelSpouse, RelChild, RelParent, RelSibling, RelRelative, RelBusinessPartner,
		RelAssociate, RelGuardian, RelWard, RelBeneficiary,
	),
	KindOrganizationAssociation: typeSet(
		AssocUBO, AssocShareholder, AssocBeneficialOwner, AssocTrustee, AssocSettlor,
		AssocCEO, AssocCFO, AssocCOO, AssocDirector, AssocManager, AssocBoardMember,
		AssocSecretary, AssocTreasurer, AssocAuthorizedSignatory, AssocCEOShareholder,
		AssocDirectorUBO, AssocOther,
	),
	KindEntityRelationship: typeSet(
		RelOwns, RelOwnedBy, RelControls, RelControlledBy,
		RelParent, RelSubsidiary, RelAffiliate, RelPartner,
	),
}

// Allows reports whether t is a member of the kind's closed enumeration.
func (k EdgeKind) Allows(t RelationshipType) bool {
	_, ok := relationshipTypes[k][t]
	return ok
}

var reciprocals = map[EdgeKind]map[RelationshipType]RelationshipType{
	KindOrganizationRelationship: {
		RelParent:        RelSubsidiary,
		RelSubsidiary:    RelParent,
		RelSisterCompany: RelSisterCompany,
		RelPartner:       RelPartner,
		RelAffiliate:     RelAffiliate,
		RelJointVenture:  RelJointVenture,
	},
	KindIndividualRelationship: {
		RelSpouse:          RelSpouse,
		RelParent:          RelChild,
		RelChild:           RelParent,
		RelSibling:         RelSibling,
		RelGuardian:        RelWard,
		RelWard:            RelGuardian,
		RelBusinessPartner: RelBusinessPartner,
	},
	KindEntityRelationship: {
		RelOwns:         RelOwnedBy,
		RelOwnedBy:      RelOwns,
		RelControls:     RelControlledBy,
		RelControlledBy: RelControls,
		RelParent:       RelSubsidiary,
		RelSubsidiary:   RelParent,
		RelPartner:      RelPartner,
		RelAffiliate:    RelAffiliate,
	},
}

// ReciprocalType returns the type the related side would use to describe the
// same link. Nothing creates reciprocal rows implicitly.
func ReciprocalType(kind EdgeKind, t RelationshipType) (RelationshipType, bool) {
	r, ok := reciprocals[kind][t]
	return r, ok
}

// Edge is the shape shared by every relationship table.
type Edge struct {
	ID                  string           `json:"id"`
	Kind                EdgeKind         `json:"kind"`
	PrimaryID           string           `json:"primaryId"`
	RelatedID           string           `json:"relatedId"`
	RelationshipType    RelationshipType `json:"relationshipType"`
	OwnershipPercentage *float64         `json:"ownershipPercentage,omitempty"`
	EffectiveFrom       time.Time        `json:"effectiveFrom"`
	EffectiveTo         *time.Time       `json:"effectiveTo,omitempty"`
	IsActive            bool             `json:"isActive"`
	Verified            bool             `json:"verified"`
	VerifiedBy          *string          `json:"verifiedBy,omitempty"`
	VerifiedAt          *time.Time       `json:"verifiedAt,omitempty"`
	VerificationMethod  string           `json:"verificationMethod,omitempty"`
	Description         string           `json:"description,omitempty"`
	Metadata            json.RawMessage  `json:"metadata,omitempty"`
	CreatedBy           string           `json:"createdBy"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
	DeletedAt           *time.Time       `json:"deletedAt,omitempty"`
}

type EdgeInput struct {
	Kind                EdgeKind
	PrimaryID           string
	RelatedID           string
	RelationshipType    RelationshipType
	OwnershipPercentage *float64
	EffectiveFrom       time.Time
	EffectiveTo         *time.Time
	Description         string
	Metadata            json.RawMessage
	CreatedBy           string
}

// NewEdge validates input and builds an unsaved edge. Endpoint existence is
// checked against storage by the caller.
func NewEdge(in EdgeInput, now time.Time) (Edge, error) {
	if !in.Kind.Valid() {
		return Edge{}, Invalid("kind", "unknown edge kind")
	}
	if in.PrimaryID == "" {
		return Edge{}, Invalid("primaryId", "required")
	}
	if in.RelatedID == "" {
		return Edge{}, Invalid("relatedId", "required")
	}
	if in.PrimaryID == in.RelatedID {
		return Edge{}, Invalid("relatedId", "self-relationship is not allowed")
	}
	if !in.Kind.Allows(in.RelationshipType) {
		return Edge{}, Invalid("relationshipType", "unknown value "+string(in.RelationshipType))
	}
	if err := ValidatePercentage("ownershipPercentage", in.OwnershipPercentage); err != nil {
		return Edge{}, err
	}
	if in.CreatedBy == "" {
		return Edge{}, Invalid("createdBy", "required")
	}
	if len(in.Metadata) > 0 && !json.Valid(in.Metadata) {
		return Edge{}, Invalid("metadata", "must be valid JSON")
	}

	from := Day(in.EffectiveFrom)
	if in.EffectiveFrom.IsZero() {
		from = Day(now)
	}
	var to *time.Time
	if in.EffectiveTo != nil {
		d := Day(*in.EffectiveTo)
		if d.Before(from) {
			return Edge{}, Invalid("effectiveTo", "must not be before effectiveFrom")
		}
		to = &d
	}

	return Edge{
		Kind:                in.Kind,
		PrimaryID:           in.PrimaryID,
		RelatedID:           in.RelatedID,
		RelationshipType:    in.RelationshipType,
		OwnershipPercentage: in.OwnershipPercentage,
		EffectiveFrom:       from,
		EffectiveTo:         to,
		IsActive:            true,
		Description:         in.Description,
		Metadata:            in.Metadata,
		CreatedBy:           in.CreatedBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// ValidatePercentage accepts nil or a finite value within [0, 100].
func ValidatePercentage(field string, p *float64) error {
	if p == nil {
		return nil
	}
	v := *p
	if math.IsNaN(v) || v < 0 || v > 100 {
		return Invalid(field, "must be between 0 and 100")
	}
	return nil
}

// Day truncates t to its UTC calendar date. Effective ranges are compared per day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func IsCurrent(e Edge, asOf time.Time) bool {
	if !e.IsActive || e.DeletedAt != nil {
		return false
	}
	if Day(e.EffectiveFrom).After(Day(asOf)) {
		return false
	}
	return e.EffectiveTo == nil || !Day(*e.EffectiveTo).Before(Day(asOf))
}

func IsExpired(e Edge, asOf time.Time) bool {
	return e.EffectiveTo != nil && Day(*e.EffectiveTo).Before(Day(asOf))
}

func IsFuture(e Edge, asOf time.Time) bool {
	return Day(e.EffectiveFrom).After(Day(asOf))
}

// DurationDays counts days from effectiveFrom to effectiveTo, or to asOf while
// the edge is open. Nil when effectiveFrom is unset; never negative.
func DurationDays(e Edge, asOf time.Time) *int {
	if e.EffectiveFrom.IsZero() {
		return nil
	}
	end := asOf
	if e.EffectiveTo != nil {
		end = *e.EffectiveTo
	}
	days := int(math.Ceil(end.Sub(e.EffectiveFrom).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return &days
}

type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
	VerificationExpired    VerificationStatus = "expired"
)

// VerificationStatusOf applies the default freshness window.
func VerificationStatusOf(e Edge, asOf time.Time) VerificationStatus {
	return DefaultControlThresholds.VerificationStatus(e, asOf)
}

func VerificationCutoff(asOf time.Time) time.Time {
	return DefaultControlThresholds.VerificationCutoff(asOf)
}

// MarkVerified returns a copy of e verified by verifier at the given time.
// Re-verifying only refreshes the attribution and timestamp.
func MarkVerified(e Edge, verifier, method string, at time.Time) Edge {
	e.Verified = true
	e.VerifiedBy = &verifier
	e.VerifiedAt = &at
	if method != "" {
		e.VerificationMethod = method
	}
	e.UpdatedAt = at
	return e
}

// Retire closes the effective range and deactivates the edge.
func Retire(e Edge, effectiveTo, at time.Time) (Edge, error) {
	if Day(effectiveTo).Before(Day(e.EffectiveFrom)) {
		return Edge{}, Invalid("effectiveTo", "must not be before effectiveFrom")
	}
	to := Day(effectiveTo)
	e.EffectiveTo = &to
	e.IsActive = false
	e.UpdatedAt = at
	return e, nil
}
