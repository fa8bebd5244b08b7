package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type OwnershipType string

const (
	OwnershipDirect     OwnershipType = "DIRECT"
	OwnershipIndirect   OwnershipType = "INDIRECT"
	OwnershipBeneficial OwnershipType = "BENEFICIAL"
)

func (o OwnershipType) Valid() bool {
	switch o {
	case OwnershipDirect, OwnershipIndirect, OwnershipBeneficial:
		return true
	}
	return false
}

// Association links an individual (RelatedID) to an organization (PrimaryID).
type Association struct {
	Edge

	OwnershipType                *OwnershipType `json:"ownershipType,omitempty"`
	VotingRightsPercentage       *float64       `json:"votingRightsPercentage,omitempty"`
	PositionTitle                string         `json:"positionTitle,omitempty"`
	HasSigningAuthority          bool           `json:"hasSigningAuthority"`
	IsBeneficialOwner            bool           `json:"isBeneficialOwner"`
	IsUltimateBeneficialOwner    bool           `json:"isUltimateBeneficialOwner"`
	IsKeyManagementPersonnel     bool           `json:"isKeyManagementPersonnel"`
	IsAuthorizedSignatory        bool           `json:"isAuthorizedSignatory"`
	IsPEP                        bool           `json:"isPep"`
	IsSanctionsRelated           bool           `json:"isSanctionsRelated"`
	RequiresEnhancedDueDiligence bool           `json:"requiresEnhancedDueDiligence"`
	RiskLevel                    *RiskLevel     `json:"riskLevel,omitempty"`
	RiskFactors                  []string       `json:"riskFactors,omitempty"`
	NumberOfShares               *int64         `json:"numberOfShares,omitempty"`
	ShareClass                   string         `json:"shareClass,omitempty"`
	Notes                        string         `json:"notes,omitempty"`
	LastReviewedAt               *time.Time     `json:"lastReviewedAt,omitempty"`
	ReviewedBy                   *string        `json:"reviewedBy,omitempty"`
	NextReviewDate               *time.Time     `json:"nextReviewDate,omitempty"`
}

func (a Association) OrganizationID() string { return a.PrimaryID }
func (a Association) IndividualID() string   { return a.RelatedID }

type AssociationInput struct {
	OrganizationID      string
	IndividualID        string
	RelationshipType    RelationshipType
	OwnershipPercentage *float64
	EffectiveFrom       time.Time
	EffectiveTo         *time.Time
	Description         string
	CreatedBy           string

	OwnershipType                *OwnershipType
	VotingRightsPercentage       *float64
	PositionTitle                string
	HasSigningAuthority          bool
	IsBeneficialOwner            bool
	IsUltimateBeneficialOwner    bool
	IsKeyManagementPersonnel     bool
	IsAuthorizedSignatory        bool
	IsPEP                        bool
	IsSanctionsRelated           bool
	RequiresEnhancedDueDiligence bool
	RiskLevel                    *RiskLevel
	RiskFactors                  []string
	NumberOfShares               *int64
	ShareClass                   string
	Notes                        string
	NextReviewDate               *time.Time
}

func NewAssociation(in AssociationInput, now time.Time) (Association, error) {
	edge, err := NewEdge(EdgeInput{
		Kind:                KindOrganizationAssociation,
		PrimaryID:           in.OrganizationID,
		RelatedID:           in.IndividualID,
		RelationshipType:    in.RelationshipType,
		OwnershipPercentage: in.OwnershipPercentage,
		EffectiveFrom:       in.EffectiveFrom,
		EffectiveTo:         in.EffectiveTo,
		Description:         in.Description,
		CreatedBy:           in.CreatedBy,
	}, now)
	if err != nil {
		return Association{}, err
	}
	if err := ValidatePercentage("votingRightsPercentage", in.VotingRightsPercentage); err != nil {
		return Association{}, err
	}
	if in.OwnershipType != nil && !in.OwnershipType.Valid() {
		return Association{}, Invalid("ownershipType", "unknown value "+string(*in.OwnershipType))
	}
	if in.RiskLevel != nil && !in.RiskLevel.Valid() {
		return Association{}, Invalid("riskLevel", "unknown value "+string(*in.RiskLevel))
	}
	if in.NumberOfShares != nil && *in.NumberOfShares < 0 {
		return Association{}, Invalid("numberOfShares", "must not be negative")
	}

	return Association{
		Edge:                         edge,
		OwnershipType:                in.OwnershipType,
		VotingRightsPercentage:       in.VotingRightsPercentage,
		PositionTitle:                in.PositionTitle,
		HasSigningAuthority:          in.HasSigningAuthority,
		IsBeneficialOwner:            in.IsBeneficialOwner,
		IsUltimateBeneficialOwner:    in.IsUltimateBeneficialOwner,
		IsKeyManagementPersonnel:     in.IsKeyManagementPersonnel,
		IsAuthorizedSignatory:        in.IsAuthorizedSignatory,
		IsPEP:                        in.IsPEP,
		IsSanctionsRelated:           in.IsSanctionsRelated,
		RequiresEnhancedDueDiligence: in.RequiresEnhancedDueDiligence,
		RiskLevel:                    in.RiskLevel,
		RiskFactors:                  in.RiskFactors,
		NumberOfShares:               in.NumberOfShares,
		ShareClass:                   in.ShareClass,
		Notes:                        in.Notes,
		NextReviewDate:               in.NextReviewDate,
	}, nil
}

// FinancialSummary renders the stake held, or "" when nothing is recorded.
func FinancialSummary(a Association) string {
	var parts []string
	if a.OwnershipPercentage != nil {
		parts = append(parts, formatPercent(*a.OwnershipPercentage)+" ownership")
	}
	if a.VotingRightsPercentage != nil {
		parts = append(parts, formatPercent(*a.VotingRightsPercentage)+" voting rights")
	}
	if a.NumberOfShares != nil {
		shares := fmt.Sprintf("%d shares", *a.NumberOfShares)
		if a.ShareClass != "" {
			shares += " (" + a.ShareClass + ")"
		}
		parts = append(parts, shares)
	}
	return strings.Join(parts, ", ")
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// MarkReviewed stamps a review and schedules the next one.
func MarkReviewed(a Association, reviewer string, next *time.Time, at time.Time) (Association, error) {
	if next != nil && Day(*next).Before(Day(at)) {
		return Association{}, Invalid("nextReviewDate", "must not be in the past")
	}
	a.LastReviewedAt = &at
	a.ReviewedBy = &reviewer
	a.NextReviewDate = next
	a.UpdatedAt = at
	return a, nil
}
