package domain

import (
	"time"
)

// Beneficial-ownership thresholds, in percent.
const (
	SignificantControlThreshold = 25.0
	ControllingThreshold        = 50.0
)

type ControlLevel string

const (
	ControlNone        ControlLevel = "none"
	ControlMinor       ControlLevel = "minor"
	ControlSignificant ControlLevel = "significant"
	ControlControlling ControlLevel = "controlling"
	ControlUltimate    ControlLevel = "ultimate"
)

func (c ControlLevel) Valid() bool {
	switch c {
	case ControlNone, ControlMinor, ControlSignificant, ControlControlling, ControlUltimate:
		return true
	}
	return false
}

// ControlThresholds lets a jurisdiction override the default percentages
// and the verification freshness window. A zero FreshnessMonths means
// VerificationFreshnessMonths.
type ControlThresholds struct {
	Significant     float64
	Controlling     float64
	FreshnessMonths int
}

var DefaultControlThresholds = ControlThresholds{
	Significant:     SignificantControlThreshold,
	Controlling:     ControllingThreshold,
	FreshnessMonths: VerificationFreshnessMonths,
}

func (t ControlThresholds) Validate() error {
	if t.Significant <= 0 || t.Significant > 100 {
		return Invalid("significant", "must be within (0, 100]")
	}
	if t.Controlling < t.Significant || t.Controlling > 100 {
		return Invalid("controlling", "must be within [significant, 100]")
	}
	if t.FreshnessMonths < 0 {
		return Invalid("freshnessMonths", "must not be negative")
	}
	return nil
}

// VerificationCutoff is the oldest verifiedAt still considered fresh at asOf.
func (t ControlThresholds) VerificationCutoff(asOf time.Time) time.Time {
	months := t.FreshnessMonths
	if months == 0 {
		months = VerificationFreshnessMonths
	}
	return asOf.AddDate(0, -months, 0)
}

// VerificationStatus applies the freshness window to a verified edge.
func (t ControlThresholds) VerificationStatus(e Edge, asOf time.Time) VerificationStatus {
	if !e.Verified {
		return VerificationUnverified
	}
	if e.VerifiedAt != nil && e.VerifiedAt.Before(t.VerificationCutoff(asOf)) {
		return VerificationExpired
	}
	return VerificationVerified
}

func pct(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func maxStake(a Association) float64 {
	return max(pct(a.OwnershipPercentage), pct(a.VotingRightsPercentage))
}

func (t ControlThresholds) IsSignificantControl(a Association) bool {
	return pct(a.OwnershipPercentage) >= t.Significant ||
		pct(a.VotingRightsPercentage) >= t.Significant ||
		a.IsBeneficialOwner ||
		a.IsUltimateBeneficialOwner ||
		a.IsKeyManagementPersonnel
}

func (t ControlThresholds) ControlLevel(a Association) ControlLevel {
	stake := maxStake(a)
	switch {
	case a.IsUltimateBeneficialOwner:
		return ControlUltimate
	case stake >= t.Controlling || a.IsKeyManagementPersonnel:
		return ControlControlling
	case stake >= t.Significant || a.IsBeneficialOwner:
		return ControlSignificant
	case stake > 0:
		return ControlMinor
	}
	return ControlNone
}

func IsSignificantControl(a Association) bool {
	return DefaultControlThresholds.IsSignificantControl(a)
}

func ControlLevelOf(a Association) ControlLevel {
	return DefaultControlThresholds.ControlLevel(a)
}

// NeedsReview is true when no review is scheduled or the scheduled date has arrived.
func NeedsReview(a Association, asOf time.Time) bool {
	if a.NextReviewDate == nil {
		return true
	}
	return !Day(*a.NextReviewDate).After(Day(asOf))
}

func IsHighRisk(a Association) bool {
	return a.IsPEP ||
		a.IsSanctionsRelated ||
		a.RequiresEnhancedDueDiligence ||
		(a.RiskLevel != nil && *a.RiskLevel == RiskHigh)
}

const (
	FlagPEP                  = "PEP"
	FlagSanctions            = "SANCTIONS_RELATED"
	FlagEnhancedDueDiligence = "ENHANCED_DUE_DILIGENCE"
	FlagBeneficialOwner      = "BENEFICIAL_OWNER"
	FlagUBO                  = "ULTIMATE_BENEFICIAL_OWNER"
	FlagAuthorizedSignatory  = "AUTHORIZED_SIGNATORY"
	FlagKeyManagement        = "KEY_MANAGEMENT_PERSONNEL"
	FlagSignificantControl   = "SIGNIFICANT_CONTROL"
	FlagHighRisk             = "HIGH_RISK"
	FlagUnverified           = "UNVERIFIED"
	FlagVerificationExpired  = "VERIFICATION_EXPIRED"
	FlagReviewRequired       = "REVIEW_REQUIRED"
)

func (t ControlThresholds) ComplianceFlags(a Association, asOf time.Time) []string {
	flags := []string{}
	if a.IsPEP {
		flags = append(flags, FlagPEP)
	}
	if a.IsSanctionsRelated {
		flags = append(flags, FlagSanctions)
	}
	if a.RequiresEnhancedDueDiligence {
		flags = append(flags, FlagEnhancedDueDiligence)
	}
	if a.IsBeneficialOwner {
		flags = append(flags, FlagBeneficialOwner)
	}
	if a.IsUltimateBeneficialOwner {
		flags = append(flags, FlagUBO)
	}
	if a.IsAuthorizedSignatory {
		flags = append(flags, FlagAuthorizedSignatory)
	}
	if a.IsKeyManagementPersonnel {
		flags = append(flags, FlagKeyManagement)
	}
	if t.IsSignificantControl(a) {
		flags = append(flags, FlagSignificantControl)
	}
	if IsHighRisk(a) {
		flags = append(flags, FlagHighRisk)
	}
	switch t.VerificationStatus(a.Edge, asOf) {
	case VerificationUnverified:
		flags = append(flags, FlagUnverified)
	case VerificationExpired:
		flags = append(flags, FlagVerificationExpired)
	}
	if NeedsReview(a, asOf) {
		flags = append(flags, FlagReviewRequired)
	}
	return flags
}

func ComplianceFlagsFor(a Association, asOf time.Time) []string {
	return DefaultControlThresholds.ComplianceFlags(a, asOf)
}

// AssociationView is an association together with its derived classification.
type AssociationView struct {
	Association
	IsCurrent          bool               `json:"isCurrent"`
	IsExpired          bool               `json:"isExpired"`
	IsFuture           bool               `json:"isFuture"`
	DurationDays       *int               `json:"durationDays,omitempty"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	SignificantControl bool               `json:"isSignificantControl"`
	ControlLevel       ControlLevel       `json:"controlLevel"`
	HighRisk           bool               `json:"isHighRisk"`
	NeedsReview        bool               `json:"needsReview"`
	ComplianceFlags    []string           `json:"complianceFlags"`
	FinancialSummary   string             `json:"financialSummary,omitempty"`
}

func (t ControlThresholds) View(a Association, asOf time.Time) AssociationView {
	return AssociationView{
		Association:        a,
		IsCurrent:          IsCurrent(a.Edge, asOf),
		IsExpired:          IsExpired(a.Edge, asOf),
		IsFuture:           IsFuture(a.Edge, asOf),
		DurationDays:       DurationDays(a.Edge, asOf),
		VerificationStatus: t.VerificationStatus(a.Edge, asOf),
		SignificantControl: t.IsSignificantControl(a),
		ControlLevel:       t.ControlLevel(a),
		HighRisk:           IsHighRisk(a),
		NeedsReview:        NeedsReview(a, asOf),
		ComplianceFlags:    t.ComplianceFlags(a, asOf),
		FinancialSummary:   FinancialSummary(a),
	}
}

// OwnershipBucket counts stakes in the half-open range (Min, Max].
type OwnershipBucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

func ownershipBuckets() []OwnershipBucket {
	return []OwnershipBucket{
		{Label: "0-5", Min: 0, Max: 5},
		{Label: "5-10", Min: 5, Max: 10},
		{Label: "10-25", Min: 10, Max: 25},
		{Label: "25-50", Min: 25, Max: 50},
		{Label: "50+", Min: 50, Max: 100},
	}
}

type Shareholder struct {
	AssociationID       string  `json:"associationId"`
	IndividualID        string  `json:"individualId"`
	OwnershipPercentage float64 `json:"ownershipPercentage"`
}

type OwnershipSummary struct {
	OrganizationID                 string            `json:"organizationId"`
	AsOf                           time.Time         `json:"asOf"`
	TotalOwnershipAccounted        float64           `json:"totalOwnershipAccounted"`
	BeneficialOwnersCount          int               `json:"beneficialOwnersCount"`
	UltimateBeneficialOwnersCount  int               `json:"ultimateBeneficialOwnersCount"`
	SignificantControlPersonsCount int               `json:"significantControlPersonsCount"`
	LargestShareholder             *Shareholder      `json:"largestShareholder,omitempty"`
	Distribution                   []OwnershipBucket `json:"ownershipDistribution"`
}

// SummarizeOwnership aggregates the associations of one organization that are
// current at asOf. The total may exceed 100 when stakes overlap.
func (t ControlThresholds) SummarizeOwnership(organizationID string, assocs []Association, asOf time.Time) OwnershipSummary {
	summary := OwnershipSummary{
		OrganizationID: organizationID,
		AsOf:           asOf,
		Distribution:   ownershipBuckets(),
	}

	for _, a := range assocs {
		if a.OrganizationID() != organizationID || !IsCurrent(a.Edge, asOf) {
			continue
		}
		if a.IsBeneficialOwner {
			summary.BeneficialOwnersCount++
		}
		if a.IsUltimateBeneficialOwner {
			summary.UltimateBeneficialOwnersCount++
		}
		if t.IsSignificantControl(a) {
			summary.SignificantControlPersonsCount++
		}
		if a.OwnershipPercentage == nil {
			continue
		}

		p := *a.OwnershipPercentage
		summary.TotalOwnershipAccounted += p
		if p > 0 && (summary.LargestShareholder == nil || p > summary.LargestShareholder.OwnershipPercentage) {
			summary.LargestShareholder = &Shareholder{
				AssociationID:       a.ID,
				IndividualID:        a.IndividualID(),
				OwnershipPercentage: p,
			}
		}
		for i := range summary.Distribution {
			b := &summary.Distribution[i]
			if p > b.Min && p <= b.Max {
				b.Count++
				break
			}
		}
	}

	return summary
}

func SummarizeOwnership(organizationID string, assocs []Association, asOf time.Time) OwnershipSummary {
	return DefaultControlThresholds.SummarizeOwnership(organizationID, assocs, asOf)
}

const unassessedRisk = "unassessed"

type AssociationStatistics struct {
	Total                    int                      `json:"total"`
	Current                  int                      `json:"current"`
	Expired                  int                      `json:"expired"`
	Future                   int                      `json:"future"`
	BeneficialOwners         int                      `json:"beneficialOwners"`
	UltimateBeneficialOwners int                      `json:"ultimateBeneficialOwners"`
	AuthorizedSignatories    int                      `json:"authorizedSignatories"`
	KeyManagementPersonnel   int                      `json:"keyManagementPersonnel"`
	SignificantControl       int                      `json:"significantControl"`
	HighRisk                 int                      `json:"highRisk"`
	PEP                      int                      `json:"pep"`
	Unverified               int                      `json:"unverified"`
	VerificationExpired      int                      `json:"verificationExpired"`
	NeedingReview            int                      `json:"needingReview"`
	ByType                   map[RelationshipType]int `json:"byType"`
	ByRiskLevel              map[string]int           `json:"byRiskLevel"`
	ByControlLevel           map[ControlLevel]int     `json:"byControlLevel"`
}

// Statistics counts non-deleted associations by classification.
func (t ControlThresholds) Statistics(assocs []Association, asOf time.Time) AssociationStatistics {
	stats := AssociationStatistics{
		ByType:         map[RelationshipType]int{},
		ByRiskLevel:    map[string]int{},
		ByControlLevel: map[ControlLevel]int{},
	}
	for _, a := range assocs {
		if a.DeletedAt != nil {
			continue
		}
		stats.Total++
		switch {
		case IsCurrent(a.Edge, asOf):
			stats.Current++
		case IsExpired(a.Edge, asOf):
			stats.Expired++
		case IsFuture(a.Edge, asOf):
			stats.Future++
		}
		if a.IsBeneficialOwner {
			stats.BeneficialOwners++
		}
		if a.IsUltimateBeneficialOwner {
			stats.UltimateBeneficialOwners++
		}
		if a.IsAuthorizedSignatory {
			stats.AuthorizedSignatories++
		}
		if a.IsKeyManagementPersonnel {
			stats.KeyManagementPersonnel++
		}
		if t.IsSignificantControl(a) {
			stats.SignificantControl++
		}
		if IsHighRisk(a) {
			stats.HighRisk++
		}
		if a.IsPEP {
			stats.PEP++
		}
		switch t.VerificationStatus(a.Edge, asOf) {
		case VerificationUnverified:
			stats.Unverified++
		case VerificationExpired:
			stats.VerificationExpired++
		}
		if NeedsReview(a, asOf) {
			stats.NeedingReview++
		}

		stats.ByType[a.RelationshipType]++
		risk := unassessedRisk
		if a.RiskLevel != nil {
			risk = string(*a.RiskLevel)
		}
		stats.ByRiskLevel[risk]++
		stats.ByControlLevel[t.ControlLevel(a)]++
	}
	return stats
}
