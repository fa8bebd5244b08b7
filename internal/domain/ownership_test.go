package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assoc(id, individual string, ownership *float64) Association {
	return Association{Edge: Edge{
		ID:                  id,
		Kind:                KindOrganizationAssociation,
		PrimaryID:           "org-o",
		RelatedID:           individual,
		RelationshipType:    AssocShareholder,
		OwnershipPercentage: ownership,
		EffectiveFrom:       date(2020, 1, 1),
		IsActive:            true,
	}}
}

func TestControlLevelMonotonicity(t *testing.T) {
	want := map[float64]ControlLevel{
		10: ControlMinor,
		25: ControlSignificant,
		50: ControlControlling,
		90: ControlControlling,
	}
	for p, level := range want {
		a := assoc("a", "x", ptr(p))
		assert.Equal(t, level, ControlLevelOf(a), "ownership %v", p)

		a.IsUltimateBeneficialOwner = true
		assert.Equal(t, ControlUltimate, ControlLevelOf(a), "ownership %v with UBO flag", p)
	}
}

func TestControlLevelSignals(t *testing.T) {
	a := assoc("a", "x", nil)
	assert.Equal(t, ControlNone, ControlLevelOf(a))

	a.VotingRightsPercentage = ptr(60.0)
	assert.Equal(t, ControlControlling, ControlLevelOf(a))

	b := assoc("b", "y", ptr(0.0))
	b.IsBeneficialOwner = true
	assert.Equal(t, ControlSignificant, ControlLevelOf(b))

	c := assoc("c", "z", ptr(1.0))
	c.IsKeyManagementPersonnel = true
	assert.Equal(t, ControlControlling, ControlLevelOf(c))
}

func TestIsSignificantControl(t *testing.T) {
	assert.False(t, IsSignificantControl(assoc("a", "x", ptr(24.99))))
	assert.True(t, IsSignificantControl(assoc("a", "x", ptr(25.0))))

	voting := assoc("a", "x", nil)
	voting.VotingRightsPercentage = ptr(25.0)
	assert.True(t, IsSignificantControl(voting))

	for _, set := range []func(*Association){
		func(a *Association) { a.IsBeneficialOwner = true },
		func(a *Association) { a.IsUltimateBeneficialOwner = true },
		func(a *Association) { a.IsKeyManagementPersonnel = true },
	} {
		a := assoc("a", "x", nil)
		set(&a)
		assert.True(t, IsSignificantControl(a))
	}
}

func TestCustomThresholds(t *testing.T) {
	th := ControlThresholds{Significant: 10, Controlling: 30}
	require.NoError(t, th.Validate())

	a := assoc("a", "x", ptr(10.0))
	assert.True(t, th.IsSignificantControl(a))
	assert.Equal(t, ControlSignificant, th.ControlLevel(a))
	assert.Equal(t, ControlMinor, ControlLevelOf(a))

	assert.Error(t, ControlThresholds{Significant: 40, Controlling: 30}.Validate())
	assert.Error(t, ControlThresholds{Significant: 0, Controlling: 30}.Validate())
}

func TestNeedsReview(t *testing.T) {
	now := date(2024, 5, 1)
	a := assoc("a", "x", nil)
	assert.True(t, NeedsReview(a, now))

	a.NextReviewDate = ptr(date(2024, 5, 1))
	assert.True(t, NeedsReview(a, now))

	a.NextReviewDate = ptr(date(2024, 5, 2))
	assert.False(t, NeedsReview(a, now))
}

func TestIsHighRisk(t *testing.T) {
	a := assoc("a", "x", nil)
	assert.False(t, IsHighRisk(a))

	a.RiskLevel = ptr(RiskMedium)
	assert.False(t, IsHighRisk(a))
	a.RiskLevel = ptr(RiskHigh)
	assert.True(t, IsHighRisk(a))

	for _, set := range []func(*Association){
		func(a *Association) { a.IsPEP = true },
		func(a *Association) { a.IsSanctionsRelated = true },
		func(a *Association) { a.RequiresEnhancedDueDiligence = true },
	} {
		b := assoc("b", "y", nil)
		set(&b)
		assert.True(t, IsHighRisk(b))
	}
}

func TestSummarizeOwnershipScenario(t *testing.T) {
	x := assoc("assoc-x", "x", ptr(30.0))
	x.IsBeneficialOwner = true
	y := assoc("assoc-y", "y", ptr(10.0))

	s := SummarizeOwnership("org-o", []Association{x, y}, date(2024, 1, 1))

	assert.Equal(t, 40.0, s.TotalOwnershipAccounted)
	assert.Equal(t, 1, s.BeneficialOwnersCount)
	assert.Equal(t, 0, s.UltimateBeneficialOwnersCount)
	assert.Equal(t, 1, s.SignificantControlPersonsCount)
	require.NotNil(t, s.LargestShareholder)
	assert.Equal(t, "x", s.LargestShareholder.IndividualID)

	counts := map[string]int{}
	for _, b := range s.Distribution {
		counts[b.Label] = b.Count
	}
	assert.Equal(t, map[string]int{"0-5": 0, "5-10": 1, "10-25": 0, "25-50": 1, "50+": 0}, counts)
}

func TestSummarizeOwnershipBucketBoundaries(t *testing.T) {
	var assocs []Association
	for i, p := range []float64{5, 5.01, 10, 25, 50, 50.5, 100, 0} {
		assocs = append(assocs, assoc(string(rune('a'+i)), string(rune('a'+i)), ptr(p)))
	}
	s := SummarizeOwnership("org-o", assocs, date(2024, 1, 1))

	got := []int{}
	for _, b := range s.Distribution {
		got = append(got, b.Count)
	}
	assert.Equal(t, []int{1, 2, 1, 1, 2}, got)
	assert.InDelta(t, 245.51, s.TotalOwnershipAccounted, 1e-9)
}

func TestSummarizeOwnershipSkipsNonCurrent(t *testing.T) {
	now := date(2024, 1, 1)
	expired := assoc("e", "e", ptr(40.0))
	expired.EffectiveTo = ptr(date(2022, 1, 1))
	future := assoc("f", "f", ptr(40.0))
	future.EffectiveFrom = date(2025, 1, 1)
	deleted := assoc("d", "d", ptr(40.0))
	deleted.DeletedAt = ptr(date(2023, 1, 1))
	inactive := assoc("i", "i", ptr(40.0))
	inactive.IsActive = false
	other := assoc("o", "o", ptr(40.0))
	other.PrimaryID = "org-p"
	live := assoc("l", "l", ptr(5.0))

	s := SummarizeOwnership("org-o", []Association{expired, future, deleted, inactive, other, live}, now)
	assert.Equal(t, 5.0, s.TotalOwnershipAccounted)
	require.NotNil(t, s.LargestShareholder)
	assert.Equal(t, "l", s.LargestShareholder.IndividualID)
}

func TestSummarizeOwnershipEmpty(t *testing.T) {
	s := SummarizeOwnership("org-o", nil, date(2024, 1, 1))
	assert.Zero(t, s.TotalOwnershipAccounted)
	assert.Nil(t, s.LargestShareholder)
	assert.Len(t, s.Distribution, 5)
}

func TestComplianceFlags(t *testing.T) {
	now := date(2024, 1, 1)
	a := assoc("a", "x", ptr(30.0))
	a.IsPEP = true
	a.NextReviewDate = ptr(date(2025, 1, 1))
	a.Edge = MarkVerified(a.Edge, "user-2", "", date(2023, 12, 1))

	flags := ComplianceFlagsFor(a, now)
	assert.Equal(t, []string{FlagPEP, FlagSignificantControl, FlagHighRisk}, flags)

	b := assoc("b", "y", nil)
	assert.Equal(t, []string{FlagUnverified, FlagReviewRequired}, ComplianceFlagsFor(b, now))
}

func TestStatistics(t *testing.T) {
	now := date(2024, 1, 1)
	bo := assoc("bo", "x", ptr(30.0))
	bo.IsBeneficialOwner = true
	bo.RiskLevel = ptr(RiskHigh)
	expired := assoc("ex", "y", ptr(5.0))
	expired.EffectiveTo = ptr(date(2022, 1, 1))
	deleted := assoc("de", "z", ptr(5.0))
	deleted.DeletedAt = ptr(date(2023, 1, 1))

	stats := DefaultControlThresholds.Statistics([]Association{bo, expired, deleted}, now)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Current)
	assert.Equal(t, 1, stats.Expired)
	assert.Equal(t, 1, stats.BeneficialOwners)
	assert.Equal(t, 1, stats.HighRisk)
	assert.Equal(t, 2, stats.Unverified)
	assert.Equal(t, 2, stats.ByType[AssocShareholder])
	assert.Equal(t, 1, stats.ByRiskLevel["high"])
	assert.Equal(t, 1, stats.ByRiskLevel[unassessedRisk])
	assert.Equal(t, 1, stats.ByControlLevel[ControlSignificant])
	assert.Equal(t, 1, stats.ByControlLevel[ControlMinor])
}

func TestView(t *testing.T) {
	now := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	a := assoc("a", "x", ptr(55.0))
	a.EffectiveFrom = date(2024, 1, 1)
	a.NumberOfShares = ptr(int64(1000))
	a.ShareClass = "A"

	v := DefaultControlThresholds.View(a, now)
	assert.True(t, v.IsCurrent)
	assert.Equal(t, 10, *v.DurationDays)
	assert.Equal(t, ControlControlling, v.ControlLevel)
	assert.Equal(t, "55% ownership, 1000 shares (A)", v.FinancialSummary)
}
