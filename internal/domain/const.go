package domain

const (
	SubscriberIDCtxKey = "kyc-subscriberId"
	ActingUserIDCtxKey = "kyc-actingUserId"
)

const (
	SubscriberIDHeader = "kyc-subscriber-id"
	ActingUserIDHeader = "kyc-user-id"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MinPageSize     = 1
	MaxPageSize     = 100
)

// VerificationFreshnessMonths is how long a verification stays valid unless
// configured otherwise.
const VerificationFreshnessMonths = 6

type EntityType string

const (
	EntityTypeIndividual   EntityType = "INDIVIDUAL"
	EntityTypeOrganization EntityType = "ORGANIZATION"
)

type EntityStatus string

const (
	EntityStatusPending   EntityStatus = "PENDING"
	EntityStatusActive    EntityStatus = "ACTIVE"
	EntityStatusSuspended EntityStatus = "SUSPENDED"
	EntityStatusClosed    EntityStatus = "CLOSED"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

type ScreeningStatus string

const (
	ScreeningPending    ScreeningStatus = "pending"
	ScreeningClear      ScreeningStatus = "clear"
	ScreeningPotential  ScreeningStatus = "potential_match"
	ScreeningConfirmed  ScreeningStatus = "confirmed_match"
	ScreeningFalseMatch ScreeningStatus = "false_positive"
)

func (s ScreeningStatus) Valid() bool {
	switch s {
	case ScreeningPending, ScreeningClear, ScreeningPotential, ScreeningConfirmed, ScreeningFalseMatch:
		return true
	}
	return false
}

type ChangeType string

const (
	ChangeCreated     ChangeType = "created"
	ChangeUpdated     ChangeType = "updated"
	ChangeDeleted     ChangeType = "deleted"
	ChangeVerified    ChangeType = "verified"
	ChangeRetired     ChangeType = "retired"
	ChangeRiskUpdated ChangeType = "risk_updated"
	ChangeReviewed    ChangeType = "reviewed"
	ChangeScreened    ChangeType = "screened"
)
