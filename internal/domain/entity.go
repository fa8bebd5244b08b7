package domain

import (
	"encoding/json"
	"time"
)

// Actor identifies who performs an operation and on behalf of which tenant.
type Actor struct {
	SubscriberID string
	UserID       string
	IPAddress    string
	UserAgent    string
}

func (a Actor) Validate() error {
	if a.SubscriberID == "" {
		return Invalid("subscriberId", "required")
	}
	if a.UserID == "" {
		return Invalid("userId", "required")
	}
	return nil
}

// Subscriber is a tenant. Every entity belongs to exactly one.
type Subscriber struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Type         string    `json:"type"`
	CompanyName  string    `json:"companyName,omitempty"`
	Jurisdiction string    `json:"jurisdiction,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SubscriberUser struct {
	ID           string     `json:"id"`
	SubscriberID string     `json:"subscriberId"`
	Email        string     `json:"email"`
	FullName     string     `json:"fullName"`
	Role         string     `json:"role"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedBy    *string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Entity is a party onboarded by a subscriber.
type Entity struct {
	ID                 string          `json:"id"`
	SubscriberID       string          `json:"subscriberId"`
	EntityType         EntityType      `json:"entityType"`
	Name               string          `json:"name"`
	ReferenceNumber    string          `json:"referenceNumber"`
	Status             EntityStatus    `json:"status"`
	RiskLevel          *RiskLevel      `json:"riskLevel,omitempty"`
	ScreeningStatus    ScreeningStatus `json:"screeningStatus"`
	OnboardingComplete bool            `json:"onboardingCompleted"`
	LastScreenedAt     *time.Time      `json:"lastScreenedAt,omitempty"`
	LastRiskAssessedAt *time.Time      `json:"lastRiskAssessedAt,omitempty"`
	CreatedBy          string          `json:"createdBy"`
	UpdatedBy          *string         `json:"updatedBy,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	DeletedAt          *time.Time      `json:"deletedAt,omitempty"`
	IsActive           bool            `json:"isActive"`

	Individual   *IndividualProfile   `json:"individual,omitempty"`
	Organization *OrganizationProfile `json:"organization,omitempty"`
}

// Live reports whether the entity can take part in new edges.
func (e Entity) Live() bool {
	return e.DeletedAt == nil && e.IsActive
}

type IndividualProfile struct {
	DateOfBirth        *time.Time `json:"dateOfBirth,omitempty"`
	Nationality        []string   `json:"nationality,omitempty"`
	CountryOfResidence string     `json:"countryOfResidence,omitempty"`
	Gender             string     `json:"gender,omitempty"`
	Occupation         string     `json:"occupation,omitempty"`
	NationalID         string     `json:"nationalId,omitempty"`
	IDType             string     `json:"idType,omitempty"`
	IDExpiryDate       *time.Time `json:"idExpiryDate,omitempty"`
	SourceOfIncome     string     `json:"sourceOfIncome,omitempty"`
	IsPEP              bool       `json:"isPep"`
	HasCriminalRecord  bool       `json:"hasCriminalRecord"`
}

type OrganizationProfile struct {
	LegalName              string     `json:"legalName"`
	TradeName              string     `json:"tradeName,omitempty"`
	CountryOfIncorporation string     `json:"countryOfIncorporation,omitempty"`
	DateOfIncorporation    *time.Time `json:"dateOfIncorporation,omitempty"`
	OrganizationType       string     `json:"organizationType,omitempty"`
	LegalStructure         string     `json:"legalStructure,omitempty"`
	TaxIdentification      string     `json:"taxIdentificationNumber,omitempty"`
	RegistrationNumber     string     `json:"commercialRegistrationNumber,omitempty"`
	IndustrySector         string     `json:"industrySector,omitempty"`
	NumberOfEmployees      *int       `json:"numberOfEmployees,omitempty"`
	AnnualRevenue          *float64   `json:"annualRevenue,omitempty"`
}

// HistoryEntry is one audit record on an entity.
type HistoryEntry struct {
	ID                string          `json:"id"`
	EntityID          string          `json:"entityId"`
	ChangedAt         time.Time       `json:"changedAt"`
	ChangedBy         string          `json:"changedBy"`
	ChangeType        ChangeType      `json:"changeType"`
	Changes           json.RawMessage `json:"changes,omitempty"`
	ChangeDescription string          `json:"changeDescription,omitempty"`
	IPAddress         string          `json:"ipAddress,omitempty"`
	UserAgent         string          `json:"userAgent,omitempty"`
}

// ScreeningAnalysis stores an opaque screening provider result.
type ScreeningAnalysis struct {
	ID              string          `json:"id"`
	EntityID        string          `json:"entityId"`
	Provider        string          `json:"provider"`
	MatchedRecords  json.RawMessage `json:"matchedRecords,omitempty"`
	BestMatchScore  *float64        `json:"bestMatchScore,omitempty"`
	ScreeningStatus ScreeningStatus `json:"screeningStatus"`
	ReviewedBy      *string         `json:"reviewedBy,omitempty"`
	CreatedBy       string          `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// RiskAnalysis stores an opaque risk assessment result.
type RiskAnalysis struct {
	ID                string          `json:"id"`
	EntityID          string          `json:"entityId"`
	RiskLevel         RiskLevel       `json:"riskLevel"`
	RiskScore         *float64        `json:"riskScore,omitempty"`
	RiskFactors       json.RawMessage `json:"riskFactors,omitempty"`
	MitigationActions json.RawMessage `json:"mitigationActions,omitempty"`
	AnalystID         *string         `json:"analystId,omitempty"`
	CreatedBy         string          `json:"createdBy"`
	CreatedAt         time.Time       `json:"createdAt"`
}

type EntityInput struct {
	SubscriberID    string
	EntityType      EntityType
	Name            string
	ReferenceNumber string
	RiskLevel       *RiskLevel
	CreatedBy       string
	Individual      *IndividualProfile
	Organization    *OrganizationProfile
}

// NewEntity validates input and builds an unsaved, active entity pending
// onboarding. An organization without a name takes its legal name.
func NewEntity(in EntityInput, now time.Time) (Entity, error) {
	switch in.EntityType {
	case EntityTypeIndividual:
		if in.Individual == nil {
			return Entity{}, Invalid("individual", "required for an individual")
		}
		if in.Organization != nil {
			return Entity{}, Invalid("organization", "not allowed for an individual")
		}
	case EntityTypeOrganization:
		if in.Organization == nil {
			return Entity{}, Invalid("organization", "required for an organization")
		}
		if in.Individual != nil {
			return Entity{}, Invalid("individual", "not allowed for an organization")
		}
		if in.Organization.LegalName == "" {
			return Entity{}, Invalid("organization.legalName", "required")
		}
		if in.Name == "" {
			in.Name = in.Organization.LegalName
		}
	default:
		return Entity{}, Invalid("entityType", "unknown value "+string(in.EntityType))
	}
	if in.Name == "" {
		return Entity{}, Invalid("name", "required")
	}
	if in.ReferenceNumber == "" {
		return Entity{}, Invalid("referenceNumber", "required")
	}
	if in.SubscriberID == "" {
		return Entity{}, Invalid("subscriberId", "required")
	}
	if in.CreatedBy == "" {
		return Entity{}, Invalid("createdBy", "required")
	}
	if in.RiskLevel != nil && !in.RiskLevel.Valid() {
		return Entity{}, Invalid("riskLevel", "unknown value "+string(*in.RiskLevel))
	}

	return Entity{
		SubscriberID:    in.SubscriberID,
		EntityType:      in.EntityType,
		Name:            in.Name,
		ReferenceNumber: in.ReferenceNumber,
		Status:          EntityStatusPending,
		RiskLevel:       in.RiskLevel,
		ScreeningStatus: ScreeningPending,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
		IsActive:        true,
		Individual:      in.Individual,
		Organization:    in.Organization,
	}, nil
}
