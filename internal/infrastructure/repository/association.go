package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/infrastructure/database"
	"github.com/totegamma/kycgraph/internal/infrastructure/database/models"
)

const associationResource = "organization association"

var associationSorts = sortColumns{
	"created_at":               "created_at",
	"updated_at":               "updated_at",
	"effective_from":           "effective_from",
	"effective_to":             "effective_to",
	"ownership_percentage":     "ownership_percentage",
	"voting_rights_percentage": "voting_rights_percentage",
	"relationship_type":        "relationship_type",
	"risk_level":               "risk_level",
	"next_review_date":         "next_review_date",
	"last_reviewed_at":         "last_reviewed_at",
}

const stakeExpr = "GREATEST(COALESCE(ownership_percentage, 0), COALESCE(voting_rights_percentage, 0))"

type AssociationRepository struct {
	db         *gorm.DB
	thresholds domain.ControlThresholds
}

func NewAssociationRepository(db *gorm.DB, thresholds domain.ControlThresholds) *AssociationRepository {
	return &AssociationRepository{db: db, thresholds: thresholds}
}

func (r *AssociationRepository) Create(ctx context.Context, a domain.Association) (domain.Association, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m := associationToModel(a)
	if err := database.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return domain.Association{}, translateError(err, associationResource)
	}
	return associationToDomain(m), nil
}

func (r *AssociationRepository) Get(ctx context.Context, id string) (domain.Association, error) {
	var m models.OrganizationAssociation
	if err := database.Conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return domain.Association{}, translateError(err, associationResource)
	}
	return associationToDomain(m), nil
}

// Update writes the mutable columns of a if the row still carries
// expectedUpdatedAt.
func (r *AssociationRepository) Update(ctx context.Context, a domain.Association, expectedUpdatedAt time.Time) error {
	conn := database.Conn(ctx, r.db)
	res := conn.Model(&models.OrganizationAssociation{}).
		Where("id = ? AND updated_at = ?", a.ID, expectedUpdatedAt).
		Updates(map[string]any{
			"effective_to":                    a.EffectiveTo,
			"is_active":                       a.IsActive,
			"verified":                        a.Verified,
			"verified_by":                     a.VerifiedBy,
			"verified_at":                     a.VerifiedAt,
			"verification_method":             ptrOrNil(a.VerificationMethod),
			"is_pep":                          a.IsPEP,
			"is_sanctions_related":            a.IsSanctionsRelated,
			"requires_enhanced_due_diligence": a.RequiresEnhancedDueDiligence,
			"risk_level":                      riskLevelColumn(a.RiskLevel),
			"risk_factors":                    pq.StringArray(a.RiskFactors),
			"last_reviewed_at":                a.LastReviewedAt,
			"reviewed_by":                     a.ReviewedBy,
			"next_review_date":                a.NextReviewDate,
			"notes":                           ptrOrNil(a.Notes),
			"updated_at":                      a.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error, associationResource)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := conn.Model(&models.OrganizationAssociation{}).Where("id = ?", a.ID).Count(&n).Error; err != nil {
		return translateError(err, associationResource)
	}
	if n == 0 {
		return domain.NotFoundError{Resource: associationResource}
	}
	return domain.ConflictError{Resource: associationResource, Reason: "modified concurrently"}
}

func (r *AssociationRepository) SoftDelete(ctx context.Context, id string) error {
	res := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&models.OrganizationAssociation{})
	if res.Error != nil {
		return translateError(res.Error, associationResource)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: associationResource}
	}
	return nil
}

func (r *AssociationRepository) Find(ctx context.Context, f domain.AssociationFilter, p domain.Pagination) (domain.Page[domain.Association], error) {
	q := r.filtered(ctx, f)
	rows, total, p, err := paginate[models.OrganizationAssociation](q, p, associationSorts)
	if err != nil {
		return domain.Page[domain.Association]{}, translateError(err, associationResource)
	}
	return domain.NewPage(associationsToDomain(rows), total, p), nil
}

// List returns every association matching f, unpaginated, for aggregation.
func (r *AssociationRepository) List(ctx context.Context, f domain.AssociationFilter) ([]domain.Association, error) {
	var rows []models.OrganizationAssociation
	err := r.filtered(ctx, f).
		Order("ownership_percentage DESC NULLS LAST").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, associationResource)
	}
	return associationsToDomain(rows), nil
}

// OwnershipStructure lists the current holdings in organizationID of at
// least minOwnership percent, largest first.
func (r *AssociationRepository) OwnershipStructure(ctx context.Context, organizationID string, minOwnership float64, asOf time.Time) ([]domain.Association, error) {
	var rows []models.OrganizationAssociation
	q := database.Conn(ctx, r.db).Where("organization_id = ?", organizationID)
	q = applyTemporal(q, domain.TemporalCurrent, "effective_from", "effective_to", asOf)
	err := q.Where("ownership_percentage >= ?", minOwnership).
		Order("ownership_percentage DESC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, associationResource)
	}
	return associationsToDomain(rows), nil
}

func (r *AssociationRepository) filtered(ctx context.Context, f domain.AssociationFilter) *gorm.DB {
	asOf := f.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	day := domain.Day(asOf)
	cutoff := r.thresholds.VerificationCutoff(asOf)

	q := database.Conn(ctx, r.db).Model(&models.OrganizationAssociation{})
	q = applyScope(q, f.Scope)
	q = applyTenant(q, "organization_id", f.SubscriberID)
	q = applyIn(q, "organization_id", f.OrganizationIDs)
	q = applyIn(q, "individual_id", f.IndividualIDs)
	q = applyIn(q, "relationship_type", f.RelationshipTypes)
	q = applyIn(q, "ownership_type", f.OwnershipTypes)
	q = applyIn(q, "risk_level", f.RiskLevels)
	q = applyBool(q, "is_beneficial_owner", f.IsBeneficialOwner)
	q = applyBool(q, "is_ultimate_beneficial_owner", f.IsUltimateBeneficialOwner)
	q = applyBool(q, "is_key_management_personnel", f.IsKeyManagementPersonnel)
	q = applyBool(q, "is_authorized_signatory", f.IsAuthorizedSignatory)
	q = applyBool(q, "has_signing_authority", f.HasSigningAuthority)
	q = applyBool(q, "is_pep", f.IsPEP)
	q = applyBool(q, "is_sanctions_related", f.IsSanctionsRelated)
	q = applyBool(q, "requires_enhanced_due_diligence", f.RequiresEnhancedDueDiligence)
	q = applyPredicate(q, significantControlExpr, f.SignificantControl, r.thresholds.Significant, r.thresholds.Significant)
	q = applyPredicate(q, highRiskExpr, f.HighRisk, domain.RiskHigh)
	q = applyPredicate(q, needsReviewExpr, f.NeedsReview, day)
	if len(f.ControlLevels) > 0 {
		q = q.Where(controlLevelExpr+" IN ?", r.thresholds.Controlling, r.thresholds.Significant, f.ControlLevels)
	}
	if len(f.VerificationStatuses) > 0 {
		q = q.Where(verificationStatusExpr+" IN ?", cutoff, f.VerificationStatuses)
	}
	q = applyTemporal(q, f.Temporal, "effective_from", "effective_to", asOf)
	q = applyDateRange(q, "effective_from", f.EffectiveFrom)
	q = applyDateRange(q, "effective_to", f.EffectiveTo)
	q = applyDateRange(q, "created_at", f.CreatedAt)
	q = applyPercentRange(q, "ownership_percentage", f.Ownership)
	q = applyPercentRange(q, "voting_rights_percentage", f.Voting)
	q = applyIn(q, "created_by", f.CreatedBy)
	q = applySearch(q, f.Search, "position_title", "association_description", "notes")
	return q
}

// The SQL classifiers below mirror domain.ControlThresholds so a filter and
// the in-memory view always agree.
const (
	significantControlExpr = "COALESCE(ownership_percentage, 0) >= ? OR COALESCE(voting_rights_percentage, 0) >= ?" +
		" OR is_beneficial_owner OR is_ultimate_beneficial_owner OR is_key_management_personnel"

	highRiskExpr = "is_pep OR is_sanctions_related OR requires_enhanced_due_diligence OR COALESCE(risk_level, '') = ?"

	needsReviewExpr = "next_review_date IS NULL OR next_review_date <= ?"

	controlLevelExpr = "(CASE" +
		" WHEN is_ultimate_beneficial_owner THEN 'ultimate'" +
		" WHEN " + stakeExpr + " >= ? OR is_key_management_personnel THEN 'controlling'" +
		" WHEN " + stakeExpr + " >= ? OR is_beneficial_owner THEN 'significant'" +
		" WHEN " + stakeExpr + " > 0 THEN 'minor'" +
		" ELSE 'none' END)"

	verificationStatusExpr = "(CASE" +
		" WHEN NOT verified THEN 'unverified'" +
		" WHEN verified_at < ? THEN 'expired'" +
		" ELSE 'verified' END)"
)

func riskLevelColumn(r *domain.RiskLevel) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}

func associationToModel(a domain.Association) models.OrganizationAssociation {
	var ownershipType *string
	if a.OwnershipType != nil {
		s := string(*a.OwnershipType)
		ownershipType = &s
	}
	return models.OrganizationAssociation{
		ID:                           a.ID,
		OrganizationID:               a.PrimaryID,
		IndividualID:                 a.RelatedID,
		RelationshipType:             string(a.RelationshipType),
		OwnershipType:                ownershipType,
		OwnershipPercentage:          a.OwnershipPercentage,
		VotingRightsPercentage:       a.VotingRightsPercentage,
		PositionTitle:                ptrOrNil(a.PositionTitle),
		AssociationDescription:       ptrOrNil(a.Description),
		HasSigningAuthority:          a.HasSigningAuthority,
		IsBeneficialOwner:            a.IsBeneficialOwner,
		IsUltimateBeneficialOwner:    a.IsUltimateBeneficialOwner,
		IsKeyManagementPersonnel:     a.IsKeyManagementPersonnel,
		IsAuthorizedSignatory:        a.IsAuthorizedSignatory,
		IsPEP:                        a.IsPEP,
		IsSanctionsRelated:           a.IsSanctionsRelated,
		RequiresEnhancedDueDiligence: a.RequiresEnhancedDueDiligence,
		RiskLevel:                    riskLevelColumn(a.RiskLevel),
		RiskFactors:                  pq.StringArray(a.RiskFactors),
		NumberOfShares:               a.NumberOfShares,
		ShareClass:                   ptrOrNil(a.ShareClass),
		Notes:                        ptrOrNil(a.Notes),
		LastReviewedAt:               a.LastReviewedAt,
		ReviewedBy:                   a.ReviewedBy,
		NextReviewDate:               a.NextReviewDate,
		EffectiveFrom:                a.EffectiveFrom,
		EffectiveTo:                  a.EffectiveTo,
		IsActive:                     a.IsActive,
		Verified:                     a.Verified,
		VerifiedBy:                   a.VerifiedBy,
		VerifiedAt:                   a.VerifiedAt,
		VerificationMethod:           ptrOrNil(a.VerificationMethod),
		Metadata:                     datatypes.JSON(a.Metadata),
		CreatedBy:                    a.CreatedBy,
		CreatedAt:                    a.CreatedAt,
		UpdatedAt:                    a.UpdatedAt,
	}
}

func associationToDomain(m models.OrganizationAssociation) domain.Association {
	a := domain.Association{
		Edge: domain.Edge{
			ID:                  m.ID,
			Kind:                domain.KindOrganizationAssociation,
			PrimaryID:           m.OrganizationID,
			RelatedID:           m.IndividualID,
			RelationshipType:    domain.RelationshipType(m.RelationshipType),
			OwnershipPercentage: m.OwnershipPercentage,
			EffectiveFrom:       m.EffectiveFrom,
			EffectiveTo:         m.EffectiveTo,
			IsActive:            m.IsActive,
			Verified:            m.Verified,
			VerifiedBy:          m.VerifiedBy,
			VerifiedAt:          m.VerifiedAt,
			VerificationMethod:  deref(m.VerificationMethod),
			Description:         deref(m.AssociationDescription),
			Metadata:            json.RawMessage(m.Metadata),
			CreatedBy:           m.CreatedBy,
			CreatedAt:           m.CreatedAt,
			UpdatedAt:           m.UpdatedAt,
			DeletedAt:           deletedAt(m.DeletedAt),
		},
		VotingRightsPercentage:       m.VotingRightsPercentage,
		PositionTitle:                deref(m.PositionTitle),
		HasSigningAuthority:          m.HasSigningAuthority,
		IsBeneficialOwner:            m.IsBeneficialOwner,
		IsUltimateBeneficialOwner:    m.IsUltimateBeneficialOwner,
		IsKeyManagementPersonnel:     m.IsKeyManagementPersonnel,
		IsAuthorizedSignatory:        m.IsAuthorizedSignatory,
		IsPEP:                        m.IsPEP,
		IsSanctionsRelated:           m.IsSanctionsRelated,
		RequiresEnhancedDueDiligence: m.RequiresEnhancedDueDiligence,
		RiskFactors:                  []string(m.RiskFactors),
		NumberOfShares:               m.NumberOfShares,
		ShareClass:                   deref(m.ShareClass),
		Notes:                        deref(m.Notes),
		LastReviewedAt:               m.LastReviewedAt,
		ReviewedBy:                   m.ReviewedBy,
		NextReviewDate:               m.NextReviewDate,
	}
	if m.OwnershipType != nil {
		t := domain.OwnershipType(*m.OwnershipType)
		a.OwnershipType = &t
	}
	if m.RiskLevel != nil {
		r := domain.RiskLevel(*m.RiskLevel)
		a.RiskLevel = &r
	}
	return a
}

func associationsToDomain(rows []models.OrganizationAssociation) []domain.Association {
	out := make([]domain.Association, len(rows))
	for i, m := range rows {
		out[i] = associationToDomain(m)
	}
	return out
}
