package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/infrastructure/database"
	"github.com/totegamma/kycgraph/internal/infrastructure/database/models"
)

var edgeSorts = sortColumns{
	"created_at":           "created_at",
	"updated_at":           "updated_at",
	"effective_from":       "effective_from",
	"effective_to":         "effective_to",
	"ownership_percentage": "ownership_percentage",
	"relationship_type":    "relationship_type",
}

type edgeColumns struct {
	primary     string
	related     string
	description string
}

// EdgeRepository stores one of the plain edge tables. M is the gorm model of
// that table; the mapping functions convert it to and from domain.Edge.
type EdgeRepository[M any] struct {
	db       *gorm.DB
	kind     domain.EdgeKind
	resource string
	cols     edgeColumns
	toModel  func(domain.Edge) M
	toDomain func(M) domain.Edge
}

func NewOrganizationRelationshipRepository(db *gorm.DB) *EdgeRepository[models.OrganizationRelationship] {
	return &EdgeRepository[models.OrganizationRelationship]{
		db:       db,
		kind:     domain.KindOrganizationRelationship,
		resource: "organization relationship",
		cols: edgeColumns{
			primary:     "primary_organization_id",
			related:     "related_organization_id",
			description: "relationship_description",
		},
		toModel: func(e domain.Edge) models.OrganizationRelationship {
			return models.OrganizationRelationship{
				ID:                      e.ID,
				PrimaryOrganizationID:   e.PrimaryID,
				RelatedOrganizationID:   e.RelatedID,
				RelationshipType:        string(e.RelationshipType),
				RelationshipDescription: ptrOrNil(e.Description),
				OwnershipPercentage:     e.OwnershipPercentage,
				EffectiveFrom:           e.EffectiveFrom,
				EffectiveTo:             e.EffectiveTo,
				IsActive:                e.IsActive,
				Verified:                e.Verified,
				VerifiedBy:              e.VerifiedBy,
				VerifiedAt:              e.VerifiedAt,
				VerificationMethod:      ptrOrNil(e.VerificationMethod),
				Metadata:                datatypes.JSON(e.Metadata),
				CreatedBy:               e.CreatedBy,
				CreatedAt:               e.CreatedAt,
				UpdatedAt:               e.UpdatedAt,
			}
		},
		toDomain: func(m models.OrganizationRelationship) domain.Edge {
			return domain.Edge{
				ID:                  m.ID,
				Kind:                domain.KindOrganizationRelationship,
				PrimaryID:           m.PrimaryOrganizationID,
				RelatedID:           m.RelatedOrganizationID,
				RelationshipType:    domain.RelationshipType(m.RelationshipType),
				OwnershipPercentage: m.OwnershipPercentage,
				EffectiveFrom:       m.EffectiveFrom,
				EffectiveTo:         m.EffectiveTo,
				IsActive:            m.IsActive,
				Verified:            m.Verified,
				VerifiedBy:          m.VerifiedBy,
				VerifiedAt:          m.VerifiedAt,
				VerificationMethod:  deref(m.VerificationMethod),
				Description:         deref(m.RelationshipDescription),
				Metadata:            json.RawMessage(m.Metadata),
				CreatedBy:           m.CreatedBy,
				CreatedAt:           m.CreatedAt,
				UpdatedAt:           m.UpdatedAt,
				DeletedAt:           deletedAt(m.DeletedAt),
			}
		},
	}
}

func NewIndividualRelationshipRepository(db *gorm.DB) *EdgeRepository[models.IndividualRelationship] {
	return &EdgeRepository[models.IndividualRelationship]{
		db:       db,
		kind:     domain.KindIndividualRelationship,
		resource: "individual relationship",
		cols: edgeColumns{
			primary:     "primary_individual_id",
			related:     "related_individual_id",
			description: "relationship_description",
		},
		toModel: func(e domain.Edge) models.IndividualRelationship {
			return models.IndividualRelationship{
				ID:                      e.ID,
				PrimaryIndividualID:     e.PrimaryID,
				RelatedIndividualID:     e.RelatedID,
				RelationshipType:        string(e.RelationshipType),
				RelationshipDescription: ptrOrNil(e.Description),
				OwnershipPercentage:     e.OwnershipPercentage,
				EffectiveFrom:           e.EffectiveFrom,
				EffectiveTo:             e.EffectiveTo,
				IsActive:                e.IsActive,
				Verified:                e.Verified,
				VerifiedBy:              e.VerifiedBy,
				VerifiedAt:              e.VerifiedAt,
				VerificationMethod:      ptrOrNil(e.VerificationMethod),
				Metadata:                datatypes.JSON(e.Metadata),
				CreatedBy:               e.CreatedBy,
				CreatedAt:               e.CreatedAt,
				UpdatedAt:               e.UpdatedAt,
			}
		},
		toDomain: func(m models.IndividualRelationship) domain.Edge {
			return domain.Edge{
				ID:                  m.ID,
				Kind:                domain.KindIndividualRelationship,
				PrimaryID:           m.PrimaryIndividualID,
				RelatedID:           m.RelatedIndividualID,
				RelationshipType:    domain.RelationshipType(m.RelationshipType),
				OwnershipPercentage: m.OwnershipPercentage,
				EffectiveFrom:       m.EffectiveFrom,
				EffectiveTo:         m.EffectiveTo,
				IsActive:            m.IsActive,
				Verified:            m.Verified,
				VerifiedBy:          m.VerifiedBy,
				VerifiedAt:          m.VerifiedAt,
				VerificationMethod:  deref(m.VerificationMethod),
				Description:         deref(m.RelationshipDescription),
				Metadata:            json.RawMessage(m.Metadata),
				CreatedBy:           m.CreatedBy,
				CreatedAt:           m.CreatedAt,
				UpdatedAt:           m.UpdatedAt,
				DeletedAt:           deletedAt(m.DeletedAt),
			}
		},
	}
}

func NewEntityRelationshipRepository(db *gorm.DB) *EdgeRepository[models.OrganizationEntityRelationship] {
	return &EdgeRepository[models.OrganizationEntityRelationship]{
		db:       db,
		kind:     domain.KindEntityRelationship,
		resource: "entity relationship",
		cols: edgeColumns{
			primary:     "from_entity_id",
			related:     "to_entity_id",
			description: "description",
		},
		toModel: func(e domain.Edge) models.OrganizationEntityRelationship {
			return models.OrganizationEntityRelationship{
				ID:                  e.ID,
				FromEntityID:        e.PrimaryID,
				ToEntityID:          e.RelatedID,
				RelationshipType:    string(e.RelationshipType),
				Description:         ptrOrNil(e.Description),
				OwnershipPercentage: e.OwnershipPercentage,
				EffectiveFrom:       e.EffectiveFrom,
				EffectiveTo:         e.EffectiveTo,
				AdditionalDetails:   datatypes.JSON(e.Metadata),
				IsActive:            e.IsActive,
				Verified:            e.Verified,
				VerifiedBy:          e.VerifiedBy,
				VerifiedAt:          e.VerifiedAt,
				VerificationMethod:  ptrOrNil(e.VerificationMethod),
				CreatedBy:           e.CreatedBy,
				CreatedAt:           e.CreatedAt,
				UpdatedAt:           e.UpdatedAt,
			}
		},
		toDomain: func(m models.OrganizationEntityRelationship) domain.Edge {
			return domain.Edge{
				ID:                  m.ID,
				Kind:                domain.KindEntityRelationship,
				PrimaryID:           m.FromEntityID,
				RelatedID:           m.ToEntityID,
				RelationshipType:    domain.RelationshipType(m.RelationshipType),
				OwnershipPercentage: m.OwnershipPercentage,
				EffectiveFrom:       m.EffectiveFrom,
				EffectiveTo:         m.EffectiveTo,
				IsActive:            m.IsActive,
				Verified:            m.Verified,
				VerifiedBy:          m.VerifiedBy,
				VerifiedAt:          m.VerifiedAt,
				VerificationMethod:  deref(m.VerificationMethod),
				Description:         deref(m.Description),
				Metadata:            json.RawMessage(m.AdditionalDetails),
				CreatedBy:           m.CreatedBy,
				CreatedAt:           m.CreatedAt,
				UpdatedAt:           m.UpdatedAt,
				DeletedAt:           deletedAt(m.DeletedAt),
			}
		},
	}
}

func (r *EdgeRepository[M]) Kind() domain.EdgeKind {
	return r.kind
}

func (r *EdgeRepository[M]) Create(ctx context.Context, e domain.Edge) (domain.Edge, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m := r.toModel(e)
	if err := database.Conn(ctx, r.db).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Edge{}, domain.ConflictError{Resource: r.resource, Reason: "duplicate relationship"}
		}
		return domain.Edge{}, translateError(err, r.resource)
	}
	return r.toDomain(m), nil
}

func (r *EdgeRepository[M]) Get(ctx context.Context, id string) (domain.Edge, error) {
	var m M
	if err := database.Conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return domain.Edge{}, translateError(err, r.resource)
	}
	return r.toDomain(m), nil
}

// Update writes the mutable columns of e if the row still carries
// expectedUpdatedAt.
func (r *EdgeRepository[M]) Update(ctx context.Context, e domain.Edge, expectedUpdatedAt time.Time) error {
	conn := database.Conn(ctx, r.db)
	res := conn.Model(new(M)).
		Where("id = ? AND updated_at = ?", e.ID, expectedUpdatedAt).
		Updates(map[string]any{
			"effective_to":        e.EffectiveTo,
			"is_active":           e.IsActive,
			"verified":            e.Verified,
			"verified_by":         e.VerifiedBy,
			"verified_at":         e.VerifiedAt,
			"verification_method": ptrOrNil(e.VerificationMethod),
			"updated_at":          e.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error, r.resource)
	}
	if res.RowsAffected == 0 {
		return r.staleOrMissing(conn, e.ID)
	}
	return nil
}

func (r *EdgeRepository[M]) staleOrMissing(conn *gorm.DB, id string) error {
	var n int64
	if err := conn.Model(new(M)).Where("id = ?", id).Count(&n).Error; err != nil {
		return translateError(err, r.resource)
	}
	if n == 0 {
		return domain.NotFoundError{Resource: r.resource}
	}
	return domain.ConflictError{Resource: r.resource, Reason: "modified concurrently"}
}

func (r *EdgeRepository[M]) SoftDelete(ctx context.Context, id string) error {
	res := database.Conn(ctx, r.db).Where("id = ?", id).Delete(new(M))
	if res.Error != nil {
		return translateError(res.Error, r.resource)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: r.resource}
	}
	return nil
}

func (r *EdgeRepository[M]) Find(ctx context.Context, f domain.RelationshipFilter, p domain.Pagination) (domain.Page[domain.Edge], error) {
	asOf := f.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	q := database.Conn(ctx, r.db).Model(new(M))
	q = applyScope(q, f.Scope)
	q = applyTenant(q, r.cols.primary, f.SubscriberID)
	q = applyIn(q, r.cols.primary, f.PrimaryIDs)
	q = applyIn(q, r.cols.related, f.RelatedIDs)
	if len(f.EntityIDs) > 0 {
		q = q.Where("("+r.cols.primary+" IN ? OR "+r.cols.related+" IN ?)", f.EntityIDs, f.EntityIDs)
	}
	q = applyIn(q, "relationship_type", f.RelationshipTypes)
	q = applyBool(q, "verified", f.Verified)
	q = applyTemporal(q, f.Temporal, "effective_from", "effective_to", asOf)
	q = applyDateRange(q, "effective_from", f.EffectiveFrom)
	q = applyDateRange(q, "effective_to", f.EffectiveTo)
	q = applyDateRange(q, "created_at", f.CreatedAt)
	q = applyPercentRange(q, "ownership_percentage", f.Ownership)
	q = applyIn(q, "created_by", f.CreatedBy)
	q = applySearch(q, f.Search, r.cols.description)

	rows, total, p, err := paginate[M](q, p, edgeSorts)
	if err != nil {
		return domain.Page[domain.Edge]{}, translateError(err, r.resource)
	}
	return domain.NewPage(r.mapAll(rows), total, p), nil
}

// ListBetween returns every edge that is not soft deleted linking a and b in
// either direction, including inactive, expired and future ones, oldest first.
func (r *EdgeRepository[M]) ListBetween(ctx context.Context, a, b string) ([]domain.Edge, error) {
	var rows []M
	err := database.Conn(ctx, r.db).
		Where("("+r.cols.primary+" = ? AND "+r.cols.related+" = ?) OR ("+r.cols.primary+" = ? AND "+r.cols.related+" = ?)", a, b, b, a).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, r.resource)
	}
	return r.mapAll(rows), nil
}

// ListOwnership returns the current OWNS edges leaving entityID and the
// current OWNED_BY edges pointing at it.
func (r *EdgeRepository[M]) ListOwnership(ctx context.Context, entityID string) ([]domain.Edge, error) {
	var rows []M
	q := database.Conn(ctx, r.db).
		Where("("+r.cols.primary+" = ? AND relationship_type = ?) OR ("+r.cols.related+" = ? AND relationship_type = ?)",
			entityID, domain.RelOwns, entityID, domain.RelOwnedBy)
	err := applyTemporal(q, domain.TemporalCurrent, "effective_from", "effective_to", time.Now()).
		Order("ownership_percentage DESC NULLS LAST").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, r.resource)
	}
	return r.mapAll(rows), nil
}

func (r *EdgeRepository[M]) mapAll(rows []M) []domain.Edge {
	out := make([]domain.Edge, len(rows))
	for i, m := range rows {
		out[i] = r.toDomain(m)
	}
	return out
}
