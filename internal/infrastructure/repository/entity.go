package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/infrastructure/database"
	"github.com/totegamma/kycgraph/internal/infrastructure/database/models"
)

const entityResource = "entity"

var entitySorts = sortColumns{
	"created_at":       "created_at",
	"updated_at":       "updated_at",
	"name":             "name",
	"reference_number": "reference_number",
	"status":           "status",
	"risk_level":       "risk_level",
}

type EntityRepository struct {
	db *gorm.DB
}

func NewEntityRepository(db *gorm.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// Create inserts the entity row and its typed extension row together.
func (r *EntityRepository) Create(ctx context.Context, e domain.Entity) (domain.Entity, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m := entityToModel(e)
	if err := database.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return domain.Entity{}, translateError(err, entityResource)
	}
	return entityToDomain(m), nil
}

func (r *EntityRepository) Get(ctx context.Context, id string) (domain.Entity, error) {
	var m models.Entity
	err := database.Conn(ctx, r.db).
		Preload("Individual").
		Preload("Organization").
		First(&m, "id = ?", id).Error
	if err != nil {
		return domain.Entity{}, translateError(err, entityResource)
	}
	return entityToDomain(m), nil
}

// Lock loads the non-deleted entities among ids and holds a share lock on
// them until the surrounding transaction ends, so an endpoint cannot be
// deleted while an edge to it is being written. Missing ids are absent from
// the result.
func (r *EntityRepository) Lock(ctx context.Context, ids ...string) (map[string]domain.Entity, error) {
	var rows []models.Entity
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, entityResource)
	}
	out := make(map[string]domain.Entity, len(rows))
	for _, m := range rows {
		out[m.ID] = entityToDomain(m)
	}
	return out, nil
}

func (r *EntityRepository) Find(ctx context.Context, f domain.EntityFilter, p domain.Pagination) (domain.Page[domain.Entity], error) {
	q := database.Conn(ctx, r.db).Model(&models.Entity{})
	q = applyScope(q, f.Scope)
	if f.SubscriberID != "" {
		q = q.Where("subscriber_id = ?", f.SubscriberID)
	}
	q = applyIn(q, "entity_type", f.EntityTypes)
	q = applyIn(q, "status", f.Statuses)
	q = applyIn(q, "risk_level", f.RiskLevels)
	q = applyIn(q, "screening_status", f.ScreeningStatuses)
	q = applyDateRange(q, "created_at", f.CreatedAt)
	q = applySearch(q, f.Search, "name", "reference_number")

	rows, total, p, err := paginate[models.Entity](q, p, entitySorts)
	if err != nil {
		return domain.Page[domain.Entity]{}, translateError(err, entityResource)
	}
	if err := r.loadProfiles(ctx, rows); err != nil {
		return domain.Page[domain.Entity]{}, err
	}
	items := make([]domain.Entity, len(rows))
	for i, m := range rows {
		items[i] = entityToDomain(m)
	}
	return domain.NewPage(items, total, p), nil
}

// loadProfiles attaches extension rows to a page of entities.
func (r *EntityRepository) loadProfiles(ctx context.Context, rows []models.Entity) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	for i, m := range rows {
		ids[i] = m.ID
	}
	conn := database.Conn(ctx, r.db)

	var individuals []models.IndividualEntity
	if err := conn.Where("entity_id IN ?", ids).Find(&individuals).Error; err != nil {
		return translateError(err, entityResource)
	}
	var organizations []models.OrganizationEntity
	if err := conn.Where("entity_id IN ?", ids).Find(&organizations).Error; err != nil {
		return translateError(err, entityResource)
	}

	byID := make(map[string]*models.Entity, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	for i := range individuals {
		byID[individuals[i].EntityID].Individual = &individuals[i]
	}
	for i := range organizations {
		byID[organizations[i].EntityID].Organization = &organizations[i]
	}
	return nil
}

func (r *EntityRepository) SoftDelete(ctx context.Context, id, by string, at time.Time) error {
	conn := database.Conn(ctx, r.db)
	res := conn.Model(&models.Entity{}).
		Where("id = ?", id).
		Updates(map[string]any{"updated_by": by, "updated_at": at})
	if res.Error != nil {
		return translateError(res.Error, entityResource)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: entityResource}
	}
	return translateError(conn.Where("id = ?", id).Delete(&models.Entity{}).Error, entityResource)
}

// RecordScreening stamps the outcome of the latest screening on the entity.
func (r *EntityRepository) RecordScreening(ctx context.Context, id string, status domain.ScreeningStatus, by string, at time.Time) error {
	return r.stamp(ctx, id, map[string]any{
		"screening_status": string(status),
		"last_screened_at": at,
		"updated_by":       by,
		"updated_at":       at,
	})
}

// RecordRisk stamps the outcome of the latest risk assessment on the entity.
func (r *EntityRepository) RecordRisk(ctx context.Context, id string, level domain.RiskLevel, by string, at time.Time) error {
	return r.stamp(ctx, id, map[string]any{
		"risk_level":            string(level),
		"last_risk_assessed_at": at,
		"updated_by":            by,
		"updated_at":            at,
	})
}

func (r *EntityRepository) stamp(ctx context.Context, id string, values map[string]any) error {
	res := database.Conn(ctx, r.db).Model(&models.Entity{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return translateError(res.Error, entityResource)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: entityResource}
	}
	return nil
}

func entityToModel(e domain.Entity) models.Entity {
	m := models.Entity{
		ID:                  e.ID,
		SubscriberID:        e.SubscriberID,
		EntityType:          string(e.EntityType),
		Name:                e.Name,
		ReferenceNumber:     e.ReferenceNumber,
		Status:              string(e.Status),
		RiskLevel:           riskLevelColumn(e.RiskLevel),
		ScreeningStatus:     string(e.ScreeningStatus),
		OnboardingCompleted: e.OnboardingComplete,
		LastScreenedAt:      e.LastScreenedAt,
		LastRiskAssessedAt:  e.LastRiskAssessedAt,
		CreatedBy:           e.CreatedBy,
		UpdatedBy:           e.UpdatedBy,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
		IsActive:            e.IsActive,
	}
	if p := e.Individual; p != nil {
		m.Individual = &models.IndividualEntity{
			EntityID:           e.ID,
			DateOfBirth:        p.DateOfBirth,
			Nationality:        datatypes.JSONSlice[string](append([]string{}, p.Nationality...)),
			CountryOfResidence: ptrOrNil(p.CountryOfResidence),
			Gender:             ptrOrNil(p.Gender),
			Occupation:         ptrOrNil(p.Occupation),
			NationalID:         ptrOrNil(p.NationalID),
			IDType:             ptrOrNil(p.IDType),
			IDExpiryDate:       p.IDExpiryDate,
			SourceOfIncome:     ptrOrNil(p.SourceOfIncome),
			IsPEP:              p.IsPEP,
			HasCriminalRecord:  p.HasCriminalRecord,
			CreatedAt:          e.CreatedAt,
			UpdatedAt:          e.UpdatedAt,
		}
	}
	if p := e.Organization; p != nil {
		m.Organization = &models.OrganizationEntity{
			EntityID:                     e.ID,
			LegalName:                    p.LegalName,
			TradeName:                    ptrOrNil(p.TradeName),
			CountryOfIncorporation:       ptrOrNil(p.CountryOfIncorporation),
			DateOfIncorporation:          p.DateOfIncorporation,
			OrganizationType:             ptrOrNil(p.OrganizationType),
			LegalStructure:               ptrOrNil(p.LegalStructure),
			TaxIdentificationNumber:      ptrOrNil(p.TaxIdentification),
			CommercialRegistrationNumber: ptrOrNil(p.RegistrationNumber),
			IndustrySector:               ptrOrNil(p.IndustrySector),
			NumberOfEmployees:            p.NumberOfEmployees,
			AnnualRevenue:                p.AnnualRevenue,
			CreatedAt:                    e.CreatedAt,
			UpdatedAt:                    e.UpdatedAt,
		}
	}
	return m
}

func entityToDomain(m models.Entity) domain.Entity {
	e := domain.Entity{
		ID:                 m.ID,
		SubscriberID:       m.SubscriberID,
		EntityType:         domain.EntityType(m.EntityType),
		Name:               m.Name,
		ReferenceNumber:    m.ReferenceNumber,
		Status:             domain.EntityStatus(m.Status),
		ScreeningStatus:    domain.ScreeningStatus(m.ScreeningStatus),
		OnboardingComplete: m.OnboardingCompleted,
		LastScreenedAt:     m.LastScreenedAt,
		LastRiskAssessedAt: m.LastRiskAssessedAt,
		CreatedBy:          m.CreatedBy,
		UpdatedBy:          m.UpdatedBy,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		DeletedAt:          deletedAt(m.DeletedAt),
		IsActive:           m.IsActive,
	}
	if m.RiskLevel != nil {
		level := domain.RiskLevel(*m.RiskLevel)
		e.RiskLevel = &level
	}
	if p := m.Individual; p != nil {
		e.Individual = &domain.IndividualProfile{
			DateOfBirth:        p.DateOfBirth,
			Nationality:        []string(p.Nationality),
			CountryOfResidence: deref(p.CountryOfResidence),
			Gender:             deref(p.Gender),
			Occupation:         deref(p.Occupation),
			NationalID:         deref(p.NationalID),
			IDType:             deref(p.IDType),
			IDExpiryDate:       p.IDExpiryDate,
			SourceOfIncome:     deref(p.SourceOfIncome),
			IsPEP:              p.IsPEP,
			HasCriminalRecord:  p.HasCriminalRecord,
		}
	}
	if p := m.Organization; p != nil {
		e.Organization = &domain.OrganizationProfile{
			LegalName:              p.LegalName,
			TradeName:              deref(p.TradeName),
			CountryOfIncorporation: deref(p.CountryOfIncorporation),
			DateOfIncorporation:    p.DateOfIncorporation,
			OrganizationType:       deref(p.OrganizationType),
			LegalStructure:         deref(p.LegalStructure),
			TaxIdentification:      deref(p.TaxIdentificationNumber),
			RegistrationNumber:     deref(p.CommercialRegistrationNumber),
			IndustrySector:         deref(p.IndustrySector),
			NumberOfEmployees:      p.NumberOfEmployees,
			AnnualRevenue:          p.AnnualRevenue,
		}
	}
	return e
}
