package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/infrastructure/database"
	"github.com/totegamma/kycgraph/internal/infrastructure/database/models"
)

const customFieldResource = "custom field"

type CustomFieldRepository struct {
	db *gorm.DB
}

func NewCustomFieldRepository(db *gorm.DB) *CustomFieldRepository {
	return &CustomFieldRepository{db: db}
}

// Upsert writes f keyed by (entity, key). An existing row keeps its id and
// creation stamp.
func (r *CustomFieldRepository) Upsert(ctx context.Context, f domain.CustomField) (domain.CustomField, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	m := customFieldToModel(f)
	err := database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "entity_id"}, {Name: "field_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"field_label", "field_value", "field_type", "field_category",
				"display_order", "is_sensitive", "updated_at", "updated_by",
			}),
		}).
		Create(&m).Error
	if err != nil {
		return domain.CustomField{}, translateError(err, customFieldResource)
	}
	return r.Get(ctx, f.EntityID, f.Key)
}

func (r *CustomFieldRepository) Get(ctx context.Context, entityID, key string) (domain.CustomField, error) {
	var m models.CustomField
	err := database.Conn(ctx, r.db).First(&m, "entity_id = ? AND field_key = ?", entityID, key).Error
	if err != nil {
		return domain.CustomField{}, translateError(err, customFieldResource)
	}
	return customFieldToDomain(m), nil
}

// List returns the fields of one entity in display order, optionally limited
// to category.
func (r *CustomFieldRepository) List(ctx context.Context, entityID, category string) ([]domain.CustomField, error) {
	q := database.Conn(ctx, r.db).Where("entity_id = ?", entityID)
	if category != "" {
		q = q.Where("field_category = ?", category)
	}
	var rows []models.CustomField
	if err := q.Order("display_order ASC").Order("field_key ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err, customFieldResource)
	}
	out := make([]domain.CustomField, len(rows))
	for i, m := range rows {
		out[i] = customFieldToDomain(m)
	}
	return out, nil
}

func (r *CustomFieldRepository) Delete(ctx context.Context, entityID, key string) error {
	res := database.Conn(ctx, r.db).
		Where("entity_id = ? AND field_key = ?", entityID, key).
		Delete(&models.CustomField{})
	if res.Error != nil {
		return translateError(res.Error, customFieldResource)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: customFieldResource}
	}
	return nil
}

func customFieldToModel(f domain.CustomField) models.CustomField {
	return models.CustomField{
		ID:           f.ID,
		EntityID:     f.EntityID,
		Key:          f.Key,
		Label:        ptrOrNil(f.Label),
		Value:        ptrOrNil(f.Value),
		Type:         string(f.Type),
		Category:     ptrOrNil(f.Category),
		DisplayOrder: f.DisplayOrder,
		IsSensitive:  f.IsSensitive,
		CreatedAt:    f.CreatedAt,
		CreatedBy:    f.CreatedBy,
		UpdatedAt:    f.UpdatedAt,
		UpdatedBy:    ptrOrNil(f.UpdatedBy),
	}
}

func customFieldToDomain(m models.CustomField) domain.CustomField {
	return domain.CustomField{
		ID:           m.ID,
		EntityID:     m.EntityID,
		Key:          m.Key,
		Label:        deref(m.Label),
		Value:        deref(m.Value),
		Type:         domain.FieldType(m.Type),
		Category:     deref(m.Category),
		DisplayOrder: m.DisplayOrder,
		IsSensitive:  m.IsSensitive,
		CreatedAt:    m.CreatedAt,
		CreatedBy:    m.CreatedBy,
		UpdatedAt:    m.UpdatedAt,
		UpdatedBy:    deref(m.UpdatedBy),
	}
}
