package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/infrastructure/database"
	"github.com/totegamma/kycgraph/internal/infrastructure/database/models"
)

const (
	listResource      = "list"
	listValueResource = "list value"
)

var listSorts = sortColumns{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "list_name",
	"type":       "list_type",
}

var listValueSorts = sortColumns{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "value_name",
	"code":       "value_code",
}

type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

func (r *ListRepository) Create(ctx context.Context, l domain.List) (domain.List, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	m := listToModel(l)
	if err := database.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return domain.List{}, translateError(err, listResource)
	}
	return listToDomain(m), nil
}

func (r *ListRepository) Get(ctx context.Context, id string) (domain.List, error) {
	var m models.List
	if err := database.Conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return domain.List{}, translateError(err, listResource)
	}
	return listToDomain(m), nil
}

// Update overwrites the mutable columns when the row is still at
// expectedUpdatedAt.
func (r *ListRepository) Update(ctx context.Context, l domain.List, expectedUpdatedAt time.Time) error {
	return r.updateWhenUnchanged(ctx, &models.List{}, listResource, l.ID, expectedUpdatedAt, map[string]any{
		"list_name":   l.Name,
		"list_type":   string(l.Type),
		"description": ptrOrNil(l.Description),
		"scope":       l.Scope,
		"is_active":   l.IsActive,
		"updated_at":  l.UpdatedAt,
		"updated_by":  ptrOrNil(l.UpdatedBy),
	})
}

// Delete removes the list; its values go with it.
func (r *ListRepository) Delete(ctx context.Context, id string) error {
	res := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&models.List{})
	if res.Error != nil {
		return translateError(res.Error, listResource)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: listResource}
	}
	return nil
}

func (r *ListRepository) Find(ctx context.Context, f domain.ListFilter, p domain.Pagination) (domain.Page[domain.List], error) {
	q := database.Conn(ctx, r.db).Model(&models.List{})
	q = applyScope(q, domain.Scope{IncludeInactive: f.IncludeInactive})
	if f.SubscriberID != "" {
		q = q.Where("subscriber_id = ?", f.SubscriberID)
	}
	if f.Scope != "" {
		q = q.Where("scope = ?", f.Scope)
	}
	q = applyIn(q, "list_type", f.Types)
	q = applySearch(q, f.Search, "list_name", "description")

	rows, total, p, err := paginate[models.List](q, p, listSorts)
	if err != nil {
		return domain.Page[domain.List]{}, translateError(err, listResource)
	}
	items := make([]domain.List, len(rows))
	for i, m := range rows {
		items[i] = listToDomain(m)
	}
	return domain.NewPage(items, total, p), nil
}

func (r *ListRepository) CreateValue(ctx context.Context, v domain.ListValue) (domain.ListValue, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	m := listValueToModel(v)
	if err := database.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return domain.ListValue{}, translateError(err, listValueResource)
	}
	return listValueToDomain(m), nil
}

func (r *ListRepository) GetValue(ctx context.Context, id string) (domain.ListValue, error) {
	var m models.ListValue
	if err := database.Conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return domain.ListValue{}, translateError(err, listValueResource)
	}
	return listValueToDomain(m), nil
}

func (r *ListRepository) UpdateValue(ctx context.Context, v domain.ListValue, expectedUpdatedAt time.Time) error {
	return r.updateWhenUnchanged(ctx, &models.ListValue{}, listValueResource, v.ID, expectedUpdatedAt, map[string]any{
		"value_name":        v.Name,
		"value_code":        ptrOrNil(v.Code),
		"value_description": ptrOrNil(v.Description),
		"value_metadata":    datatypes.JSON(v.Metadata),
		"is_active":         v.IsActive,
		"updated_at":        v.UpdatedAt,
		"updated_by":        ptrOrNil(v.UpdatedBy),
	})
}

func (r *ListRepository) DeleteValue(ctx context.Context, id string) error {
	res := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&models.ListValue{})
	if res.Error != nil {
		return translateError(res.Error, listValueResource)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: listValueResource}
	}
	return nil
}

func (r *ListRepository) FindValues(ctx context.Context, f domain.ListValueFilter, p domain.Pagination) (domain.Page[domain.ListValue], error) {
	q := database.Conn(ctx, r.db).Model(&models.ListValue{}).Where("list_id = ?", f.ListID)
	q = applyScope(q, domain.Scope{IncludeInactive: f.IncludeInactive})
	q = applySearch(q, f.Search, "value_name", "value_code", "value_description")

	rows, total, p, err := paginate[models.ListValue](q, p, listValueSorts)
	if err != nil {
		return domain.Page[domain.ListValue]{}, translateError(err, listValueResource)
	}
	items := make([]domain.ListValue, len(rows))
	for i, m := range rows {
		items[i] = listValueToDomain(m)
	}
	return domain.NewPage(items, total, p), nil
}

// Match returns the active values of the tenant's active lists whose name or
// code equals term, ignoring case.
func (r *ListRepository) Match(ctx context.Context, subscriberID, term string, types []domain.ListType) ([]domain.ListValue, error) {
	lists := database.Conn(ctx, r.db).
		Session(&gorm.Session{NewDB: true}).
		Model(&models.List{}).
		Select("id").
		Where("subscriber_id = ? AND is_active = ?", subscriberID, true)
	lists = applyIn(lists, "list_type", types)

	var rows []models.ListValue
	err := database.Conn(ctx, r.db).
		Where("list_id IN (?)", lists).
		Where("is_active = ?", true).
		Where("(LOWER(value_name) = LOWER(?) OR LOWER(value_code) = LOWER(?))", term, term).
		Order("list_id ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, listValueResource)
	}
	out := make([]domain.ListValue, len(rows))
	for i, m := range rows {
		out[i] = listValueToDomain(m)
	}
	return out, nil
}

// updateWhenUnchanged applies values to row id of model when its updated_at
// still equals expected, telling a stale write apart from a missing row.
func (r *ListRepository) updateWhenUnchanged(ctx context.Context, model any, resource, id string, expected time.Time, values map[string]any) error {
	conn := database.Conn(ctx, r.db)
	res := conn.Model(model).Where("id = ? AND updated_at = ?", id, expected).Updates(values)
	if res.Error != nil {
		return translateError(res.Error, resource)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := conn.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return translateError(err, resource)
	}
	if n == 0 {
		return domain.NotFoundError{Resource: resource}
	}
	return domain.ConflictError{Resource: resource, Reason: "modified concurrently"}
}

func listToModel(l domain.List) models.List {
	return models.List{
		ID:           l.ID,
		SubscriberID: l.SubscriberID,
		Name:         l.Name,
		Type:         string(l.Type),
		Description:  ptrOrNil(l.Description),
		Scope:        l.Scope,
		IsActive:     l.IsActive,
		CreatedAt:    l.CreatedAt,
		CreatedBy:    l.CreatedBy,
		UpdatedAt:    l.UpdatedAt,
		UpdatedBy:    ptrOrNil(l.UpdatedBy),
	}
}

func listToDomain(m models.List) domain.List {
	return domain.List{
		ID:           m.ID,
		SubscriberID: m.SubscriberID,
		Name:         m.Name,
		Type:         domain.ListType(m.Type),
		Description:  deref(m.Description),
		Scope:        m.Scope,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		CreatedBy:    m.CreatedBy,
		UpdatedAt:    m.UpdatedAt,
		UpdatedBy:    deref(m.UpdatedBy),
	}
}

func listValueToModel(v domain.ListValue) models.ListValue {
	return models.ListValue{
		ID:          v.ID,
		ListID:      v.ListID,
		Name:        v.Name,
		Code:        ptrOrNil(v.Code),
		Description: ptrOrNil(v.Description),
		Metadata:    datatypes.JSON(v.Metadata),
		IsActive:    v.IsActive,
		CreatedAt:   v.CreatedAt,
		CreatedBy:   v.CreatedBy,
		UpdatedAt:   v.UpdatedAt,
		UpdatedBy:   ptrOrNil(v.UpdatedBy),
	}
}

func listValueToDomain(m models.ListValue) domain.ListValue {
	return domain.ListValue{
		ID:          m.ID,
		ListID:      m.ListID,
		Name:        m.Name,
		Code:        deref(m.Code),
		Description: deref(m.Description),
		Metadata:    json.RawMessage(m.Metadata),
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
		UpdatedAt:   m.UpdatedAt,
		UpdatedBy:   deref(m.UpdatedBy),
	}
}
