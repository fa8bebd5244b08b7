package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/infrastructure/database"
	"github.com/totegamma/kycgraph/internal/infrastructure/database/models"
)

var historySorts = sortColumns{
	"created_at":  "changed_at",
	"changed_at":  "changed_at",
	"change_type": "change_type",
}

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, entries ...domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]models.EntityHistory, len(entries))
	for i, h := range entries {
		if h.ID == "" {
			h.ID = uuid.NewString()
		}
		rows[i] = models.EntityHistory{
			ID:                h.ID,
			EntityID:          h.EntityID,
			ChangedAt:         h.ChangedAt,
			ChangedBy:         h.ChangedBy,
			ChangeType:        string(h.ChangeType),
			Changes:           datatypes.JSON(h.Changes),
			ChangeDescription: ptrOrNil(h.ChangeDescription),
			IPAddress:         ptrOrNil(h.IPAddress),
			UserAgent:         ptrOrNil(h.UserAgent),
		}
	}
	return translateError(database.Conn(ctx, r.db).Create(&rows).Error, "entity history")
}

// List pages through the history of one entity, newest first by default.
func (r *HistoryRepository) List(ctx context.Context, entityID string, p domain.Pagination) (domain.Page[domain.HistoryEntry], error) {
	q := database.Conn(ctx, r.db).Model(&models.EntityHistory{}).Where("entity_id = ?", entityID)
	rows, total, p, err := paginate[models.EntityHistory](q, p, historySorts)
	if err != nil {
		return domain.Page[domain.HistoryEntry]{}, translateError(err, "entity history")
	}
	items := make([]domain.HistoryEntry, len(rows))
	for i, m := range rows {
		items[i] = domain.HistoryEntry{
			ID:                m.ID,
			EntityID:          m.EntityID,
			ChangedAt:         m.ChangedAt,
			ChangedBy:         m.ChangedBy,
			ChangeType:        domain.ChangeType(m.ChangeType),
			Changes:           json.RawMessage(m.Changes),
			ChangeDescription: deref(m.ChangeDescription),
			IPAddress:         deref(m.IPAddress),
			UserAgent:         deref(m.UserAgent),
		}
	}
	return domain.NewPage(items, total, p), nil
}
