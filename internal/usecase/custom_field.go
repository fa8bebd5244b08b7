package usecase

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/kycgraph/internal/domain"
)

type CustomFieldInput struct {
	Label        string
	Value        string
	Type         domain.FieldType
	Category     string
	DisplayOrder int
	IsSensitive  bool
}

// CustomFieldUsecase keeps tenant-defined attributes on entities. Sensitive
// values are stored as given and redacted on every read.
type CustomFieldUsecase struct {
	repo     CustomFieldRepository
	entities EntityRepository
	history  HistoryRepository
	tx       Transactor
	now      func() time.Time
}

func NewCustomFieldUsecase(repo CustomFieldRepository, entities EntityRepository, history HistoryRepository, tx Transactor) *CustomFieldUsecase {
	return &CustomFieldUsecase{repo: repo, entities: entities, history: history, tx: tx, now: clock}
}

// Set creates or replaces the field key on an entity.
func (uc *CustomFieldUsecase) Set(ctx context.Context, actor domain.Actor, entityID, key string, in CustomFieldInput) (domain.CustomField, error) {
	ctx, span := tracer.Start(ctx, "CustomField.Usecase.Set")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return domain.CustomField{}, err
	}
	if err := domain.ValidFieldKey(key); err != nil {
		return domain.CustomField{}, err
	}
	if in.Type == "" {
		in.Type = domain.FieldText
	}
	if !in.Type.Valid() {
		return domain.CustomField{}, domain.Invalid("type", "unknown value "+string(in.Type))
	}
	if err := in.Type.Check(in.Value); err != nil {
		return domain.CustomField{}, err
	}

	var saved domain.CustomField
	err := uc.tx.Do(ctx, func(ctx context.Context) error {
		if err := ownedBy(ctx, uc.entities, actor, entityID); err != nil {
			return err
		}
		now := uc.now()
		var err error
		saved, err = uc.repo.Upsert(ctx, domain.CustomField{
			EntityID:     entityID,
			Key:          key,
			Label:        in.Label,
			Value:        in.Value,
			Type:         in.Type,
			Category:     in.Category,
			DisplayOrder: in.DisplayOrder,
			IsSensitive:  in.IsSensitive,
			CreatedAt:    now,
			CreatedBy:    actor.UserID,
			UpdatedAt:    now,
			UpdatedBy:    actor.UserID,
		})
		if err != nil {
			return err
		}
		change := map[string]any{"key": key, "type": in.Type}
		if !in.IsSensitive {
			change["value"] = in.Value
		}
		return uc.history.Append(ctx, historyEntry(entityID, actor, domain.ChangeUpdated, now, "custom field set", change))
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "CustomFieldUsecase.Set"))
		return domain.CustomField{}, err
	}
	return saved.Redacted(), nil
}

func (uc *CustomFieldUsecase) Get(ctx context.Context, actor domain.Actor, entityID, key string) (domain.CustomField, error) {
	if err := ownedBy(ctx, uc.entities, actor, entityID); err != nil {
		return domain.CustomField{}, err
	}
	f, err := uc.repo.Get(ctx, entityID, key)
	if err != nil {
		return domain.CustomField{}, err
	}
	return f.Redacted(), nil
}

func (uc *CustomFieldUsecase) List(ctx context.Context, actor domain.Actor, entityID, category string) ([]domain.CustomField, error) {
	ctx, span := tracer.Start(ctx, "CustomField.Usecase.List")
	defer span.End()

	if err := ownedBy(ctx, uc.entities, actor, entityID); err != nil {
		return nil, err
	}
	fields, err := uc.repo.List(ctx, entityID, category)
	if err != nil {
		return nil, err
	}
	for i := range fields {
		fields[i] = fields[i].Redacted()
	}
	return fields, nil
}

func (uc *CustomFieldUsecase) Delete(ctx context.Context, actor domain.Actor, entityID, key string) error {
	ctx, span := tracer.Start(ctx, "CustomField.Usecase.Delete")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return err
	}
	return uc.tx.Do(ctx, func(ctx context.Context) error {
		if err := ownedBy(ctx, uc.entities, actor, entityID); err != nil {
			return err
		}
		if err := uc.repo.Delete(ctx, entityID, key); err != nil {
			return err
		}
		return uc.history.Append(ctx, historyEntry(entityID, actor, domain.ChangeUpdated, uc.now(), "custom field removed", map[string]any{"key": key}))
	})
}
