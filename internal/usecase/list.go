package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/kycgraph/internal/domain"
)

const defaultListScope = "internal"

type ListInput struct {
	Name        string
	Type        domain.ListType
	Description string
	Scope       string
}

// ListPatch changes the set fields of a list.
type ListPatch struct {
	Name        *string
	Type        *domain.ListType
	Description *string
	Scope       *string
	IsActive    *bool
}

type ListValueInput struct {
	Name        string
	Code        string
	Description string
	Metadata    json.RawMessage
}

type ListValuePatch struct {
	Name        *string
	Code        *string
	Description *string
	Metadata    json.RawMessage
	IsActive    *bool
}

// ListUsecase manages a tenant's reference lists and their values. Lists are
// not entity data, so changes are not written to entity history.
type ListUsecase struct {
	repo ListRepository
	tx   Transactor
	now  func() time.Time
}

func NewListUsecase(repo ListRepository, tx Transactor) *ListUsecase {
	return &ListUsecase{repo: repo, tx: tx, now: clock}
}

func (uc *ListUsecase) Create(ctx context.Context, actor domain.Actor, in ListInput) (domain.List, error) {
	ctx, span := tracer.Start(ctx, "List.Usecase.Create")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return domain.List{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.List{}, domain.Invalid("name", "required")
	}
	if !in.Type.Valid() {
		return domain.List{}, domain.Invalid("type", "unknown value "+string(in.Type))
	}
	scope := strings.TrimSpace(in.Scope)
	if scope == "" {
		scope = defaultListScope
	}

	now := uc.now()
	l, err := uc.repo.Create(ctx, domain.List{
		SubscriberID: actor.SubscriberID,
		Name:         name,
		Type:         in.Type,
		Description:  in.Description,
		Scope:        scope,
		IsActive:     true,
		CreatedAt:    now,
		CreatedBy:    actor.UserID,
		UpdatedAt:    now,
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "ListUsecase.Create"))
		return domain.List{}, err
	}
	return l, nil
}

// Get returns the list when it belongs to the actor's tenant.
func (uc *ListUsecase) Get(ctx context.Context, actor domain.Actor, id string) (domain.List, error) {
	l, err := uc.repo.Get(ctx, id)
	if err != nil {
		return domain.List{}, err
	}
	if l.SubscriberID != actor.SubscriberID {
		return domain.List{}, domain.NotFoundError{Resource: "list"}
	}
	return l, nil
}

func (uc *ListUsecase) Find(ctx context.Context, actor domain.Actor, f domain.ListFilter, p domain.Pagination) (domain.Page[domain.List], error) {
	ctx, span := tracer.Start(ctx, "List.Usecase.Find")
	defer span.End()

	if err := f.Validate(); err != nil {
		return domain.Page[domain.List]{}, err
	}
	f.SubscriberID = actor.SubscriberID
	return uc.repo.Find(ctx, f, p)
}

func (uc *ListUsecase) Update(ctx context.Context, actor domain.Actor, id string, in ListPatch) (domain.List, error) {
	ctx, span := tracer.Start(ctx, "List.Usecase.Update")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return domain.List{}, err
	}
	var updated domain.List
	err := uc.tx.Do(ctx, func(ctx context.Context) error {
		current, err := uc.Get(ctx, actor, id)
		if err != nil {
			return err
		}
		updated = current
		if in.Name != nil {
			if updated.Name = strings.TrimSpace(*in.Name); updated.Name == "" {
				return domain.Invalid("name", "required")
			}
		}
		if in.Type != nil {
			if !in.Type.Valid() {
				return domain.Invalid("type", "unknown value "+string(*in.Type))
			}
			updated.Type = *in.Type
		}
		if in.Description != nil {
			updated.Description = *in.Description
		}
		if in.Scope != nil {
			if updated.Scope = strings.TrimSpace(*in.Scope); updated.Scope == "" {
				return domain.Invalid("scope", "required")
			}
		}
		if in.IsActive != nil {
			updated.IsActive = *in.IsActive
		}
		updated.UpdatedAt = uc.now()
		updated.UpdatedBy = actor.UserID
		return uc.repo.Update(ctx, updated, current.UpdatedAt)
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "ListUsecase.Update"))
		return domain.List{}, err
	}
	return updated, nil
}

// Delete removes the list together with its values.
func (uc *ListUsecase) Delete(ctx context.Context, actor domain.Actor, id string) error {
	ctx, span := tracer.Start(ctx, "List.Usecase.Delete")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return err
	}
	return uc.tx.Do(ctx, func(ctx context.Context) error {
		if _, err := uc.Get(ctx, actor, id); err != nil {
			return err
		}
		return uc.repo.Delete(ctx, id)
	})
}

func (uc *ListUsecase) AddValue(ctx context.Context, actor domain.Actor, listID string, in ListValueInput) (domain.ListValue, error) {
	ctx, span := tracer.Start(ctx, "List.Usecase.AddValue")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return domain.ListValue{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.ListValue{}, domain.Invalid("name", "required")
	}
	if err := validJSON("metadata", in.Metadata); err != nil {
		return domain.ListValue{}, err
	}

	var created domain.ListValue
	err := uc.tx.Do(ctx, func(ctx context.Context) error {
		if _, err := uc.Get(ctx, actor, listID); err != nil {
			return err
		}
		now := uc.now()
		var err error
		created, err = uc.repo.CreateValue(ctx, domain.ListValue{
			ListID:      listID,
			Name:        name,
			Code:        strings.TrimSpace(in.Code),
			Description: in.Description,
			Metadata:    in.Metadata,
			IsActive:    true,
			CreatedAt:   now,
			CreatedBy:   actor.UserID,
			UpdatedAt:   now,
		})
		return err
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "ListUsecase.AddValue"))
		return domain.ListValue{}, err
	}
	return created, nil
}

func (uc *ListUsecase) UpdateValue(ctx context.Context, actor domain.Actor, listID, valueID string, in ListValuePatch) (domain.ListValue, error) {
	ctx, span := tracer.Start(ctx, "List.Usecase.UpdateValue")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return domain.ListValue{}, err
	}
	if err := validJSON("metadata", in.Metadata); err != nil {
		return domain.ListValue{}, err
	}
	var updated domain.ListValue
	err := uc.tx.Do(ctx, func(ctx context.Context) error {
		current, err := uc.value(ctx, actor, listID, valueID)
		if err != nil {
			return err
		}
		updated = current
		if in.Name != nil {
			if updated.Name = strings.TrimSpace(*in.Name); updated.Name == "" {
				return domain.Invalid("name", "required")
			}
		}
		if in.Code != nil {
			updated.Code = strings.TrimSpace(*in.Code)
		}
		if in.Description != nil {
			updated.Description = *in.Description
		}
		if len(in.Metadata) > 0 {
			updated.Metadata = in.Metadata
		}
		if in.IsActive != nil {
			updated.IsActive = *in.IsActive
		}
		updated.UpdatedAt = uc.now()
		updated.UpdatedBy = actor.UserID
		return uc.repo.UpdateValue(ctx, updated, current.UpdatedAt)
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "ListUsecase.UpdateValue"))
		return domain.ListValue{}, err
	}
	return updated, nil
}

func (uc *ListUsecase) RemoveValue(ctx context.Context, actor domain.Actor, listID, valueID string) error {
	ctx, span := tracer.Start(ctx, "List.Usecase.RemoveValue")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return err
	}
	return uc.tx.Do(ctx, func(ctx context.Context) error {
		if _, err := uc.value(ctx, actor, listID, valueID); err != nil {
			return err
		}
		return uc.repo.DeleteValue(ctx, valueID)
	})
}

func (uc *ListUsecase) Values(ctx context.Context, actor domain.Actor, f domain.ListValueFilter, p domain.Pagination) (domain.Page[domain.ListValue], error) {
	ctx, span := tracer.Start(ctx, "List.Usecase.Values")
	defer span.End()

	if _, err := uc.Get(ctx, actor, f.ListID); err != nil {
		return domain.Page[domain.ListValue]{}, err
	}
	return uc.repo.FindValues(ctx, f, p)
}

// Lookup finds active values of the tenant's active lists whose name or code
// equals term. An empty types slice searches every list type.
func (uc *ListUsecase) Lookup(ctx context.Context, actor domain.Actor, term string, types []domain.ListType) ([]domain.ListValue, error) {
	ctx, span := tracer.Start(ctx, "List.Usecase.Lookup")
	defer span.End()

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.Invalid("term", "required")
	}
	if err := (domain.ListFilter{Types: types}).Validate(); err != nil {
		return nil, err
	}
	return uc.repo.Match(ctx, actor.SubscriberID, term, types)
}

// value loads a value and checks it sits in a list of the actor's tenant.
func (uc *ListUsecase) value(ctx context.Context, actor domain.Actor, listID, valueID string) (domain.ListValue, error) {
	if _, err := uc.Get(ctx, actor, listID); err != nil {
		return domain.ListValue{}, err
	}
	v, err := uc.repo.GetValue(ctx, valueID)
	if err != nil {
		return domain.ListValue{}, err
	}
	if v.ListID != listID {
		return domain.ListValue{}, domain.NotFoundError{Resource: "list value"}
	}
	return v, nil
}
