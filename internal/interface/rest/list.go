package rest

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/present/rest/presenter"
	"github.com/totegamma/kycgraph/internal/usecase"
)

type createListRequest struct {
	Name        string          `json:"name" validate:"required"`
	Type        domain.ListType `json:"type" validate:"required"`
	Description string          `json:"description"`
	Scope       string          `json:"scope"`
}

type updateListRequest struct {
	Name        *string          `json:"name"`
	Type        *domain.ListType `json:"type"`
	Description *string          `json:"description"`
	Scope       *string          `json:"scope"`
	IsActive    *bool            `json:"isActive"`
}

type listValueRequest struct {
	Name        string          `json:"name" validate:"required"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata"`
}

type updateListValueRequest struct {
	Name        *string         `json:"name"`
	Code        *string         `json:"code"`
	Description *string         `json:"description"`
	Metadata    json.RawMessage `json:"metadata"`
	IsActive    *bool           `json:"isActive"`
}

type customFieldRequest struct {
	Label        string           `json:"label"`
	Value        string           `json:"value"`
	Type         domain.FieldType `json:"type"`
	Category     string           `json:"category"`
	DisplayOrder int              `json:"displayOrder" validate:"gte=0"`
	IsSensitive  bool             `json:"isSensitive"`
}

func (h *Handler) handleCreateList(c echo.Context) error {
	ctx := c.Request().Context()

	var req createListRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}
	l, err := h.lists.Create(ctx, actor(c), usecase.ListInput{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Scope:       req.Scope,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, l)
}

func (h *Handler) handleFindLists(c echo.Context) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	f := q.listFilter()
	p := q.pagination()
	if q.err != nil {
		return presenter.Error(c, q.err)
	}
	page, err := h.lists.Find(ctx, actor(c), f, p)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, page)
}

// handleLookupList answers whether term is on any of the tenant's active lists.
func (h *Handler) handleLookupList(c echo.Context) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	types := typed[domain.ListType](q.list("types"))
	found, err := h.lists.Lookup(ctx, actor(c), q.str("term"), types)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, found)
}

func (h *Handler) handleGetList(c echo.Context) error {
	ctx := c.Request().Context()

	l, err := h.lists.Get(ctx, actor(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, l)
}

func (h *Handler) handleUpdateList(c echo.Context) error {
	ctx := c.Request().Context()

	var req updateListRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}
	l, err := h.lists.Update(ctx, actor(c), c.Param("id"), usecase.ListPatch{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Scope:       req.Scope,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, l)
}

func (h *Handler) handleDeleteList(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.lists.Delete(ctx, actor(c), c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleAddListValue(c echo.Context) error {
	ctx := c.Request().Context()

	var req listValueRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}
	v, err := h.lists.AddValue(ctx, actor(c), c.Param("id"), usecase.ListValueInput{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, v)
}

func (h *Handler) handleListValues(c echo.Context) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	f := domain.ListValueFilter{ListID: c.Param("id"), Search: q.str("search")}
	if v := q.boolean("includeInactive"); v != nil {
		f.IncludeInactive = *v
	}
	p := q.pagination()
	if q.err != nil {
		return presenter.Error(c, q.err)
	}
	page, err := h.lists.Values(ctx, actor(c), f, p)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, page)
}

func (h *Handler) handleUpdateListValue(c echo.Context) error {
	ctx := c.Request().Context()

	var req updateListValueRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}
	v, err := h.lists.UpdateValue(ctx, actor(c), c.Param("id"), c.Param("valueId"), usecase.ListValuePatch{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Metadata:    req.Metadata,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, v)
}

func (h *Handler) handleRemoveListValue(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.lists.RemoveValue(ctx, actor(c), c.Param("id"), c.Param("valueId")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleSetCustomField(c echo.Context) error {
	ctx := c.Request().Context()

	var req customFieldRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}
	f, err := h.customFields.Set(ctx, actor(c), c.Param("id"), c.Param("key"), usecase.CustomFieldInput{
		Label:        req.Label,
		Value:        req.Value,
		Type:         req.Type,
		Category:     req.Category,
		DisplayOrder: req.DisplayOrder,
		IsSensitive:  req.IsSensitive,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, f)
}

func (h *Handler) handleListCustomFields(c echo.Context) error {
	ctx := c.Request().Context()

	fields, err := h.customFields.List(ctx, actor(c), c.Param("id"), c.QueryParam("category"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, fields)
}

func (h *Handler) handleGetCustomField(c echo.Context) error {
	ctx := c.Request().Context()

	f, err := h.customFields.Get(ctx, actor(c), c.Param("id"), c.Param("key"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, f)
}

func (h *Handler) handleDeleteCustomField(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.customFields.Delete(ctx, actor(c), c.Param("id"), c.Param("key")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}
