package rest

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/present/rest/presenter"
	"github.com/totegamma/kycgraph/internal/usecase"
)

type createRelationshipRequest struct {
	PrimaryID           string                  `json:"primaryId" validate:"required,uuid"`
	RelatedID           string                  `json:"relatedId" validate:"required,uuid"`
	RelationshipType    domain.RelationshipType `json:"relationshipType" validate:"required"`
	OwnershipPercentage *float64                `json:"ownershipPercentage"`
	EffectiveFrom       *date                   `json:"effectiveFrom"`
	EffectiveTo         *date                   `json:"effectiveTo"`
	Description         string                  `json:"description"`
	Metadata            json.RawMessage         `json:"metadata"`
	CreateReciprocal    bool                    `json:"createReciprocal"`
}

type verifyRequest struct {
	Method string `json:"method"`
}

type retireRequest struct {
	EffectiveTo *date `json:"effectiveTo"`
}

func (h *Handler) registerRelationshipRoutes(g *echo.Group, uc *usecase.RelationshipUsecase) {
	g.POST("", func(c echo.Context) error { return h.handleCreateRelationship(c, uc) })
	g.GET("", func(c echo.Context) error { return h.handleFindRelationships(c, uc) })
	g.GET("/between", func(c echo.Context) error { return h.handleBetween(c, uc) })
	g.GET("/from/:entityId", func(c echo.Context) error { return h.handleDirected(c, uc, true) })
	g.GET("/to/:entityId", func(c echo.Context) error { return h.handleDirected(c, uc, false) })
	g.GET("/:id", func(c echo.Context) error { return h.handleGetRelationship(c, uc) })
	g.POST("/:id/verify", func(c echo.Context) error { return h.handleVerifyRelationship(c, uc) })
	g.POST("/:id/retire", func(c echo.Context) error { return h.handleRetireRelationship(c, uc) })
	g.DELETE("/:id", func(c echo.Context) error { return h.handleDeleteRelationship(c, uc) })
}

func (h *Handler) handleCreateRelationship(c echo.Context, uc *usecase.RelationshipUsecase) error {
	ctx := c.Request().Context()

	var req createRelationshipRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	result, err := uc.Create(ctx, actor(c), usecase.CreateRelationshipInput{
		PrimaryID:           req.PrimaryID,
		RelatedID:           req.RelatedID,
		RelationshipType:    req.RelationshipType,
		OwnershipPercentage: req.OwnershipPercentage,
		EffectiveFrom:       req.EffectiveFrom.value(),
		EffectiveTo:         req.EffectiveTo.ptr(),
		Description:         req.Description,
		Metadata:            req.Metadata,
		CreateReciprocal:    req.CreateReciprocal,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, result)
}

func (h *Handler) handleFindRelationships(c echo.Context, uc *usecase.RelationshipUsecase) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	f := q.relationshipFilter()
	p := q.pagination()
	if q.err != nil {
		return presenter.Error(c, q.err)
	}

	page, err := uc.Find(ctx, actor(c), f, p)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, page)
}

func (h *Handler) handleBetween(c echo.Context, uc *usecase.RelationshipUsecase) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	a, b := q.id("a"), q.id("b")
	if q.err != nil {
		return presenter.Error(c, q.err)
	}
	if a == "" || b == "" {
		return presenter.Error(c, domain.Invalid("a", "both a and b are required"))
	}

	edges, err := uc.Between(ctx, actor(c), a, b)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, edges)
}

func (h *Handler) handleDirected(c echo.Context, uc *usecase.RelationshipUsecase, outgoing bool) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	p := q.pagination()
	if q.err != nil {
		return presenter.Error(c, q.err)
	}

	find := uc.To
	if outgoing {
		find = uc.From
	}
	page, err := find(ctx, actor(c), c.Param("entityId"), p)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, page)
}

func (h *Handler) handleGetRelationship(c echo.Context, uc *usecase.RelationshipUsecase) error {
	ctx := c.Request().Context()

	e, err := uc.Get(ctx, actor(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, e)
}

func (h *Handler) handleVerifyRelationship(c echo.Context, uc *usecase.RelationshipUsecase) error {
	ctx := c.Request().Context()

	var req verifyRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	e, err := uc.Verify(ctx, actor(c), c.Param("id"), req.Method)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, e)
}

func (h *Handler) handleRetireRelationship(c echo.Context, uc *usecase.RelationshipUsecase) error {
	ctx := c.Request().Context()

	var req retireRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	e, err := uc.Retire(ctx, actor(c), c.Param("id"), req.EffectiveTo.value())
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, e)
}

func (h *Handler) handleDeleteRelationship(c echo.Context, uc *usecase.RelationshipUsecase) error {
	ctx := c.Request().Context()

	if err := uc.Delete(ctx, actor(c), c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

// handleOwnershipEdges lists the plain OWNS and OWNED_BY edges around an entity.
func (h *Handler) handleOwnershipEdges(uc *usecase.RelationshipUsecase) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		edges, err := uc.Ownership(ctx, actor(c), c.Param("id"))
		if err != nil {
			return presenter.Error(c, err)
		}
		return presenter.OK(c, edges)
	}
}
