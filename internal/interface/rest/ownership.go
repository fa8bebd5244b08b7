package rest

import (
	"github.com/labstack/echo/v4"

	"github.com/totegamma/kycgraph/internal/present/rest/presenter"
)

// handleOwnershipSummary serves the cached summary with an ETag so pollers
// can revalidate cheaply.
func (h *Handler) handleOwnershipSummary(c echo.Context) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	asOf := q.asOf()
	if q.err != nil {
		return presenter.Error(c, q.err)
	}

	summary, err := h.ownership.Summary(ctx, actor(c), c.Param("id"), asOf)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OKWithETag(c, summary)
}

func (h *Handler) handleOwnershipStructure(c echo.Context) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	minimum := q.number("minOwnership")
	if q.err != nil {
		return presenter.Error(c, q.err)
	}
	threshold := 0.0
	if minimum != nil {
		threshold = *minimum
	}

	views, err := h.ownership.Structure(ctx, actor(c), c.Param("id"), threshold)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OKWithETag(c, views)
}
