package rest

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/present/rest/presenter"
	"github.com/totegamma/kycgraph/internal/usecase"
)

type onboardRequest struct {
	EntityType      domain.EntityType           `json:"entityType" validate:"required,oneof=INDIVIDUAL ORGANIZATION"`
	Name            string                      `json:"name"`
	ReferenceNumber string                      `json:"referenceNumber"`
	RiskLevel       *domain.RiskLevel           `json:"riskLevel"`
	Individual      *domain.IndividualProfile   `json:"individual"`
	Organization    *domain.OrganizationProfile `json:"organization"`
}

type screeningRequest struct {
	Provider        string                 `json:"provider" validate:"required"`
	MatchedRecords  json.RawMessage        `json:"matchedRecords"`
	BestMatchScore  *float64               `json:"bestMatchScore"`
	ScreeningStatus domain.ScreeningStatus `json:"screeningStatus" validate:"required"`
	ReviewedBy      *string                `json:"reviewedBy" validate:"omitempty,uuid"`
}

type riskAssessmentRequest struct {
	RiskLevel         domain.RiskLevel `json:"riskLevel" validate:"required"`
	RiskScore         *float64         `json:"riskScore"`
	RiskFactors       json.RawMessage  `json:"riskFactors"`
	MitigationActions json.RawMessage  `json:"mitigationActions"`
	AnalystID         *string          `json:"analystId" validate:"omitempty,uuid"`
}

func (h *Handler) handleOnboard(c echo.Context) error {
	ctx := c.Request().Context()

	var req onboardRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	e, err := h.entities.Onboard(ctx, actor(c), usecase.OnboardInput{
		EntityType:      req.EntityType,
		Name:            req.Name,
		ReferenceNumber: req.ReferenceNumber,
		RiskLevel:       req.RiskLevel,
		Individual:      req.Individual,
		Organization:    req.Organization,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, e)
}

func (h *Handler) handleFindEntities(c echo.Context) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	f := q.entityFilter()
	p := q.pagination()
	if q.err != nil {
		return presenter.Error(c, q.err)
	}

	page, err := h.entities.Find(ctx, actor(c), f, p)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, page)
}

func (h *Handler) handleGetEntity(c echo.Context) error {
	ctx := c.Request().Context()

	e, err := h.entities.Get(ctx, actor(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, e)
}

func (h *Handler) handleDeleteEntity(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.entities.Delete(ctx, actor(c), c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleHistory(c echo.Context) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	p := q.pagination()
	if q.err != nil {
		return presenter.Error(c, q.err)
	}

	page, err := h.history.List(ctx, actor(c), c.Param("id"), p)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, page)
}

func (h *Handler) handleRecordScreening(c echo.Context) error {
	ctx := c.Request().Context()

	var req screeningRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	s, err := h.analysis.RecordScreening(ctx, actor(c), usecase.ScreeningInput{
		EntityID:        c.Param("id"),
		Provider:        req.Provider,
		MatchedRecords:  req.MatchedRecords,
		BestMatchScore:  req.BestMatchScore,
		ScreeningStatus: req.ScreeningStatus,
		ReviewedBy:      req.ReviewedBy,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, s)
}

func (h *Handler) handleListScreenings(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.analysis.Screenings(ctx, actor(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, list)
}

func (h *Handler) handleRecordRisk(c echo.Context) error {
	ctx := c.Request().Context()

	var req riskAssessmentRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	a, err := h.analysis.RecordRisk(ctx, actor(c), usecase.RiskInput{
		EntityID:          c.Param("id"),
		RiskLevel:         req.RiskLevel,
		RiskScore:         req.RiskScore,
		RiskFactors:       req.RiskFactors,
		MitigationActions: req.MitigationActions,
		AnalystID:         req.AnalystID,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, a)
}

func (h *Handler) handleListRisks(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.analysis.Risks(ctx, actor(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, list)
}
