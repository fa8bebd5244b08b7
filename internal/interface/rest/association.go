package rest

import (
	"github.com/labstack/echo/v4"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/present/rest/presenter"
	"github.com/totegamma/kycgraph/internal/usecase"
)

type createAssociationRequest struct {
	OrganizationID      string                  `json:"organizationId" validate:"required,uuid"`
	IndividualID        string                  `json:"individualId" validate:"required,uuid"`
	RelationshipType    domain.RelationshipType `json:"relationshipType" validate:"required"`
	OwnershipPercentage *float64                `json:"ownershipPercentage"`
	EffectiveFrom       *date                   `json:"effectiveFrom"`
	EffectiveTo         *date                   `json:"effectiveTo"`
	Description         string                  `json:"description"`

	OwnershipType                *domain.OwnershipType `json:"ownershipType"`
	VotingRightsPercentage       *float64              `json:"votingRightsPercentage"`
	PositionTitle                string                `json:"positionTitle"`
	HasSigningAuthority          bool                  `json:"hasSigningAuthority"`
	IsBeneficialOwner            bool                  `json:"isBeneficialOwner"`
	IsUltimateBeneficialOwner    bool                  `json:"isUltimateBeneficialOwner"`
	IsKeyManagementPersonnel     bool                  `json:"isKeyManagementPersonnel"`
	IsAuthorizedSignatory        bool                  `json:"isAuthorizedSignatory"`
	IsPEP                        bool                  `json:"isPep"`
	IsSanctionsRelated           bool                  `json:"isSanctionsRelated"`
	RequiresEnhancedDueDiligence bool                  `json:"requiresEnhancedDueDiligence"`
	RiskLevel                    *domain.RiskLevel     `json:"riskLevel"`
	RiskFactors                  []string              `json:"riskFactors"`
	NumberOfShares               *int64                `json:"numberOfShares"`
	ShareClass                   string                `json:"shareClass"`
	Notes                        string                `json:"notes"`
	NextReviewDate               *date                 `json:"nextReviewDate"`
}

type reviewRequest struct {
	NextReviewDate *date `json:"nextReviewDate"`
}

type updateRiskRequest struct {
	RiskLevel                    domain.RiskLevel `json:"riskLevel" validate:"required"`
	RiskFactors                  []string         `json:"riskFactors"`
	IsPEP                        *bool            `json:"isPep"`
	IsSanctionsRelated           *bool            `json:"isSanctionsRelated"`
	RequiresEnhancedDueDiligence *bool            `json:"requiresEnhancedDueDiligence"`
	Notes                        *string          `json:"notes"`
}

func (h *Handler) handleCreateAssociation(c echo.Context) error {
	ctx := c.Request().Context()

	var req createAssociationRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	a, err := h.associations.Create(ctx, actor(c), domain.AssociationInput{
		OrganizationID:               req.OrganizationID,
		IndividualID:                 req.IndividualID,
		RelationshipType:             req.RelationshipType,
		OwnershipPercentage:          req.OwnershipPercentage,
		EffectiveFrom:                req.EffectiveFrom.value(),
		EffectiveTo:                  req.EffectiveTo.ptr(),
		Description:                  req.Description,
		OwnershipType:                req.OwnershipType,
		VotingRightsPercentage:       req.VotingRightsPercentage,
		PositionTitle:                req.PositionTitle,
		HasSigningAuthority:          req.HasSigningAuthority,
		IsBeneficialOwner:            req.IsBeneficialOwner,
		IsUltimateBeneficialOwner:    req.IsUltimateBeneficialOwner,
		IsKeyManagementPersonnel:     req.IsKeyManagementPersonnel,
		IsAuthorizedSignatory:        req.IsAuthorizedSignatory,
		IsPEP:                        req.IsPEP,
		IsSanctionsRelated:           req.IsSanctionsRelated,
		RequiresEnhancedDueDiligence: req.RequiresEnhancedDueDiligence,
		RiskLevel:                    req.RiskLevel,
		RiskFactors:                  req.RiskFactors,
		NumberOfShares:               req.NumberOfShares,
		ShareClass:                   req.ShareClass,
		Notes:                        req.Notes,
		NextReviewDate:               req.NextReviewDate.ptr(),
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, a)
}

func (h *Handler) handleFindAssociations(c echo.Context) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	f := q.associationFilter()
	p := q.pagination()
	if q.err != nil {
		return presenter.Error(c, q.err)
	}

	page, err := h.associations.FindViews(ctx, actor(c), f, p)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, page)
}

func (h *Handler) handleNamedAssociations(c echo.Context) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	organizationID := q.id("organizationId")
	p := q.pagination()
	if q.err != nil {
		return presenter.Error(c, q.err)
	}

	page, err := h.associations.Named(ctx, actor(c), usecase.NamedQuery(c.Param("query")), organizationID, p)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, page)
}

func (h *Handler) handleAssociationStatistics(c echo.Context) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	organizationID, individualID := q.id("organizationId"), q.id("individualId")
	asOf := q.asOf()
	if q.err != nil {
		return presenter.Error(c, q.err)
	}

	stats, err := h.ownership.Statistics(ctx, actor(c), organizationID, individualID, asOf)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, stats)
}

func (h *Handler) handleGetAssociation(c echo.Context) error {
	ctx := c.Request().Context()

	q := newQueryParser(c)
	asOf := q.asOf()
	if q.err != nil {
		return presenter.Error(c, q.err)
	}

	view, err := h.associations.View(ctx, actor(c), c.Param("id"), asOf)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, view)
}

func (h *Handler) handleVerifyAssociation(c echo.Context) error {
	ctx := c.Request().Context()

	var req verifyRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	a, err := h.associations.Verify(ctx, actor(c), c.Param("id"), req.Method)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, a)
}

func (h *Handler) handleReviewAssociation(c echo.Context) error {
	ctx := c.Request().Context()

	var req reviewRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	a, err := h.associations.Review(ctx, actor(c), c.Param("id"), req.NextReviewDate.ptr())
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, a)
}

func (h *Handler) handleAssociationRisk(c echo.Context) error {
	ctx := c.Request().Context()

	var req updateRiskRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	a, err := h.associations.UpdateRisk(ctx, actor(c), c.Param("id"), usecase.UpdateRiskInput{
		RiskLevel:                    req.RiskLevel,
		RiskFactors:                  req.RiskFactors,
		IsPEP:                        req.IsPEP,
		IsSanctionsRelated:           req.IsSanctionsRelated,
		RequiresEnhancedDueDiligence: req.RequiresEnhancedDueDiligence,
		Notes:                        req.Notes,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, a)
}

func (h *Handler) handleRetireAssociation(c echo.Context) error {
	ctx := c.Request().Context()

	var req retireRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	a, err := h.associations.Retire(ctx, actor(c), c.Param("id"), req.EffectiveTo.value())
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, a)
}

func (h *Handler) handleDeleteAssociation(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.associations.Delete(ctx, actor(c), c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}
