package rest

import (
	"github.com/labstack/echo/v4"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/present/rest/middleware"
	"github.com/totegamma/kycgraph/internal/usecase"
)

type Handler struct {
	subscribers   *usecase.SubscriberUsecase
	entities      *usecase.EntityUsecase
	relationships map[string]*usecase.RelationshipUsecase
	associations  *usecase.AssociationUsecase
	ownership     *usecase.OwnershipUsecase
	history       *usecase.HistoryUsecase
	analysis      *usecase.AnalysisUsecase
	lists         *usecase.ListUsecase
	customFields  *usecase.CustomFieldUsecase
}

func NewHandler(
	subscribers *usecase.SubscriberUsecase,
	entities *usecase.EntityUsecase,
	organizationRelationships *usecase.RelationshipUsecase,
	individualRelationships *usecase.RelationshipUsecase,
	entityRelationships *usecase.RelationshipUsecase,
	associations *usecase.AssociationUsecase,
	ownership *usecase.OwnershipUsecase,
	history *usecase.HistoryUsecase,
	analysis *usecase.AnalysisUsecase,
	lists *usecase.ListUsecase,
	customFields *usecase.CustomFieldUsecase,
) *Handler {
	return &Handler{
		subscribers: subscribers,
		entities:    entities,
		relationships: map[string]*usecase.RelationshipUsecase{
			"organization-relationships": organizationRelationships,
			"individual-relationships":   individualRelationships,
			"entity-relationships":       entityRelationships,
		},
		associations: associations,
		ownership:    ownership,
		history:      history,
		analysis:     analysis,
		lists:        lists,
		customFields: customFields,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1", middleware.IdentifyActor)

	api.POST("/subscribers", h.handleCreateSubscriber)
	api.POST("/subscribers/:id/users", h.handleRegisterUser, validPathIDs)
	api.POST("/subscribers/:id/login", h.handleLogin, validPathIDs)

	g := api.Group("", middleware.RequireActor, validPathIDs)
	g.GET("/users/:id", h.handleGetUser)

	g.POST("/entities", h.handleOnboard)
	g.GET("/entities", h.handleFindEntities)
	g.GET("/entities/:id", h.handleGetEntity)
	g.DELETE("/entities/:id", h.handleDeleteEntity)
	g.GET("/entities/:id/history", h.handleHistory)
	g.POST("/entities/:id/screenings", h.handleRecordScreening)
	g.GET("/entities/:id/screenings", h.handleListScreenings)
	g.POST("/entities/:id/risk-assessments", h.handleRecordRisk)
	g.GET("/entities/:id/risk-assessments", h.handleListRisks)
	g.GET("/entities/:id/custom-fields", h.handleListCustomFields)
	g.GET("/entities/:id/custom-fields/:key", h.handleGetCustomField)
	g.PUT("/entities/:id/custom-fields/:key", h.handleSetCustomField)
	g.DELETE("/entities/:id/custom-fields/:key", h.handleDeleteCustomField)

	for path, uc := range h.relationships {
		if uc == nil {
			continue
		}
		h.registerRelationshipRoutes(g.Group("/"+path), uc)
	}
	if uc := h.relationships["entity-relationships"]; uc != nil {
		g.GET("/entities/:id/ownership-edges", h.handleOwnershipEdges(uc))
	}

	g.POST("/associations", h.handleCreateAssociation)
	g.GET("/associations", h.handleFindAssociations)
	g.GET("/associations/statistics", h.handleAssociationStatistics)
	g.GET("/associations/named/:query", h.handleNamedAssociations)
	g.GET("/associations/:id", h.handleGetAssociation)
	g.POST("/associations/:id/verify", h.handleVerifyAssociation)
	g.POST("/associations/:id/review", h.handleReviewAssociation)
	g.PUT("/associations/:id/risk", h.handleAssociationRisk)
	g.POST("/associations/:id/retire", h.handleRetireAssociation)
	g.DELETE("/associations/:id", h.handleDeleteAssociation)

	g.GET("/organizations/:id/ownership-summary", h.handleOwnershipSummary)
	g.GET("/organizations/:id/ownership-structure", h.handleOwnershipStructure)

	g.POST("/lists", h.handleCreateList)
	g.GET("/lists", h.handleFindLists)
	g.GET("/lists/lookup", h.handleLookupList)
	g.GET("/lists/:id", h.handleGetList)
	g.PATCH("/lists/:id", h.handleUpdateList)
	g.DELETE("/lists/:id", h.handleDeleteList)
	g.POST("/lists/:id/values", h.handleAddListValue)
	g.GET("/lists/:id/values", h.handleListValues)
	g.PATCH("/lists/:id/values/:valueId", h.handleUpdateListValue)
	g.DELETE("/lists/:id/values/:valueId", h.handleRemoveListValue)
}

func actor(c echo.Context) domain.Actor {
	return middleware.Actor(c)
}
