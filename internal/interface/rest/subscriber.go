package rest

import (
	"github.com/labstack/echo/v4"

	"github.com/totegamma/kycgraph/internal/present/rest/presenter"
	"github.com/totegamma/kycgraph/internal/usecase"
)

type createSubscriberRequest struct {
	Username     string `json:"username" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Type         string `json:"type" validate:"required"`
	CompanyName  string `json:"companyName"`
	Jurisdiction string `json:"jurisdiction"`
}

type registerUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required"`
	Role     string `json:"role"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleCreateSubscriber(c echo.Context) error {
	ctx := c.Request().Context()

	var req createSubscriberRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	s, err := h.subscribers.Create(ctx, usecase.CreateSubscriberInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Type:         req.Type,
		CompanyName:  req.CompanyName,
		Jurisdiction: req.Jurisdiction,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, s)
}

// handleRegisterUser adds a user to a subscriber. The acting user, when one
// is asserted, is recorded as creator.
func (h *Handler) handleRegisterUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req registerUserRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	u, err := h.subscribers.RegisterUser(ctx, c.Param("id"), actor(c).UserID, usecase.RegisterUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, u)
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req loginRequest
	if err := bind(c, &req); err != nil {
		return presenter.Error(c, err)
	}

	u, err := h.subscribers.Authenticate(ctx, c.Param("id"), req.Email, req.Password)
	if err != nil {
		return presenter.Unauthorized(c, "invalid credentials")
	}
	return presenter.OK(c, u)
}

func (h *Handler) handleGetUser(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := h.subscribers.GetUser(ctx, actor(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, u)
}
