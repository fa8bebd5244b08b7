package middleware

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/present/rest/presenter"
)

var tracer = otel.Tracer("middleware")

// IdentifyActor copies the tenant and acting user asserted by the trusted
// gateway into the request context. Requests without them pass through
// anonymous.
func IdentifyActor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Middleware.IdentifyActor")
		defer span.End()

		subscriberID := strings.TrimSpace(c.Request().Header.Get(domain.SubscriberIDHeader))
		userID := strings.TrimSpace(c.Request().Header.Get(domain.ActingUserIDHeader))

		if subscriberID != "" {
			ctx = context.WithValue(ctx, domain.SubscriberIDCtxKey, subscriberID)
			span.SetAttributes(attribute.String("SubscriberId", subscriberID))
		}
		if userID != "" {
			ctx = context.WithValue(ctx, domain.ActingUserIDCtxKey, userID)
			span.SetAttributes(attribute.String("ActingUserId", userID))
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireActor rejects requests IdentifyActor left anonymous, and requests
// whose asserted ids are not UUIDs.
func RequireActor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor := Actor(c)
		if actor.SubscriberID == "" || actor.UserID == "" {
			return presenter.Unauthorized(c, "missing "+domain.SubscriberIDHeader+" or "+domain.ActingUserIDHeader+" header")
		}
		if err := uuid.Validate(actor.SubscriberID); err != nil {
			return presenter.Error(c, domain.Invalid(domain.SubscriberIDHeader, "must be a UUID"))
		}
		if err := uuid.Validate(actor.UserID); err != nil {
			return presenter.Error(c, domain.Invalid(domain.ActingUserIDHeader, "must be a UUID"))
		}
		return next(c)
	}
}

// Actor returns the caller of the request, including its network origin.
func Actor(c echo.Context) domain.Actor {
	ctx := c.Request().Context()
	subscriberID, _ := ctx.Value(domain.SubscriberIDCtxKey).(string)
	userID, _ := ctx.Value(domain.ActingUserIDCtxKey).(string)
	return domain.Actor{
		SubscriberID: subscriberID,
		UserID:       userID,
		IPAddress:    c.RealIP(),
		UserAgent:    c.Request().UserAgent(),
	}
}
