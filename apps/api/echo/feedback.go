package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tadeufagundes/go-geo-meet/core/feedback"
)

type feedbackApi struct {
	svc *feedback.Service
}

func registerFeedbackAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	opt echo.MiddlewareFunc,
	svc *feedback.Service,
) {
	api := feedbackApi{svc: svc}

	fg := g.Group("/sessions/:id/feedback")

	fg.POST("", api.toggle, opt)
	fg.GET("", api.list)
	fg.DELETE("", api.clear, jwt)
}

// Handlers

func (api *feedbackApi) toggle(ctx echo.Context) error {
	var data feedback.Toggle
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Toggle")
	}

	confused, err := api.svc.Toggle(ctx.Request().Context(), ctx.Param("id"), optionalIdentity(ctx), data)
	if err != nil {
		return errors.Wrap(err, "toggling feedback")
	}

	msg := "Dúvida registrada."
	if !confused {
		msg = "Dúvida removida."
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"message":    msg,
		"isConfused": confused,
	})
}

func (api *feedbackApi) list(ctx echo.Context) error {
	list, err := api.svc.List(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing feedback")
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *feedbackApi) clear(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	deleted, err := api.svc.ClearSession(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "clearing feedback")
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"message":      "Feedback limpo.",
		"deletedCount": deleted,
	})
}
