package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tadeufagundes/go-geo-meet/core/session"
)

type sessionApi struct {
	svc      *session.Service
	validate *validator.Validate
}

func registerSessionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	opt echo.MiddlewareFunc,
	svc *session.Service,
	validate *validator.Validate,
) {
	api := sessionApi{svc: svc, validate: validate}

	sg := g.Group("/sessions")

	// teacher endpoints
	sg.POST("", api.create, jwt)
	sg.GET("", api.list, jwt)
	sg.PATCH("/:id/start", api.start, jwt)
	sg.PATCH("/:id/end", api.end, jwt)

	// open to students joining from a shared link
	sg.GET("/:id", api.retrieve, opt)
}

type listSessionsQuery struct {
	Status string `query:"status" json:"status" validate:"omitempty,session_status"`
}

// Handlers

func (api *sessionApi) create(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	var data session.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	created, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}

	return ctx.JSON(http.StatusCreated, created)
}

func (api *sessionApi) list(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	var query listSessionsQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to listSessionsQuery")
	}
	if err := api.validate.Struct(&query); err != nil {
		return err
	}

	sessions, err := api.svc.List(ctx.Request().Context(), actor, query.Status)
	if err != nil {
		return errors.Wrap(err, "listing sessions")
	}

	return ctx.JSON(http.StatusOK, echo.Map{"sessions": sessions})
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	sess, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) start(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	started, err := api.svc.Start(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "starting session")
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"message":  "Sessão iniciada.",
		"roomName": started.RoomName,
		"joinUrl":  started.JoinURL,
	})
}

func (api *sessionApi) end(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.End(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "ending session")
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Sessão encerrada.",
	})
}
