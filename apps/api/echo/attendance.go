package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tadeufagundes/go-geo-meet/core/attendance"
)

type attendanceApi struct {
	svc *attendance.Service
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	opt echo.MiddlewareFunc,
	svc *attendance.Service,
) {
	api := attendanceApi{svc: svc}

	sg := g.Group("/sessions/:id")

	// students may join anonymously; a token enriches the record when present
	sg.POST("/join", api.join, opt)
	sg.POST("/leave", api.leave, opt)

	// only the session owner may read the attendance log
	sg.GET("/attendance", api.list, jwt)
}

type (
	joinRequest struct {
		ParticipantName string `json:"participantName"`
	}
	leaveRequest struct {
		AttendanceID string `json:"attendanceId"`
	}
)

// Handlers

func (api *attendanceApi) join(ctx echo.Context) error {
	var data joinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to joinRequest")
	}

	joined, err := api.svc.RecordJoin(ctx.Request().Context(), ctx.Param("id"), data.ParticipantName, optionalIdentity(ctx))
	if err != nil {
		return errors.Wrap(err, "recording join")
	}

	return ctx.JSON(http.StatusCreated, echo.Map{
		"success":      true,
		"message":      "Entrada registrada.",
		"attendanceId": joined.AttendanceID,
		"roomName":     joined.RoomName,
	})
}

func (api *attendanceApi) leave(ctx echo.Context) error {
	var data leaveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to leaveRequest")
	}

	err := api.svc.RecordLeave(ctx.Request().Context(), ctx.Param("id"), data.AttendanceID, optionalIdentity(ctx))
	if err != nil {
		return errors.Wrap(err, "recording leave")
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Saída registrada.",
	})
}

func (api *attendanceApi) list(ctx echo.Context) error {
	actor, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	records, err := api.svc.ListForSession(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing attendance")
	}

	return ctx.JSON(http.StatusOK, echo.Map{"attendance": records})
}
