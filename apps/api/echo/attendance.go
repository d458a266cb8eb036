package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core/attendance"
)

type attendanceApi struct {
	*handler
	svc attendance.Service
}

func registerAttendanceAPI(v1, admin *echo.Group, jwt echo.MiddlewareFunc, h *handler, svc attendance.Service) {
	api := attendanceApi{handler: h, svc: svc}

	g := v1.Group("/attendance", jwt, h.loadStudent)
	g.POST("/check-in", api.checkIn, studentMiddleware)
	g.GET("/status", api.status)
	g.GET("/history", api.history)

	ag := admin.Group("/attendance")
	ag.GET("/daily", api.daily)
	ag.GET("/month", api.month)
}

func (api *attendanceApi) checkIn(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.CheckIn(ctx.Request().Context(), st)
	if err != nil {
		return errors.Wrap(err, "checking in")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *attendanceApi) status(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	status, err := api.svc.Status(ctx.Request().Context(), st.ID)
	if err != nil {
		return errors.Wrap(err, "getting attendance status")
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *attendanceApi) history(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	recs, err := api.svc.History(ctx.Request().Context(), st.ID, ctx.QueryParam("month"))
	if err != nil {
		return errors.Wrap(err, "querying attendance history")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) daily(ctx echo.Context) error {
	entries, err := api.svc.DailyReport(ctx.Request().Context(), ctx.QueryParam("day"))
	if err != nil {
		return errors.Wrap(err, "building daily report")
	}
	if entries == nil {
		entries = []attendance.DailyEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *attendanceApi) month(ctx echo.Context) error {
	recs, err := api.svc.Month(ctx.Request().Context(), ctx.QueryParam("month"))
	if err != nil {
		return errors.Wrap(err, "querying month attendance")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}
