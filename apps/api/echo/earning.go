package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core/earning"
)

type earningApi struct {
	*handler
	svc earning.Service
}

func registerEarningAPI(v1, admin *echo.Group, jwt echo.MiddlewareFunc, h *handler, svc earning.Service) {
	api := earningApi{handler: h, svc: svc}

	g := v1.Group("/earnings", jwt, h.loadStudent)
	g.GET("", api.ledger)
	g.POST("", api.record, studentMiddleware)
	g.DELETE("/:id", api.destroy)

	admin.GET("/earnings/summary", api.summary)
}

func (api *earningApi) ledger(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	ledger, err := api.svc.Ledger(ctx.Request().Context(), st.ID)
	if err != nil {
		return errors.Wrap(err, "getting earnings ledger")
	}
	return ctx.JSON(http.StatusOK, ledger)
}

func (api *earningApi) record(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	var data earning.NewEarning
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	e, err := api.svc.Record(ctx.Request().Context(), st, data)
	if err != nil {
		return errors.Wrap(err, "recording earning")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *earningApi) destroy(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), st, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting earning")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *earningApi) summary(ctx echo.Context) error {
	rows, err := api.svc.Summary(ctx.Request().Context(), ctx.QueryParam("month"))
	if err != nil {
		return errors.Wrap(err, "summarizing earnings")
	}
	if rows == nil {
		rows = []earning.SummaryRow{}
	}
	return ctx.JSON(http.StatusOK, rows)
}
