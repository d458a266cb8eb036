package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core/points"
)

type pointsApi struct {
	*handler
	svc points.Service
}

func registerPointsAPI(v1, admin *echo.Group, jwt echo.MiddlewareFunc, h *handler, svc points.Service) {
	api := pointsApi{handler: h, svc: svc}

	g := v1.Group("/points", jwt, h.loadStudent)
	g.GET("/history", api.history)
	g.GET("/leaderboard", api.leaderboard)

	admin.POST("/students/:id/points", api.grant)
	admin.GET("/students/:id/points", api.studentHistory)
}

func (api *pointsApi) history(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	return api.historyOf(ctx, st.ID)
}

func (api *pointsApi) studentHistory(ctx echo.Context) error {
	return api.historyOf(ctx, ctx.Param("id"))
}

func (api *pointsApi) historyOf(ctx echo.Context, studentID string) error {
	entries, err := api.svc.History(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying points history")
	}
	if entries == nil {
		entries = []points.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *pointsApi) leaderboard(ctx echo.Context) error {
	// out of range limits are clamped by the service
	standings, err := api.svc.Leaderboard(ctx.Request().Context(), queryInt(ctx, "limit", points.DefaultLeaderboardSize))
	if err != nil {
		return errors.Wrap(err, "getting leaderboard")
	}
	if standings == nil {
		standings = []points.Standing{}
	}
	return ctx.JSON(http.StatusOK, standings)
}

func (api *pointsApi) grant(ctx echo.Context) error {
	var data points.Grant
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	entry, err := api.svc.Grant(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "granting points")
	}
	return ctx.JSON(http.StatusCreated, entry)
}
