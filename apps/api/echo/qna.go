package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core/qna"
)

type qnaApi struct {
	*handler
	svc qna.Service
}

func registerQnAAPI(v1, admin *echo.Group, jwt echo.MiddlewareFunc, h *handler, svc qna.Service) {
	api := qnaApi{handler: h, svc: svc}

	g := v1.Group("/questions", jwt, h.loadStudent)
	g.GET("", api.mine)
	g.POST("", api.ask, studentMiddleware)
	g.GET("/:id", api.retrieve)
	g.DELETE("/:id", api.destroy)

	ag := admin.Group("/questions")
	ag.GET("", api.query)
	ag.PUT("/:id/answer", api.answer)
}

func (api *qnaApi) ask(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	var data qna.NewQuestion
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	q, err := api.svc.Ask(ctx.Request().Context(), st, data)
	if err != nil {
		return errors.Wrap(err, "asking question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *qnaApi) mine(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	return api.questions(ctx, qna.QueryFilter{StudentID: st.ID})
}

func (api *qnaApi) query(ctx echo.Context) error {
	var filter qna.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	return api.questions(ctx, filter)
}

func (api *qnaApi) questions(ctx echo.Context, filter qna.QueryFilter) error {
	questions, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	if questions == nil {
		questions = []qna.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *qnaApi) retrieve(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	q, err := api.svc.Get(ctx.Request().Context(), st, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *qnaApi) destroy(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), st, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *qnaApi) answer(ctx echo.Context) error {
	coach, err := api.student(ctx)
	if err != nil {
		return err
	}
	var data qna.AnswerInput
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	q, err := api.svc.Answer(ctx.Request().Context(), coach, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "answering question")
	}
	return ctx.JSON(http.StatusOK, q)
}
