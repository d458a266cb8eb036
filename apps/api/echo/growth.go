package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core/growth"
)

type growthApi struct {
	*handler
	svc growth.Service
}

func registerGrowthAPI(v1 *echo.Group, jwt echo.MiddlewareFunc, h *handler, svc growth.Service) {
	api := growthApi{handler: h, svc: svc}

	g := v1.Group("/posts", jwt, h.loadStudent)
	g.GET("", api.query)
	g.POST("", api.submit, studentMiddleware)
	g.GET("/:id", api.retrieve)
	g.DELETE("/:id", api.destroy)

	v1.GET("/tree", api.tree, jwt, h.loadStudent)
}

func (api *growthApi) submit(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	var data growth.NewPost
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	post, err := api.svc.Submit(ctx.Request().Context(), st, data)
	if err != nil {
		return errors.Wrap(err, "submitting post")
	}
	return ctx.JSON(http.StatusCreated, post)
}

// query lists the posts of the context student; admins may filter on any student or cohort.
func (api *growthApi) query(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	var filter growth.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if !st.IsAdmin() {
		filter = growth.QueryFilter{StudentID: st.ID}
	}

	posts, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	if posts == nil {
		posts = []growth.Post{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *growthApi) retrieve(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	post, err := api.svc.Get(ctx.Request().Context(), st, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *growthApi) destroy(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), st, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *growthApi) tree(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.Tree(st))
}
