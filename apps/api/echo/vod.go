package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core/vod"
)

type vodApi struct {
	*handler
	svc vod.Service
}

func registerVODAPI(v1, admin *echo.Group, jwt echo.MiddlewareFunc, h *handler, svc vod.Service) {
	api := vodApi{handler: h, svc: svc}

	lg := v1.Group("/lectures", jwt, h.loadStudent)
	lg.GET("", api.queryLectures)
	lg.GET("/:id", api.retrieveLecture)
	lg.PUT("/:id/progress", api.updateProgress, studentMiddleware)
	lg.GET("/:id/assignments", api.queryAssignments)

	v1.POST("/assignments/:id/submission", api.submit, jwt, h.loadStudent, studentMiddleware)
	v1.GET("/submissions", api.mySubmissions, jwt, h.loadStudent)

	alg := admin.Group("/lectures")
	alg.POST("", api.createLecture)
	alg.PUT("/:id", api.updateLecture)
	alg.DELETE("/:id", api.destroyLecture)
	alg.POST("/:id/assignments", api.createAssignment)

	aag := admin.Group("/assignments")
	aag.PUT("/:id", api.updateAssignment)
	aag.DELETE("/:id", api.destroyAssignment)

	asg := admin.Group("/submissions")
	asg.GET("", api.querySubmissions)
	asg.PUT("/:id/feedback", api.leaveFeedback)
}

// Lectures

func (api *vodApi) queryLectures(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	views, err := api.svc.QueryLectures(ctx.Request().Context(), st)
	if err != nil {
		return errors.Wrap(err, "querying lectures")
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *vodApi) retrieveLecture(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	view, err := api.svc.GetLecture(ctx.Request().Context(), st, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lecture")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *vodApi) updateProgress(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	var data vod.ProgressInput
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	p, err := api.svc.UpdateProgress(ctx.Request().Context(), st, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating progress")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *vodApi) createLecture(ctx echo.Context) error {
	var data vod.LectureInput
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	l, err := api.svc.CreateLecture(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lecture")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *vodApi) updateLecture(ctx echo.Context) error {
	var data vod.LectureInput
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	l, err := api.svc.UpdateLecture(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating lecture")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *vodApi) destroyLecture(ctx echo.Context) error {
	if err := api.svc.DeleteLecture(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lecture")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Assignments

func (api *vodApi) queryAssignments(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	assignments, err := api.svc.QueryAssignments(ctx.Request().Context(), st, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []vod.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *vodApi) createAssignment(ctx echo.Context) error {
	var data vod.AssignmentInput
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	a, err := api.svc.CreateAssignment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *vodApi) updateAssignment(ctx echo.Context) error {
	var data vod.AssignmentInput
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	a, err := api.svc.UpdateAssignment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *vodApi) destroyAssignment(ctx echo.Context) error {
	if err := api.svc.DeleteAssignment(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Submissions

func (api *vodApi) submit(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	var data vod.SubmissionInput
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	s, err := api.svc.Submit(ctx.Request().Context(), st, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *vodApi) mySubmissions(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	return api.submissions(ctx, vod.SubmissionFilter{StudentID: st.ID})
}

func (api *vodApi) querySubmissions(ctx echo.Context) error {
	var filter vod.SubmissionFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	return api.submissions(ctx, filter)
}

func (api *vodApi) submissions(ctx echo.Context, filter vod.SubmissionFilter) error {
	subs, err := api.svc.QuerySubmissions(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []vod.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *vodApi) leaveFeedback(ctx echo.Context) error {
	var data vod.FeedbackInput
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	s, err := api.svc.LeaveFeedback(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "leaving feedback")
	}
	return ctx.JSON(http.StatusOK, s)
}
