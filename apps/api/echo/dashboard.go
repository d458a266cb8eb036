package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/dashboard"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type dashboardApi struct {
	*handler
	svc dashboard.Service
}

func registerDashboardAPI(v1, admin *echo.Group, jwt echo.MiddlewareFunc, h *handler, svc dashboard.Service) {
	api := dashboardApi{handler: h, svc: svc}

	v1.GET("/me/home", api.home, jwt, h.loadStudent)

	admin.GET("/overview", api.overview)
	admin.GET("/export", api.export)
	admin.POST("/students/import", api.importStudents)
}

func (api *dashboardApi) home(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	home, err := api.svc.Home(ctx.Request().Context(), st)
	if err != nil {
		return errors.Wrap(err, "building home")
	}
	return ctx.JSON(http.StatusOK, home)
}

func (api *dashboardApi) overview(ctx echo.Context) error {
	ov, err := api.svc.Overview(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

// export downloads the attendance report of `?month=` (defaults to the current month).
func (api *dashboardApi) export(ctx echo.Context) error {
	month := ctx.QueryParam("month")
	if month == "" {
		month = core.CurrentMonth()
	}

	var buf bytes.Buffer
	if err := api.svc.Export(ctx.Request().Context(), month, &buf); err != nil {
		return errors.Wrap(err, "exporting attendance")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "attendance-"+month+".xlsx"))
	return ctx.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}

// importStudents creates the students listed in the uploaded `file`; `cohort` applies to rows without one.
func (api *dashboardApi) importStudents(ctx echo.Context) error {
	cohort, err := strconv.Atoi(ctx.FormValue("cohort"))
	if err != nil || cohort < 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "cohort", Error: "must be a positive number"})
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	res, err := api.svc.Import(ctx.Request().Context(), file, cohort)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return ctx.JSON(http.StatusOK, res)
}
