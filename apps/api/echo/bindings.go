package echoapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/student"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

type cleaner interface {
	Clean()
}

// handler holds what every API needs to bind requests and find the context student.
type handler struct {
	auth       *authenticator
	validate   *validator.Validate
	studentSvc student.Service
}

// bind binds the request to data, cleans it up then validates it.
func (h *handler) bind(ctx echo.Context, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if c, ok := data.(cleaner); ok {
		c.Clean()
	}
	return h.validate.Struct(data)
}

func (h *handler) student(ctx echo.Context) (student.Student, error) {
	st, err := getContextStudent(ctx, h.studentSvc)
	return st, errors.Wrap(err, "getting context student")
}

// queryInt returns the integer query param name, or def when missing or malformed.
func queryInt(ctx echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(ctx.QueryParam(name)); err == nil {
		return n
	}
	return def
}

// queryTimes parses the RFC 3339 query params into their destinations. Missing params are skipped.
func queryTimes(ctx echo.Context, params map[string]*time.Time) error {
	for name, dst := range params {
		v := ctx.QueryParam(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be an RFC 3339 time", name)).SetInternal(err)
		}
		*dst = t.UTC()
	}
	return nil
}

type (
	SuccessResponse struct {
		Success string `json:"success"`
	}

	CountResponse struct {
		Count int `json:"count"`
	}
)
