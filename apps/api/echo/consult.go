package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core/consult"
)

type consultApi struct {
	*handler
	svc consult.Service
}

func registerConsultAPI(v1, admin *echo.Group, jwt echo.MiddlewareFunc, h *handler, svc consult.Service) {
	api := consultApi{handler: h, svc: svc}

	g := v1.Group("/consultations", jwt, h.loadStudent)
	g.GET("/slots", api.open)
	g.POST("/slots/:id/book", api.book, studentMiddleware)
	g.DELETE("/slots/:id/book", api.unbook, studentMiddleware)
	g.GET("/mine", api.mine)

	ag := admin.Group("/consultations/slots")
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.DELETE("/:id", api.cancel)
}

func (api *consultApi) open(ctx echo.Context) error {
	slots, err := api.svc.ListOpen(ctx.Request().Context())
	return api.slots(ctx, slots, errors.Wrap(err, "listing open slots"))
}

func (api *consultApi) mine(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	slots, err := api.svc.ListMine(ctx.Request().Context(), st.ID)
	return api.slots(ctx, slots, errors.Wrap(err, "listing booked slots"))
}

func (api *consultApi) query(ctx echo.Context) error {
	var filter consult.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if err := queryTimes(ctx, map[string]*time.Time{"from": &filter.From, "to": &filter.To}); err != nil {
		return err
	}
	slots, err := api.svc.Query(ctx.Request().Context(), filter)
	return api.slots(ctx, slots, errors.Wrap(err, "querying slots"))
}

func (api *consultApi) slots(ctx echo.Context, slots []consult.Slot, err error) error {
	if err != nil {
		return err
	}
	if slots == nil {
		slots = []consult.Slot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *consultApi) book(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	var data consult.BookInput
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	slot, err := api.svc.Book(ctx.Request().Context(), st, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "booking slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *consultApi) unbook(ctx echo.Context) error {
	st, err := api.student(ctx)
	if err != nil {
		return err
	}
	slot, err := api.svc.CancelBooking(ctx.Request().Context(), st, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "cancelling booking")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *consultApi) create(ctx echo.Context) error {
	var data consult.NewSlots
	if err := api.bind(ctx, &data); err != nil {
		return err
	}
	slots, err := api.svc.CreateSlots(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating slots")
	}
	return ctx.JSON(http.StatusCreated, slots)
}

func (api *consultApi) cancel(ctx echo.Context) error {
	slot, err := api.svc.CancelSlot(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "cancelling slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}
