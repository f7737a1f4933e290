package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// HotelHandler serves the public hotel browse API and admin hotel CRUD.
type HotelHandler struct {
	Hotels *repository.HotelRepo
}

func NewHotelHandler(hotels *repository.HotelRepo) *HotelHandler {
	if hotels == nil {
		panic("nil repository passed to NewHotelHandler")
	}
	return &HotelHandler{Hotels: hotels}
}

type hotelReq struct {
	Name       string `json:"name" validate:"required,max=500"`
	Address    string `json:"address" validate:"required"`
	District   string `json:"district" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postalcode" validate:"required,max=5"`
	Tel        string `json:"tel" validate:"omitempty,max=20"`
	Region     string `json:"region" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func (r hotelReq) model(id uint64) *model.Hotel {
	return &model.Hotel{
		ID:         id,
		Name:       strings.TrimSpace(r.Name),
		Address:    r.Address,
		District:   r.District,
		Province:   r.Province,
		PostalCode: r.PostalCode,
		Tel:        r.Tel,
		Region:     r.Region,
		Email:      r.Email,
	}
}

// List handles GET /v1/hotels with optional name, province and region
// filters and page/page_size pagination.
func (h *HotelHandler) List(c echo.Context) error {
	// Parse pagination; junk or missing values fall back to defaults.
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 25
	}
	if ps > 100 { // hard cap so one request cannot dump the table
		ps = 100
	}
	// Name matches by substring, province and region exactly; all are
	// case-insensitive in the repository.
	q := repository.HotelSearchQuery{
		Name:     strings.TrimSpace(c.QueryParam("name")),
		Province: strings.TrimSpace(c.QueryParam("province")),
		Region:   strings.TrimSpace(c.QueryParam("region")),
		Page:     page,
		PageSize: ps,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, total, err := h.Hotels.Search(ctx, q)
	if err != nil {
		return repoError(c, err, "hotel")
	}
	// total is the unpaged match count so clients can build page links.
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"count":     len(items),
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}

func (h *HotelHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "hotel id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hotel, err := h.Hotels.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "hotel")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": hotel})
}

func (h *HotelHandler) Create(c echo.Context) error {
	var req hotelReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	hotel := req.model(0)
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Hotels.Create(ctx, hotel); err != nil {
		return repoError(c, err, "hotel")
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": hotel})
}

func (h *HotelHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "hotel id")
	}
	var req hotelReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Hotels.GetByID(ctx, id); err != nil {
		return repoError(c, err, "hotel")
	}
	hotel := req.model(id)
	if err := h.Hotels.Update(ctx, hotel); err != nil {
		return repoError(c, err, "hotel")
	}
	updated, err := h.Hotels.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "hotel")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": updated})
}

// Delete removes the hotel together with its rooms and bookings.
func (h *HotelHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "hotel id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Hotels.Delete(ctx, id); err != nil {
		return repoError(c, err, "hotel")
	}
	return c.NoContent(http.StatusNoContent)
}
