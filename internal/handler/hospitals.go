package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// HospitalHandler serves hospital reads and admin CRUD.
type HospitalHandler struct {
	Hospitals *repository.HospitalRepo
}

func NewHospitalHandler(hospitals *repository.HospitalRepo) *HospitalHandler {
	return &HospitalHandler{Hospitals: hospitals}
}

type hospitalReq struct {
	Name       string `json:"name" validate:"required,max=50"`
	Address    string `json:"address" validate:"required"`
	District   string `json:"district" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postalcode" validate:"required,max=5"`
	Tel        string `json:"tel" validate:"omitempty,max=20"`
	Region     string `json:"region" validate:"required"`
}

func (r hospitalReq) model(id uint64) *model.Hospital {
	return &model.Hospital{
		ID:         id,
		Name:       strings.TrimSpace(r.Name),
		Address:    r.Address,
		District:   r.District,
		Province:   r.Province,
		PostalCode: r.PostalCode,
		Tel:        r.Tel,
		Region:     r.Region,
	}
}

func (h *HospitalHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Hospitals.List(ctx)
	if err != nil {
		return repoError(c, err, "hospital")
	}
	return list(c, items)
}

func (h *HospitalHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "hospital id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hosp, err := h.Hospitals.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "hospital")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": hosp})
}

func (h *HospitalHandler) Create(c echo.Context) error {
	var req hospitalReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	hosp := req.model(0)
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Hospitals.Create(ctx, hosp); err != nil {
		return repoError(c, err, "hospital")
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": hosp})
}

func (h *HospitalHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "hospital id")
	}
	var req hospitalReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Hospitals.GetByID(ctx, id); err != nil {
		return repoError(c, err, "hospital")
	}
	hosp := req.model(id)
	if err := h.Hospitals.Update(ctx, hosp); err != nil {
		return repoError(c, err, "hospital")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": hosp})
}

// Delete removes the hospital and its appointments.
func (h *HospitalHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "hospital id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Hospitals.Delete(ctx, id); err != nil {
		return repoError(c, err, "hospital")
	}
	return c.NoContent(http.StatusNoContent)
}
