// Package handler holds the Echo HTTP handlers.  Handlers bind and validate
// request DTOs, call a repository or service, and render JSON.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/service"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	v *validator.Validate
}

// NewValidator returns the validator registered on the Echo instance.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("roomtype", func(fl validator.FieldLevel) bool {
		return model.ValidRoomType(fl.Field().String())
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDate(fl.Field().String())
		return err == nil
	})
	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// bind decodes and validates the body into dst.  On failure it writes a 400
// and returns false.
func bind(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body", "message": "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": validationMessage(err)})
	}
	return true, nil
}

func validationMessage(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return strings.Join(msgs, "; ")
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badID(c echo.Context, name string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_id", "message": "invalid " + name})
}

// actor returns the authenticated caller; routes using it sit behind
// middleware.JWTAuth, so a missing actor is a wiring bug.
func actor(c echo.Context) (model.Actor, error) {
	a, ok := middleware.Actor(c)
	if !ok {
		return a, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated", "message": "login required"})
	}
	return a, nil
}

// optionalDate parses s as a date.  Empty input yields nil.
func optionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := model.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var kindStatus = map[service.Kind]int{
	service.KindNotFound:      http.StatusNotFound,
	service.KindInvalidRange:  http.StatusBadRequest,
	service.KindConflict:      http.StatusConflict,
	service.KindQuotaExceeded: http.StatusBadRequest,
	service.KindUnauthorized:  http.StatusForbidden,
	service.KindInternal:      http.StatusInternalServerError,
}

// serviceError renders a service rejection.
func serviceError(c echo.Context, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		se = &service.Error{Kind: service.KindInternal, Message: "internal error", Err: err}
	}
	if se.Kind == service.KindInternal {
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), se)
	}
	body := echo.Map{"error": string(se.Kind), "message": se.Message}
	if se.Kind == service.KindQuotaExceeded {
		body["total_nights"] = se.TotalNights
	}
	return c.JSON(kindStatus[se.Kind], body)
}

// repoError renders repository sentinels.  what names the entity for
// not-found messages.
func repoError(c echo.Context, err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrHotelNotFound),
		errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrHospitalNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": what + " not found"})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": "duplicate", "message": what + " already exists"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": what + " is still referenced by bookings"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "unauthorized", "message": "forbidden"})
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error", "message": "database error"})
}

func list[T any](c echo.Context, items []T) error {
	return c.JSON(http.StatusOK, echo.Map{"count": len(items), "data": items})
}
