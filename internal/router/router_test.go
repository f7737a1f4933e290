package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/service"
	"github.com/iliyamo/hotel-booking/internal/utils"
)

const secret = "router-secret"

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	return newLimitedServer(t, noop)
}

func newLimitedServer(t *testing.T, limit echo.MiddlewareFunc) *echo.Echo {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := repository.NewStore(db)
	bookings := service.NewBookingService(store, nil)
	hotels := handler.NewHotelHandler(repository.NewHotelRepo(db))
	rooms := handler.NewRoomHandler(repository.NewRoomRepo(db), repository.NewHotelRepo(db), bookings)
	hospitals := handler.NewHospitalHandler(repository.NewHospitalRepo(db))

	e := echo.New()
	e.Validator = handler.NewValidator()
	RegisterRoutes(e, nil)
	RegisterAuth(e, handler.NewAuthHandler(config.Config{JWTSecret: secret}, repository.NewUserRepo(db), repository.NewTokenRepo(db)), secret, limit)
	RegisterPublic(e, hotels, hospitals, limit, noop)
	RegisterCustomer(e, Customer{
		Rooms:        rooms,
		Bookings:     handler.NewBookingHandler(bookings),
		Appointments: handler.NewAppointmentHandler(service.NewAppointmentService(store.Appointments())),
	}, secret, limit)
	RegisterAdmin(e, Admin{Hotels: hotels, Rooms: rooms, Hospitals: hospitals}, secret, limit, noop)
	return e
}

func TestRouteTable(t *testing.T) {
	e := newServer(t)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/register",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"GET /v1/hotels",
		"GET /v1/hotels/:id",
		"GET /v1/hotels/:hotelId/rooms/availability",
		"POST /v1/hotels/:hotelId/bookings",
		"PUT /v1/bookings/:id",
		"DELETE /v1/bookings/:id",
		"GET /v1/hospitals/:hospitalId/appointments",
		"POST /v1/hotels",
		"DELETE /v1/hotels/:hotelId/rooms/:roomId",
		"PUT /v1/hospitals/:id",
	} {
		assert.True(t, have[want], want)
	}
}

func call(e *echo.Echo, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestAdminRoutesAreGated(t *testing.T) {
	e := newServer(t)
	user, err := utils.NewAccessToken(secret, 3, model.RoleUser, 5)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodPost, "/v1/hotels", ""))
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodPost, "/v1/hotels", user.Token))
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodDelete, "/v1/hotels/1/rooms/2", user.Token))
}

func TestCustomerRoutesNeedToken(t *testing.T) {
	e := newServer(t)
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/v1/bookings", ""))
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/healthz", ""))
}

func TestLimiterSeesAuthenticatedUser(t *testing.T) {
	var seen []uint64
	limit := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, _ := middleware.Actor(c)
			seen = append(seen, a.ID)
			return next(c)
		}
	}
	e := newLimitedServer(t, limit)
	user, err := utils.NewAccessToken(secret, 42, model.RoleUser, 5)
	require.NoError(t, err)
	admin, err := utils.NewAccessToken(secret, 9, model.RoleAdmin, 5)
	require.NoError(t, err)

	call(e, http.MethodGet, "/v1/bookings", user.Token)
	call(e, http.MethodDelete, "/v1/hospitals/1", admin.Token)
	call(e, http.MethodPost, "/v1/auth/login", "")
	assert.Equal(t, []uint64{42, 9, 0}, seen)

	// rejected before the limiter spends a token
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/v1/bookings", ""))
	assert.Len(t, seen, 3)
}
