package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// Actor returns the authenticated caller.  ok is false on routes not
// behind JWTAuth.
func Actor(c echo.Context) (model.Actor, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	if !ok || id == 0 {
		return model.Actor{}, false
	}
	role, _ := c.Get(CtxRole).(string)
	return model.Actor{ID: id, Role: role}, true
}

// identity keys rate-limit buckets: "u<id>" for authenticated callers and
// "ip<addr>" otherwise.
func identity(c echo.Context, perUser bool) string {
	if perUser {
		if a, ok := Actor(c); ok {
			return "u" + strconv.FormatUint(a.ID, 10)
		}
	}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip" + ip
}
