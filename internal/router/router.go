// Package router registers HTTP routes per audience: public browse, auth,
// authenticated customers and admins.
package router

import (
	"database/sql" // health check pings the pool

	"github.com/labstack/echo/v4" // Echo web framework for routing

	"github.com/iliyamo/hotel-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/hotel-booking/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/hotel-booking/internal/model"      // role names
)

// RegisterRoutes registers routes that need no authentication and no
// handler bundle.  Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	// Load balancers hit this path; it is never rate limited.
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers /v1/auth and the protected /v1/me.  limit is the
// token bucket; on the auth group it keys by client IP because no caller
// is authenticated yet.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	// Operations that do not need an existing session.
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token and keeps the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Works with either a refresh token in the body or a bearer token.
	g.POST("/logout", a.Logout)

	// The limiter runs after JWTAuth so the bucket belongs to the user.
	auth := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
		limit,
	)
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the guest browse endpoints.  Pass a no-op
// middleware for limit or cache to disable either.
func RegisterPublic(e *echo.Echo, hotels *handler.HotelHandler, hospitals *handler.HospitalHandler, limit, cache echo.MiddlewareFunc) {
	// Limit before cache so cached hits still spend a token.
	e.GET("/v1/hotels", hotels.List, limit, cache)
	e.GET("/v1/hotels/:id", hotels.Get, limit, cache)
	e.GET("/v1/hospitals", hospitals.List, limit, cache)
	e.GET("/v1/hospitals/:id", hospitals.Get, limit, cache)
}
