// Package router registers the HTTP routes for the API.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/lilycrest/lilycrest-server/internal/config"
    "github.com/lilycrest/lilycrest-server/internal/handler"
    "github.com/lilycrest/lilycrest-server/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register,
// login, refresh and logout live under /v1/auth without middleware;
// /v1/me sits behind the JWT check so clients can introspect their
// session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    // logout works without the JWT middleware: a refresh token in the
    // body is enough to end a single session
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: room
// catalog, room detail and branch occupancy.  They sit behind the
// Redis response cache; rdb may be nil, in which case the middleware
// passes through.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
    cached := middleware.NewRedisCache(cacheCfg, rdb)
    e.GET("/v1/rooms", p.ListRooms, cached)
    e.GET("/v1/rooms/:id", p.GetRoom, cached)
    e.GET("/v1/occupancy", p.Occupancy, cached)
}
