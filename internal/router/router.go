package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework used for routing
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/redis/go-redis/v9"

    "github.com/chenti-tech/classseat/internal/config"
    "github.com/chenti-tech/classseat/internal/handler"
    "github.com/chenti-tech/classseat/internal/middleware"
)

// Register wires every route of the service onto the Echo instance.
// Public endpoints (form submission, layouts, cohort view) sit behind the
// rate limiter and response cache; admin endpoints require a valid JWT
// with the ADMIN role, which is how the external IsAdmin predicate reaches
// the allocation engine.
func Register(e *echo.Echo, cfg config.Config, auth *handler.AuthHandler, pub *handler.PublicHandler, admin *handler.AdminHandler, rdb *redis.Client) {
    e.Use(echomw.Logger())
    e.Use(echomw.Recover())

    // Liveness probe for load balancers and monitoring.
    e.GET("/healthz", handler.Health)
    // Prometheus scrape endpoint.
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

    // Operator login.
    e.POST("/v1/auth/login", auth.Login)

    // Public form endpoints.  The rate limiter protects the anonymous
    // submission path; the cache covers the read-only layout and cohort
    // queries.
    public := e.Group("/v1")
    public.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    public.POST("/registrations", pub.CreateRegistration)

    reads := e.Group("/v1")
    reads.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
    reads.GET("/registrations", pub.ListRegistrations)
    reads.GET("/classrooms/:id/layout", pub.GetClassroomLayout)
    reads.GET("/classes/:classType/classroom", pub.GetClassBinding)

    // Privileged allocation operations.
    adm := e.Group("/v1/admin")
    adm.Use(middleware.JWTAuth(cfg.JWTSecret))
    adm.Use(middleware.RequireRole("ADMIN"))
    adm.POST("/registrations/:id/claim", admin.ClaimSeat)
    adm.POST("/registrations/:id/release", admin.ReleaseSeat)
    adm.POST("/registrations/:id/reassign", admin.ReassignSeat)
    adm.DELETE("/registrations/:id", admin.DeleteRegistration)
    adm.POST("/auto-assign", admin.AutoAssign)
    adm.POST("/walk-ins", admin.AddWalkIn)
    adm.POST("/reorder", admin.Reorder)
}
