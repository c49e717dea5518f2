package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/vartalang/vartalang-api/docs"
	"github.com/vartalang/vartalang-api/internal/api/handler"
	"github.com/vartalang/vartalang-api/internal/api/middleware"
	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

const (
	apiLimitMessage  = "Too many requests. Please try again later."
	authLimitMessage = "Too many login attempts. Try again in 15 minutes."
	bodyLimit        = "10K"
)

// Deps is everything the HTTP layer needs. Main builds it from the app context;
// tests fill it with stubs.
type Deps struct {
	Logger      zerolog.Logger
	FrontendURL string

	Tokens ports.TokenManager
	Users  middleware.UserLoader

	Auth    ports.AuthService
	Courses ports.CourseService
	Admin   ports.AdminService

	APILimiter  ports.RateLimiter
	AuthLimiter ports.RateLimiter

	// Health lists the dependencies checked by the readiness probe.
	Health map[string]handler.Pinger

	// Registry receives the HTTP metrics. Nil means the default Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{d.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	registerMetrics(e, d.Registry)

	// --- Health probes and docs (no auth, no rate limit) ---
	healthHandler := handler.NewHealthHandler(d.Health)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Dependencies ---
	requireAuth := middleware.Auth(d.Tokens, d.Users)
	teaching := middleware.RBAC(domain.RoleInstructor, domain.RoleAdmin)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	authHandler := handler.NewAuthHandler(d.Auth)
	courseHandler := handler.NewCourseHandler(d.Courses)
	adminHandler := handler.NewAdminHandler(d.Admin)

	v1 := e.Group("/api/v1", middleware.RateLimit(d.APILimiter, "api", apiLimitMessage, d.Logger))

	// --- Auth routes ---
	auth := v1.Group("/auth", middleware.RateLimit(d.AuthLimiter, "auth", authLimitMessage, d.Logger))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout, requireAuth)
	auth.GET("/me", authHandler.Me, requireAuth)

	// --- Course routes ---
	courses := v1.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.GET("/instructor/mine", courseHandler.Mine, requireAuth, teaching)
	courses.GET("/user/enrolled", courseHandler.Enrolled, requireAuth)
	courses.POST("", courseHandler.Create, requireAuth, teaching)
	courses.GET("/:id", courseHandler.Get)
	courses.PUT("/:id", courseHandler.Update, requireAuth, teaching)
	courses.DELETE("/:id", courseHandler.Delete, requireAuth, teaching)
	courses.POST("/:id/enroll", courseHandler.Enroll, requireAuth)

	// --- Admin routes ---
	admin := v1.Group("/admin/users", requireAuth, adminOnly)
	admin.GET("", adminHandler.ListUsers)
	admin.PATCH("/:id/role", adminHandler.UpdateRole)
	admin.PATCH("/:id/toggle", adminHandler.ToggleStatus)
	admin.DELETE("/:id", adminHandler.DeleteUser)

	return e
}

func registerMetrics(e *echo.Echo, reg *prometheus.Registry) {
	if reg == nil {
		e.Use(echoprometheus.NewMiddleware("vartalang"))
		e.GET("/metrics", echoprometheus.NewHandler())
		return
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "vartalang",
		Registerer: reg,
	}))
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				ev = log.Error().Err(v.Error)
			case v.Error != nil:
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
