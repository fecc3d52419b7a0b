package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	redisapp "timber_threads/internal/storage/redis"
	httprouters "timber_threads/internal/transport/http"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	appmw "timber_threads/internal/middleware"

	_ "timber_threads/docs"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	m          *http.ServeMux
	log        *slog.Logger
	e          *echo.Echo
	routers    *httprouters.Routers
	redis      *redisapp.Client
	db         *pgxpool.Pool
	host       string
	port       string
	uploadsDir string
}

func New(log *slog.Logger, sessionSecret, host, port, uploadsDir string, routers *httprouters.Routers, redis *redisapp.Client, db *pgxpool.Pool) *Server {
	e := echo.New()
	e.HideBanner = true

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	e.Use(session.Middleware(sessions.NewCookieStore([]byte(sessionSecret))))

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(appmw.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))

	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		log.Info("statsviz start with error", slog.Any("error:", err.Error()))
	}

	return &Server{
		m:          mux,
		log:        log,
		e:          e,
		routers:    routers,
		redis:      redis,
		db:         db,
		host:       host,
		port:       port,
		uploadsDir: uploadsDir,
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("start", "server"))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(fmt.Sprintf(":%s", s.port)); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", op, "http server")

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

// adminOnlyMiddleware admits requests carrying a verified admin session
// token, either as a bearer header or in the session cookie.
func (s *Server) adminOnlyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := httprouters.BearerToken(c)
		if token == "" {
			if sess, err := session.Get("session", c); err == nil {
				if v, ok := sess.Values["admin_token"].(string); ok {
					token = v
				}
			}
		}

		if token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}

		if err := s.routers.AuthService.Verify(c.Request().Context(), token); err != nil {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "admin access required"})
		}

		return next(c)
	}
}

func (s *Server) health(c echo.Context) error {
	ctx := c.Request().Context()

	if err := s.redis.HealthCheck(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "redis unavailable"})
	}
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "postgres unavailable"})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) BuildRouters() {
	api := s.e.Group("/api/v1")
	{
		api.GET("/health", s.health)

		api.POST("/admin/login", s.routers.AdminLogin)
		api.POST("/admin/logout", s.routers.AdminLogout)

		api.GET("/gallery", s.routers.GetGallery)
		api.POST("/gallery", s.routers.UploadImage, s.adminOnlyMiddleware)
		api.PATCH("/gallery", s.routers.PatchGallery, s.adminOnlyMiddleware)
		api.DELETE("/gallery", s.routers.DeleteImage, s.adminOnlyMiddleware)

		api.POST("/contact", s.routers.SubmitContact)
		api.GET("/contact", s.routers.ListContacts, s.adminOnlyMiddleware)
	}

	// the local image host keeps assets on disk; serve them where their
	// base URL points
	if s.uploadsDir != "" {
		s.e.Static("/uploads", s.uploadsDir)
	}

	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	debug := s.e.Group("/debug")
	{
		debug.GET("/statsviz/", echo.WrapHandler(s.m))
		debug.GET("/statsviz/*", echo.WrapHandler(s.m))
	}

	swagger := s.e.Group("/swag")
	{
		swagger.GET("/swagger/*", echoSwagger.WrapHandler)
	}
}

// Echo exposes the router for handler-level tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}
