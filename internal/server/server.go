// Package server contains the HTTP handlers for the storefront API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "storefront/docs" // swagger docs
	"storefront/internal/config"
	"storefront/internal/featureflags"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/notifications"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager
	userRepo       repository.UserRepository
	productRepo    repository.ProductRepository
	categoryRepo   repository.CategoryRepository
	vacancyRepo    repository.VacancyRepository
	tokens         *service.TokenService
	accounts       *service.AccountService
	catalog        *service.CatalogService
	vacancies      *service.VacancyService
	contact        *service.ContactService
	images         *service.ImageService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, mailer notifications.Mailer) (*Server, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("storefront-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       repository.NewUserRepository(db),
		productRepo:    repository.NewProductRepository(db),
		categoryRepo:   repository.NewCategoryRepository(db),
		vacancyRepo:    repository.NewVacancyRepository(db),
	}

	resetTTL := time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute
	s.tokens = service.NewTokenService(cfg.JWTSecret, redisClient, resetTTL)
	s.accounts = service.NewAccountService(s.userRepo, s.tokens, mailer, cfg.SiteURL)
	s.catalog = service.NewCatalogService(s.productRepo, s.categoryRepo)
	s.vacancies = service.NewVacancyService(s.vacancyRepo)
	s.contact = service.NewContactService(mailer, cfg.DefaultFromEmail)
	s.images = service.NewImageService(s.productRepo, cfg)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Product images are embedded by the storefront frontend.
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Home)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static("/media", s.images.MediaRoot(), fiber.Static{
		ByteRange: true,
		MaxAge:    int((7 * 24 * time.Hour).Seconds()),
	})

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Storefront API Metrics",
	}))

	catalog := api.Group("/catalog")
	catalog.Get("/", s.ListProducts)
	catalog.Get("/sort-options", s.GetSortOptions)
	catalog.Get("/categories", s.GetCategories)
	catalog.Get("/categories/:slug", s.GetCategory)
	catalog.Get("/products/:slug", s.GetProduct)
	catalog.Post("/products/:id/images", s.AuthRequired(), s.StaffRequired(), s.UploadProductImage)

	vacancies := api.Group("/vacancies", s.FeatureGate(featureflags.Vacancies))
	vacancies.Get("/", s.ListVacancies)
	vacancies.Get("/filters", s.GetVacancyFilters)
	vacancies.Post("/", s.AuthRequired(), s.StaffRequired(), s.CreateVacancy)
	vacancies.Get("/:pk", s.GetVacancy)

	accounts := api.Group("/accounts")
	accounts.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	accounts.Post("/signin", middleware.RateLimit(s.redis, 10, 5*time.Minute, "signin"), s.Signin)
	accounts.Post("/signout", s.AuthRequired(), s.Signout)
	accounts.Get("/me", s.AuthRequired(), s.GetMe)
	accounts.Post("/password-reset", middleware.RateLimit(s.redis, 3, 10*time.Minute, "password_reset"), s.RequestPasswordReset)
	accounts.Post("/password-reset/:uidb64/:token", s.ConfirmPasswordReset)

	pages := api.Group("/pages")
	pages.Post("/contact", s.FeatureGate(featureflags.ContactForm),
		middleware.RateLimit(s.redis, 5, 10*time.Minute, "contact"), s.SubmitContact)
	pages.Get("/:page", s.GetPage)

	admin := api.Group("/admin", s.AuthRequired(), s.StaffRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// Home handles GET /. The site has no landing page of its own.
func (s *Server) Home(c *fiber.Ctx) error {
	return c.Redirect("/api/catalog", fiber.StatusFound)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: the
// cache falls back to the database without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired verifies the bearer token and stores the user id and claims
// in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := middleware.BearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.tokens.ParseAccessToken(c.UserContext(), token)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}

		c.Locals("userID", claims.UserID)
		c.Locals("claims", claims)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))
		return c.Next()
	}
}

// StaffRequired rejects users without the staff flag. It must run after
// AuthRequired.
func (s *Server) StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.UserID(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		user, err := s.userRepo.GetByID(c.UserContext(), userID)
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired token"))
			}
			return models.RespondWithAppError(c, err)
		}
		if !user.IsActive || !user.IsStaff {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Staff access required"))
		}
		return c.Next()
	}
}

// errorHandler reports errors that escape the handlers in the API envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// NewApp builds the fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := int(s.images.MaxUploadSizeBytes()) + 1024*1024
	app := fiber.New(fiber.Config{
		AppName:      "Storefront API",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app := s.app
	if app == nil {
		app = s.NewApp()
	}
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
