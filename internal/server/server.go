package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"car-marketplace/internal/cache"
	"car-marketplace/internal/config"
	"car-marketplace/internal/database"
	custommiddleware "car-marketplace/internal/middleware"
	"car-marketplace/internal/repository"
	"car-marketplace/internal/search"
	"car-marketplace/internal/service"
	"car-marketplace/internal/storage"
	"car-marketplace/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const metricsNamespace = "carmarket"

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          database.Service
	redis       *redis.Client
	userService service.UserService
}

// NewServer wires repositories, services and handlers into a router.
// redisClient may be nil, which disables rate limiting and the featured cache.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client, files storage.FileStorage) *Server {
	router := chi.NewRouter()
	metrics := custommiddleware.NewMetrics(metricsNamespace)

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(metrics.Middleware)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	router.Get("/health", healthHandler(db, logger))
	router.Handle("/metrics", metrics.Handler())

	if local, ok := files.(*storage.LocalStorage); ok {
		fileServer := http.StripPrefix(local.URLPath(), http.FileServer(http.Dir(local.Dir())))
		router.Handle(local.URLPath()+"/*", fileServer)
	}

	// Initialize repositories
	sqlDB := db.DB()
	carRepo := repository.NewCarRepository(sqlDB)
	userRepo := repository.NewUserRepository(sqlDB)
	engagementRepo := repository.NewEngagementRepository(sqlDB)
	statsRepo := repository.NewStatisticsRepository(sqlDB)
	brandRepo := repository.NewBrandRepository()

	var featuredCache service.FeaturedCache
	if redisClient != nil {
		featuredCache = cache.NewCarCache(redisClient, cfg.Cache.FeaturedTTL, logger)
	}

	// Initialize services
	carService := service.NewCarService(carRepo, engagementRepo, files, featuredCache, logger)
	userService := service.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiry(), logger)
	engagementService := service.NewEngagementService(engagementRepo)
	statsService := service.NewStatisticsService(statsRepo, carRepo, userRepo, engagementRepo)
	brandService := service.NewBrandService(brandRepo)

	normalizer := search.NewNormalizer(search.Limits{
		Default: cfg.Search.DefaultLimit,
		All:     cfg.Search.AllLimit,
		Similar: cfg.Search.SimilarLimit,
		Max:     cfg.Search.MaxLimit,
	})

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	optionalAuthMiddleware := custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Register routes
	router.Group(func(r chi.Router) {
		if redisClient != nil {
			// the limiter keys by user, so the identity has to be resolved first
			r.Use(optionalAuthMiddleware)
			r.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.Requests,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "rate_limit",
			}, logger))
		}

		transport.NewCarHandler(carService, normalizer, logger).RegisterRoutes(r, optionalAuthMiddleware)
		transport.NewEngagementHandler(engagementService, normalizer, logger).RegisterRoutes(r, authMiddleware)
		transport.NewAdminCarHandler(carService, cfg.Upload.MaxBytes, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewUserHandler(userService, normalizer, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewStatisticsHandler(statsService, normalizer, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewBrandHandler(brandService, logger).RegisterRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redis:       redisClient,
		userService: userService,
	}

	return server
}

// BootstrapAdmin makes sure the configured administrator account exists.
// Nothing happens when no admin email is configured.
func (s *Server) BootstrapAdmin(ctx context.Context) error {
	admin := s.config.Admin
	if admin.Email == "" {
		s.logger.Info("No administrator configured, skipping bootstrap")
		return nil
	}
	return s.userService.EnsureAdmin(ctx, admin.Name, admin.Email, admin.Password)
}

func healthHandler(db database.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()
		if health["status"] != "up" {
			logger.Warn("Health check failed", zap.String("error", health["error"]))
			custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":   "down",
				"database": health,
			})
			return
		}

		response := map[string]interface{}{
			"status":   "ok",
			"database": health,
		}
		if version, err := database.MigrationVersion(r.Context(), db.DB()); err == nil {
			response["migration_version"] = version
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, response)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
