package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/veriton/identity-system/internal/api/handler"
	"github.com/veriton/identity-system/internal/api/middleware"
	"github.com/veriton/identity-system/internal/core/domain"
	"github.com/veriton/identity-system/internal/core/hash"
	"github.com/veriton/identity-system/internal/core/service"
	"github.com/veriton/identity-system/internal/core/token"
	mongoident "github.com/veriton/identity-system/internal/infrastructure/db/mongo"
	redisident "github.com/veriton/identity-system/internal/infrastructure/db/redis"
	"github.com/veriton/identity-system/internal/infrastructure/http/handlers"
	"github.com/veriton/identity-system/internal/pkg/config"
)

// routeRoles is the per-route required-role table consulted by the RBAC gate.
// Routes absent from the table carry no role restriction. SECURITY appears
// here as declared by the route design even though it is never persisted.
var routeRoles = map[string][]string{
	"PATCH /auth/:id":  {domain.RoleAdmin},
	"GET /auth/search": {domain.RoleAdmin, domain.RoleSecurity},
	"GET /auth/:id":    {domain.RoleAdmin, domain.RoleSecurity, domain.RoleUser},
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	userRepo := mongoident.NewUserRepository(db)
	tokens := token.NewService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hasher := hash.NewBcryptHasher()
	sessions := service.NewSessionService(userRepo, tokens, hasher, log)

	var cache service.ProfileCache
	if rdb != nil {
		cache = redisident.NewProfileCache(rdb)
	}
	users := service.NewUserService(userRepo, cache, log)

	authHandler := handler.NewAuthHandler(sessions, cfg.RefreshTokenTTL, cfg.Production())
	userHandler := handler.NewUserHandler(users)
	auth := middleware.Auth(tokens)

	// --- Auth routes ---
	e.POST("/auth/sign-up", authHandler.SignUp)
	e.POST("/auth/sign-in", authHandler.SignIn)
	e.GET("/auth/refresh", authHandler.Refresh)
	e.GET("/auth/logout", authHandler.Logout)

	// --- Account routes (authenticated, role-gated) ---
	e.GET("/auth/search", userHandler.Search, auth, middleware.RBAC(routeRoles["GET /auth/search"]...))
	e.PATCH("/auth/:id", userHandler.Update, auth, middleware.RBAC(routeRoles["PATCH /auth/:id"]...))
	e.GET("/auth/:id", userHandler.GetByID, auth, middleware.RBAC(routeRoles["GET /auth/:id"]...))

	// --- Observability (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())

	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
