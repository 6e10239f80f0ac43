package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/api/internal/config"
	"storefront/api/internal/middleware"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
	"storefront/api/internal/service"
	"storefront/api/internal/session"
	"storefront/api/internal/storage"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     *service.AuthService
	admin    *service.AdminService
	catalog  *service.CatalogService
	sessions *session.Manager
	db       *pgxpool.Pool
	cache    *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, objects *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	productRepo := repository.NewProductRepository(db)
	storeRepo := repository.NewStoreRepository(db)

	manager := session.NewManager(sessionRepo, userRepo, cfg.Security, log)
	authService := service.NewAuthService(userRepo, customerRepo, manager, cache, cfg, log)
	adminService := service.NewAdminService(userRepo, cfg, log)
	catalogService := service.NewCatalogService(productRepo, storeRepo, objects, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     authService,
		admin:    adminService,
		catalog:  catalogService,
		sessions: manager,
		db:       db,
		cache:    cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.SignIn)
		auth.POST("/logout", middleware.Auth(h.sessions), h.SignOut)

		account := v1.Group("/account")
		account.Use(middleware.Auth(h.sessions))
		account.GET("", h.Account)
		account.PUT("/password", h.ChangePassword)
		account.PUT("/email", h.ChangeEmail)
		account.PUT("/name", h.ChangeName)

		admin := v1.Group("/admin/users")
		admin.Use(
			middleware.Auth(h.sessions),
			middleware.RequireRole(models.UserRoleSuperadmin),
		)
		admin.GET("", h.AdminListUsers)
		admin.POST("", h.AdminCreateUser)
		admin.PUT("/:id", h.AdminUpdateUser)
		admin.DELETE("/:id", h.AdminDeleteUser)

		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)

		v1.GET("/store", h.GetStore)
		v1.PUT("/store",
			middleware.Auth(h.sessions),
			middleware.RequireRole(models.UserRoleAdmin),
			h.UpdateStore,
		)
	}
}
