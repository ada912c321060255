package app

import (
	"todoweb/internal/auth"
	"todoweb/internal/cache"
	"todoweb/internal/config"
	"todoweb/internal/duedate"
	"todoweb/internal/handlers"
	"todoweb/internal/repo"
	"todoweb/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, db *pgxpool.Pool, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api/v1")

	sessionStore := auth.NewStore(rdb, cfg.Redis.SessionTTL.Duration())
	activityRepo := repo.NewPGActivityRepo(db)
	userRepo := repo.NewPGUserRepo(db)
	userSvc := service.NewUserService(userRepo)
	authHandler := handlers.NewAuthHandler(sessionStore, userSvc, activityRepo)
	registerAuthRoutes(api, authHandler)

	todoRepo := repo.NewPGTodoRepo(db, activityRepo)
	todoCache := cache.NewTodoCache(rdb, cfg.Redis.DefaultTTL.Duration())
	todoSvc := service.NewTodoService(todoRepo, userRepo, activityRepo, duedate.New(), todoCache)

	// The listing API authenticates with the key itself, not a session.
	apiHandler := handlers.NewAPIHandler(todoSvc)
	api.GET("/todo_api/:api_key", apiHandler.ListByKey)

	protected := api.Group("", auth.RequireSession(sessionStore))
	todoHandler := handlers.NewTodoHandler(todoSvc)
	registerTodoRoutes(protected, todoHandler)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Todo Web API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTodoRoutes(api *gin.RouterGroup, h *handlers.TodoHandler) {
	api.POST("/todos", h.Create)
	api.GET("/todos", h.List)
	api.GET("/todos/deleted", h.Deleted)
	api.POST("/todos/:id/toggle", h.Toggle)
	api.POST("/todos/:id/restore", h.Restore)
	api.DELETE("/todos/:id", h.Delete)
	api.GET("/activity", h.Activity)
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler) {
	// Credential routes get a per-IP rate limit.
	limited := api.Group("", auth.RateLimit(2, 5))
	limited.POST("/auth/login", h.Login)
	limited.POST("/auth/register", h.Register)
	api.POST("/auth/logout", h.Logout)
}
