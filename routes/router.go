package routes

import (
	"time"

	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/controllers"
	"github.com/DaniilNightingale/EMPIREsite3/middleware"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter builds the engine with every /api/v1 route
func SetupRouter(cfg *config.Config, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := middleware.RegisterValidators(); err != nil {
		logger.Fatal("failed to register request validators", zap.Error(err))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(corsConfig(cfg)))
	router.MaxMultipartMemory = 8 << 20

	requireAuth := middleware.EnsureValidToken(cfg)
	optionalAuth := middleware.OptionalAuth(cfg)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", controllers.HealthCheck)
		v1.GET("/database/status", controllers.DatabaseStatus)

		v1.POST("/register", controllers.Register)
		v1.POST("/login", controllers.Login)

		v1.GET("/settings", controllers.GetSettings)
		v1.GET("/portfolio/:user_id", controllers.ListPortfolio)
		v1.GET("/products", optionalAuth, controllers.ListProducts)
		v1.GET("/products/:id", optionalAuth, controllers.GetProduct)
	}

	authed := v1.Group("")
	authed.Use(requireAuth)
	{
		authed.GET("/users/me", controllers.GetMyProfile)
		authed.PUT("/users/me", controllers.UpdateMyProfile)
		authed.GET("/users/:id", controllers.GetUser)

		authed.POST("/favorites/toggle", controllers.ToggleFavorite)
		authed.GET("/favorites", controllers.ListFavorites)

		authed.POST("/cart/quote", controllers.QuoteCart)
		authed.POST("/orders", controllers.CreateOrder)
		authed.GET("/orders", controllers.ListOrders)
		authed.GET("/orders/:id", controllers.GetOrder)

		authed.POST("/custom-requests", controllers.CreateCustomRequest)
		authed.GET("/custom-requests", controllers.ListCustomRequests)

		authed.POST("/chat/messages", controllers.SendMessage)
		authed.GET("/chat/messages", controllers.ListMessages)
		authed.GET("/notifications", controllers.GetNotifications)

		authed.POST("/portfolio", middleware.RequireRole(models.RoleExecutor), controllers.AddPortfolio)
		authed.DELETE("/portfolio/:id", controllers.DeletePortfolio)

		authed.POST("/uploads", controllers.UploadImage)
	}

	admin := authed.Group("")
	admin.Use(adminOnly)
	{
		admin.GET("/admin/users", controllers.ListUsers)
		admin.PUT("/admin/users/:id", controllers.AdminUpdateUser)
		admin.DELETE("/admin/users/:id", controllers.DeleteUser)

		admin.POST("/products", controllers.CreateProduct)
		admin.PUT("/products/:id", controllers.UpdateProduct)
		admin.DELETE("/products/:id", controllers.DeleteProduct)

		admin.PUT("/orders/:id", controllers.UpdateOrder)
		admin.PUT("/orders/:id/executors", controllers.AssignExecutors)
		admin.PUT("/custom-requests/:id", controllers.UpdateCustomRequest)
		admin.PUT("/settings", controllers.UpdateSettings)
		admin.POST("/chat/broadcast", controllers.BroadcastMessage)
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	return corsCfg
}
