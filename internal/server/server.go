// Package server wires handlers and middleware into the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"woodshop/internal/auth"
	_ "woodshop/internal/docs"
	"woodshop/internal/handlers"
	"woodshop/internal/middleware"
	"woodshop/internal/models"
	"woodshop/internal/services"
)

// Services bundles the business services the router exposes.
type Services struct {
	Users      services.UserServicer
	Sessions   services.SessionServicer
	Audit      services.AuditServicer
	Orders     services.OrderServicer
	Materials  services.MaterialServicer
	Carpenters services.CarpenterServicer
	Deliveries services.DeliveryServicer
	Settings   services.SettingServicer
}

// NewServices builds the database-backed services. revocations may be nil.
func NewServices(db *gorm.DB, revocations services.RevocationStore) Services {
	audit := services.NewAuditService(db)
	sessions := services.NewSessionService(db, revocations)
	return Services{
		Users:      services.NewUserService(db, sessions, audit),
		Sessions:   sessions,
		Audit:      audit,
		Orders:     services.NewOrderService(db, audit),
		Materials:  services.NewMaterialService(db, audit),
		Carpenters: services.NewCarpenterService(db, audit),
		Deliveries: services.NewDeliveryService(db, audit),
		Settings:   services.NewSettingService(db, audit),
	}
}

// Options configures the router.
type Options struct {
	CORSOrigins   []string
	MetricsAPIKey string
}

// NewRouter builds the gin engine with every route of the API.
func NewRouter(svc Services, tokens *auth.TokenService, opts Options) *gin.Engine {
	authn := auth.NewAuthenticator(tokens, svc.Sessions, svc.Users)

	authHandler := handlers.NewAuthHandler(svc.Users, svc.Sessions, tokens)
	historyHandler := handlers.NewHistoryHandler(svc.Audit)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	materialHandler := handlers.NewMaterialHandler(svc.Materials)
	carpenterHandler := handlers.NewCarpenterHandler(svc.Carpenters)
	deliveryHandler := handlers.NewDeliveryHandler(svc.Deliveries)
	settingHandler := handlers.NewSettingHandler(svc.Settings)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(opts.CORSOrigins))
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", middleware.ScrapeKeyAuth(opts.MetricsAPIKey), gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	// Public routes
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", middleware.OptionalAuth(authn), authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	v1.GET("/settings/backend-url", settingHandler.GetBackendURL)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.Authenticate(authn))

	admin := middleware.RequireRole(models.RoleAdministrator)

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.Me)
	protected.GET("/auth/sessions", authHandler.Sessions)
	protected.GET("/auth/users", admin, authHandler.ListUsers)
	protected.PUT("/auth/users/:id", admin, authHandler.UpdateUser)
	protected.DELETE("/auth/users/:id", admin, authHandler.DeleteUser)

	history := protected.Group("/history", middleware.RequireCapability(auth.CapViewHistory))
	history.GET("", historyHandler.ListEntries)
	history.GET("/statistics", admin, historyHandler.Statistics)
	history.GET("/report", admin, historyHandler.Report)
	history.GET("/entity/:table/:recordId", historyHandler.EntityHistory)
	history.GET("/:id", historyHandler.GetEntry)

	viewOrders := middleware.RequireCapability(auth.CapViewOrders)
	manageOrders := middleware.RequireCapability(auth.CapManageOrders)

	orders := protected.Group("/orders")
	orders.GET("", viewOrders, orderHandler.ListOrders)
	orders.GET("/statistics", viewOrders, orderHandler.Statistics)
	orders.GET("/:id", viewOrders, orderHandler.GetOrder)
	orders.POST("", manageOrders, orderHandler.CreateOrder)
	orders.PUT("/:id", middleware.RequireCapability(auth.CapEditOrders), orderHandler.UpdateOrder)
	orders.DELETE("/:id", middleware.RequireCapability(auth.CapDeleteOrders), orderHandler.DeleteOrder)
	orders.PUT("/:id/carpenter", middleware.RequireCapability(auth.CapAssignCarpenter), orderHandler.AssignCarpenter)
	orders.POST("/:id/items", manageOrders, orderHandler.AddItem)
	orders.PUT("/:id/items/:itemId", manageOrders, orderHandler.UpdateItem)
	orders.DELETE("/:id/items/:itemId", manageOrders, orderHandler.RemoveItem)

	manageMaterials := middleware.RequireCapability(auth.CapManageMaterials)
	materials := protected.Group("/materials")
	materials.GET("", viewOrders, materialHandler.ListMaterials)
	materials.GET("/low-stock", viewOrders, materialHandler.LowStock)
	materials.GET("/stock-report", viewOrders, materialHandler.StockReport)
	materials.GET("/:id", viewOrders, materialHandler.GetMaterial)
	materials.POST("", manageMaterials, materialHandler.CreateMaterial)
	materials.PUT("/:id", manageMaterials, materialHandler.UpdateMaterial)
	materials.DELETE("/:id", manageMaterials, materialHandler.DeleteMaterial)
	materials.POST("/:id/stock", manageMaterials, materialHandler.AdjustStock)

	manageCarpenters := middleware.RequireCapability(auth.CapManageCarpenters)
	carpenters := protected.Group("/carpenters")
	carpenters.GET("", viewOrders, carpenterHandler.ListCarpenters)
	carpenters.GET("/:id", viewOrders, carpenterHandler.GetCarpenter)
	carpenters.POST("", manageCarpenters, carpenterHandler.CreateCarpenter)
	carpenters.PUT("/:id", manageCarpenters, carpenterHandler.UpdateCarpenter)
	carpenters.DELETE("/:id", manageCarpenters, carpenterHandler.DeleteCarpenter)

	editOrders := middleware.RequireCapability(auth.CapEditOrders)
	deliveries := protected.Group("/deliveries")
	deliveries.GET("", viewOrders, deliveryHandler.ListDeliveries)
	deliveries.GET("/:id", viewOrders, deliveryHandler.GetDelivery)
	deliveries.POST("", editOrders, deliveryHandler.CreateDelivery)
	deliveries.PUT("/:id", editOrders, deliveryHandler.UpdateDelivery)
	deliveries.DELETE("/:id", editOrders, deliveryHandler.DeleteDelivery)

	settings := protected.Group("/settings")
	settings.GET("", settingHandler.ListSettings)
	settings.PUT("/backend-url", admin, settingHandler.SetBackendURL)
	settings.GET("/:key", settingHandler.GetSetting)
	settings.PUT("/:key", admin, settingHandler.UpsertSetting)
	settings.DELETE("/:key", admin, settingHandler.DeleteSetting)

	return router
}
