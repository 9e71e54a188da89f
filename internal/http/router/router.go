package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/artmarket/handmade-backend/internal/config"
	"github.com/artmarket/handmade-backend/internal/domain/valueobject"
	"github.com/artmarket/handmade-backend/internal/http/handlers"
	"github.com/artmarket/handmade-backend/internal/http/middleware"
	"github.com/artmarket/handmade-backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	orderHandler *handlers.OrderHandler,
	disputeHandler *handlers.DisputeHandler,
	returnHandler *handlers.ReturnHandler,
	notificationHandler *handlers.NotificationHandler,
	mediaHandler *handlers.MediaHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	api.GET("/ws", wsHandler.Handle)

	adminOnly := middleware.RequireRoles(string(valueobject.RoleAdmin))

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders/my", orderHandler.ListMyOrders)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.GetOrder)
		protected.GET("/orders/:id/history", middleware.UUIDValidator("id"), orderHandler.GetHistory)
		protected.POST("/orders/:id/transition", middleware.UUIDValidator("id"), orderHandler.Transition)
		protected.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), orderHandler.CancelOrder)
		protected.PUT("/orders/:id/shipping", middleware.UUIDValidator("id"), orderHandler.AttachShippingInfo)

		// Колбэк платёжного шлюза: переход выполняется от имени системы,
		// маршрут открыт только администратору.
		protected.POST("/orders/:id/paid", middleware.UUIDValidator("id"), adminOnly, orderHandler.MarkPaid)

		protected.POST("/orders/:id/disputes", middleware.UUIDValidator("id"), disputeHandler.OpenDispute)
		protected.GET("/orders/:id/disputes", middleware.UUIDValidator("id"), disputeHandler.ListOrderDisputes)
		protected.GET("/disputes/my", disputeHandler.ListMyDisputes)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.GetDispute)
		protected.PATCH("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.UpdateDispute)

		protected.POST("/orders/:id/returns", middleware.UUIDValidator("id"), returnHandler.RequestReturn)
		protected.GET("/orders/:id/returns", middleware.UUIDValidator("id"), returnHandler.ListOrderReturns)
		protected.GET("/returns/my", returnHandler.ListMyReturns)
		protected.GET("/returns/:id", middleware.UUIDValidator("id"), returnHandler.GetReturn)
		protected.PATCH("/returns/:id", middleware.UUIDValidator("id"), returnHandler.UpdateReturn)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.CountUnread)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), notificationHandler.Delete)

		protected.POST("/media/photos", mediaHandler.UploadPhoto)
		protected.DELETE("/media/:id", middleware.UUIDValidator("id"), mediaHandler.DeleteMedia)
	}

	return r
}
