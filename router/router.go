package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/shopfloor-app/config"
	"github.com/yeremiapane/shopfloor-app/controllers"
	"github.com/yeremiapane/shopfloor-app/hub"
	"github.com/yeremiapane/shopfloor-app/middlewares"
	"github.com/yeremiapane/shopfloor-app/models"
)

func SetupRouter(db *gorm.DB, cfg *config.Config, floorHub *hub.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.AllowedOrigin))
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db, cfg.JWTTTL)
	workerCtrl := controllers.NewWorkerController(db, floorHub, cfg.RequestTimeout)
	scanCtrl := controllers.NewScanController(db, cfg.RequestTimeout)
	orderCtrl := controllers.NewOrderController(db, floorHub, cfg.Operations, cfg.BundleCount, cfg.RequestTimeout)
	assignmentCtrl := controllers.NewAssignmentController(db, floorHub, cfg.RequestTimeout)
	adminCtrl := controllers.NewAdminController(db, cfg.RequestTimeout)
	socketCtrl := controllers.NewSocketController(floorHub, cfg.AllowedOrigin)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/login", middlewares.NewStrictRateLimiter(), userCtrl.Login)

	// Terminal endpoints
	terminalLimiter := middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	terminal := r.Group("/")
	terminal.Use(terminalLimiter.RateLimit(), middlewares.ScannerKeyMiddleware(cfg.ScannerKey))
	{
		terminal.POST("/scan", middlewares.LogScanRequest(), scanCtrl.RecordScan)
		terminal.GET("/workers/:token/bundle", workerCtrl.GetCurrentBundle)
		terminal.GET("/ws/terminal/:scanner_id", socketCtrl.TerminalSocket)
	}

	// Browsers cannot send an Authorization header on a websocket handshake.
	r.GET("/admin/ws/admin",
		middlewares.WebSocketAuthMiddleware(),
		middlewares.RequireRole(models.RoleAdmin, models.RoleSupervisor),
		socketCtrl.AdminSocket)

	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware())

	read := admin.Group("")
	read.Use(middlewares.RequireRole(models.RoleAdmin, models.RoleSupervisor))
	{
		read.GET("/profile", userCtrl.GetProfile)
		read.POST("/logout", userCtrl.Logout)
		read.GET("/dashboard/stats", adminCtrl.GetDashboardStats)
		read.GET("/scan-logs", adminCtrl.GetScanLogs)

		read.GET("/workers", workerCtrl.GetAllWorkers)
		read.GET("/workers/:id", workerCtrl.GetWorkerByID)
		read.GET("/workers/:id/assignments", assignmentCtrl.GetWorkerAssignments)

		read.GET("/orders", orderCtrl.GetAllOrders)
		read.GET("/orders/:id", orderCtrl.GetOrderByID)
		read.GET("/orders/:id/report.pdf", orderCtrl.GetOrderReport)
	}

	write := admin.Group("")
	write.Use(middlewares.RequireRole(models.RoleAdmin))
	{
		write.GET("/users", userCtrl.GetAllUsers)
		write.POST("/users", userCtrl.CreateUser)

		write.POST("/workers", workerCtrl.CreateWorker)
		write.POST("/workers/bulk", workerCtrl.BulkCreateWorkers)
		write.PATCH("/workers/:id/deactivate", workerCtrl.DeactivateWorker)

		write.POST("/orders", orderCtrl.CreateOrder)
		write.POST("/assignments", assignmentCtrl.AssignBundle)
	}

	return r
}
