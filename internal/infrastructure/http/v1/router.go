// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"cartera/internal/domain/account"
	"cartera/internal/domain/alert"
	"cartera/internal/domain/auth"
	"cartera/internal/domain/authz"
	"cartera/internal/domain/client"
	"cartera/internal/domain/importing"
	"cartera/internal/domain/invoice"
	"cartera/internal/domain/payment"
	"cartera/internal/domain/reports"
	"cartera/internal/infrastructure/http/v1/handlers"
	"cartera/internal/infrastructure/http/v1/middleware"
	"cartera/internal/infrastructure/storage/postgres"
	"cartera/pkg/logger"
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	// TokenVerifier validates bearer tokens on protected routes.
	TokenVerifier middleware.TokenVerifier

	AuthService    *auth.Service
	InvoiceService *invoice.Service
	PaymentService *payment.Service
	ClientService  *client.Service
	AccountService *account.Service
	AlertService   *alert.Service
	ReportService  *reports.Service
	Importer       *importing.Importer
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints, no auth required
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	invoiceHandler := handlers.NewInvoiceHandler(cfg.InvoiceService)
	paymentHandler := handlers.NewPaymentHandler(cfg.PaymentService)
	clientHandler := handlers.NewClientHandler(cfg.ClientService)
	accountHandler := handlers.NewAccountHandler(cfg.AccountService)
	alertHandler := handlers.NewAlertHandler(cfg.AlertService)
	reportHandler := handlers.NewReportHandler(cfg.ReportService)
	importHandler := handlers.NewImportHandler(cfg.Importer)

	api := router.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.TokenVerifier))

		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		users := protected.Group("/users", middleware.RequireRole(authz.RoleManager))
		{
			users.POST("", authHandler.CreateUser)
			users.GET("", authHandler.ListUsers)
			users.GET("/:id", authHandler.GetUser)
		}

		invoices := protected.Group("/invoices")
		{
			invoices.POST("", invoiceHandler.Create)
			invoices.GET("", invoiceHandler.List)
			invoices.GET("/:id", invoiceHandler.Get)
			invoices.PUT("/:id", invoiceHandler.Update)
			invoices.GET("/:id/balance", invoiceHandler.Balance)
			invoices.GET("/:id/payments", paymentHandler.ListByInvoice)
			invoices.PUT("/:id/delivery", invoiceHandler.UpdateDelivery)

			manager := invoices.Group("", middleware.RequireRole(authz.RoleManager))
			{
				manager.POST("/:id/cancel", invoiceHandler.Cancel)
				manager.DELETE("/:id", invoiceHandler.Delete)
				manager.POST("/sweep-overdue", invoiceHandler.SweepOverdue)
				manager.POST("/import", importHandler.Run)
			}
		}

		payments := protected.Group("/payments")
		{
			payments.POST("", paymentHandler.Register)
			payments.GET("", paymentHandler.List)
			payments.GET("/methods", paymentHandler.Methods)
			payments.GET("/:id", paymentHandler.Get)
			payments.POST("/:id/confirm", paymentHandler.Confirm)
			payments.POST("/:id/void", paymentHandler.Void)
			payments.DELETE("/:id", paymentHandler.Delete)
		}

		clients := protected.Group("/clients")
		{
			clients.POST("", clientHandler.Create)
			clients.GET("", clientHandler.List)
			clients.GET("/:id", clientHandler.Get)
			clients.PUT("/:id", clientHandler.Update)
			clients.DELETE("/:id", middleware.RequireRole(authz.RoleManager), clientHandler.Delete)
			clients.POST("/:id/branches", clientHandler.AddBranch)
			clients.GET("/:id/branches", clientHandler.ListBranches)
		}
		protected.DELETE("/branches/:id", clientHandler.DeleteBranch)

		accounts := protected.Group("/accounts", middleware.RequireRole(authz.RoleManager))
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("", accountHandler.List)
			accounts.GET("/:id", accountHandler.Get)
			accounts.POST("/:id/deactivate", accountHandler.Deactivate)
		}

		alerts := protected.Group("/alerts")
		{
			alerts.GET("", alertHandler.ListOpen)
			alerts.POST("/:id/resolve", alertHandler.Resolve)
			alerts.POST("/scan", middleware.RequireRole(authz.RoleManager), alertHandler.Scan)
		}

		rep := protected.Group("/reports")
		{
			rep.GET("/portfolio", reportHandler.Portfolio)
			rep.GET("/aging", reportHandler.Aging)
			rep.GET("/accounts", reportHandler.Accounts)
			rep.GET("/dashboard", middleware.RequireRole(authz.RoleManager), reportHandler.Dashboard)
		}
	}

	return router
}
