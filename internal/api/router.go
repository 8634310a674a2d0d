package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oaif-format/oaif/internal/api/handler"
	"github.com/oaif-format/oaif/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	entityHandler *handler.EntityHandler,
	transactionHandler *handler.TransactionHandler,
	lotHandler *handler.LotHandler,
	typeHandler *handler.TypeHandler,
	extensionHandler *handler.ExtensionHandler,
	validationHandler *handler.ValidationHandler,
	fileHandler *handler.FileHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Chart of accounts
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("", accountHandler.List)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.GET("/:id/parents", accountHandler.ParentChain)
			accounts.GET("/:id/balance", accountHandler.GetBalance)
			accounts.POST("/:id/balance/repair", accountHandler.RepairBalance)
			accounts.GET("/:id/lots", lotHandler.Holdings)
		}

		// Parties and catalog records
		parties := v1.Group("/parties")
		{
			parties.POST("", entityHandler.CreateParty)
			parties.GET("", entityHandler.ListParties)
			parties.GET("/:id", entityHandler.GetParty)
		}
		items := v1.Group("/items")
		{
			items.POST("", entityHandler.CreateItem)
			items.GET("/:id", entityHandler.GetItem)
		}
		v1.POST("/tax-codes", entityHandler.CreateTaxCode)
		securities := v1.Group("/securities")
		{
			securities.POST("", entityHandler.CreateSecurity)
			securities.GET("/:id", entityHandler.GetSecurity)
		}

		// Transaction operations
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Post)
			transactions.GET("", transactionHandler.List)
			transactions.GET("/:id", transactionHandler.GetByID)
			transactions.POST("/:id/void", transactionHandler.Void)
			transactions.POST("/:id/pay", transactionHandler.MarkPaid)
			transactions.POST("/:id/close", transactionHandler.Close)
			transactions.GET("/:id/validation", validationHandler.ValidateTransaction)
		}
		v1.POST("/links", transactionHandler.Link)

		// Investment cost basis
		lots := v1.Group("/lots")
		{
			lots.POST("/acquisitions", lotHandler.Acquire)
			lots.POST("/disposals", lotHandler.Dispose)
		}
		v1.GET("/positions", lotHandler.Position)

		// Type registries
		typeGroups := v1.Group("/types")
		{
			typeGroups.GET("/account", typeHandler.ListAccountTypes)
			typeGroups.POST("/account", typeHandler.RegisterAccountType)
			typeGroups.GET("/transaction", typeHandler.ListTransactionTypes)
			typeGroups.POST("/transaction", typeHandler.RegisterTransactionType)
			typeGroups.GET("/transaction/:name/category", typeHandler.GetTransactionTypeCategory)
		}

		// Extension fields
		extensions := v1.Group("/extensions/:table/:id")
		{
			extensions.PUT("", extensionHandler.Set)
			extensions.GET("", extensionHandler.List)
			extensions.DELETE("/:namespace/:name", extensionHandler.Delete)
		}

		// Integrity validation and reports
		v1.POST("/validate", validationHandler.ValidateFile)
		v1.GET("/reports/trial-balance", transactionHandler.TrialBalance)

		// File metadata
		file := v1.Group("/file")
		{
			file.GET("/metadata", fileHandler.GetMetadata)
			file.PUT("/metadata/:key", fileHandler.SetMetadata)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
