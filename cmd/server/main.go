package main

import (
	"lexdesk/config"
	"lexdesk/db"
	"lexdesk/handlers"
	"lexdesk/middleware"
	"lexdesk/models"
	"lexdesk/services"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(
		&models.Firm{},
		&models.User{},
		&models.Session{},
		&models.Case{},
		&models.Document{},
		&models.Note{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
		&models.Event{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize file storage (R2 with local fallback)
	services.InitializeStorage(cfg)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echomiddleware.BodyLimit("50M"))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	// Public routes (no authentication required)
	e.POST("/api/auth/login", handlers.LoginHandler, middleware.LoginRateLimiter.Middleware())
	e.POST("/api/auth/register", handlers.RegisterHandler, middleware.RegisterRateLimiter.Middleware())

	// Protected routes (authentication + firm required)
	protected := e.Group("/api")
	protected.Use(middleware.RequireAuth())
	protected.Use(middleware.RequireFirm())
	protected.Use(middleware.AuditContext())
	{
		protected.POST("/auth/logout", handlers.LogoutHandler)
		protected.GET("/auth/me", handlers.GetCurrentUserHandler)

		// User routes (handler-level auth checks for self vs admin)
		protected.GET("/users", handlers.GetUsers, middleware.RequireRole(models.RoleAdmin, models.RoleAssociate))
		protected.GET("/users/:id", handlers.GetUser)
		protected.PUT("/users/:id", handlers.UpdateUser)

		// Cases
		protected.GET("/cases", handlers.GetCasesHandler)
		protected.GET("/cases/export", handlers.ExportCasesHandler, middleware.RequireRole(models.RoleAdmin, models.RoleAssociate))
		protected.GET("/cases/:id", handlers.GetCaseHandler)

		// Documents
		protected.GET("/documents", handlers.GetDocumentsHandler)
		protected.GET("/documents/:id", handlers.GetDocumentHandler)
		protected.GET("/documents/:id/download", handlers.DownloadDocumentHandler)

		// Notes (personal, owner-scoped)
		protected.GET("/notes", handlers.GetNotesHandler)
		protected.GET("/notes/:id", handlers.GetNoteHandler)
		protected.POST("/notes", handlers.CreateNoteHandler)
		protected.PUT("/notes/:id", handlers.UpdateNoteHandler)
		protected.DELETE("/notes/:id", handlers.DeleteNoteHandler)

		// Invoices
		protected.GET("/invoices", handlers.GetInvoicesHandler)
		protected.GET("/invoices/:id", handlers.GetInvoiceHandler)
		protected.GET("/invoices/:id/pdf", handlers.DownloadInvoicePDFHandler)
		protected.POST("/invoices/:id/payment-proof", handlers.UploadPaymentProofHandler)

		// Events (clients may confirm attendance via PUT)
		protected.GET("/events", handlers.GetEventsHandler)
		protected.GET("/events/:id", handlers.GetEventHandler)
		protected.PUT("/events/:id", handlers.UpdateEventHandler)

		// Law firm and dashboards
		protected.GET("/law-firms/:id", handlers.GetLawFirmHandler)
		protected.GET("/stats/law-firm/:id", handlers.GetLawFirmStatsHandler)
		protected.GET("/stats/user/:id", handlers.GetUserStatsHandler)

		// Staff-only mutations
		staffRoutes := protected.Group("")
		staffRoutes.Use(middleware.RequireRole(models.RoleAdmin, models.RoleAssociate))
		{
			staffRoutes.POST("/cases", handlers.CreateCaseHandler)
			staffRoutes.PUT("/cases/:id", handlers.UpdateCaseHandler)

			staffRoutes.POST("/documents", handlers.UploadDocumentHandler)
			staffRoutes.PUT("/documents/:id", handlers.UpdateDocumentHandler)
			staffRoutes.DELETE("/documents/:id", handlers.DeleteDocumentHandler)

			staffRoutes.POST("/invoices", handlers.CreateInvoiceHandler)
			staffRoutes.PUT("/invoices/:id", handlers.UpdateInvoiceHandler)

			staffRoutes.POST("/events", handlers.CreateEventHandler)
			staffRoutes.DELETE("/events/:id", handlers.DeleteEventHandler)
		}

		// Admin-only routes
		adminRoutes := protected.Group("")
		adminRoutes.Use(middleware.RequireRole(models.RoleAdmin))
		{
			adminRoutes.POST("/users", handlers.CreateUser, middleware.RequirePermission(models.PermissionFull))
			adminRoutes.DELETE("/users/:id", handlers.DeleteUser, middleware.RequirePermission(models.PermissionFull))

			adminRoutes.DELETE("/cases/:id", handlers.DeleteCaseHandler, middleware.RequirePermission(models.PermissionFull))
			adminRoutes.DELETE("/invoices/:id", handlers.DeleteInvoiceHandler)

			adminRoutes.PUT("/law-firms/:id", handlers.UpdateLawFirmHandler)
			adminRoutes.GET("/audit/:type/:id", handlers.GetResourceAuditHistoryHandler)
		}
	}

	// Start background cleanup jobs (runs every hour)
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := services.CleanupExpiredSessions(db.DB); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}

			if err := services.SweepOverdueInvoices(db.DB); err != nil {
				log.Printf("Error sweeping overdue invoices: %v", err)
			}
		}
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
