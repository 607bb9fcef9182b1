package handler

import (
	"fundflow/internal/adapter/http/middleware"
	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WithdrawalSvc  ports.WithdrawalService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	organizerOnly := middleware.RequireRole(domain.RoleOrganizer)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Organizer routes ---
	withdrawalHandler := NewWithdrawalHandler(deps.WithdrawalSvc)
	withdrawals := v1.Group("/withdrawals", jwtAuth)
	{
		withdrawals.POST("", organizerOnly, withdrawalHandler.Create)
		withdrawals.GET("/balance/:campaignId", organizerOnly, withdrawalHandler.GetBalance)
		withdrawals.GET("/mine", organizerOnly, withdrawalHandler.ListMine)

		// Shared lookup: organizers see their own requests, admins see
		// any. The service enforces ownership.
		withdrawals.GET("/:id", withdrawalHandler.Get)
	}

	// --- Admin routes ---
	adminHandler := NewAdminHandler(deps.WithdrawalSvc)
	admin := v1.Group("/admin/withdrawals", jwtAuth, adminOnly)
	{
		admin.GET("", adminHandler.List)
		admin.PATCH("/:id/status", adminHandler.UpdateStatus)
		admin.PATCH("/:id/documents", adminHandler.VerifyDocument)
		admin.GET("/:id/bank-details", adminHandler.GetBankDetails)
	}

	return r
}
