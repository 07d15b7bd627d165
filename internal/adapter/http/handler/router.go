package handler

import (
	"wallet-payout-service/internal/adapter/http/middleware"
	redisStore "wallet-payout-service/internal/adapter/storage/redis"
	"wallet-payout-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	WalletSvc      ports.WalletService
	BeneficiarySvc ports.BeneficiaryService
	PayoutSvc      ports.PayoutService
	QuerySvc       ports.QueryService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
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

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("", walletHandler.GetWallet)
		wallet.POST("/seed", walletHandler.SeedWallet)
	}

	benefHandler := NewBeneficiaryHandler(deps.BeneficiarySvc)
	beneficiaries := v1.Group("/beneficiaries", jwtAuth)
	{
		beneficiaries.POST("", benefHandler.Create)
		beneficiaries.GET("", benefHandler.List)
		beneficiaries.PUT("/:id", benefHandler.Update)
		beneficiaries.DELETE("/:id", benefHandler.Delete)
	}

	payoutHandler := NewPayoutHandler(deps.PayoutSvc, deps.QuerySvc)
	payouts := v1.Group("/payouts", jwtAuth)
	{
		payouts.POST("", rl("payouts_create"), payoutHandler.Create)
		payouts.GET("", rl("query"), payoutHandler.List)
		payouts.GET("/export", rl("payouts_export"), payoutHandler.Export)
		payouts.GET("/stats", rl("query"), payoutHandler.Stats)
		payouts.GET("/:id", rl("query"), payoutHandler.Get)
		payouts.POST("/:id/settle", rl("payouts_settle"), payoutHandler.Settle)
	}

	return r
}
