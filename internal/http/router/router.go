package router

import (
	"github.com/gin-gonic/gin"

	"github.com/kfhr/cashdesk-backend/internal/config"
	"github.com/kfhr/cashdesk-backend/internal/http/handlers"
	"github.com/kfhr/cashdesk-backend/internal/http/middleware"
	"github.com/kfhr/cashdesk-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	requestHandler *handlers.RequestHandler,
	approvalHandler *handlers.ApprovalHandler,
	depositHandler *handlers.DepositHandler,
	reportHandler *handlers.ReportHandler,
	webhookHandler *handlers.WebhookHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	// Chat webhook: unauthenticated by design (the chat platform signs its own
	// calls upstream), rate limited per IP.
	webhookRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	r.POST("/webhook", webhookRateLimit, webhookHandler.Handle)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/login", authHandler.Login)
	}

	// The websocket handler checks its own token (query param, not header).
	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/auth/register", authHandler.Register)

		protected.POST("/requests", requestHandler.Create)
		protected.GET("/requests", reportHandler.ListWithdrawals)

		protected.POST("/approve/:request_id", approvalHandler.Approve)
		protected.POST("/reject/:request_id", approvalHandler.Reject)

		protected.POST("/deposits", depositHandler.Create)
		protected.GET("/deposits", reportHandler.ListDeposits)
		protected.POST("/deposits/:deposit_request_id/end", depositHandler.End)
		protected.POST("/deposits/:deposit_request_id/cancel", depositHandler.Cancel)
		protected.GET("/deposits/:deposit_request_id/status", depositHandler.Status)
		protected.GET("/deposits/:deposit_request_id/telemetry", depositHandler.Telemetry)

		protected.GET("/transactions", reportHandler.ListTransactions)
	}

	return r
}
