package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kfhr/cashdesk-backend/internal/config"
	"github.com/kfhr/cashdesk-backend/internal/db"
	httpHandlers "github.com/kfhr/cashdesk-backend/internal/http/handlers"
	httpRouter "github.com/kfhr/cashdesk-backend/internal/http/router"
	"github.com/kfhr/cashdesk-backend/internal/logger"
	"github.com/kfhr/cashdesk-backend/internal/machine"
	"github.com/kfhr/cashdesk-backend/internal/repository"
	"github.com/kfhr/cashdesk-backend/internal/service"
	"github.com/kfhr/cashdesk-backend/internal/ws"
)

func main() {
	// Context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: cannot load configuration: %v", err)
	}

	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Database and migrations.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: cannot connect to the database: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: migrations failed: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// Machine API plumbing.
	machineClient := machine.NewClient(cfg.MachineTimeout)
	resolver := machine.NewBranchResolver(cfg.MachineDefaultBase, cfg.MachineBranchBases)

	// Repositories.
	withdrawalRepo := repository.NewWithdrawalRepository(dbConn)
	depositRepo := repository.NewDepositRepository(dbConn)
	transactionRepo := repository.NewTransactionRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn)

	// Services.
	authService := service.NewAuthService(userRepo, tokenManager)
	intakeService := service.NewIntakeService(withdrawalRepo)
	approvalService := service.NewApprovalService(withdrawalRepo, machineClient, resolver, cfg.WithdrawProtocol, cfg.MachineID)
	depositService := service.NewDepositService(depositRepo, transactionRepo, machineClient, resolver, cfg.DepositProtocol, cfg.MachineID)
	reportService := service.NewReportService(withdrawalRepo, depositRepo, transactionRepo)
	chatSessions := service.NewChatSessionService(cfg.ChatSessionTTL)
	chatSessions.StartJanitor(ctx, 5*time.Minute)

	// Websocket hub pushing status and telemetry events to the approver UI.
	hub := ws.NewHub()
	go hub.Run()
	approvalService.SetNotifier(hub)
	depositService.SetNotifier(hub)

	// HTTP handlers.
	authHandler := httpHandlers.NewAuthHandler(authService)
	requestHandler := httpHandlers.NewRequestHandler(intakeService)
	approvalHandler := httpHandlers.NewApprovalHandler(approvalService)
	depositHandler := httpHandlers.NewDepositHandler(depositService, resolver)
	reportHandler := httpHandlers.NewReportHandler(reportService)
	webhookHandler := httpHandlers.NewWebhookHandler(chatSessions, intakeService, depositService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg,
		authHandler, requestHandler, approvalHandler, depositHandler,
		reportHandler, webhookHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Shut the server down when the signal arrives.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: http server shutdown error: %v", err)
		}
	}()

	log.Printf("main: HTTP server listening on port %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: server exited with error: %v", err)
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: cannot close database: %v", err)
	}
}
