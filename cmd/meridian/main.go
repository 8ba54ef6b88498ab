package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/app"
	"github.com/meridian-erp/meridian/internal/approval"
	"github.com/meridian-erp/meridian/internal/auth"
	"github.com/meridian-erp/meridian/internal/budget"
	"github.com/meridian-erp/meridian/internal/chatbot"
	"github.com/meridian-erp/meridian/internal/lookup"
	"github.com/meridian-erp/meridian/internal/observability"
	"github.com/meridian-erp/meridian/internal/planner"
	"github.com/meridian-erp/meridian/internal/platform/cache"
	"github.com/meridian-erp/meridian/internal/platform/db"
	"github.com/meridian-erp/meridian/internal/rbac"
	"github.com/meridian-erp/meridian/internal/reports"
	"github.com/meridian-erp/meridian/internal/shared"
	"github.com/meridian-erp/meridian/internal/training"
	"github.com/meridian-erp/meridian/jobs"
)

func approvalRules(cfg *app.Config, logger *slog.Logger) approval.Rules {
	mustDecimal := func(name, raw string) decimal.Decimal {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			logger.Error("invalid approval rule value", slog.String("name", name), slog.String("raw", raw))
			os.Exit(1)
		}
		return value
	}
	return approval.Rules{
		ClassThresholds: map[string]decimal.Decimal{
			"M": mustDecimal("APPROVAL_RATIO_CLASS_M", cfg.ApprovalRatioClassM),
			"T": mustDecimal("APPROVAL_RATIO_CLASS_T", cfg.ApprovalRatioClassT),
		},
		LargeOrderMin: mustDecimal("APPROVAL_LARGE_ORDER_MIN", cfg.ApprovalLargeOrderMin),
		SmallDTKMax:   mustDecimal("APPROVAL_SMALL_DTK_MAX", cfg.ApprovalSmallDTKMax),
		FallbackRole:  cfg.ApprovalFallbackRole,
	}
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	rbacService := rbac.NewService(dbpool)
	rbacMW := rbac.Middleware{Service: rbacService, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	approvalRepo := approval.NewRepository(dbpool)
	approvalService := approval.NewService(approvalRepo, rbacService, auditLogger, approvalRules(cfg, logger), logger)
	approvalHandler := approval.NewHandler(logger, approvalService, rbacMW)

	budgetRepo := budget.NewRepository(dbpool)
	budgetService := budget.NewService(budgetRepo, auditLogger, logger)
	budgetHandler := budget.NewHandler(logger, budgetService, rbacMW)

	plannerRepo := planner.NewRepository(dbpool)
	plannerService := planner.NewService(plannerRepo, auditLogger, logger)
	plannerHandler := planner.NewHandler(logger, plannerService, rbacMW)

	reportCache := reports.NewCache(redisClient, cfg.DashboardCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}
	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(reportsRepo, reportCache, logger)
	reportsHandler := reports.NewHandler(logger, reportsService, rbacMW)

	lookupService := lookup.NewService(dbpool)
	chatbotService := chatbot.NewService(lookupService, budgetService, logger)
	chatbotHandler := chatbot.NewHandler(logger, chatbotService, rbacMW)

	grader := training.NewOpenAIGrader(cfg.OpenAIAPIKey)
	trainingRepo := training.NewRepository(dbpool)
	trainingService := training.NewService(trainingRepo, grader, cfg.QuizDefaultScore, logger)
	trainingHandler := training.NewHandler(logger, trainingService, rbacMW)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		AuthHandler:     authHandler,
		ApprovalHandler: approvalHandler,
		BudgetHandler:   budgetHandler,
		PlannerHandler:  plannerHandler,
		ReportsHandler:  reportsHandler,
		ChatbotHandler:  chatbotHandler,
		TrainingHandler: trainingHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	// Warm the dashboards once the server is up.
	if _, err := jobClient.EnqueueDashboardWarmup(ctx, jobs.DashboardWarmupPayload{}); err != nil {
		logger.Warn("enqueue dashboard warmup", slog.Any("error", err))
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
