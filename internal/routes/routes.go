package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/taka-pay/taka_pay/internal/agent"
	"github.com/taka-pay/taka_pay/internal/config"
	"github.com/taka-pay/taka_pay/internal/ledger"
	"github.com/taka-pay/taka_pay/internal/middleware"
	"github.com/taka-pay/taka_pay/internal/moneyrequest"
	"github.com/taka-pay/taka_pay/internal/notification"
	"github.com/taka-pay/taka_pay/internal/payment"
	"github.com/taka-pay/taka_pay/internal/storage"
	"github.com/taka-pay/taka_pay/internal/transfer"
	"github.com/taka-pay/taka_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.Dev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Storage backends: Postgres in real deployments, in-memory for dev runs
	// without a database.
	var (
		walletStore wallet.Store
		ledgerStore ledger.Ledger
		intentRepo  payment.Repository
		requestRepo moneyrequest.Repository
		runner      storage.Runner
	)
	if d.DB != nil {
		walletStore = wallet.NewPostgresStore(d.DB)
		ledgerStore = ledger.NewPostgresLedger(d.DB)
		intentRepo = payment.NewPostgresRepository(d.DB)
		requestRepo = moneyrequest.NewPostgresRepository(d.DB)
		runner = storage.NewPostgresRunner(d.DB)
	} else {
		memWallets := wallet.NewMemoryStore()
		memLedger := ledger.NewMemoryLedger()
		memIntents := payment.NewMemoryRepository()
		memRequests := moneyrequest.NewMemoryRepository()
		walletStore = memWallets
		ledgerStore = memLedger
		intentRepo = memIntents
		requestRepo = memRequests
		runner = storage.NewMemoryRunner(memWallets, memLedger, memIntents, memRequests)
	}

	notifier := notification.NewLoggerNotifier(d.Logger)

	walletSvc := wallet.NewService(walletStore, ledgerStore, runner, wallet.Defaults{
		Currency:     d.Cfg.Currency,
		SignupGrant:  d.Cfg.SignupGrant,
		AgentFloat:   d.Cfg.AgentFloat,
		MinBalance:   d.Cfg.MinBalance,
		DailyLimit:   d.Cfg.DailyLimit,
		MonthlyLimit: d.Cfg.MonthlyLimit,
	})

	platform, err := walletSvc.EnsurePlatform(context.Background())
	if err != nil {
		return fmt.Errorf("ensure platform wallet: %w", err)
	}

	transferSvc := transfer.NewService(walletStore, ledgerStore, runner, transfer.FeePolicy{
		Rate: d.Cfg.TransferFeeRate,
		Min:  d.Cfg.TransferFeeMin,
		Max:  d.Cfg.TransferFeeMax,
	}, platform.ID, notifier)

	agentSvc := agent.NewService(walletStore, ledgerStore, runner,
		agent.CommissionPolicy{Rate: d.Cfg.CommissionRate}, notifier)

	var gateway payment.Gateway = payment.StaticGateway{}
	if d.Cfg.GatewayBaseURL != "" {
		gateway = payment.NewHTTPGateway(d.Cfg.GatewayBaseURL, d.Cfg.GatewayStoreID,
			d.Cfg.GatewayStorePass, d.Cfg.GatewayTimeout)
	}
	paymentSvc := payment.NewService(intentRepo, walletStore, ledgerStore, runner, gateway,
		transferSvc, agentSvc, notifier, d.Logger, payment.URLs{
			Success: d.Cfg.CallbackBaseURL + "/api/v1/payments/callback/success",
			Fail:    d.Cfg.CallbackBaseURL + "/api/v1/payments/callback/fail",
			Cancel:  d.Cfg.CallbackBaseURL + "/api/v1/payments/callback/cancel",
		})

	requestSvc := moneyrequest.NewService(requestRepo, walletStore, transferSvc, runner, notifier)

	walletHandler := wallet.NewHandler(walletSvc)
	transferHandler := transfer.NewHandler(transferSvc)
	agentHandler := agent.NewHandler(agentSvc)
	paymentHandler := payment.NewHandler(paymentSvc)
	requestHandler := moneyrequest.NewHandler(requestSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Gateway callbacks authenticate by validation token, not actor headers.
	RegisterCallbackRoutes(api, paymentHandler)

	// Everything else requires an actor identity.
	protected := api.Group("", middleware.Actor())
	RegisterWalletRoutes(protected, walletHandler)
	RegisterTransferRoutes(protected, transferHandler)
	RegisterAgentRoutes(protected, agentHandler)
	RegisterPaymentRoutes(protected, paymentHandler, middleware.RateLimit(d.Cache, "payment", 30))
	RegisterMoneyRequestRoutes(protected, requestHandler)

	return nil
}
