// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "taskpay-engine/internal/api"
	"taskpay-engine/internal/api/handler"
	"taskpay-engine/internal/config"
	"taskpay-engine/internal/repository"
	"taskpay-engine/internal/repository/postgres"
	"taskpay-engine/internal/scheduler"
	"taskpay-engine/internal/service"
	"taskpay-engine/internal/util"
	"taskpay-engine/migrations"
	"taskpay-engine/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	UserRepository       repository.UserRepository
	WalletRepository     repository.WalletRepository
	LedgerRepository     repository.LedgerRepository
	CampaignRepository   repository.CampaignRepository
	SubmissionRepository repository.SubmissionRepository
	InvestmentRepository repository.InvestmentRepository
	ReferralRepository   repository.ReferralRepository

	// Services
	Notifier          *service.ChannelNotifier
	ReferralService   service.ReferralService
	WalletService     service.WalletService
	TransferService   service.TransferService
	CampaignService   service.CampaignService
	InvestmentService service.InvestmentService

	// Background jobs
	Scheduler *scheduler.Scheduler

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database and migrate the schema
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	if err := db.MigrateUp(app.Logger, app.DB, migrations.FS, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// 4. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository(app.DB)
	app.WalletRepository = postgres.NewWalletRepository(app.DB)
	app.LedgerRepository = postgres.NewLedgerRepository(app.DB)
	app.CampaignRepository = postgres.NewCampaignRepository(app.DB)
	app.SubmissionRepository = postgres.NewSubmissionRepository(app.DB)
	app.InvestmentRepository = postgres.NewInvestmentRepository(app.DB)
	app.ReferralRepository = postgres.NewReferralRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	app.Notifier = service.NewChannelNotifier(app.Config.Engine.NotifyBuffer, app.Logger)

	app.ReferralService = service.NewReferralService(
		app.DB,
		app.DB,
		app.UserRepository,
		app.ReferralRepository,
		app.WalletRepository,
		app.LedgerRepository,
		app.Notifier,
		app.Logger,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)

	app.WalletService = service.NewWalletService(
		app.DB,
		app.DB,
		app.UserRepository,
		app.WalletRepository,
		app.LedgerRepository,
		app.ReferralService,
		app.Notifier,
		app.Logger,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)

	app.TransferService = service.NewTransferService(
		app.DB,
		app.WalletRepository,
		app.LedgerRepository,
		app.Notifier,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)

	app.CampaignService = service.NewCampaignService(service.CampaignServiceConfig{
		DBBeginner:        app.DB,
		DBExecutor:        app.DB,
		CampaignRepo:      app.CampaignRepository,
		SubmissionRepo:    app.SubmissionRepository,
		WalletRepo:        app.WalletRepository,
		LedgerRepo:        app.LedgerRepository,
		Cascader:          app.ReferralService,
		Notifier:          app.Notifier,
		Logger:            app.Logger,
		PlatformFee:       app.Config.Engine.PlatformFeePercent,
		AutoApproveWindow: app.Config.Engine.AutoApproveWindow,
		BeginTx:           db.BeginTx,
		CommitTx:          db.CommitTx,
		RollbackTx:        db.RollbackTx,
	})

	app.InvestmentService = service.NewInvestmentService(service.InvestmentServiceConfig{
		DBBeginner:     app.DB,
		DBExecutor:     app.DB,
		InvestmentRepo: app.InvestmentRepository,
		WalletRepo:     app.WalletRepository,
		LedgerRepo:     app.LedgerRepository,
		Cascader:       app.ReferralService,
		Notifier:       app.Notifier,
		Logger:         app.Logger,
		BeginTx:        db.BeginTx,
		CommitTx:       db.CommitTx,
		RollbackTx:     db.RollbackTx,
	})
	app.Logger.Info("Services initialized.")

	// 6. Background sweep for expired free-text submissions
	sched, err := scheduler.New(app.CampaignService, app.Config.Engine.SweepSpec, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	app.Scheduler = sched

	// 7. Initialize HTTP Handlers and Router
	walletHandler := handler.NewWalletHandler(app.WalletService, app.TransferService, app.Logger)
	campaignHandler := handler.NewCampaignHandler(app.CampaignService, app.Logger)
	investmentHandler := handler.NewInvestmentHandler(app.InvestmentService, app.Logger)
	app.HTTPHandler = router.NewRouter(walletHandler, campaignHandler, investmentHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Scheduler != nil {
		app.Scheduler.Stop()
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
