package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/simpleaccounts/backend/internal/application/payroll"
	"github.com/simpleaccounts/backend/internal/application/reconciliation"
	domaincoord "github.com/simpleaccounts/backend/internal/domain/coordination"
	"github.com/simpleaccounts/backend/internal/domain/ledger"
	"github.com/simpleaccounts/backend/internal/infrastructure/config"
	"github.com/simpleaccounts/backend/internal/infrastructure/coordination"
	"github.com/simpleaccounts/backend/internal/infrastructure/logger"
	"github.com/simpleaccounts/backend/internal/infrastructure/persistence"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting SimpleAccounts backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Repositories
	journalRepo := persistence.NewGormJournalRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	balanceRepo := persistence.NewGormCategoryBalanceRepository(db.DB)
	bankAccountRepo := persistence.NewGormBankAccountRepository(db.DB)
	bankTxnRepo := persistence.NewGormBankTransactionRepository(db.DB)
	reconciliationRepo := persistence.NewGormReconciliationRepository(db.DB)
	payrollRunRepo := persistence.NewGormPayrollRunRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Coordination stores, Redis when configured and reachable
	stores := coordination.NewStores(cfg, log)

	lock := domaincoord.NewCriticalSectionLock(stores.Leases,
		domaincoord.WithLockLogger(log))

	poster := ledger.NewPoster(journalRepo, categoryRepo, balanceRepo, txManager, log)

	payrollCoordinator := payroll.NewRunCoordinator(lock,
		payroll.WithRunTTL(cfg.Coordination.PayrollTTL),
		payroll.WithCoordinatorLogger(log))

	services := &backendServices{
		Sequences: domaincoord.NewSequenceAllocator(stores.Sequences, cfg.Sequence.Padding),
		Poster:    poster,
		Reconciliation: reconciliation.NewEngine(
			lock,
			bankAccountRepo,
			bankTxnRepo,
			reconciliationRepo,
			balanceRepo,
			txManager,
			reconciliation.WithLogger(log),
			reconciliation.WithLockTTL(cfg.Coordination.ReconcileTTL),
		),
		Payroll: payroll.NewRunService(
			payrollCoordinator,
			persistence.NewGormSalarySource(db.DB),
			poster,
			categoryRepo,
			payrollRunRepo,
			log,
		),
	}

	run(cfg, log, stores, services)
}

// backendServices bundles the engines the transport layer attaches to.
type backendServices struct {
	Sequences      *domaincoord.SequenceAllocator
	Poster         *ledger.Poster
	Reconciliation *reconciliation.Engine
	Payroll        *payroll.RunService
}

// run blocks until shutdown. Services stay resident for the lifetime of the
// process; transports attach to them in deployments that expose an API.
func run(cfg *config.Config, log *zap.Logger, stores *coordination.Stores, services *backendServices) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Coordination.SweepEnabled {
		go coordination.RunLeaseSweeper(ctx, stores.Leases, cfg.Coordination.SweepInterval, log)
		log.Info("Lease sweeper started",
			zap.Duration("interval", cfg.Coordination.SweepInterval))
	}

	log.Info("SimpleAccounts backend ready")

	<-ctx.Done()
	log.Info("Shutting down")
}
