package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/local"
	redisadapter "github.com/api-sage/backoffice-ledger/src/internal/adapter/redis"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/implementations"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/backoffice-ledger/src/internal/config"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

type repositories struct {
	accounts     repo_interfaces.AccountRepository
	transactions repo_interfaces.TransactionRepository
	schedules    repo_interfaces.ScheduledTransferRepository
	limits       repo_interfaces.LimitRepository
	otps         repo_interfaces.OTPRepository
	rates        repo_interfaces.RateRepository
	close        func()
}

func main() {
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer repos.close()

	notifier, locker, closeRedis := openCoordination(ctx, cfg)
	defer closeRedis()

	dispatcher := services.NewDispatcher(notifier)
	accountService := services.NewAccountService(repos.accounts)
	postingService := services.NewPostingService(repos.transactions)
	limitService := services.NewLimitService(repos.limits, limitDefaults(cfg.Limits))
	approvalService := services.NewApprovalService(repos.transactions, repos.accounts, limitService, dispatcher)
	otpService := services.NewOTPService(repos.otps, repos.accounts, dispatcher)
	transferService := services.NewTransferService(repos.accounts, repos.transactions, limitService, otpService, dispatcher, cfg.OTPThreshold)
	scheduleService := services.NewScheduleService(repos.schedules, repos.accounts, repos.transactions, dispatcher, locker, cfg.SweepWorkers)
	rateService := services.NewRateService(repos.rates)

	mux := router.New(
		cfg.ChannelID,
		cfg.ChannelKey,
		controller.NewHolderController(accountService),
		controller.NewTransferController(transferService),
		controller.NewTransactionController(approvalService, postingService),
		controller.NewOTPController(otpService),
		controller.NewLimitController(limitService),
		controller.NewScheduleController(scheduleService),
		controller.NewRateController(rateService),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go scheduleService.RunSweepWorker(ctx, cfg.SweepInterval)

	go func() {
		logger.Info("http server listening", logger.Fields{"addr": cfg.HTTPAddr, "storage": cfg.Storage})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", err, nil)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", err, nil)
	}
	dispatcher.Flush()
}

func openRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	if cfg.Storage == config.StorageMemory {
		store := memory.NewStore()
		return repositories{
			accounts:     memory.NewAccountRepository(store),
			transactions: memory.NewTransactionRepository(store),
			schedules:    memory.NewScheduledTransferRepository(store),
			limits:       memory.NewLimitRepository(store),
			otps:         memory.NewOTPRepository(store),
			rates:        memory.NewRateRepository(store),
			close:        func() {},
		}, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := implementations.Open(openCtx, cfg.DatabaseDSN, cfg.DBMaxOpenConns)
	if err != nil {
		return repositories{}, err
	}
	if err := implementations.RunMigrations(db, cfg.MigrationsDir); err != nil {
		_ = db.Close()
		return repositories{}, err
	}
	logger.Info("migrations applied", logger.Fields{"dir": cfg.MigrationsDir})

	rates := implementations.NewRateRepository(db)
	if err := rates.EnsureDefaultRates(openCtx); err != nil {
		_ = db.Close()
		return repositories{}, err
	}

	return repositories{
		accounts:     implementations.NewAccountRepository(db),
		transactions: implementations.NewTransactionRepository(db),
		schedules:    implementations.NewScheduledTransferRepository(db),
		limits:       implementations.NewLimitRepository(db),
		otps:         implementations.NewOTPRepository(db),
		rates:        rates,
		close:        func() { closeDB(db) },
	}, nil
}

// openCoordination picks Redis for notifications and the sweep lock when
// REDIS_ADDR is set, and single-process stand-ins otherwise.
func openCoordination(ctx context.Context, cfg config.Config) (service_interfaces.Notifier, service_interfaces.SweepLocker, func()) {
	if cfg.RedisAddr == "" {
		return local.LogNotifier{}, local.NewLocker(), func() {}
	}

	client, err := redisadapter.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	logger.Info("redis connected", logger.Fields{"addr": cfg.RedisAddr})

	notifier := redisadapter.NewNotifier(client, cfg.NotificationChannel)
	locker := redisadapter.NewLocker(client, 2*cfg.SweepInterval)
	return notifier, locker, func() { _ = client.Close() }
}

func limitDefaults(l config.LimitDefaults) domain.LimitDefaults {
	return domain.LimitDefaults{
		MaxTransactionAmount: l.MaxTransactionAmount,
		DailyTransferLimit:   l.DailyTransferLimit,
		DailyWithdrawalLimit: l.DailyWithdrawalLimit,
		AccountDailyLimits: map[domain.AccountType]decimal.Decimal{
			domain.AccountTypeChecking:   l.CheckingDailyLimit,
			domain.AccountTypeSavings:    l.SavingsDailyLimit,
			domain.AccountTypeInvestment: l.InvestmentDailyLimit,
		},
	}
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Error("close database", err, nil)
	}
}
