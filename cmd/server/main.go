package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/logging"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/router"
	"github.com/iliyamo/table-reservation/internal/scheduler"
	queue_publisher "github.com/iliyamo/table-reservation/internal/service"
	"github.com/iliyamo/table-reservation/internal/utils"
)

const bookingLockKey = "lock:booking"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	if err := seedStaff(ctx, cfg, store); err != nil {
		log.WithError(err).Fatal("seed staff account")
	}

	rdb := config.NewRedisClient()
	var locker booking.Locker = booking.NewLocalLocker()
	if rdb != nil {
		defer rdb.Close()
		locker = booking.NewRedisLocker(rdb, bookingLockKey, cfg.LockTTL)
		log.Info("redis connected: distributed lock, rate limit and cache enabled")
	} else {
		log.Warn("redis unavailable: using in-process lock, no rate limit or cache")
	}

	publisher := queue_publisher.NewPublisher(cfg.RabbitURL, log.WithField("component", "publisher"))
	engine := booking.New(store, publisher, engineOptions(cfg.Engine),
		booking.WithLocker(locker),
		booking.WithLogger(log.WithField("component", "engine")),
	)

	sched := scheduler.New(log.WithField("component", "scheduler"), sweepTasks(cfg.Sweeps, engine)...)
	sched.Start(ctx)

	consumer := queue.NewConsumer(cfg.RabbitURL, os.Getenv("NOTIFICATION_LOG_DIR"), log.WithField("component", "consumer"))
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("notification consumer stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger(log))

	var db handler.Pinger
	if p, ok := store.(handler.Pinger); ok {
		db = p
	}
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, store), cfg.JWTSecret)
	resH := handler.NewReservationHandler(engine)
	staffH := handler.NewStaffHandler(engine)
	router.RegisterPublic(e,
		handler.NewTableHandler(store, engine),
		resH,
		cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterCustomer(e, resH, staffH, cfg.JWTSecret)
	router.RegisterStaff(e, staffH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	sched.Wait()
}

// openStore returns the configured store and a function releasing it.
func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (repository.Store, func()) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store: data is lost on restart")
		return repository.NewMemoryStore(cfg.Tables), func() {}
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, log)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("db migrate")
	}
	if err := database.SeedTables(ctx, db, cfg.Tables); err != nil {
		log.WithError(err).Fatal("db seed tables")
	}
	return repository.NewSQLStore(db), func() { _ = db.Close() }
}

// seedStaff creates the configured staff account unless it already exists.
func seedStaff(ctx context.Context, cfg config.Config, users handler.UserStore) error {
	if cfg.StaffEmail == "" {
		return nil
	}
	hash, err := utils.HashPassword(cfg.StaffPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	u := model.User{
		Email:        cfg.StaffEmail,
		Name:         "Staff",
		PasswordHash: hash,
		Role:         cfg.StaffRole,
		IsActive:     true,
	}
	if err := users.CreateUser(ctx, &u); err != nil && !errors.Is(err, repository.ErrEmailExists) {
		return err
	}
	return nil
}

func engineOptions(c config.EngineConfig) booking.Options {
	return booking.Options{
		ServiceDuration:       c.ServiceDuration,
		NoShowGrace:           c.NoShowGrace,
		EarlyCheckIn:          c.EarlyCheckIn,
		ReminderLookahead:     c.ReminderLookahead,
		ReminderTolerance:     c.ReminderTolerance,
		SuggestionStep:        c.SuggestionStep,
		SuggestionProbes:      c.SuggestionProbes,
		MaxPartySize:          c.MaxPartySize,
		PerGuestRate:          c.PerGuestRate,
		SubscriberDiscountPct: c.SubscriberDiscountPct,
	}
}

func sweepTasks(c config.SweepConfig, engine *booking.Engine) []scheduler.Task {
	task := func(name string, every time.Duration, sweep func(context.Context) (booking.SweepReport, error)) scheduler.Task {
		return scheduler.Task{
			Name:       name,
			Interval:   every,
			StartDelay: c.StartDelay,
			Jitter:     c.Jitter,
			Run: func(ctx context.Context) error {
				_, err := sweep(ctx)
				return err
			},
		}
	}
	return []scheduler.Task{
		task("no-show", c.NoShowEvery, engine.SweepNoShows),
		task("reminders", c.ReminderEvery, engine.SweepReminders),
		task("billing", c.BillingEvery, engine.SweepBilling),
	}
}
