package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/flight-surety/internal/config"
	"github.com/iliyamo/flight-surety/internal/database"
	"github.com/iliyamo/flight-surety/internal/middleware"
	"github.com/iliyamo/flight-surety/internal/queue"
	"github.com/iliyamo/flight-surety/internal/repository"
	"github.com/iliyamo/flight-surety/internal/router"
	"github.com/iliyamo/flight-surety/internal/service"
)

func openDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDriver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, err
		}
		return database.OpenSQLite(cfg.SQLitePath)
	}
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// purgeOnChange drops cached flight boards whenever the board changes.
func purgeOnChange(next service.Publisher, rdb *redis.Client, prefix string) service.Publisher {
	if rdb == nil {
		return next
	}
	return service.PublisherFunc(func(ctx context.Context, ev queue.Event) error {
		switch ev.RoutingKey() {
		case queue.KeyFlightRegistered, queue.KeyStatusResolved:
			if err := middleware.PurgeCache(ctx, rdb, prefix); err != nil {
				log.Printf("cache: purge failed: %v", err)
			}
		}
		return next.Publish(ctx, ev)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient(cfg.Redis)
	var locker repository.Locker = &repository.MutexLocker{}
	if rdb != nil {
		defer rdb.Close()
		locker = repository.NewRedisLocker(rdb, cfg.LedgerLock.Key, cfg.LedgerLock.TTL, cfg.LedgerLock.Retry)
		log.Printf("ledger: using redis lease %s", cfg.LedgerLock.Key)
	}

	ledger := repository.NewLedger(db, locker)
	if err := ledger.Bootstrap(ctx, cfg.Owner, cfg.Founder, time.Now()); err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	var pub service.Publisher = service.LogPublisher{}
	if cfg.EventsEnabled {
		rp := service.NewRabbitPublisher(cfg.RabbitURL, cfg.EventsExchange)
		defer rp.Close()
		pub = rp

		go func() {
			err := queue.StartEventConsumer(ctx, queue.ConsumerConfig{
				URL:      cfg.RabbitURL,
				Exchange: cfg.EventsExchange,
				Queue:    cfg.JournalQueue,
				LogDir:   cfg.JournalDir,
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("events: consumer stopped: %v", err)
			}
		}()
	}
	pub = purgeOnChange(pub, rdb, cfg.Cache.Prefix)

	surety := service.New(ledger, service.Params{
		MinFund:                 cfg.MinFund,
		MaxPremium:              cfg.MaxPremium,
		Quorum:                  cfg.OracleQuorum,
		DirectRegistrationLimit: cfg.DirectRegistrationLimit,
	}, pub)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	router.Register(e, router.NewHandlers(surety), router.Options{
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, db=%s, owner=%s)", addr, cfg.Env, cfg.DBDriver, cfg.Owner.Short())

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
