package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/config"
	"github.com/ariefcatur/go-veggie-billing/internal/httpx"
	"github.com/ariefcatur/go-veggie-billing/internal/inventory"
	kafkax "github.com/ariefcatur/go-veggie-billing/internal/kafka"
	"github.com/ariefcatur/go-veggie-billing/internal/logger"
	"github.com/ariefcatur/go-veggie-billing/internal/postgres"
	"github.com/ariefcatur/go-veggie-billing/internal/redisx"
	"github.com/ariefcatur/go-veggie-billing/internal/store"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer func() { _ = log.Sync() }()
	log = log.Named("inventory")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	pg := &store.Postgres{DB: db}
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatal("db schema", zap.Error(err))
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	svc := &inventory.Service{
		Stock: pg,
		Dedup: redisx.NewDeduper(rdb, "inventory"),
		Log:   log,
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.InventoryGroup, billing.TopicBillCreated, cfg.InventoryWorkers, log)

	health := &http.Server{Addr: cfg.InventoryHTTPAddr, Handler: httpx.NewRouter(log), ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("consumer started",
			zap.String("group", cfg.InventoryGroup),
			zap.String("topic", billing.TopicBillCreated),
			zap.Int("workers", cfg.InventoryWorkers))
		return cons.Start(gctx, svc.HandleBillCreated)
	})
	g.Go(func() error {
		if err := health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return health.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("inventory stopped", zap.Error(err))
		return
	}
	log.Info("inventory stopped")
}
