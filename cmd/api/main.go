package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-veggie-billing/internal/admin"
	"github.com/ariefcatur/go-veggie-billing/internal/auth"
	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/checkout"
	"github.com/ariefcatur/go-veggie-billing/internal/config"
	"github.com/ariefcatur/go-veggie-billing/internal/httpx"
	"github.com/ariefcatur/go-veggie-billing/internal/inventory"
	kafkax "github.com/ariefcatur/go-veggie-billing/internal/kafka"
	"github.com/ariefcatur/go-veggie-billing/internal/logger"
	"github.com/ariefcatur/go-veggie-billing/internal/postgres"
	"github.com/ariefcatur/go-veggie-billing/internal/redisx"
	"github.com/ariefcatur/go-veggie-billing/internal/screenshot"
	"github.com/ariefcatur/go-veggie-billing/internal/session"
	"github.com/ariefcatur/go-veggie-billing/internal/store"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		data   store.BillingData
		tokens session.TokenStore
		cache  admin.BillCache
		prod   *kafkax.Producer
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		// no external services; stock is deducted in-process
		mem := store.NewMemory(store.WithSeed(store.DefaultSeed()))
		inline := &inventory.Inline{Svc: &inventory.Service{Stock: mem, Log: log.Named("inventory")}}
		data = store.WithEvents(mem, inline, cfg.ServiceName, log)
		tokens = session.NewMemoryTokens()
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, log)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		pg := &store.Postgres{DB: db}
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("db schema", zap.Error(err))
		}
		if err := pg.Seed(ctx, store.DefaultSeed()); err != nil {
			log.Fatal("db seed", zap.Error(err))
		}

		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Fatal("redis", zap.Error(err))
		}

		prod = kafkax.NewProducer(cfg.KafkaBrokers, billing.TopicBillCreated, 1024, log)
		prod.Start(ctx)

		data = store.WithEvents(pg, prod, cfg.ServiceName, log)
		tokens = redisx.NewTokenStore(rdb)
		cache = redisx.NewBillCache(rdb)
	default:
		log.Fatal("unknown STORE_DRIVER", zap.String("driver", cfg.StoreDriver))
	}

	dir, err := auth.NewStaticDirectory(auth.DefaultUsers)
	if err != nil {
		log.Fatal("user directory", zap.Error(err))
	}
	enc := screenshot.NewEncoder(cfg.MaxScreenshotBytes)
	newFlow := func() *checkout.Flow {
		return checkout.New(enc, data,
			checkout.WithTimeout(cfg.CheckoutTimeout),
			checkout.WithLogger(log.Named("checkout")),
		)
	}
	sessions := session.NewManager(dir, tokens, data, newFlow,
		session.WithTTL(cfg.SessionTTL),
		session.WithLogger(log.Named("session")),
	)

	router := httpx.NewRouter(log)
	httpx.Mount(router,
		&httpx.AuthHandler{Sessions: sessions},
		&httpx.ShopHandler{MaxUploadBytes: cfg.MaxScreenshotBytes},
		&httpx.AdminHandler{Admin: &admin.Service{
			Data:       data,
			Cache:      cache,
			LowStockKg: cfg.LowStockKg,
			Log:        log.Named("admin"),
		}},
	)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	// let in-flight checkouts finish their commit before the producer closes
	ctx2, cancel2 := context.WithTimeout(context.Background(), cfg.CheckoutTimeout+5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()      // flush & close writer
		prod.WaitClosed() // drain
	}
	cancel()
}
