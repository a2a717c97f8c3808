package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	cartrepo "storefront/internal/repository/cart"
	"storefront/internal/repository/inventory"
	orderrepo "storefront/internal/repository/order"
	outboxrepo "storefront/internal/repository/outbox"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	"storefront/internal/service/identity"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	cartRepo := cartrepo.NewPostgres(dbpool)
	productRepo := productrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool)
	outboxRepo := outboxrepo.NewPostgres(dbpool)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	ledger := inventory.NewPostgres(dbpool)

	m := metrics.New()
	cartService := cartsvc.New(cartRepo, productRepo, cfg.CartTTL)
	checkoutService := checkout.New(cartRepo, orderRepo, productRepo, ledger, outboxRepo, logger)
	checkoutService.Metrics = m
	resolver := identity.NewResolver(tokenRepo)

	kafka := notify.NewClient(cfg.KafkaBrokers)
	relay := notify.NewRelay(outboxRepo, kafka, cfg.NotifyTopic, m, logger, cfg.RelayInterval)
	go relay.Run(ctx)

	go sweepExpiredCarts(ctx, cartRepo, cfg.SweepInterval, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CartSvc:     cartService,
		CheckoutSvc: checkoutService,
		Identity:    resolver,
		Metrics:     m,
		DevMode:     cfg.DevMode,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// sweepExpiredCarts drops carts whose TTL elapsed, on an interval.
func sweepExpiredCarts(ctx context.Context, repo cartrepo.Repository, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				logger.Printf("sweep expired carts: %v", err)
				continue
			}
			if n > 0 {
				logger.Printf("swept %d expired carts", n)
			}
		}
	}
}
