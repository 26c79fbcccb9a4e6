// Package app wires configuration, storage, the cart engine, and the HTTP
// server into a runnable service.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/shopkart/internal/cart"
	"github.com/xenking/shopkart/internal/domain/coupon"
	"github.com/xenking/shopkart/internal/domain/order"
	"github.com/xenking/shopkart/internal/handler"
	"github.com/xenking/shopkart/internal/pricing"
	"github.com/xenking/shopkart/internal/snapshot"
	"github.com/xenking/shopkart/internal/storage/postgres"
	"github.com/xenking/shopkart/pkg/health"
	"github.com/xenking/shopkart/pkg/httpmiddleware"
)

// Run creates all dependencies, restores the cart from its last snapshot,
// starts the HTTP server and the snapshot saver, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	policy, err := cfg.Pricing.Policy()
	if err != nil {
		return errors.Wrap(err, "pricing config")
	}
	couponRules, err := rules(cfg.Coupons)
	if err != nil {
		return errors.Wrap(err, "coupon config")
	}

	// PostgreSQL pool + migrations. The catalog and order history always
	// live in postgres; only the cart snapshot backend is selectable.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	cartID := cfg.Snapshot.CartID
	if cartID == "" {
		cartID = uuid.NewString()
	}

	var snapStore snapshot.Store
	switch cfg.Snapshot.Backend {
	case "postgres":
		snapStore = postgres.NewSnapshotStore(pool, cartID, lg)
	default:
		snapStore = snapshot.NewFileStore(cfg.Snapshot.Path, lg)
	}
	saver := snapshot.NewSaver(snapStore, lg)

	// Cart engine.
	store := cart.NewStore(
		pricing.NewCalculator(policy),
		coupon.NewTableResolver(couponRules),
		cart.WithCartID(cartID),
		cart.WithSaver(saver),
		cart.WithLogger(lg.Named("cart")),
	)
	if snap, err := snapStore.Load(ctx); err != nil {
		return errors.Wrap(err, "load snapshot")
	} else if snap != nil {
		state := store.Restore(snap.State())
		lg.Info("Cart restored",
			zap.String("cart_id", state.ID),
			zap.Uint64("version", state.Version),
			zap.Int("items", len(state.Lines)),
		)
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("snapshot-saver", time.Second, health.BacklogCheck(time.Minute, saver.PendingSince))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories and services.
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	checkout := order.NewService(orderRepo)

	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		store,
		productRepo,
		checkout,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	instrumented := otelhttp.NewHandler(mux, "shopkart-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	g, gctx := errgroup.WithContext(ctx)

	// Snapshot saver drains commits until shutdown, then flushes.
	g.Go(func() error {
		return saver.Run(gctx)
	})

	// Graceful shutdown: drain readiness, then stop the server. The saver
	// flushes the final snapshot when gctx is cancelled.
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}
