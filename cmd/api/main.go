package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/georgemunganga/restaurant-pos/internal/config"
	"github.com/georgemunganga/restaurant-pos/internal/modules/auth"
	"github.com/georgemunganga/restaurant-pos/internal/modules/inventory"
	"github.com/georgemunganga/restaurant-pos/internal/modules/menu"
	"github.com/georgemunganga/restaurant-pos/internal/modules/order"
	"github.com/georgemunganga/restaurant-pos/internal/modules/pos"
	"github.com/georgemunganga/restaurant-pos/internal/modules/reporting"
	"github.com/georgemunganga/restaurant-pos/internal/modules/supplier"
	"github.com/georgemunganga/restaurant-pos/internal/modules/user"
	"github.com/georgemunganga/restaurant-pos/internal/platform/broker"
	"github.com/georgemunganga/restaurant-pos/internal/platform/cache"
	"github.com/georgemunganga/restaurant-pos/internal/platform/database"
	"github.com/georgemunganga/restaurant-pos/internal/platform/logger"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	log := logger.New(logger.Config{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Config{
		Driver:          cfg.Postgres.Driver,
		DSN:             cfg.Postgres.DSN(),
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	log.Info("connected to database", zap.String("driver", cfg.Postgres.Driver))

	var idem cache.IdempotencyStore = cache.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		idem = cache.NewRedisStore(client)
		log.Info("idempotency keys stored in redis", zap.String("addr", cfg.Redis.Addr))
	}

	var orderEvents broker.Publisher = broker.NopPublisher{}
	if cfg.Kafka.Enabled {
		orderEvents = broker.NewPublisher(&broker.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.OrdersTopic})
		defer orderEvents.Close()
	}

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	authService := auth.NewService(userRepo, cfg.JWT.SecretKey, time.Duration(cfg.JWT.TTLHours)*time.Hour)

	if cfg.Bootstrap.AdminEmail != "" {
		admin, err := userService.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
		if err != nil {
			log.Fatal("failed to bootstrap admin account", zap.Error(err))
		}
		if admin != nil {
			log.Info("bootstrap admin created", zap.String("email", admin.Email))
		}
	}

	// ── Menu, suppliers and inventory ───────────────────────
	menuRepo := menu.NewPostgresRepository(db)
	menuService := menu.NewService(menuRepo, log.Named("menu"))

	supplierRepo := supplier.NewPostgresRepository(db)
	supplierService := supplier.NewService(supplierRepo)

	inventoryRepo := inventory.NewPostgresRepository(db)
	recipeRepo := inventory.NewRecipePostgresRepository(db)
	inventoryOpts := []inventory.Option{inventory.WithMenuCatalog(menuRepo)}
	if cfg.Inventory.AutoLinkIngredients {
		matcher := inventory.NewKeywordMatcher(inventory.DefaultKeywordRules())
		inventoryOpts = append(inventoryOpts,
			inventory.WithAutoLinker(inventory.NewAutoLinker(matcher, menuRepo, recipeRepo, log.Named("autolink"))))
	}
	inventoryService := inventory.NewService(inventoryRepo, recipeRepo, log.Named("inventory"), inventoryOpts...)

	// ── Orders and payments ─────────────────────────────────
	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo, menuRepo, inventoryService, log.Named("order"),
		order.WithPublisher(orderEvents))

	gateways := pos.GatewayRegistry{}
	if c := cfg.Payments.MTNMomo; c.APIKey != "" {
		gateways[pos.ProviderMTNMomo] = pos.NewMTNMomoGateway(pos.GatewayConfig(c))
	}
	if c := cfg.Payments.Airtel; c.APIKey != "" {
		gateways[pos.ProviderAirtel] = pos.NewAirtelMoneyGateway(pos.GatewayConfig(c))
	}
	posService := pos.NewService(pos.NewPostgresRepository(db), orderService, log.Named("pos"), pos.WithGateways(gateways))

	reportingService := reporting.NewService(reporting.Sources{
		Items:     inventoryService,
		Ledger:    inventory.NewLedger(inventoryRepo),
		Recipes:   recipeRepo,
		Suppliers: supplierRepo,
		Sales:     orderRepo,
	}, log.Named("reporting"))

	// ── Sale events from external terminals ─────────────────
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.SalesTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer consumer.Close()
		go inventory.NewSaleListener(consumer, inventoryService, idem, log.Named("sales")).Start(ctx)
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.RequestLogger(log))
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	authHandler := auth.NewHandler(authService)
	router.Group(func(protected chi.Router) {
		protected.Use(auth.Authenticate(authService))

		authHandler.RegisterRoutes(router, protected)
		user.NewHandler(userService).RegisterRoutes(protected, auth.Require(auth.PermUsersManage))
		menu.NewHandler(menuService).RegisterRoutes(protected)
		supplier.NewHandler(supplierService).RegisterRoutes(protected)
		inventory.NewHandler(inventoryService, idem).RegisterRoutes(protected)
		order.NewHandler(orderService).RegisterRoutes(protected)
		pos.NewHandler(posService, idem).RegisterRoutes(protected)
		reporting.NewHandler(reportingService).RegisterRoutes(protected)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		log.Info("restaurant pos api listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
