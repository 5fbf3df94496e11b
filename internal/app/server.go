// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dairy-subscription-service/internal/cache"
	"dairy-subscription-service/internal/config"
	"dairy-subscription-service/internal/db"
	"dairy-subscription-service/internal/domain/events"
	catalogHandler "dairy-subscription-service/internal/handlers/catalog"
	checkoutHandler "dairy-subscription-service/internal/handlers/checkout"
	deliveryHandler "dairy-subscription-service/internal/handlers/delivery"
	subscriptionHandler "dairy-subscription-service/internal/handlers/subscription"
	walletHandler "dairy-subscription-service/internal/handlers/wallet"
	"dairy-subscription-service/internal/metrics"
	"dairy-subscription-service/internal/middleware"
	"dairy-subscription-service/internal/pkg/jwt"
	"dairy-subscription-service/internal/pkg/ratelimit"
	"dairy-subscription-service/internal/pubsub"
	"dairy-subscription-service/internal/repository/postgres"
	catalogUsecase "dairy-subscription-service/internal/service/catalog"
	deliveryUsecase "dairy-subscription-service/internal/service/delivery"
	refundUsecase "dairy-subscription-service/internal/service/refund"
	subscriptionUsecase "dairy-subscription-service/internal/service/subscription"
	walletUsecase "dairy-subscription-service/internal/service/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	http   *http.Server
	logger *zap.Logger

	pool      *pgxpool.Pool
	redis     *redis.Client
	pubsub    *pubsub.PubSub
	consumers *pubsub.Router
}

func NewServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// ----- Logger -----
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Server{cfg: cfg, engine: gin.New(), logger: logger}, nil
}

func (s *Server) Start() error {
	ctx := context.Background()
	logger := s.logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(db.PostgresConfig{
		URL:      s.cfg.DatabaseURL,
		MaxConns: s.cfg.DBMaxConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	// Redis backs the price cache and the rate limiter. Without it both
	// degrade: the cache stays in-process and limits are not enforced.
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Address:  s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		logger.Warn("redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	} else {
		s.redis = redisClient
		logger.Info("connected to Redis")
	}

	// ----- JWT -----
	verifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT verifier: %w", err)
	}

	// ----- Pub/Sub -----
	wmLogger := pubsub.NewZapAdapter(logger)
	ps, err := pubsub.New(s.cfg, wmLogger)
	if err != nil {
		return fmt.Errorf("failed to create pub/sub: %w", err)
	}
	s.pubsub = ps

	// ----- Metrics -----
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	subscriptionMetrics := metrics.NewSubscriptionMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool, logger)
	subscriptionRepo := postgres.NewSubscriptionRepository(dbWrapper)
	entryRepo := postgres.NewDeliveryEntryRepository(dbWrapper)
	catalogRepo := postgres.NewCatalogRepository(dbWrapper)
	walletRepo := postgres.NewWalletRepository(dbWrapper)

	priceCache := cache.NewPriceTableCache(catalogRepo, redisClient, s.cfg.PriceCacheTTL, logger)

	// ----- Services (Usecases) -----
	subscriptionService := subscriptionUsecase.NewSubscriptionService(
		subscriptionRepo,
		entryRepo,
		priceCache,
		walletRepo,
		dbWrapper,
		s.cfg.Business,
		subscriptionMetrics,
		logger,
	)
	deliveryService := deliveryUsecase.NewDeliveryService(
		entryRepo,
		subscriptionRepo,
		ps,
		s.cfg.Business,
		subscriptionMetrics,
		logger,
	)
	refundService := refundUsecase.NewRefundService(
		walletRepo,
		subscriptionRepo,
		dbWrapper,
		s.cfg.Business.Currency,
		subscriptionMetrics,
		logger,
	)
	walletService := walletUsecase.NewWalletService(walletRepo, s.cfg.Business.Currency)
	catalogService := catalogUsecase.NewCatalogService(catalogRepo, catalogRepo, priceCache, s.cfg.Business, logger)

	// ----- Consumers -----
	consumers, err := pubsub.NewRouter(logger, wmLogger)
	if err != nil {
		return fmt.Errorf("failed to create consumer router: %w", err)
	}
	consumers.AddConsumer("skip_refund", events.TopicDeliverySkipped, ps.Subscriber(), refundService.Handle)
	s.consumers = consumers

	go func() {
		if err := consumers.Run(ctx); err != nil {
			logger.Error("consumer router stopped", zap.Error(err))
		}
	}()
	select {
	case <-consumers.Running():
	case <-time.After(10 * time.Second):
		return fmt.Errorf("consumer router did not start")
	}

	// ----- Handlers -----
	var confirmLimiter, skipLimiter middleware.Limiter
	if redisClient != nil {
		confirmLimiter = ratelimit.NewRateLimiter(redisClient, "checkout-confirm")
		skipLimiter = ratelimit.NewRateLimiter(redisClient, "delivery-skip")
	}
	perMinute := int64(s.cfg.RateLimitPerMinute)

	handlers := &Handlers{
		CheckoutHandler:     checkoutHandler.NewCheckoutHandler(subscriptionService),
		SubscriptionHandler: subscriptionHandler.NewSubscriptionHandler(subscriptionService, deliveryService),
		DeliveryHandler:     deliveryHandler.NewDeliveryHandler(deliveryService),
		WalletHandler:       walletHandler.NewWalletHandler(walletService),
		CatalogHandler:      catalogHandler.NewCatalogHandler(catalogService),
		AuthMiddleware:      middleware.NewAuthMiddleware(verifier, s.cfg.Business.AdminRoleName),
		ConfirmRateLimit:    middleware.RateLimit(confirmLimiter, perMinute, time.Minute, logger),
		SkipRateLimit:       middleware.RateLimit(skipLimiter, perMinute, time.Minute, logger),
		MetricsHandler:      metrics.Handler(registry),
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
		httpMetrics.Middleware(),
	)

	// ----- Router -----
	SetupRouter(s.engine, handlers)

	// ----- Start HTTP -----
	s.http = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains HTTP, then stops consumers and closes connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.http != nil {
		keep(s.http.Shutdown(ctx))
	}
	if s.consumers != nil {
		keep(s.consumers.Close())
	}
	if s.pubsub != nil {
		keep(s.pubsub.Close())
	}
	if s.redis != nil {
		keep(s.redis.Close())
	}
	if s.pool != nil {
		s.pool.Close()
	}
	_ = s.logger.Sync()

	return firstErr
}
