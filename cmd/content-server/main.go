package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/api"
	"github.com/MorseWayne/content_shop/internal/cache"
	"github.com/MorseWayne/content_shop/internal/config"
	"github.com/MorseWayne/content_shop/internal/database"
	"github.com/MorseWayne/content_shop/internal/logger"
	"github.com/MorseWayne/content_shop/internal/mq"
	"github.com/MorseWayne/content_shop/internal/repo"
	"github.com/MorseWayne/content_shop/internal/router"
	"github.com/MorseWayne/content_shop/internal/service"
	"github.com/MorseWayne/content_shop/internal/storage"
)

// initConfigAndLogger 初始化配置和日志器
func initConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, lg, nil
}

// initDatabase 初始化数据库连接，并在 HTTP 服务启动前完成迁移
func initDatabase(cfg *config.Config, lg *zap.Logger) (*database.DB, error) {
	db, err := database.New(cfg, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	lg.Info("using migrations directory", zap.String("path", cfg.Migrations.Dir))
	if err := db.RunMigrations(cfg.Migrations.Dir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return db, nil
}

// initCache 初始化缓存实例，Redis 不可用时退化为内存缓存
func initCache(cfg *config.Config, lg *zap.Logger) cache.Cache {
	if !cfg.Cache.Enabled {
		lg.Info("cache disabled")
		return cache.NewNullCache()
	}

	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB,
			cache.WithPoolSize(cfg.Redis.PoolSize),
			cache.WithTimeouts(cfg.Redis.CommandTimeout, cfg.Redis.CommandTimeout),
		)
		if err == nil {
			lg.Info("cache enabled", zap.String("type", "redis"), zap.String("addr", cfg.Redis.Addr()), zap.Duration("ttl", cfg.Cache.TTL))
			return redisCache
		}
		lg.Warn("failed to connect to Redis, falling back to memory cache", zap.Error(err))
	}

	lg.Info("cache enabled", zap.String("type", "memory"), zap.Duration("ttl", cfg.Cache.TTL))
	return cache.NewMemoryCache()
}

// initPublisher 初始化领域事件发布器，未启用或连接失败时使用 Noop
func initPublisher(cfg *config.Config, lg *zap.Logger) mq.Publisher {
	if !cfg.MQ.Enabled {
		lg.Info("event publishing disabled")
		return mq.NoopPublisher{}
	}
	pub, err := mq.NewAMQPPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.App.Name, lg)
	if err != nil {
		lg.Warn("failed to connect to RabbitMQ, events will be dropped", zap.Error(err))
		return mq.NoopPublisher{}
	}
	lg.Info("event publishing enabled", zap.String("exchange", cfg.MQ.Exchange))
	return pub
}

// initDependencies 依赖注入链：仓储 -> 服务 -> API处理器
func initDependencies(cfg *config.Config, db *database.DB, cacheInstance cache.Cache, events mq.Publisher, lg *zap.Logger) (*router.Dependencies, error) {
	store, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.URLPrefix, cfg.Upload.MaxBytes, lg)
	if err != nil {
		return nil, err
	}

	tokens, err := service.NewTokenService(service.JWTConfigFrom(cfg.JWT), lg)
	if err != nil {
		return nil, fmt.Errorf("init token service: %w", err)
	}

	userRepo := repo.NewUserRepository(db.DB)
	blogRepo := repo.NewBlogRepository(db.DB)
	orderRepo := repo.NewOrderRepository(db.DB)
	notificationRepo := repo.NewNotificationRepository(db.DB)

	// 可选缓存装饰器
	productRepo := repo.NewProductRepository(db.DB)
	if cfg.Cache.Enabled {
		productRepo = repo.NewCachedProductRepository(productRepo, cacheInstance, cfg.Cache.TTL, lg)
	}

	userService := service.NewUserService(service.UserServiceDeps{
		Users:       userRepo,
		Hasher:      service.NewBcryptHasher(cfg.Auth.BcryptCost),
		Tokens:      tokens,
		Cache:       cacheInstance,
		Events:      events,
		LivenessTTL: cfg.Auth.LivenessTTL,
		Logger:      lg,
	})
	blogService := service.NewBlogService(blogRepo, db, lg)
	productService := service.NewProductService(productRepo, db, lg)
	orderService := service.NewOrderService(orderRepo, productRepo, db, events, lg)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, db, events, lg)

	deps := &router.Dependencies{
		UserHandler:         api.NewUserHandler(userService, store, lg),
		BlogHandler:         api.NewBlogHandler(blogService, store, lg),
		ProductHandler:      api.NewProductHandler(productService, lg),
		OrderHandler:        api.NewOrderHandler(orderService, lg),
		NotificationHandler: api.NewNotificationHandler(notificationService, lg),
		Tokens:              tokens,
		Cache:               cacheInstance,
		DB:                  db,
	}
	if cfg.JWT.CheckLiveness {
		deps.Liveness = userService
	}
	return deps, nil
}

// startServer 启动服务器并处理优雅关闭
func startServer(cfg *config.Config, handler http.Handler, lg *zap.Logger) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.App.RequestTimeout + 5*time.Second,
	}
	lg.Info("server starting", zap.String("addr", srv.Addr))

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	case sig := <-quit:
		lg.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Error("server shutdown error", zap.Error(err))
	}
	lg.Info("server exited")
}

func main() {
	cfg, lg, err := initConfigAndLogger()
	if err != nil {
		log.Fatalf("failed to initialize config and logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := initDatabase(cfg, lg)
	if err != nil {
		lg.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Error("failed to close database connection", zap.Error(err))
		}
	}()

	cacheInstance := initCache(cfg, lg)
	defer func() { _ = cacheInstance.Close() }()

	events := initPublisher(cfg, lg)
	defer func() { _ = events.Close() }()

	deps, err := initDependencies(cfg, db, cacheInstance, events, lg)
	if err != nil {
		lg.Fatal("failed to initialize dependencies", zap.Error(err))
	}

	handler := router.New(cfg, deps, lg).Setup()
	startServer(cfg, handler, lg)
}
