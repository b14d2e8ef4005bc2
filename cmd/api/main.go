package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"flash-sale-api/internal/cache"
	"flash-sale-api/internal/clock"
	"flash-sale-api/internal/config"
	"flash-sale-api/internal/handler"
	"flash-sale-api/internal/limiter"
	"flash-sale-api/internal/middleware"
	"flash-sale-api/internal/repository"
	"flash-sale-api/internal/router"
	"flash-sale-api/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting flash-sale API...")

	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Sales store (sales, purchases, products)
	var salesDB *sql.DB
	var err error
	var saleRepo repository.SaleRepository
	var purchaseRepo repository.PurchaseRepository
	var productRepo repository.ProductRepository

	switch cfg.SalesDB.Type {
	case "postgres", "postgresql":
		salesDB, err = repository.OpenPostgres(cfg.SalesDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to open PostgreSQL: %v", err)
		}
		saleRepo, err = repository.NewPostgresSaleRepository(salesDB)
		if err != nil {
			log.Fatalf("Failed to initialize sale repository: %v", err)
		}
		purchaseRepo, err = repository.NewPostgresPurchaseRepository(salesDB)
		if err != nil {
			log.Fatalf("Failed to initialize purchase repository: %v", err)
		}
		productRepo, err = repository.NewPostgresProductRepository(salesDB)
		if err != nil {
			log.Fatalf("Failed to initialize product repository: %v", err)
		}
		log.Println("PostgreSQL sales store initialized")
	default: // sqlite
		if err := os.MkdirAll(filepath.Dir(cfg.SalesDB.Path), 0o755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		salesDB, err = repository.OpenSQLite(cfg.SalesDB.SQLiteDSN())
		if err != nil {
			log.Fatalf("Failed to open SQLite: %v", err)
		}
		saleRepo, err = repository.NewSQLiteSaleRepository(salesDB)
		if err != nil {
			log.Fatalf("Failed to initialize sale repository: %v", err)
		}
		purchaseRepo, err = repository.NewSQLitePurchaseRepository(salesDB)
		if err != nil {
			log.Fatalf("Failed to initialize purchase repository: %v", err)
		}
		productRepo, err = repository.NewSQLiteProductRepository(salesDB)
		if err != nil {
			log.Fatalf("Failed to initialize product repository: %v", err)
		}
		log.Println("SQLite sales store initialized")
	}
	defer salesDB.Close()

	// Accounts database (optional: the API runs without registration/login
	// when MySQL is absent).
	var usersDB *sql.DB
	var userRepo repository.UserRepository

	usersDB, err = repository.OpenMySQL(cfg.UsersDB.DSN())
	if err != nil {
		log.Printf("Warning: accounts database unavailable: %v", err)
		usersDB = nil
	} else {
		defer usersDB.Close()
		mysqlRepo, err := repository.NewMySQLUserRepository(usersDB)
		if err != nil {
			log.Fatalf("Failed to initialize user repository: %v", err)
		}
		userRepo = mysqlRepo
	}

	// Redis (session tokens, rate limiting, read cache)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()

	var productCache cache.Cache
	if redisClient != nil {
		productCache = cache.NewRedisCache(redisClient, "flashsale:cache")
	} else {
		memCache := cache.NewMemoryCache()
		defer memCache.Stop()
		productCache = memCache
	}

	// Services
	clk := clock.NewSystem()

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	}

	productService := service.NewProductService(productRepo, saleRepo, productCache, clk)
	saleService := service.NewSaleService(saleRepo, productRepo, service.SaleDefaults{
		TotalUnits:         cfg.Purchase.DefaultTotalUnits,
		MaxPurchasePerUser: cfg.Purchase.DefaultMaxPerUser,
	}, clk)
	purchaseService := service.NewPurchaseService(purchaseRepo, saleRepo, productRepo, userRepo, clk)

	var authService *service.AuthService
	if userRepo != nil && tokenService != nil {
		authService = service.NewAuthService(userRepo, tokenService, clk)
	}

	// Handlers
	healthHandler := handler.NewHealthHandler(salesDB, usersDB)
	productHandler := handler.NewProductHandler(productService)
	saleHandler := handler.NewSaleHandler(saleService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	adminHandler := handler.NewAdminHandler(purchaseService)

	var authHandler *handler.AuthHandler
	if authService != nil {
		authHandler = handler.NewAuthHandler(authService)
	}

	// Middleware
	var authMiddleware func(http.Handler) http.Handler
	if tokenService != nil {
		authMiddleware = middleware.NewAuth(tokenService)
	}

	var purchaseRateLimiter func(http.Handler) http.Handler
	if redisClient != nil {
		purchaseLimiter := limiter.New(redisClient, cfg.RateLimit.PurchaseAttempts,
			cfg.RateLimit.PurchaseWindow, cfg.RateLimit.FailOpen)
		purchaseRateLimiter = middleware.NewRateLimit(purchaseLimiter)
	}

	r := router.New(router.Config{
		HealthHandler:       healthHandler,
		AuthHandler:         authHandler,
		ProductHandler:      productHandler,
		SaleHandler:         saleHandler,
		PurchaseHandler:     purchaseHandler,
		AdminHandler:        adminHandler,
		AuthMiddleware:      authMiddleware,
		PurchaseRateLimiter: purchaseRateLimiter,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
